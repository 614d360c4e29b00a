package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/alitto/pond/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/letmevibethatforyou/storefrontx/internal/ddb"
	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"
)

// ItemPutter is the DynamoDB call the seeder needs. *dynamodb.Client implements it.
type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var (
	catalog = map[string]map[string][]string{
		"Casque": {
			"Bose":       {"QuietComfort 45", "QuietComfort Ultra", "700"},
			"Sony":       {"WH-1000XM5", "WH-CH720N", "ULT Wear"},
			"JBL":        {"Tune 510BT", "Live 660NC"},
			"Sennheiser": {"Momentum 4", "HD 450BT"},
		},
		"Enceinte": {
			"JBL":   {"Flip 6", "Charge 5", "Go 3"},
			"Bose":  {"SoundLink Flex", "SoundLink Revolve+"},
			"Sonos": {"Roam", "Era 100", "Move 2"},
		},
		"Ecouteurs": {
			"Apple":   {"AirPods Pro", "AirPods 3"},
			"Sony":    {"WF-1000XM5", "WF-C500"},
			"Samsung": {"Galaxy Buds2 Pro", "Galaxy Buds FE"},
		},
	}

	sellers = []string{"Fnac", "Darty", "Boulanger", "Amazon", "Cdiscount"}
)

func pick[T any](items []T) T {
	return items[rand.IntN(len(items))]
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// randomProduct returns a product with a fresh ksuid.
func randomProduct() storefrontx.Product {
	category := pick(keys(catalog))
	brand := pick(keys(catalog[category]))
	model := pick(catalog[category][brand])
	name := category + " " + brand + " " + model

	// 19.00 to 499.99, two decimals
	cents := 1900 + rand.IntN(48100)

	return storefrontx.Product{
		ID:          ksuid.New().String(),
		Name:        name,
		Description: category + " " + brand + " " + model + " vendu par nos partenaires",
		Brand:       brand,
		Seller:      pick(sellers),
		Category:    category,
		Price:       decimal.New(int64(cents), -2),
		Rating:      float64(30+rand.IntN(21)) / 10,
	}
}

// Seeder writes generated products into the product table.
type Seeder struct {
	client      ItemPutter
	tableName   string
	indexName   string
	concurrency int
	generate    func() storefrontx.Product
}

// Seed inserts count products and returns how many were written.
// Individual failures are logged; an error is returned if any insert failed.
func (s *Seeder) Seed(ctx context.Context, count int) (int, error) {
	pool := pond.NewPool(s.concurrency)

	var written, failed atomic.Int32
	for i := 0; i < count; i++ {
		product := s.generate()
		pool.Submit(func() {
			if err := s.put(ctx, product); err != nil {
				slog.ErrorContext(ctx, "Failed to insert product", "id", product.ID, "error", err)
				failed.Add(1)
				return
			}
			written.Add(1)
			slog.InfoContext(ctx, "Inserted product",
				"id", product.ID,
				"name", product.Name,
				"price", product.Price.StringFixed(2),
			)
		})
	}
	pool.StopAndWait()

	if n := failed.Load(); n > 0 {
		return int(written.Load()), errors.Newf("%d of %d inserts failed", n, count)
	}
	return int(written.Load()), nil
}

func (s *Seeder) put(ctx context.Context, p storefrontx.Product) error {
	item, err := ddb.MarshalRecord(ddb.NewRecord(s.indexName, p))
	if err != nil {
		return errors.Wrap(err, "failed to marshal product record")
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return errors.Wrap(err, "failed to put item in DynamoDB")
	}
	return nil
}
