// Package algolia provides a lazy-loading Algolia catalog client with
// configurable secret management, and a storefrontx.Searcher on top of it.
package algolia

import (
	"context"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteAPIKey is the Algolia write API key.
	WriteAPIKey string `json:"write_api_key"`
}

// FetchSecrets retrieves Algolia credentials. It is called at most once,
// on first use of the client.
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, writeAPIKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{AppID: appID, WriteAPIKey: writeAPIKey}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, errors.New("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, errors.New("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{AppID: appID, WriteAPIKey: apiKey}, nil
	}
}

// index is the part of *search.Index the catalog uses.
type index interface {
	Search(query string, opts ...interface{}) (search.QueryRes, error)
	SaveObjects(objects interface{}, opts ...interface{}) (search.GroupBatchRes, error)
	DeleteObject(objectID string, opts ...interface{}) (search.DeleteTaskRes, error)
}

// Client wraps the Algolia search client. Credentials are fetched lazily.
type Client struct {
	getIndex func(name string) (index, error)
	tracer   trace.Tracer
}

// NewClient returns a client that fetches credentials on first use.
func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch secrets")
		}
		if secrets.AppID == "" {
			return nil, errors.New("AppID is empty")
		}
		if secrets.WriteAPIKey == "" {
			return nil, errors.New("WriteAPIKey is empty")
		}
		return search.NewClient(secrets.AppID, secrets.WriteAPIKey), nil
	})

	return newClient(func(name string) (index, error) {
		client, err := getClient()
		if err != nil {
			return nil, err
		}
		return client.InitIndex(name), nil
	})
}

func newClient(getIndex func(name string) (index, error)) *Client {
	return &Client{
		getIndex: getIndex,
		tracer:   otel.Tracer("storefrontx-algolia"),
	}
}

// record is the shape stored in Algolia: the backend product plus the
// objectID and a numeric price usable in numeric filters.
type record struct {
	ObjectID string `json:"objectID"`
	storefrontx.Product
	PriceValue float64 `json:"price"`
}

// hitKey reads the objectID of a hit. Products decode separately because
// storefrontx.Product has its own UnmarshalJSON.
type hitKey struct {
	ObjectID string `json:"objectID"`
}

func newRecord(p storefrontx.Product) record {
	return record{ObjectID: p.ID, Product: p, PriceValue: p.Price.InexactFloat64()}
}

func (c *Client) search(ctx context.Context, indexName, query string, params []interface{}) (search.QueryRes, error) {
	_, span := c.tracer.Start(ctx, "algolia.search",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.query_length", len(query)),
		),
	)
	defer span.End()

	idx, err := c.getIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return search.QueryRes{}, errors.WithSecondaryError(storefrontx.ErrBackendUnavailable,
			errors.Wrap(err, "failed to get Algolia client"))
	}

	res, err := idx.Search(query, params...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed on index "+indexName)
		return search.QueryRes{}, err
	}

	span.SetAttributes(attribute.Int("algolia.hits", res.NbHits))
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// SaveProducts upserts products into the index in one batch.
func (c *Client) SaveProducts(ctx context.Context, indexName string, products []storefrontx.Product) error {
	if len(products) == 0 {
		return nil
	}

	_, span := c.tracer.Start(ctx, "algolia.save_products",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.Int("algolia.object_count", len(products)),
		),
	)
	defer span.End()

	idx, err := c.getIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	records := make([]record, 0, len(products))
	for _, p := range products {
		records = append(records, newRecord(p))
	}

	if _, err := idx.SaveObjects(records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save products to index "+indexName)
		return errors.Wrapf(err, "failed to save %d products to Algolia index %s", len(products), indexName)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// DeleteProduct removes one product from the index.
func (c *Client) DeleteProduct(ctx context.Context, indexName, productID string) error {
	_, span := c.tracer.Start(ctx, "algolia.delete_product",
		trace.WithAttributes(
			attribute.String("algolia.index_name", indexName),
			attribute.String("algolia.object_id", productID),
		),
	)
	defer span.End()

	idx, err := c.getIndex(indexName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return err
	}

	if _, err := idx.DeleteObject(productID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete product from index "+indexName)
		return errors.Wrapf(err, "failed to delete product %s from Algolia index %s", productID, indexName)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
