package main

import (
	"context"
	"log/slog"

	"github.com/letmevibethatforyou/storefrontx"
	"github.com/letmevibethatforyou/storefrontx/internal/ddb"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentWrites bounds parallel Algolia calls per stream batch.
const maxConcurrentWrites = 4

// Catalog is the search index the product table is mirrored to.
// *algolia.Client implements it.
type Catalog interface {
	SaveProducts(ctx context.Context, indexName string, products []storefrontx.Product) error
	DeleteProduct(ctx context.Context, indexName, productID string) error
}

type Handler struct {
	catalog Catalog
}

func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type itemKey struct {
	index string
	id    string
}

// change is the last known state of one product within a batch.
// A nil product means the product was removed.
type change struct {
	key     itemKey
	product *storefrontx.Product
}

// HandleDynamoDBEvent mirrors a stream batch into the catalog. Within a
// batch only the last change per product is applied; upserts are grouped
// per index into one call.
func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.DynamoDBEvent) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	var order []itemKey
	latest := make(map[itemKey]change)
	for _, record := range e.Records {
		c, ok := parseRecord(ctx, record)
		if !ok {
			continue
		}
		if _, seen := latest[c.key]; !seen {
			order = append(order, c.key)
		}
		latest[c.key] = c
	}

	upserts := make(map[string][]storefrontx.Product)
	var deletes []itemKey
	for _, k := range order {
		c := latest[k]
		if c.product == nil {
			deletes = append(deletes, k)
			continue
		}
		upserts[k.index] = append(upserts[k.index], *c.product)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentWrites)
	for index, products := range upserts {
		g.Go(func() error {
			slog.InfoContext(gctx, "Saving products to Algolia", "index", index, "count", len(products))
			return h.catalog.SaveProducts(gctx, index, products)
		})
	}
	for _, k := range deletes {
		g.Go(func() error {
			slog.InfoContext(gctx, "Deleting product from Algolia", "product_id", k.id, "index", k.index)
			return h.catalog.DeleteProduct(gctx, k.index, k.id)
		})
	}

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Error syncing records", "error", err)
		return err
	}
	return nil
}

// parseRecord extracts the change carried by a stream record. Malformed
// records are logged and skipped.
func parseRecord(ctx context.Context, record ddb.DynamoDBEventRecord) (change, bool) {
	switch ddb.DynamoDBOperationType(record.EventName) {
	case ddb.DynamoDBOperationTypeInsert, ddb.DynamoDBOperationTypeModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record")
			return change{}, false
		}

		parsed, err := ddb.UnmarshalRecord(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "error", err)
			return change{}, false
		}
		if parsed.ID == "" || parsed.IndexName == "" {
			slog.WarnContext(ctx, "Missing pk or sk in record, skipping record")
			return change{}, false
		}
		if parsed.Object == nil {
			slog.WarnContext(ctx, "Missing object in record, skipping record", "id", parsed.ID, "index", parsed.IndexName)
			return change{}, false
		}

		p := parsed.Product()
		return change{key: itemKey{index: parsed.IndexName, id: parsed.ID}, product: &p}, true

	case ddb.DynamoDBOperationTypeRemove:
		parsed, err := ddb.UnmarshalRecord(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "error", err)
			return change{}, false
		}
		if parsed.ID == "" || parsed.IndexName == "" {
			slog.WarnContext(ctx, "Missing pk or sk in delete record, skipping record")
			return change{}, false
		}
		return change{key: itemKey{index: parsed.IndexName, id: parsed.ID}}, true

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return change{}, false
	}
}
