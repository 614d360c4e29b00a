package algolia

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/opt"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/shopspring/decimal"
)

// maxHitsPerPage is Algolia's upper bound for a single page.
const maxHitsPerPage = 1000

// Searcher implements the storefrontx.Searcher interface using Algolia.
//
// Non-relevance sorts are served by replica indices named
// "<index>_<sort>", e.g. "products_price_asc".
type Searcher struct {
	client    *Client
	indexName string
}

// NewSearcher creates a new Algolia searcher for the specified primary index.
func NewSearcher(client *Client, indexName string) *Searcher {
	return &Searcher{
		client:    client,
		indexName: indexName,
	}
}

// Search implements the storefrontx.Searcher interface using Algolia search.
func (s *Searcher) Search(ctx context.Context, req storefrontx.SearchRequest) (*storefrontx.Results, error) {
	startTime := time.Now()

	select {
	case <-ctx.Done():
		return nil, storefrontx.ErrCanceled
	default:
	}

	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}

	res, err := s.client.search(ctx, s.indexFor(req.Criteria.Sort()), req.Query, buildSearchParams(req.Criteria))
	if err != nil {
		if errors.Is(err, storefrontx.ErrBackendUnavailable) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, storefrontx.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, storefrontx.ErrCanceled
		}
		return nil, errors.WithSecondaryError(
			storefrontx.ErrBackendUnavailable,
			errors.Wrapf(err, "Algolia search failed"),
		)
	}

	var products []storefrontx.Product
	var keys []hitKey
	decodeErr := res.UnmarshalHits(&products)
	if decodeErr == nil {
		decodeErr = res.UnmarshalHits(&keys)
	}
	if decodeErr == nil && len(keys) != len(products) {
		decodeErr = errors.Newf("decoded %d products but %d object ids", len(products), len(keys))
	}
	if decodeErr != nil {
		return nil, errors.WithSecondaryError(storefrontx.ErrDecode,
			errors.Wrap(decodeErr, "failed to decode Algolia hits"))
	}

	results := &storefrontx.Results{
		Products: make([]storefrontx.Product, 0, len(products)),
		Total:    int64(res.NbHits),
		Query:    req.Query,
	}
	for i, p := range products {
		if p.ID == "" {
			p.ID = keys[i].ObjectID
		}
		results.Products = append(results.Products, p)
	}
	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

// indexFor returns the replica serving the sort order.
func (s *Searcher) indexFor(by storefrontx.SortBy) string {
	if by == storefrontx.SortRelevance {
		return s.indexName
	}
	return s.indexName + "_" + string(by)
}

// buildSearchParams converts criteria into Algolia search parameters.
func buildSearchParams(c storefrontx.Criteria) []interface{} {
	params := []interface{}{opt.HitsPerPage(maxHitsPerPage)}
	if filters := buildFilters(c.Expressions()); filters != "" {
		params = append(params, opt.Filters(filters))
	}
	return params
}

// buildFilters joins top-level expressions with AND.
func buildFilters(exprs []storefrontx.Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if f := convertExpressionToFilter(e); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " AND ")
}

// convertExpressionToFilter converts an expression to an Algolia filter string.
func convertExpressionToFilter(expr storefrontx.Expression) string {
	switch e := expr.(type) {
	case storefrontx.AndExpr:
		return joinGroup(e.Exprs, " AND ")
	case storefrontx.OrExpr:
		return joinGroup(e.Exprs, " OR ")
	case storefrontx.EqExpr:
		return fmt.Sprintf("%s:%s", escapeField(e.Field), escapeValue(e.Value))
	case storefrontx.RangeExpr:
		return convertRangeExpression(e)
	default:
		return ""
	}
}

func joinGroup(exprs []storefrontx.Expression, sep string) string {
	filters := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if f := convertExpressionToFilter(e); f != "" {
			filters = append(filters, f)
		}
	}
	switch len(filters) {
	case 0:
		return ""
	case 1:
		return filters[0]
	default:
		return "(" + strings.Join(filters, sep) + ")"
	}
}

// convertRangeExpression converts a range expression to Algolia filter syntax.
func convertRangeExpression(expr storefrontx.RangeExpr) string {
	field := escapeField(expr.Field)
	switch {
	case expr.Min != nil && expr.Max != nil:
		return fmt.Sprintf("%s:%s TO %s", field, number(*expr.Min), number(*expr.Max))
	case expr.Min != nil:
		return fmt.Sprintf("%s >= %s", field, number(*expr.Min))
	case expr.Max != nil:
		return fmt.Sprintf("%s <= %s", field, number(*expr.Max))
	default:
		return ""
	}
}

func number(d decimal.Decimal) string {
	return d.String()
}

// escapeField quotes field names containing filter syntax characters.
func escapeField(field string) string {
	if strings.ContainsAny(field, " :-()") {
		return fmt.Sprintf(`"%s"`, field)
	}
	return field
}

// escapeValue quotes a string value and escapes internal quotes.
func escapeValue(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
