package storefrontx

import (
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/shopspring/decimal"
)

// Query-string keys understood by the catalog route.
const (
	ParamQuery      = "q"
	ParamCategories = "categories"
	ParamBrands     = "brands"
	ParamSellers    = "sellers"
	ParamMinPrice   = "minPrice"
	ParamMaxPrice   = "maxPrice"
	ParamSortBy     = "sortBy"
)

var searchParams = []string{
	ParamQuery, ParamCategories, ParamBrands, ParamSellers,
	ParamMinPrice, ParamMaxPrice, ParamSortBy,
}

// wireQuery is the URL form of a search. Every field is omitted at its default.
type wireQuery struct {
	Query      string   `url:"q,omitempty"`
	Categories []string `url:"categories,comma,omitempty"`
	Brands     []string `url:"brands,comma,omitempty"`
	Sellers    []string `url:"sellers,comma,omitempty"`
	MinPrice   string   `url:"minPrice,omitempty"`
	MaxPrice   string   `url:"maxPrice,omitempty"`
	SortBy     string   `url:"sortBy,omitempty"`
}

// EncodeQuery renders criteria and query text as a URL query string with
// keys in sorted order. Values containing commas are not escaped beyond
// percent-encoding and will split on decode.
func EncodeQuery(c Criteria, queryText string) string {
	w := wireQuery{
		Query:      queryText,
		Categories: c.Categories,
		Brands:     c.Brands,
		Sellers:    c.Sellers,
	}
	if c.MinPrice != nil {
		w.MinPrice = c.MinPrice.String()
	}
	if c.MaxPrice != nil {
		w.MaxPrice = c.MaxPrice.String()
	}
	if s := c.Sort(); s != SortRelevance {
		w.SortBy = string(s)
	}

	v, err := query.Values(w)
	if err != nil {
		// wireQuery only holds strings and string slices.
		return ""
	}
	return v.Encode()
}

// DecodeQuery parses a query string produced by EncodeQuery, or typed by a
// user. It never fails: malformed or missing parameters decode to defaults.
func DecodeQuery(raw string) (Criteria, string) {
	// ParseQuery keeps every pair it could parse even when it reports an error.
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))

	c := Criteria{
		Categories: splitSet(v.Get(ParamCategories)),
		Brands:     splitSet(v.Get(ParamBrands)),
		Sellers:    splitSet(v.Get(ParamSellers)),
		MinPrice:   parseBound(v.Get(ParamMinPrice)),
		MaxPrice:   parseBound(v.Get(ParamMaxPrice)),
		SortBy:     ParseSortBy(v.Get(ParamSortBy)),
	}
	return c, v.Get(ParamQuery)
}

// HasSearchParams reports whether the query string carries any search key,
// which switches the catalog from paginated browse to search mode.
func HasSearchParams(raw string) bool {
	v, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	for _, key := range searchParams {
		if v.Has(key) {
			return true
		}
	}
	return false
}

func splitSet(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	// Segments are kept verbatim so padded values survive a round trip.
	for _, part := range strings.Split(joined, ",") {
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

// parseBound returns nil for empty, non-numeric or negative input.
func parseBound(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}
