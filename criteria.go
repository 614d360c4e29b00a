package storefrontx

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// SortBy is the ordering requested for search results.
type SortBy string

const (
	// SortRelevance is the default ordering.
	SortRelevance SortBy = "relevance"
	// SortPriceAsc orders by ascending price.
	SortPriceAsc SortBy = "price_asc"
	// SortPriceDesc orders by descending price.
	SortPriceDesc SortBy = "price_desc"
	// SortRating orders by descending average rating.
	SortRating SortBy = "rating"
)

// ParseSortBy converts a raw value into a SortBy. The legacy storefront
// values "pertinence" and "stars" are accepted; anything unknown is relevance.
func ParseSortBy(raw string) SortBy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SortPriceAsc):
		return SortPriceAsc
	case string(SortPriceDesc):
		return SortPriceDesc
	case string(SortRating), "stars":
		return SortRating
	default:
		return SortRelevance
	}
}

// Criteria holds the filter dimensions applied to a catalog search.
// The string slices are ordered sets: no duplicates, insertion order kept.
type Criteria struct {
	Categories []string
	Brands     []string
	Sellers    []string

	// MinPrice and MaxPrice are nil when unset.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal

	SortBy SortBy
}

// Sort returns the effective ordering, relevance when unset.
func (c Criteria) Sort() SortBy {
	if c.SortBy == "" {
		return SortRelevance
	}
	return c.SortBy
}

// IsZero reports whether every dimension is at its default.
func (c Criteria) IsZero() bool {
	return len(c.Categories) == 0 &&
		len(c.Brands) == 0 &&
		len(c.Sellers) == 0 &&
		c.MinPrice == nil &&
		c.MaxPrice == nil &&
		c.Sort() == SortRelevance
}

// HasPriceBound reports whether either price bound is set.
func (c Criteria) HasPriceBound() bool {
	return c.MinPrice != nil || c.MaxPrice != nil
}

// Validate checks that price bounds are non-negative and ordered, that no
// set holds an empty value and that the ordering is a known one.
func (c Criteria) Validate() error {
	switch c.SortBy {
	case "", SortRelevance, SortPriceAsc, SortPriceDesc, SortRating:
	default:
		return errors.WithSecondaryError(ErrInvalidCriteria,
			errors.Newf("unknown sort %q", c.SortBy))
	}
	for _, set := range [][]string{c.Categories, c.Brands, c.Sellers} {
		if slices.Contains(set, "") {
			return errors.WithSecondaryError(ErrInvalidCriteria,
				errors.New("filter sets cannot hold an empty value"))
		}
	}
	if c.MinPrice != nil && c.MinPrice.IsNegative() {
		return errors.WithSecondaryError(ErrInvalidCriteria,
			errors.Newf("minPrice %s is negative", c.MinPrice))
	}
	if c.MaxPrice != nil && c.MaxPrice.IsNegative() {
		return errors.WithSecondaryError(ErrInvalidCriteria,
			errors.Newf("maxPrice %s is negative", c.MaxPrice))
	}
	if c.MinPrice != nil && c.MaxPrice != nil && c.MinPrice.GreaterThan(*c.MaxPrice) {
		return errors.WithSecondaryError(ErrInvalidCriteria,
			errors.Newf("minPrice %s exceeds maxPrice %s", c.MinPrice, c.MaxPrice))
	}
	return nil
}

// Clone returns a deep copy that shares no memory with c.
func (c Criteria) Clone() Criteria {
	out := Criteria{
		Categories: slices.Clone(c.Categories),
		Brands:     slices.Clone(c.Brands),
		Sellers:    slices.Clone(c.Sellers),
		SortBy:     c.SortBy,
	}
	if c.MinPrice != nil {
		v := *c.MinPrice
		out.MinPrice = &v
	}
	if c.MaxPrice != nil {
		v := *c.MaxPrice
		out.MaxPrice = &v
	}
	return out
}

// Equal compares two criteria. Set fields are compared regardless of order
// and bounds by numeric value.
func (c Criteria) Equal(o Criteria) bool {
	return sameSet(c.Categories, o.Categories) &&
		sameSet(c.Brands, o.Brands) &&
		sameSet(c.Sellers, o.Sellers) &&
		sameBound(c.MinPrice, o.MinPrice) &&
		sameBound(c.MaxPrice, o.MaxPrice) &&
		c.Sort() == o.Sort()
}

// Expressions lowers the criteria into filter expressions understood by the
// catalog backends: one OR group per non-empty set, one range for the price.
func (c Criteria) Expressions() []Expression {
	var exprs []Expression

	for _, group := range []struct {
		field  string
		values []string
	}{
		{FieldNameCategory, c.Categories},
		{FieldNameBrand, c.Brands},
		{FieldNameSeller, c.Sellers},
	} {
		if len(group.values) == 0 {
			continue
		}
		alts := make([]Expression, 0, len(group.values))
		for _, v := range group.values {
			alts = append(alts, Eq(group.field, v))
		}
		exprs = append(exprs, Or(alts...))
	}

	if c.HasPriceBound() {
		var lo, hi *decimal.Decimal
		if c.MinPrice != nil {
			v := *c.MinPrice
			lo = &v
		}
		if c.MaxPrice != nil {
			v := *c.MaxPrice
			hi = &v
		}
		exprs = append(exprs, Range(FieldNamePrice, lo, hi))
	}

	return exprs
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func sameBound(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SearchRequest is one search issued against a Searcher.
type SearchRequest struct {
	Query    string
	Criteria Criteria
}

// IsBlank reports whether the request carries neither text nor filters.
func (r SearchRequest) IsBlank() bool {
	return strings.TrimSpace(r.Query) == "" && r.Criteria.IsZero()
}
