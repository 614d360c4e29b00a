package storefrontx

import (
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// Field names a set-valued filter dimension.
type Field int

const (
	FieldCategories Field = iota + 1
	FieldBrands
	FieldSellers
)

// Bound names one of the two price bounds.
type Bound int

const (
	BoundMin Bound = iota + 1
	BoundMax
)

// Filters is the mutable filter panel state. It is safe for concurrent use.
// Listeners registered with OnChange receive a snapshot after each mutation,
// outside the lock.
type Filters struct {
	mu        sync.RWMutex
	criteria  Criteria
	listeners []func(Criteria)
}

// NewFilters returns filter state initialised from c.
func NewFilters(c Criteria) *Filters {
	return &Filters{criteria: c.Clone()}
}

// OnChange registers fn to be called with a snapshot after every mutation.
func (f *Filters) OnChange(fn func(Criteria)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Criteria returns a deep copy of the current state.
func (f *Filters) Criteria() Criteria {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.criteria.Clone()
}

// Toggle adds value to the field's set if absent, removes it otherwise.
// It reports whether the value is present afterwards. Unknown fields and
// empty values are a no-op.
func (f *Filters) Toggle(field Field, value string) bool {
	if value == "" {
		return false
	}
	present := false
	ok := f.mutate(func(c *Criteria) bool {
		set := fieldSet(c, field)
		if set == nil {
			return false
		}
		if i := slices.Index(*set, value); i >= 0 {
			*set = slices.Delete(slices.Clone(*set), i, i+1)
			if len(*set) == 0 {
				*set = nil
			}
			return true
		}
		*set = append(slices.Clone(*set), value)
		present = true
		return true
	})
	return ok && present
}

// SetPriceBound replaces one price bound. An empty or blank string unsets it.
// Non-numeric input returns ErrInvalidCriteria and leaves the state unchanged.
func (f *Filters) SetPriceBound(which Bound, raw string) error {
	var val *decimal.Decimal
	if raw = strings.TrimSpace(raw); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return errors.WithSecondaryError(ErrInvalidCriteria,
				errors.Wrapf(err, "parse price bound %q", raw))
		}
		val = &d
	}

	if which != BoundMin && which != BoundMax {
		return errors.WithSecondaryError(ErrInvalidCriteria, errors.Newf("unknown bound %d", which))
	}

	f.mutate(func(c *Criteria) bool {
		if which == BoundMin {
			c.MinPrice = val
		} else {
			c.MaxPrice = val
		}
		return true
	})
	return nil
}

// SetSort replaces the ordering. Unknown values are normalized through
// ParseSortBy and become relevance.
func (f *Filters) SetSort(s SortBy) {
	s = ParseSortBy(string(s))
	f.mutate(func(c *Criteria) bool {
		c.SortBy = s
		return true
	})
}

// Clear resets every dimension to its default.
func (f *Filters) Clear() {
	f.Reset(Criteria{})
}

// Reset replaces the whole state, e.g. after decoding it from a URL.
func (f *Filters) Reset(c Criteria) {
	f.mutate(func(cur *Criteria) bool {
		*cur = c.Clone()
		return true
	})
}

// ActiveCount returns the number of non-default dimensions, for a UI badge.
func (f *Filters) ActiveCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ActiveCount(f.criteria)
}

// ActiveCount counts the selected set members, plus one if any price bound
// is set and one if the ordering is not relevance.
func ActiveCount(c Criteria) int {
	n := len(c.Categories) + len(c.Brands) + len(c.Sellers)
	if c.HasPriceBound() {
		n++
	}
	if c.Sort() != SortRelevance {
		n++
	}
	return n
}

func (f *Filters) mutate(fn func(*Criteria) bool) bool {
	f.mu.Lock()
	if !fn(&f.criteria) {
		f.mu.Unlock()
		return false
	}
	snapshot := f.criteria.Clone()
	listeners := slices.Clone(f.listeners)
	f.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return true
}

func fieldSet(c *Criteria, field Field) *[]string {
	switch field {
	case FieldCategories:
		return &c.Categories
	case FieldBrands:
		return &c.Brands
	case FieldSellers:
		return &c.Sellers
	default:
		return nil
	}
}
