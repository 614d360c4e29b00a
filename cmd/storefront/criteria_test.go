package main

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/shopspring/decimal"
)

func TestRequestInput(t *testing.T) {
	tests := []struct {
		name       string
		input      requestInput
		query      string
		categories []string
		brands     []string
		min        string
		max        string
		sort       storefrontx.SortBy
	}{
		{
			name:  "query only",
			input: requestInput{Query: "  casque "},
			query: "casque",
			sort:  storefrontx.SortRelevance,
		},
		{
			name:   "flags",
			input:  requestInput{Brands: []string{"Bose", "Sony", "Bose", " "}, MinPrice: "50", Sort: "price_asc"},
			brands: []string{"Bose", "Sony"},
			min:    "50",
			sort:   storefrontx.SortPriceAsc,
		},
		{
			name:       "url then flags",
			input:      requestInput{URL: "?q=ecouteurs&categories=Casque&brands=Bose&maxPrice=200", Brands: []string{"Bose", "JBL"}, Categories: []string{"Enceinte"}},
			query:      "ecouteurs",
			categories: []string{"Casque", "Enceinte"},
			brands:     []string{"Bose", "JBL"},
			max:        "200",
			sort:       storefrontx.SortRelevance,
		},
		{
			name:  "query flag wins over url",
			input: requestInput{Query: "sony", URL: "q=bose&sortBy=stars"},
			query: "sony",
			sort:  storefrontx.SortRating,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.input.request()
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if req.Query != tt.query {
				t.Errorf("Expected query %q, got %q", tt.query, req.Query)
			}
			if !equalStrings(req.Criteria.Categories, tt.categories) {
				t.Errorf("Expected categories %v, got %v", tt.categories, req.Criteria.Categories)
			}
			if !equalStrings(req.Criteria.Brands, tt.brands) {
				t.Errorf("Expected brands %v, got %v", tt.brands, req.Criteria.Brands)
			}
			checkBound(t, "min", req.Criteria.MinPrice, tt.min)
			checkBound(t, "max", req.Criteria.MaxPrice, tt.max)
			if req.Criteria.Sort() != tt.sort {
				t.Errorf("Expected sort %s, got %s", tt.sort, req.Criteria.Sort())
			}
		})
	}
}

func TestRequestInputRejectsBadPrice(t *testing.T) {
	_, err := requestInput{MaxPrice: "cheap"}.request()
	if !errors.Is(err, storefrontx.ErrInvalidCriteria) {
		t.Errorf("Expected ErrInvalidCriteria, got %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func checkBound(t *testing.T, name string, got *decimal.Decimal, want string) {
	t.Helper()
	if want == "" {
		if got != nil {
			t.Errorf("Expected %s unset, got %s", name, got)
		}
		return
	}
	if got == nil || !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("Expected %s %s, got %v", name, want, got)
	}
}
