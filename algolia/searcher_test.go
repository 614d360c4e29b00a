package algolia

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/shopspring/decimal"
)

// fakeIndex records calls made through the index interface.
type fakeIndex struct {
	res       search.QueryRes
	err       error
	queries   []string
	params    [][]interface{}
	saved     []byte
	deletedID string
}

func (f *fakeIndex) Search(query string, opts ...interface{}) (search.QueryRes, error) {
	f.queries = append(f.queries, query)
	f.params = append(f.params, opts)
	return f.res, f.err
}

func (f *fakeIndex) SaveObjects(objects interface{}, opts ...interface{}) (search.GroupBatchRes, error) {
	raw, err := json.Marshal(objects)
	if err != nil {
		return search.GroupBatchRes{}, err
	}
	f.saved = raw
	return search.GroupBatchRes{}, f.err
}

func (f *fakeIndex) DeleteObject(objectID string, opts ...interface{}) (search.DeleteTaskRes, error) {
	f.deletedID = objectID
	return search.DeleteTaskRes{}, f.err
}

func fakeClient(idx *fakeIndex, opened *[]string) *Client {
	return newClient(func(name string) (index, error) {
		if opened != nil {
			*opened = append(*opened, name)
		}
		return idx, nil
	})
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name     string
		criteria storefrontx.Criteria
		expected string
	}{
		{"zero", storefrontx.Criteria{}, ""},
		{
			"single value",
			storefrontx.Criteria{Categories: []string{"Casque"}},
			`category:"Casque"`,
		},
		{
			"set is OR",
			storefrontx.Criteria{Brands: []string{"Bose", "Sony"}},
			`(brand:"Bose" OR brand:"Sony")`,
		},
		{
			"sets are ANDed",
			storefrontx.Criteria{Categories: []string{"Casque"}, Sellers: []string{"Fnac", "Darty"}},
			`category:"Casque" AND (seller:"Fnac" OR seller:"Darty")`,
		},
		{
			"both bounds",
			storefrontx.Criteria{MinPrice: price("50"), MaxPrice: price("199.99")},
			`price:50 TO 199.99`,
		},
		{"min only", storefrontx.Criteria{MinPrice: price("50")}, `price >= 50`},
		{"max only", storefrontx.Criteria{MaxPrice: price("80")}, `price <= 80`},
		{
			"quotes escaped",
			storefrontx.Criteria{Brands: []string{`Say "hi"`}},
			`brand:"Say \"hi\""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFilters(tt.criteria.Expressions()); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBuildSearchParams(t *testing.T) {
	if got := len(buildSearchParams(storefrontx.Criteria{})); got != 1 {
		t.Errorf("Expected HitsPerPage only, got %d params", got)
	}
	if got := len(buildSearchParams(storefrontx.Criteria{Brands: []string{"Bose"}})); got != 2 {
		t.Errorf("Expected HitsPerPage and Filters, got %d params", got)
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"brand", "brand"},
		{"brand name", `"brand name"`},
		{"a:b", `"a:b"`},
	}
	for _, tt := range tests {
		if got := escapeField(tt.field); got != tt.expected {
			t.Errorf("escapeField(%q) = %q, want %q", tt.field, got, tt.expected)
		}
	}
}

func TestSearchUsesReplicaPerSort(t *testing.T) {
	tests := []struct {
		sort     storefrontx.SortBy
		expected string
	}{
		{"", "products"},
		{storefrontx.SortRelevance, "products"},
		{storefrontx.SortPriceAsc, "products_price_asc"},
		{storefrontx.SortPriceDesc, "products_price_desc"},
		{storefrontx.SortRating, "products_rating"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var opened []string
			s := NewSearcher(fakeClient(&fakeIndex{}, &opened), "products")

			_, err := s.Search(context.Background(), storefrontx.SearchRequest{
				Criteria: storefrontx.Criteria{SortBy: tt.sort},
			})
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(opened) != 1 || opened[0] != tt.expected {
				t.Errorf("Expected index %q, got %v", tt.expected, opened)
			}
		})
	}
}

func TestSearchDecodesHits(t *testing.T) {
	idx := &fakeIndex{res: search.QueryRes{
		NbHits: 2,
		Hits: []map[string]interface{}{
			{"objectID": "p1", "id": "p1", "name": "Casque Bose", "priceMoy": 329.99, "noteMoy": 4.7, "price": 329.99},
			{"objectID": "p2", "name": "Casque Sony", "priceMoy": 379},
		},
	}}
	s := NewSearcher(fakeClient(idx, nil), "products")

	res, err := s.Search(context.Background(), storefrontx.SearchRequest{Query: "casque"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Total != 2 || res.Len() != 2 {
		t.Fatalf("Expected 2 products, got total=%d len=%d", res.Total, res.Len())
	}
	if res.Products[0].Name != "Casque Bose" || !res.Products[0].Price.Equal(decimal.RequireFromString("329.99")) {
		t.Errorf("Unexpected first product %+v", res.Products[0])
	}
	if res.Products[1].ID != "p2" {
		t.Errorf("Expected ID from objectID, got %q", res.Products[1].ID)
	}
	if idx.queries[0] != "casque" || res.Query != "casque" {
		t.Errorf("Expected query forwarded, got %v", idx.queries)
	}
}

func TestSearchErrors(t *testing.T) {
	t.Run("invalid criteria", func(t *testing.T) {
		idx := &fakeIndex{}
		s := NewSearcher(fakeClient(idx, nil), "products")
		_, err := s.Search(context.Background(), storefrontx.SearchRequest{
			Criteria: storefrontx.Criteria{MinPrice: price("10"), MaxPrice: price("5")},
		})
		if !errors.Is(err, storefrontx.ErrInvalidCriteria) {
			t.Errorf("Expected ErrInvalidCriteria, got %v", err)
		}
		if len(idx.queries) != 0 {
			t.Error("Expected no Algolia call")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		s := NewSearcher(fakeClient(&fakeIndex{}, nil), "products")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := s.Search(ctx, storefrontx.SearchRequest{}); !errors.Is(err, storefrontx.ErrCanceled) {
			t.Errorf("Expected ErrCanceled, got %v", err)
		}
	})

	t.Run("algolia failure", func(t *testing.T) {
		s := NewSearcher(fakeClient(&fakeIndex{err: errors.New("boom")}, nil), "products")
		_, err := s.Search(context.Background(), storefrontx.SearchRequest{})
		if !errors.Is(err, storefrontx.ErrBackendUnavailable) {
			t.Errorf("Expected ErrBackendUnavailable, got %v", err)
		}
	})

	t.Run("algolia timeout", func(t *testing.T) {
		s := NewSearcher(fakeClient(&fakeIndex{err: context.DeadlineExceeded}, nil), "products")
		_, err := s.Search(context.Background(), storefrontx.SearchRequest{})
		if !errors.Is(err, storefrontx.ErrTimeout) {
			t.Errorf("Expected ErrTimeout, got %v", err)
		}
	})

	t.Run("undecodable hits", func(t *testing.T) {
		idx := &fakeIndex{res: search.QueryRes{
			NbHits: 1,
			Hits:   []map[string]interface{}{{"objectID": "p1", "priceMoy": "not a price"}},
		}}
		s := NewSearcher(fakeClient(idx, nil), "products")
		_, err := s.Search(context.Background(), storefrontx.SearchRequest{})
		if !errors.Is(err, storefrontx.ErrDecode) {
			t.Errorf("Expected ErrDecode, got %v", err)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		s := NewSearcher(NewClient(StaticSecrets("", "")), "products")
		_, err := s.Search(context.Background(), storefrontx.SearchRequest{})
		if !errors.Is(err, storefrontx.ErrBackendUnavailable) {
			t.Errorf("Expected ErrBackendUnavailable, got %v", err)
		}
	})
}

func TestSaveAndDeleteProducts(t *testing.T) {
	idx := &fakeIndex{}
	var opened []string
	c := fakeClient(idx, &opened)
	ctx := context.Background()

	if err := c.SaveProducts(ctx, "products", nil); err != nil {
		t.Fatalf("SaveProducts(nil) failed: %v", err)
	}
	if len(opened) != 0 {
		t.Error("Expected empty batch to skip Algolia")
	}

	err := c.SaveProducts(ctx, "products", []storefrontx.Product{
		{ID: "p1", Name: "Casque", Price: decimal.RequireFromString("59.90")},
	})
	if err != nil {
		t.Fatalf("SaveProducts failed: %v", err)
	}

	var saved []map[string]any
	if err := json.Unmarshal(idx.saved, &saved); err != nil {
		t.Fatalf("Decode saved records: %v", err)
	}
	if len(saved) != 1 || saved[0]["objectID"] != "p1" || saved[0]["price"] != 59.9 {
		t.Errorf("Unexpected saved records %v", saved)
	}

	if err := c.DeleteProduct(ctx, "products", "p1"); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if idx.deletedID != "p1" {
		t.Errorf("Expected p1 deleted, got %q", idx.deletedID)
	}
}

func TestSearcherInterface(t *testing.T) {
	var _ storefrontx.Searcher = NewSearcher(NewClient(StaticSecrets("app", "key")), "products")
	var _ index = (*search.Index)(nil)
}
