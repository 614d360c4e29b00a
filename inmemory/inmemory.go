package inmemory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	exactWeight = 1.0
	fuzzyWeight = 0.5

	// maxFuzzyDistance bounds how many characters a query term may be
	// missing from a catalog word and still count as a fuzzy hit.
	maxFuzzyDistance = 2
	minFuzzyTermLen  = 3
)

// Searcher implements the storefrontx.Searcher interface over an in-process
// product catalog.
type Searcher struct {
	mu       sync.RWMutex
	products []storefrontx.Product
	idIndex  map[string]int // maps product ID to index in products slice
}

// New creates a new in-memory catalog.
// The searcher is ready to use and is safe for concurrent operations.
func New() *Searcher {
	return &Searcher{
		products: make([]storefrontx.Product, 0),
		idIndex:  make(map[string]int),
	}
}

// AddProduct adds a product to the catalog.
// If a product with the same ID already exists, it will be replaced.
func (s *Searcher) AddProduct(p storefrontx.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, exists := s.idIndex[p.ID]; exists {
		s.products[idx] = p
		return
	}
	s.idIndex[p.ID] = len(s.products)
	s.products = append(s.products, p)
}

// AddJSON decodes a product in the backend's JSON shape and adds it.
func (s *Searcher) AddJSON(data []byte) error {
	var p storefrontx.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "failed to unmarshal product")
	}
	if p.ID == "" {
		return errors.New("product has no id")
	}
	s.AddProduct(p)
	return nil
}

// RemoveProduct removes a product by ID.
// Returns true if the product was found and removed.
func (s *Searcher) RemoveProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, exists := s.idIndex[id]
	if !exists {
		return false
	}

	s.products = append(s.products[:idx], s.products[idx+1:]...)

	delete(s.idIndex, id)
	for i := idx; i < len(s.products); i++ {
		s.idIndex[s.products[i].ID] = i
	}
	return true
}

// Clear removes all products.
func (s *Searcher) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = make([]storefrontx.Product, 0)
	s.idIndex = make(map[string]int)
}

// Size returns the number of products in the catalog.
func (s *Searcher) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Products returns the whole catalog in insertion order.
func (s *Searcher) Products(ctx context.Context) ([]storefrontx.Product, error) {
	if ctx.Err() != nil {
		return nil, storefrontx.ErrCanceled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]storefrontx.Product(nil), s.products...), nil
}

// Search implements the storefrontx.Searcher interface.
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
	filters := req.Criteria.Expressions()
	terms := strings.Fields(strings.ToLower(req.Query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []scoredProduct
	for _, p := range s.products {
		select {
		case <-ctx.Done():
			return nil, storefrontx.ErrCanceled
		default:
		}

		if !matchesFilters(p, filters) {
			continue
		}
		if score := scoreProduct(p, terms); score > 0 {
			matches = append(matches, scoredProduct{product: p, score: score})
		}
	}

	sortMatches(matches, req.Criteria.Sort())

	results := &storefrontx.Results{
		Products: make([]storefrontx.Product, 0, len(matches)),
		Total:    int64(len(matches)),
		Query:    req.Query,
	}
	for _, m := range matches {
		results.Products = append(results.Products, m.product)
	}
	results.Took = time.Since(startTime).Milliseconds()
	return results, nil
}

type scoredProduct struct {
	product storefrontx.Product
	score   float64
}

// scoreProduct rates a product against lower-cased query terms. Every term
// must hit at least one field, exactly or fuzzily; otherwise the score is 0.
func scoreProduct(p storefrontx.Product, terms []string) float64 {
	if len(terms) == 0 {
		return exactWeight
	}

	fields := []string{p.Name, p.Description, p.Brand, p.Seller, p.Category}
	score := 0.0
	for _, term := range terms {
		termScore := 0.0
		for _, f := range fields {
			switch {
			case strings.Contains(strings.ToLower(f), term):
				termScore += exactWeight
			case fuzzyContains(f, term):
				termScore += fuzzyWeight
			}
		}
		if termScore == 0 {
			return 0
		}
		score += termScore
	}
	return score
}

// fuzzyContains reports whether some word of field is a near spelling of term.
func fuzzyContains(field, term string) bool {
	if len(term) < minFuzzyTermLen {
		return false
	}
	for _, word := range strings.Fields(field) {
		if d := fuzzy.RankMatchNormalizedFold(term, word); d >= 0 && d <= maxFuzzyDistance {
			return true
		}
	}
	return false
}

// sortMatches orders matches by the requested sort. Ties keep catalog order.
func sortMatches(matches []scoredProduct, by storefrontx.SortBy) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		switch by {
		case storefrontx.SortPriceAsc:
			return a.product.Price.LessThan(b.product.Price)
		case storefrontx.SortPriceDesc:
			return a.product.Price.GreaterThan(b.product.Price)
		case storefrontx.SortRating:
			return a.product.Rating > b.product.Rating
		default:
			return a.score > b.score
		}
	})
}
