package storefrontx

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Picture is one product image.
type Picture struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Product is the catalog summary rendered on a product card.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"desc,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Seller      string          `json:"seller,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"priceMoy"`
	Rating      float64         `json:"noteMoy"`
	Pictures    []Picture       `json:"picture,omitempty"`
}

// UnmarshalJSON reads the id from "id", or from the document key "_id" that
// the backend sends for products populated inside lists.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		DocumentID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	if p.ID == "" {
		p.ID = aux.DocumentID
	}
	return nil
}

// Results is the outcome of one search. It is replaced wholesale by the
// next search and never merged with earlier results.
type Results struct {
	// Products contains the matching products in display order.
	Products []Product

	// Total is the total number of matching products.
	Total int64

	// Query is the original query text for reference.
	Query string

	// Took is the time taken to execute the search in milliseconds.
	Took int64
}

// EmptyResults returns the empty result set committed on failures.
func EmptyResults(query string) *Results {
	return &Results{Products: []Product{}, Query: query}
}

// Len returns the number of products, treating nil as empty.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Products)
}
