package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/letmevibethatforyou/storefrontx"
)

// searchBody is the POST /products/search payload.
type searchBody struct {
	Search     string       `json:"search"`
	Categories []string     `json:"categories"`
	Brands     []string     `json:"brands"`
	Sellers    []string     `json:"sellers"`
	MinPrice   *json.Number `json:"minPrice"`
	MaxPrice   *json.Number `json:"maxPrice"`
	SortBy     string       `json:"sortBy"`
}

type productsResponse struct {
	Products []storefrontx.Product `json:"products"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func newSearchBody(req storefrontx.SearchRequest) searchBody {
	c := req.Criteria
	body := searchBody{
		Search:     req.Query,
		Categories: nonNil(c.Categories),
		Brands:     nonNil(c.Brands),
		Sellers:    nonNil(c.Sellers),
		SortBy:     string(c.Sort()),
	}
	if c.MinPrice != nil {
		n := json.Number(c.MinPrice.String())
		body.MinPrice = &n
	}
	if c.MaxPrice != nil {
		n := json.Number(c.MaxPrice.String())
		body.MaxPrice = &n
	}
	return body
}

// Search implements storefrontx.Searcher against POST /products/search.
func (c *Client) Search(ctx context.Context, req storefrontx.SearchRequest) (*storefrontx.Results, error) {
	start := time.Now()

	var resp productsResponse
	if err := c.do(ctx, http.MethodPost, "products.search", "/products/search", newSearchBody(req), &resp); err != nil {
		return nil, err
	}

	products := resp.Products
	if products == nil {
		products = []storefrontx.Product{}
	}
	return &storefrontx.Results{
		Products: products,
		Total:    int64(len(products)),
		Query:    req.Query,
		Took:     time.Since(start).Milliseconds(),
	}, nil
}

// Products returns the full catalog from GET /products. The backend does
// not paginate; see browse.Pager for client-side paging.
func (c *Client) Products(ctx context.Context) ([]storefrontx.Product, error) {
	var resp productsResponse
	if err := c.do(ctx, http.MethodGet, "products.list", "/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// Categories returns the category names offered in the filter panel.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp categoriesResponse
	if err := c.do(ctx, http.MethodGet, "products.categories", "/products/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
