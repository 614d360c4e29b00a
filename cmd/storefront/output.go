package main

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
	"github.com/letmevibethatforyou/storefrontx/debounce"
)

type productView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	Seller   string   `json:"seller,omitempty"`
	Category string   `json:"category,omitempty"`
	Price    string   `json:"price"`
	Rating   float64  `json:"rating"`
	Lists    []string `json:"lists,omitempty"`
}

type resultsPayload struct {
	Total int64         `json:"total"`
	Took  int64         `json:"took_ms"`
	Query string        `json:"query"`
	Items []productView `json:"items"`
	Error string        `json:"error,omitempty"`
}

type criteriaPayload struct {
	Categories []string `json:"categories,omitempty"`
	Brands     []string `json:"brands,omitempty"`
	Sellers    []string `json:"sellers,omitempty"`
	MinPrice   string   `json:"min_price,omitempty"`
	MaxPrice   string   `json:"max_price,omitempty"`
	SortBy     string   `json:"sort_by"`
}

type decodedView struct {
	Search   bool            `json:"search"`
	Query    string          `json:"query"`
	Criteria criteriaPayload `json:"criteria"`
}

type listPayload struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Done        bool          `json:"done"`
	Products    []productView `json:"products"`
}

type browseView struct {
	Categories []string      `json:"categories"`
	Products   []productView `json:"products"`
	More       bool          `json:"more"`
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func resultsView(res *storefrontx.Results) resultsPayload {
	if res == nil {
		res = storefrontx.EmptyResults("")
	}
	return resultsPayload{
		Total: res.Total,
		Took:  res.Took,
		Query: res.Query,
		Items: productViews(res.Products, nil),
	}
}

func snapshotView(snap debounce.Snapshot) resultsPayload {
	v := resultsView(snap.Results)
	if snap.Err != nil {
		v.Error = snap.Err.Error()
	}
	return v
}

// productViews renders products, naming the lists each one belongs to.
func productViews(products []storefrontx.Product, owned []storefrontx.List) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		v := productView{
			ID:       p.ID,
			Name:     p.Name,
			Brand:    p.Brand,
			Seller:   p.Seller,
			Category: p.Category,
			Price:    p.Price.StringFixed(2),
			Rating:   p.Rating,
		}
		for _, l := range owned {
			if l.Contains(p.ID) {
				v.Lists = append(v.Lists, l.Name)
			}
		}
		out = append(out, v)
	}
	return out
}

func criteriaView(c storefrontx.Criteria) criteriaPayload {
	v := criteriaPayload{
		Categories: c.Categories,
		Brands:     c.Brands,
		Sellers:    c.Sellers,
		SortBy:     string(c.Sort()),
	}
	if c.MinPrice != nil {
		v.MinPrice = c.MinPrice.String()
	}
	if c.MaxPrice != nil {
		v.MaxPrice = c.MaxPrice.String()
	}
	return v
}

func listView(l storefrontx.List) listPayload {
	return listPayload{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Done:        l.Done,
		Products:    productViews(l.Products, nil),
	}
}

func listViews(ls []storefrontx.List) []listPayload {
	out := make([]listPayload, 0, len(ls))
	for _, l := range ls {
		out = append(out, listView(l))
	}
	return out
}
