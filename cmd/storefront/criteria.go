package main

import (
	"slices"
	"strings"

	"github.com/letmevibethatforyou/storefrontx"
	"github.com/urfave/cli/v2"
)

func criteriaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Query text; positional args are a fallback",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "Start from a catalog query string such as ?q=casque&brands=Bose",
		},
		&cli.StringSliceFlag{
			Name:  "category",
			Usage: "Category to include; repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "brand",
			Usage: "Brand to include; repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "seller",
			Usage: "Seller to include; repeatable",
		},
		&cli.StringFlag{
			Name:  "min-price",
			Usage: "Lower price bound, inclusive",
		},
		&cli.StringFlag{
			Name:  "max-price",
			Usage: "Upper price bound, inclusive",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "relevance, price_asc, price_desc or rating",
		},
	}
}

// requestInput is the raw search input collected from flags.
type requestInput struct {
	Query      string
	URL        string
	Categories []string
	Brands     []string
	Sellers    []string
	MinPrice   string
	MaxPrice   string
	Sort       string
}

func inputFromContext(c *cli.Context) requestInput {
	query := c.String("query")
	if query == "" && c.NArg() > 0 {
		query = strings.Join(c.Args().Slice(), " ")
	}
	return requestInput{
		Query:      query,
		URL:        c.String("url"),
		Categories: c.StringSlice("category"),
		Brands:     c.StringSlice("brand"),
		Sellers:    c.StringSlice("seller"),
		MinPrice:   c.String("min-price"),
		MaxPrice:   c.String("max-price"),
		Sort:       c.String("sort"),
	}
}

// request applies the input to a filter panel the way a user would: the URL
// first, then every flag on top of it. Flags never remove URL selections.
func (in requestInput) request() (storefrontx.SearchRequest, error) {
	filters := storefrontx.NewFilters(storefrontx.Criteria{})
	query := strings.TrimSpace(in.Query)

	if in.URL != "" {
		c, q := storefrontx.DecodeQuery(in.URL)
		filters.Reset(c)
		if query == "" {
			query = q
		}
	}

	add := func(field storefrontx.Field, current []string, values []string) {
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || slices.Contains(current, v) {
				continue
			}
			filters.Toggle(field, v)
			current = append(current, v)
		}
	}
	c := filters.Criteria()
	add(storefrontx.FieldCategories, c.Categories, in.Categories)
	add(storefrontx.FieldBrands, c.Brands, in.Brands)
	add(storefrontx.FieldSellers, c.Sellers, in.Sellers)

	if in.MinPrice != "" {
		if err := filters.SetPriceBound(storefrontx.BoundMin, in.MinPrice); err != nil {
			return storefrontx.SearchRequest{}, err
		}
	}
	if in.MaxPrice != "" {
		if err := filters.SetPriceBound(storefrontx.BoundMax, in.MaxPrice); err != nil {
			return storefrontx.SearchRequest{}, err
		}
	}
	if in.Sort != "" {
		filters.SetSort(storefrontx.ParseSortBy(in.Sort))
	}

	return storefrontx.SearchRequest{Query: query, Criteria: filters.Criteria()}, nil
}
