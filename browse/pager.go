// Package browse pages through the full catalog when no search is active.
package browse

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
)

// DefaultPageSize is the number of products revealed per page.
const DefaultPageSize = 12

// Catalog lists every product. The backend does not paginate.
// *rest.Client and *inmemory.Searcher implement it.
type Catalog interface {
	Products(ctx context.Context) ([]storefrontx.Product, error)
}

// Pager slices the catalog client-side. Each page is appended to the items
// already shown; browsing never replaces what is on screen.
type Pager struct {
	catalog  Catalog
	pageSize int

	mu     sync.Mutex
	all    []storefrontx.Product
	loaded bool
	shown  int
}

// NewPager returns a pager over catalog. pageSize <= 0 uses DefaultPageSize.
func NewPager(catalog Catalog, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{catalog: catalog, pageSize: pageSize}
}

// Next reveals the next page and returns it. It returns an empty slice once
// the catalog is exhausted. The catalog is fetched on the first call.
func (p *Pager) Next(ctx context.Context) ([]storefrontx.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		all, err := p.catalog.Products(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
		p.all = all
		p.loaded = true
	}

	end := min(p.shown+p.pageSize, len(p.all))
	page := append([]storefrontx.Product(nil), p.all[p.shown:end]...)
	p.shown = end
	return page, nil
}

// Items returns every product revealed so far, in catalog order.
func (p *Pager) Items() []storefrontx.Product {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]storefrontx.Product(nil), p.all[:p.shown]...)
}

// HasMore reports whether Next would reveal more products. It is true
// before the first fetch.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.loaded || p.shown < len(p.all)
}

// Reset forgets the fetched catalog; the next call to Next refetches it.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.all = nil
	p.loaded = false
	p.shown = 0
}
