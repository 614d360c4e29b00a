package storefrontx

import "context"

// Searcher defines the core catalog search interface.
type Searcher interface {
	// Search executes one search for the given request.
	Search(ctx context.Context, req SearchRequest) (*Results, error)
}

// SearcherFunc is a function type that implements the Searcher interface.
// This allows using a function as a Searcher, similar to http.HandlerFunc.
type SearcherFunc func(context.Context, SearchRequest) (*Results, error)

// Search implements the Searcher interface for SearcherFunc.
func (f SearcherFunc) Search(ctx context.Context, req SearchRequest) (*Results, error) {
	return f(ctx, req)
}
