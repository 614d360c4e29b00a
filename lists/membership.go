// Package lists keeps a client-side view of the user's product lists and
// reconciles every membership change against the backend.
package lists

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
)

// Backend is the subset of the storefront API used by Membership.
// *rest.Client implements it.
type Backend interface {
	Lists(ctx context.Context, token string) ([]storefrontx.List, error)
	ToggleListItem(ctx context.Context, token, productID, listID string) (removed bool, err error)
	CreateList(ctx context.Context, token, name, description string) (storefrontx.List, error)
	RemoveList(ctx context.Context, listID string) error
	MarkListDone(ctx context.Context, listID string) error
}

// TokenSource yields the current session token. *session.Session implements it.
type TokenSource interface {
	Token() (string, bool)
}

// Outcome reports the result of a Toggle.
type Outcome struct {
	// PromptSignUp is set when no session exists; nothing was sent.
	PromptSignUp bool
	// Removed is the backend's answer: true if the edge was removed.
	Removed bool
	// Member is the membership as seen in the view after the toggle.
	Member bool
	// Message is a short confirmation for the user, empty on PromptSignUp.
	Message string
}

// Membership caches the user's lists. The backend stays the source of truth:
// after every successful mutation the whole collection is re-fetched.
type Membership struct {
	backend Backend
	tokens  TokenSource
	logger  *slog.Logger

	mu    sync.RWMutex
	lists []storefrontx.List
}

// NewMembership returns an empty view. A nil logger uses slog.Default().
func NewMembership(backend Backend, tokens TokenSource, logger *slog.Logger) *Membership {
	if logger == nil {
		logger = slog.Default()
	}
	return &Membership{backend: backend, tokens: tokens, logger: logger}
}

// Lists returns a copy of the cached lists.
func (m *Membership) Lists() []storefrontx.List {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneLists(m.lists)
}

// Contains reports whether the cached view has productID in listID.
func (m *Membership) Contains(productID, listID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.findLocked(listID); ok {
		return l.Contains(productID)
	}
	return false
}

// Refresh replaces the view with the backend's lists.
func (m *Membership) Refresh(ctx context.Context) error {
	token, ok := m.tokens.Token()
	if !ok {
		return storefrontx.ErrUnauthenticated
	}
	return m.refresh(ctx, token)
}

func (m *Membership) refresh(ctx context.Context, token string) error {
	fresh, err := m.backend.Lists(ctx, token)
	if err != nil {
		return errors.Wrap(err, "refresh lists")
	}
	m.mu.Lock()
	m.lists = cloneLists(fresh)
	m.mu.Unlock()
	return nil
}

// Toggle flips productID's membership in listID.
//
// Without a session it returns Outcome{PromptSignUp: true} and sends nothing.
// If the toggle call fails the view is left untouched. If the toggle
// succeeds but the refresh fails, the backend's answer is applied to the
// cached edge and the refresh error is logged, not returned.
func (m *Membership) Toggle(ctx context.Context, productID, listID string) (Outcome, error) {
	token, ok := m.tokens.Token()
	if !ok {
		return Outcome{PromptSignUp: true}, nil
	}

	m.mu.RLock()
	prev, _ := m.findLocked(listID)
	name := productName(prev, productID)
	m.mu.RUnlock()

	removed, err := m.backend.ToggleListItem(ctx, token, productID, listID)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "toggle %s in list %s", productID, listID)
	}

	if err := m.refresh(ctx, token); err != nil {
		m.logger.Warn("list refresh failed after toggle, applying backend answer locally",
			"list_id", listID, "product_id", productID, "error", err)
		m.applyEdge(productID, listID, !removed)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Outcome{Removed: removed}
	l, found := m.findLocked(listID)
	if found {
		out.Member = l.Contains(productID)
	} else {
		out.Member = !removed
	}
	if name == "" {
		name = productName(l, productID)
	}
	listName := l.Name
	if listName == "" {
		listName = prev.Name
	}
	out.Message = message(name, listName, removed)
	return out, nil
}

// Create adds a new empty list.
func (m *Membership) Create(ctx context.Context, name, description string) (storefrontx.List, error) {
	token, ok := m.tokens.Token()
	if !ok {
		return storefrontx.List{}, storefrontx.ErrUnauthenticated
	}
	l, err := m.backend.CreateList(ctx, token, name, description)
	if err != nil {
		return storefrontx.List{}, errors.Wrapf(err, "create list %q", name)
	}
	m.refreshOrLog(ctx, token)
	return l, nil
}

// Remove deletes a list.
func (m *Membership) Remove(ctx context.Context, listID string) error {
	token, ok := m.tokens.Token()
	if !ok {
		return storefrontx.ErrUnauthenticated
	}
	if err := m.backend.RemoveList(ctx, listID); err != nil {
		return errors.Wrapf(err, "remove list %s", listID)
	}
	m.refreshOrLog(ctx, token)
	return nil
}

// MarkDone flags a list as purchased.
func (m *Membership) MarkDone(ctx context.Context, listID string) error {
	token, ok := m.tokens.Token()
	if !ok {
		return storefrontx.ErrUnauthenticated
	}
	if err := m.backend.MarkListDone(ctx, listID); err != nil {
		return errors.Wrapf(err, "mark list %s done", listID)
	}
	m.refreshOrLog(ctx, token)
	return nil
}

func (m *Membership) refreshOrLog(ctx context.Context, token string) {
	if err := m.refresh(ctx, token); err != nil {
		m.logger.Warn("list refresh failed", "error", err)
	}
}

func (m *Membership) applyEdge(productID, listID string, member bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lists {
		l := &m.lists[i]
		if l.ID != listID {
			continue
		}
		has := l.Contains(productID)
		switch {
		case member && !has:
			l.Products = append(l.Products, storefrontx.Product{ID: productID})
		case !member && has:
			kept := l.Products[:0]
			for _, p := range l.Products {
				if p.ID != productID {
					kept = append(kept, p)
				}
			}
			l.Products = kept
		}
		return
	}
}

func (m *Membership) findLocked(listID string) (storefrontx.List, bool) {
	for _, l := range m.lists {
		if l.ID == listID {
			return l, true
		}
	}
	return storefrontx.List{}, false
}

func productName(l storefrontx.List, productID string) string {
	for _, p := range l.Products {
		if p.ID == productID && p.Name != "" {
			return p.Name
		}
	}
	return ""
}

func message(product, list string, removed bool) string {
	if product == "" {
		product = "Product"
	}
	if list == "" {
		list = "your list"
	}
	if removed {
		return fmt.Sprintf("%s removed from %s", product, list)
	}
	return fmt.Sprintf("%s added to %s", product, list)
}

func cloneLists(in []storefrontx.List) []storefrontx.List {
	if in == nil {
		return nil
	}
	out := make([]storefrontx.List, len(in))
	for i, l := range in {
		out[i] = l
		out[i].Products = append([]storefrontx.Product(nil), l.Products...)
	}
	return out
}
