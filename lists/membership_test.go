package lists

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/storefrontx"
)

type staticToken string

func (s staticToken) Token() (string, bool) { return string(s), s != "" }

// fakeBackend keeps list edges in memory the way the storefront backend does.
type fakeBackend struct {
	lists      map[string]*storefrontx.List
	order      []string
	toggleErr  error
	listsErr   error
	toggles    int
	listCalls  int
	lastToken  string
	removedIDs []string
}

func newFakeBackend(lists ...storefrontx.List) *fakeBackend {
	f := &fakeBackend{lists: map[string]*storefrontx.List{}}
	for i := range lists {
		l := lists[i]
		f.lists[l.ID] = &l
		f.order = append(f.order, l.ID)
	}
	return f
}

func (f *fakeBackend) Lists(ctx context.Context, token string) ([]storefrontx.List, error) {
	f.listCalls++
	f.lastToken = token
	if f.listsErr != nil {
		return nil, f.listsErr
	}
	var out []storefrontx.List
	for _, id := range f.order {
		if l, ok := f.lists[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeBackend) ToggleListItem(ctx context.Context, token, productID, listID string) (bool, error) {
	f.toggles++
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	l := f.lists[listID]
	for i, p := range l.Products {
		if p.ID == productID {
			l.Products = append(l.Products[:i:i], l.Products[i+1:]...)
			return true, nil
		}
	}
	l.Products = append(l.Products, storefrontx.Product{ID: productID, Name: "Casque " + productID})
	return false, nil
}

func (f *fakeBackend) CreateList(ctx context.Context, token, name, description string) (storefrontx.List, error) {
	l := storefrontx.List{ID: "new-" + name, Name: name, Description: description}
	f.lists[l.ID] = &l
	f.order = append(f.order, l.ID)
	return l, nil
}

func (f *fakeBackend) RemoveList(ctx context.Context, listID string) error {
	delete(f.lists, listID)
	f.removedIDs = append(f.removedIDs, listID)
	return nil
}

func (f *fakeBackend) MarkListDone(ctx context.Context, listID string) error {
	f.lists[listID].Done = true
	return nil
}

func wishlist() storefrontx.List {
	return storefrontx.List{ID: "l1", Name: "Noel", Products: []storefrontx.Product{{ID: "p1", Name: "Casque Bose"}}}
}

func TestToggleWithoutSessionPromptsSignUp(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken(""), nil)

	out, err := m.Toggle(context.Background(), "p1", "l1")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !out.PromptSignUp {
		t.Error("Expected PromptSignUp")
	}
	if backend.toggles != 0 || backend.listCalls != 0 {
		t.Errorf("Expected no backend calls, got toggles=%d lists=%d", backend.toggles, backend.listCalls)
	}
}

func TestToggleRemovesThenAdds(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken("tok"), nil)
	ctx := context.Background()
	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	out, err := m.Toggle(ctx, "p1", "l1")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !out.Removed || out.Member {
		t.Errorf("Expected removal, got %+v", out)
	}
	if out.Message != "Casque Bose removed from Noel" {
		t.Errorf("Unexpected message %q", out.Message)
	}
	if m.Contains("p1", "l1") {
		t.Error("Expected p1 gone from the view")
	}
	if backend.lastToken != "tok" {
		t.Errorf("Expected refresh with session token, got %q", backend.lastToken)
	}

	out, err = m.Toggle(ctx, "p1", "l1")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if out.Removed || !out.Member || !m.Contains("p1", "l1") {
		t.Errorf("Expected p1 back in the list, got %+v", out)
	}
}

func TestToggleFailureLeavesViewUntouched(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken("tok"), nil)
	ctx := context.Background()
	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	backend.toggleErr = storefrontx.ErrTransport

	_, err := m.Toggle(ctx, "p1", "l1")
	if !errors.Is(err, storefrontx.ErrTransport) {
		t.Fatalf("Expected ErrTransport, got %v", err)
	}
	if !m.Contains("p1", "l1") {
		t.Error("Expected view unchanged after failed toggle")
	}
	if backend.listCalls != 1 {
		t.Errorf("Expected no refresh after failed toggle, got %d list calls", backend.listCalls)
	}
}

func TestToggleAppliesBackendAnswerWhenRefreshFails(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken("tok"), nil)
	ctx := context.Background()
	if err := m.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	backend.listsErr = storefrontx.ErrTimeout

	out, err := m.Toggle(ctx, "p1", "l1")
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !out.Removed || out.Member {
		t.Errorf("Expected removal, got %+v", out)
	}
	if m.Contains("p1", "l1") {
		t.Error("Expected cached edge removed from backend answer")
	}

	if _, err := m.Toggle(ctx, "p2", "l1"); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !m.Contains("p2", "l1") {
		t.Error("Expected cached edge added from backend answer")
	}
}

func TestListsReturnsCopy(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken("tok"), nil)
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	got := m.Lists()
	got[0].Products[0].ID = "changed"
	if !m.Contains("p1", "l1") {
		t.Error("Expected view to be unaffected by caller mutation")
	}
}

func TestListOperationsRequireSession(t *testing.T) {
	m := NewMembership(newFakeBackend(), staticToken(""), nil)
	ctx := context.Background()

	if err := m.Refresh(ctx); !errors.Is(err, storefrontx.ErrUnauthenticated) {
		t.Errorf("Refresh: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := m.Create(ctx, "Cadeaux", ""); !errors.Is(err, storefrontx.ErrUnauthenticated) {
		t.Errorf("Create: expected ErrUnauthenticated, got %v", err)
	}
	if err := m.Remove(ctx, "l1"); !errors.Is(err, storefrontx.ErrUnauthenticated) {
		t.Errorf("Remove: expected ErrUnauthenticated, got %v", err)
	}
	if err := m.MarkDone(ctx, "l1"); !errors.Is(err, storefrontx.ErrUnauthenticated) {
		t.Errorf("MarkDone: expected ErrUnauthenticated, got %v", err)
	}
}

func TestCreateMarkDoneRemove(t *testing.T) {
	backend := newFakeBackend(wishlist())
	m := NewMembership(backend, staticToken("tok"), nil)
	ctx := context.Background()

	created, err := m.Create(ctx, "Cadeaux", "anniversaire")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(m.Lists()) != 2 {
		t.Fatalf("Expected 2 lists after create, got %d", len(m.Lists()))
	}

	if err := m.MarkDone(ctx, created.ID); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if got := m.Lists()[1]; !got.Done {
		t.Errorf("Expected %s done, got %+v", created.ID, got)
	}

	if err := m.Remove(ctx, created.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if len(m.Lists()) != 1 || m.Lists()[0].ID != "l1" {
		t.Errorf("Expected only l1 left, got %+v", m.Lists())
	}
}
