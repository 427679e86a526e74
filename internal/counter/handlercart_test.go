package counter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testHandler(t *testing.T) (*Handler, *CartStore, *SessionStore) {
	t.Helper()

	sessions := NewSessionStore(testVault(t), nil)
	cart := NewCartStore()
	notices := NewNoticeQueue()

	h := NewHandler(HandlerDeps{
		Sessions: sessions,
		Cart:     cart,
		Notices:  notices,
	}, nil, nil)
	return h, cart, sessions
}

func postJSON(t *testing.T, router chi.Router, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("cannot encode payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCartRoutesRequireSession(t *testing.T) {
	h, _, _ := testHandler(t)
	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := postJSON(t, router, "/cart/items", cartItemBody{MenuID: 1, SizeID: 1})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAddCartItemRoute(t *testing.T) {
	h, cart, sessions := testHandler(t)
	if err := sessions.SignIn(testSession()); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	body := cartItemBody{MenuID: 1, MenuName: "Classic Milk Tea", SizeID: 1, SizeName: "M", UnitPrice: 35000}
	rec := postJSON(t, router, "/cart/items", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	snap := cart.Snapshot()
	if len(snap.Items) != 1 || snap.TotalPrice != 35000 {
		t.Errorf("cart = %+v", snap)
	}
}

func TestAddCartItemRouteValidatesIdentity(t *testing.T) {
	h, cart, sessions := testHandler(t)
	if err := sessions.SignIn(testSession()); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := postJSON(t, router, "/cart/items", cartItemBody{MenuID: 0, SizeID: 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(cart.Snapshot().Items) != 0 {
		t.Error("invalid payload must not touch the cart")
	}
}

func TestSetCartModeRouteRejectsMissingTarget(t *testing.T) {
	h, _, sessions := testHandler(t)
	if err := sessions.SignIn(testSession()); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := postJSON(t, router, "/cart/mode", cartModeBody{Mode: ModeAppend})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = postJSON(t, router, "/cart/mode", cartModeBody{Mode: ModeAppend, TargetOrderID: 42})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestSignOutClearsCart(t *testing.T) {
	h, cart, sessions := testHandler(t)
	if err := sessions.SignIn(testSession()); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	cart.AddOrIncrement(1, "Classic Milk Tea", 1, "M", 35000)

	router := chi.NewRouter()
	h.RegisterRoutes(router)

	rec := postJSON(t, router, "/signout", map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if sessions.IsAuthenticated() {
		t.Error("session should be gone after sign-out")
	}
	if len(cart.Snapshot().Items) != 0 {
		t.Error("cart should be cleared on sign-out")
	}
}
