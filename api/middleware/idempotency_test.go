package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRouteTTLSelection(t *testing.T) {
	rules := idempotencyRules(0)
	tests := []struct {
		name   string
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{"checkout", http.MethodPost, "/api/v1/checkout/ada-fabrics", checkoutIdempotencyTTL, true},
		{"store create", http.MethodPost, "/api/v1/stores", defaultIdempotencyTTL, true},
		{"manual sale", http.MethodPost, "/api/v1/stores/123/sales", defaultIdempotencyTTL, true},
		{"manual lead", http.MethodPost, "/api/v1/stores/123/leads", defaultIdempotencyTTL, true},
		{"storefront read", http.MethodGet, "/api/v1/storefront/ada-fabrics", 0, false},
		{"store update", http.MethodPatch, "/api/v1/stores/123", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(rules, tt.method, tt.path)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestRouteTTLHonorsConfiguredCheckoutTTL(t *testing.T) {
	rules := idempotencyRules(48 * time.Hour)
	ttl, ok := routeTTL(rules, http.MethodPost, "/api/v1/checkout/ada-fabrics")
	if !ok {
		t.Fatal("expected checkout route to be guarded")
	}
	if ttl != 48*time.Hour {
		t.Fatalf("expected configured ttl, got %v", ttl)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"n":%d}}`, calls)
	}))

	body := `{"cart":[]}`
	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(first, req)

	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(second, req)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyDoesNotCacheServerErrors(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(`{"cart":[]}`))
		req.Header.Set("Idempotency-Key", "key-1")
		handler.ServeHTTP(w, req)
		return w
	}

	if w := send(); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected first attempt to fail with 500, got %d", w.Code)
	}
	if w := send(); w.Code != http.StatusCreated {
		t.Fatalf("expected retry to reach the handler and succeed, got %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", calls)
	}
	if w := send(); w.Code != http.StatusCreated {
		t.Fatalf("expected third attempt to replay the success, got %d", w.Code)
	}
	if calls != 2 {
		t.Fatalf("success should be cached after the retry, handler ran %d times", calls)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(`{"a":1}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(`{"a":2}`))
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	handler := Idempotency(newFakeStore(), 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/ada-fabrics", strings.NewReader(`{}`))
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing key, got %d", w.Code)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	handler := Idempotency(newFakeStore(), 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/ada-fabrics", nil)
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200, got %d", w.Code)
	}
}

// Mounted the way the app router mounts it: Use on the stores
// subrouter, where chi has not resolved the final route pattern yet.
// The nested sale route must still be guarded.
func TestIdempotencyGuardsNestedRoutesWhenMounted(t *testing.T) {
	store := newFakeStore()
	saleCalls := 0

	r := chi.NewRouter()
	r.Route("/api/v1/stores", func(r chi.Router) {
		r.Use(Idempotency(store, 0, nil))
		r.Post("/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})
		r.Route("/{storeId}", func(r chi.Router) {
			r.Post("/sales", func(w http.ResponseWriter, _ *http.Request) {
				saleCalls++
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"status":"logged"}}`))
			})
		})
	})

	salesPath := "/api/v1/stores/" + uuid.NewString() + "/sales"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, salesPath, strings.NewReader(`{"quantity":1}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing key on nested sale route, got %d", w.Code)
	}
	if saleCalls != 0 {
		t.Fatalf("sale handler must not run without a key, ran %d times", saleCalls)
	}

	logSale := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, salesPath, strings.NewReader(`{"quantity":1}`))
		req.Header.Set("Idempotency-Key", "sale-key-1")
		r.ServeHTTP(w, req)
		return w
	}

	first := logSale()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 for keyed sale, got %d", first.Code)
	}
	second := logSale()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if saleCalls != 1 {
		t.Fatalf("retried sale must not hit the handler again, ran %d times", saleCalls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
}
