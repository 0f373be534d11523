package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries map[string]string
	setNX   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if value, ok := f.entries[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.setNX++
	if _, ok := f.entries[key]; ok {
		return false, nil
	}
	f.entries[key] = value.(string)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "sv:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func newGuardedRouter(store *fakeStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(Idempotency(store, time.Hour, nil))
		r.Post("/{orderId}/status", func(w http.ResponseWriter, _ *http.Request) {
			*calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data":{"status":"confirmed"}}`))
		})
		r.Post("/{orderId}/reconciliation/apply", func(w http.ResponseWriter, _ *http.Request) {
			*calls++
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"data":{"status":"preparing"}}`))
		})
		r.Get("/{orderId}", func(w http.ResponseWriter, _ *http.Request) {
			*calls++
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func postStatus(t *testing.T, router http.Handler, orderID, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/status", bytes.NewReader([]byte(body)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyRequiresKeyOnGuardedRoutes(t *testing.T) {
	calls := 0
	router := newGuardedRouter(newFakeStore(), &calls)

	rec := postStatus(t, router, uuid.NewString(), "", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	store := newFakeStore()
	router := newGuardedRouter(store, &calls)
	orderID := uuid.NewString()

	first := postStatus(t, router, orderID, "key-1", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, calls)

	second := postStatus(t, router, orderID, "key-1", `{"status":"confirmed"}`)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, calls, "handler must not run twice for the same key")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	router := newGuardedRouter(newFakeStore(), &calls)
	orderID := uuid.NewString()

	first := postStatus(t, router, orderID, "key-1", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := postStatus(t, router, orderID, "key-1", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.True(t, strings.Contains(second.Body.String(), "IDEMPOTENCY_KEY_REUSED"))
	assert.Equal(t, 1, calls)
}

// The middleware sits in the orders sub-router Use chain, where chi has only
// matched the mount prefix. The guard must still engage for both status
// writes and persist a record on first execution.
func TestIdempotencyEngagesUnderSubRouterMount(t *testing.T) {
	calls := 0
	store := newFakeStore()
	router := newGuardedRouter(store, &calls)
	orderID := uuid.NewString()

	rec := postStatus(t, router, orderID, "key-1", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.setNX, "first execution must persist a record")

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/orders/"+orderID+"/reconciliation/apply", strings.NewReader(`{}`))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusBadRequest, rec2.Code, "apply without a key must be rejected")
	assert.Equal(t, 1, calls)
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	calls := 0
	router := newGuardedRouter(newFakeStore(), &calls)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}
