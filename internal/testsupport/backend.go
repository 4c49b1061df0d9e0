package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Routes maps "METHOD /path" to a handler on the fake backend.
type Routes map[string]http.HandlerFunc

// Backend is an httptest stand-in for the remote flashcard API.
type Backend struct {
	*httptest.Server

	mu     sync.Mutex
	routes Routes
	calls  map[string]int
}

// NewBackend starts a fake backend serving routes. Unknown routes answer 404
// with an error body. The server is closed on cleanup.
func NewBackend(t testing.TB, routes Routes) *Backend {
	t.Helper()

	b := &Backend{routes: Routes{}, calls: make(map[string]int)}
	for key, handler := range routes {
		b.routes[key] = handler
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	b.calls[key]++
	handler, ok := b.routes[key]
	b.mu.Unlock()
	if !ok {
		JSON(http.StatusNotFound, map[string]string{"error": "not found"})(w, r)
		return
	}
	handler(w, r)
}

// Handle replaces or adds a route while the server runs.
func (b *Backend) Handle(route string, handler http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = handler
}

// Calls reports how many requests hit route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// JSON answers with status and payload encoded as JSON.
func JSON(status int, payload any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}
}
