package hcloud

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// testServer creates an httptest server that can be used to mock Hetzner Cloud API responses.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu    sync.Mutex
	calls map[string]int
}

// newTestServer creates a new test server for mocking the Hetzner Cloud API.
func newTestServer() *testServer {
	ts := &testServer{
		mux:   http.NewServeMux(),
		calls: make(map[string]int),
	}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.calls[r.Method+" "+r.URL.Path]++
		ts.mu.Unlock()
		ts.mux.ServeHTTP(w, r)
	}))
	return ts
}

// close shuts down the test server.
func (ts *testServer) close() {
	ts.server.Close()
}

// callCount returns how often "METHOD /path" was requested.
func (ts *testServer) callCount(key string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.calls[key]
}

// provider returns a Provider configured to use the test server.
func (ts *testServer) provider(opts ...Option) *Provider {
	hc := hcloud.NewClient(
		hcloud.WithToken("test-token"),
		hcloud.WithEndpoint(ts.server.URL),
	)
	opts = append([]Option{WithHCloudClient(hc), WithRetry(3, time.Millisecond)}, opts...)
	return NewProvider("test-token", opts...)
}

// handleFunc registers a handler for a specific path.
func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

// jsonResponse writes a JSON response with the given status code and body.
func jsonResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// apiError writes a Hetzner style error envelope.
func apiError(w http.ResponseWriter, statusCode int, code, message string) {
	jsonResponse(w, statusCode, map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

var singlePage = map[string]any{
	"pagination": map[string]any{"page": 1, "per_page": 50, "last_page": 1, "total_entries": 1},
}

func serverJSON(id int, name, status string) map[string]any {
	return map[string]any{
		"id":          id,
		"name":        name,
		"status":      status,
		"public_net":  map[string]any{"ipv4": map[string]any{"ip": "203.0.113.7"}},
		"server_type": map[string]any{"name": "cx22"},
		"datacenter":  map[string]any{"name": "fsn1-dc14", "location": map[string]any{"name": "fsn1"}},
	}
}

func hcloudServerStatus(s string) hcloud.ServerStatus { return hcloud.ServerStatus(s) }

func hcloudImageStatus(s string) hcloud.ImageStatus { return hcloud.ImageStatus(s) }
