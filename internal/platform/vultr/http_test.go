package vultr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/imamik/quantserver/internal/metrics"
)

// testServer mocks the Vultr API.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu    sync.Mutex
	calls []string
}

func newTestServer() *testServer {
	ts := &testServer{mux: http.NewServeMux()}
	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.calls = append(ts.calls, r.Method+" "+r.URL.Path)
		ts.mu.Unlock()
		ts.mux.ServeHTTP(w, r)
	}))
	return ts
}

func (ts *testServer) close() {
	ts.server.Close()
}

// client returns a Client with a fast retry schedule.
func (ts *testServer) client(opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(ts.server.URL),
		WithRetry(3, time.Millisecond),
	}
	return NewClient("test-key", append(base, opts...)...)
}

func (ts *testServer) clientWithMetrics() (*Client, *metrics.Recorder) {
	rec := metrics.NewRecorder()
	return ts.client(WithMetrics(rec)), rec
}

func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

func (ts *testServer) callCount(call string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	n := 0
	for _, c := range ts.calls {
		if c == call {
			n++
		}
	}
	return n
}

func jsonResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
