// Package testutils holds shared test helpers: file trees, file assertions and
// a fake upstream for remote values.
package testutils

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Response is a canned upstream reply.
type Response struct {
	Status      int
	ContentType string
	Body        string
}

// JSON returns a 200 application/json response.
func JSON(body string) Response {
	return Response{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

// Text returns a 200 text/plain response.
func Text(body string) Response {
	return Response{Status: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: body}
}

// Upstream is an HTTP server serving fixed responses by path. Unknown paths are 404.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Response
	hits   map[string]int
}

// NewUpstream starts an Upstream closed at test cleanup.
func NewUpstream(t *testing.T, routes map[string]Response) *Upstream {
	t.Helper()
	u := &Upstream{routes: routes, hits: map[string]int{}}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	resp, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	if resp.Status != 0 {
		w.WriteHeader(resp.Status)
	}
	_, _ = w.Write([]byte(resp.Body))
}

// Placeholder returns the inline code placeholder for path and an optional JSON path.
func (u *Upstream) Placeholder(path, jsonPath string) string {
	if jsonPath == "" {
		return "`remote:" + u.URL + path + "`"
	}
	return "`remote:" + u.URL + path + "|" + jsonPath + "`"
}

// Hits returns how many requests path received.
func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// TotalHits returns the number of requests received.
func (u *Upstream) TotalHits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, c := range u.hits {
		n += c
	}
	return n
}
