package provider

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeUpstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits int
	body []byte
}

func newFakeUpstream(t *testing.T, status int, respBody string) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.hits++
		f.body = body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func (f *fakeUpstream) LastBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body
}
