package pathstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/guides/internal/meta"
)

// fakePathstore is an in-memory stand-in for the pathstore KV API.
type fakePathstore struct {
	mu    sync.Mutex
	nodes map[string]string
	auth  []string
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch r.Method {
	case http.MethodPut:
		var req NodeRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = string(req.Value)
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"key_path":"`+key+`","value":`+v+`}`)
	case http.MethodDelete:
		delete(f.nodes, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	fake := &fakePathstore{nodes: make(map[string]string)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret")
	defer client.Close()
	store := NewStore(client, "acme")
	ctx := context.Background()

	if _, err := store.Load(ctx); !errors.Is(err, meta.ErrNoCache) {
		t.Fatalf("expected ErrNoCache before the first save, got %v", err)
	}

	m := meta.New()
	m.Set(&meta.Entry{File: "index", URL: "index.html", Title: "Home"})
	if err := m.SaveTo(ctx, store); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := fake.nodes["guides/acme/metas"]; !ok {
		t.Fatalf("expected node under guides/acme/metas, got %v", fake.nodes)
	}

	loaded := meta.New()
	if err := loaded.LoadFrom(ctx, store); err != nil {
		t.Fatalf("load: %v", err)
	}
	e, ok := loaded.Get("index")
	if !ok || e.Title != "Home" {
		t.Errorf("expected Home entry, got %+v", e)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, meta.ErrNoCache) {
		t.Errorf("expected ErrNoCache after clear, got %v", err)
	}
	for _, a := range fake.auth {
		if a != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", a)
		}
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	client.backoff = noBackoff
	if _, err := client.GetNode(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Errorf("expected status 500 error, got %v", err)
	}
	if err := client.PutNode(context.Background(), "x", NodeRequest{Value: []byte(`1`)}); err == nil {
		t.Error("expected put error")
	}
}

func noBackoff(int) time.Duration { return 0 }

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"key_path":"x","value":{"a":1}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	client.backoff = noBackoff
	node, err := client.GetNode(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if node == nil || node.Key != "x" {
		t.Errorf("unexpected node %+v", node)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	client.backoff = noBackoff
	err := client.DeleteNode(context.Background(), "x")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 StatusError, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&StatusError{Code: 500}, true},
		{&StatusError{Code: 429}, true},
		{&StatusError{Code: 404}, false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Errorf("IsRetryable(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}
