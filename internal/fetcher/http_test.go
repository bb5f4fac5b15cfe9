package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sells-group/registry-etl/internal/resilience"
)

func fastHTTPOptions() HTTPOptions {
	return HTTPOptions{
		RequestsPerSecond: 1000,
		Burst:             1000,
		Retry:             resilience.Policy{Attempts: 3, Base: time.Millisecond, Jitter: 0},
	}
}

func TestGetRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("payload")) //nolint:errcheck
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher(fastHTTPOptions()).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "payload" {
		t.Errorf("body = %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGetDoesNotRetryClientError(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(fastHTTPOptions()).Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("want error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("404 retried: %d calls", calls.Load())
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"total": 42}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	var out struct {
		Success bool `json:"success"`
		Result  struct {
			Total int `json:"total"`
		} `json:"result"`
	}
	if err := NewHTTPFetcher(fastHTTPOptions()).GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Result.Total != 42 {
		t.Errorf("decoded %+v", out)
	}
}

func TestHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastHTTPOptions())
	if err := f.Head(context.Background(), srv.URL+"/"); err != nil {
		t.Errorf("healthy url: %v", err)
	}
	if err := f.Head(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("want error for 404 head")
	}
}

func TestGetSendsUserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	opts := fastHTTPOptions()
	opts.UserAgent = "registry-etl-test/1.0"
	if _, err := NewHTTPFetcher(opts).Get(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if got != "registry-etl-test/1.0" {
		t.Errorf("user agent = %q", got)
	}
}
