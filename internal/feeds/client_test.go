package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch_OK_ReturnsRawBody(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"CVE-2021-12345"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	feed, err := c.Fetch(context.Background(), "CVE-2021-12345")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(feed) != `{"id":"CVE-2021-12345"}` {
		t.Errorf("feed = %s; want the raw response body", feed)
	}
	if gotPath != "/CVE-2021-12345" {
		t.Errorf("request path = %q; want /CVE-2021-12345", gotPath)
	}
}

func TestFetch_NotFound_ReturnsNilWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	feed, err := c.Fetch(context.Background(), "CVE-2021-12345")
	if err != nil {
		t.Fatalf("Fetch must not surface a 404: %v", err)
	}
	if feed != nil {
		t.Errorf("feed = %s; want nil on non-200", feed)
	}
}

func TestFetch_TransportFailure_ReturnsNilWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewHTTPClient(srv.URL)
	feed, err := c.Fetch(context.Background(), "CVE-2021-12345")
	if err != nil {
		t.Fatalf("Fetch must not surface a transport failure: %v", err)
	}
	if feed != nil {
		t.Errorf("feed = %s; want nil on transport failure", feed)
	}
}

func TestNewHTTPClient_DefaultBaseURL(t *testing.T) {
	c := NewHTTPClient("")
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q; want %q", c.baseURL, DefaultBaseURL)
	}
}
