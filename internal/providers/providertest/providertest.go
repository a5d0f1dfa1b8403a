// Package providertest routes scraper traffic for production hosts to a
// local httptest server so fixtures can keep the real URLs.
package providertest

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	providerhttp "github.com/justchokingaround/gscrape/internal/providers/http"
)

// RewriteTransport sends every request to Target while keeping the original
// host in Request.Host, so handlers can route on r.Host + r.URL.Path
type RewriteTransport struct {
	Target *url.URL
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.Host = req.URL.Host
	out.URL.Scheme = t.Target.Scheme
	out.URL.Host = t.Target.Host

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(out)
}

// NewClient starts an httptest server for handler and returns a scraper
// HTTP client wired to it. The server is closed when the test ends.
func NewClient(t *testing.T, handler http.Handler) *providerhttp.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}

	return providerhttp.NewClient(providerhttp.ClientConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		Transport:  &RewriteTransport{Target: target},
	})
}

// Route is a tiny mux keyed by "host/path" (query string excluded)
type Route map[string]http.HandlerFunc

// ServeHTTP implements http.Handler
func (rt Route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.Host+r.URL.Path]; ok {
		h(w, r)
		return
	}
	http.NotFound(w, r)
}

// JSON replies with a JSON body
func JSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

// HTML replies with an HTML body
func HTML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}
