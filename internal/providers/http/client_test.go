package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("creates client with default config", func(t *testing.T) {
		config := DefaultClientConfig()
		client := NewClient(config)

		assert.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 3, client.GetMaxRetries())
		assert.Equal(t, DefaultUserAgent, client.UserAgent())
	})

	t.Run("creates client with custom config", func(t *testing.T) {
		config := ClientConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 5,
			UserAgent:  "test-agent/1.0",
		}
		client := NewClient(config)

		assert.NotNil(t, client)
		assert.Equal(t, 10*time.Second, client.GetTimeout())
		assert.Equal(t, 5, client.GetMaxRetries())
	})

	t.Run("uses defaults for zero values", func(t *testing.T) {
		config := ClientConfig{}
		client := NewClient(config)

		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 3, client.GetMaxRetries())
	})
}

func TestClient_Get(t *testing.T) {
	t.Run("successful GET request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/test", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		resp, err := client.Get(context.Background(), server.URL+"/test", nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), "ok")
	})

	t.Run("GET request with custom headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "custom-value", r.Header.Get("X-Custom-Header"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		headers := map[string]string{
			"X-Custom-Header": "custom-value",
		}
		resp, err := client.Get(context.Background(), server.URL, headers)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("handles 404 error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
		}))
		defer server.Close()

		client := NewClient(DefaultClientConfig())
		_, err := client.Get(context.Background(), server.URL, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 0, // Don't retry for this test
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := client.Get(ctx, server.URL, nil)

		require.Error(t, err)
	})

	t.Run("handles server errors with retry", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusInternalServerError)
			} else {
				w.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 3,
		})

		resp, err := client.Get(context.Background(), server.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, 3, attempts) // Should have retried twice and succeeded on third
	})
}

func TestClient_GetNoRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/start":
			http.Redirect(w, r, "/final", http.StatusFound)
		case "/final":
			_, _ = w.Write([]byte("landed"))
		}
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig())

	t.Run("returns the redirect response", func(t *testing.T) {
		resp, err := client.GetNoRedirect(context.Background(), server.URL+"/start", nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode())
		assert.Equal(t, "/final", resp.Header().Get("Location"))
	})

	t.Run("Get still follows redirects", func(t *testing.T) {
		resp, err := client.Get(context.Background(), server.URL+"/start", nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, "landed", resp.String())
	})
}

func TestClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte("<html>"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"name": "Show"}}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig())

	t.Run("decodes body", func(t *testing.T) {
		var out struct {
			Data struct {
				Name string `json:"name"`
			} `json:"data"`
		}
		require.NoError(t, client.GetJSON(context.Background(), server.URL, nil, &out))
		assert.Equal(t, "Show", out.Data.Name)
	})

	t.Run("reports invalid JSON", func(t *testing.T) {
		var out map[string]any
		err := client.GetJSON(context.Background(), server.URL+"/broken", nil, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode JSON")
	})
}

type recordingTransport struct {
	hosts []string
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.hosts = append(rt.hosts, req.URL.Host)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       http.NoBody,
		Request:    req,
	}, nil
}

func TestClient_CustomTransport(t *testing.T) {
	transport := &recordingTransport{}
	client := NewClient(ClientConfig{Transport: transport})

	_, err := client.Get(context.Background(), "https://vadapav.mov/api/s/test", nil)
	require.NoError(t, err)

	_, err = client.GetNoRedirect(context.Background(), "https://vidsrc.net/embed", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"vadapav.mov", "vidsrc.net"}, transport.hosts)
}
