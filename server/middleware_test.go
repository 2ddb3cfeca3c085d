package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rxpricedb/rxprice-api/config"
)

func TestGetTokenCost(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		expectedCost int64
	}{
		{"index page", "/", 0},
		{"docs page", "/docs", 0},
		{"openapi spec", "/docs/openapi.yaml", 0},
		{"favicon", "/favicon.ico", 0},
		{"metrics scrape", "/metrics", 0},
		{"full database drain", "/database", 200},
		{"paged database", "/database/1", 20},
		{"paged database deep", "/database/4821", 20},
		{"record lookup", "/records/308182", 100},
		{"unmatched record lookup", "/records/UNMATCHED_4970203021", 100},
		{"browse", "/browse", 20},
		{"stats", "/stats", 5},
		{"resolve", "/resolve", 50},
		{"refresh", "/refresh", 100},
		{"health", "/health", 5},
		{"unknown path", "/something-else", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if cost := getTokenCost(req); cost != tt.expectedCost {
				t.Errorf("getTokenCost(%s) = %d, want %d", tt.path, cost, tt.expectedCost)
			}
		})
	}
}

func TestRealIPMiddleware(t *testing.T) {
	var seenAddr string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAddr = r.RemoteAddr
	}))

	tests := []struct {
		name     string
		xff      string
		expected string
	}{
		{"single forwarded IP", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain takes first", "203.0.113.7, 10.0.0.1, 10.0.0.2", "203.0.113.7"},
		{"whitespace trimmed", "  203.0.113.7  ", "203.0.113.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("X-Forwarded-For", tt.xff)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if seenAddr != tt.expected {
				t.Errorf("RemoteAddr = %q, want %q", seenAddr, tt.expected)
			}
		})
	}
}

func TestRealIPMiddlewareWithoutHeader(t *testing.T) {
	var seenAddr string
	handler := RealIPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAddr = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seenAddr != "127.0.0.1:54321" {
		t.Errorf("RemoteAddr should be untouched, got %q", seenAddr)
	}
}

func TestBlockDirectAccessMiddleware(t *testing.T) {
	handler := BlockDirectAccessMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		remoteAddr string
		realIP     string
		wantStatus int
	}{
		{"proxied request allowed", "10.0.0.5:443", "203.0.113.7", http.StatusOK},
		{"localhost allowed", "127.0.0.1:54321", "", http.StatusOK},
		{"ipv6 loopback allowed", "[::1]:54321", "", http.StatusOK},
		{"direct external blocked", "203.0.113.7:54321", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{
		MaxRequestBody: 1024,
		MaxHeaderSize:  1024,
	}

	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("normal request passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
		req.Header.Set("Content-Length", "4096")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", rec.Code)
		}
	})

	t.Run("oversized headers rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		for i := 0; i < 64; i++ {
			req.Header.Set(string(rune('A'+i%26))+"-Padding", string(make([]byte, 64)))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestHeaderFieldsTooLarge {
			t.Errorf("Expected 431, got %d", rec.Code)
		}
	})
}

func TestRateLimitHandler(t *testing.T) {
	handler := RateLimitHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("cheap requests pass", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.10:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rec.Code)
		}

		if rec.Header().Get("X-RateLimit-Remaining") == "" {
			t.Error("Expected X-RateLimit-Remaining header")
		}
	})

	t.Run("bucket exhaustion returns 429", func(t *testing.T) {
		// The full-database cost is 200 and the bucket holds 1000 tokens,
		// so the sixth drain within a second must be rejected
		var last int
		for i := 0; i < 6; i++ {
			req := httptest.NewRequest(http.MethodGet, "/database", nil)
			req.RemoteAddr = "192.0.2.20:1000"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			last = rec.Code
		}

		if last != http.StatusTooManyRequests {
			t.Errorf("Expected 429 after bucket exhaustion, got %d", last)
		}
	})

	t.Run("clients have independent buckets", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/database", nil)
		req.RemoteAddr = "192.0.2.30:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Fresh client should not be limited, got %d", rec.Code)
		}
	})
}
