package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxpricedb/rxprice-api/config"
	"github.com/rxpricedb/rxprice-api/entities"
	"github.com/rxpricedb/rxprice-api/health"
	"github.com/rxpricedb/rxprice-api/logging"
	"github.com/rxpricedb/rxprice-api/query"
	"github.com/rxpricedb/rxprice-api/resolver"
	"github.com/rxpricedb/rxprice-api/store"
	"github.com/rxpricedb/rxprice-api/validation"
	"github.com/rxpricedb/rxprice-api/viewer"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8000",
		Address:        "127.0.0.1",
		Env:            "test",
		LogLevel:       "error",
		MaxRequestBody: 1048576,
		MaxHeaderSize:  1048576,
		PageSize:       10,
		StoreBackend:   config.BackendMemory,
	}
}

func newTestServer(t *testing.T, recordCount int) (*Server, *viewer.Controller) {
	t.Helper()

	logging.InitLogger(t.TempDir(), "error")

	records := make([]entities.Medication, recordCount)
	for i := range records {
		records[i] = entities.Medication{
			Rxcui: fmt.Sprintf("%06d", i+1),
			Name:  fmt.Sprintf("drug %d", i+1),
		}
	}

	mem := store.NewMemStore(records)
	controller := viewer.NewController(query.NewPaginator(mem, 10), 10)
	validator := validation.NewDataValidator()
	checker := health.NewHealthChecker(controller)
	resolverClient := resolver.NewClient("http://127.0.0.1:9")

	return NewServer(testConfig(), controller, validator, checker, resolverClient), controller
}

func serveProxied(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.server.Addr != "127.0.0.1:8000" {
		t.Errorf("Unexpected listen address: %s", srv.server.Addr)
	}
	if srv.server.ReadTimeout != 15*time.Second {
		t.Errorf("Unexpected read timeout: %v", srv.server.ReadTimeout)
	}
}

func TestRoutesAreWired(t *testing.T) {
	srv, controller := newTestServer(t, 25)
	controller.RefreshTotal(context.Background())
	if err := controller.LoadPage(context.Background(), 1); err != nil {
		t.Fatalf("LoadPage failed: %v", err)
	}

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/database/1", http.StatusOK},
		{http.MethodGet, "/database/2", http.StatusOK},
		{http.MethodGet, "/records/000003", http.StatusOK},
		{http.MethodGet, "/records/999999", http.StatusNotFound},
		{http.MethodGet, "/browse?q=drug", http.StatusOK},
		{http.MethodGet, "/stats", http.StatusOK},
		{http.MethodPost, "/refresh", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := serveProxied(t, srv, tt.method, tt.target)
			if rec.Code != tt.want {
				t.Errorf("%s %s: expected %d, got %d: %s", tt.method, tt.target, tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPagedRouteEnvelope(t *testing.T) {
	srv, controller := newTestServer(t, 25)
	controller.RefreshTotal(context.Background())

	rec := serveProxied(t, srv, http.MethodGet, "/database/2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}

	if body["page"].(float64) != 2 {
		t.Errorf("Expected page 2, got %v", body["page"])
	}
	if body["totalItems"].(float64) != 25 {
		t.Errorf("Expected totalItems 25, got %v", body["totalItems"])
	}
	if body["maxPage"].(float64) != 3 {
		t.Errorf("Expected maxPage 3, got %v", body["maxPage"])
	}
}

func TestDirectAccessBlocked(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:4242"
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for direct external access, got %d", rec.Code)
	}
}

func TestRateLimitHeadersPresent(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	rec := serveProxied(t, srv, http.MethodGet, "/health")
	if rec.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected X-RateLimit-Limit 1000, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestGracefulShutdown(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Shutdown on a never-started server returns promptly
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
