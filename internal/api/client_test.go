package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/veloracommerce/storefront-client/pkg/config"
	pkgerrors "github.com/veloracommerce/storefront-client/pkg/errors"
	"github.com/veloracommerce/storefront-client/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
}

func newTestClient(t *testing.T, serverURL string, tokens TokenSource) *Client {
	t.Helper()
	client, err := NewClient(config.APIConfig{BaseURL: serverURL, Timeout: 5 * time.Second, UserAgent: "test-agent"}, tokens, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClientAttachesHeaders(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, TokenSourceFunc(func() string { return "tok-1" }))
	if _, err := client.Post(context.Background(), "/cart/add", map[string]any{"productId": "p1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if seen.Get("Authorization") != "Bearer tok-1" {
		t.Fatalf("expected bearer token, got %q", seen.Get("Authorization"))
	}
	if seen.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	if seen.Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", seen.Get("Content-Type"))
	}
	if seen.Get("User-Agent") != "test-agent" {
		t.Fatalf("expected user agent, got %q", seen.Get("User-Agent"))
	}
}

func TestClientAnonymousWhenTokenEmpty(t *testing.T) {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, TokenSourceFunc(func() string { return "" }))
	if _, err := client.Get(context.Background(), "/cart"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen.Get("Authorization") != "" {
		t.Fatalf("expected no auth header, got %q", seen.Get("Authorization"))
	}
}

func TestClientMapsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "out of stock"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, err := client.Post(context.Background(), "/cart/add", map[string]any{"productId": "p1"})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
	if typed.Message() != "out of stock" {
		t.Fatalf("expected backend message verbatim, got %q", typed.Message())
	}
}

func TestClientMapsNestedErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","message":"quantity exceeds stock"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	_, err := client.Get(context.Background(), "/cart")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "quantity exceeds stock" {
		t.Fatalf("expected nested message, got %v", err)
	}
}

func TestClientNetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL, nil)
	_, err := client.Get(context.Background(), "/cart")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnavailable {
		t.Fatalf("expected unavailable code, got %v", err)
	}
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	if _, err := NewClient(config.APIConfig{BaseURL: ""}, nil, testLogger()); err == nil {
		t.Fatal("empty base url should fail")
	}
	if _, err := NewClient(config.APIConfig{BaseURL: "not a url"}, nil, testLogger()); err == nil {
		t.Fatal("unparseable base url should fail")
	}
	if _, err := NewClient(config.APIConfig{BaseURL: "http://api.test/api/"}, nil, nil); err == nil {
		t.Fatal("nil logger should fail")
	}
	client, err := NewClient(config.APIConfig{BaseURL: "http://api.test/api/"}, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "http://api.test/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", client.baseURL)
	}
}
