package currencyapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLatestRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/latest" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-key" {
			t.Fatalf("expected apikey header, got %q", r.Header.Get("apikey"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"USD":{"code":"USD","value":1},"EUR":{"code":"EUR","value":0.91234}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	rates, err := client.LatestRates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}
	if !rates["USD"].Equal(decimal.RequireFromString("1")) {
		t.Fatalf("expected USD rate 1, got %s", rates["USD"])
	}
	if !rates["EUR"].Equal(decimal.RequireFromString("0.91234")) {
		t.Fatalf("expected EUR rate 0.91234, got %s", rates["EUR"])
	}
}

func TestLatestRatesUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid authentication credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key")
	if _, err := client.LatestRates(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestLatestRatesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	if _, err := client.LatestRates(context.Background()); err == nil {
		t.Fatal("expected error for malformed response body")
	}
}
