package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const listingsBody = `{
	"status": {"error_code": 0, "error_message": null},
	"data": [
		{
			"id": 1,
			"name": "Bitcoin",
			"symbol": "BTC",
			"slug": "bitcoin",
			"tags": ["store-of-value", "pow"],
			"date_added": "2013-04-28T00:00:00.000Z",
			"cmc_rank": 1,
			"circulating_supply": 19600000,
			"platform": null,
			"quote": {"USD": {"price": 61000.5, "market_cap": 1.2e12, "volume_24h": 3.1e10}}
		},
		{
			"id": 825,
			"name": "Tether USDt",
			"symbol": "USDT",
			"slug": "tether",
			"tags": [],
			"date_added": "2015-02-25T00:00:00.000Z",
			"cmc_rank": 3,
			"circulating_supply": 110000000000,
			"platform": {"id": 1027, "name": "Ethereum"},
			"quote": {"USD": {"price": 1.0, "market_cap": 1.1e11, "volume_24h": 5.2e10}}
		}
	]
}`

func TestClient_TopListing(t *testing.T) {
	var gotLimit, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		gotKey = r.Header.Get("X-CMC_PRO_API_KEY")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(listingsBody))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	listings, err := client.TopListing(context.Background(), 100)
	if err != nil {
		t.Fatalf("TopListing failed: %v", err)
	}

	if gotLimit != "100" {
		t.Errorf("limit param mismatch: got %s, want 100", gotLimit)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header mismatch: got %s", gotKey)
	}

	if len(listings) != 2 {
		t.Fatalf("listing length mismatch: got %d, want 2", len(listings))
	}

	btc := listings[0]
	if btc.ExternalID != 1 || btc.Symbol != "BTC" || btc.Rank != 1 {
		t.Errorf("unexpected first listing: %+v", btc)
	}
	if btc.Platform != nil {
		t.Errorf("BTC platform should be nil, got %v", *btc.Platform)
	}
	if btc.DateAdded == nil {
		t.Fatal("BTC date_added should be set")
	}
	wantAdded := time.Date(2013, 4, 28, 0, 0, 0, 0, time.UTC).UnixMilli()
	if *btc.DateAdded != wantAdded {
		t.Errorf("date_added mismatch: got %d, want %d", *btc.DateAdded, wantAdded)
	}
	if btc.Price != 61000.5 || btc.MarketCap != 1.2e12 || btc.Volume24h != 3.1e10 {
		t.Errorf("quote mismatch: %+v", btc)
	}

	usdt := listings[1]
	if usdt.Platform == nil || *usdt.Platform != "Ethereum" {
		t.Errorf("USDT platform mismatch: %v", usdt.Platform)
	}
	if len(usdt.Tags) != 0 {
		t.Errorf("USDT tags should be empty, got %v", usdt.Tags)
	}
}

func TestClient_TopListing_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": {"error_code": 1002, "error_message": "API key missing."}, "data": null}`))
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))

	_, err := client.TopListing(context.Background(), 10)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if provErr.HTTPStatus != http.StatusUnauthorized || provErr.Code != 1002 {
		t.Errorf("unexpected provider error: %+v", provErr)
	}
}

func TestClient_TopListing_EnvelopeErrorOn200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": {"error_code": 500, "error_message": "Internal error."}, "data": null}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.TopListing(context.Background(), 10)
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != 500 {
		t.Errorf("code mismatch: got %d, want 500", provErr.Code)
	}
}

func TestClient_TopListing_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": {`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	if _, err := client.TopListing(context.Background(), 10); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestClient_TopListing_InvalidLimit(t *testing.T) {
	client := NewClient("test-key")

	if _, err := client.TopListing(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func TestClient_TopListing_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(listingsBody))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))

	if _, err := client.TopListing(context.Background(), 10); err == nil {
		t.Fatal("expected timeout error")
	}
}
