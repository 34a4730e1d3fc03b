package winedata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"VinSight/internal/service/cache"
	"VinSight/pkg/logger"
)

func newTestServer(t *testing.T, hits *map[string]int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	count := func(path string) {
		if hits != nil {
			(*hits)[path]++
		}
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		count("/health")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/portfolio/u1/summary", func(w http.ResponseWriter, r *http.Request) {
		count("/summary")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"user_id": "u1", "total_value": 300.0, "holding_count": 2, "top_holding_pct": 60.0, "currency": "EUR",
		})
	})
	mux.HandleFunc("/api/portfolio/u1/holdings", func(w http.ResponseWriter, r *http.Request) {
		count("/holdings")
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"asset_id": "W1", "asset_name": "Margaux 2015", "current_value": 180.0, "trend": "up"},
		})
	})
	mux.HandleFunc("/api/market/pulse", func(w http.ResponseWriter, r *http.Request) {
		count("/pulse")
		_ = json.NewEncoder(w).Encode(map[string]float64{"bordeaux": 1.5})
	})
	mux.HandleFunc("/api/market/arbitrage", func(w http.ResponseWriter, r *http.Request) {
		count("/arbitrage")
		if r.URL.Query().Get("limit") == "" {
			t.Errorf("missing limit query param")
		}
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"asset_id": "W3", "buy_price": 100.0, "sell_price": 110.0, "expected_profit": 10.0, "confidence": 0.9},
		})
	})
	return httptest.NewServer(mux)
}

func TestClientFetchesAllEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	c := New(srv.URL, logger.Nop())
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}

	sum, err := c.PortfolioSummary(ctx, "u1")
	if err != nil || sum.TotalValue != 300 {
		t.Fatalf("summary: %v %+v", err, sum)
	}

	hs, err := c.Holdings(ctx, "u1")
	if err != nil || len(hs) != 1 || hs[0].AssetID != "W1" {
		t.Fatalf("holdings: %v %+v", err, hs)
	}

	pulse, err := c.MarketPulse(ctx)
	if err != nil || pulse["bordeaux"] != 1.5 {
		t.Fatalf("pulse: %v %v", err, pulse)
	}

	opps, err := c.ArbitrageOpportunities(ctx, 5)
	if err != nil || len(opps) != 1 || opps[0].ExpectedProfit != 10 {
		t.Fatalf("opportunities: %v %+v", err, opps)
	}
}

func TestClientPulseCacheAside(t *testing.T) {
	hits := map[string]int{}
	srv := newTestServer(t, &hits)
	defer srv.Close()

	c := New(srv.URL, logger.Nop(), WithCache(cache.NewTTLCache(), time.Minute, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.MarketPulse(ctx); err != nil {
			t.Fatalf("pulse: %v", err)
		}
	}
	if hits["/pulse"] != 1 {
		t.Fatalf("expected one backend hit, got %d", hits["/pulse"])
	}
}

func TestClientHealthReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, logger.Nop())
	if err := c.Health(context.Background()); err == nil {
		t.Fatalf("expected health failure")
	}
}
