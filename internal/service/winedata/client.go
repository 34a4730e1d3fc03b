package winedata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
	"VinSight/internal/service/cache"
	pkghttp "VinSight/pkg/http"
	"VinSight/pkg/logger"
)

const (
	pulseCacheKey  = "winedata:pulse"
	oppsCacheKey   = "winedata:opps"
	defaultTimeout = 10 * time.Second
)

// Client implements the DataService contract over the wine data HTTP API.
// Market-wide reads (pulse, opportunities) go through a cache-aside layer;
// per-user reads are always fetched fresh.
type Client struct {
	baseURL  string
	http     *pkghttp.Client
	cache    cache.BytesCache
	pulseTTL time.Duration
	oppsTTL  time.Duration
	log      *logger.Logger
}

type Option func(*Client)

// WithCache attaches a cache for market-wide reads.
func WithCache(c cache.BytesCache, pulseTTL, oppsTTL time.Duration) Option {
	return func(cl *Client) {
		cl.cache = c
		cl.pulseTTL = pulseTTL
		cl.oppsTTL = oppsTTL
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.http = pkghttp.NewClient(pkghttp.WithTimeout(d))
	}
}

func New(baseURL string, log *logger.Logger, opts ...Option) drepo.DataService {
	c := &Client{
		baseURL: baseURL,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(defaultTimeout)),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/health",
	}, &body)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	if body.Status != "" && body.Status != "ok" && body.Status != "healthy" {
		return fmt.Errorf("health check: service reports %q", body.Status)
	}
	return nil
}

func (c *Client) PortfolioSummary(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	var sum models.PortfolioSummary
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    fmt.Sprintf("%s/api/portfolio/%s/summary", c.baseURL, userID),
	}, &sum)
	if err != nil {
		return nil, fmt.Errorf("portfolio summary: %w", err)
	}
	return &sum, nil
}

func (c *Client) Holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    fmt.Sprintf("%s/api/portfolio/%s/holdings", c.baseURL, userID),
	}, &holdings)
	if err != nil {
		return nil, fmt.Errorf("holdings: %w", err)
	}
	return holdings, nil
}

func (c *Client) MarketPulse(ctx context.Context) (map[string]float64, error) {
	if b, ok := c.cacheGet(pulseCacheKey); ok {
		var pulse map[string]float64
		if err := json.Unmarshal(b, &pulse); err == nil {
			return pulse, nil
		}
	}

	var pulse map[string]float64
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.baseURL + "/api/market/pulse",
	}, &pulse)
	if err != nil {
		return nil, fmt.Errorf("market pulse: %w", err)
	}

	c.cacheSet(pulseCacheKey, pulse, c.pulseTTL)
	return pulse, nil
}

func (c *Client) ArbitrageOpportunities(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error) {
	key := oppsCacheKey + ":" + strconv.Itoa(limit)
	if b, ok := c.cacheGet(key); ok {
		var opps []models.ArbitrageOpportunity
		if err := json.Unmarshal(b, &opps); err == nil {
			return opps, nil
		}
	}

	var opps []models.ArbitrageOpportunity
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.baseURL + "/api/market/arbitrage",
		QueryParams: map[string][]string{"limit": {strconv.Itoa(limit)}},
	}, &opps)
	if err != nil {
		return nil, fmt.Errorf("arbitrage opportunities: %w", err)
	}

	c.cacheSet(key, opps, c.oppsTTL)
	return opps, nil
}

func (c *Client) cacheGet(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	b, ok, err := c.cache.GetBytes(key)
	if err != nil {
		c.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
		return nil, false
	}
	return b, ok
}

func (c *Client) cacheSet(key string, v interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.SetBytes(key, b, ttl); err != nil {
		c.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
}
