package llm

import (
	"context"
	"fmt"
	"time"

	drepo "VinSight/internal/domain/repository"
	"VinSight/internal/service/ratelimit"
	pkghttp "VinSight/pkg/http"
	"VinSight/pkg/logger"
)

const limiterKey = "llm"

// Config holds the completion client settings.
type Config struct {
	Enabled     bool
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	RatePerSec  float64
	Burst       int
}

// Client implements the Completer contract against an OpenAI-compatible
// chat completions endpoint. Calls are rate limited locally; the caller
// treats every error as a soft failure.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) drepo.Completer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		limiter: ratelimit.New(),
		log:     log,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the model text.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if !c.cfg.Enabled {
		return "", fmt.Errorf("llm disabled")
	}
	if !c.limiter.Allow(limiterKey, float64(c.cfg.Burst), c.cfg.RatePerSec) {
		return "", fmt.Errorf("llm rate limited")
	}

	req := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	}

	var resp chatResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.cfg.BaseURL + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
		},
		Body: req,
	}, &resp)
	if err != nil {
		c.log.Warn("llm completion failed", logger.Error(err))
		return "", fmt.Errorf("llm completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
