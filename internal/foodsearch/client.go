// Package foodsearch queries the external food database for nutrient facts.
package foodsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/config"
	"github.com/thiagoisdead/sustento-back/internal/logging"
)

type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.FoodSearchConfig, timeout time.Duration, logger *zap.Logger) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger).Named("foodsearch"),
	}
}

// Search returns the provider's ranked products for query, best match first.
// A non-positive maxResults uses the configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Product, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	reqURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	params := reqURL.Query()
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(maxResults))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("food search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("food search failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Message string `json:"message"`
		Data    struct {
			Products []Product `json:"products"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode food search response: %w", err)
	}

	c.logger.Debug("food search",
		zap.String("query", query),
		zap.Int("results", len(envelope.Data.Products)),
		zap.Duration("took", time.Since(start)))

	return envelope.Data.Products, nil
}
