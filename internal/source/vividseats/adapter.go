package vividseats

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/ticketpulse/internal/source"
)

const (
	SourceName = "vividseats"

	listingsPath     = "/hermes/api/v1/listings"
	defaultBaseURL   = "https://www.vividseats.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultTimeout   = 30 * time.Second
)

// Config holds adapter settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Adapter implements source.ListingSource against the Vivid Seats listings API.
type Adapter struct {
	client *resty.Client
}

// NewAdapter creates a new Vivid Seats adapter.
// Empty config fields fall back to defaults.
func NewAdapter(cfg Config) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept", "application/json")

	return &Adapter{client: client}
}

// Name returns the source identifier.
func (a *Adapter) Name() string {
	return SourceName
}

// FetchListings requests the listings of one production.
func (a *Adapter) FetchListings(ctx context.Context, productionID string, quantity int) (*source.ListingsResponse, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("productionId", productionID).
		SetQueryParam("quantity", strconv.Itoa(quantity)).
		Get(listingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to call listings API: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("listings API error: status %d", resp.StatusCode())
	}

	body := resp.Body()
	var payload source.ListingsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode listings payload: %w", err)
	}
	payload.Body = body

	return &payload, nil
}
