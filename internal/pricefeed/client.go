package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"goldbook/internal/models"
)

// ErrPriceUnavailable indicates the feed is unreachable or has no data yet.
// "No data yet" is a legitimate state, not an exception.
var ErrPriceUnavailable = errors.New("pricefeed: prices unavailable")

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client fetches the current price-per-gram document from the remote feed.
// It never caches; any caching is the caller's responsibility.
type Client struct {
	url    string
	client HTTPDoer
}

// NewClient builds a feed client for the given document URL.
func NewClient(url string, client HTTPDoer) *Client {
	return &Client{
		url:    strings.TrimSpace(url),
		client: client,
	}
}

// NewDefaultHTTPClient returns *http.Client with timeout.
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type feedDocument struct {
	GoldPrice   float64   `json:"goldPrice"`
	SilverPrice float64   `json:"silverPrice"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CurrentPrices returns a live snapshot or ErrPriceUnavailable.
func (c *Client) CurrentPrices(ctx context.Context) (*models.PriceSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", ErrPriceUnavailable, resp.StatusCode)
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrPriceUnavailable, err)
	}
	if doc.GoldPrice <= 0 || doc.SilverPrice <= 0 {
		return nil, ErrPriceUnavailable
	}

	return &models.PriceSnapshot{
		GoldPricePerGram:   doc.GoldPrice,
		SilverPricePerGram: doc.SilverPrice,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}
