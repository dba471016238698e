/**
 * @description
 * This package provides a client for the upstream currency rates API. It
 * encapsulates the logic for making authenticated HTTP requests to the
 * provider's latest-rates endpoint and parsing the response into a rate
 * table keyed by currency code.
 */
package currencyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client is a client for the currency rates API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new currency API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// latestRatesResponse mirrors the provider response:
// {"data": {"USD": {"code": "USD", "value": 1.0}, ...}}
type latestRatesResponse struct {
	Data map[string]struct {
		Code  string          `json:"code"`
		Value decimal.Decimal `json:"value"`
	} `json:"data"`
}

// LatestRates fetches the current rate table, each rate expressed relative to
// the provider's base currency.
func (c *Client) LatestRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v3/latest", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("currency API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed latestRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode currency API response: %w", err)
	}

	rates := make(map[string]decimal.Decimal, len(parsed.Data))
	for code, entry := range parsed.Data {
		if entry.Code != "" {
			code = entry.Code
		}
		rates[code] = entry.Value
	}
	return rates, nil
}
