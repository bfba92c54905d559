package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamUnavailable wraps every failure to obtain rates from the provider.
var ErrUpstreamUnavailable = errors.New("exchange rate provider unavailable")

// RateProvider fetches a fresh rate table for a base currency.
type RateProvider interface {
	Name() string
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// ExchangeRateAPIProvider talks to the exchangerate-api.com v6 API. Without
// an API key it uses the open access endpoint layout.
type ExchangeRateAPIProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewExchangeRateAPIProvider(baseURL, apiKey string) *ExchangeRateAPIProvider {
	return &ExchangeRateAPIProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type exchangeRateAPIResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Rates           map[string]float64 `json:"rates"`
}

func (p *ExchangeRateAPIProvider) Name() string { return "exchangerate-api" }

func (p *ExchangeRateAPIProvider) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	path := "/latest/" + base
	if p.apiKey != "" {
		path = "/" + p.apiKey + path
	}

	var resp exchangeRateAPIResponse
	if err := p.doRequest(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("%w: provider error %q", ErrUpstreamUnavailable, resp.ErrorType)
	}
	if resp.BaseCode != "" && !strings.EqualFold(resp.BaseCode, base) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrUpstreamUnavailable, base, resp.BaseCode)
	}

	rates := resp.ConversionRates
	if len(rates) == 0 {
		rates = resp.Rates
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: empty rate table", ErrUpstreamUnavailable)
	}
	return rates, nil
}

func (p *ExchangeRateAPIProvider) doRequest(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
