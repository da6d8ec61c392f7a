package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the CoinGecko simple-price API.
const DefaultEndpoint = "https://api.coingecko.com/api/v3/simple/price"

// Fetcher retrieves a native currency's spot price from CoinGecko.
type Fetcher struct {
	client   *http.Client
	endpoint string
	coinID   string
	currency string
}

// NewFetcher creates a price fetcher for the given CoinGecko coin ID
// (e.g. "ethereum"). endpoint defaults to the public CoinGecko API.
func NewFetcher(endpoint, coinID, currency string) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if currency == "" {
		currency = "usd"
	}
	return &Fetcher{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		coinID:   strings.ToLower(coinID),
		currency: strings.ToLower(currency),
	}
}

// Fetch returns the current spot price.
func (f *Fetcher) Fetch(ctx context.Context) (float64, error) {
	url := fmt.Sprintf("%s?ids=%s&vs_currencies=%s", f.endpoint, f.coinID, f.currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading price response: %w", err)
	}

	// Response: {"ethereum":{"usd":1234.56}}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("parsing price response: %w", err)
	}
	p, ok := raw[f.coinID][f.currency]
	if !ok {
		return 0, fmt.Errorf("price not available for: %s", f.coinID)
	}
	return p, nil
}
