package gasfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultConfidence picks the feed tier used for estimates: aggressive
// enough to land within a few blocks without overpaying.
const DefaultConfidence = 70

const maxFetchAttempts = 3

// Suggestion is one confidence-tagged fee tuple, in wei.
type Suggestion struct {
	Confidence           int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// Client reads EIP-1559 fee suggestions from a Blocknative-style gas
// price feed.
type Client struct {
	client *http.Client
	url    string
	apiKey string
}

// NewClient creates a gas feed client for url. apiKey may be empty for
// feeds that don't require one.
func NewClient(url, apiKey string) *Client {
	return &Client{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		apiKey: apiKey,
	}
}

// feed wire format: prices are gwei decimals.
//
//	{"blockPrices":[{"estimatedPrices":[
//	  {"confidence":99,"maxFeePerGas":30.2,"maxPriorityFeePerGas":2.1}, ...]}]}
type feedResponse struct {
	BlockPrices []struct {
		EstimatedPrices []struct {
			Confidence           int     `json:"confidence"`
			MaxFeePerGas         float64 `json:"maxFeePerGas"`
			MaxPriorityFeePerGas float64 `json:"maxPriorityFeePerGas"`
		} `json:"estimatedPrices"`
	} `json:"blockPrices"`
}

// Suggest returns the fee tuple at the requested confidence level,
// retrying transport failures up to maxFetchAttempts. confidence <= 0
// selects DefaultConfidence.
func (c *Client) Suggest(ctx context.Context, confidence int) (*Suggestion, error) {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	return backoff.Retry(ctx, func() (*Suggestion, error) {
		return c.fetch(ctx, confidence)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxFetchAttempts))
}

func (c *Client) fetch(ctx context.Context, confidence int) (*Suggestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching gas feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gas feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gas feed response: %w", err)
	}

	var fr feedResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("parsing gas feed response: %w", err)
	}
	if len(fr.BlockPrices) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("gas feed returned no block prices"))
	}

	for _, p := range fr.BlockPrices[0].EstimatedPrices {
		if p.Confidence == confidence {
			return &Suggestion{
				Confidence:           p.Confidence,
				MaxFeePerGas:         gweiToWei(p.MaxFeePerGas),
				MaxPriorityFeePerGas: gweiToWei(p.MaxPriorityFeePerGas),
			}, nil
		}
	}
	return nil, backoff.Permanent(fmt.Errorf("no %d%% confidence entry in gas feed", confidence))
}

// gweiToWei converts a gwei decimal to wei without losing sub-gwei digits.
func gweiToWei(gwei float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	wei, _ := f.Int(nil)
	return wei
}
