package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spica/internal/model"
)

// symbol → CoinGecko asset id
var coinIDs = map[string]string{
	"SOL":  "solana",
	"USDC": "usd-coin",
}

// PriceClient fetches fiat prices from CoinGecko.
type PriceClient struct {
	baseURL string
	client  *http.Client
}

// NewPriceClient creates a new price feed client.
func NewPriceClient(baseURL string) *PriceClient {
	return &PriceClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Price returns the USD price of symbol as a decimal string.
func (c *PriceClient) Price(ctx context.Context, symbol string) (string, error) {
	id, ok := coinIDs[strings.ToUpper(symbol)]
	if !ok {
		return "", model.NewValidationError("unknown price symbol %q", symbol)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &model.TransientNetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &model.RemoteRejectionError{Err: fmt.Errorf("price feed returned status %d", resp.StatusCode)}
	}

	var priceResp map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&priceResp); err != nil {
		return "", &model.RemoteRejectionError{Err: fmt.Errorf("failed to decode price: %w", err)}
	}

	entry, ok := priceResp[id]
	if !ok {
		return "", &model.RemoteRejectionError{Err: fmt.Errorf("price feed response missing %q", id)}
	}
	return strconv.FormatFloat(entry.USD, 'f', 2, 64), nil
}
