package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client queries the external price-cache service for batches of token
// prices. It is the fast path in front of any on-chain access and must never
// fail a resolution: every error degrades to an empty result.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Client for the service at baseURL. An empty baseURL
// disables the client; every fetch returns an empty map.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type coinEntry struct {
	Price interface{} `json:"price"`
}

type coinsResponse struct {
	Coins map[string]coinEntry `json:"coins"`
}

// FetchPrices issues one batched request for the given canonical addresses
// and returns whatever subset the service recognizes with a strictly
// positive, finite price. Addresses the service does not know, non-numeric
// prices, and any transport or decode failure all collapse to absence.
func (c *Client) FetchPrices(ctx context.Context, chainName string, addresses []string) map[string]float64 {
	prices := make(map[string]float64, len(addresses))
	if c.baseURL == "" || len(addresses) == 0 {
		return prices
	}

	keys := make([]string, 0, len(addresses))
	for _, address := range addresses {
		keys = append(keys, chainName+":"+address)
	}
	url := fmt.Sprintf("%s/prices/current/%s", c.baseURL, strings.Join(keys, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Warn("aggregator request build failed", zap.Error(err))
		return prices
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("aggregator unreachable", zap.Error(err))
		return prices
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("aggregator non-success response", zap.Int("status", resp.StatusCode))
		return prices
	}

	var decoded coinsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("aggregator response decode failed", zap.Error(err))
		return prices
	}

	for key, entry := range decoded.Coins {
		price, ok := priceValue(entry.Price)
		if !ok {
			continue
		}
		_, address, found := strings.Cut(key, ":")
		if !found {
			continue
		}
		prices[strings.ToLower(address)] = price
	}

	return prices
}

// priceValue accepts numeric and numeric-string price encodings, rejecting
// zero, negative, and non-finite values.
func priceValue(raw interface{}) (float64, bool) {
	var price float64
	switch v := raw.(type) {
	case float64:
		price = v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		price = parsed
	default:
		return 0, false
	}

	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, false
	}
	return price, true
}
