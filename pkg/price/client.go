package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/wallet-lens/pkg/config"
)

// TokenPrice is one entry in the price map. The price is kept as the
// provider's decimal string so callers choose their own arithmetic.
type TokenPrice struct {
	Price string `json:"price"`
}

// Client queries the Jupiter lite price API. It is deliberately incapable
// of failing: any transport, status or decode problem degrades to an empty
// map and valuations fall back to zero.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{baseURL: cfg.PriceAPIURL, client: &http.Client{Timeout: cfg.HTTPTimeout}}
}

// FetchTokenPrices returns current USD prices for the given mints. Input is
// deduplicated, obviously-bogus ids are dropped, and at most 99 ids go on
// the wire. The result may be partial; missing mints simply have no entry.
func (c *Client) FetchTokenPrices(ctx context.Context, mints []string) map[string]TokenPrice {
	result := map[string]TokenPrice{}

	seen := map[string]bool{}
	var ids []string
	for _, m := range mints {
		if len(m) <= 30 || seen[m] {
			continue
		}
		seen[m] = true
		ids = append(ids, m)
		if len(ids) >= 99 {
			break
		}
	}
	if len(ids) == 0 {
		return result
	}

	url := fmt.Sprintf("%s/price/v3?ids=%s", c.baseURL, strings.Join(ids, ","))
	body, err := c.getJSON(ctx, url)
	if err != nil {
		log.Warn().Err(err).Int("mints", len(ids)).Msg("price fetch failed")
		return result
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warn().Err(err).Msg("price decode failed")
		return result
	}

	// Some API versions wrap the map in a "data" property; unwrap if so.
	entries := payload
	if raw, ok := payload["data"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(raw, &inner) == nil && len(inner) > 0 {
			entries = inner
		}
	}

	for mint, raw := range entries {
		var entry map[string]interface{}
		if json.Unmarshal(raw, &entry) != nil {
			continue
		}
		// "price" (v2/v6, sometimes a string) or "usdPrice" (lite v3, a number).
		val := asPriceString(entry["price"])
		if val == "" {
			val = asPriceString(entry["usdPrice"])
		}
		if val != "" {
			result[mint] = TokenPrice{Price: val}
		}
	}

	return result
}

func asPriceString(v interface{}) string {
	switch p := v.(type) {
	case string:
		return p
	case float64:
		return strconv.FormatFloat(p, 'f', -1, 64)
	default:
		return ""
	}
}

// ParseUSD converts a price-map entry to a decimal, zero when absent or
// unparseable.
func ParseUSD(prices map[string]TokenPrice, mint string) decimal.Decimal {
	p, ok := prices[mint]
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// --- Native SOL price with short cache ---

var (
	solPriceCache     float64
	solPriceFetched   time.Time
	solPriceCacheLock sync.RWMutex
)

// NativeSOLPrice returns the current SOL/USD price, cached for 60 seconds
// to avoid hammering the API from the roast endpoint.
func (c *Client) NativeSOLPrice(ctx context.Context) float64 {
	solPriceCacheLock.RLock()
	if !solPriceFetched.IsZero() && time.Since(solPriceFetched) < 60*time.Second {
		defer solPriceCacheLock.RUnlock()
		return solPriceCache
	}
	solPriceCacheLock.RUnlock()

	prices := c.FetchTokenPrices(ctx, []string{config.SOLMint})
	v := ParseUSD(prices, config.SOLMint).InexactFloat64()
	if v > 0 {
		solPriceCacheLock.Lock()
		solPriceCache, solPriceFetched = v, time.Now()
		solPriceCacheLock.Unlock()
	}
	return v
}

func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
