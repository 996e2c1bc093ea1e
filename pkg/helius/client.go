package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/wallet-lens/pkg/config"
)

// Fetch errors returned to callers. The underlying transport detail is
// logged here and never surfaced past the client, so API keys embedded in
// request URLs cannot leak into responses.
var (
	ErrFetchTransactions = errors.New("failed to fetch transactions from Helius")
	ErrFetchAssets       = errors.New("failed to fetch assets from Helius")
)

// Client talks to the Helius enhanced transactions API and the DAS RPC.
type Client struct {
	cfg    *config.Config
	client *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout}}
}

// FetchTransactions returns up to limit recent transactions for the address,
// newest first, exactly as the provider parsed them.
func (c *Client) FetchTransactions(ctx context.Context, address string, limit int) ([]RawTransaction, error) {
	url := fmt.Sprintf("%s/v0/addresses/%s/transactions?api-key=%s&limit=%d",
		c.cfg.HeliusAPIURL, address, c.cfg.HeliusAPIKey, limit)

	body, err := c.getJSON(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("address", abbrev(address)).Msg("transaction fetch failed")
		return nil, ErrFetchTransactions
	}

	var txs []RawTransaction
	if err := json.Unmarshal(body, &txs); err != nil {
		log.Error().Err(err).Str("address", abbrev(address)).Msg("transaction decode failed")
		return nil, ErrFetchTransactions
	}

	log.Debug().Str("address", abbrev(address)).Int("txs", len(txs)).Msg("fetched transactions")
	return txs, nil
}

// FetchAssets returns the owner's token holdings and native SOL balance via
// the getAssetsByOwner DAS method.
func (c *Client) FetchAssets(ctx context.Context, address string) (*AssetsResult, error) {
	reqBody, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "get-assets",
		"method":  "getAssetsByOwner",
		"params": map[string]interface{}{
			"ownerAddress": address,
			"page":         1,
			"limit":        100,
			"displayOptions": map[string]bool{
				"showFungible":      true,
				"showNativeBalance": true,
			},
		},
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.HeliusRPCURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, ErrFetchAssets
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("address", abbrev(address)).Msg("asset fetch failed")
		return nil, ErrFetchAssets
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil || resp.StatusCode != 200 {
		log.Error().Err(err).Int("status", resp.StatusCode).Str("address", abbrev(address)).Msg("asset fetch failed")
		return nil, ErrFetchAssets
	}

	var rpcResp struct {
		Result struct {
			Items         []RawAsset `json:"items"`
			NativeBalance struct {
				Lamports float64 `json:"lamports"`
			} `json:"nativeBalance"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		log.Error().Err(err).Str("address", abbrev(address)).Msg("asset decode failed")
		return nil, ErrFetchAssets
	}
	if rpcResp.Error != nil {
		log.Error().Int("code", rpcResp.Error.Code).Str("message", rpcResp.Error.Message).
			Str("address", abbrev(address)).Msg("asset fetch failed")
		return nil, ErrFetchAssets
	}

	result := &AssetsResult{
		Items:         rpcResp.Result.Items,
		NativeBalance: rpcResp.Result.NativeBalance.Lamports / 1e9,
	}
	log.Debug().Str("address", abbrev(address)).Int("items", len(result.Items)).
		Float64("sol", result.NativeBalance).Msg("fetched assets")
	return result, nil
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
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB max
}

func abbrev(addr string) string {
	if len(addr) > 12 {
		return addr[:6] + "..." + addr[len(addr)-4:]
	}
	return addr
}
