package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallet-lens/pkg/analyzer"
	"github.com/wallet-lens/pkg/config"
	"github.com/wallet-lens/pkg/helius"
	"github.com/wallet-lens/pkg/price"
)

type stubProvider struct {
	txs      []helius.RawTransaction
	assets   *helius.AssetsResult
	txErr    error
	assetErr error

	lastTxLimit int
}

func (s *stubProvider) FetchTransactions(ctx context.Context, address string, limit int) ([]helius.RawTransaction, error) {
	s.lastTxLimit = limit
	return s.txs, s.txErr
}

func (s *stubProvider) FetchAssets(ctx context.Context, address string) (*helius.AssetsResult, error) {
	return s.assets, s.assetErr
}

type stubPrices struct {
	prices   map[string]price.TokenPrice
	solPrice float64
}

func (s *stubPrices) FetchTokenPrices(ctx context.Context, mints []string) map[string]price.TokenPrice {
	if s.prices == nil {
		return map[string]price.TokenPrice{}
	}
	return s.prices
}

func (s *stubPrices) NativeSOLPrice(ctx context.Context) float64 { return s.solPrice }

type stubRoaster struct{ text string }

func (s *stubRoaster) Generate(ctx context.Context, assets *helius.AssetsResult, txs []helius.RawTransaction, solPrice float64) string {
	return s.text
}

func testServer(provider *stubProvider, prices *stubPrices, roaster *stubRoaster) *Server {
	cfg := &config.Config{TxLimit: 100, RiskTxLimit: 50, Port: 5000}
	if prices == nil {
		prices = &stubPrices{}
	}
	if roaster == nil {
		roaster = &stubRoaster{text: "toast"}
	}
	return New(cfg, provider, prices, roaster)
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEmptyWallet(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/analyze")

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Summary   analyzer.Summary          `json:"summary"`
		Platforms map[string]int            `json:"platforms"`
		Portfolio []analyzer.PortfolioEntry `json:"portfolio"`
		History   []analyzer.HistoryEntry   `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "0.00", resp.Summary.NetWorthUSD)
	assert.Equal(t, "0.0000", resp.Summary.TotalFeesSOL)
	assert.Equal(t, 0, resp.Summary.TotalTx)
	assert.Equal(t, "None", resp.Summary.MostUsedPlatform)
	assert.Empty(t, resp.Portfolio)
	assert.Empty(t, resp.History)

	// Empty collections serialize as [], not null.
	assert.Contains(t, rec.Body.String(), `"portfolio":[]`)
	assert.Contains(t, rec.Body.String(), `"history":[]`)

	assert.Equal(t, 100, provider.lastTxLimit)
}

func TestAnalyzeValuedWallet(t *testing.T) {
	var bonk helius.RawAsset
	bonk.ID = "BonkMint1111111111111111111111111111111111"
	bonk.Interface = "FungibleToken"
	bonk.Content.Metadata.Name = "Bonk"
	bonk.Content.Metadata.Symbol = "BONK"
	bonk.TokenInfo.Balance = 2_000_000 // 20 units at 5 decimals
	bonk.TokenInfo.Decimals = 5

	provider := &stubProvider{
		txs: []helius.RawTransaction{
			{Signature: "s1", Timestamp: 1719842400, Fee: 5000, Type: "SWAP", Source: "JUPITER"},
		},
		assets: &helius.AssetsResult{Items: []helius.RawAsset{bonk}, NativeBalance: 2.5},
	}
	prices := &stubPrices{prices: map[string]price.TokenPrice{
		config.SOLMint: {Price: "100"},
		bonk.ID:        {Price: "0.5"},
	}}
	s := testServer(provider, prices, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/analyze")

	require.Equal(t, 200, rec.Code)
	var resp struct {
		Summary   analyzer.Summary          `json:"summary"`
		Platforms map[string]int            `json:"platforms"`
		Portfolio []analyzer.PortfolioEntry `json:"portfolio"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// 2.5 SOL * $100 + 20 BONK * $0.50
	assert.Equal(t, "260.00", resp.Summary.NetWorthUSD)
	assert.Equal(t, 1, resp.Summary.TotalTx)
	assert.Equal(t, "Jupiter", resp.Summary.MostUsedPlatform)
	assert.Equal(t, 1, resp.Platforms["Jupiter"])

	require.Len(t, resp.Portfolio, 2)
	assert.Equal(t, config.SOLMint, resp.Portfolio[0].Mint)
	assert.Equal(t, "Bonk", resp.Portfolio[1].Name)
	assert.InDelta(t, 10, resp.Portfolio[1].ValueUsd, 1e-9)
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}, txErr: helius.ErrFetchTransactions}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/analyze")

	require.Equal(t, 500, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to analyze wallet", resp["error"])
	assert.Equal(t, helius.ErrFetchTransactions.Error(), resp["details"])
}

func TestRiskEndpoint(t *testing.T) {
	var spam helius.RawAsset
	spam.ID = "SpamMint"
	spam.Interface = "FungibleToken"
	spam.Content.Metadata.Name = "Claim Your Reward"

	provider := &stubProvider{assets: &helius.AssetsResult{Items: []helius.RawAsset{spam}}}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/risk")

	require.Equal(t, 200, rec.Code)
	var resp analyzer.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 95, resp.RiskScore)
	assert.Equal(t, "Low", resp.RiskLevel)
	require.Len(t, resp.RiskyTokens, 1)
	assert.Equal(t, "SpamMint", resp.RiskyTokens[0].Mint)

	assert.Equal(t, 50, provider.lastTxLimit)

	// Null-free envelope even with nothing to report.
	assert.Contains(t, rec.Body.String(), `"behaviorTags":[]`)
}

func TestRiskEndpointFailure(t *testing.T) {
	provider := &stubProvider{assetErr: helius.ErrFetchAssets}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/risk")

	require.Equal(t, 500, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to analyze risk", resp["error"])
	assert.NotContains(t, resp, "details")
}

func TestRoastEndpoint(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}}
	s := testServer(provider, &stubPrices{solPrice: 150}, &stubRoaster{text: "sizzle"})

	rec := do(t, s, "GET", "/api/wallet/abc/roast")

	require.Equal(t, 200, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sizzle", resp["roast"])
}

func TestRoastEndpointFailure(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}, txErr: helius.ErrFetchTransactions}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "GET", "/api/wallet/abc/roast")

	require.Equal(t, 500, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Roast machine broken. You broke it.", resp["error"])
}

func TestRouting(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}}
	s := testServer(provider, nil, nil)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"missing address", "/api/wallet/", 400},
		{"empty address segment", "/api/wallet//analyze", 400},
		{"unknown action", "/api/wallet/abc/teleport", 404},
		{"no action", "/api/wallet/abc", 404},
		{"root banner", "/", 200},
		{"unknown root path", "/nope", 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "GET", tt.path)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	provider := &stubProvider{assets: &helius.AssetsResult{}}
	s := testServer(provider, nil, nil)

	rec := do(t, s, "OPTIONS", "/api/wallet/abc/analyze")
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, s, "GET", "/api/wallet/abc/analyze")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
