package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wallet-lens/pkg/analyzer"
	"github.com/wallet-lens/pkg/config"
	"github.com/wallet-lens/pkg/helius"
	"github.com/wallet-lens/pkg/price"
)

// Provider is the asset/transaction source consumed by the handlers.
type Provider interface {
	FetchTransactions(ctx context.Context, address string, limit int) ([]helius.RawTransaction, error)
	FetchAssets(ctx context.Context, address string) (*helius.AssetsResult, error)
}

// PriceSource never fails; missing prices surface as absent map entries.
type PriceSource interface {
	FetchTokenPrices(ctx context.Context, mints []string) map[string]price.TokenPrice
	NativeSOLPrice(ctx context.Context) float64
}

type Roaster interface {
	Generate(ctx context.Context, assets *helius.AssetsResult, txs []helius.RawTransaction, solPrice float64) string
}

type Server struct {
	cfg      *config.Config
	provider Provider
	prices   PriceSource
	roaster  Roaster
}

func New(cfg *config.Config, provider Provider, prices PriceSource, roaster Roaster) *Server {
	return &Server{cfg: cfg, provider: provider, prices: prices, roaster: roaster}
}

// Handler builds the route table. Exposed separately from Run for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/wallet/", cors(s.handleWallet))
	mux.HandleFunc("/", s.handleRoot)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Solana Wallet Tracker API is running...")
}

// handleWallet dispatches /api/wallet/{address}/{action}.
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[2] == "" {
		writeJSONStatus(w, 400, map[string]string{"error": "Wallet address required"})
		return
	}
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}
	address := parts[2]

	switch parts[3] {
	case "analyze":
		s.handleAnalyze(w, r, address)
	case "risk":
		s.handleRisk(w, r, address)
	case "roast":
		s.handleRoast(w, r, address)
	default:
		http.NotFound(w, r)
	}
}

type analyzeResponse struct {
	Summary   analyzer.Summary          `json:"summary"`
	Platforms map[string]int            `json:"platforms"`
	Portfolio []analyzer.PortfolioEntry `json:"portfolio"`
	History   []analyzer.HistoryEntry   `json:"history"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()

	// Transactions and assets have no data dependency; fetch them in
	// parallel. Either failing fails the whole request.
	var (
		txs       []helius.RawTransaction
		assetsRes *helius.AssetsResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.provider.FetchTransactions(gctx, address, s.cfg.TxLimit)
		return err
	})
	g.Go(func() error {
		var err error
		assetsRes, err = s.provider.FetchAssets(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("address", address).Msg("analyze failed")
		writeJSONStatus(w, 500, map[string]string{
			"error":   "Failed to analyze wallet",
			"details": err.Error(),
		})
		return
	}

	norm := analyzer.Normalize(txs, address)

	// Prices need the held mints, so this fetch waits for assets. A price
	// failure is not a request failure; valuations degrade to zero.
	mints := analyzer.PricedMints(assetsRes.Items, assetsRes.NativeBalance)
	priceMap := s.prices.FetchTokenPrices(ctx, mints)

	portfolio, netWorth := analyzer.BuildPortfolio(assetsRes.Items, assetsRes.NativeBalance, priceMap, norm.TokenStats)
	summary := analyzer.BuildSummary(netWorth, norm.History, len(txs), norm.Platforms)

	writeJSON(w, analyzeResponse{
		Summary:   summary,
		Platforms: norm.Platforms,
		Portfolio: portfolio,
		History:   norm.History,
	})
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()

	assetsRes, err := s.provider.FetchAssets(ctx, address)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("risk assessment failed")
		writeJSONStatus(w, 500, map[string]string{"error": "Failed to analyze risk"})
		return
	}
	txs, err := s.provider.FetchTransactions(ctx, address, s.cfg.RiskTxLimit)
	if err != nil {
		log.Error().Err(err).Str("address", address).Msg("risk assessment failed")
		writeJSONStatus(w, 500, map[string]string{"error": "Failed to analyze risk"})
		return
	}

	writeJSON(w, analyzer.AssessRisk(assetsRes.Items, txs))
}

func (s *Server) handleRoast(w http.ResponseWriter, r *http.Request, address string) {
	ctx := r.Context()

	var (
		txs       []helius.RawTransaction
		assetsRes *helius.AssetsResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.provider.FetchTransactions(gctx, address, s.cfg.RiskTxLimit)
		return err
	})
	g.Go(func() error {
		var err error
		assetsRes, err = s.provider.FetchAssets(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("address", address).Msg("roast failed")
		writeJSONStatus(w, 500, map[string]string{"error": "Roast machine broken. You broke it."})
		return
	}

	solPrice := s.prices.NativeSOLPrice(ctx)
	roast := s.roaster.Generate(ctx, assetsRes, txs, solPrice)
	writeJSON(w, map[string]string{"roast": roast})
}

func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
