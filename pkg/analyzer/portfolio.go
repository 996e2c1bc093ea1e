package analyzer

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wallet-lens/pkg/config"
	"github.com/wallet-lens/pkg/helius"
	"github.com/wallet-lens/pkg/price"
)

// PortfolioEntry is one valued holding. Balance and ValueUsd are decimal
// units; TotalBought/TotalSold come from the transaction-window accumulators
// and are zero for holdings that predate the fetched window.
type PortfolioEntry struct {
	Mint        string  `json:"mint"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Image       string  `json:"image"`
	Balance     float64 `json:"balance"`
	PriceUsd    float64 `json:"priceUsd"`
	ValueUsd    float64 `json:"valueUsd"`
	TotalBought float64 `json:"totalBought"`
	TotalSold   float64 `json:"totalSold"`
}

type Summary struct {
	NetWorthUSD      string `json:"netWorthUSD"`
	TotalFeesSOL     string `json:"totalFeesSOL"`
	TotalTx          int    `json:"totalTx"`
	MostUsedPlatform string `json:"mostUsedPlatform"`
}

// PricedMints lists the mints worth pricing for a holdings snapshot: every
// positive-balance fungible holding, plus the SOL mint when the native
// balance is positive.
func PricedMints(assets []helius.RawAsset, nativeBalance float64) []string {
	var mints []string
	for i := range assets {
		if assets[i].IsFungible() && assets[i].TokenInfo.Balance > 0 {
			mints = append(mints, assets[i].ID)
		}
	}
	if nativeBalance > 0 {
		mints = append(mints, config.SOLMint)
	}
	return mints
}

// BuildPortfolio values the holdings snapshot against the price map and
// merges in per-mint flow stats. The native balance becomes a synthetic SOL
// entry. Entries are sorted by USD value descending, ties keeping encounter
// order; unpriced holdings stay in the list at value zero. Returns the
// entries and the exact net worth.
func BuildPortfolio(assets []helius.RawAsset, nativeBalance float64, prices map[string]price.TokenPrice, stats map[string]TokenStat) ([]PortfolioEntry, decimal.Decimal) {
	portfolio := make([]PortfolioEntry, 0, len(assets)+1)

	if nativeBalance > 0 {
		solPrice := price.ParseUSD(prices, config.SOLMint)
		portfolio = append(portfolio, PortfolioEntry{
			Mint:     config.SOLMint,
			Name:     "Solana",
			Symbol:   "SOL",
			Image:    config.SOLLogoURL,
			Balance:  nativeBalance,
			PriceUsd: solPrice.InexactFloat64(),
			ValueUsd: solPrice.Mul(decimal.NewFromFloat(nativeBalance)).InexactFloat64(),
		})
	}

	for i := range assets {
		a := &assets[i]
		if !a.IsFungible() || a.TokenInfo.Balance <= 0 {
			continue
		}

		balance := a.TokenInfo.Balance / math.Pow(10, float64(a.TokenInfo.Decimals))
		usd := price.ParseUSD(prices, a.ID)

		name := a.Content.Metadata.Name
		if name == "" {
			name = "Unknown"
		}
		symbol := a.Content.Metadata.Symbol
		if symbol == "" {
			symbol = "UNK"
		}

		stat := stats[a.ID]
		portfolio = append(portfolio, PortfolioEntry{
			Mint:        a.ID,
			Name:        name,
			Symbol:      symbol,
			Image:       a.Content.Links.Image,
			Balance:     balance,
			PriceUsd:    usd.InexactFloat64(),
			ValueUsd:    usd.Mul(decimal.NewFromFloat(balance)).InexactFloat64(),
			TotalBought: stat.Bought,
			TotalSold:   stat.Sold,
		})
	}

	sort.SliceStable(portfolio, func(i, j int) bool {
		return portfolio[i].ValueUsd > portfolio[j].ValueUsd
	})

	netWorth := decimal.Zero
	for i := range portfolio {
		netWorth = netWorth.Add(decimal.NewFromFloat(portfolio[i].ValueUsd))
	}
	return portfolio, netWorth
}

// BuildSummary aggregates the headline figures for an analysis response.
// totalTx counts the raw fetched transactions, not a filtered subset.
func BuildSummary(netWorth decimal.Decimal, history []HistoryEntry, totalTx int, platforms map[string]int) Summary {
	totalFees := decimal.Zero
	for i := range history {
		totalFees = totalFees.Add(decimal.NewFromFloat(history[i].Fee))
	}

	// Ties break lexicographically so map iteration order cannot flip the
	// answer between runs.
	mostUsed := "None"
	best := 0
	for name, count := range platforms {
		if count > best || (count == best && best > 0 && name < mostUsed) {
			mostUsed, best = name, count
		}
	}

	return Summary{
		NetWorthUSD:      netWorth.StringFixed(2),
		TotalFeesSOL:     totalFees.StringFixed(4),
		TotalTx:          totalTx,
		MostUsedPlatform: mostUsed,
	}
}
