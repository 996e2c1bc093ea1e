package analyzer

import (
	"time"

	"github.com/wallet-lens/pkg/config"
	"github.com/wallet-lens/pkg/helius"
)

// HistoryEntry is a display-ready transaction derived once from the raw feed.
type HistoryEntry struct {
	Signature       string                  `json:"signature"`
	Date            string                  `json:"date"`
	Timestamp       int64                   `json:"timestamp"`
	Type            string                  `json:"type"`
	Source          string                  `json:"source"`
	Fee             float64                 `json:"fee"` // SOL
	Description     string                  `json:"description"`
	TokenTransfers  []helius.TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers []helius.NativeTransfer `json:"nativeTransfers"`
}

// TokenStat accumulates one-directional flows per mint. Bought and Sold only
// grow; Balance is the signed net of in minus out over the fetched window.
type TokenStat struct {
	Bought  float64 `json:"bought"`
	Sold    float64 `json:"sold"`
	Balance float64 `json:"balance"`
}

type NormalizeResult struct {
	History    []HistoryEntry
	Platforms  map[string]int
	TokenStats map[string]TokenStat
}

const dateLayout = "1/2/2006, 3:04:05 PM"

// Normalize turns the raw provider feed for owner into display history, a
// platform-usage histogram and per-mint flow accumulators. Pure function;
// deterministic given input order.
func Normalize(txs []helius.RawTransaction, owner string) NormalizeResult {
	res := NormalizeResult{
		History:    make([]HistoryEntry, 0, len(txs)),
		Platforms:  map[string]int{},
		TokenStats: map[string]TokenStat{},
	}

	for _, tx := range txs {
		source := resolvePlatform(&tx)
		res.Platforms[source]++

		for _, t := range tx.TokenTransfers {
			stat := res.TokenStats[t.Mint]
			if t.ToUserAccount == owner {
				stat.Bought += t.TokenAmount
				stat.Balance += t.TokenAmount
			}
			if t.FromUserAccount == owner {
				stat.Sold += t.TokenAmount
				stat.Balance -= t.TokenAmount
			}
			res.TokenStats[t.Mint] = stat
		}

		res.History = append(res.History, HistoryEntry{
			Signature:       tx.Signature,
			Date:            time.Unix(tx.Timestamp, 0).Format(dateLayout),
			Timestamp:       tx.Timestamp,
			Type:            resolveType(&tx, owner),
			Source:          source,
			Fee:             float64(tx.Fee) / 1e9,
			Description:     tx.Description,
			TokenTransfers:  tx.TokenTransfers,
			NativeTransfers: tx.NativeTransfers,
		})
	}

	return res
}

// resolvePlatform starts from the provider's source tag, falls back to the
// program-address table when the tag is unresolved, and collapses naming
// variants to one canonical name.
func resolvePlatform(tx *helius.RawTransaction) string {
	source := tx.Source
	if source == config.SourceMintUnrecognized || source == config.SourceUnknown {
		for _, acc := range tx.AccountData {
			if name, ok := config.PlatformPrograms[acc.Account]; ok {
				source = name
				break
			}
		}
	}
	return config.CanonicalPlatform(source)
}

// resolveType remaps TRANSFER to SEND/RECEIVE from the owner's point of view
// (one outbound native transfer is enough to classify as SEND) and lets an
// NFT event override everything else.
func resolveType(tx *helius.RawTransaction, owner string) string {
	typ := tx.Type
	if typ == "TRANSFER" {
		typ = "RECEIVE"
		for _, nt := range tx.NativeTransfers {
			if nt.FromUserAccount == owner {
				typ = "SEND"
				break
			}
		}
	}
	if tx.HasNFTEvent() {
		typ = "NFT_EVENT"
	}
	return typ
}
