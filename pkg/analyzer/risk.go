package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wallet-lens/pkg/helius"
)

type BehaviorTag string

const (
	TagHighFrequency BehaviorTag = "High Frequency"
	TagBotLikely     BehaviorTag = "Bot Likely"
	TagTrader        BehaviorTag = "Trader"
	TagCollector     BehaviorTag = "Collector"
)

const (
	RiskLevelHigh   = "High"
	RiskLevelMedium = "Medium"
	RiskLevelLow    = "Low"
)

type RiskyToken struct {
	Mint    string   `json:"mint"`
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Reasons []string `json:"reasons"`
}

type RiskAssessment struct {
	RiskScore    int           `json:"riskScore"`
	RiskLevel    string        `json:"riskLevel"`
	BehaviorTags []BehaviorTag `json:"behaviorTags"`
	Flags        []string      `json:"flags"`
	RiskyTokens  []RiskyToken  `json:"riskyTokens"`
}

// Name/symbol substrings associated with solicitation-pattern spam tokens.
var spamKeywords = []string{"visit", ".com", "claim", "reward"}

const spamReason = "Likely spam/phishing token (URL or 'Claim' in name)"

const riskyTokenReportCap = 5

// AssessRisk scores a wallet from its raw holdings and transaction feed.
// The score starts at 100 and is only decremented, then clamped to [0, 100].
// Deductions are independent; behavior tags carry no score effect.
func AssessRisk(assets []helius.RawAsset, txs []helius.RawTransaction) RiskAssessment {
	score := 100
	flags := []string{}
	tags := []BehaviorTag{}
	risky := []RiskyToken{}

	// Spam / phishing holdings. The deduction is per match and uncapped: a
	// wallet drowning in spam tokens bottoms out at zero after clamping.
	spamCount := 0
	for i := range assets {
		a := &assets[i]
		name := strings.ToLower(a.Content.Metadata.Name)
		symbol := strings.ToLower(a.Content.Metadata.Symbol)
		for _, kw := range spamKeywords {
			if !strings.Contains(name, kw) && !strings.Contains(symbol, kw) {
				continue
			}
			spamCount++
			if spamCount <= riskyTokenReportCap {
				displayName := a.Content.Metadata.Name
				if displayName == "" {
					displayName = "Unknown"
				}
				risky = append(risky, RiskyToken{
					Mint:    a.ID,
					Name:    displayName,
					Image:   a.Content.Links.Image,
					Reasons: []string{spamReason},
				})
			}
			break
		}
	}
	if spamCount > 0 {
		score -= spamCount * 5
		flags = append(flags, fmt.Sprintf("Held %d potential spam/phishing tokens", spamCount))
	}

	// Frequency heuristic over the mean gap between adjacent transactions.
	// Timestamps are sorted newest-first before computing deltas so an
	// unsorted upstream feed cannot produce meaningless averages.
	if len(txs) > 10 {
		stamps := make([]int64, len(txs))
		for i := range txs {
			stamps[i] = txs[i].Timestamp
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i] > stamps[j] })

		var total int64
		for i := 0; i < len(stamps)-1; i++ {
			d := stamps[i] - stamps[i+1]
			if d < 0 {
				d = -d
			}
			total += d
		}
		mean := float64(total) / float64(len(stamps)-1)

		if mean < 30 {
			score -= 20
			flags = append(flags, "High Frequency Activity (Avg < 30s between txs)")
			tags = append(tags, TagHighFrequency)
			if mean < 10 {
				tags = append(tags, TagBotLikely)
			}
		}
	}

	// Behavioral classification, no score effect.
	swapCount := 0
	for i := range txs {
		if txs[i].Type == "SWAP" {
			swapCount++
		}
	}
	if swapCount*2 > len(txs) && len(txs) > 0 {
		tags = append(tags, TagTrader)
	}
	if len(assets) > 50 {
		tags = append(tags, TagCollector)
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	level := RiskLevelLow
	if score < 50 {
		level = RiskLevelHigh
	} else if score < 80 {
		level = RiskLevelMedium
	}

	return RiskAssessment{
		RiskScore:    score,
		RiskLevel:    level,
		BehaviorTags: tags,
		Flags:        flags,
		RiskyTokens:  risky,
	}
}
