package roast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wallet-lens/pkg/config"
	"github.com/wallet-lens/pkg/helius"
)

// Engine wraps an LLM (Claude / OpenAI / local) to roast a wallet from its
// holdings and activity. Without a configured provider, or when the call
// fails, it falls back to heuristic phrasing so the endpoint never breaks.
type Engine struct {
	cfg    *config.Config
	client *http.Client

	provider   string // "anthropic", "openai", "ollama"
	apiKey     string
	model      string
	apiBaseURL string
}

func NewEngine(cfg *config.Config) *Engine {
	e := &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}

	provider := cfg.AIProvider
	if provider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		case cfg.OpenAIAPIKey != "":
			provider = "openai"
		case cfg.OllamaURL != "":
			provider = "ollama"
		}
	}

	switch provider {
	case "anthropic":
		e.provider = provider
		e.apiKey = cfg.AnthropicAPIKey
		e.model = modelOr(cfg.AIModel, "claude-sonnet-4-20250514")
		e.apiBaseURL = "https://api.anthropic.com/v1/messages"
	case "openai":
		e.provider = provider
		e.apiKey = cfg.OpenAIAPIKey
		e.model = modelOr(cfg.AIModel, "gpt-4o")
		e.apiBaseURL = "https://api.openai.com/v1/chat/completions"
	case "ollama":
		e.provider = provider
		e.model = modelOr(cfg.AIModel, cfg.OllamaModel)
		e.apiBaseURL = cfg.OllamaURL + "/api/chat"
	}

	if e.provider != "" {
		log.Info().Str("provider", e.provider).Str("model", e.model).Msg("roast engine initialized")
	} else {
		log.Warn().Msg("no AI provider configured - roasts fall back to heuristics")
	}

	return e
}

func (e *Engine) IsEnabled() bool {
	return e.provider != ""
}

// walletContext is the condensed picture of the wallet fed to the prompt.
type walletContext struct {
	netWorth      float64
	nativeBalance float64
	topTokens     string
	txCount       int
	recentTypes   string
	memecoinCount int
}

var memecoinPattern = regexp.MustCompile(`(dog|cat|pepe|wif|bonk|pump)`)

func buildContext(assets *helius.AssetsResult, txs []helius.RawTransaction, solPrice float64) walletContext {
	wc := walletContext{nativeBalance: assets.NativeBalance, txCount: len(txs)}

	tokenTotal := 0.0
	for i := range assets.Items {
		tokenTotal += assets.Items[i].TokenInfo.PriceInfo.TotalPrice
		if memecoinPattern.MatchString(strings.ToLower(assets.Items[i].Content.Metadata.Name)) {
			wc.memecoinCount++
		}
	}
	wc.netWorth = tokenTotal + assets.NativeBalance*solPrice

	var top []string
	for i := range assets.Items {
		if i >= 5 {
			break
		}
		name := assets.Items[i].Content.Metadata.Name
		if name == "" {
			name = "Unknown"
		}
		top = append(top, fmt.Sprintf("%s ($%.2f)", name, assets.Items[i].TokenInfo.PriceInfo.TotalPrice))
	}
	wc.topTokens = strings.Join(top, ", ")

	var types []string
	for i := range txs {
		if i >= 10 {
			break
		}
		types = append(types, txs[i].Type)
	}
	wc.recentTypes = strings.Join(types, ", ")

	return wc
}

// Generate produces a roast string. It never fails: LLM errors degrade to
// the heuristic fallback.
func (e *Engine) Generate(ctx context.Context, assets *helius.AssetsResult, txs []helius.RawTransaction, solPrice float64) string {
	wc := buildContext(assets, txs, solPrice)

	if e.IsEnabled() {
		prompt := fmt.Sprintf(`You are a rude, cynical, but funny crypto degen roasting a Solana wallet.
Stats:
- Net Worth: approx $%.2f (SOL Balance: %.2f SOL)
- Top Holdings: %s
- Recent Moves: %s (Total %d txs fetched)

Roast this user in 2 sentences max. Be brutal but entertaining. Focus on their bag (if it's trash) or their activity.`,
			wc.netWorth, wc.nativeBalance, wc.topTokens, wc.recentTypes, wc.txCount)

		text, err := e.callLLM(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		if err != nil {
			log.Warn().Err(err).Str("provider", e.provider).Msg("roast LLM call failed, using fallback")
		}
	}

	return fallbackRoast(wc)
}

// fallbackRoast is the keyless heuristic phrasing keyed on net-worth bands
// and memecoin exposure.
func fallbackRoast(wc walletContext) string {
	roast := "Let's look at this disaster..."

	switch {
	case wc.netWorth < 10:
		roast += " Your wallet has less value than a gas station sushi. Are you even trying? "
	case wc.netWorth < 100:
		roast += fmt.Sprintf(" $%.2f? Cute. Maybe spend less time on Twitter and more time working. ", wc.netWorth)
	case wc.netWorth > 100000:
		roast += " Oh look, a whale. Or just someone who got lucky on one mint and thinks they're Warren Buffet. "
	}

	if wc.memecoinCount > 5 {
		roast += " I detect a dangerous amount of dog coins. You know 'Utility' isn't a dirty word, right? "
	}

	return roast
}

// --- LLM call plumbing (Anthropic / OpenAI / Ollama) ---

func (e *Engine) callLLM(ctx context.Context, prompt string) (string, error) {
	switch e.provider {
	case "anthropic":
		return e.callAnthropic(ctx, prompt)
	case "openai":
		return e.callOpenAI(ctx, prompt)
	case "ollama":
		return e.callOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("no AI provider configured")
	}
}

func (e *Engine) callAnthropic(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": e.cfg.AIMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, "POST", e.apiBaseURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("anthropic API error %d", resp.StatusCode)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	json.Unmarshal(respBody, &result)

	if len(result.Content) > 0 {
		return result.Content[0].Text, nil
	}
	return "", fmt.Errorf("empty response from anthropic")
}

func (e *Engine) callOpenAI(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": e.cfg.AIMaxTokens,
	}

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, "POST", e.apiBaseURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("openai API error %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	json.Unmarshal(respBody, &result)

	if len(result.Choices) > 0 {
		return result.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("empty response from openai")
}

func (e *Engine) callOllama(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	body, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, "POST", e.apiBaseURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	json.Unmarshal(respBody, &result)
	return result.Message.Content, nil
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
