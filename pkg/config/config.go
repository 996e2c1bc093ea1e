package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Helius (transactions + assets)
	HeliusAPIKey string
	HeliusAPIURL string
	HeliusRPCURL string

	// Price API (Jupiter lite)
	PriceAPIURL string

	// Fetch limits
	TxLimit     int // analyze endpoint
	RiskTxLimit int // risk + roast endpoints

	// Transport
	HTTPTimeout time.Duration

	// HTTP server
	Port int

	// AI / LLM (roast generation)
	// AI_PROVIDER: "anthropic" | "openai" | "ollama" (explicit selection)
	// If not set, auto-detects from available API keys
	AIProvider      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaURL       string
	OllamaModel     string
	AIModel         string
	AIMaxTokens     int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HeliusAPIKey: os.Getenv("HELIUS_API_KEY"),
		HeliusAPIURL: envOr("HELIUS_API_URL", "https://api.helius.xyz"),
		HeliusRPCURL: os.Getenv("HELIUS_RPC_URL"),
		PriceAPIURL:  envOr("PRICE_API_URL", "https://lite-api.jup.ag"),

		TxLimit:     envInt("TX_LIMIT", 100),
		RiskTxLimit: envInt("RISK_TX_LIMIT", 50),

		HTTPTimeout: time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		Port:        envInt("PORT", 5000),

		AIProvider:      os.Getenv("AI_PROVIDER"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OllamaURL:       envOr("OLLAMA_URL", ""),
		OllamaModel:     envOr("OLLAMA_MODEL", "llama3.1"),
		AIModel:         envOr("AI_MODEL", ""),
		AIMaxTokens:     envInt("AI_MAX_TOKENS", 1024),
	}

	if cfg.HeliusRPCURL == "" && cfg.HeliusAPIKey != "" {
		cfg.HeliusRPCURL = fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", cfg.HeliusAPIKey)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HeliusAPIKey == "" {
		return fmt.Errorf("HELIUS_API_KEY is required")
	}
	return nil
}

// --- Known addresses ---

// SOLMint is the wrapped-SOL mint used to price the native balance.
const SOLMint = "So11111111111111111111111111111111111111112"

const SOLLogoURL = "https://raw.githubusercontent.com/solana-labs/token-list/main/assets/mainnet/So11111111111111111111111111111111111111112/logo.png"

// Provider source tags that mean the platform could not be attributed.
const (
	SourceMintUnrecognized = "mMint"
	SourceUnknown          = "UNKNOWN"
)

// PlatformPrograms maps on-chain program addresses to display platform names.
// Consulted only when the provider's own source tag is unresolved.
var PlatformPrograms = map[string]string{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  "Jupiter",
	"JupTRTTgyqKPceQAy9fTRbh5JV571utBWmwFIG7s7P5":  "Jupiter Limit Order",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium",
	"5quBtoiQqxF9Jv6KYKctB59NT3gtJD2Y65kdnB1Uev3h": "Raydium V3",
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWq":  "Raydium CLMM",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "Orca",
	"PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqG25nD6vRKQcnD":  "Phoenix",
	"M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K":  "Magic Eden",
	"TCMPhJdwDryooaGtiocG1uEfpHJXT7NsJy33PKgLM70":  "Tensor",
	"p1exdMJcjVao65QdewkaZRUnU6VPSXndy24EFnnfMgi":  "Metaplex",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "Pump.fun",
}

// CanonicalPlatform collapses provider naming variants of the same platform
// family into one display name so the usage histogram doesn't fragment.
func CanonicalPlatform(source string) string {
	switch source {
	case "PUMP_AMM", "PUMP", "Pump":
		return "Pump.fun"
	case "JUPITER":
		return "Jupiter"
	case "RAYDIUM":
		return "Raydium"
	case "ORCA":
		return "Orca"
	}
	return source
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
