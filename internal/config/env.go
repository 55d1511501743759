package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
// The keystore passphrase is not part of the environment by default; it is
// prompted at startup, see ResolvePassphrase.
type Config struct {
	SolanaRPCURL   string `envconfig:"SOLANA_RPC_URL" default:"https://api.mainnet-beta.solana.com"`
	GenAIAPIKey    string `envconfig:"GENAI_API_KEY"`
	TOTPSecret     string `envconfig:"SPICA_TOTP_SECRET"`
	Passphrase     string `envconfig:"SPICA_PASSPHRASE"`
	CacheFile      string `envconfig:"SPICA_CACHE_FILE" default:"response_cache.json"`
	WalletDir      string `envconfig:"SPICA_WALLET_DIR" default:"wallets"`
	TranscriptFile string `envconfig:"SPICA_TRANSCRIPT_FILE" default:"conversation_log.txt"`
	PriceFeedURL   string `envconfig:"PRICE_FEED_URL" default:"https://api.coingecko.com/api/v3"`
}

// Load reads .env (if present) and the process environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return cfg, nil
}

// ResolvePassphrase returns the keystore passphrase as bytes. When
// SPICA_PASSPHRASE is set it is used directly; otherwise the operator is
// prompted in the terminal with echo disabled.
// Caller must zero the returned slice after handing it to the secret store.
func (c *Config) ResolvePassphrase() ([]byte, error) {
	if c.Passphrase != "" {
		return []byte(c.Passphrase), nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: set SPICA_PASSPHRASE or run interactively")
	}
	fmt.Fprint(os.Stderr, "Enter keystore passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}

	out := make([]byte, len(raw))
	copy(out, raw)
	clear(raw)
	return out, nil
}

// PromptSecret reads one masked line from the terminal, used when wallet
// secret material is not passed on the command line.
func PromptSecret(label string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return raw, nil
}
