package main

import (
	"context"
	"fmt"
	"os"

	"spica/internal/assistant"
	"spica/internal/auth"
	"spica/internal/cache"
	"spica/internal/client"
	"spica/internal/config"
	"spica/internal/orchestrator"
	"spica/internal/secrets"
	"spica/internal/shell"
	"spica/internal/txn"
	"spica/internal/wallet"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "spica",
		Short:        "Interactive Solana wallet shell with an assistant sidekick",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	passphrase, err := cfg.ResolvePassphrase()
	if err != nil {
		return err
	}
	store := secrets.New(passphrase)
	clear(passphrase)
	defer store.Close()

	keystore, err := wallet.NewKeystore(cfg.WalletDir)
	if err != nil {
		return err
	}
	registry := wallet.NewRegistry(store, keystore, log)
	if err := registry.LoadPersisted(); err != nil {
		return err
	}
	if names := registry.Names(); len(names) > 0 {
		log.Info("loaded persisted wallets", zap.Strings("wallets", names))
	}

	solanaClient := client.NewSolanaClient(cfg.SolanaRPCURL, log)
	priceClient := client.NewPriceClient(cfg.PriceFeedURL)
	builder := txn.NewBuilder(solanaClient, registry)

	authorizer, generated, err := auth.NewAuthorizer(cfg.TOTPSecret, log)
	if err != nil {
		return err
	}
	if generated != "" {
		fmt.Fprintf(os.Stderr, "New 2FA secret (enroll in your authenticator, set SPICA_TOTP_SECRET to reuse):\n  %s\n", generated)
	}

	orch := orchestrator.New(registry, builder, authorizer, solanaClient, priceClient, log)

	responseCache := cache.Open(cfg.CacheFile, log)

	var assist *assistant.Service
	if cfg.GenAIAPIKey != "" {
		backend, err := assistant.NewGenAIBackend(ctx, cfg.GenAIAPIKey, "")
		if err != nil {
			return err
		}
		assist = assistant.NewService(responseCache, backend, log)
	} else {
		log.Info("GENAI_API_KEY not set, assistant disabled")
	}

	transcript := shell.NewTranscript(cfg.TranscriptFile)
	sh := shell.New(orch, assist, transcript, os.Stdin, os.Stdout, log)
	return sh.Run(ctx)
}

func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.OutputPaths = []string{"spica.log"}
	zcfg.ErrorOutputPaths = []string{"spica.log"}
	return zcfg.Build()
}
