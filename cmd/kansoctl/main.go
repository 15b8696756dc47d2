// Command kansoctl inspects and resets rate limit ledgers and hashes
// passwords for manual account fixes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/app/domain/credentials"
	"github.com/FACorreiaa/kanso/internal/app/governance"
	database "github.com/FACorreiaa/kanso/internal/db"
	"github.com/FACorreiaa/kanso/internal/pkg/config"
	"github.com/FACorreiaa/kanso/internal/pkg/ledger"
)

var debug bool

func main() {
	_ = godotenv.Load()
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "kansoctl",
		Short:         "Operator tools for the kanso service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newLedgerCmd())
	rootCmd.AddCommand(newHashPasswordCmd())
	return rootCmd
}

func newLogger() *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newLedgerCmd() *cobra.Command {
	var purpose string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset a rate limit ledger",
	}
	cmd.PersistentFlags().StringVarP(&purpose, "purpose", "p", string(governance.PurposeAI), "Ledger purpose (ai or auth)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the ledger and the current quota state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLimiter(cmd.Context(), purpose, func(rl *governance.RateLimiter) error {
				return printLedger(cmd.OutOrStdout(), rl)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear the ledger so the quota is fully available",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLimiter(cmd.Context(), purpose, func(rl *governance.RateLimiter) error {
				rl.Reset(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "ledger %s reset\n", rl.Purpose())
				return nil
			})
		},
	})
	return cmd
}

// withLimiter opens the configured ledger store and hands fn the limiter
// for purpose.
func withLimiter(ctx context.Context, purpose string, fn func(*governance.RateLimiter) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var pool ledger.Pool
	if cfg.Ledger.Driver == "postgres" {
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return err
		}
		pgpool, err := database.Init(dbConfig.ConnectionURL, cfg.Repositories.Postgres, logger)
		if err != nil {
			return err
		}
		defer pgpool.Close()
		pool = pgpool
	}

	store, err := ledger.Open(ctx, cfg.Ledger, pool, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	governor := governance.NewGovernor(ctx, cfg.RateLimit, store, logger)
	rl, err := governor.Limiter(governance.Purpose(purpose))
	if err != nil {
		return err
	}
	return fn(rl)
}

func printLedger(w io.Writer, rl *governance.RateLimiter) error {
	timestamps := rl.Snapshot()
	fmt.Fprintf(w, "purpose:   %s\n", rl.Purpose())
	fmt.Fprintf(w, "limit:     %d per %s\n", rl.Limit(), rl.Window())
	fmt.Fprintf(w, "entries:   %d\n", len(timestamps))
	fmt.Fprintf(w, "resets in: %ds\n", rl.TimeToReset())
	for _, ts := range timestamps {
		fmt.Fprintf(w, "  %s\n", time.UnixMilli(ts).UTC().Format(time.RFC3339))
	}
	return nil
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a digest and salt for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, salt, err := credentials.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "digest: %s\nsalt:   %s\n", digest, salt)
			return nil
		},
	}
}
