package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/bilardeando/internal/app"
	"github.com/riskibarqy/bilardeando/internal/config"
	"github.com/riskibarqy/bilardeando/internal/observability"
	"github.com/riskibarqy/bilardeando/internal/usecase"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scheduler",
		Short:        "Run bilardeando background jobs once",
		SilenceUsage: true,
	}
	root.AddCommand(newLeagueLockCmd())
	return root
}

func newLeagueLockCmd() *cobra.Command {
	var (
		matchdayID int64
		leagueID   string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "league-lock",
		Short: "Activate or cancel open private leagues whose start matchday has locked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if matchdayID < 0 {
				return fmt.Errorf("--matchday must be >= 0")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			telemetry, err := observability.Setup(cfg, observability.Options{Tracing: true})
			if err != nil {
				return err
			}
			logger := telemetry.Logger
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx); err != nil {
					fmt.Fprintf(os.Stderr, "shutdown telemetry: %v\n", err)
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			services, err := app.NewServices(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("build services: %w", err)
			}
			defer func() {
				if err := services.Close(); err != nil {
					logger.Warn("close services", "error", err)
				}
			}()

			result, err := services.LeagueLock.RunLockCheck(ctx, usecase.LockCheckInput{
				MatchdayID: matchdayID,
				LeagueID:   leagueID,
			})
			if err != nil {
				return err
			}

			out, err := sonic.ConfigStd.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().Int64Var(&matchdayID, "matchday", 0, "only leagues starting on this matchday (0 = every open league)")
	cmd.Flags().StringVar(&leagueID, "league", "", "check a single league id")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall run timeout")
	return cmd
}
