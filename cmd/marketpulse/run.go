package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketpulse/internal/app"
	"github.com/ternarybob/marketpulse/internal/models"
)

var runCmd = &cobra.Command{
	Use:       "run [news|market|options]",
	Short:     "Run one ingestion cycle and exit",
	Long:      `Runs a single ingestion cycle for the given domain, records it in the run ledger and exits non-zero when the run fails.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(models.DomainNews), string(models.DomainMarket), string(models.DomainOptions)},
	RunE:      runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	domain, ok := models.ParseDomain(args[0])
	if !ok {
		return fmt.Errorf("unknown domain %q", args[0])
	}

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := application.Run(ctx, domain)
	if run != nil {
		fmt.Printf("%s run %s: %s (requested %d, failed %d, stored %d)\n",
			run.Domain, run.ID, run.Status, run.Requested, run.Failed, run.Stored)
	}
	return err
}
