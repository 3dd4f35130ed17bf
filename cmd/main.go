package main

//
//  @title           fiscalpulse API
//  @version         1.0
//  @description     Fiscal-register archive reports: per-day and per-period turnover with VAT by tax group.
//  @termsOfService  https://github.com/guttosm/fiscalpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/fiscalpulse
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        reports
//  @tag.description Build reports from archives and query stored period summaries
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

// main is the entry point of the fiscalpulse application.
//
// Commands:
//   - report:  Builds a report document from one archive.
//   - ingest:  Stores every archive of a directory in Postgres.
//   - api:     Starts the REST API.
//   - migrate: Applies or rolls back the database schema.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.L().Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fiscalpulse",
		Short: "Turnover and VAT reports from fiscal-register export archives",
		Long: `fiscalpulse reads zip archives of fiscal-register exports, apportions every
sale and return to its tax groups and reports day and period totals.

Examples:
  fiscalpulse report exports/2024-01.zip -o january.xlsx
  fiscalpulse ingest --dir ./data/input --parallel 4
  fiscalpulse api --port 8080
  fiscalpulse migrate up`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Flags are bound onto viper keys, so they win over env and .env.
			config.LoadConfig()
			logger.Init()
		},
	}

	pf := root.PersistentFlags()
	pf.String("input-ext", ".xml", "Extension of export files inside archives")
	pf.String("encoding", "auto", "Source encoding: auto, utf-8 or windows-1251")
	pf.String("rates", "", "YAML nominal rate table for exports without declared percents")
	pf.String("pdf-font", "", "UTF-8 TTF font used for PDF output")
	pf.Bool("persist", false, "Store finalized runs in Postgres")
	bindFlag(pf.Lookup("input-ext"), config.KeyInputExt)
	bindFlag(pf.Lookup("encoding"), config.KeySourceEncoding)
	bindFlag(pf.Lookup("rates"), config.KeyNominalRatesFile)
	bindFlag(pf.Lookup("pdf-font"), config.KeyPDFFont)
	bindFlag(pf.Lookup("persist"), config.KeyPersistEnabled)

	root.AddCommand(newReportCmd(), newIngestCmd(), newAPICmd(), newMigrateCmd())
	return root
}
