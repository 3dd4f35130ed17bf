package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/internal/app"
	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/ingestion"
	"github.com/guttosm/fiscalpulse/internal/logger"
	"github.com/guttosm/fiscalpulse/internal/render"
	"github.com/guttosm/fiscalpulse/internal/service"
	"github.com/guttosm/fiscalpulse/internal/storage"
)

func newReportCmd() *cobra.Command {
	var (
		output string
		format string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "report ARCHIVE",
		Short: "Build a report document from one archive",
		Long: `Runs the pipeline over ARCHIVE and writes the report next to it, or to --output.
The format follows --format, else the output extension, else xlsx. When the
destination cannot be written the report goes to a timestamped sibling file.
With --persist the finalized run is also stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args[0], output, format, force)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: archive name with the format extension)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "xlsx, pdf or json")
	cmd.Flags().BoolVar(&force, "force", false, "Replace a stored run of the same archive")
	return cmd
}

func runReport(cmd *cobra.Command, path, output, formatFlag string, force bool) error {
	cfg := config.AppConfig
	ctx := cmd.Context()

	if formatFlag == "" && output != "" {
		formatFlag = filepath.Ext(output)
	}
	format, err := render.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(path, filepath.Ext(path)) + format.Ext()
	}

	settings, err := app.Settings(cfg)
	if err != nil {
		return err
	}

	var repo storage.ReportsRepository
	if cfg.Persist {
		db, err := app.InitPostgres(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		repo = storage.NewReportsRepository(db)
	}
	svc := service.NewReportService(repo, settings)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrUnreadable, err)
	}

	rep, err := svc.Generate(ctx, filepath.Base(path), data, format)
	if err != nil {
		return err
	}
	res := rep.Result
	if res.Status == ingestion.StatusEmpty {
		logger.ForRun(res.RunID, res.Archive).Warn().Int("files", res.Files).Msg("no transactions found")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no transactions found in %s\n", path)
		return nil
	}

	written, err := render.WriteWithFallback(output, rep.Document, time.Now())
	if err != nil {
		return err
	}
	if written != output {
		logger.L().Warn().Str("wanted", output).Str("written", written).Msg("output locked, wrote sibling file")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), written)

	if repo != nil {
		stored, err := svc.Store(ctx, res, force)
		if err != nil {
			return fmt.Errorf("store run: %w", err)
		}
		logger.ForRun(res.RunID, res.Archive).Info().Bool("stored", stored).Msg("persistence")
	}
	return nil
}
