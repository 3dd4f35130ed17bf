package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/internal/app"
	"github.com/guttosm/fiscalpulse/internal/ingestion"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

func newIngestCmd() *cobra.Command {
	var (
		dir      string
		parallel int
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Store every archive of a directory in Postgres",
		Long: `Runs each *.zip in --dir as an independent report run and stores the result.
Archives already stored (same SHA-256) are skipped unless --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.AppConfig
			settings, err := app.Settings(cfg)
			if err != nil {
				return err
			}

			db, err := app.InitPostgres(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			logger.L().Info().Str("dir", dir).Int("parallel", parallel).Bool("force", force).Msg("running ingestion")
			out, err := ingestion.ProcessDirectory(cmd.Context(), dir, db, ingestion.BatchOptions{
				Parallel: parallel,
				Force:    force,
				Archive:  settings.Archive,
				Run:      settings.Run,
			})
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}

			var stored, skipped int
			for _, o := range out {
				if o.Skipped {
					skipped++
				} else {
					stored++
				}
			}
			logger.L().Info().Int("stored", stored).Int("skipped", skipped).Msg("ingestion completed")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stored %d, skipped %d\n", stored, skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./data/input", "Directory with .zip archives")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "How many archives to process concurrently (0=default 4, max 8)")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess archives even if already stored (replaces the stored run)")
	return cmd
}
