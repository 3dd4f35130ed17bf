package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/db"
	"github.com/guttosm/fiscalpulse/internal/app"
	"github.com/guttosm/fiscalpulse/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply, roll back or inspect the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := app.InitPostgres(config.AppConfig)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			switch args[0] {
			case "up":
				err = db.Up(conn)
			case "down":
				err = db.Down(conn)
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}

			v, err := db.Version(conn)
			if err != nil {
				return err
			}
			logger.L().Info().Str("action", args[0]).Int64("version", v).Msg("migrations")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}
