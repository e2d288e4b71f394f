package cli

import (
	"fmt"

	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|status|version|create NAME",
		Short:     "Run PostgreSQL schema migrations",
		ValidArgs: []string{"up", "down", "status", "version", "create"},
		Args:      cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := args[0]
			switch command {
			case "up", "down", "status", "version", "create":
			default:
				return fmt.Errorf("unknown migrate command: %s", command)
			}

			cfg, err := opts.LoadConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.OpenMigrationDB(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db, command, args[1:]...); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch command {
			case "up":
				fmt.Fprintln(out, "Migrations applied successfully")
			case "down":
				fmt.Fprintln(out, "Migration rolled back successfully")
			case "create":
				fmt.Fprintf(out, "Migration created: %s\n", args[1])
			}
			return nil
		},
	}
}
