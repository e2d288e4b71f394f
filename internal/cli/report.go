package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/spf13/cobra"
)

func newReportCommand(opts Options) *cobra.Command {
	var (
		format  string
		archive bool
	)

	cmd := &cobra.Command{
		Use:   "report [YEAR MONTH]",
		Short: "Render the monthly report",
		Long: `Render the report for YEAR and MONTH, or for the previous month when they
are omitted or out of range. With --archive the report is also stored in
report storage.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected YEAR and MONTH or no arguments, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "markdown" && format != "json" {
				return fmt.Errorf("invalid format %q: must be markdown or json", format)
			}

			var year, month *int
			if len(args) == 2 {
				y, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid year %q", args[0])
				}
				m, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid month %q", args[1])
				}
				year, month = &y, &m
			}

			return withEnv(cmd, opts, func(env *app.Env) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				rep, err := env.Services.Reports.Generate(ctx, year, month)
				if err != nil {
					return err
				}

				if format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(rep); err != nil {
						return fmt.Errorf("failed to encode report: %w", err)
					}
				} else {
					fmt.Fprintln(out, rep.Text)
				}

				if archive {
					stored, err := env.Services.Reports.Archive(ctx, year, month)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Archived %04d-%02d (%s)\n",
						stored.Year, stored.Month, humanize.Bytes(uint64(stored.Size)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().BoolVar(&archive, "archive", false, "also store the report in report storage")
	return cmd
}
