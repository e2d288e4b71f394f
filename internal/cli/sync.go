package cli

import (
	"fmt"
	"strconv"

	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push tasks to Redmine",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "task ID",
		Short: "Create or update the Redmine issue of one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, func(env *app.Env) error {
				res, err := env.Services.Sync.SyncTask(cmd.Context(), id)
				if err != nil {
					return err
				}
				verb := "Updated"
				if res.Created {
					verb = "Created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s issue #%d for task %d (%s)\n", verb, res.IssueID, res.TaskID, res.TaskName)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "project ID",
		Short: "Create Redmine issues for every unsynced task of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, func(env *app.Env) error {
				res, err := env.Services.Sync.BulkSync(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, r := range res.Results {
					if r.Success {
						fmt.Fprintf(out, "ok     task %d -> issue #%d\n", r.TaskID, r.IssueID)
					} else {
						fmt.Fprintf(out, "failed task %d: %s\n", r.TaskID, r.Error)
					}
				}
				fmt.Fprintf(out, "%d of %d tasks synced\n", res.Succeeded, res.Total)
				if res.Failed > 0 {
					return fmt.Errorf("%d tasks failed to sync", res.Failed)
				}
				return nil
			})
		},
	})

	return cmd
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
