package cli

import (
	"fmt"
	"time"

	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts Options) *cobra.Command {
	var (
		name  string
		roles []string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Issue an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.LoadConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			granted := make([]auth.Role, 0, len(roles))
			for _, r := range roles {
				switch role := auth.Role(r); role {
				case auth.RoleAdmin, auth.RoleService, auth.RoleViewer:
					granted = append(granted, role)
				default:
					return fmt.Errorf("unknown role %q", r)
				}
			}

			token, err := auth.NewJWTValidator(&cfg.JWT).IssueToken(args[0], name, granted, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	cmd.Flags().StringSliceVar(&roles, "role", []string{string(auth.RoleViewer)}, "roles to grant: admin, api_service, viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
