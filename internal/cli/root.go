// Package cli implements the crmctl operator commands.
package cli

import (
	"context"

	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/logger"
	"github.com/spf13/cobra"
)

// Options supplies the runtime to commands. Zero fields fall back to the real configuration.
type Options struct {
	// Open builds the database-backed runtime for report and sync commands
	Open func(ctx context.Context) (*app.Env, error)
	// LoadConfig loads configuration for commands that need no services
	LoadConfig func(ctx context.Context) (*config.Config, error)
}

func (o Options) withDefaults() Options {
	if o.Open == nil {
		o.Open = app.Bootstrap
	}
	if o.LoadConfig == nil {
		o.LoadConfig = loadConfigWithSecrets
	}
	return o
}

func loadConfigWithSecrets(ctx context.Context) (*config.Config, error) {
	basicCfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()
	return config.LoadWithSecrets(ctx, log)
}

// NewRootCommand builds the crmctl command tree
func NewRootCommand(opts Options) *cobra.Command {
	opts = opts.withDefaults()

	root := &cobra.Command{
		Use:   "crmctl",
		Short: "Operate the relation bot",
		Long: `crmctl runs database migrations, renders and archives monthly reports,
pushes tasks to Redmine and issues API tokens.

Configuration is read the same way as the API server: config.json, .env and
environment variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newReportCommand(opts))
	root.AddCommand(newSyncCommand(opts))
	root.AddCommand(newTokenCommand(opts))
	return root
}

// Execute runs crmctl with the real configuration
func Execute(ctx context.Context) error {
	return NewRootCommand(Options{}).ExecuteContext(ctx)
}

// withEnv opens the runtime for the duration of fn
func withEnv(cmd *cobra.Command, opts Options, fn func(env *app.Env) error) error {
	env, err := opts.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}
