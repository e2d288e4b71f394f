package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/freelance-crm/relation-bot/internal/auth"
	"github.com/freelance-crm/relation-bot/internal/cli"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "cli-test-secret-0123456789"

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
		},
		Storage: config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()},
		Report:  config.ReportConfig{Timezone: "UTC", ArchiveEnabled: true},
		Redmine: config.RedmineConfig{Timeout: 5},
		JWT:     config.JWTConfig{Secret: testSecret, Issuer: "relation-bot"},
	}
}

// testOptions shares one database between the seeding code and every command
func testOptions(t *testing.T) (cli.Options, *app.Env) {
	cfg := testConfig(t)
	env, err := app.Open(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(env.Close)

	return cli.Options{
		Open: func(context.Context) (*app.Env, error) {
			// Commands close what they open, so hand out a fresh handle on the same database
			return app.Open(cfg, zap.NewNop())
		},
		LoadConfig: func(context.Context) (*config.Config, error) { return cfg, nil },
	}, env
}

func execute(t *testing.T, opts cli.Options, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReportCommand_JSON(t *testing.T) {
	opts, _ := testOptions(t)

	out, err := execute(t, opts, "report", "2025", "11", "--format", "json")
	require.NoError(t, err)

	var rep struct {
		Stats struct {
			Year  int `json:"year"`
			Month int `json:"month"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 2025, rep.Stats.Year)
	assert.Equal(t, 11, rep.Stats.Month)
}

func TestReportCommand_MarkdownAndArchive(t *testing.T) {
	opts, env := testOptions(t)

	out, err := execute(t, opts, "report", "2025", "11", "--archive")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	archives, err := env.Services.Reports.ListArchives(context.Background())
	require.NoError(t, err)
	require.Len(t, archives, 1)
	assert.Equal(t, 2025, archives[0].Year)
	assert.Equal(t, 11, archives[0].Month)
}

func TestReportCommand_Rejections(t *testing.T) {
	opts, _ := testOptions(t)

	tests := []struct {
		name string
		args []string
	}{
		{"one argument", []string{"report", "2025"}},
		{"non-numeric year", []string{"report", "abc", "11"}},
		{"non-numeric month", []string{"report", "2025", "nov"}},
		{"bad format", []string{"report", "--format", "pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, opts, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestSyncCommand_Errors(t *testing.T) {
	opts, env := testOptions(t)
	ctx := context.Background()

	p, err := env.Services.Projects.Register(ctx, &domain.CreateProjectRequest{Name: "Unconfigured"})
	require.NoError(t, err)
	task, err := env.Services.Schedule.AddTask(ctx, p.ID, &domain.CreateTaskRequest{Name: "Wireframes"})
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
	}{
		{"invalid id", []string{"sync", "task", "x"}},
		{"zero id", []string{"sync", "project", "0"}},
		{"missing task", []string{"sync", "task", "9999"}},
		{"task without redmine config", []string{"sync", "task", fmt.Sprint(task.ID)}},
		{"project without redmine config", []string{"sync", "project", fmt.Sprint(p.ID)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, opts, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestTokenCommand(t *testing.T) {
	opts, _ := testOptions(t)

	out, err := execute(t, opts, "token", "chat-bridge", "--name", "Bridge", "--role", "api_service")
	require.NoError(t, err)

	userCtx, err := auth.NewJWTValidator(&config.JWTConfig{Secret: testSecret, Issuer: "relation-bot"}).
		ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "chat-bridge", userCtx.Subject)
	assert.Equal(t, "Bridge", userCtx.DisplayName)
	assert.True(t, userCtx.HasRole(auth.RoleService))

	_, err = execute(t, opts, "token", "someone", "--role", "root")
	assert.Error(t, err)
}

func TestMigrateCommand_Rejections(t *testing.T) {
	opts, _ := testOptions(t)

	_, err := execute(t, opts, "migrate", "sideways")
	assert.ErrorContains(t, err, "unknown migrate command")

	// sqlite databases are migrated from the models, not by goose
	_, err = execute(t, opts, "migrate", "up")
	assert.Error(t, err)
}
