package app_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/app"
	"github.com/freelance-crm/relation-bot/internal/config"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sqliteConfig(t *testing.T, archive bool) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString()),
		},
		Storage: config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()},
		Report:  config.ReportConfig{Timezone: "Asia/Tokyo", ArchiveEnabled: archive},
		Redmine: config.RedmineConfig{Timeout: 30},
	}
}

func TestOpen_SQLiteWithArchive(t *testing.T) {
	env, err := app.Open(sqliteConfig(t, true), zap.NewNop())
	require.NoError(t, err)
	defer env.Close()

	require.NotNil(t, env.Storage)
	assert.True(t, env.DB.Migrator().HasTable(&domain.Task{}))

	ctx := context.Background()
	p, err := env.Services.Projects.Register(ctx, &domain.CreateProjectRequest{Name: "Landing page", ClientName: "Acme"})
	require.NoError(t, err)

	got, err := env.Services.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Landing page", got.Name)

	archives, err := env.Services.Reports.ListArchives(ctx)
	require.NoError(t, err)
	assert.Empty(t, archives)

	assert.NotNil(t, env.Services.Bot(env.Config, env.Logger))
}

func TestOpen_ArchiveDisabled(t *testing.T) {
	env, err := app.Open(sqliteConfig(t, false), zap.NewNop())
	require.NoError(t, err)
	defer env.Close()

	assert.Nil(t, env.Storage)

	_, err = env.Services.Reports.Archive(context.Background(), nil, nil)
	assert.Error(t, err)
}
