package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/storage"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var reportNow = time.Date(2025, 12, 3, 10, 0, 0, 0, time.UTC)

func seedNovember(t *testing.T, db *gorm.DB) {
	t.Helper()
	acme := testutil.CreateTestClient(t, db, "Acme")
	globex := testutil.CreateTestClient(t, db, "Globex")

	testutil.CreateTestProject(t, db, testutil.ProjectFixture{
		Client: acme, Status: domain.StatusCompleted, Channel: domain.ChannelLancers,
		Amount: "100000", CreatedAt: time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC),
	})
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{
		Client: globex, Status: domain.StatusLost, Channel: domain.ChannelReferral,
		Amount: "50000", CreatedAt: time.Date(2025, 11, 28, 8, 0, 0, 0, time.UTC),
	})
	// outside the month but still open
	for _, created := range []time.Time{
		time.Date(2025, 10, 31, 23, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
	} {
		testutil.CreateTestProject(t, db, testutil.ProjectFixture{Status: domain.StatusInProgress, CreatedAt: created})
	}
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{Status: domain.StatusCancelled, CreatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)})
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{Status: domain.StatusCompleted, CreatedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)})
}

func TestReportService_Generate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedNovember(t, db)
	svc := service.NewReportService(db, nil, service.FixedClock(reportNow, time.UTC), zap.NewNop())
	ctx := context.Background()

	t.Run("defaults to the previous month", func(t *testing.T) {
		r, err := svc.Generate(ctx, nil, nil)
		require.NoError(t, err)

		s := r.Stats
		assert.Equal(t, 2025, s.Year)
		assert.Equal(t, 11, s.Month)
		assert.Equal(t, 2, s.NewProjects)
		assert.Equal(t, 1, s.WonProjects)
		assert.Equal(t, 1, s.LostProjects)
		assert.Equal(t, 50.0, s.WinRate)
		assert.True(t, decimal.NewFromInt(150000).Equal(s.TotalEstimated))
		assert.True(t, decimal.NewFromInt(100000).Equal(s.WonAmount))
		assert.Equal(t, 3, s.InProgress)
		assert.Equal(t, 7, s.TotalProjects)
		require.Len(t, s.TopClients, 2)
		assert.Equal(t, "Acme", s.TopClients[0].Client)
		assert.Contains(t, r.Text, "# Monthly report 2025-11")
	})

	t.Run("same inputs render the same report", func(t *testing.T) {
		year, month := 2025, 11
		a, err := svc.Generate(ctx, &year, &month)
		require.NoError(t, err)
		b, err := svc.Generate(ctx, &year, &month)
		require.NoError(t, err)
		assert.Equal(t, a.Text, b.Text)
		assert.Equal(t, a.Blocks, b.Blocks)
	})

	t.Run("empty month", func(t *testing.T) {
		year, month := 2024, 2
		r, err := svc.Generate(ctx, &year, &month)
		require.NoError(t, err)
		assert.Zero(t, r.Stats.NewProjects)
		assert.Zero(t, r.Stats.WinRate)
		assert.Equal(t, 7, r.Stats.TotalProjects)
	})

	t.Run("archive needs storage", func(t *testing.T) {
		_, err := svc.Archive(ctx, nil, nil)
		assert.True(t, errors.Is(err, service.ErrArchiveUnavailable))
	})
}

func TestReportService_Window_UsesBusinessTimezone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	// 2025-10-31 16:00 UTC is 2025-11-01 01:00 in Tokyo
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{CreatedAt: time.Date(2025, 10, 31, 16, 0, 0, 0, time.UTC)})
	// 2025-11-30 15:30 UTC is already December in Tokyo
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{CreatedAt: time.Date(2025, 11, 30, 15, 30, 0, 0, time.UTC)})

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc := service.NewReportService(db, nil, service.FixedClock(reportNow, tokyo), zap.NewNop())

	r, err := svc.Generate(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Stats.NewProjects)
}

func TestReportService_Archive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedNovember(t, db)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := service.NewReportService(db, store, service.FixedClock(reportNow, time.UTC), zap.NewNop())
	ctx := context.Background()

	archived, err := svc.Archive(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2025, archived.Year)
	assert.Equal(t, 11, archived.Month)
	assert.Positive(t, archived.Size)

	_, err = svc.Archive(ctx, nil, nil)
	require.NoError(t, err)

	list, err := svc.ListArchives(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	rc, err := svc.OpenArchive(ctx, 2025, 11)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# Monthly report 2025-11")
	assert.Equal(t, archived.Size, int64(len(body)))

	_, err = svc.OpenArchive(ctx, 2020, 1)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
