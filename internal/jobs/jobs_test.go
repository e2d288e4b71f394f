package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/jobs"
	"github.com/freelance-crm/relation-bot/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeArchiver struct {
	mu        sync.Mutex
	calls     int
	generated []int
	err       error
	result    *domain.ReportArchiveDTO
	hadDL     bool
}

func (f *fakeArchiver) Generate(_ context.Context, year, month *int) (*report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated = append(f.generated, *year, *month)
	return &report.Report{Text: "Monthly report", Blocks: []blocks.Block{blocks.Header("Monthly report")}}, nil
}

type fakeAnnouncer struct {
	msgs []blocks.Message
	err  error
}

func (f *fakeAnnouncer) Announce(_ context.Context, msg blocks.Message) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeArchiver) Archive(ctx context.Context, year, month *int) (*domain.ReportArchiveDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, f.hadDL = ctx.Deadline()
	if year != nil || month != nil {
		return nil, errors.New("expected the default period")
	}
	return f.result, f.err
}

func TestScheduler_AddAndRemoveJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)

	require.NoError(t, s.AddJob("b", "0 0 6 1 * *", func() {}))
	require.NoError(t, s.AddJob("a", "@every 1h", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	err := s.AddJob("a", "@every 1h", func() {})
	assert.Error(t, err)

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
	assert.Error(t, s.RemoveJob("a"))

	_, ok := s.NextRun("a")
	assert.False(t, ok)
}

func TestScheduler_RejectsInvalidExpressions(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"garbage", "not a cron"},
		{"five fields", "0 6 1 * *"},
		{"out of range", "0 0 25 * * *"},
	}

	s := jobs.NewScheduler(zap.NewNop(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.AddJob(tt.name, tt.expr, func() {}))
		})
	}
	assert.Empty(t, s.JobNames())
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "* * * * * *", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	next, ok := s.NextRun("tick")
	require.True(t, ok)
	assert.False(t, next.IsZero())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestMonthlyReportJob_Run(t *testing.T) {
	archiver := &fakeArchiver{result: &domain.ReportArchiveDTO{Year: 2025, Month: 11, Size: 2048}}
	job := jobs.NewMonthlyReportJob(archiver, nil, zap.NewNop(), time.Minute)

	got := job.Run()
	require.NotNil(t, got)
	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 11, got.Month)
	assert.Equal(t, 1, archiver.calls)
	assert.True(t, archiver.hadDL)
	assert.Empty(t, archiver.generated)
}

func TestMonthlyReportJob_Announces(t *testing.T) {
	tests := []struct {
		name        string
		announceErr error
	}{
		{"announced", nil},
		{"announcement fails", errors.New("channel_not_found")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archiver := &fakeArchiver{result: &domain.ReportArchiveDTO{Year: 2025, Month: 11}}
			announcer := &fakeAnnouncer{err: tt.announceErr}
			job := jobs.NewMonthlyReportJob(archiver, announcer, zap.NewNop(), time.Minute)

			require.NotNil(t, job.Run())
			assert.Equal(t, []int{2025, 11}, archiver.generated)
			require.Len(t, announcer.msgs, 1)
			assert.Equal(t, "Monthly report", announcer.msgs[0].Text)
		})
	}
}

func TestMonthlyReportJob_RunFailure(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("storage offline")}
	announcer := &fakeAnnouncer{}
	job := jobs.NewMonthlyReportJob(archiver, announcer, zap.NewNop(), time.Minute)

	assert.Nil(t, job.Run())
	assert.Equal(t, 1, archiver.calls)
	assert.Empty(t, announcer.msgs)
}

func TestRegisterMonthlyReportJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.UTC)
	archiver := &fakeArchiver{}

	require.NoError(t, jobs.RegisterMonthlyReportJob(s, archiver, nil, zap.NewNop(), "0 0 6 1 * *", time.Minute))
	assert.Equal(t, []string{jobs.MonthlyReportJobName}, s.JobNames())

	err := jobs.RegisterMonthlyReportJob(s, archiver, nil, zap.NewNop(), "0 0 6 1 * *", time.Minute)
	assert.Error(t, err)
}
