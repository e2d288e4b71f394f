package jobs

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/report"
	"go.uber.org/zap"
)

// MonthlyReportJobName is the name of the report archive job
const MonthlyReportJobName = "monthly_report_archive"

// ReportArchiver renders and archives monthly reports. Nil year and month select the previous month.
type ReportArchiver interface {
	Generate(ctx context.Context, year, month *int) (*report.Report, error)
	Archive(ctx context.Context, year, month *int) (*domain.ReportArchiveDTO, error)
}

// Announcer posts a message to the team channel
type Announcer interface {
	Announce(ctx context.Context, msg blocks.Message) error
}

// MonthlyReportJob archives the previous month's report and optionally announces it
type MonthlyReportJob struct {
	reports   ReportArchiver
	announcer Announcer
	logger    *zap.Logger
	timeout   time.Duration
}

// NewMonthlyReportJob creates the job. announcer may be nil; timeout bounds a single run.
func NewMonthlyReportJob(reports ReportArchiver, announcer Announcer, logger *zap.Logger, timeout time.Duration) *MonthlyReportJob {
	return &MonthlyReportJob{
		reports:   reports,
		announcer: announcer,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run archives the report and returns what was stored. Failures are logged.
func (j *MonthlyReportJob) Run() *domain.ReportArchiveDTO {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	archive, err := j.reports.Archive(ctx, nil, nil)
	if err != nil {
		j.logger.Error("monthly report archive failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil
	}

	j.logger.Info("monthly report archive job completed",
		zap.Int("year", archive.Year),
		zap.Int("month", archive.Month),
		zap.String("size", humanize.Bytes(uint64(archive.Size))),
		zap.Duration("duration", time.Since(start)))

	if j.announcer != nil {
		j.announce(ctx, archive)
	}
	return archive
}

// An announcement failure does not undo the archive
func (j *MonthlyReportJob) announce(ctx context.Context, archive *domain.ReportArchiveDTO) {
	year, month := archive.Year, archive.Month
	rep, err := j.reports.Generate(ctx, &year, &month)
	if err != nil {
		j.logger.Warn("failed to render report for announcement", zap.Error(err))
		return
	}

	msg := blocks.Message{Text: rep.Text, Blocks: rep.Blocks}
	if err := j.announcer.Announce(ctx, msg); err != nil {
		j.logger.Warn("failed to announce monthly report",
			zap.Int("year", year),
			zap.Int("month", month),
			zap.Error(err))
		return
	}
	j.logger.Info("monthly report announced", zap.Int("year", year), zap.Int("month", month))
}

// RegisterMonthlyReportJob registers the archive job with the scheduler
func RegisterMonthlyReportJob(scheduler *Scheduler, reports ReportArchiver, announcer Announcer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewMonthlyReportJob(reports, announcer, logger, timeout)
	return scheduler.AddJob(MonthlyReportJobName, cronExpr, func() { job.Run() })
}
