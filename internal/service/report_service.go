package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/report"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"github.com/freelance-crm/relation-bot/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReportService generates monthly reports from stored projects and archives them
type ReportService struct {
	projectRepo *repository.ProjectRepository
	archiveRepo *repository.ReportArchiveRepository
	store       storage.Storage
	clock       Clock
	logger      *zap.Logger
	db          *gorm.DB
}

// NewReportService creates a new ReportService. store may be nil when archiving is unused.
func NewReportService(db *gorm.DB, store storage.Storage, clock Clock, logger *zap.Logger) *ReportService {
	return &ReportService{
		projectRepo: repository.NewProjectRepository(db),
		archiveRepo: repository.NewReportArchiveRepository(db),
		store:       store,
		clock:       clock,
		logger:      logger,
		db:          db,
	}
}

// Generate builds the report for year/month, defaulting to the previous month when either is
// missing or out of range. It only reads.
func (s *ReportService) Generate(ctx context.Context, year, month *int) (*report.Report, error) {
	now := s.clock.Now()
	period := report.ResolvePeriod(year, month, now)
	from, to := period.Window(s.clock.Location())

	var stats report.Stats
	err := database.Transaction(ctx, s.db, database.ReadOnlyTxOptions(s.db), func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)

		created, err := projects.ListCreatedBetween(ctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		inProgress, err := projects.CountExcludingStatuses(ctx, domain.TerminalStatuses())
		if err != nil {
			return fmt.Errorf("failed to count projects in progress: %w", err)
		}
		total, err := projects.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count projects: %w", err)
		}

		records := make([]report.ProjectRecord, 0, len(created))
		for i := range created {
			p := &created[i]
			records = append(records, report.ProjectRecord{
				ClientName: p.ClientName(),
				Status:     p.Status,
				Channel:    p.Channel,
				Amount:     p.EstimatedAmount,
			})
		}
		stats = report.Compute(period, records, inProgress, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("monthly report generated",
		zap.String("period", period.String()),
		zap.Int("new_projects", stats.NewProjects),
	)
	return report.Build(stats, now), nil
}

// ArchiveKey is the storage key of a period's text report
func ArchiveKey(year, month int) string {
	return fmt.Sprintf("reports/%04d/monthly-report-%04d-%02d.md", year, year, month)
}

// Archive generates the report and stores its text, replacing an earlier archive of the same month
func (s *ReportService) Archive(ctx context.Context, year, month *int) (*domain.ReportArchiveDTO, error) {
	if s.store == nil {
		return nil, ErrArchiveUnavailable
	}

	r, err := s.Generate(ctx, year, month)
	if err != nil {
		return nil, err
	}

	key := ArchiveKey(r.Stats.Year, r.Stats.Month)
	size, err := s.store.Put(ctx, key, "text/markdown; charset=utf-8", bytes.NewReader([]byte(r.Text)))
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	archive := &domain.ReportArchive{
		Year:        r.Stats.Year,
		Month:       r.Stats.Month,
		StoragePath: key,
		Size:        size,
		GeneratedAt: r.GeneratedAt.UTC(),
	}
	if err := s.archiveRepo.Upsert(ctx, archive); err != nil {
		return nil, fmt.Errorf("failed to record report archive: %w", err)
	}

	s.logger.Info("monthly report archived",
		zap.Int("year", archive.Year),
		zap.Int("month", archive.Month),
		zap.String("storage_path", key),
		zap.Int64("size", size),
	)

	dto := mapper.ToReportArchiveDTO(archive)
	return &dto, nil
}

// ListArchives returns archived reports, newest first
func (s *ReportService) ListArchives(ctx context.Context) ([]domain.ReportArchiveDTO, error) {
	archives, err := s.archiveRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list report archives: %w", err)
	}
	dtos := make([]domain.ReportArchiveDTO, 0, len(archives))
	for i := range archives {
		dtos = append(dtos, mapper.ToReportArchiveDTO(&archives[i]))
	}
	return dtos, nil
}

// OpenArchive opens the stored text of an archived report. The caller closes it.
func (s *ReportService) OpenArchive(ctx context.Context, year, month int) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, ErrArchiveUnavailable
	}

	archive, err := s.archiveRepo.Get(ctx, year, month)
	if err != nil {
		return nil, notFound(err, "report archive", fmt.Sprintf("%04d-%02d", year, month))
	}

	rc, err := s.store.Get(ctx, archive.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("report archive %04d-%02d: %w", year, month, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open report archive: %w", err)
	}
	return rc, nil
}
