package repository

import (
	"context"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportArchiveRepository struct {
	db *gorm.DB
}

func NewReportArchiveRepository(db *gorm.DB) *ReportArchiveRepository {
	return &ReportArchiveRepository{db: db}
}

// Upsert records the archive for its period, replacing an earlier one
func (r *ReportArchiveRepository) Upsert(ctx context.Context, archive *domain.ReportArchive) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"storage_path", "size", "generated_at", "updated_at"}),
	}).Create(archive).Error
}

func (r *ReportArchiveRepository) Get(ctx context.Context, year, month int) (*domain.ReportArchive, error) {
	var archive domain.ReportArchive
	err := r.db.WithContext(ctx).Where("year = ? AND month = ?", year, month).First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

// List returns archives newest period first
func (r *ReportArchiveRepository) List(ctx context.Context) ([]domain.ReportArchive, error) {
	var archives []domain.ReportArchive
	err := r.db.WithContext(ctx).Order("year DESC").Order("month DESC").Find(&archives).Error
	return archives, err
}
