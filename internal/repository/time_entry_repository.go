package repository

import (
	"context"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
)

type TimeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TimeEntryRepository) WithTx(tx *gorm.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: tx}
}

func (r *TimeEntryRepository) Create(ctx context.Context, entry *domain.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByTask returns the task's entries, newest work date first
func (r *TimeEntryRepository) ListByTask(ctx context.Context, taskID uint) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("work_date DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *TimeEntryRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("work_date DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *TimeEntryRepository) DeleteByTask(ctx context.Context, taskID uint) error {
	return r.db.WithContext(ctx).Delete(&domain.TimeEntry{}, "task_id = ?", taskID).Error
}
