package repository

import (
	"context"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *ProjectRepository) WithTx(tx *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: tx}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Omit("Client").Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uint) (*domain.Project, error) {
	var project domain.Project
	err := r.db.WithContext(ctx).Preload("Client").Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Exists reports whether a project with the id exists
func (r *ProjectRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns the newest projects first. A non-positive limit returns all.
func (r *ProjectRepository) List(ctx context.Context, limit int) ([]domain.Project, error) {
	var projects []domain.Project
	query := r.db.WithContext(ctx).Preload("Client").Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&projects).Error
	return projects, err
}

// ListByClient returns the client's projects, newest first
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID uint) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error
	return projects, err
}

// ListCreatedBetween returns projects created in [from, to), oldest first
func (r *ProjectRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&projects).Error
	return projects, err
}

// CountExcludingStatuses counts projects whose status is not in statuses
func (r *ProjectRepository) CountExcludingStatuses(ctx context.Context, statuses []domain.ProjectStatus) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Project{})
	if len(statuses) > 0 {
		query = query.Where("status_id NOT IN ?", statuses)
	}
	err := query.Count(&count).Error
	return int(count), err
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id uint, status domain.ProjectStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Update("status_id", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ProjectRepository) UpdateEstimatedAmount(ctx context.Context, id uint, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Update("estimated_amount", amount).Error
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Project{}).Count(&count).Error
	return int(count), err
}
