package repository

import (
	"context"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RedmineConfigRepository struct {
	db *gorm.DB
}

func NewRedmineConfigRepository(db *gorm.DB) *RedmineConfigRepository {
	return &RedmineConfigRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *RedmineConfigRepository) WithTx(tx *gorm.DB) *RedmineConfigRepository {
	return &RedmineConfigRepository{db: tx}
}

func (r *RedmineConfigRepository) GetByProjectID(ctx context.Context, projectID uint) (*domain.RedmineConfig, error) {
	var cfg domain.RedmineConfig
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert inserts the project's config or replaces the connection fields of the existing one
func (r *RedmineConfigRepository) Upsert(ctx context.Context, cfg *domain.RedmineConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"redmine_url", "redmine_project_id", "api_key", "sync_enabled", "updated_at"}),
	}).Create(cfg).Error
}

func (r *RedmineConfigRepository) TouchLastSync(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.RedmineConfig{}).Where("id = ?", id).Update("last_sync_at", at).Error
}
