package repository

import (
	"context"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
)

type EstimateItemRepository struct {
	db *gorm.DB
}

func NewEstimateItemRepository(db *gorm.DB) *EstimateItemRepository {
	return &EstimateItemRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *EstimateItemRepository) WithTx(tx *gorm.DB) *EstimateItemRepository {
	return &EstimateItemRepository{db: tx}
}

func (r *EstimateItemRepository) Create(ctx context.Context, item *domain.EstimateItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *EstimateItemRepository) GetByID(ctx context.Context, id uint) (*domain.EstimateItem, error) {
	var item domain.EstimateItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *EstimateItemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.EstimateItem{}, "id = ?", id).Error
}

// ListByProject returns the project's lines ordered by sort order, then id
func (r *EstimateItemRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.EstimateItem, error) {
	var items []domain.EstimateItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// MaxSortOrder returns the highest sort order on the project, or 0 when it has no lines
func (r *EstimateItemRepository) MaxSortOrder(ctx context.Context, projectID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&domain.EstimateItem{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}
