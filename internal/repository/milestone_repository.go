package repository

import (
	"context"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"gorm.io/gorm"
)

type MilestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *MilestoneRepository) WithTx(tx *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{db: tx}
}

func (r *MilestoneRepository) Create(ctx context.Context, milestone *domain.Milestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uint) (*domain.Milestone, error) {
	var milestone domain.Milestone
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&milestone).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

// ListByProject returns milestones by due date, then id
func (r *MilestoneRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.Milestone, error) {
	var milestones []domain.Milestone
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("due_date ASC").
		Order("id ASC").
		Find(&milestones).Error
	return milestones, err
}

// UpdateStatus sets the status and completion date together
func (r *MilestoneRepository) UpdateStatus(ctx context.Context, id uint, status domain.MilestoneStatus, completedDate *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Milestone{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"completed_date": completedDate,
		}).Error
}

func (r *MilestoneRepository) MaxSortOrder(ctx context.Context, projectID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&domain.Milestone{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}
