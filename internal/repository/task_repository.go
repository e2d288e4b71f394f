package repository

import (
	"context"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TaskRepository) WithTx(tx *gorm.DB) *TaskRepository {
	return &TaskRepository{db: tx}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uint) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByProject returns tasks by sort order, due date, then id
func (r *TaskRepository) ListByProject(ctx context.Context, projectID uint) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC").
		Order("due_date ASC").
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// ListUnsynced returns the project's tasks that have no Redmine issue yet
func (r *TaskRepository) ListUnsynced(ctx context.Context, projectID uint) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND redmine_issue_id IS NULL", projectID).
		Order("sort_order ASC").
		Order("id ASC").
		Find(&tasks).Error
	return tasks, err
}

// UpdateStatus sets the status and completion date together
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uint, status domain.TaskStatus, completedDate *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"completed_date": completedDate,
		}).Error
}

func (r *TaskRepository) UpdateActualHours(ctx context.Context, id uint, hours decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Update("actual_hours", hours).Error
}

func (r *TaskRepository) SetRedmineIssueID(ctx context.Context, id uint, issueID int) error {
	return r.db.WithContext(ctx).Model(&domain.Task{}).Where("id = ?", id).Update("redmine_issue_id", issueID).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id).Error
}

func (r *TaskRepository) MaxSortOrder(ctx context.Context, projectID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&max).Error
	return max, err
}
