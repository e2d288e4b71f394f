package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/redmine"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SyncService pushes tasks to Redmine. Remote calls run outside database transactions
// and are never retried; bulk sync is sequential and isolates per-task failures.
type SyncService struct {
	projectRepo *repository.ProjectRepository
	taskRepo    *repository.TaskRepository
	configRepo  *repository.RedmineConfigRepository
	newClient   redmine.Factory
	clock       Clock
	logger      *zap.Logger
	db          *gorm.DB
}

// NewSyncService creates a new SyncService
func NewSyncService(db *gorm.DB, factory redmine.Factory, clock Clock, logger *zap.Logger) *SyncService {
	return &SyncService{
		projectRepo: repository.NewProjectRepository(db),
		taskRepo:    repository.NewTaskRepository(db),
		configRepo:  repository.NewRedmineConfigRepository(db),
		newClient:   factory,
		clock:       clock,
		logger:      logger,
		db:          db,
	}
}

// SetupConfig verifies the connection and remote project, then links the project to it
func (s *SyncService) SetupConfig(ctx context.Context, projectID uint, req *domain.SetupRedmineRequest) (*domain.RedmineConfigDTO, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(req.RedmineURL), "/")
	identifier := strings.TrimSpace(req.RedmineProjectID)
	if baseURL == "" || identifier == "" || req.APIKey == "" {
		return nil, invalid("redmine URL, project identifier and API key are required")
	}

	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	client := s.newClient(baseURL, req.APIKey)
	if err := client.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redmine: %w", err)
	}
	remoteProjects, err := client.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list redmine projects: %w", err)
	}
	found := false
	for _, p := range remoteProjects {
		if p.Identifier == identifier {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrRemoteProjectNotFound, identifier)
	}

	cfg := &domain.RedmineConfig{
		ProjectID:        projectID,
		RedmineURL:       baseURL,
		RedmineProjectID: identifier,
		APIKey:           req.APIKey,
		SyncEnabled:      true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		configs := s.configRepo.WithTx(tx)
		if err := configs.Upsert(ctx, cfg); err != nil {
			return fmt.Errorf("failed to save redmine config: %w", err)
		}
		saved, err := configs.GetByProjectID(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to reload redmine config: %w", err)
		}
		cfg = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("redmine configured",
		zap.Uint("project_id", projectID),
		zap.String("redmine_url", baseURL),
		zap.String("redmine_project", identifier),
	)

	dto := mapper.ToRedmineConfigDTO(cfg)
	return &dto, nil
}

// GetConfig returns a project's Redmine link
func (s *SyncService) GetConfig(ctx context.Context, projectID uint) (*domain.RedmineConfigDTO, error) {
	cfg, err := s.configRepo.GetByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrSyncNotConfigured)
		}
		return nil, fmt.Errorf("failed to get redmine config: %w", err)
	}
	dto := mapper.ToRedmineConfigDTO(cfg)
	return &dto, nil
}

func (s *SyncService) enabledConfig(ctx context.Context, projectID uint) (*domain.RedmineConfig, error) {
	cfg, err := s.configRepo.GetByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", projectID, ErrSyncNotConfigured)
		}
		return nil, fmt.Errorf("failed to get redmine config: %w", err)
	}
	if !cfg.SyncEnabled {
		return nil, fmt.Errorf("project %d: sync disabled: %w", projectID, ErrSyncNotConfigured)
	}
	return cfg, nil
}

func issueInput(cfg *domain.RedmineConfig, task *domain.Task) redmine.IssueInput {
	input := redmine.IssueInput{
		ProjectID:   cfg.RedmineProjectID,
		Subject:     task.Name,
		Description: task.Description,
	}
	if task.EstimatedHours.Valid && task.EstimatedHours.Decimal.IsPositive() {
		hours := task.EstimatedHours.Decimal.InexactFloat64()
		input.EstimatedHours = &hours
	}
	if task.DueDate != nil {
		input.DueDate = task.DueDate.Format(domain.DateLayout)
	}
	return input
}

// SyncTask creates a Redmine issue for an unsynced task, or updates the linked issue of a synced one
func (s *SyncService) SyncTask(ctx context.Context, taskID uint) (*domain.TaskSyncResultDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}
	cfg, err := s.enabledConfig(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	client := s.newClient(cfg.RedmineURL, cfg.APIKey)
	result := &domain.TaskSyncResultDTO{TaskID: task.ID, TaskName: task.Name}

	if task.IsSynced() {
		input := issueInput(cfg, task)
		input.ProjectID = ""
		if err := client.UpdateIssue(ctx, *task.RedmineIssueID, input); err != nil {
			return nil, fmt.Errorf("failed to update redmine issue %d: %w", *task.RedmineIssueID, err)
		}
		result.IssueID = *task.RedmineIssueID
	} else {
		issue, err := client.CreateIssue(ctx, issueInput(cfg, task))
		if err != nil {
			return nil, fmt.Errorf("failed to create redmine issue: %w", err)
		}
		result.IssueID = issue.ID
		result.Created = true
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result.Created {
			if err := s.taskRepo.WithTx(tx).SetRedmineIssueID(ctx, task.ID, result.IssueID); err != nil {
				return fmt.Errorf("failed to link issue to task: %w", err)
			}
		}
		if err := s.configRepo.WithTx(tx).TouchLastSync(ctx, cfg.ID, s.clock.Now().UTC()); err != nil {
			return fmt.Errorf("failed to record sync time: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Success = true
	s.logger.Info("task synced to redmine",
		zap.Uint("task_id", task.ID),
		zap.Int("issue_id", result.IssueID),
		zap.Bool("created", result.Created),
	)
	return result, nil
}

// BulkSync creates issues for every unsynced task of a project, one at a time.
// A failing task is recorded in its result and does not stop the others.
func (s *SyncService) BulkSync(ctx context.Context, projectID uint) (*domain.BulkSyncResultDTO, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	cfg, err := s.enabledConfig(ctx, projectID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListUnsynced(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNothingToSync)
	}

	client := s.newClient(cfg.RedmineURL, cfg.APIKey)
	summary := &domain.BulkSyncResultDTO{
		ProjectID: projectID,
		Total:     len(tasks),
		Results:   make([]domain.TaskSyncResultDTO, 0, len(tasks)),
	}

	for i := range tasks {
		task := &tasks[i]
		result := domain.TaskSyncResultDTO{TaskID: task.ID, TaskName: task.Name}

		issue, err := client.CreateIssue(ctx, issueInput(cfg, task))
		if err == nil {
			err = s.taskRepo.SetRedmineIssueID(ctx, task.ID, issue.ID)
			if err == nil {
				result.Success = true
				result.Created = true
				result.IssueID = issue.ID
			} else {
				err = fmt.Errorf("issue #%d created but not linked: %w", issue.ID, err)
			}
		}

		if err != nil {
			result.Error = err.Error()
			summary.Failed++
			s.logger.Warn("task sync failed",
				zap.Uint("project_id", projectID),
				zap.Uint("task_id", task.ID),
				zap.Error(err),
			)
		} else {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, result)
	}

	// Every attempted batch counts as a sync, even when all tasks failed
	if err := s.configRepo.TouchLastSync(ctx, cfg.ID, s.clock.Now().UTC()); err != nil {
		s.logger.Warn("failed to record sync time", zap.Uint("project_id", projectID), zap.Error(err))
	}

	s.logger.Info("bulk sync finished",
		zap.Uint("project_id", projectID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// GetRemoteIssue fetches the Redmine issue linked to a task
func (s *SyncService) GetRemoteIssue(ctx context.Context, taskID uint) (*redmine.Issue, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, notFound(err, "task", taskID)
	}
	if !task.IsSynced() {
		return nil, fmt.Errorf("task %d has no redmine issue: %w", taskID, ErrNotFound)
	}
	cfg, err := s.enabledConfig(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}

	issue, err := s.newClient(cfg.RedmineURL, cfg.APIKey).GetIssue(ctx, *task.RedmineIssueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get redmine issue %d: %w", *task.RedmineIssueID, err)
	}
	return issue, nil
}
