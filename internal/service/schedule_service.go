package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxEntryHours is the largest single time entry the hours column holds
var MaxEntryHours = decimal.RequireFromString("9999.99")

// ScheduleService manages milestones, tasks and time entries.
// A task's actual hours always equal the sum of its time entries.
type ScheduleService struct {
	projectRepo   *repository.ProjectRepository
	milestoneRepo *repository.MilestoneRepository
	taskRepo      *repository.TaskRepository
	entryRepo     *repository.TimeEntryRepository
	clock         Clock
	logger        *zap.Logger
	db            *gorm.DB
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(db *gorm.DB, clock Clock, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		projectRepo:   repository.NewProjectRepository(db),
		milestoneRepo: repository.NewMilestoneRepository(db),
		taskRepo:      repository.NewTaskRepository(db),
		entryRepo:     repository.NewTimeEntryRepository(db),
		clock:         clock,
		logger:        logger,
		db:            db,
	}
}

func (s *ScheduleService) requireProject(ctx context.Context, projects *repository.ProjectRepository, projectID uint) error {
	exists, err := projects.Exists(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to get project: %w", err)
	}
	if !exists {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	return nil
}

// AddMilestone adds a pending milestone to a project
func (s *ScheduleService) AddMilestone(ctx context.Context, projectID uint, req *domain.CreateMilestoneRequest) (*domain.MilestoneDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("milestone name is required")
	}
	dueDate, err := mapper.ParseDate(req.DueDate)
	if err != nil {
		return nil, invalid("due date: %v", err)
	}
	if dueDate == nil {
		return nil, invalid("due date is required")
	}

	milestone := &domain.Milestone{
		ProjectID:   projectID,
		Name:        name,
		DueDate:     *dueDate,
		Status:      domain.MilestonePending,
		Description: req.Description,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireProject(ctx, s.projectRepo.WithTx(tx), projectID); err != nil {
			return err
		}
		milestones := s.milestoneRepo.WithTx(tx)
		max, err := milestones.MaxSortOrder(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to get sort order: %w", err)
		}
		milestone.SortOrder = max + 1
		if err := milestones.Create(ctx, milestone); err != nil {
			return fmt.Errorf("failed to create milestone: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("milestone added", zap.Uint("project_id", projectID), zap.Uint("milestone_id", milestone.ID))

	dto := mapper.ToMilestoneDTO(milestone)
	return &dto, nil
}

// ListMilestones returns a project's milestones by due date
func (s *ScheduleService) ListMilestones(ctx context.Context, projectID uint) ([]domain.MilestoneDTO, error) {
	if err := s.requireProject(ctx, s.projectRepo, projectID); err != nil {
		return nil, err
	}
	milestones, err := s.milestoneRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return mapper.ToMilestoneDTOs(milestones), nil
}

// UpdateMilestoneStatus changes a milestone's status. Completing it stamps today's date;
// any other status clears the completion date.
func (s *ScheduleService) UpdateMilestoneStatus(ctx context.Context, id uint, status domain.MilestoneStatus) (*domain.MilestoneDTO, error) {
	if !status.IsValid() {
		return nil, invalid("unknown milestone status %q", status)
	}

	var milestone *domain.Milestone
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestones := s.milestoneRepo.WithTx(tx)
		var err error
		milestone, err = milestones.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "milestone", id)
		}

		milestone.Status = status
		milestone.CompletedDate = nil
		if status == domain.MilestoneCompleted {
			today := s.clock.Today()
			milestone.CompletedDate = &today
		}
		if err := milestones.UpdateStatus(ctx, id, status, milestone.CompletedDate); err != nil {
			return fmt.Errorf("failed to update milestone: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("milestone status updated", zap.Uint("milestone_id", id), zap.String("status", string(status)))

	dto := mapper.ToMilestoneDTO(milestone)
	return &dto, nil
}

// AddTask adds a todo task to a project, optionally under one of its milestones
func (s *ScheduleService) AddTask(ctx context.Context, projectID uint, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("task name is required")
	}
	dueDate, err := mapper.ParseDate(req.DueDate)
	if err != nil {
		return nil, invalid("due date: %v", err)
	}

	task := &domain.Task{
		ProjectID:   projectID,
		MilestoneID: req.MilestoneID,
		Name:        name,
		Description: req.Description,
		Status:      domain.TaskTodo,
		ActualHours: decimal.Zero,
		DueDate:     dueDate,
	}
	if req.EstimatedHours != nil {
		if req.EstimatedHours.IsNegative() {
			return nil, invalid("estimated hours must not be negative")
		}
		task.EstimatedHours = decimal.NewNullDecimal(req.EstimatedHours.Round(2))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireProject(ctx, s.projectRepo.WithTx(tx), projectID); err != nil {
			return err
		}
		if req.MilestoneID != nil {
			milestone, err := s.milestoneRepo.WithTx(tx).GetByID(ctx, *req.MilestoneID)
			if err != nil {
				return notFound(err, "milestone", *req.MilestoneID)
			}
			if milestone.ProjectID != projectID {
				return invalid("milestone %d belongs to another project", milestone.ID)
			}
		}

		tasks := s.taskRepo.WithTx(tx)
		max, err := tasks.MaxSortOrder(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to get sort order: %w", err)
		}
		task.SortOrder = max + 1
		if err := tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task added", zap.Uint("project_id", projectID), zap.Uint("task_id", task.ID))

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// ListTasks returns a project's tasks by sort order, due date and id
func (s *ScheduleService) ListTasks(ctx context.Context, projectID uint) ([]domain.TaskDTO, error) {
	if err := s.requireProject(ctx, s.projectRepo, projectID); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return mapper.ToTaskDTOs(tasks), nil
}

// GetTask returns one task
func (s *ScheduleService) GetTask(ctx context.Context, id uint) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task", id)
	}
	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// UpdateTaskStatus changes a task's status. Done stamps today's date; other statuses clear it.
func (s *ScheduleService) UpdateTaskStatus(ctx context.Context, id uint, status domain.TaskStatus) (*domain.TaskDTO, error) {
	if !status.IsValid() {
		return nil, invalid("unknown task status %q", status)
	}

	var task *domain.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.taskRepo.WithTx(tx)
		var err error
		task, err = tasks.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "task", id)
		}

		task.Status = status
		task.CompletedDate = nil
		if status == domain.TaskDone {
			today := s.clock.Today()
			task.CompletedDate = &today
		}
		if err := tasks.UpdateStatus(ctx, id, status, task.CompletedDate); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("task status updated", zap.Uint("task_id", id), zap.String("status", string(status)))

	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// DeleteTask removes a task together with its time entries
func (s *ScheduleService) DeleteTask(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := s.taskRepo.WithTx(tx)
		if _, err := tasks.GetByID(ctx, id); err != nil {
			return notFound(err, "task", id)
		}
		if err := s.entryRepo.WithTx(tx).DeleteByTask(ctx, id); err != nil {
			return fmt.Errorf("failed to delete time entries: %w", err)
		}
		if err := tasks.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("task deleted", zap.Uint("task_id", id))
	return nil
}

// LogTime records hours against a task dated today and returns the task's new actual hours
func (s *ScheduleService) LogTime(ctx context.Context, taskID uint, hours decimal.Decimal, description string) (*domain.TimeEntryDTO, decimal.Decimal, error) {
	hours = hours.Round(2)
	if !hours.IsPositive() {
		return nil, decimal.Zero, invalid("hours must be greater than zero")
	}
	if hours.GreaterThan(MaxEntryHours) {
		return nil, decimal.Zero, invalid("hours must not exceed %s", MaxEntryHours)
	}

	var entry *domain.TimeEntry
	var actual decimal.Decimal
	err := database.Transaction(ctx, s.db, database.TxOptions(s.db), func(tx *gorm.DB) error {
		tasks := s.taskRepo.WithTx(tx)
		entries := s.entryRepo.WithTx(tx)

		task, err := tasks.GetByID(ctx, taskID)
		if err != nil {
			return notFound(err, "task", taskID)
		}

		entry = &domain.TimeEntry{
			TaskID:      task.ID,
			ProjectID:   task.ProjectID,
			Hours:       hours,
			Description: strings.TrimSpace(description),
			WorkDate:    s.clock.Today(),
		}
		if err := entries.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to create time entry: %w", err)
		}

		all, err := entries.ListByTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to list time entries: %w", err)
		}
		actual = sumHours(all)
		if err := tasks.UpdateActualHours(ctx, taskID, actual); err != nil {
			return fmt.Errorf("failed to update actual hours: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.logger.Info("time logged",
		zap.Uint("task_id", taskID),
		zap.String("hours", hours.String()),
		zap.String("actual_hours", actual.String()),
	)

	dto := mapper.ToTimeEntryDTO(entry)
	return &dto, actual, nil
}

// ListTimeEntries returns a task's entries, newest first
func (s *ScheduleService) ListTimeEntries(ctx context.Context, taskID uint) ([]domain.TimeEntryDTO, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, notFound(err, "task", taskID)
	}
	entries, err := s.entryRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	dtos := make([]domain.TimeEntryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, mapper.ToTimeEntryDTO(&entries[i]))
	}
	return dtos, nil
}

// GetSchedule returns a project's milestones and tasks with the hours logged on it
func (s *ScheduleService) GetSchedule(ctx context.Context, projectID uint) (*domain.ScheduleDTO, error) {
	var schedule *domain.ScheduleDTO
	err := database.Transaction(ctx, s.db, database.ReadOnlyTxOptions(s.db), func(tx *gorm.DB) error {
		project, err := s.projectRepo.WithTx(tx).GetByID(ctx, projectID)
		if err != nil {
			return notFound(err, "project", projectID)
		}
		milestones, err := s.milestoneRepo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list milestones: %w", err)
		}
		tasks, err := s.taskRepo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		entries, err := s.entryRepo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list time entries: %w", err)
		}

		schedule = &domain.ScheduleDTO{
			Project:     mapper.ToProjectDTO(project),
			Milestones:  mapper.ToMilestoneDTOs(milestones),
			Tasks:       mapper.ToTaskDTOs(tasks),
			ActualHours: sumHours(entries),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func sumHours(entries []domain.TimeEntry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].Hours)
	}
	return total
}
