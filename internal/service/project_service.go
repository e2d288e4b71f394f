package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultProjectListLimit is how many projects a plain listing returns
const DefaultProjectListLimit = 10

// ProjectService handles business logic for projects
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	clientRepo  *repository.ClientRepository
	logger      *zap.Logger
	db          *gorm.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *gorm.DB, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: repository.NewProjectRepository(db),
		clientRepo:  repository.NewClientRepository(db),
		logger:      logger,
		db:          db,
	}
}

// Register creates a project, finding or creating its client by name.
// Status defaults to Inquiry and channel to Other.
func (s *ProjectService) Register(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("project name is required")
	}

	status := domain.StatusInquiry
	if req.Status != 0 {
		status = domain.ProjectStatus(req.Status)
		if !status.IsValid() {
			return nil, invalid("unknown status %d", req.Status)
		}
	}
	channel := domain.ChannelOther
	if req.Channel != 0 {
		channel = domain.AcquisitionChannel(req.Channel)
		if !channel.IsValid() {
			return nil, invalid("unknown channel %d", req.Channel)
		}
	}

	requestDate, err := mapper.ParseDate(req.RequestDate)
	if err != nil {
		return nil, invalid("request date: %v", err)
	}
	startDate, err := mapper.ParseDate(req.StartDate)
	if err != nil {
		return nil, invalid("start date: %v", err)
	}
	deadline, err := mapper.ParseDate(req.Deadline)
	if err != nil {
		return nil, invalid("deadline: %v", err)
	}

	var hours decimal.NullDecimal
	if req.EstimatedHours != nil {
		if req.EstimatedHours.IsNegative() {
			return nil, invalid("estimated hours must not be negative")
		}
		hours = decimal.NewNullDecimal(req.EstimatedHours.Round(2))
	}

	project := &domain.Project{
		Name:            name,
		Status:          status,
		Channel:         channel,
		EstimatedAmount: decimal.Zero,
		EstimatedHours:  hours,
		RequestDate:     requestDate,
		StartDate:       startDate,
		Deadline:        deadline,
		Notes:           req.Notes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clientName := strings.TrimSpace(req.ClientName); clientName != "" {
			client, err := getOrCreateClient(ctx, s.clientRepo.WithTx(tx), clientName)
			if err != nil {
				return err
			}
			project.ClientID = &client.ID
			project.Client = client
		}
		if err := s.projectRepo.WithTx(tx).Create(ctx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project registered",
		zap.Uint("project_id", project.ID),
		zap.String("client", project.ClientName()),
		zap.String("channel", channel.Label()),
	)

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// GetByID returns a project with its client
func (s *ProjectService) GetByID(ctx context.Context, id uint) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// List returns the newest projects. A non-positive limit uses DefaultProjectListLimit.
func (s *ProjectService) List(ctx context.Context, limit int) ([]domain.ProjectDTO, error) {
	if limit <= 0 {
		limit = DefaultProjectListLimit
	}
	projects, err := s.projectRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	dtos := make([]domain.ProjectDTO, 0, len(projects))
	for i := range projects {
		dtos = append(dtos, mapper.ToProjectDTO(&projects[i]))
	}
	return dtos, nil
}

// ListByClient returns a client's projects
func (s *ProjectService) ListByClient(ctx context.Context, clientID uint) ([]domain.ProjectDTO, error) {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		return nil, notFound(err, "client", clientID)
	}
	projects, err := s.projectRepo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	dtos := make([]domain.ProjectDTO, 0, len(projects))
	for i := range projects {
		dtos = append(dtos, mapper.ToProjectDTO(&projects[i]))
	}
	return dtos, nil
}

// UpdateStatus moves a project to another status code
func (s *ProjectService) UpdateStatus(ctx context.Context, id uint, status domain.ProjectStatus) (*domain.ProjectDTO, error) {
	if !status.IsValid() {
		return nil, invalid("unknown status %d", status)
	}

	var project *domain.Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)
		if err := projects.UpdateStatus(ctx, id, status); err != nil {
			return notFound(err, "project", id)
		}
		var err error
		project, err = projects.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "project", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project status updated",
		zap.Uint("project_id", id),
		zap.String("status", status.Label()),
	)

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}
