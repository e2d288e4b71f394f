package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSearchLimit caps client search results
const DefaultSearchLimit = 20

// ClientService handles business logic for clients
type ClientService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
	db         *gorm.DB
}

// NewClientService creates a new ClientService
func NewClientService(db *gorm.DB, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: repository.NewClientRepository(db),
		logger:     logger,
		db:         db,
	}
}

// Create registers a client. A name matching an existing client (ignoring case and surrounding space) conflicts.
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	name := strings.TrimSpace(req.CompanyName)
	if name == "" {
		return nil, invalid("company name is required")
	}

	var client *domain.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		clients := s.clientRepo.WithTx(tx)

		existing, err := clients.GetByNameFold(ctx, name)
		if err == nil {
			return fmt.Errorf("%w: client %q already exists as #%d", ErrConflict, name, existing.ID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up client: %w", err)
		}

		client = &domain.Client{
			CompanyName:   name,
			ContactPerson: strings.TrimSpace(req.ContactPerson),
			ContactEmail:  strings.TrimSpace(req.ContactEmail),
			Notes:         req.Notes,
		}
		if err := clients.Create(ctx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client created", zap.Uint("client_id", client.ID), zap.String("company_name", client.CompanyName))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// GetByID returns a client
func (s *ClientService) GetByID(ctx context.Context, id uint) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "client", id)
	}
	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// List returns all clients by name
func (s *ClientService) List(ctx context.Context) ([]domain.ClientDTO, error) {
	clients, err := s.clientRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return toClientDTOs(clients), nil
}

// Search matches company or contact names case-insensitively
func (s *ClientService) Search(ctx context.Context, query string, limit int) ([]domain.ClientDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultSearchLimit
	}
	clients, err := s.clientRepo.Search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	return toClientDTOs(clients), nil
}

func toClientDTOs(clients []domain.Client) []domain.ClientDTO {
	dtos := make([]domain.ClientDTO, 0, len(clients))
	for i := range clients {
		dtos = append(dtos, mapper.ToClientDTO(&clients[i]))
	}
	return dtos
}

// getOrCreateClient resolves a company name to a client: exact match first,
// then a trimmed case-insensitive match, and only then a new record.
func getOrCreateClient(ctx context.Context, clients *repository.ClientRepository, name string) (*domain.Client, error) {
	client, err := clients.GetByExactName(ctx, name)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}

	client, err = clients.GetByNameFold(ctx, name)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}

	client = &domain.Client{CompanyName: strings.TrimSpace(name)}
	if err := clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}
