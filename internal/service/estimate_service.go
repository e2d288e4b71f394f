package service

import (
	"context"
	"errors"
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

// DefaultUnit is used when a line item has no unit
const DefaultUnit = "式"

// EstimateService maintains estimate lines and keeps each project's estimated amount
// equal to the sum of quantity × unit price over its lines.
type EstimateService struct {
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.EstimateItemRepository
	logger      *zap.Logger
	db          *gorm.DB
}

// NewEstimateService creates a new EstimateService
func NewEstimateService(db *gorm.DB, logger *zap.Logger) *EstimateService {
	return &EstimateService{
		projectRepo: repository.NewProjectRepository(db),
		itemRepo:    repository.NewEstimateItemRepository(db),
		logger:      logger,
		db:          db,
	}
}

// fitsCents reports whether d is representable in a NUMERIC(_, 2) column
func fitsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// AddLineItem appends a line to the project's estimate and returns it with the new total
func (s *EstimateService) AddLineItem(ctx context.Context, projectID uint, req *domain.AddEstimateItemRequest) (*domain.EstimateItemDTO, decimal.Decimal, error) {
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return nil, decimal.Zero, invalid("item name is required")
	}

	quantity := decimal.NewFromInt(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity.IsNegative() {
		return nil, decimal.Zero, invalid("quantity must not be negative")
	}
	if !fitsCents(quantity) {
		return nil, decimal.Zero, invalid("quantity allows at most 2 decimal places")
	}
	unitPrice := req.UnitPrice
	if unitPrice.IsNegative() {
		return nil, decimal.Zero, invalid("unit price must not be negative")
	}
	if !fitsCents(unitPrice) {
		return nil, decimal.Zero, invalid("unit price allows at most 2 decimal places")
	}
	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = DefaultUnit
	}

	item := &domain.EstimateItem{
		ProjectID:   projectID,
		ItemName:    name,
		Quantity:    quantity,
		Unit:        unit,
		UnitPrice:   unitPrice,
		Description: req.Description,
	}

	var total decimal.Decimal
	err := database.Transaction(ctx, s.db, database.TxOptions(s.db), func(tx *gorm.DB) error {
		projects := s.projectRepo.WithTx(tx)
		items := s.itemRepo.WithTx(tx)

		exists, err := projects.Exists(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to get project: %w", err)
		}
		if !exists {
			return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
		}

		if req.SortOrder != nil {
			item.SortOrder = *req.SortOrder
		} else {
			max, err := items.MaxSortOrder(ctx, projectID)
			if err != nil {
				return fmt.Errorf("failed to get sort order: %w", err)
			}
			item.SortOrder = max + 1
		}

		if err := items.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to create estimate item: %w", err)
		}

		total, err = recomputeEstimate(ctx, projects, items, projectID)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.logger.Info("estimate item added",
		zap.Uint("project_id", projectID),
		zap.Uint("item_id", item.ID),
		zap.String("new_total", total.String()),
	)

	dto := mapper.ToEstimateItemDTO(item)
	return &dto, total, nil
}

// DeleteLineItem removes a line and returns the project's new total.
// A missing line reports (false, 0) without error.
func (s *EstimateService) DeleteLineItem(ctx context.Context, itemID uint) (bool, decimal.Decimal, error) {
	found := false
	total := decimal.Zero

	err := database.Transaction(ctx, s.db, database.TxOptions(s.db), func(tx *gorm.DB) error {
		items := s.itemRepo.WithTx(tx)

		item, err := items.GetByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get estimate item: %w", err)
		}
		found = true

		if err := items.Delete(ctx, itemID); err != nil {
			return fmt.Errorf("failed to delete estimate item: %w", err)
		}

		total, err = recomputeEstimate(ctx, s.projectRepo.WithTx(tx), items, item.ProjectID)
		return err
	})
	if err != nil {
		return false, decimal.Zero, err
	}

	if found {
		s.logger.Info("estimate item deleted",
			zap.Uint("item_id", itemID),
			zap.String("new_total", total.String()),
		)
	}
	return found, total, nil
}

// ListLineItems returns a project's lines by sort order
func (s *EstimateService) ListLineItems(ctx context.Context, projectID uint) ([]domain.EstimateItemDTO, error) {
	exists, err := s.projectRepo.Exists(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}

	items, err := s.itemRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimate items: %w", err)
	}
	return mapper.ToEstimateItemDTOs(items), nil
}

// GetEstimate returns the project, its lines and their total
func (s *EstimateService) GetEstimate(ctx context.Context, projectID uint) (*domain.EstimateDTO, error) {
	var estimate *domain.EstimateDTO
	err := database.Transaction(ctx, s.db, database.ReadOnlyTxOptions(s.db), func(tx *gorm.DB) error {
		project, err := s.projectRepo.WithTx(tx).GetByID(ctx, projectID)
		if err != nil {
			return notFound(err, "project", projectID)
		}
		items, err := s.itemRepo.WithTx(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list estimate items: %w", err)
		}

		estimate = &domain.EstimateDTO{
			Project: mapper.ToProjectDTO(project),
			Items:   mapper.ToEstimateItemDTOs(items),
			Total:   sumLineAmounts(items),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return estimate, nil
}

func recomputeEstimate(ctx context.Context, projects *repository.ProjectRepository, items *repository.EstimateItemRepository, projectID uint) (decimal.Decimal, error) {
	remaining, err := items.ListByProject(ctx, projectID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list estimate items: %w", err)
	}
	total := sumLineAmounts(remaining)
	if err := projects.UpdateEstimatedAmount(ctx, projectID, total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update estimated amount: %w", err)
	}
	return total, nil
}

func sumLineAmounts(items []domain.EstimateItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Amount())
	}
	return total
}
