package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/mapper"
	"github.com/freelance-crm/relation-bot/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardService builds the sales dashboard data set
type DashboardService struct {
	projectRepo *repository.ProjectRepository
	logger      *zap.Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(db *gorm.DB, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		projectRepo: repository.NewProjectRepository(db),
		logger:      logger,
	}
}

// GetDashboard returns KPIs, breakdowns and the project table over all projects
func (s *DashboardService) GetDashboard(ctx context.Context) (*domain.DashboardDTO, error) {
	projects, err := s.projectRepo.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return BuildDashboard(projects), nil
}

// BuildDashboard aggregates projects into the dashboard view.
// Projects without a client do not count towards unique clients.
func BuildDashboard(projects []domain.Project) *domain.DashboardDTO {
	dashboard := &domain.DashboardDTO{
		TotalProjects:  len(projects),
		TotalEstimated: decimal.Zero,
		Projects:       make([]domain.DashboardProjectRow, 0, len(projects)),
	}

	clients := make(map[string]struct{})
	byChannel := newLabelCounter()
	byStatus := newLabelCounter()
	byMonth := make(map[string]int)

	for i := range projects {
		p := &projects[i]

		if !p.Status.IsTerminal() {
			dashboard.InProgress++
		}
		if name := p.ClientName(); name != "" {
			clients[name] = struct{}{}
		}
		dashboard.TotalEstimated = dashboard.TotalEstimated.Add(p.EstimatedAmount)
		byChannel.add(p.Channel.Label())
		byStatus.add(p.Status.Label())
		if p.RequestDate != nil {
			byMonth[p.RequestDate.Format("2006-01")]++
		}

		client := p.ClientName()
		if client == "" {
			client = domain.NoClientLabel
		}
		dashboard.Projects = append(dashboard.Projects, domain.DashboardProjectRow{
			ID:       p.ID,
			Name:     p.Name,
			Client:   client,
			Channel:  p.Channel.Label(),
			Status:   p.Status.Label(),
			Deadline: mapper.FormatDate(p.Deadline),
		})
	}

	dashboard.UniqueClients = len(clients)
	dashboard.ByChannel = byChannel.sorted()
	dashboard.ByStatus = byStatus.sorted()

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)
	dashboard.MonthlyTrend = make([]domain.LabelCount, 0, len(months))
	for _, m := range months {
		dashboard.MonthlyTrend = append(dashboard.MonthlyTrend, domain.LabelCount{Label: m, Count: byMonth[m]})
	}

	return dashboard
}

// labelCounter counts labels keeping first-seen order for ties
type labelCounter struct {
	index  map[string]int
	counts []domain.LabelCount
}

func newLabelCounter() *labelCounter {
	return &labelCounter{index: make(map[string]int)}
}

func (c *labelCounter) add(label string) {
	i, ok := c.index[label]
	if !ok {
		i = len(c.counts)
		c.index[label] = i
		c.counts = append(c.counts, domain.LabelCount{Label: label})
	}
	c.counts[i].Count++
}

func (c *labelCounter) sorted() []domain.LabelCount {
	out := append([]domain.LabelCount{}, c.counts...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Count > out[b].Count })
	return out
}
