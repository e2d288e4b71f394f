package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProjectService_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewProjectService(db, zap.NewNop())
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		project, err := svc.Register(ctx, &domain.CreateProjectRequest{Name: "  Landing page  "})
		require.NoError(t, err)
		assert.Equal(t, "Landing page", project.Name)
		assert.Equal(t, domain.StatusInquiry, project.Status)
		assert.Equal(t, "Inquiry", project.StatusLabel)
		assert.Equal(t, domain.ChannelOther, project.Channel)
		assert.True(t, project.EstimatedAmount.IsZero())
		assert.Nil(t, project.ClientID)
		assert.Equal(t, domain.ProjectCode(project.ID), project.Code)
	})

	t.Run("client is reused ignoring case and spaces", func(t *testing.T) {
		first, err := svc.Register(ctx, &domain.CreateProjectRequest{Name: "A", ClientName: "Acme Corp", Channel: int(domain.ChannelLancers)})
		require.NoError(t, err)
		second, err := svc.Register(ctx, &domain.CreateProjectRequest{Name: "B", ClientName: " acme CORP "})
		require.NoError(t, err)

		require.NotNil(t, first.ClientID)
		require.NotNil(t, second.ClientID)
		assert.Equal(t, *first.ClientID, *second.ClientID)
		assert.Equal(t, "Acme Corp", second.ClientName)
		assert.Equal(t, "Lancers", first.ChannelLabel)

		var count int64
		require.NoError(t, db.Model(&domain.Client{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("dates and hours", func(t *testing.T) {
		project, err := svc.Register(ctx, &domain.CreateProjectRequest{
			Name:           "Dated",
			RequestDate:    "2025-11-03",
			Deadline:       "2025-12-31",
			EstimatedHours: decPtr("40.125"),
		})
		require.NoError(t, err)
		require.NotNil(t, project.RequestDate)
		assert.Equal(t, "2025-11-03", *project.RequestDate)
		require.NotNil(t, project.EstimatedHours)
		assert.Equal(t, "40.13", *project.EstimatedHours)
	})

	t.Run("invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			req  domain.CreateProjectRequest
		}{
			{"blank name", domain.CreateProjectRequest{Name: " "}},
			{"unknown status", domain.CreateProjectRequest{Name: "x", Status: 12}},
			{"unknown channel", domain.CreateProjectRequest{Name: "x", Channel: 9}},
			{"bad date", domain.CreateProjectRequest{Name: "x", Deadline: "31/12/2025"}},
			{"negative hours", domain.CreateProjectRequest{Name: "x", EstimatedHours: decPtr("-1")}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Register(ctx, &tt.req)
				assert.True(t, errors.Is(err, service.ErrInvalidInput), "got %v", err)
			})
		}
	})
}

func TestProjectService_ListAndStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewProjectService(db, zap.NewNop())
	ctx := context.Background()

	var last *domain.ProjectDTO
	for i := 0; i < 12; i++ {
		p, err := svc.Register(ctx, &domain.CreateProjectRequest{Name: "P", ClientName: "Initech"})
		require.NoError(t, err)
		last = p
	}

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, service.DefaultProjectListLimit)
	assert.Equal(t, last.ID, list[0].ID)

	byClient, err := svc.ListByClient(ctx, *last.ClientID)
	require.NoError(t, err)
	assert.Len(t, byClient, 12)

	_, err = svc.ListByClient(ctx, 9999)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	updated, err := svc.UpdateStatus(ctx, last.ID, domain.StatusOrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, "Order confirmed", updated.StatusLabel)
	assert.Equal(t, "Initech", updated.ClientName)

	_, err = svc.UpdateStatus(ctx, last.ID, domain.ProjectStatus(0))
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	_, err = svc.UpdateStatus(ctx, 9999, domain.StatusLost)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestClientService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewClientService(db, zap.NewNop())
	ctx := context.Background()

	created, err := svc.Create(ctx, &domain.CreateClientRequest{CompanyName: "Globex", ContactPerson: "Hank"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &domain.CreateClientRequest{CompanyName: " GLOBEX "})
	assert.True(t, errors.Is(err, service.ErrConflict))

	_, err = svc.Create(ctx, &domain.CreateClientRequest{CompanyName: ""})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hank", got.ContactPerson)

	found, err := svc.Search(ctx, "han", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	_, err = svc.GetByID(ctx, 9999)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
