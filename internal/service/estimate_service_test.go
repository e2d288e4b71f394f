package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func reloadProject(t *testing.T, db *gorm.DB, id uint) *domain.Project {
	t.Helper()
	var p domain.Project
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

func TestEstimateService_AddLineItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEstimateService(db, zap.NewNop())
	ctx := context.Background()
	project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "Website"})

	t.Run("defaults quantity and unit", func(t *testing.T) {
		item, total, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{
			ItemName:  "Design",
			UnitPrice: dec("50000"),
		})
		require.NoError(t, err)
		assert.Equal(t, service.DefaultUnit, item.Unit)
		assert.True(t, dec("1").Equal(item.Quantity))
		assert.Equal(t, 1, item.SortOrder)
		assert.True(t, dec("50000").Equal(total), "total = %s", total)
	})

	t.Run("total is the sum of all lines", func(t *testing.T) {
		item, total, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{
			ItemName:  "Coding",
			Quantity:  decPtr("2.5"),
			Unit:      "day",
			UnitPrice: dec("40000"),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, item.SortOrder)
		assert.True(t, dec("100000").Equal(item.Amount))
		assert.True(t, dec("150000").Equal(total), "total = %s", total)

		stored := reloadProject(t, db, project.ID)
		assert.True(t, dec("150000").Equal(stored.EstimatedAmount), "stored = %s", stored.EstimatedAmount)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			req  domain.AddEstimateItemRequest
		}{
			{"blank name", domain.AddEstimateItemRequest{ItemName: "  ", UnitPrice: dec("1")}},
			{"negative price", domain.AddEstimateItemRequest{ItemName: "x", UnitPrice: dec("-1")}},
			{"negative quantity", domain.AddEstimateItemRequest{ItemName: "x", Quantity: decPtr("-2"), UnitPrice: dec("1")}},
			{"quantity below cents", domain.AddEstimateItemRequest{ItemName: "x", Quantity: decPtr("0.335"), UnitPrice: dec("1")}},
			{"price below cents", domain.AddEstimateItemRequest{ItemName: "x", UnitPrice: dec("10.005")}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := svc.AddLineItem(ctx, project.ID, &tt.req)
				assert.True(t, errors.Is(err, service.ErrInvalidInput), "got %v", err)
			})
		}
	})

	t.Run("trailing zeros are exact", func(t *testing.T) {
		item, _, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{ItemName: "z", Quantity: decPtr("1.500"), UnitPrice: dec("200.10")})
		require.NoError(t, err)
		assert.True(t, dec("300.15").Equal(item.Amount), "amount = %s", item.Amount)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, _, err := svc.AddLineItem(ctx, 9999, &domain.AddEstimateItemRequest{ItemName: "x", UnitPrice: dec("1")})
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})
}

func TestEstimateService_DeleteLineItem(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEstimateService(db, zap.NewNop())
	ctx := context.Background()

	t.Run("deleting the only line resets the amount", func(t *testing.T) {
		project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{})
		item, total, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{
			ItemName:  "Support",
			Quantity:  decPtr("2"),
			UnitPrice: dec("500"),
		})
		require.NoError(t, err)
		require.True(t, dec("1000").Equal(total))

		found, total, err := svc.DeleteLineItem(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.True(t, total.IsZero())
		assert.True(t, reloadProject(t, db, project.ID).EstimatedAmount.IsZero())
	})

	t.Run("remaining lines are kept in the total", func(t *testing.T) {
		project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{})
		first, _, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{ItemName: "A", UnitPrice: dec("1200.50")})
		require.NoError(t, err)
		_, _, err = svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{ItemName: "B", Quantity: decPtr("3"), UnitPrice: dec("0.10")})
		require.NoError(t, err)

		found, total, err := svc.DeleteLineItem(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.True(t, dec("0.30").Equal(total), "total = %s", total)
	})

	t.Run("missing line", func(t *testing.T) {
		found, total, err := svc.DeleteLineItem(ctx, 424242)
		require.NoError(t, err)
		assert.False(t, found)
		assert.True(t, total.IsZero())
	})
}

func TestEstimateService_GetEstimate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewEstimateService(db, zap.NewNop())
	ctx := context.Background()

	client := testutil.CreateTestClient(t, db, "Acme")
	project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "App", Client: client})
	for _, name := range []string{"Design", "Build"} {
		_, _, err := svc.AddLineItem(ctx, project.ID, &domain.AddEstimateItemRequest{ItemName: name, UnitPrice: dec("1000")})
		require.NoError(t, err)
	}

	estimate, err := svc.GetEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", estimate.Project.ClientName)
	require.Len(t, estimate.Items, 2)
	assert.Equal(t, "Design", estimate.Items[0].ItemName)
	assert.True(t, dec("2000").Equal(estimate.Total))

	_, err = svc.GetEstimate(ctx, 9999)
	assert.True(t, errors.Is(err, service.ErrNotFound))

	_, err = svc.ListLineItems(ctx, 9999)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}
