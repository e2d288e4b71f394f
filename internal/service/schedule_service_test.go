package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 2025-11-15 00:30 in Tokyo is still the 14th in UTC
var scheduleNow = time.Date(2025, 11, 14, 15, 30, 0, 0, time.UTC)

func newScheduleService(t *testing.T) (*service.ScheduleService, *domain.Project, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	svc := service.NewScheduleService(db, service.FixedClock(scheduleNow, tokyo), zap.NewNop())
	project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "Scheduled"})
	return svc, project, db
}

func TestScheduleService_LogTime(t *testing.T) {
	svc, project, _ := newScheduleService(t)
	ctx := context.Background()

	task, err := svc.AddTask(ctx, project.ID, &domain.CreateTaskRequest{Name: "Implement API"})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTodo, task.Status)

	var actual string
	for _, h := range []string{"2.5", "1.5", "2.0"} {
		entry, total, err := svc.LogTime(ctx, task.ID, dec(h), " work ")
		require.NoError(t, err)
		assert.Equal(t, "2025-11-15", entry.WorkDate)
		assert.Equal(t, "work", entry.Description)
		actual = total.StringFixed(2)
	}
	assert.Equal(t, "6.00", actual)

	got, err := svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, dec("6").Equal(got.ActualHours))

	entries, err := svc.ListTimeEntries(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	t.Run("rejects non-positive and oversized hours", func(t *testing.T) {
		for _, h := range []string{"0", "-1", "0.001", "10000"} {
			_, _, err := svc.LogTime(ctx, task.ID, dec(h), "")
			assert.True(t, errors.Is(err, service.ErrInvalidInput), "hours %s: %v", h, err)
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		_, _, err := svc.LogTime(ctx, 9999, dec("1"), "")
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})
}

func TestScheduleService_Milestones(t *testing.T) {
	svc, project, _ := newScheduleService(t)
	ctx := context.Background()

	later, err := svc.AddMilestone(ctx, project.ID, &domain.CreateMilestoneRequest{Name: "Release", DueDate: "2025-12-20"})
	require.NoError(t, err)
	earlier, err := svc.AddMilestone(ctx, project.ID, &domain.CreateMilestoneRequest{Name: "Beta", DueDate: "2025-12-01"})
	require.NoError(t, err)
	assert.Equal(t, domain.MilestonePending, earlier.Status)

	list, err := svc.ListMilestones(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, earlier.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)

	t.Run("completing stamps today", func(t *testing.T) {
		done, err := svc.UpdateMilestoneStatus(ctx, earlier.ID, domain.MilestoneCompleted)
		require.NoError(t, err)
		require.NotNil(t, done.CompletedDate)
		assert.Equal(t, "2025-11-15", *done.CompletedDate)
	})

	t.Run("reopening clears the date", func(t *testing.T) {
		reopened, err := svc.UpdateMilestoneStatus(ctx, earlier.ID, domain.MilestoneDelayed)
		require.NoError(t, err)
		assert.Nil(t, reopened.CompletedDate)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := svc.AddMilestone(ctx, project.ID, &domain.CreateMilestoneRequest{Name: "x", DueDate: "2025-13-01"})
		assert.True(t, errors.Is(err, service.ErrInvalidInput))
		_, err = svc.AddMilestone(ctx, project.ID, &domain.CreateMilestoneRequest{Name: "x"})
		assert.True(t, errors.Is(err, service.ErrInvalidInput))
		_, err = svc.UpdateMilestoneStatus(ctx, earlier.ID, "archived")
		assert.True(t, errors.Is(err, service.ErrInvalidInput))
	})
}

func TestScheduleService_Tasks(t *testing.T) {
	svc, project, db := newScheduleService(t)
	ctx := context.Background()

	milestone, err := svc.AddMilestone(ctx, project.ID, &domain.CreateMilestoneRequest{Name: "Beta", DueDate: "2025-12-01"})
	require.NoError(t, err)

	task, err := svc.AddTask(ctx, project.ID, &domain.CreateTaskRequest{
		Name:           "Login",
		MilestoneID:    &milestone.ID,
		EstimatedHours: decPtr("8"),
		DueDate:        "2025-11-30",
	})
	require.NoError(t, err)
	require.NotNil(t, task.EstimatedHours)
	assert.Equal(t, "8.00", *task.EstimatedHours)

	t.Run("done stamps today and other statuses clear it", func(t *testing.T) {
		done, err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskDone)
		require.NoError(t, err)
		require.NotNil(t, done.CompletedDate)
		assert.Equal(t, "2025-11-15", *done.CompletedDate)

		back, err := svc.UpdateTaskStatus(ctx, task.ID, domain.TaskReview)
		require.NoError(t, err)
		assert.Nil(t, back.CompletedDate)
	})

	t.Run("milestone must belong to the project", func(t *testing.T) {
		other := testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "Other"})
		foreign := testutil.CreateTestMilestone(t, db, other.ID, "Theirs", testutil.Date(2025, 12, 2))

		_, err := svc.AddTask(ctx, project.ID, &domain.CreateTaskRequest{Name: "x", MilestoneID: &foreign.ID})
		assert.True(t, errors.Is(err, service.ErrInvalidInput), "got %v", err)

		missing := uint(9999)
		_, err = svc.AddTask(ctx, project.ID, &domain.CreateTaskRequest{Name: "x", MilestoneID: &missing})
		assert.True(t, errors.Is(err, service.ErrNotFound))
	})

	t.Run("delete removes time entries", func(t *testing.T) {
		_, _, err := svc.LogTime(ctx, task.ID, dec("1"), "")
		require.NoError(t, err)

		require.NoError(t, svc.DeleteTask(ctx, task.ID))
		_, err = svc.GetTask(ctx, task.ID)
		assert.True(t, errors.Is(err, service.ErrNotFound))

		schedule, err := svc.GetSchedule(ctx, project.ID)
		require.NoError(t, err)
		assert.True(t, schedule.ActualHours.IsZero())
		assert.Len(t, schedule.Milestones, 1)
		assert.Empty(t, schedule.Tasks)
	})
}
