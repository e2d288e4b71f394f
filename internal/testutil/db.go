package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/database"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The database lives until the test finishes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	require.NoError(t, err, "Failed to open test database")
	require.NoError(t, database.AutoMigrate(db), "Failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// CreateTestClient creates a client with the given company name
func CreateTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()
	client := &domain.Client{CompanyName: name}
	require.NoError(t, db.Create(client).Error)
	return client
}

// ProjectFixture describes a project to insert. Zero values get defaults.
type ProjectFixture struct {
	Name      string
	Client    *domain.Client
	Status    domain.ProjectStatus
	Channel   domain.AcquisitionChannel
	Amount    string
	CreatedAt time.Time
	Request   *time.Time
	Deadline  *time.Time
}

// CreateTestProject inserts a project described by f
func CreateTestProject(t *testing.T, db *gorm.DB, f ProjectFixture) *domain.Project {
	t.Helper()

	if f.Name == "" {
		f.Name = "Test Project " + uuid.NewString()[:8]
	}
	if f.Status == 0 {
		f.Status = domain.StatusInquiry
	}
	if f.Channel == 0 {
		f.Channel = domain.ChannelOther
	}
	amount := decimal.Zero
	if f.Amount != "" {
		amount = decimal.RequireFromString(f.Amount)
	}

	project := &domain.Project{
		Name:            f.Name,
		Status:          f.Status,
		Channel:         f.Channel,
		EstimatedAmount: amount,
		RequestDate:     f.Request,
		Deadline:        f.Deadline,
	}
	if !f.CreatedAt.IsZero() {
		project.CreatedAt = f.CreatedAt.UTC()
	}
	if f.Client != nil {
		project.ClientID = &f.Client.ID
	}

	require.NoError(t, db.Omit("Client").Create(project).Error)
	project.Client = f.Client
	return project
}

// CreateTestTask inserts a todo task on the project
func CreateTestTask(t *testing.T, db *gorm.DB, projectID uint, name string) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ProjectID:   projectID,
		Name:        name,
		Status:      domain.TaskTodo,
		ActualHours: decimal.Zero,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// CreateTestMilestone inserts a pending milestone due on dueDate
func CreateTestMilestone(t *testing.T, db *gorm.DB, projectID uint, name string, dueDate time.Time) *domain.Milestone {
	t.Helper()
	milestone := &domain.Milestone{
		ProjectID: projectID,
		Name:      name,
		DueDate:   dueDate,
		Status:    domain.MilestonePending,
	}
	require.NoError(t, db.Create(milestone).Error)
	return milestone
}

// CreateTestRedmineConfig links a project to a Redmine instance
func CreateTestRedmineConfig(t *testing.T, db *gorm.DB, projectID uint, url string, enabled bool) *domain.RedmineConfig {
	t.Helper()
	cfg := &domain.RedmineConfig{
		ProjectID:        projectID,
		RedmineURL:       url,
		RedmineProjectID: "crm",
		APIKey:           "test-key",
		SyncEnabled:      enabled,
	}
	require.NoError(t, db.Create(cfg).Error)
	return cfg
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}
