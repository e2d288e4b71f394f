package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseModel carries the auto-increment id and timestamps shared by all tables.
// Chat commands address records by this number.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Client is a customer company. CompanyName is the display key used for grouping.
type Client struct {
	BaseModel
	CompanyName   string `gorm:"type:varchar(255);not null;uniqueIndex"`
	ContactPerson string `gorm:"type:varchar(100)"`
	ContactEmail  string `gorm:"type:varchar(255)"`
	Notes         string `gorm:"type:text"`
}

// Project is a sales opportunity or engagement for a client
type Project struct {
	BaseModel
	ClientID        *uint               `gorm:"index"`
	Client          *Client             `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL"`
	Name            string              `gorm:"type:varchar(255);not null"`
	Status          ProjectStatus       `gorm:"column:status_id;not null;index"`
	Channel         AcquisitionChannel  `gorm:"column:acquisition_channel_id;not null"`
	EstimatedAmount decimal.Decimal     `gorm:"type:numeric(16,4);not null"`
	EstimatedHours  decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	RequestDate     *time.Time          `gorm:"type:date"`
	StartDate       *time.Time          `gorm:"type:date"`
	Deadline        *time.Time          `gorm:"type:date"`
	Notes           string              `gorm:"type:text"`
}

// ClientName returns the linked client's company name, or "" when there is none or it was not loaded
func (p *Project) ClientName() string {
	if p.Client == nil {
		return ""
	}
	return p.Client.CompanyName
}

// EstimateItem is one line of a project estimate.
// The owning project's EstimatedAmount is the sum of Amount over all its items.
type EstimateItem struct {
	BaseModel
	ProjectID   uint            `gorm:"not null;index"`
	ItemName    string          `gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Unit        string          `gorm:"type:varchar(50);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Description string          `gorm:"type:text"`
	SortOrder   int             `gorm:"not null"`
}

// Amount returns quantity × unit price
func (i *EstimateItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Milestone is a dated checkpoint in a project schedule
type Milestone struct {
	BaseModel
	ProjectID     uint            `gorm:"not null;index"`
	Name          string          `gorm:"type:varchar(255);not null"`
	DueDate       time.Time       `gorm:"type:date;not null"`
	Status        MilestoneStatus `gorm:"type:varchar(20);not null"`
	CompletedDate *time.Time      `gorm:"type:date"`
	Description   string          `gorm:"type:text"`
	SortOrder     int             `gorm:"not null"`
}

// Task is a unit of work. ActualHours is the sum of its time entries.
type Task struct {
	BaseModel
	ProjectID      uint                `gorm:"not null;index"`
	MilestoneID    *uint               `gorm:"index"`
	Name           string              `gorm:"type:varchar(255);not null"`
	Description    string              `gorm:"type:text"`
	Status         TaskStatus          `gorm:"type:varchar(20);not null;index"`
	EstimatedHours decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	ActualHours    decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	DueDate        *time.Time          `gorm:"type:date"`
	CompletedDate  *time.Time          `gorm:"type:date"`
	RedmineIssueID *int                `gorm:"index"`
	SortOrder      int                 `gorm:"not null"`
}

// IsSynced reports whether the task has been pushed to the issue tracker
func (t *Task) IsSynced() bool {
	return t.RedmineIssueID != nil
}

// TimeEntry is hours logged against a task on a work date
type TimeEntry struct {
	BaseModel
	TaskID      uint            `gorm:"not null;index"`
	ProjectID   uint            `gorm:"not null;index"`
	Hours       decimal.Decimal `gorm:"type:numeric(6,2);not null"`
	Description string          `gorm:"type:text"`
	WorkDate    time.Time       `gorm:"type:date;not null"`
}

// RedmineConfig links a project to a Redmine project. One per project.
type RedmineConfig struct {
	BaseModel
	ProjectID        uint   `gorm:"not null;uniqueIndex"`
	RedmineURL       string `gorm:"type:varchar(500);not null"`
	RedmineProjectID string `gorm:"type:varchar(100);not null"`
	APIKey           string `gorm:"type:varchar(255);not null"`
	SyncEnabled      bool   `gorm:"not null"`
	LastSyncAt       *time.Time
}

// ReportArchive records a rendered monthly report stored in file storage
type ReportArchive struct {
	BaseModel
	Year        int       `gorm:"not null;uniqueIndex:idx_report_archive_period"`
	Month       int       `gorm:"not null;uniqueIndex:idx_report_archive_period"`
	StoragePath string    `gorm:"type:varchar(500);not null"`
	Size        int64     `gorm:"not null"`
	GeneratedAt time.Time `gorm:"not null"`
}
