package domain

import "github.com/shopspring/decimal"

// Date-only values are exchanged as YYYY-MM-DD strings
const DateLayout = "2006-01-02"

// ClientDTO is the API view of a client
type ClientDTO struct {
	ID            uint   `json:"id"`
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson,omitempty"`
	ContactEmail  string `json:"contactEmail,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"createdAt"` // ISO 8601
}

// ProjectDTO is the API view of a project
type ProjectDTO struct {
	ID              uint               `json:"id"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	ClientID        *uint              `json:"clientId,omitempty"`
	ClientName      string             `json:"clientName,omitempty"`
	Status          ProjectStatus      `json:"status"`
	StatusLabel     string             `json:"statusLabel"`
	Channel         AcquisitionChannel `json:"channel"`
	ChannelLabel    string             `json:"channelLabel"`
	EstimatedAmount decimal.Decimal    `json:"estimatedAmount"`
	EstimatedHours  *string            `json:"estimatedHours,omitempty"`
	RequestDate     *string            `json:"requestDate,omitempty"`
	StartDate       *string            `json:"startDate,omitempty"`
	Deadline        *string            `json:"deadline,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	CreatedAt       string             `json:"createdAt"`
	UpdatedAt       string             `json:"updatedAt"`
}

// EstimateItemDTO is the API view of an estimate line
type EstimateItemDTO struct {
	ID          uint            `json:"id"`
	ProjectID   uint            `json:"projectId"`
	ItemName    string          `json:"itemName"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	SortOrder   int             `json:"sortOrder"`
}

// EstimateDTO is a project's estimate with all its lines
type EstimateDTO struct {
	Project ProjectDTO        `json:"project"`
	Items   []EstimateItemDTO `json:"items"`
	Total   decimal.Decimal   `json:"total"`
}

// EstimateMutationDTO is returned after a line item is added or deleted
type EstimateMutationDTO struct {
	Item     *EstimateItemDTO `json:"item,omitempty"`
	Found    bool             `json:"found"`
	NewTotal decimal.Decimal  `json:"newTotal"`
}

// MilestoneDTO is the API view of a milestone
type MilestoneDTO struct {
	ID            uint            `json:"id"`
	Code          string          `json:"code"`
	ProjectID     uint            `json:"projectId"`
	Name          string          `json:"name"`
	DueDate       string          `json:"dueDate"`
	Status        MilestoneStatus `json:"status"`
	CompletedDate *string         `json:"completedDate,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// TaskDTO is the API view of a task
type TaskDTO struct {
	ID             uint            `json:"id"`
	Code           string          `json:"code"`
	ProjectID      uint            `json:"projectId"`
	MilestoneID    *uint           `json:"milestoneId,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Status         TaskStatus      `json:"status"`
	EstimatedHours *string         `json:"estimatedHours,omitempty"`
	ActualHours    decimal.Decimal `json:"actualHours"`
	DueDate        *string         `json:"dueDate,omitempty"`
	CompletedDate  *string         `json:"completedDate,omitempty"`
	RedmineIssueID *int            `json:"redmineIssueId,omitempty"`
}

// TimeEntryDTO is the API view of a time entry
type TimeEntryDTO struct {
	ID          uint            `json:"id"`
	TaskID      uint            `json:"taskId"`
	ProjectID   uint            `json:"projectId"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description,omitempty"`
	WorkDate    string          `json:"workDate"`
}

// TimeLogDTO is returned after hours are logged
type TimeLogDTO struct {
	Entry          TimeEntryDTO    `json:"entry"`
	NewActualHours decimal.Decimal `json:"newActualHours"`
}

// ScheduleDTO is a project's milestones and tasks
type ScheduleDTO struct {
	Project     ProjectDTO      `json:"project"`
	Milestones  []MilestoneDTO  `json:"milestones"`
	Tasks       []TaskDTO       `json:"tasks"`
	ActualHours decimal.Decimal `json:"actualHours"`
}

// RedmineConfigDTO is the API view of a project's Redmine link. The API key is never returned.
type RedmineConfigDTO struct {
	ProjectID        uint    `json:"projectId"`
	RedmineURL       string  `json:"redmineUrl"`
	RedmineProjectID string  `json:"redmineProjectId"`
	SyncEnabled      bool    `json:"syncEnabled"`
	LastSyncAt       *string `json:"lastSyncAt,omitempty"`
}

// TaskSyncResultDTO is the outcome of syncing one task
type TaskSyncResultDTO struct {
	TaskID   uint   `json:"taskId"`
	TaskName string `json:"taskName"`
	Success  bool   `json:"success"`
	IssueID  int    `json:"issueId,omitempty"`
	Created  bool   `json:"created,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BulkSyncResultDTO aggregates per-task outcomes
type BulkSyncResultDTO struct {
	ProjectID uint                `json:"projectId"`
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Results   []TaskSyncResultDTO `json:"results"`
}

// ReportArchiveDTO is the API view of an archived report
type ReportArchiveDTO struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	Size        int64  `json:"size"`
	GeneratedAt string `json:"generatedAt"`
}

// LabelCount is a labelled counter used by dashboard breakdowns
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DashboardProjectRow is one row of the dashboard project table
type DashboardProjectRow struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Client   string  `json:"client"`
	Channel  string  `json:"channel"`
	Status   string  `json:"status"`
	Deadline *string `json:"deadline,omitempty"`
}

// DashboardDTO holds the KPIs and breakdowns of all projects
type DashboardDTO struct {
	TotalProjects  int                   `json:"totalProjects"`
	InProgress     int                   `json:"inProgress"`
	UniqueClients  int                   `json:"uniqueClients"`
	TotalEstimated decimal.Decimal       `json:"totalEstimated"`
	ByChannel      []LabelCount          `json:"byChannel"`
	ByStatus       []LabelCount          `json:"byStatus"`
	MonthlyTrend   []LabelCount          `json:"monthlyTrend"`
	Projects       []DashboardProjectRow `json:"projects"`
}

// Request DTOs

type CreateClientRequest struct {
	CompanyName   string `json:"companyName" validate:"required,max=255"`
	ContactPerson string `json:"contactPerson,omitempty" validate:"max=100"`
	ContactEmail  string `json:"contactEmail,omitempty" validate:"omitempty,email"`
	Notes         string `json:"notes,omitempty"`
}

// CreateProjectRequest registers a project. The client is found or created by name.
type CreateProjectRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	ClientName     string           `json:"clientName,omitempty" validate:"max=255"`
	Channel        int              `json:"channel,omitempty" validate:"omitempty,min=1,max=8"`
	Status         int              `json:"status,omitempty" validate:"omitempty,min=1,max=11"`
	RequestDate    string           `json:"requestDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartDate      string           `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Deadline       string           `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EstimatedHours *decimal.Decimal `json:"estimatedHours,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

type UpdateProjectStatusRequest struct {
	Status int `json:"status" validate:"required,min=1,max=11"`
}

// AddEstimateItemRequest adds a line. Quantity defaults to 1 and unit to "式".
type AddEstimateItemRequest struct {
	ItemName    string           `json:"itemName" validate:"required,max=255"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        string           `json:"unit,omitempty" validate:"max=50"`
	UnitPrice   decimal.Decimal  `json:"unitPrice"`
	Description string           `json:"description,omitempty"`
	SortOrder   *int             `json:"sortOrder,omitempty"`
}

type CreateMilestoneRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Description string `json:"description,omitempty"`
}

type UpdateMilestoneStatusRequest struct {
	Status MilestoneStatus `json:"status" validate:"required,oneof=pending in_progress completed delayed"`
}

type CreateTaskRequest struct {
	Name           string           `json:"name" validate:"required,max=255"`
	MilestoneID    *uint            `json:"milestoneId,omitempty"`
	EstimatedHours *decimal.Decimal `json:"estimatedHours,omitempty"`
	DueDate        string           `json:"dueDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description    string           `json:"description,omitempty"`
}

type UpdateTaskStatusRequest struct {
	Status TaskStatus `json:"status" validate:"required,oneof=todo in_progress review done"`
}

type LogTimeRequest struct {
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description,omitempty"`
}

type SetupRedmineRequest struct {
	RedmineURL       string `json:"redmineUrl" validate:"required,url"`
	RedmineProjectID string `json:"redmineProjectId" validate:"required,max=100"`
	APIKey           string `json:"apiKey" validate:"required"`
}
