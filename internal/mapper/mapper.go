package mapper

import (
	"fmt"
	"time"

	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/shopspring/decimal"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:            client.ID,
		CompanyName:   client.CompanyName,
		ContactPerson: client.ContactPerson,
		ContactEmail:  client.ContactEmail,
		Notes:         client.Notes,
		CreatedAt:     client.CreatedAt.UTC().Format(timestampLayout),
	}
}

// ToProjectDTO converts Project to ProjectDTO. The client must be preloaded for ClientName.
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	return domain.ProjectDTO{
		ID:              project.ID,
		Code:            domain.ProjectCode(project.ID),
		Name:            project.Name,
		ClientID:        project.ClientID,
		ClientName:      project.ClientName(),
		Status:          project.Status,
		StatusLabel:     project.Status.Label(),
		Channel:         project.Channel,
		ChannelLabel:    project.Channel.Label(),
		EstimatedAmount: project.EstimatedAmount,
		EstimatedHours:  formatNullDecimal(project.EstimatedHours),
		RequestDate:     FormatDate(project.RequestDate),
		StartDate:       FormatDate(project.StartDate),
		Deadline:        FormatDate(project.Deadline),
		Notes:           project.Notes,
		CreatedAt:       project.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:       project.UpdatedAt.UTC().Format(timestampLayout),
	}
}

// ToEstimateItemDTO converts EstimateItem to EstimateItemDTO
func ToEstimateItemDTO(item *domain.EstimateItem) domain.EstimateItemDTO {
	return domain.EstimateItemDTO{
		ID:          item.ID,
		ProjectID:   item.ProjectID,
		ItemName:    item.ItemName,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		UnitPrice:   item.UnitPrice,
		Amount:      item.Amount(),
		Description: item.Description,
		SortOrder:   item.SortOrder,
	}
}

// ToEstimateItemDTOs converts a slice of items
func ToEstimateItemDTOs(items []domain.EstimateItem) []domain.EstimateItemDTO {
	dtos := make([]domain.EstimateItemDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, ToEstimateItemDTO(&items[i]))
	}
	return dtos
}

// ToMilestoneDTO converts Milestone to MilestoneDTO
func ToMilestoneDTO(milestone *domain.Milestone) domain.MilestoneDTO {
	return domain.MilestoneDTO{
		ID:            milestone.ID,
		Code:          domain.MilestoneCode(milestone.ID),
		ProjectID:     milestone.ProjectID,
		Name:          milestone.Name,
		DueDate:       milestone.DueDate.Format(domain.DateLayout),
		Status:        milestone.Status,
		CompletedDate: FormatDate(milestone.CompletedDate),
		Description:   milestone.Description,
	}
}

// ToMilestoneDTOs converts a slice of milestones
func ToMilestoneDTOs(milestones []domain.Milestone) []domain.MilestoneDTO {
	dtos := make([]domain.MilestoneDTO, 0, len(milestones))
	for i := range milestones {
		dtos = append(dtos, ToMilestoneDTO(&milestones[i]))
	}
	return dtos
}

// ToTaskDTO converts Task to TaskDTO
func ToTaskDTO(task *domain.Task) domain.TaskDTO {
	return domain.TaskDTO{
		ID:             task.ID,
		Code:           domain.TaskCode(task.ID),
		ProjectID:      task.ProjectID,
		MilestoneID:    task.MilestoneID,
		Name:           task.Name,
		Description:    task.Description,
		Status:         task.Status,
		EstimatedHours: formatNullDecimal(task.EstimatedHours),
		ActualHours:    task.ActualHours,
		DueDate:        FormatDate(task.DueDate),
		CompletedDate:  FormatDate(task.CompletedDate),
		RedmineIssueID: task.RedmineIssueID,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []domain.Task) []domain.TaskDTO {
	dtos := make([]domain.TaskDTO, 0, len(tasks))
	for i := range tasks {
		dtos = append(dtos, ToTaskDTO(&tasks[i]))
	}
	return dtos
}

// ToTimeEntryDTO converts TimeEntry to TimeEntryDTO
func ToTimeEntryDTO(entry *domain.TimeEntry) domain.TimeEntryDTO {
	return domain.TimeEntryDTO{
		ID:          entry.ID,
		TaskID:      entry.TaskID,
		ProjectID:   entry.ProjectID,
		Hours:       entry.Hours,
		Description: entry.Description,
		WorkDate:    entry.WorkDate.Format(domain.DateLayout),
	}
}

// ToRedmineConfigDTO converts RedmineConfig to RedmineConfigDTO, leaving out the API key
func ToRedmineConfigDTO(cfg *domain.RedmineConfig) domain.RedmineConfigDTO {
	dto := domain.RedmineConfigDTO{
		ProjectID:        cfg.ProjectID,
		RedmineURL:       cfg.RedmineURL,
		RedmineProjectID: cfg.RedmineProjectID,
		SyncEnabled:      cfg.SyncEnabled,
	}
	if cfg.LastSyncAt != nil {
		s := cfg.LastSyncAt.UTC().Format(timestampLayout)
		dto.LastSyncAt = &s
	}
	return dto
}

// ToReportArchiveDTO converts ReportArchive to ReportArchiveDTO
func ToReportArchiveDTO(archive *domain.ReportArchive) domain.ReportArchiveDTO {
	return domain.ReportArchiveDTO{
		Year:        archive.Year,
		Month:       archive.Month,
		Size:        archive.Size,
		GeneratedAt: archive.GeneratedAt.UTC().Format(timestampLayout),
	}
}

// FormatDate renders an optional date as YYYY-MM-DD
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}

// ParseDate parses an optional YYYY-MM-DD string. Empty input yields nil.
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

func formatNullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}
