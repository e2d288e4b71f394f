package chat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/shopspring/decimal"
)

func decimalValue(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", service.ErrInvalidInput, s)
	}
	return d, nil
}

// optionalDecimal returns nil for blank or unparsable input, which then takes the default
func optionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// optionalID returns nil for blank or unparsable input
func optionalID(s string) *uint {
	if s == "" {
		return nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil
	}
	return &id
}

func (b *Bot) submitProject(ctx context.Context, v map[string]string) (blocks.Message, error) {
	// an unknown channel falls back to Other in the service
	channel, _ := strconv.Atoi(v["channel"])
	if !domain.AcquisitionChannel(channel).IsValid() {
		channel = 0
	}

	req := &domain.CreateProjectRequest{
		Name:        v["project_name"],
		ClientName:  v["client_name"],
		Channel:     channel,
		RequestDate: v["request_date"],
		Deadline:    v["deadline"],
		Notes:       v["notes"],
	}
	if err := b.validate.Struct(req); err != nil {
		return blocks.Message{}, err
	}

	project, err := b.svc.Projects.Register(ctx, req)
	if err != nil {
		return blocks.Message{}, err
	}
	return projectRegisteredMessage(project), nil
}

func (b *Bot) submitEstimate(ctx context.Context, v map[string]string) (blocks.Message, error) {
	projectID, err := parseID(v["project_id"])
	if err != nil {
		return blocks.Message{}, err
	}
	unitPrice, err := decimalValue(v["unit_price"])
	if err != nil {
		return blocks.Message{}, err
	}

	req := &domain.AddEstimateItemRequest{
		ItemName:    v["item_name"],
		Quantity:    optionalDecimal(v["quantity"]),
		Unit:        v["unit"],
		UnitPrice:   unitPrice,
		Description: v["description"],
	}
	if err := b.validate.Struct(req); err != nil {
		return blocks.Message{}, err
	}

	item, total, err := b.svc.Estimates.AddLineItem(ctx, projectID, req)
	if err != nil {
		return blocks.Message{}, err
	}
	return estimateAddedMessage(item, total), nil
}

func (b *Bot) submitMilestone(ctx context.Context, v map[string]string) (blocks.Message, error) {
	projectID, err := parseID(v["project_id"])
	if err != nil {
		return blocks.Message{}, err
	}

	req := &domain.CreateMilestoneRequest{
		Name:        v["milestone_name"],
		DueDate:     v["due_date"],
		Description: v["description"],
	}
	if err := b.validate.Struct(req); err != nil {
		return blocks.Message{}, err
	}

	milestone, err := b.svc.Schedule.AddMilestone(ctx, projectID, req)
	if err != nil {
		return blocks.Message{}, err
	}
	return blocks.Plain(fmt.Sprintf("✅ Milestone added\n*ID:* %s\n*Name:* %s\n*Due:* %s",
		milestone.Code, milestone.Name, milestone.DueDate)), nil
}

func (b *Bot) submitTask(ctx context.Context, v map[string]string) (blocks.Message, error) {
	projectID, err := parseID(v["project_id"])
	if err != nil {
		return blocks.Message{}, err
	}

	req := &domain.CreateTaskRequest{
		Name:           v["task_name"],
		MilestoneID:    optionalID(v["milestone_id"]),
		EstimatedHours: optionalDecimal(v["estimated_hours"]),
		DueDate:        v["due_date"],
		Description:    v["description"],
	}
	if err := b.validate.Struct(req); err != nil {
		return blocks.Message{}, err
	}

	task, err := b.svc.Schedule.AddTask(ctx, projectID, req)
	if err != nil {
		return blocks.Message{}, err
	}
	return blocks.Plain(fmt.Sprintf("✅ Task added\n*ID:* %s\n*Name:* %s\n*Estimated:* %s\n*Due:* %s",
		task.Code, task.Name, hoursText(task.EstimatedHours), dateText(task.DueDate))), nil
}

func (b *Bot) submitRedmineSetup(ctx context.Context, v map[string]string) (blocks.Message, error) {
	projectID, err := parseID(v["project_id"])
	if err != nil {
		return blocks.Message{}, err
	}

	req := &domain.SetupRedmineRequest{
		RedmineURL:       v["redmine_url"],
		RedmineProjectID: v["redmine_project_id"],
		APIKey:           v["api_key"],
	}
	if err := b.validate.Struct(req); err != nil {
		return blocks.Message{}, err
	}

	cfg, err := b.svc.Sync.SetupConfig(ctx, projectID, req)
	if err != nil {
		return blocks.Message{}, err
	}
	return blocks.Plain(fmt.Sprintf("✅ Redmine linked\n*Project:* %s\n*Redmine:* %s (`%s`)",
		domain.ProjectCode(cfg.ProjectID), cfg.RedmineURL, cfg.RedmineProjectID)), nil
}
