package chat

import (
	"fmt"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/report"
	"github.com/shopspring/decimal"
)

const helpText = "*Freelance CRM bot*\n\n" +
	"*Projects*\n" +
	"• `/project` register a project\n" +
	"• `projects` show the 10 newest projects\n\n" +
	"*Estimates*\n" +
	"• `/estimate [project]` add an estimate line\n" +
	"• `estimate <project>` show the estimate\n" +
	"• `estimate delete <line>` delete a line\n\n" +
	"*Schedule*\n" +
	"• `/milestone [project]` add a milestone\n" +
	"• `/task [project]` add a task\n" +
	"• `schedule <project>` show milestones and tasks\n" +
	"• `tasks <project>` list tasks\n" +
	"• `task done <task>` / `milestone done <milestone>`\n" +
	"• `log <task> <hours> [note]` log time\n\n" +
	"*Redmine*\n" +
	"• `/redmine-setup [project]` link a Redmine project\n" +
	"• `redmine sync <task>` / `redmine bulk <project>`\n\n" +
	"*Reports*\n" +
	"• `report` or `/report` last month\n" +
	"• `report 2025 11` a given month"

func hoursText(h *string) string {
	if h == nil {
		return "-"
	}
	return *h + "h"
}

func dateText(d *string) string {
	if d == nil {
		return "-"
	}
	return *d
}

func clientText(name string) string {
	if name == "" {
		return domain.NoClientLabel
	}
	return name
}

func projectRegisteredMessage(p *domain.ProjectDTO) blocks.Message {
	text := fmt.Sprintf("✅ Project registered\n*ID:* %s\n*Name:* %s\n*Client:* %s\n*Channel:* %s\n*Request date:* %s\n*Deadline:* %s",
		p.Code, p.Name, clientText(p.ClientName), p.ChannelLabel, dateText(p.RequestDate), dateText(p.Deadline))
	if p.Notes != "" {
		text += "\n*Notes:* " + p.Notes
	}
	return blocks.Plain(text)
}

func projectListMessage(projects []domain.ProjectDTO) blocks.Message {
	if len(projects) == 0 {
		return blocks.Plain("No projects registered yet.")
	}
	lines := []string{"*Recent projects:*"}
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("• %s: %s (%s) %s", p.Code, p.Name, clientText(p.ClientName), p.StatusLabel))
	}
	return blocks.Plain(strings.Join(lines, "\n"))
}

func estimateMessage(e *domain.EstimateDTO) blocks.Message {
	out := []blocks.Block{
		blocks.Header("📋 Estimate - " + e.Project.Name),
		blocks.Context(fmt.Sprintf("%s | %s", e.Project.Code, clientText(e.Project.ClientName))),
		blocks.Divider(),
	}
	if len(e.Items) == 0 {
		out = append(out, blocks.Section("No estimate lines yet. Add one with `/estimate "+fmt.Sprint(e.Project.ID)+"`."))
	}
	for _, item := range e.Items {
		out = append(out, blocks.Section(fmt.Sprintf("`#%d` *%s*\n%s %s × %s = *%s*",
			item.ID, item.ItemName, item.Quantity.String(), item.Unit, report.FormatYen(item.UnitPrice), report.FormatYen(item.Amount))))
	}
	out = append(out, blocks.Divider(), blocks.Section("*Total: "+report.FormatYen(e.Total)+"*"))

	return blocks.Message{Text: "Estimate - " + e.Project.Name, Blocks: out}
}

func estimateAddedMessage(item *domain.EstimateItemDTO, total decimal.Decimal) blocks.Message {
	return blocks.Plain(fmt.Sprintf("✅ Estimate line added\n*Item:* %s\n*Amount:* %s %s × %s = %s\n*Estimate total:* %s",
		item.ItemName, item.Quantity.String(), item.Unit, report.FormatYen(item.UnitPrice), report.FormatYen(item.Amount), report.FormatYen(total)))
}

func milestoneLine(m domain.MilestoneDTO) string {
	line := fmt.Sprintf("%s %s *%s* (due %s)", m.Status.Emoji(), domain.MilestoneCode(m.ID), m.Name, m.DueDate)
	if m.CompletedDate != nil {
		line += " completed " + *m.CompletedDate
	}
	return line
}

func taskLine(t domain.TaskDTO) string {
	line := fmt.Sprintf("%s %s *%s* %sh / %s", t.Status.Emoji(), t.Code, t.Name, t.ActualHours.StringFixed(2), hoursText(t.EstimatedHours))
	if t.DueDate != nil {
		line += " due " + *t.DueDate
	}
	if t.RedmineIssueID != nil {
		line += fmt.Sprintf(" (Redmine #%d)", *t.RedmineIssueID)
	}
	return line
}

func scheduleMessage(s *domain.ScheduleDTO) blocks.Message {
	out := []blocks.Block{
		blocks.Header("📅 Schedule - " + s.Project.Name),
		blocks.Context(fmt.Sprintf("%s | logged %sh", s.Project.Code, s.ActualHours.StringFixed(2))),
		blocks.Divider(),
	}

	if len(s.Milestones) == 0 {
		out = append(out, blocks.Section("*Milestones*\nNone yet"))
	} else {
		lines := make([]string, 0, len(s.Milestones))
		for _, m := range s.Milestones {
			lines = append(lines, milestoneLine(m))
		}
		out = append(out, blocks.Section("*Milestones*\n"+strings.Join(lines, "\n")))
	}

	if len(s.Tasks) == 0 {
		out = append(out, blocks.Section("*Tasks*\nNone yet"))
	} else {
		lines := make([]string, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			lines = append(lines, taskLine(t))
		}
		out = append(out, blocks.Section("*Tasks*\n"+strings.Join(lines, "\n")))
	}

	return blocks.Message{Text: "Schedule - " + s.Project.Name, Blocks: out}
}

func taskListMessage(projectID uint, tasks []domain.TaskDTO) blocks.Message {
	if len(tasks) == 0 {
		return blocks.Plain(fmt.Sprintf("Project %s has no tasks.", domain.ProjectCode(projectID)))
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, taskLine(t))
	}
	return blocks.Message{
		Text:   "Tasks",
		Blocks: []blocks.Block{blocks.Header("Tasks - " + domain.ProjectCode(projectID)), blocks.Section(strings.Join(lines, "\n"))},
	}
}

func bulkSyncMessage(r *domain.BulkSyncResultDTO) blocks.Message {
	lines := []string{fmt.Sprintf("✅ Redmine bulk sync finished: %d created, %d failed", r.Succeeded, r.Failed)}
	for _, t := range r.Results {
		if t.Success {
			lines = append(lines, fmt.Sprintf("• %s %s → #%d", domain.TaskCode(t.TaskID), t.TaskName, t.IssueID))
		} else {
			lines = append(lines, fmt.Sprintf("• ❌ %s %s: %s", domain.TaskCode(t.TaskID), t.TaskName, t.Error))
		}
	}
	return blocks.Plain(strings.Join(lines, "\n"))
}
