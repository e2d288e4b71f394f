package chat

import (
	"strconv"

	"github.com/freelance-crm/relation-bot/internal/domain"
)

// Submission callback ids, one per form
const (
	CallbackProject      = "project_submission"
	CallbackEstimate     = "estimate_submission"
	CallbackMilestone    = "milestone_submission"
	CallbackTask         = "task_submission"
	CallbackRedmineSetup = "redmine_setup_submission"
)

// FieldType tells the chat adapter which input widget to render
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldMultiline FieldType = "multiline"
	FieldNumber    FieldType = "number"
	FieldDate      FieldType = "date"
	FieldSelect    FieldType = "select"
)

// Option is one choice of a select field
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Field is one input of a form. Name is the key of the submitted value.
type Field struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Type        FieldType `json:"type"`
	Optional    bool      `json:"optional,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Initial     string    `json:"initial,omitempty"`
	Options     []Option  `json:"options,omitempty"`
}

// Form describes a modal the adapter opens. Its submission comes back with CallbackID.
type Form struct {
	CallbackID string  `json:"callbackId"`
	Title      string  `json:"title"`
	Submit     string  `json:"submit"`
	Fields     []Field `json:"fields"`
}

func channelOptions() []Option {
	channels := domain.AllChannels()
	opts := make([]Option, 0, len(channels))
	for _, c := range channels {
		opts = append(opts, Option{Label: c.Label(), Value: strconv.Itoa(int(c))})
	}
	return opts
}

func projectIDField(initial string) Field {
	return Field{Name: "project_id", Label: "Project ID", Type: FieldNumber, Placeholder: "e.g. 1", Initial: initial}
}

// ProjectForm registers a new project
func ProjectForm() *Form {
	return &Form{
		CallbackID: CallbackProject,
		Title:      "New project",
		Submit:     "Register",
		Fields: []Field{
			{Name: "project_name", Label: "Project name", Type: FieldText, Placeholder: "e.g. Inventory system for an online shop"},
			{Name: "client_name", Label: "Client", Type: FieldText, Optional: true, Placeholder: "e.g. Acme Inc."},
			{Name: "channel", Label: "Acquisition channel", Type: FieldSelect, Options: channelOptions()},
			{Name: "request_date", Label: "Request date", Type: FieldDate, Optional: true},
			{Name: "deadline", Label: "Deadline", Type: FieldDate, Optional: true},
			{Name: "notes", Label: "Notes", Type: FieldMultiline, Optional: true},
		},
	}
}

// EstimateForm adds a line to a project estimate
func EstimateForm(projectID string) *Form {
	return &Form{
		CallbackID: CallbackEstimate,
		Title:      "Add estimate line",
		Submit:     "Add",
		Fields: []Field{
			projectIDField(projectID),
			{Name: "item_name", Label: "Item", Type: FieldText, Placeholder: "e.g. Requirements definition"},
			{Name: "quantity", Label: "Quantity", Type: FieldNumber, Optional: true, Initial: "1"},
			{Name: "unit", Label: "Unit", Type: FieldText, Optional: true, Placeholder: "e.g. day, hour, set"},
			{Name: "unit_price", Label: "Unit price (¥)", Type: FieldNumber, Placeholder: "e.g. 50000"},
			{Name: "description", Label: "Description", Type: FieldMultiline, Optional: true},
		},
	}
}

// MilestoneForm adds a milestone to a project
func MilestoneForm(projectID string) *Form {
	return &Form{
		CallbackID: CallbackMilestone,
		Title:      "Add milestone",
		Submit:     "Add",
		Fields: []Field{
			projectIDField(projectID),
			{Name: "milestone_name", Label: "Milestone", Type: FieldText, Placeholder: "e.g. Design review"},
			{Name: "due_date", Label: "Due date", Type: FieldDate},
			{Name: "description", Label: "Description", Type: FieldMultiline, Optional: true},
		},
	}
}

// TaskForm adds a task to a project
func TaskForm(projectID string) *Form {
	return &Form{
		CallbackID: CallbackTask,
		Title:      "Add task",
		Submit:     "Add",
		Fields: []Field{
			projectIDField(projectID),
			{Name: "task_name", Label: "Task", Type: FieldText, Placeholder: "e.g. Login screen"},
			{Name: "milestone_id", Label: "Milestone ID", Type: FieldNumber, Optional: true},
			{Name: "estimated_hours", Label: "Estimated hours", Type: FieldNumber, Optional: true},
			{Name: "due_date", Label: "Due date", Type: FieldDate, Optional: true},
			{Name: "description", Label: "Description", Type: FieldMultiline, Optional: true},
		},
	}
}

// RedmineSetupForm links a project to a Redmine project
func RedmineSetupForm(projectID, defaultURL string) *Form {
	return &Form{
		CallbackID: CallbackRedmineSetup,
		Title:      "Redmine setup",
		Submit:     "Save",
		Fields: []Field{
			projectIDField(projectID),
			{Name: "redmine_url", Label: "Redmine URL", Type: FieldText, Placeholder: "https://redmine.example.com", Initial: defaultURL},
			{Name: "redmine_project_id", Label: "Redmine project identifier", Type: FieldText, Placeholder: "e.g. my-project"},
			{Name: "api_key", Label: "API key", Type: FieldText},
		},
	}
}
