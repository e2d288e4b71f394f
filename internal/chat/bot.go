// Package chat turns chat messages, slash commands and form submissions into service calls.
// It knows nothing about a particular chat platform; a bridge delivers the input and
// renders the returned messages and forms.
package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/redmine"
	"github.com/freelance-crm/relation-bot/internal/report"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	// ErrUnknownCommand is returned for slash commands the bot does not handle
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnknownCallback is returned for submissions of forms the bot never opened
	ErrUnknownCallback = errors.New("unknown form callback")
)

// Message is an incoming chat message
type Message struct {
	Text   string `json:"text"`
	UserID string `json:"userId,omitempty"`
}

// Command is an incoming slash command. Name includes the leading slash.
type Command struct {
	Name   string `json:"command"`
	Text   string `json:"text,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// Submission is a submitted form
type Submission struct {
	CallbackID string            `json:"callbackId"`
	Values     map[string]string `json:"values"`
	UserID     string            `json:"userId,omitempty"`
}

// Response is either a message to post or a form to open
type Response struct {
	Message *blocks.Message `json:"message,omitempty"`
	Form    *Form           `json:"form,omitempty"`
}

// Services are the operations the bot drives
type Services struct {
	Projects  *service.ProjectService
	Estimates *service.EstimateService
	Schedule  *service.ScheduleService
	Sync      *service.SyncService
	Reports   *service.ReportService
}

type messageHandler func(ctx context.Context, msg Message, args []string) (blocks.Message, error)

type route struct {
	pattern *regexp.Regexp
	handle  messageHandler
}

// Bot dispatches chat input. It is safe for concurrent use.
type Bot struct {
	svc               Services
	defaultRedmineURL string
	validate          *validator.Validate
	logger            *zap.Logger
	routes            []route
	commands          map[string]func(ctx context.Context, cmd Command) (*Response, error)
	submissions       map[string]func(ctx context.Context, values map[string]string) (blocks.Message, error)
}

// NewBot creates a Bot. defaultRedmineURL pre-fills the setup form.
func NewBot(svc Services, defaultRedmineURL string, logger *zap.Logger) *Bot {
	b := &Bot{
		svc:               svc,
		defaultRedmineURL: defaultRedmineURL,
		validate:          validator.New(),
		logger:            logger,
	}

	b.hear(`^hello\b`, b.greet)
	b.hear(`^help$`, b.help)
	b.hear(`^new project$`, b.newProject)
	b.hear(`^projects$`, b.listProjects)
	b.hear(`^estimate\s+(\d+)$`, b.showEstimate)
	b.hear(`^estimate delete\s+(\d+)$`, b.deleteEstimateItem)
	b.hear(`^schedule\s+(\d+)$`, b.showSchedule)
	b.hear(`^tasks\s+(\d+)$`, b.listTasks)
	b.hear(`^task done\s+(\d+)$`, b.taskDone)
	b.hear(`^milestone done\s+(\d+)$`, b.milestoneDone)
	b.hear(`^log\s+(\d+)\s+(\d+(?:\.\d+)?)(?:\s+(.+))?$`, b.logTime)
	b.hear(`^(monthly )?report(\s+\d{4}\s+\d{1,2})?$`, b.monthlyReport)
	b.hear(`^redmine sync\s+(\d+)$`, b.syncTask)
	b.hear(`^redmine bulk\s+(\d+)$`, b.bulkSync)

	b.commands = map[string]func(ctx context.Context, cmd Command) (*Response, error){
		"/project":       b.projectCommand,
		"/estimate":      b.estimateCommand,
		"/milestone":     b.milestoneCommand,
		"/task":          b.taskCommand,
		"/redmine-setup": b.redmineSetupCommand,
		"/report":        b.reportCommand,
	}

	b.submissions = map[string]func(ctx context.Context, values map[string]string) (blocks.Message, error){
		CallbackProject:      b.submitProject,
		CallbackEstimate:     b.submitEstimate,
		CallbackMilestone:    b.submitMilestone,
		CallbackTask:         b.submitTask,
		CallbackRedmineSetup: b.submitRedmineSetup,
	}

	return b
}

func (b *Bot) hear(pattern string, h messageHandler) {
	b.routes = append(b.routes, route{pattern: regexp.MustCompile(`(?i)` + pattern), handle: h})
}

// HandleMessage answers a message. ok is false when no pattern matches.
func (b *Bot) HandleMessage(ctx context.Context, msg Message) (reply blocks.Message, ok bool) {
	text := strings.TrimSpace(msg.Text)
	for _, r := range b.routes {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out, err := r.handle(ctx, msg, m[1:])
		if err != nil {
			return b.errorReply(err), true
		}
		return out, true
	}
	return blocks.Message{}, false
}

// HandleCommand answers a slash command, usually with a form to open
func (b *Bot) HandleCommand(ctx context.Context, cmd Command) (*Response, error) {
	h, ok := b.commands[strings.ToLower(strings.TrimSpace(cmd.Name))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name)
	}
	resp, err := h(ctx, cmd)
	if err != nil {
		reply := b.errorReply(err)
		return &Response{Message: &reply}, nil
	}
	return resp, nil
}

// HandleSubmission processes a submitted form and returns the confirmation or the problem
func (b *Bot) HandleSubmission(ctx context.Context, sub Submission) (blocks.Message, error) {
	h, ok := b.submissions[sub.CallbackID]
	if !ok {
		return blocks.Message{}, fmt.Errorf("%w: %s", ErrUnknownCallback, sub.CallbackID)
	}
	values := make(map[string]string, len(sub.Values))
	for k, v := range sub.Values {
		values[k] = strings.TrimSpace(v)
	}
	reply, err := h(ctx, values)
	if err != nil {
		return b.errorReply(err), nil
	}
	return reply, nil
}

// errorReply turns a failure into a user-facing message. Unexpected errors are logged
// and reported generically.
func (b *Bot) errorReply(err error) blocks.Message {
	var apiErr *redmine.APIError
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		lines := []string{"⚠️ Please check the form:"}
		for _, fe := range verrs {
			lines = append(lines, fmt.Sprintf("• %s: %s", fe.Field(), domain.GetValidationMessage(fe.Tag())))
		}
		return blocks.Plain(strings.Join(lines, "\n"))
	case errors.Is(err, service.ErrSyncNotConfigured):
		return blocks.Plain("⚠️ Redmine is not set up for this project. Run `/redmine-setup` first.")
	case errors.Is(err, service.ErrNothingToSync):
		return blocks.Plain("ℹ️ Every task of this project is already in Redmine.")
	case errors.Is(err, service.ErrRemoteProjectNotFound):
		return blocks.Plain("⚠️ " + err.Error())
	case errors.Is(err, redmine.ErrTransport), errors.As(err, &apiErr):
		return blocks.Plain("❌ Redmine error: " + err.Error())
	case errors.Is(err, service.ErrNotFound):
		return blocks.Plain("❓ Not found: " + err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrConflict):
		return blocks.Plain("⚠️ " + err.Error())
	default:
		b.logger.Error("chat request failed", zap.Error(err))
		return blocks.Plain("❌ Something went wrong. Please try again.")
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", service.ErrInvalidInput, s)
	}
	return uint(id), nil
}

func (b *Bot) greet(ctx context.Context, msg Message, _ []string) (blocks.Message, error) {
	who := "there"
	if msg.UserID != "" {
		who = "<@" + msg.UserID + ">"
	}
	return blocks.Plain(fmt.Sprintf("Hello %s! I'm the freelance CRM bot. Send `help` to see what I can do.", who)), nil
}

func (b *Bot) help(context.Context, Message, []string) (blocks.Message, error) {
	return blocks.Plain(helpText), nil
}

func (b *Bot) newProject(context.Context, Message, []string) (blocks.Message, error) {
	return blocks.Message{
		Text:   "Register a new project?",
		Blocks: []blocks.Block{blocks.Section("Register a new project? Run `/project` to open the form.")},
	}, nil
}

func (b *Bot) listProjects(ctx context.Context, _ Message, _ []string) (blocks.Message, error) {
	projects, err := b.svc.Projects.List(ctx, service.DefaultProjectListLimit)
	if err != nil {
		return blocks.Message{}, err
	}
	return projectListMessage(projects), nil
}

func (b *Bot) showEstimate(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	estimate, err := b.svc.Estimates.GetEstimate(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	return estimateMessage(estimate), nil
}

func (b *Bot) deleteEstimateItem(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	found, total, err := b.svc.Estimates.DeleteLineItem(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	if !found {
		return blocks.Plain(fmt.Sprintf("❓ Estimate line #%d not found.", id)), nil
	}
	return blocks.Plain(fmt.Sprintf("🗑️ Estimate line #%d deleted\n*New total:* %s", id, report.FormatYen(total))), nil
}

func (b *Bot) showSchedule(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	schedule, err := b.svc.Schedule.GetSchedule(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	return scheduleMessage(schedule), nil
}

func (b *Bot) listTasks(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	tasks, err := b.svc.Schedule.ListTasks(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	return taskListMessage(id, tasks), nil
}

func (b *Bot) taskDone(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	task, err := b.svc.Schedule.UpdateTaskStatus(ctx, id, domain.TaskDone)
	if err != nil {
		return blocks.Message{}, err
	}
	return blocks.Plain(fmt.Sprintf("✅ %s %s is done (%s)", task.Code, task.Name, dateText(task.CompletedDate))), nil
}

func (b *Bot) milestoneDone(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	milestone, err := b.svc.Schedule.UpdateMilestoneStatus(ctx, id, domain.MilestoneCompleted)
	if err != nil {
		return blocks.Message{}, err
	}
	return blocks.Plain(fmt.Sprintf("✅ %s %s is completed (%s)", milestone.Code, milestone.Name, dateText(milestone.CompletedDate))), nil
}

func (b *Bot) logTime(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	hours, err := decimalValue(args[1])
	if err != nil {
		return blocks.Message{}, err
	}
	entry, actual, err := b.svc.Schedule.LogTime(ctx, id, hours, args[2])
	if err != nil {
		return blocks.Message{}, err
	}
	text := fmt.Sprintf("🕒 Time logged\n*Task:* %s\n*Hours:* %sh\n*Total:* %sh",
		domain.TaskCode(entry.TaskID), entry.Hours.StringFixed(2), actual.StringFixed(2))
	if entry.Description != "" {
		text += "\n*Note:* " + entry.Description
	}
	return blocks.Plain(text), nil
}

func (b *Bot) monthlyReport(ctx context.Context, msg Message, _ []string) (blocks.Message, error) {
	year, month := report.ParseYearMonth(msg.Text)
	r, err := b.svc.Reports.Generate(ctx, year, month)
	if err != nil {
		return blocks.Message{}, err
	}
	return r.Message(), nil
}

func (b *Bot) syncTask(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	result, err := b.svc.Sync.SyncTask(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	verb := "updated"
	if result.Created {
		verb = "created"
	}
	return blocks.Plain(fmt.Sprintf("✅ Redmine issue #%d %s for %s %s", result.IssueID, verb, domain.TaskCode(result.TaskID), result.TaskName)), nil
}

func (b *Bot) bulkSync(ctx context.Context, _ Message, args []string) (blocks.Message, error) {
	id, err := parseID(args[0])
	if err != nil {
		return blocks.Message{}, err
	}
	result, err := b.svc.Sync.BulkSync(ctx, id)
	if err != nil {
		return blocks.Message{}, err
	}
	return bulkSyncMessage(result), nil
}

// firstID returns the first word of a command's text when it is a number, for pre-filling forms
func firstID(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	if _, err := parseID(fields[0]); err != nil {
		return ""
	}
	return fields[0]
}

func (b *Bot) projectCommand(context.Context, Command) (*Response, error) {
	return &Response{Form: ProjectForm()}, nil
}

func (b *Bot) estimateCommand(_ context.Context, cmd Command) (*Response, error) {
	return &Response{Form: EstimateForm(firstID(cmd.Text))}, nil
}

func (b *Bot) milestoneCommand(_ context.Context, cmd Command) (*Response, error) {
	return &Response{Form: MilestoneForm(firstID(cmd.Text))}, nil
}

func (b *Bot) taskCommand(_ context.Context, cmd Command) (*Response, error) {
	return &Response{Form: TaskForm(firstID(cmd.Text))}, nil
}

func (b *Bot) redmineSetupCommand(_ context.Context, cmd Command) (*Response, error) {
	return &Response{Form: RedmineSetupForm(firstID(cmd.Text), b.defaultRedmineURL)}, nil
}

func (b *Bot) reportCommand(ctx context.Context, cmd Command) (*Response, error) {
	year, month := report.ParseYearMonth(cmd.Text)
	r, err := b.svc.Reports.Generate(ctx, year, month)
	if err != nil {
		return nil, err
	}
	msg := r.Message()
	return &Response{Message: &msg}, nil
}
