package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/freelance-crm/relation-bot/internal/blocks"
	"github.com/freelance-crm/relation-bot/internal/chat"
	"github.com/freelance-crm/relation-bot/internal/domain"
	"github.com/freelance-crm/relation-bot/internal/redmine"
	"github.com/freelance-crm/relation-bot/internal/service"
	"github.com/freelance-crm/relation-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubRedmine struct {
	next int
}

func (s *stubRedmine) CreateIssue(ctx context.Context, input redmine.IssueInput) (*redmine.Issue, error) {
	s.next++
	return &redmine.Issue{ID: s.next, Subject: input.Subject}, nil
}

func (s *stubRedmine) GetIssue(ctx context.Context, id int) (*redmine.Issue, error) {
	return &redmine.Issue{ID: id}, nil
}

func (s *stubRedmine) UpdateIssue(ctx context.Context, id int, input redmine.IssueInput) error {
	return nil
}

func (s *stubRedmine) ListProjects(ctx context.Context) ([]redmine.Project, error) {
	return []redmine.Project{{ID: 1, Identifier: "crm", Name: "CRM"}}, nil
}

func (s *stubRedmine) TestConnection(ctx context.Context) error {
	return nil
}

var botNow = time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)

func newBot(t *testing.T) (*chat.Bot, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	clock := service.FixedClock(botNow, time.UTC)
	rm := &stubRedmine{next: 500}

	bot := chat.NewBot(chat.Services{
		Projects:  service.NewProjectService(db, logger),
		Estimates: service.NewEstimateService(db, logger),
		Schedule:  service.NewScheduleService(db, clock, logger),
		Sync:      service.NewSyncService(db, func(string, string) redmine.API { return rm }, clock, logger),
		Reports:   service.NewReportService(db, nil, clock, logger),
	}, "https://redmine.example.com", logger)
	return bot, db
}

func say(t *testing.T, bot *chat.Bot, text string) blocks.Message {
	t.Helper()
	reply, ok := bot.HandleMessage(context.Background(), chat.Message{Text: text, UserID: "U1"})
	require.True(t, ok, "no handler for %q", text)
	return reply
}

func allText(m blocks.Message) string {
	parts := []string{m.Text}
	for _, b := range m.Blocks {
		if b.Text != nil {
			parts = append(parts, b.Text.Text)
		}
		for _, f := range b.Fields {
			parts = append(parts, f.Text)
		}
		for _, e := range b.Elements {
			parts = append(parts, e.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func TestBot_Patterns(t *testing.T) {
	bot, db := newBot(t)
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "Shop"})

	tests := []struct {
		text string
		want string
	}{
		{"hello", "<@U1>"},
		{"Hello bot", "freelance CRM bot"},
		{"help", "/estimate"},
		{"new project", "/project"},
		{"projects", "Shop"},
		{"estimate 1", "Total: ¥0"},
		{"schedule 1", "Schedule - Shop"},
		{"tasks 1", "has no tasks"},
		{"report", "Monthly report 2025-12"},
		{"monthly report 2025 11", "Monthly report 2025-11"},
		{"estimate 999", "Not found"},
		{"estimate delete 999", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Contains(t, allText(say(t, bot, tt.text)), tt.want)
		})
	}

	t.Run("unmatched text", func(t *testing.T) {
		_, ok := bot.HandleMessage(context.Background(), chat.Message{Text: "estimate one"})
		assert.False(t, ok)
		_, ok = bot.HandleMessage(context.Background(), chat.Message{Text: "what's up"})
		assert.False(t, ok)
	})
}

func TestBot_ScheduleFlow(t *testing.T) {
	bot, db := newBot(t)
	ctx := context.Background()
	project := testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "App"})

	reply, err := bot.HandleSubmission(ctx, chat.Submission{
		CallbackID: chat.CallbackTask,
		Values:     map[string]string{"project_id": "1", "task_name": " API ", "estimated_hours": "abc"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Task added")
	assert.Contains(t, reply.Text, "TASK-1")

	var task domain.Task
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, project.ID, task.ProjectID)
	assert.False(t, task.EstimatedHours.Valid, "unparsable hours fall back to none")

	for _, h := range []string{"2.5", "1.5"} {
		say(t, bot, "log 1 "+h)
	}
	last := say(t, bot, "log 1 2.0 wrote tests")
	assert.Contains(t, last.Text, "*Total:* 6.00h")
	assert.Contains(t, last.Text, "wrote tests")

	done := say(t, bot, "task done 1")
	assert.Contains(t, done.Text, "2026-01-10")

	reply, err = bot.HandleSubmission(ctx, chat.Submission{
		CallbackID: chat.CallbackMilestone,
		Values:     map[string]string{"project_id": "1", "milestone_name": "Beta", "due_date": "2026-02-01"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "MS-1")
	assert.Contains(t, say(t, bot, "milestone done 1").Text, "completed")

	assert.Contains(t, say(t, bot, "log 1 0").Text, "hours must be greater than zero")
}

func TestBot_EstimateFlow(t *testing.T) {
	bot, db := newBot(t)
	ctx := context.Background()
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{Name: "Site"})

	reply, err := bot.HandleSubmission(ctx, chat.Submission{
		CallbackID: chat.CallbackEstimate,
		Values:     map[string]string{"project_id": "1", "item_name": "Design", "quantity": "2", "unit_price": "500"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "¥1,000")

	assert.Contains(t, allText(say(t, bot, "estimate 1")), "Total: ¥1,000")
	assert.Contains(t, say(t, bot, "estimate delete 1").Text, "¥0")

	t.Run("bad unit price", func(t *testing.T) {
		reply, err := bot.HandleSubmission(ctx, chat.Submission{
			CallbackID: chat.CallbackEstimate,
			Values:     map[string]string{"project_id": "1", "item_name": "x", "unit_price": "lots"},
		})
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "not a number")
	})

	t.Run("missing item name fails validation", func(t *testing.T) {
		reply, err := bot.HandleSubmission(ctx, chat.Submission{
			CallbackID: chat.CallbackEstimate,
			Values:     map[string]string{"project_id": "1", "unit_price": "1"},
		})
		require.NoError(t, err)
		assert.Contains(t, reply.Text, "Please check the form")
		assert.Contains(t, reply.Text, "ItemName")
	})
}

func TestBot_ProjectSubmission(t *testing.T) {
	bot, _ := newBot(t)

	reply, err := bot.HandleSubmission(context.Background(), chat.Submission{
		CallbackID: chat.CallbackProject,
		Values: map[string]string{
			"project_name": "Inventory",
			"client_name":  "Acme",
			"channel":      "42",
			"deadline":     "2026-03-31",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "PRJ-0001")
	assert.Contains(t, reply.Text, "*Channel:* Other")
	assert.Contains(t, reply.Text, "2026-03-31")

	reply, err = bot.HandleSubmission(context.Background(), chat.Submission{
		CallbackID: chat.CallbackProject,
		Values:     map[string]string{"project_name": "Bad", "deadline": "tomorrow"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Please check the form")
}

func TestBot_Redmine(t *testing.T) {
	bot, db := newBot(t)
	ctx := context.Background()
	testutil.CreateTestProject(t, db, testutil.ProjectFixture{})
	testutil.CreateTestTask(t, db, 1, "First")
	testutil.CreateTestTask(t, db, 1, "Second")

	assert.Contains(t, say(t, bot, "redmine bulk 1").Text, "/redmine-setup")

	reply, err := bot.HandleSubmission(ctx, chat.Submission{
		CallbackID: chat.CallbackRedmineSetup,
		Values:     map[string]string{"project_id": "1", "redmine_url": "https://redmine.example.com", "redmine_project_id": "crm", "api_key": "k"},
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Redmine linked")

	assert.Contains(t, say(t, bot, "redmine sync 1").Text, "#501 created")
	bulk := say(t, bot, "redmine bulk 1").Text
	assert.Contains(t, bulk, "1 created, 0 failed")
	assert.Contains(t, say(t, bot, "redmine bulk 1").Text, "already in Redmine")
}

func TestBot_Commands(t *testing.T) {
	bot, _ := newBot(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		text     string
		callback string
	}{
		{"/project", "", chat.CallbackProject},
		{"/estimate", "7", chat.CallbackEstimate},
		{"/milestone", "", chat.CallbackMilestone},
		{"/task", "7", chat.CallbackTask},
		{"/redmine-setup", "", chat.CallbackRedmineSetup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := bot.HandleCommand(ctx, chat.Command{Name: tt.name, Text: tt.text})
			require.NoError(t, err)
			require.NotNil(t, resp.Form)
			assert.Equal(t, tt.callback, resp.Form.CallbackID)
			if tt.text != "" {
				assert.Equal(t, "project_id", resp.Form.Fields[0].Name)
				assert.Equal(t, tt.text, resp.Form.Fields[0].Initial)
			}
		})
	}

	t.Run("report answers directly", func(t *testing.T) {
		resp, err := bot.HandleCommand(ctx, chat.Command{Name: "/report", Text: "2025 11"})
		require.NoError(t, err)
		require.NotNil(t, resp.Message)
		assert.Nil(t, resp.Form)
		assert.Contains(t, resp.Message.Text, "2025-11")
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := bot.HandleCommand(ctx, chat.Command{Name: "/nope"})
		assert.True(t, errors.Is(err, chat.ErrUnknownCommand))
		_, err = bot.HandleSubmission(ctx, chat.Submission{CallbackID: "nope"})
		assert.True(t, errors.Is(err, chat.ErrUnknownCallback))
	})

	t.Run("redmine form prefilled url", func(t *testing.T) {
		form := chat.RedmineSetupForm("", "https://redmine.example.com")
		assert.Equal(t, "https://redmine.example.com", form.Fields[1].Initial)
	})
}
