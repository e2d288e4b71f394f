package domain

import "fmt"

// ProjectStatus is the numeric sales/delivery status of a project
type ProjectStatus int

const (
	StatusInquiry        ProjectStatus = 1
	StatusEstimating     ProjectStatus = 2
	StatusEstimateSent   ProjectStatus = 3
	StatusNegotiating    ProjectStatus = 4
	StatusOrderConfirmed ProjectStatus = 5
	StatusInProgress     ProjectStatus = 6
	StatusInReview       ProjectStatus = 7
	StatusDelivered      ProjectStatus = 8
	StatusCompleted      ProjectStatus = 9
	StatusLost           ProjectStatus = 10
	StatusCancelled      ProjectStatus = 11
)

// UnknownStatusLabel is shown for codes outside the status table
const UnknownStatusLabel = "Unknown"

// NoClientLabel is shown in place of a missing client
const NoClientLabel = "Unknown"

var statusLabels = map[ProjectStatus]string{
	StatusInquiry:        "Inquiry",
	StatusEstimating:     "Estimating",
	StatusEstimateSent:   "Estimate sent",
	StatusNegotiating:    "Negotiating",
	StatusOrderConfirmed: "Order confirmed",
	StatusInProgress:     "In progress",
	StatusInReview:       "In review",
	StatusDelivered:      "Delivered",
	StatusCompleted:      "Completed",
	StatusLost:           "Lost",
	StatusCancelled:      "Cancelled",
}

// Label returns the display name of the status
func (s ProjectStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return UnknownStatusLabel
}

// IsValid reports whether s is in the status table
func (s ProjectStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsWon reports whether the project was won (order confirmed through completed)
func (s ProjectStatus) IsWon() bool {
	return s >= StatusOrderConfirmed && s <= StatusCompleted
}

// IsLost reports whether the project was lost or cancelled
func (s ProjectStatus) IsLost() bool {
	return s == StatusLost || s == StatusCancelled
}

// IsTerminal reports whether no further work is expected
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusCompleted || s.IsLost()
}

// TerminalStatuses lists the codes excluded from in-progress counts
func TerminalStatuses() []ProjectStatus {
	return []ProjectStatus{StatusCompleted, StatusLost, StatusCancelled}
}

// AllStatuses returns every status in display order
func AllStatuses() []ProjectStatus {
	out := make([]ProjectStatus, 0, len(statusLabels))
	for s := StatusInquiry; s <= StatusCancelled; s++ {
		out = append(out, s)
	}
	return out
}

// AcquisitionChannel is how a project was acquired
type AcquisitionChannel int

const (
	ChannelLancers     AcquisitionChannel = 1
	ChannelCrowdWorks  AcquisitionChannel = 2
	ChannelCoconala    AcquisitionChannel = 3
	ChannelTwitter     AcquisitionChannel = 4
	ChannelLinkedIn    AcquisitionChannel = 5
	ChannelReferral    AcquisitionChannel = 6
	ChannelDirectSales AcquisitionChannel = 7
	ChannelOther       AcquisitionChannel = 8
)

var channelLabels = map[AcquisitionChannel]string{
	ChannelLancers:     "Lancers",
	ChannelCrowdWorks:  "CrowdWorks",
	ChannelCoconala:    "Coconala",
	ChannelTwitter:     "Twitter/X",
	ChannelLinkedIn:    "LinkedIn",
	ChannelReferral:    "Referral",
	ChannelDirectSales: "Direct sales",
	ChannelOther:       "Other",
}

// Label returns the display name of the channel; unknown codes fall into "Other"
func (c AcquisitionChannel) Label() string {
	if label, ok := channelLabels[c]; ok {
		return label
	}
	return channelLabels[ChannelOther]
}

// IsValid reports whether c is in the channel table
func (c AcquisitionChannel) IsValid() bool {
	_, ok := channelLabels[c]
	return ok
}

// AllChannels returns every channel in display order
func AllChannels() []AcquisitionChannel {
	out := make([]AcquisitionChannel, 0, len(channelLabels))
	for c := ChannelLancers; c <= ChannelOther; c++ {
		out = append(out, c)
	}
	return out
}

// MilestoneStatus is the state of a milestone
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneDelayed    MilestoneStatus = "delayed"
)

// IsValid reports whether s is a known milestone status
func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted, MilestoneDelayed:
		return true
	}
	return false
}

// Emoji returns the chat marker for the status
func (s MilestoneStatus) Emoji() string {
	switch s {
	case MilestoneInProgress:
		return "🔵"
	case MilestoneCompleted:
		return "✅"
	case MilestoneDelayed:
		return "🔴"
	default:
		return "⬜"
	}
}

// TaskStatus is the state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

// IsValid reports whether s is a known task status
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskDone:
		return true
	}
	return false
}

// Emoji returns the chat marker for the status
func (s TaskStatus) Emoji() string {
	switch s {
	case TaskInProgress:
		return "🔵"
	case TaskReview:
		return "🟡"
	case TaskDone:
		return "✅"
	default:
		return "⬜"
	}
}

// ProjectCode formats a project id the way chat messages show it
func ProjectCode(id uint) string {
	return fmt.Sprintf("PRJ-%04d", id)
}

// TaskCode formats a task id the way chat messages show it
func TaskCode(id uint) string {
	return fmt.Sprintf("TASK-%d", id)
}

// MilestoneCode formats a milestone id the way chat messages show it
func MilestoneCode(id uint) string {
	return fmt.Sprintf("MS-%d", id)
}
