package notification

import "context"

type Template string

const (
	TemplateJoinRequested   Template = "join_requested"
	TemplateJoinApproved    Template = "join_approved"
	TemplateJoinRejected    Template = "join_rejected"
	TemplateGroupApproved   Template = "group_approved"
	TemplateGroupStarted    Template = "group_started"
	TemplateCycleIncomplete Template = "cycle_incomplete"
	TemplatePayoutDue       Template = "payout_due"
	TemplatePayoutIssued    Template = "payout_issued"
	TemplateWelcome         Template = "welcome"
)

// Message addresses a single user. Data feeds the template.
type Message struct {
	UserID   string
	Template Template
	Data     map[string]any
}

// Sender accepts a message for delivery. A false return means the message
// was dropped; callers log and move on.
type Sender interface {
	Notify(ctx context.Context, msg Message) bool
}

type Noop struct{}

func (Noop) Notify(context.Context, Message) bool { return true }
