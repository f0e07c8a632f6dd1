// Package models defines the core data structures for GoalForge.
//
// Every entity here is per-user-scoped: every query and mutation in the
// store package carries a UserID, and no type in this package encodes a
// cross-user reference.
package models

import "time"

// GoalStatus is the lifecycle status of a Goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusCompleted GoalStatus = "completed"
)

// GoalPriority is a coarse user-declared priority for a Goal.
type GoalPriority string

const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// StepStatus is the lifecycle status of a Step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
)

// EventType distinguishes events the user created directly from events the
// auto-scheduler placed on behalf of a Step.
type EventType string

const (
	EventTypeUser     EventType = "user"
	EventTypeGoalStep EventType = "goal_step"
)

// MessageRole identifies the speaker of a Conversation Message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// UserLevel is the user's self-declared proficiency, consumed by the Goal
// Decomposer when prompting the model for a step list.
type UserLevel string

const (
	UserLevelBeginner     UserLevel = "beginner"
	UserLevelIntermediate UserLevel = "intermediate"
	UserLevelAdvanced     UserLevel = "advanced"
)

// DefaultTimezone is used for a newly created User Profile when none is
// supplied.
const DefaultTimezone = "Europe/Moscow"

// ConversationHistoryWindow bounds the retained Conversation Message window
// per user.
const ConversationHistoryWindow = 50

// User is the per-user profile and notification-toggle record.
type User struct {
	UserID    string `json:"user_id"`
	ChatID    string `json:"chat_id"`
	Timezone  string `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`

	NotifyEventReminder bool `json:"notify_event_reminder"`
	NotifyGoalDeadline  bool `json:"notify_goal_deadline"`
	NotifyStepReminder  bool `json:"notify_step_reminder"`
	NotifyMotivation    bool `json:"notify_motivation"`
	NotifyDigest        bool `json:"notify_digest"`
}

// Goal is a user-declared objective, decomposed into an ordered Step list.
type Goal struct {
	GoalID           int64        `json:"goal_id"`
	UserID           string       `json:"user_id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Status           GoalStatus   `json:"status"`
	ProgressPercent  int          `json:"progress_percent"`
	TargetDate       *time.Time   `json:"target_date,omitempty"`
	Category         string       `json:"category,omitempty"`
	Priority         GoalPriority `json:"priority"`
	IsScheduled      bool         `json:"is_scheduled"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Step is one ordered unit of work belonging to a Goal.
type Step struct {
	StepID          int64      `json:"step_id"`
	GoalID          int64      `json:"goal_id"`
	Title           string     `json:"title"`
	Order           int        `json:"order"`
	Status          StepStatus `json:"status"`
	EstimatedHours  *float64   `json:"estimated_hours,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	PlannedDate     *time.Time `json:"planned_date,omitempty"` // date-only, UTC midnight
	PlannedTime     *string    `json:"planned_time,omitempty"` // "HH:MM" in the owning user's timezone
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	LinkedEventID   *int64     `json:"linked_event_id,omitempty"`
}

// IsScheduled reports whether the step has been placed on the calendar.
func (s *Step) IsScheduled() bool {
	return s.PlannedDate != nil
}

// Event is a calendar entry, either user-authored or placed by the
// auto-scheduler on behalf of a linked Step.
type Event struct {
	EventID               int64      `json:"event_id"`
	UserID                string     `json:"user_id"`
	Title                 string     `json:"title"`
	Date                  time.Time  `json:"date"` // date-only, UTC midnight
	Time                  *string    `json:"time,omitempty"` // "HH:MM"; nil = all-day
	DurationMinutes       int        `json:"duration_minutes"`
	Repeat                string     `json:"repeat,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	EventType             EventType  `json:"event_type"`
	LinkedStepID          *int64     `json:"linked_step_id,omitempty"`
	LinkedGoalID          *int64     `json:"linked_goal_id,omitempty"`
	ReminderMinutesBefore int        `json:"reminder_minutes_before"`
	ReminderEnabled       bool       `json:"reminder_enabled"`
	CreatedAt             time.Time  `json:"created_at"`
}

// DefaultEventDurationMinutes is used when a mutation omits duration.
const DefaultEventDurationMinutes = 60

// DefaultReminderMinutesBefore is used when a mutation omits the reminder lead time.
const DefaultReminderMinutesBefore = 15

// ConversationMessage is one turn of the per-user sliding history window.
type ConversationMessage struct {
	MsgID     int64       `json:"msg_id"`
	UserID    string      `json:"user_id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
	Intent    string      `json:"intent,omitempty"` // set on assistant turns only
}

// ResultSetKind identifies what entity a Result Set's ordered ids refer to.
type ResultSetKind string

const (
	ResultSetKindEvents ResultSetKind = "events"
	ResultSetKindGoals  ResultSetKind = "goals"
	ResultSetKindSteps  ResultSetKind = "steps"
)

// ResultSet is a short-lived ordered list addressable by 1-based ordinal in
// a follow-up intent. It is cached in memory only; see internal/resultset.
type ResultSet struct {
	SetID     string        `json:"set_id"`
	UserID    string        `json:"user_id"`
	Kind      ResultSetKind `json:"kind"`
	OrderedIDs []int64      `json:"ordered_ids"`
	CreatedAt time.Time     `json:"created_at"`
}

// ResultSetTTL is the inactivity expiry for a Result Set.
const ResultSetTTL = time.Hour

// ResultSetCapacity is the per-user LRU capacity for Result Sets.
const ResultSetCapacity = 64
