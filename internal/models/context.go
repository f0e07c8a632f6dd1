package models

import "time"

// GoalSummary is the trimmed Goal projection carried in a PromptBundle's
// ActiveGoals slot.
type GoalSummary struct {
	GoalID     int64      `json:"goal_id"`
	Title      string     `json:"title"`
	Progress   int        `json:"progress_percent"`
	TargetDate *time.Time `json:"target_date,omitempty"`
}

// EventSummary is the trimmed Event projection carried in a PromptBundle's
// UpcomingEvents slot.
type EventSummary struct {
	EventID int64     `json:"event_id"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Time    *string   `json:"time,omitempty"`
}

// HistoryTurn is one (role, text) pair in a PromptBundle's recent
// conversation window.
type HistoryTurn struct {
	Role MessageRole `json:"role"`
	Text string      `json:"text"`
}

// MaxActiveGoalsInBundle and MaxHistoryTurnsInBundle bound the Context
// Assembler's output so a rendered prompt always fits the model's context
// window.
const (
	MaxActiveGoalsInBundle  = 20
	MaxHistoryTurnsInBundle = 5
	UpcomingEventsWindow    = 7 * 24 * time.Hour
)

// PromptBundle is the opaque, read-only slot set the Context Assembler
// produces for one inbound turn. It never carries side-effecting handles;
// the Intent Parser only reads it.
type PromptBundle struct {
	UserID              string         `json:"user_id"`
	UserName            string         `json:"user_name,omitempty"`
	Timezone            string         `json:"timezone"`
	Now                 time.Time      `json:"now"`
	ActiveGoals         []GoalSummary  `json:"active_goals"`
	UpcomingEvents      []EventSummary `json:"upcoming_events"`
	ConversationHistory []HistoryTurn  `json:"conversation_history"`
	StateContext        map[string]any `json:"state_context,omitempty"`
	CurrentState        DialogStateType `json:"current_state"`
}
