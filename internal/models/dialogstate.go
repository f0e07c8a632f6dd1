package models

import "time"

// DialogStateType is one of the finite labeled positions the Dialog State
// Machine can park a user in. Exactly one SessionState exists per user.
type DialogStateType string

const (
	StateIdle                DialogStateType = "IDLE"
	StateGoalClarification   DialogStateType = "GOAL_CLARIFICATION"
	StateGoalEditTitle       DialogStateType = "GOAL_EDIT_title"
	StateGoalEditDescription DialogStateType = "GOAL_EDIT_description"
	StateGoalEditDeadline    DialogStateType = "GOAL_EDIT_deadline"
	StateGoalEditCategory    DialogStateType = "GOAL_EDIT_category"
	StateGoalEditPriority    DialogStateType = "GOAL_EDIT_priority"
	StateEventEditTitle      DialogStateType = "EVENT_EDIT_title"
	StateEventEditDate       DialogStateType = "EVENT_EDIT_date"
	StateEventEditTime       DialogStateType = "EVENT_EDIT_time"
	StateEventEditDuration   DialogStateType = "EVENT_EDIT_duration"
	StateEventEditNotes      DialogStateType = "EVENT_EDIT_notes"
	StateStepEditTitle       DialogStateType = "STEP_EDIT_title"
	StateStepEditDate        DialogStateType = "STEP_EDIT_date"
	StateStepEditTime        DialogStateType = "STEP_EDIT_time"
	StateSchedulePrefsDays   DialogStateType = "SCHEDULE_PREFS_DAYS"
	StateSchedulePrefsTime   DialogStateType = "SCHEDULE_PREFS_TIME"
)

// DialogStateTimeout is the inactivity window after which a non-IDLE
// session silently resets to IDLE on the next inbound message.
const DialogStateTimeout = 30 * time.Minute

// SessionState is the per-user dialog position plus its opaque context bag.
type SessionState struct {
	UserID       string          `json:"user_id"`
	State        DialogStateType `json:"state"`
	StateContext map[string]any  `json:"state_context,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsExpired reports whether a non-IDLE session has been inactive longer
// than DialogStateTimeout as of now.
func (s *SessionState) IsExpired(now time.Time) bool {
	if s.State == StateIdle {
		return false
	}
	return now.Sub(s.UpdatedAt) > DialogStateTimeout
}

// EditEntityFieldStates maps an `edit:<entity>:<field>:<id>` callback's
// (entity, field) pair to the dialog state it enters. Entities not present
// here cannot be edited through the free-text edit sub-flow.
var EditEntityFieldStates = map[string]map[string]DialogStateType{
	"goal": {
		"title":       StateGoalEditTitle,
		"description": StateGoalEditDescription,
		"deadline":    StateGoalEditDeadline,
		"category":    StateGoalEditCategory,
		"priority":    StateGoalEditPriority,
	},
	"event": {
		"title":    StateEventEditTitle,
		"date":     StateEventEditDate,
		"time":     StateEventEditTime,
		"duration": StateEventEditDuration,
		"notes":    StateEventEditNotes,
	},
	"step": {
		"title": StateStepEditTitle,
		"date":  StateStepEditDate,
		"time":  StateStepEditTime,
	},
}

// Weekday is 0=Monday..6=Sunday, matching the day_pref:<n> callback grammar.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// TimeOfDayPreset maps a coarse "morning/afternoon/evening" time_pref
// callback to a default clock hour.
var TimeOfDayPreset = map[string]int{
	"morning":   9,
	"afternoon": 14,
	"evening":   18,
}
