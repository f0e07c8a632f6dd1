package models

// IntentVariant is the closed set of intent JSON keys the model adapter is
// allowed to emit. The Intent Parser is the only place in the system that
// bridges dynamic JSON into this tagged union; every downstream handler is
// a total function over IntentVariant.
type IntentVariant string

const (
	IntentSmallTalk     IntentVariant = "small_talk"
	IntentEventSearch   IntentVariant = "event.search"
	IntentEventMutate   IntentVariant = "event.mutate"
	IntentGoalSearch    IntentVariant = "goal.search"
	IntentGoalCreate    IntentVariant = "goal.create"
	IntentGoalDelete    IntentVariant = "goal.delete"
	IntentGoalQuery     IntentVariant = "goal.query"
	IntentGoalUpdateStep IntentVariant = "goal.update_step"
	IntentGoalAddStep   IntentVariant = "goal.add_step"
	IntentGoalDeleteStep IntentVariant = "goal.delete_step"
	IntentProductSearch IntentVariant = "product.search"
)

// MutateOp is the operation carried by an event.mutate intent.
type MutateOp string

const (
	MutateOpCreate MutateOp = "create"
	MutateOpUpdate MutateOp = "update"
	MutateOpDelete MutateOp = "delete"
)

// EntityRef resolves to a concrete id either directly or via a Result Set
// ordinal. Exactly one of ID or (SetID, Ordinal) is populated once
// resolved; both may arrive from the model and must be reconciled by the
// validator.
type EntityRef struct {
	ID      *int64 `json:"id,omitempty"`
	SetID   string `json:"set_id,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"` // 1-based
}

// HasOrdinal reports whether this ref names a Result Set ordinal rather
// than a direct id.
func (r EntityRef) HasOrdinal() bool {
	return r.ID == nil && r.SetID != ""
}

// Intent is the closed tagged-variant record produced by the Intent Parser.
// Exactly one of the pointer/slice fields relevant to Variant is populated;
// fields irrelevant to Variant are left zero.
type Intent struct {
	Variant IntentVariant `json:"variant"`
	DryRun  bool          `json:"dry_run,omitempty"`

	// small_talk
	ReplyHint string `json:"reply_hint,omitempty"`

	// event.search
	TitleLike string `json:"title_like,omitempty"`
	DateFrom  string `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo    string `json:"date_to,omitempty"`
	TimeFrom  string `json:"time_from,omitempty"` // HH:MM
	TimeTo    string `json:"time_to,omitempty"`

	// event.mutate
	Op              MutateOp   `json:"op,omitempty"`
	Title           string     `json:"title,omitempty"`
	Date            string     `json:"date,omitempty"`
	Time            string     `json:"time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Target          *EntityRef `json:"target,omitempty"`

	// goal.search
	Status string `json:"status,omitempty"`

	// goal.create
	Description    string `json:"description,omitempty"`
	TargetDate     string `json:"target_date,omitempty"`
	Category       string `json:"category,omitempty"`
	Priority       string `json:"priority,omitempty"`
	UserLevel      string `json:"user_level,omitempty"`
	TimeCommitment string `json:"time_commitment,omitempty"` // minutes per week

	// goal.delete / goal.query reuse GoalRef
	GoalRef *EntityRef `json:"goal_ref,omitempty"`

	// goal.update_step / goal.delete_step reuse StepRef
	StepRef   *EntityRef `json:"step_ref,omitempty"`
	NewStatus string     `json:"new_status,omitempty"`

	// goal.add_step
	GoalID      *int64  `json:"goal_id,omitempty"`
	Order       *int    `json:"order,omitempty"`
	PlannedDate string  `json:"planned_date,omitempty"`
	PlannedTime string  `json:"planned_time,omitempty"`

	// product.search
	Query    string   `json:"query,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
}

// ResponseType is the UI strategy the dispatcher chose for one turn's
// result, per the outbound response contract of the API layer.
type ResponseType string

const (
	ResponseFinalText         ResponseType = "final_text"
	ResponseRenderTable       ResponseType = "render_table"
	ResponseAskClarification  ResponseType = "ask_clarification"
)

// Button is one inline action button; Buttons in a Response is a grid of
// rows, matching the [][]Button outbound shape of the chat transport
// contract.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// Response is the core's answer to one /process or /callback turn.
type Response struct {
	Success      bool           `json:"success"`
	ResponseType ResponseType   `json:"response_type"`
	Text         string         `json:"text"`
	Items        []any          `json:"items,omitempty"`
	SetID        string         `json:"set_id,omitempty"`
	Buttons      [][]Button     `json:"buttons,omitempty"`
	Error        string         `json:"error,omitempty"`
}
