// Package store provides storage backends for GoalForge's domain entities
// (User, Goal, Step, Event, Conversation Message, Session State) plus the
// supporting tables for notification dedup, durable placement retry jobs,
// and the notification outbox. It follows a dual SQLite/Postgres backend
// split: every exported method is implemented once per backend in
// sqlite.go and postgres.go, against the same Store interface.
package store

import (
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// Store is the full storage contract the orchestration core depends on.
// The multi-row mutations it exposes (cascade deletes, step completion with
// progress recompute, step+event insert, step placement) are each
// implemented as a single internal transaction by each backend. Creating a
// goal and adding its steps are separate calls (CreateGoal, then AddStep per
// step), each committed on its own, so a failure part-way leaves the goal
// with only the steps added before it.
type Store interface {
	// Users
	GetUser(userID string) (*models.User, error)
	UpsertUser(u models.User) error
	ListUsersWithToggle(toggle NotifyToggleColumn) ([]models.User, error)

	// Goals
	CreateGoal(g *models.Goal) error
	GetGoal(userID string, goalID int64) (*models.Goal, error)
	ListGoals(userID string, status models.GoalStatus) ([]models.Goal, error)
	UpdateGoal(g models.Goal) error
	DeleteGoalCascade(userID string, goalID int64) error

	// Steps
	ListSteps(goalID int64) ([]models.Step, error)
	GetStep(stepID int64) (*models.Step, error)
	MaxStepOrder(goalID int64) (int, error)
	AddStep(s *models.Step) error
	AddStepWithEvent(s *models.Step, e *models.Event) error
	UpdateStep(s models.Step) error
	UpdateStepStatus(stepID int64, status models.StepStatus) (*models.Goal, error)
	DeleteStepCascade(stepID int64) error
	PlaceSteps(placements []StepPlacement) error

	// Events
	CreateEvent(e *models.Event) error
	GetEvent(userID string, eventID int64) (*models.Event, error)
	ListEventsBetween(userID string, from, to time.Time) ([]models.Event, error)
	UpdateEvent(e models.Event) error
	DeleteEvent(userID string, eventID int64) error
	DeleteEventByLinkedStep(stepID int64) error

	// Conversation Messages
	AppendMessage(m models.ConversationMessage) error
	RecentMessages(userID string, limit int) ([]models.ConversationMessage, error)

	// Session State
	GetSession(userID string) (*models.SessionState, error)
	SaveSession(s models.SessionState) error
	DeleteSession(userID string) error

	NotificationDedupRepo
	JobRepo
	OutboxRepo

	Close() error
}

// StepPlacement is one (step, event) pair produced by the third phase of
// the auto-scheduler, persisted atomically by PlaceSteps.
type StepPlacement struct {
	StepID          int64
	GoalID          int64
	PlannedDate     time.Time
	PlannedTime     string
	DurationMinutes int
	Event           models.Event
}

// NotifyToggleColumn names one of the notification booleans on the user
// profile, used to scope a scheduler scan to opted-in users only.
type NotifyToggleColumn string

const (
	ToggleEventReminder NotifyToggleColumn = "notify_event_reminder"
	ToggleGoalDeadline  NotifyToggleColumn = "notify_goal_deadline"
	ToggleStepReminder  NotifyToggleColumn = "notify_step_reminder"
	ToggleMotivation    NotifyToggleColumn = "notify_motivation"
)

// Opts holds backend-agnostic connection options, built with the
// functional-options convention.
type Opts struct {
	DSN string
}

// Option configures Opts.
type Option func(*Opts)

// WithDSN sets the store's connection string (a SQLite file path, or a
// Postgres DSN when NewPostgresStore is used).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}
