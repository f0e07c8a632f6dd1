// Package pipeline implements the intent pipeline: context assembly,
// intent dispatch, response summarization, and the Russian-language
// user-facing error/motivator templates.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// ContextAssembler builds the per-turn prompt bundle. It never calls the
// model and tolerates store failures by degrading (omitting the failed
// slot) instead of aborting the turn.
type ContextAssembler struct {
	store store.Store
}

// NewContextAssembler builds a ContextAssembler over st.
func NewContextAssembler(st store.Store) *ContextAssembler {
	return &ContextAssembler{store: st}
}

// Assemble builds the PromptBundle for one inbound turn.
func (a *ContextAssembler) Assemble(userID string, session models.SessionState, now time.Time) models.PromptBundle {
	bundle := models.PromptBundle{
		UserID:       userID,
		Timezone:     models.DefaultTimezone,
		Now:          now,
		CurrentState: session.State,
	}
	if session.State != models.StateIdle {
		bundle.StateContext = session.StateContext
	}

	user, err := a.store.GetUser(userID)
	if err != nil {
		slog.Warn("pipeline: context assembler could not load user, degrading", "user_id", userID, "error", err)
	} else if user != nil {
		bundle.Timezone = user.Timezone
	}

	goals, err := a.store.ListGoals(userID, models.GoalStatusActive)
	if err != nil {
		slog.Warn("pipeline: context assembler could not list goals, degrading", "user_id", userID, "error", err)
	} else {
		bundle.ActiveGoals = toGoalSummaries(goals)
	}

	events, err := a.store.ListEventsBetween(userID, now, now.Add(models.UpcomingEventsWindow))
	if err != nil {
		slog.Warn("pipeline: context assembler could not list events, degrading", "user_id", userID, "error", err)
	} else {
		bundle.UpcomingEvents = toEventSummaries(events)
	}

	history, err := a.store.RecentMessages(userID, models.MaxHistoryTurnsInBundle)
	if err != nil {
		slog.Warn("pipeline: context assembler could not load history, degrading", "user_id", userID, "error", err)
	} else {
		bundle.ConversationHistory = toHistoryTurns(history)
	}

	return bundle
}

func toGoalSummaries(goals []models.Goal) []models.GoalSummary {
	n := len(goals)
	if n > models.MaxActiveGoalsInBundle {
		n = models.MaxActiveGoalsInBundle
	}
	out := make([]models.GoalSummary, 0, n)
	for _, g := range goals[:n] {
		out = append(out, models.GoalSummary{GoalID: g.GoalID, Title: g.Title, Progress: g.ProgressPercent, TargetDate: g.TargetDate})
	}
	return out
}

func toEventSummaries(events []models.Event) []models.EventSummary {
	out := make([]models.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, models.EventSummary{EventID: e.EventID, Title: e.Title, Date: e.Date, Time: e.Time})
	}
	return out
}

func toHistoryTurns(msgs []models.ConversationMessage) []models.HistoryTurn {
	out := make([]models.HistoryTurn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.HistoryTurn{Role: m.Role, Text: m.Text})
	}
	return out
}
