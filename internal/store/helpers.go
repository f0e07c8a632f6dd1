package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nilIfEmptyBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func nilIfTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// toggleColumnName validates toggle against the known set before it is
// interpolated into a query; NotifyToggleColumn values never come from user
// input, only from scheduler job code, but the check keeps that invariant
// explicit.
func toggleColumnName(toggle NotifyToggleColumn) string {
	switch toggle {
	case ToggleEventReminder, ToggleGoalDeadline, ToggleStepReminder, ToggleMotivation:
		return string(toggle)
	default:
		return string(ToggleMotivation)
	}
}

func distinctGoalIDs(placements []StepPlacement) []int64 {
	seen := make(map[int64]bool)
	var out []int64
	for _, p := range placements {
		if !seen[p.GoalID] {
			seen[p.GoalID] = true
			out = append(out, p.GoalID)
		}
	}
	return out
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scannable) (models.User, error) {
	var u models.User
	err := row.Scan(&u.UserID, &u.ChatID, &u.Timezone, &u.CreatedAt,
		&u.NotifyEventReminder, &u.NotifyGoalDeadline, &u.NotifyStepReminder, &u.NotifyMotivation, &u.NotifyDigest)
	return u, err
}

func scanUserRows(rows *sql.Rows) (models.User, error) {
	u, err := scanUser(rows)
	if err != nil {
		return u, fmt.Errorf("scan user failed: %w", err)
	}
	return u, nil
}

func scanGoal(row scannable) (models.Goal, error) {
	var g models.Goal
	var targetDate sql.NullTime
	var category sql.NullString
	var status, priority string
	err := row.Scan(&g.GoalID, &g.UserID, &g.Title, &g.Description, &status, &g.ProgressPercent,
		&targetDate, &category, &priority, &g.IsScheduled, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return g, err
	}
	g.Status = models.GoalStatus(status)
	g.Priority = models.GoalPriority(priority)
	g.Category = category.String
	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}
	return g, nil
}

func scanGoalRows(rows *sql.Rows) (models.Goal, error) {
	g, err := scanGoal(rows)
	if err != nil {
		return g, fmt.Errorf("scan goal failed: %w", err)
	}
	return g, nil
}

func scanStep(row scannable) (models.Step, error) {
	var st models.Step
	var estimatedHours sql.NullFloat64
	var completedAt, plannedDate sql.NullTime
	var plannedTime sql.NullString
	var durationMinutes sql.NullInt64
	var linkedEventID sql.NullInt64
	var status string
	err := row.Scan(&st.StepID, &st.GoalID, &st.Title, &st.Order, &status, &estimatedHours,
		&completedAt, &plannedDate, &plannedTime, &durationMinutes, &linkedEventID)
	if err != nil {
		return st, err
	}
	st.Status = models.StepStatus(status)
	if estimatedHours.Valid {
		st.EstimatedHours = &estimatedHours.Float64
	}
	if completedAt.Valid {
		st.CompletedAt = &completedAt.Time
	}
	if plannedDate.Valid {
		st.PlannedDate = &plannedDate.Time
	}
	if plannedTime.Valid {
		st.PlannedTime = &plannedTime.String
	}
	if durationMinutes.Valid {
		d := int(durationMinutes.Int64)
		st.DurationMinutes = &d
	}
	if linkedEventID.Valid {
		st.LinkedEventID = &linkedEventID.Int64
	}
	return st, nil
}

func scanStepRows(rows *sql.Rows) (models.Step, error) {
	st, err := scanStep(rows)
	if err != nil {
		return st, fmt.Errorf("scan step failed: %w", err)
	}
	return st, nil
}

func scanEvent(row scannable) (models.Event, error) {
	var ev models.Event
	var timeOfDay sql.NullString
	var repeat, notes sql.NullString
	var linkedStepID, linkedGoalID sql.NullInt64
	var eventType string
	err := row.Scan(&ev.EventID, &ev.UserID, &ev.Title, &ev.Date, &timeOfDay, &ev.DurationMinutes, &repeat, &notes,
		&eventType, &linkedStepID, &linkedGoalID, &ev.ReminderMinutesBefore, &ev.ReminderEnabled, &ev.CreatedAt)
	if err != nil {
		return ev, err
	}
	ev.EventType = models.EventType(eventType)
	ev.Repeat = repeat.String
	ev.Notes = notes.String
	if timeOfDay.Valid {
		ev.Time = &timeOfDay.String
	}
	if linkedStepID.Valid {
		ev.LinkedStepID = &linkedStepID.Int64
	}
	if linkedGoalID.Valid {
		ev.LinkedGoalID = &linkedGoalID.Int64
	}
	return ev, nil
}

func scanEventRows(rows *sql.Rows) (models.Event, error) {
	ev, err := scanEvent(rows)
	if err != nil {
		return ev, fmt.Errorf("scan event failed: %w", err)
	}
	return ev, nil
}

// scanJob scans a Job from sql.Rows.
func scanJob(rows *sql.Rows) (Job, error) {
	var j Job
	var payloadJSON, lastError, dedupeKey sql.NullString
	var lockedAt sql.NullTime
	err := rows.Scan(
		&j.ID, &j.Kind, &j.RunAt, &payloadJSON, &j.Status, &j.Attempt, &j.MaxAttempts,
		&lastError, &lockedAt, &dedupeKey, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return j, fmt.Errorf("scan job failed: %w", err)
	}
	j.PayloadJSON = payloadJSON.String
	j.LastError = lastError.String
	j.DedupeKey = dedupeKey.String
	if lockedAt.Valid {
		j.LockedAt = &lockedAt.Time
	}
	return j, nil
}

// scanJobRow scans a Job from a single sql.Row.
func scanJobRow(row *sql.Row) (Job, error) {
	var j Job
	var payloadJSON, lastError, dedupeKey sql.NullString
	var lockedAt sql.NullTime
	err := row.Scan(
		&j.ID, &j.Kind, &j.RunAt, &payloadJSON, &j.Status, &j.Attempt, &j.MaxAttempts,
		&lastError, &lockedAt, &dedupeKey, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return j, err
	}
	j.PayloadJSON = payloadJSON.String
	j.LastError = lastError.String
	j.DedupeKey = dedupeKey.String
	if lockedAt.Valid {
		j.LockedAt = &lockedAt.Time
	}
	return j, nil
}

// scanOutboxMessage scans an OutboxMessage from sql.Rows.
func scanOutboxMessage(rows *sql.Rows) (OutboxMessage, error) {
	var m OutboxMessage
	var payloadJSON, dedupeKey, lastError sql.NullString
	var nextAttemptAt, lockedAt sql.NullTime
	err := rows.Scan(
		&m.ID, &m.ParticipantID, &m.Kind, &payloadJSON, &m.Status, &m.Attempts,
		&nextAttemptAt, &dedupeKey, &lockedAt, &lastError, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return m, fmt.Errorf("scan outbox message failed: %w", err)
	}
	m.PayloadJSON = payloadJSON.String
	m.DedupeKey = dedupeKey.String
	m.LastError = lastError.String
	if nextAttemptAt.Valid {
		m.NextAttemptAt = &nextAttemptAt.Time
	}
	if lockedAt.Valid {
		m.LockedAt = &lockedAt.Time
	}
	return m, nil
}
