// Package store provides storage backends for GoalForge.
//
// This file implements the SQLite-backed Store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/BTreeMap/GoalForge/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite3 driver serializes writers; avoid lock contention churn

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *SQLiteStore) GetUser(userID string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest
		FROM users WHERE user_id = ?`, userID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) UpsertUser(u models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO users (user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET chat_id=excluded.chat_id, timezone=excluded.timezone,
			notify_event_reminder=excluded.notify_event_reminder, notify_goal_deadline=excluded.notify_goal_deadline,
			notify_step_reminder=excluded.notify_step_reminder, notify_motivation=excluded.notify_motivation,
			notify_digest=excluded.notify_digest`,
		u.UserID, u.ChatID, u.Timezone, u.CreatedAt,
		u.NotifyEventReminder, u.NotifyGoalDeadline, u.NotifyStepReminder, u.NotifyMotivation, u.NotifyDigest)
	if err != nil {
		return fmt.Errorf("upsert user failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListUsersWithToggle(toggle NotifyToggleColumn) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest
		FROM users WHERE %s = 1`, toggleColumnName(toggle))
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list users with toggle failed: %w", err)
	}
	defer rows.Close()
	var users []models.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// --- Goals ---

func (s *SQLiteStore) CreateGoal(g *models.Goal) error {
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	res, err := s.db.Exec(`INSERT INTO goals (user_id, title, description, status, progress_percent,
		target_date, category, priority, is_scheduled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Title, g.Description, string(g.Status), g.ProgressPercent,
		nilIfTime(g.TargetDate), nilIfEmpty(g.Category), string(g.Priority), g.IsScheduled, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create goal failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create goal id lookup failed: %w", err)
	}
	g.GoalID = id
	return nil
}

func (s *SQLiteStore) GetGoal(userID string, goalID int64) (*models.Goal, error) {
	row := s.db.QueryRow(`SELECT goal_id, user_id, title, description, status, progress_percent,
		target_date, category, priority, is_scheduled, created_at, updated_at
		FROM goals WHERE user_id = ? AND goal_id = ?`, userID, goalID)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal failed: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) ListGoals(userID string, status models.GoalStatus) ([]models.Goal, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(`SELECT goal_id, user_id, title, description, status, progress_percent,
			target_date, category, priority, is_scheduled, created_at, updated_at
			FROM goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	} else {
		rows, err = s.db.Query(`SELECT goal_id, user_id, title, description, status, progress_percent,
			target_date, category, priority, is_scheduled, created_at, updated_at
			FROM goals WHERE user_id = ? AND status = ? ORDER BY created_at DESC`, userID, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("list goals failed: %w", err)
	}
	defer rows.Close()
	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoalRows(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *SQLiteStore) UpdateGoal(g models.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`UPDATE goals SET title=?, description=?, status=?, progress_percent=?,
		target_date=?, category=?, priority=?, is_scheduled=?, updated_at=?
		WHERE goal_id=? AND user_id=?`,
		g.Title, g.Description, string(g.Status), g.ProgressPercent,
		nilIfTime(g.TargetDate), nilIfEmpty(g.Category), string(g.Priority), g.IsScheduled, g.UpdatedAt,
		g.GoalID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteGoalCascade(userID string, goalID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete goal begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE linked_goal_id = ? AND user_id = ?`, goalID, userID); err != nil {
		return fmt.Errorf("delete goal cascade events failed: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM steps WHERE goal_id = ?`, goalID); err != nil {
		return fmt.Errorf("delete goal cascade steps failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM goals WHERE goal_id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// --- Steps ---

func (s *SQLiteStore) ListSteps(goalID int64) ([]models.Step, error) {
	rows, err := s.db.Query(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE goal_id = ? ORDER BY step_order ASC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list steps failed: %w", err)
	}
	defer rows.Close()
	var steps []models.Step
	for rows.Next() {
		st, err := scanStepRows(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func (s *SQLiteStore) GetStep(stepID int64) (*models.Step, error) {
	row := s.db.QueryRow(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE step_id = ?`, stepID)
	st, err := scanStep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step failed: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) MaxStepOrder(goalID int64) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(step_order) FROM steps WHERE goal_id = ?`, goalID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max step order failed: %w", err)
	}
	return int(max.Int64), nil
}

func (s *SQLiteStore) AddStep(st *models.Step) error {
	res, err := s.db.Exec(`INSERT INTO steps (goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.GoalID, st.Title, st.Order, string(st.Status), st.EstimatedHours,
		nilIfTime(st.CompletedAt), nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.LinkedEventID)
	if err != nil {
		return fmt.Errorf("add step failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add step id lookup failed: %w", err)
	}
	st.StepID = id
	return nil
}

func (s *SQLiteStore) AddStepWithEvent(st *models.Step, ev *models.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("add step with event begin tx failed: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO steps (goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.GoalID, st.Title, st.Order, string(st.Status), st.EstimatedHours,
		nilIfTime(st.CompletedAt), nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.LinkedEventID)
	if err != nil {
		return fmt.Errorf("add step with event step insert failed: %w", err)
	}
	stepID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("add step with event id lookup failed: %w", err)
	}
	st.StepID = stepID
	ev.LinkedStepID = &stepID

	evRes, err := tx.Exec(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.UserID, ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		string(ev.EventType), ev.LinkedStepID, ev.LinkedGoalID, ev.ReminderMinutesBefore, ev.ReminderEnabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add step with event event insert failed: %w", err)
	}
	eventID, err := evRes.LastInsertId()
	if err != nil {
		return fmt.Errorf("add step with event id lookup failed: %w", err)
	}
	ev.EventID = eventID

	if _, err := tx.Exec(`UPDATE steps SET linked_event_id = ? WHERE step_id = ?`, eventID, stepID); err != nil {
		return fmt.Errorf("add step with event linkback failed: %w", err)
	}
	st.LinkedEventID = &eventID
	return tx.Commit()
}

// UpdateStep overwrites the editable fields of an existing step, used by the
// dialog machine's free-text edit sub-flow (title/date/time).
func (s *SQLiteStore) UpdateStep(st models.Step) error {
	_, err := s.db.Exec(`UPDATE steps SET title = ?, planned_date = ?, planned_time = ?,
		duration_minutes = ? WHERE step_id = ?`,
		st.Title, nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.StepID)
	if err != nil {
		return fmt.Errorf("update step failed: %w", err)
	}
	return nil
}

// UpdateStepStatus sets a step's status, stamps CompletedAt when transitioning
// to completed, recomputes the owning goal's progress_percent in the same
// transaction, and returns the goal's fresh state.
func (s *SQLiteStore) UpdateStepStatus(stepID int64, status models.StepStatus) (*models.Goal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update step status begin tx failed: %w", err)
	}
	defer tx.Rollback()

	var goalID int64
	if err := tx.QueryRow(`SELECT goal_id FROM steps WHERE step_id = ?`, stepID).Scan(&goalID); err != nil {
		return nil, fmt.Errorf("update step status goal lookup failed: %w", err)
	}

	var completedAt interface{}
	if status == models.StepStatusCompleted {
		completedAt = time.Now().UTC()
	}
	if _, err := tx.Exec(`UPDATE steps SET status = ?, completed_at = ? WHERE step_id = ?`,
		string(status), completedAt, stepID); err != nil {
		return nil, fmt.Errorf("update step status failed: %w", err)
	}

	rows, err := tx.Query(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE goal_id = ?`, goalID)
	if err != nil {
		return nil, fmt.Errorf("update step status steps query failed: %w", err)
	}
	var steps []models.Step
	for rows.Next() {
		st, err := scanStepRows(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		steps = append(steps, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	progress := models.ComputeProgressPercent(steps)
	newStatus := models.GoalStatusActive
	if progress == 100 {
		newStatus = models.GoalStatusCompleted
	}
	row := tx.QueryRow(`SELECT goal_id, user_id, title, description, status, progress_percent,
		target_date, category, priority, is_scheduled, created_at, updated_at FROM goals WHERE goal_id = ?`, goalID)
	g, err := scanGoal(row)
	if err != nil {
		return nil, fmt.Errorf("update step status goal refetch failed: %w", err)
	}
	if g.Status != models.GoalStatusPaused {
		g.Status = newStatus
	}
	g.ProgressPercent = progress
	g.UpdatedAt = time.Now().UTC()
	if _, err := tx.Exec(`UPDATE goals SET progress_percent = ?, status = ?, updated_at = ? WHERE goal_id = ?`,
		g.ProgressPercent, string(g.Status), g.UpdatedAt, goalID); err != nil {
		return nil, fmt.Errorf("update goal progress failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update step status commit failed: %w", err)
	}
	return &g, nil
}

func (s *SQLiteStore) DeleteStepCascade(stepID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete step begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE linked_step_id = ?`, stepID); err != nil {
		return fmt.Errorf("delete step cascade event failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM steps WHERE step_id = ?`, stepID)
	if err != nil {
		return fmt.Errorf("delete step failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// PlaceSteps persists the auto-scheduler's placement of N steps onto the
// calendar as a single transaction: each step gets a planned_date/time and a
// newly created linked Event.
func (s *SQLiteStore) PlaceSteps(placements []StepPlacement) error {
	if len(placements) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("place steps begin tx failed: %w", err)
	}
	defer tx.Rollback()

	for i := range placements {
		p := &placements[i]
		evRes, err := tx.Exec(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
			event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 'goal_step', ?, ?, ?, ?, ?)`,
			p.Event.UserID, p.Event.Title, p.PlannedDate, p.PlannedTime, p.DurationMinutes, p.Event.Repeat, p.Event.Notes,
			p.StepID, p.GoalID, p.Event.ReminderMinutesBefore, p.Event.ReminderEnabled, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("place steps event insert failed: %w", err)
		}
		eventID, err := evRes.LastInsertId()
		if err != nil {
			return fmt.Errorf("place steps id lookup failed: %w", err)
		}
		if _, err := tx.Exec(`UPDATE steps SET planned_date=?, planned_time=?, duration_minutes=?, linked_event_id=?
			WHERE step_id=?`, p.PlannedDate, p.PlannedTime, p.DurationMinutes, eventID, p.StepID); err != nil {
			return fmt.Errorf("place steps step update failed: %w", err)
		}
	}
	for _, goalID := range distinctGoalIDs(placements) {
		if _, err := tx.Exec(`UPDATE goals SET is_scheduled = 1, updated_at = ? WHERE goal_id = ?`, time.Now().UTC(), goalID); err != nil {
			return fmt.Errorf("place steps goal flag failed: %w", err)
		}
	}
	return tx.Commit()
}

// --- Events ---

func (s *SQLiteStore) CreateEvent(ev *models.Event) error {
	ev.CreatedAt = time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.UserID, ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		string(ev.EventType), ev.LinkedStepID, ev.LinkedGoalID, ev.ReminderMinutesBefore, ev.ReminderEnabled, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create event id lookup failed: %w", err)
	}
	ev.EventID = id
	return nil
}

func (s *SQLiteStore) GetEvent(userID string, eventID int64) (*models.Event, error) {
	row := s.db.QueryRow(`SELECT event_id, user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at
		FROM events WHERE user_id = ? AND event_id = ?`, userID, eventID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event failed: %w", err)
	}
	return &ev, nil
}

func (s *SQLiteStore) ListEventsBetween(userID string, from, to time.Time) ([]models.Event, error) {
	rows, err := s.db.Query(`SELECT event_id, user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at
		FROM events WHERE user_id = ? AND date >= ? AND date <= ? ORDER BY date ASC, time ASC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events between failed: %w", err)
	}
	defer rows.Close()
	var events []models.Event
	for rows.Next() {
		ev, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) UpdateEvent(ev models.Event) error {
	_, err := s.db.Exec(`UPDATE events SET title=?, date=?, time=?, duration_minutes=?, repeat=?, notes=?,
		reminder_minutes_before=?, reminder_enabled=? WHERE event_id=? AND user_id=?`,
		ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		ev.ReminderMinutesBefore, ev.ReminderEnabled, ev.EventID, ev.UserID)
	if err != nil {
		return fmt.Errorf("update event failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteEvent(userID string, eventID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete event begin tx failed: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`UPDATE steps SET planned_date=NULL, planned_time=NULL, linked_event_id=NULL
		WHERE linked_event_id = (SELECT event_id FROM events WHERE event_id = ? AND user_id = ?)`, eventID, userID); err != nil {
		return fmt.Errorf("delete event step unlink failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM events WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete event failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteEventByLinkedStep(stepID int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE linked_step_id = ?`, stepID)
	if err != nil {
		return fmt.Errorf("delete event by linked step failed: %w", err)
	}
	return nil
}

// --- Conversation Messages ---

func (s *SQLiteStore) AppendMessage(m models.ConversationMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append message begin tx failed: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`INSERT INTO conversation_messages (user_id, role, text, timestamp, intent)
		VALUES (?, ?, ?, ?, ?)`, m.UserID, string(m.Role), m.Text, m.Timestamp, nilIfEmpty(m.Intent)); err != nil {
		return fmt.Errorf("append message insert failed: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversation_messages WHERE user_id = ? AND msg_id NOT IN (
		SELECT msg_id FROM conversation_messages WHERE user_id = ? ORDER BY msg_id DESC LIMIT ?)`,
		m.UserID, m.UserID, models.ConversationHistoryWindow); err != nil {
		return fmt.Errorf("append message trim failed: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecentMessages(userID string, limit int) ([]models.ConversationMessage, error) {
	rows, err := s.db.Query(`SELECT msg_id, user_id, role, text, timestamp, intent FROM conversation_messages
		WHERE user_id = ? ORDER BY msg_id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages failed: %w", err)
	}
	defer rows.Close()
	var out []models.ConversationMessage
	for rows.Next() {
		var m models.ConversationMessage
		var intent sql.NullString
		var role string
		if err := rows.Scan(&m.MsgID, &m.UserID, &role, &m.Text, &m.Timestamp, &intent); err != nil {
			return nil, fmt.Errorf("recent messages scan failed: %w", err)
		}
		m.Role = models.MessageRole(role)
		m.Intent = intent.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// --- Session State ---

func (s *SQLiteStore) GetSession(userID string) (*models.SessionState, error) {
	row := s.db.QueryRow(`SELECT user_id, state, state_context, updated_at FROM session_states WHERE user_id = ?`, userID)
	var st models.SessionState
	var contextJSON sql.NullString
	var state string
	if err := row.Scan(&st.UserID, &state, &contextJSON, &st.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	st.State = models.DialogStateType(state)
	if contextJSON.Valid && contextJSON.String != "" {
		if err := json.Unmarshal([]byte(contextJSON.String), &st.StateContext); err != nil {
			slog.Warn("SQLiteStore.GetSession: state_context unmarshal failed", "userID", userID, "error", err)
		}
	}
	return &st, nil
}

func (s *SQLiteStore) SaveSession(st models.SessionState) error {
	st.UpdatedAt = time.Now().UTC()
	var contextJSON []byte
	if len(st.StateContext) > 0 {
		var err error
		contextJSON, err = json.Marshal(st.StateContext)
		if err != nil {
			return fmt.Errorf("save session context marshal failed: %w", err)
		}
	}
	_, err := s.db.Exec(`INSERT INTO session_states (user_id, state, state_context, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET state=excluded.state, state_context=excluded.state_context, updated_at=excluded.updated_at`,
		st.UserID, string(st.State), nilIfEmptyBytes(contextJSON), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(userID string) error {
	_, err := s.db.Exec(`DELETE FROM session_states WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}
