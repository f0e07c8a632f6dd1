// Package store provides storage backends for GoalForge.
//
// This file implements the PostgreSQL-backed Store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/BTreeMap/GoalForge/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// --- Users ---

func (s *PostgresStore) GetUser(userID string) (*models.User, error) {
	row := s.db.QueryRow(`SELECT user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest
		FROM users WHERE user_id = $1`, userID)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpsertUser(u models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO users (user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET chat_id=EXCLUDED.chat_id, timezone=EXCLUDED.timezone,
			notify_event_reminder=EXCLUDED.notify_event_reminder, notify_goal_deadline=EXCLUDED.notify_goal_deadline,
			notify_step_reminder=EXCLUDED.notify_step_reminder, notify_motivation=EXCLUDED.notify_motivation,
			notify_digest=EXCLUDED.notify_digest`,
		u.UserID, u.ChatID, u.Timezone, u.CreatedAt,
		u.NotifyEventReminder, u.NotifyGoalDeadline, u.NotifyStepReminder, u.NotifyMotivation, u.NotifyDigest)
	if err != nil {
		return fmt.Errorf("upsert user failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUsersWithToggle(toggle NotifyToggleColumn) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT user_id, chat_id, timezone, created_at,
		notify_event_reminder, notify_goal_deadline, notify_step_reminder, notify_motivation, notify_digest
		FROM users WHERE %s = TRUE`, toggleColumnName(toggle))
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

func (s *PostgresStore) CreateGoal(g *models.Goal) error {
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	err := s.db.QueryRow(`INSERT INTO goals (user_id, title, description, status, progress_percent,
		target_date, category, priority, is_scheduled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING goal_id`,
		g.UserID, g.Title, g.Description, string(g.Status), g.ProgressPercent,
		nilIfTime(g.TargetDate), nilIfEmpty(g.Category), string(g.Priority), g.IsScheduled, g.CreatedAt, g.UpdatedAt).
		Scan(&g.GoalID)
	if err != nil {
		return fmt.Errorf("create goal failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGoal(userID string, goalID int64) (*models.Goal, error) {
	row := s.db.QueryRow(`SELECT goal_id, user_id, title, description, status, progress_percent,
		target_date, category, priority, is_scheduled, created_at, updated_at
		FROM goals WHERE user_id = $1 AND goal_id = $2`, userID, goalID)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal failed: %w", err)
	}
	return &g, nil
}

func (s *PostgresStore) ListGoals(userID string, status models.GoalStatus) ([]models.Goal, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.Query(`SELECT goal_id, user_id, title, description, status, progress_percent,
			target_date, category, priority, is_scheduled, created_at, updated_at
			FROM goals WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	} else {
		rows, err = s.db.Query(`SELECT goal_id, user_id, title, description, status, progress_percent,
			target_date, category, priority, is_scheduled, created_at, updated_at
			FROM goals WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`, userID, string(status))
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

func (s *PostgresStore) UpdateGoal(g models.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`UPDATE goals SET title=$1, description=$2, status=$3, progress_percent=$4,
		target_date=$5, category=$6, priority=$7, is_scheduled=$8, updated_at=$9
		WHERE goal_id=$10 AND user_id=$11`,
		g.Title, g.Description, string(g.Status), g.ProgressPercent,
		nilIfTime(g.TargetDate), nilIfEmpty(g.Category), string(g.Priority), g.IsScheduled, g.UpdatedAt,
		g.GoalID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteGoalCascade(userID string, goalID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete goal begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE linked_goal_id = $1 AND user_id = $2`, goalID, userID); err != nil {
		return fmt.Errorf("delete goal cascade events failed: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM steps WHERE goal_id = $1`, goalID); err != nil {
		return fmt.Errorf("delete goal cascade steps failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM goals WHERE goal_id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return fmt.Errorf("delete goal failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// --- Steps ---

func (s *PostgresStore) ListSteps(goalID int64) ([]models.Step, error) {
	rows, err := s.db.Query(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE goal_id = $1 ORDER BY step_order ASC`, goalID)
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

func (s *PostgresStore) GetStep(stepID int64) (*models.Step, error) {
	row := s.db.QueryRow(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE step_id = $1`, stepID)
	st, err := scanStep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step failed: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) MaxStepOrder(goalID int64) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(step_order) FROM steps WHERE goal_id = $1`, goalID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max step order failed: %w", err)
	}
	return int(max.Int64), nil
}

func (s *PostgresStore) AddStep(st *models.Step) error {
	err := s.db.QueryRow(`INSERT INTO steps (goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING step_id`,
		st.GoalID, st.Title, st.Order, string(st.Status), st.EstimatedHours,
		nilIfTime(st.CompletedAt), nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.LinkedEventID).
		Scan(&st.StepID)
	if err != nil {
		return fmt.Errorf("add step failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddStepWithEvent(st *models.Step, ev *models.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("add step with event begin tx failed: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRow(`INSERT INTO steps (goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING step_id`,
		st.GoalID, st.Title, st.Order, string(st.Status), st.EstimatedHours,
		nilIfTime(st.CompletedAt), nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.LinkedEventID).
		Scan(&st.StepID)
	if err != nil {
		return fmt.Errorf("add step with event step insert failed: %w", err)
	}
	ev.LinkedStepID = &st.StepID

	err = tx.QueryRow(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING event_id`,
		ev.UserID, ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		string(ev.EventType), ev.LinkedStepID, ev.LinkedGoalID, ev.ReminderMinutesBefore, ev.ReminderEnabled, time.Now().UTC()).
		Scan(&ev.EventID)
	if err != nil {
		return fmt.Errorf("add step with event event insert failed: %w", err)
	}

	if _, err := tx.Exec(`UPDATE steps SET linked_event_id = $1 WHERE step_id = $2`, ev.EventID, st.StepID); err != nil {
		return fmt.Errorf("add step with event linkback failed: %w", err)
	}
	st.LinkedEventID = &ev.EventID
	return tx.Commit()
}

// UpdateStep overwrites the editable fields of an existing step, used by the
// dialog machine's free-text edit sub-flow (title/date/time).
func (s *PostgresStore) UpdateStep(st models.Step) error {
	_, err := s.db.Exec(`UPDATE steps SET title = $1, planned_date = $2, planned_time = $3,
		duration_minutes = $4 WHERE step_id = $5`,
		st.Title, nilIfTime(st.PlannedDate), st.PlannedTime, st.DurationMinutes, st.StepID)
	if err != nil {
		return fmt.Errorf("update step failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateStepStatus(stepID int64, status models.StepStatus) (*models.Goal, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update step status begin tx failed: %w", err)
	}
	defer tx.Rollback()

	var goalID int64
	if err := tx.QueryRow(`SELECT goal_id FROM steps WHERE step_id = $1`, stepID).Scan(&goalID); err != nil {
		return nil, fmt.Errorf("update step status goal lookup failed: %w", err)
	}

	var completedAt interface{}
	if status == models.StepStatusCompleted {
		completedAt = time.Now().UTC()
	}
	if _, err := tx.Exec(`UPDATE steps SET status = $1, completed_at = $2 WHERE step_id = $3`,
		string(status), completedAt, stepID); err != nil {
		return nil, fmt.Errorf("update step status failed: %w", err)
	}

	rows, err := tx.Query(`SELECT step_id, goal_id, title, step_order, status, estimated_hours,
		completed_at, planned_date, planned_time, duration_minutes, linked_event_id
		FROM steps WHERE goal_id = $1 FOR UPDATE`, goalID)
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
		target_date, category, priority, is_scheduled, created_at, updated_at FROM goals WHERE goal_id = $1 FOR UPDATE`, goalID)
	g, err := scanGoal(row)
	if err != nil {
		return nil, fmt.Errorf("update step status goal refetch failed: %w", err)
	}
	if g.Status != models.GoalStatusPaused {
		g.Status = newStatus
	}
	g.ProgressPercent = progress
	g.UpdatedAt = time.Now().UTC()
	if _, err := tx.Exec(`UPDATE goals SET progress_percent = $1, status = $2, updated_at = $3 WHERE goal_id = $4`,
		g.ProgressPercent, string(g.Status), g.UpdatedAt, goalID); err != nil {
		return nil, fmt.Errorf("update goal progress failed: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update step status commit failed: %w", err)
	}
	return &g, nil
}

func (s *PostgresStore) DeleteStepCascade(stepID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete step begin tx failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM events WHERE linked_step_id = $1`, stepID); err != nil {
		return fmt.Errorf("delete step cascade event failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM steps WHERE step_id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("delete step failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (s *PostgresStore) PlaceSteps(placements []StepPlacement) error {
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
		var eventID int64
		err := tx.QueryRow(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
			event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'goal_step', $8, $9, $10, $11, $12) RETURNING event_id`,
			p.Event.UserID, p.Event.Title, p.PlannedDate, p.PlannedTime, p.DurationMinutes, p.Event.Repeat, p.Event.Notes,
			p.StepID, p.GoalID, p.Event.ReminderMinutesBefore, p.Event.ReminderEnabled, time.Now().UTC()).
			Scan(&eventID)
		if err != nil {
			return fmt.Errorf("place steps event insert failed: %w", err)
		}
		if _, err := tx.Exec(`UPDATE steps SET planned_date=$1, planned_time=$2, duration_minutes=$3, linked_event_id=$4
			WHERE step_id=$5`, p.PlannedDate, p.PlannedTime, p.DurationMinutes, eventID, p.StepID); err != nil {
			return fmt.Errorf("place steps step update failed: %w", err)
		}
	}
	for _, goalID := range distinctGoalIDs(placements) {
		if _, err := tx.Exec(`UPDATE goals SET is_scheduled = TRUE, updated_at = $1 WHERE goal_id = $2`, time.Now().UTC(), goalID); err != nil {
			return fmt.Errorf("place steps goal flag failed: %w", err)
		}
	}
	return tx.Commit()
}

// --- Events ---

func (s *PostgresStore) CreateEvent(ev *models.Event) error {
	ev.CreatedAt = time.Now().UTC()
	err := s.db.QueryRow(`INSERT INTO events (user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING event_id`,
		ev.UserID, ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		string(ev.EventType), ev.LinkedStepID, ev.LinkedGoalID, ev.ReminderMinutesBefore, ev.ReminderEnabled, ev.CreatedAt).
		Scan(&ev.EventID)
	if err != nil {
		return fmt.Errorf("create event failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEvent(userID string, eventID int64) (*models.Event, error) {
	row := s.db.QueryRow(`SELECT event_id, user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at
		FROM events WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event failed: %w", err)
	}
	return &ev, nil
}

func (s *PostgresStore) ListEventsBetween(userID string, from, to time.Time) ([]models.Event, error) {
	rows, err := s.db.Query(`SELECT event_id, user_id, title, date, time, duration_minutes, repeat, notes,
		event_type, linked_step_id, linked_goal_id, reminder_minutes_before, reminder_enabled, created_at
		FROM events WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, time ASC`, userID, from, to)
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

func (s *PostgresStore) UpdateEvent(ev models.Event) error {
	_, err := s.db.Exec(`UPDATE events SET title=$1, date=$2, time=$3, duration_minutes=$4, repeat=$5, notes=$6,
		reminder_minutes_before=$7, reminder_enabled=$8 WHERE event_id=$9 AND user_id=$10`,
		ev.Title, ev.Date, ev.Time, ev.DurationMinutes, ev.Repeat, ev.Notes,
		ev.ReminderMinutesBefore, ev.ReminderEnabled, ev.EventID, ev.UserID)
	if err != nil {
		return fmt.Errorf("update event failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteEvent(userID string, eventID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete event begin tx failed: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`UPDATE steps SET planned_date=NULL, planned_time=NULL, linked_event_id=NULL
		WHERE linked_event_id = (SELECT event_id FROM events WHERE event_id = $1 AND user_id = $2)`, eventID, userID); err != nil {
		return fmt.Errorf("delete event step unlink failed: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM events WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete event failed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteEventByLinkedStep(stepID int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE linked_step_id = $1`, stepID)
	if err != nil {
		return fmt.Errorf("delete event by linked step failed: %w", err)
	}
	return nil
}

// --- Conversation Messages ---

func (s *PostgresStore) AppendMessage(m models.ConversationMessage) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("append message begin tx failed: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`INSERT INTO conversation_messages (user_id, role, text, timestamp, intent)
		VALUES ($1, $2, $3, $4, $5)`, m.UserID, string(m.Role), m.Text, m.Timestamp, nilIfEmpty(m.Intent)); err != nil {
		return fmt.Errorf("append message insert failed: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversation_messages WHERE user_id = $1 AND msg_id NOT IN (
		SELECT msg_id FROM conversation_messages WHERE user_id = $1 ORDER BY msg_id DESC LIMIT $2)`,
		m.UserID, models.ConversationHistoryWindow); err != nil {
		return fmt.Errorf("append message trim failed: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) RecentMessages(userID string, limit int) ([]models.ConversationMessage, error) {
	rows, err := s.db.Query(`SELECT msg_id, user_id, role, text, timestamp, intent FROM conversation_messages
		WHERE user_id = $1 ORDER BY msg_id DESC LIMIT $2`, userID, limit)
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
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// --- Session State ---

func (s *PostgresStore) GetSession(userID string) (*models.SessionState, error) {
	row := s.db.QueryRow(`SELECT user_id, state, state_context, updated_at FROM session_states WHERE user_id = $1`, userID)
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
			slog.Warn("PostgresStore.GetSession: state_context unmarshal failed", "userID", userID, "error", err)
		}
	}
	return &st, nil
}

func (s *PostgresStore) SaveSession(st models.SessionState) error {
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
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET state=EXCLUDED.state, state_context=EXCLUDED.state_context, updated_at=EXCLUDED.updated_at`,
		st.UserID, string(st.State), nilIfEmptyBytes(contextJSON), st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save session failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSession(userID string) error {
	_, err := s.db.Exec(`DELETE FROM session_states WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}
