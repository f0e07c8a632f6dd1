package store

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

func newGoalForgeTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "sqlite_store_test_")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	s, err := NewSQLiteStore(WithDSN(filepath.Join(tempDir, "test.db")))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustUpsertUser(t *testing.T, s *SQLiteStore, userID string) {
	t.Helper()
	if err := s.UpsertUser(models.User{UserID: userID, Timezone: models.DefaultTimezone}); err != nil {
		t.Fatalf("UpsertUser(%q) failed: %v", userID, err)
	}
}

func TestSQLiteStore_UserUpsertAndGet(t *testing.T) {
	s := newGoalForgeTestStore(t)

	u := models.User{UserID: "u1", ChatID: "chat1", Timezone: "Europe/Moscow",
		NotifyEventReminder: true, NotifyGoalDeadline: true, NotifyStepReminder: true, NotifyMotivation: true}
	if err := s.UpsertUser(u); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err := s.GetUser("u1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.ChatID != "chat1" {
		t.Fatalf("unexpected user: %+v", got)
	}

	u.ChatID = "chat1-updated"
	if err := s.UpsertUser(u); err != nil {
		t.Fatalf("UpsertUser (update) failed: %v", err)
	}
	got, _ = s.GetUser("u1")
	if got.ChatID != "chat1-updated" {
		t.Errorf("expected updated chat id, got %q", got.ChatID)
	}
}

func TestSQLiteStore_GetUserNotFound(t *testing.T) {
	s := newGoalForgeTestStore(t)
	got, err := s.GetUser("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing user")
	}
}

func TestSQLiteStore_GoalCRUDAndStepProgress(t *testing.T) {
	s := newGoalForgeTestStore(t)
	mustUpsertUser(t, s, "u1")

	g := &models.Goal{UserID: "u1", Title: "Learn Go", Status: models.GoalStatusActive, Priority: models.GoalPriorityHigh}
	if err := s.CreateGoal(g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if g.GoalID == 0 {
		t.Fatal("expected a non-zero goal id")
	}

	st1 := &models.Step{GoalID: g.GoalID, Title: "Read the tour", Order: 1, Status: models.StepStatusPending}
	st2 := &models.Step{GoalID: g.GoalID, Title: "Write a CLI", Order: 2, Status: models.StepStatusPending}
	if err := s.AddStep(st1); err != nil {
		t.Fatalf("AddStep 1 failed: %v", err)
	}
	if err := s.AddStep(st2); err != nil {
		t.Fatalf("AddStep 2 failed: %v", err)
	}

	updated, err := s.UpdateStepStatus(st1.StepID, models.StepStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStepStatus failed: %v", err)
	}
	if updated.ProgressPercent != 50 {
		t.Errorf("expected 50%% progress after completing 1 of 2 steps, got %d", updated.ProgressPercent)
	}
	if updated.Status != models.GoalStatusActive {
		t.Errorf("expected goal to remain active at 50%%, got %q", updated.Status)
	}

	final, err := s.UpdateStepStatus(st2.StepID, models.StepStatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStepStatus (final) failed: %v", err)
	}
	if final.ProgressPercent != 100 {
		t.Errorf("expected 100%% progress, got %d", final.ProgressPercent)
	}
	if final.Status != models.GoalStatusCompleted {
		t.Errorf("expected goal auto-completed at 100%%, got %q", final.Status)
	}
}

func TestSQLiteStore_DeleteGoalCascade(t *testing.T) {
	s := newGoalForgeTestStore(t)
	mustUpsertUser(t, s, "u1")

	g := &models.Goal{UserID: "u1", Title: "Temp goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityLow}
	if err := s.CreateGoal(g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	st := &models.Step{GoalID: g.GoalID, Title: "Temp step", Order: 1, Status: models.StepStatusPending}
	if err := s.AddStep(st); err != nil {
		t.Fatalf("AddStep failed: %v", err)
	}

	if err := s.DeleteGoalCascade("u1", g.GoalID); err != nil {
		t.Fatalf("DeleteGoalCascade failed: %v", err)
	}

	got, err := s.GetGoal("u1", g.GoalID)
	if err != nil {
		t.Fatalf("GetGoal after delete failed: %v", err)
	}
	if got != nil {
		t.Error("expected goal to be gone after cascade delete")
	}
	steps, err := s.ListSteps(g.GoalID)
	if err != nil {
		t.Fatalf("ListSteps after delete failed: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("expected no steps after cascade delete, got %d", len(steps))
	}
}

func TestSQLiteStore_EventsBetween(t *testing.T) {
	s := newGoalForgeTestStore(t)
	mustUpsertUser(t, s, "u1")

	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	ev := &models.Event{UserID: "u1", Title: "Standup", Date: base, DurationMinutes: 30, EventType: models.EventTypeUser}
	if err := s.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	events, err := s.ListEventsBetween("u1", base.Add(-24*time.Hour), base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListEventsBetween failed: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Standup" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestSQLiteStore_ConversationHistoryWindow(t *testing.T) {
	s := newGoalForgeTestStore(t)
	mustUpsertUser(t, s, "u1")

	for i := 0; i < models.ConversationHistoryWindow+10; i++ {
		m := models.ConversationMessage{UserID: "u1", Role: models.MessageRoleUser, Text: "hi"}
		if err := s.AppendMessage(m); err != nil {
			t.Fatalf("AppendMessage %d failed: %v", i, err)
		}
	}

	msgs, err := s.RecentMessages("u1", models.ConversationHistoryWindow+10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(msgs) != models.ConversationHistoryWindow {
		t.Errorf("expected history trimmed to %d, got %d", models.ConversationHistoryWindow, len(msgs))
	}
}

func TestSQLiteStore_SessionStateRoundTrip(t *testing.T) {
	s := newGoalForgeTestStore(t)
	mustUpsertUser(t, s, "u1")

	st := models.SessionState{UserID: "u1", State: models.StateGoalClarification, StateContext: map[string]any{"goal_title": "Learn Go"}}
	if err := s.SaveSession(st); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := s.GetSession("u1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil || got.State != models.StateGoalClarification {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.StateContext["goal_title"] != "Learn Go" {
		t.Errorf("expected state context to round-trip, got %+v", got.StateContext)
	}

	if err := s.DeleteSession("u1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	got, _ = s.GetSession("u1")
	if got != nil {
		t.Error("expected session to be gone after delete")
	}
}

// TestPostgresStore runs the same smoke checks against a live PostgreSQL
// instance when DATABASE_URL is set; it is skipped otherwise.
func TestPostgresStore(t *testing.T) {
	connStr := getenvOrSkip(t, "DATABASE_URL")
	pg, err := NewPostgresStore(WithDSN(connStr))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer pg.Close()

	userID := "pg-smoke-user"
	if err := pg.UpsertUser(models.User{UserID: userID, Timezone: models.DefaultTimezone}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	g := &models.Goal{UserID: userID, Title: "Postgres smoke goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := pg.CreateGoal(g); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	if err := pg.DeleteGoalCascade(userID, g.GoalID); err != nil {
		t.Fatalf("DeleteGoalCascade failed: %v", err)
	}
}

func getenvOrSkip(t *testing.T, key string) string {
	v := ""
	if val, ok := syscall.Getenv(key); ok {
		v = val
	}
	if v == "" {
		t.Skipf("env %s not set", key)
	}
	return v
}
