package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

func newAssemblerTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "assembler-test.db")
	st, err := store.NewSQLiteStore(store.WithDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAssembleUsesUserTimezoneWhenProfileExists(t *testing.T) {
	st := newAssemblerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "c1", Timezone: "Asia/Novosibirsk"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	a := NewContextAssembler(st)
	bundle := a.Assemble(userID, models.SessionState{UserID: userID, State: models.StateIdle}, time.Now().UTC())
	if bundle.Timezone != "Asia/Novosibirsk" {
		t.Errorf("Assemble().Timezone = %q, want %q", bundle.Timezone, "Asia/Novosibirsk")
	}
}

func TestAssembleDefaultsTimezoneWhenUserIsUnknown(t *testing.T) {
	st := newAssemblerTestStore(t)
	a := NewContextAssembler(st)
	bundle := a.Assemble("nonexistent", models.SessionState{State: models.StateIdle}, time.Now().UTC())
	if bundle.Timezone != models.DefaultTimezone {
		t.Errorf("Assemble().Timezone = %q, want default %q", bundle.Timezone, models.DefaultTimezone)
	}
}

func TestAssembleIncludesActiveGoalsUpToTheCap(t *testing.T) {
	st := newAssemblerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "c1", Timezone: "UTC"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	for i := 0; i < models.MaxActiveGoalsInBundle+5; i++ {
		g := &models.Goal{UserID: userID, Title: "Goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
		if err := st.CreateGoal(g); err != nil {
			t.Fatalf("CreateGoal failed: %v", err)
		}
	}

	a := NewContextAssembler(st)
	bundle := a.Assemble(userID, models.SessionState{State: models.StateIdle}, time.Now().UTC())
	if len(bundle.ActiveGoals) != models.MaxActiveGoalsInBundle {
		t.Errorf("Assemble().ActiveGoals has %d entries, want capped at %d", len(bundle.ActiveGoals), models.MaxActiveGoalsInBundle)
	}
}

func TestAssembleIncludesUpcomingEventsWithinTheWindow(t *testing.T) {
	st := newAssemblerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "c1", Timezone: "UTC"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	now := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	inWindow := &models.Event{UserID: userID, Title: "Soon", Date: now.AddDate(0, 0, 2), DurationMinutes: 30, EventType: models.EventTypeUser}
	outOfWindow := &models.Event{UserID: userID, Title: "Later", Date: now.AddDate(0, 0, 30), DurationMinutes: 30, EventType: models.EventTypeUser}
	if err := st.CreateEvent(inWindow); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if err := st.CreateEvent(outOfWindow); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	a := NewContextAssembler(st)
	bundle := a.Assemble(userID, models.SessionState{State: models.StateIdle}, now)
	if len(bundle.UpcomingEvents) != 1 || bundle.UpcomingEvents[0].Title != "Soon" {
		t.Errorf("Assemble().UpcomingEvents = %+v, want only the in-window event", bundle.UpcomingEvents)
	}
}

func TestAssembleCarriesStateContextOnlyWhenNotIdle(t *testing.T) {
	st := newAssemblerTestStore(t)
	a := NewContextAssembler(st)

	idle := a.Assemble("u1", models.SessionState{State: models.StateIdle, StateContext: map[string]any{"x": 1}}, time.Now().UTC())
	if idle.StateContext != nil {
		t.Errorf("Assemble() in idle state carried StateContext = %v, want nil", idle.StateContext)
	}

	active := a.Assemble("u1", models.SessionState{State: models.StateGoalClarification, StateContext: map[string]any{"x": 1}}, time.Now().UTC())
	if active.StateContext == nil {
		t.Error("Assemble() in a non-idle state did not carry StateContext")
	}
}
