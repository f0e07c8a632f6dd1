package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

func newPlacerTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "placer-test.db")
	st, err := store.NewSQLiteStore(store.WithDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPlaceGoalAtSchedulesEachStepOnASelectedWeekday(t *testing.T) {
	st := newPlacerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "chat1", Timezone: "UTC"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	goal := &models.Goal{UserID: userID, Title: "Learn Go", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	for i, title := range []string{"Read the tour", "Write a CLI"} {
		s := &models.Step{GoalID: goal.GoalID, Title: title, Order: i + 1, Status: models.StepStatusPending}
		if err := st.AddStep(s); err != nil {
			t.Fatalf("AddStep failed: %v", err)
		}
	}

	as := NewAutoScheduler(st)
	now := mustTime("2026-08-03") // Monday
	prefs := dialog.SchedulePrefs{Days: []int{0}, Hour: 9}
	if err := as.placeGoalAt(context.Background(), userID, goal.GoalID, prefs, now); err != nil {
		t.Fatalf("placeGoalAt failed: %v", err)
	}

	steps, err := st.ListSteps(goal.GoalID)
	if err != nil {
		t.Fatalf("ListSteps failed: %v", err)
	}
	for _, s := range steps {
		if !s.IsScheduled() {
			t.Errorf("step %q was not scheduled", s.Title)
			continue
		}
		if isoWeekday(*s.PlannedDate) != 0 {
			t.Errorf("step %q placed on weekday %d, want Monday (0)", s.Title, isoWeekday(*s.PlannedDate))
		}
	}

	updated, err := st.GetGoal(userID, goal.GoalID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !updated.IsScheduled {
		t.Error("goal.IsScheduled = false after successful placement")
	}
}

func TestPlaceGoalAtIsIdempotentOnAlreadyScheduledGoal(t *testing.T) {
	st := newPlacerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "chat1", Timezone: "UTC"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	goal := &models.Goal{UserID: userID, Title: "Already done", Status: models.GoalStatusActive, Priority: models.GoalPriorityLow, IsScheduled: true}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	as := NewAutoScheduler(st)
	prefs := dialog.SchedulePrefs{Days: []int{0}, Hour: 9}
	if err := as.placeGoalAt(context.Background(), userID, goal.GoalID, prefs, mustTime("2026-08-03")); err != nil {
		t.Fatalf("placeGoalAt on an already-scheduled goal returned an error: %v", err)
	}
}

func TestPlaceGoalAtFailsWhenNoWeekdayMatches(t *testing.T) {
	st := newPlacerTestStore(t)
	userID := "u1"
	if err := st.UpsertUser(models.User{UserID: userID, ChatID: "chat1", Timezone: "UTC"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	goal := &models.Goal{UserID: userID, Title: "Impossible prefs", Status: models.GoalStatusActive, Priority: models.GoalPriorityLow}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	s := &models.Step{GoalID: goal.GoalID, Title: "Step 1", Order: 1, Status: models.StepStatusPending}
	if err := st.AddStep(s); err != nil {
		t.Fatalf("AddStep failed: %v", err)
	}

	as := NewAutoScheduler(st)
	prefs := dialog.SchedulePrefs{Days: nil, Hour: 9} // no weekday selected at all
	err := as.placeGoalAt(context.Background(), userID, goal.GoalID, prefs, mustTime("2026-08-03"))
	if err == nil {
		t.Fatal("placeGoalAt() = nil, want error when no weekday matches")
	}
	if !errors.Is(err, models.ErrSchedulerPlacementFailure) {
		t.Errorf("placeGoalAt() error = %v, want wrapping ErrSchedulerPlacementFailure", err)
	}
}

func TestPlaceGoalAtReturnsUnknownEntityForMissingGoal(t *testing.T) {
	st := newPlacerTestStore(t)
	as := NewAutoScheduler(st)
	prefs := dialog.SchedulePrefs{Days: []int{0}, Hour: 9}
	err := as.placeGoalAt(context.Background(), "u1", 99999, prefs, time.Now().UTC())
	if !errors.Is(err, models.ErrReferencesUnknownEntity) {
		t.Errorf("placeGoalAt() error = %v, want wrapping ErrReferencesUnknownEntity", err)
	}
}
