package models

import (
	"testing"
	"time"
)

func TestSessionStateIsExpired(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		state   SessionState
		expired bool
	}{
		{"idle never expires", SessionState{State: StateIdle, UpdatedAt: now.Add(-2 * time.Hour)}, false},
		{"fresh non-idle", SessionState{State: StateGoalClarification, UpdatedAt: now.Add(-5 * time.Minute)}, false},
		{"stale non-idle", SessionState{State: StateGoalClarification, UpdatedAt: now.Add(-31 * time.Minute)}, true},
		{"exactly at boundary", SessionState{State: StateGoalClarification, UpdatedAt: now.Add(-30 * time.Minute)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.state.IsExpired(now); got != c.expired {
				t.Errorf("IsExpired() = %v, want %v", got, c.expired)
			}
		})
	}
}

func TestEntityRefHasOrdinal(t *testing.T) {
	id := int64(5)
	direct := EntityRef{ID: &id}
	if direct.HasOrdinal() {
		t.Error("direct ref reported HasOrdinal")
	}
	ordinal := EntityRef{SetID: "abc", Ordinal: 2}
	if !ordinal.HasOrdinal() {
		t.Error("ordinal ref did not report HasOrdinal")
	}
}

func TestStepIsScheduled(t *testing.T) {
	s := Step{}
	if s.IsScheduled() {
		t.Error("zero-value step reported scheduled")
	}
	d := time.Now()
	s.PlannedDate = &d
	if !s.IsScheduled() {
		t.Error("step with PlannedDate did not report scheduled")
	}
}

func TestEditEntityFieldStatesCoversCallbackGrammar(t *testing.T) {
	want := map[string][]string{
		"goal":  {"title", "description", "deadline", "category", "priority"},
		"event": {"title", "date", "time", "duration", "notes"},
		"step":  {"title", "date", "time"},
	}
	for entity, fields := range want {
		for _, f := range fields {
			if _, ok := EditEntityFieldStates[entity][f]; !ok {
				t.Errorf("missing edit state for %s:%s", entity, f)
			}
		}
	}
}
