package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/models"
)

func TestApplyEditCommitUpdatesGoalTitle(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	goal := &models.Goal{UserID: userID, Title: "Old", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	commit := dialog.EditCommit{Entity: "goal", Field: "title", ID: goal.GoalID, NewValue: "New title"}
	resp := d.applyEditCommit(userID, commit, time.Now().UTC())
	if !resp.Success {
		t.Fatalf("applyEditCommit response = %+v, want success", resp)
	}

	got, err := st.GetGoal(userID, goal.GoalID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got.Title != "New title" {
		t.Errorf("goal title = %q, want %q", got.Title, "New title")
	}
}

func TestApplyEditCommitRejectsUnknownEntity(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	commit := dialog.EditCommit{Entity: "bogus", Field: "title", ID: 1, NewValue: "x"}
	resp := d.applyEditCommit("u1", commit, time.Now().UTC())
	if resp.Success {
		t.Error("applyEditCommit(unknown entity).Success = true, want false")
	}
}

func TestApplyEditCommitRejectsNonEditableGoalField(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	goal := &models.Goal{UserID: userID, Title: "Goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	commit := dialog.EditCommit{Entity: "goal", Field: "status", ID: goal.GoalID, NewValue: "active"}
	resp := d.applyEditCommit(userID, commit, time.Now().UTC())
	if resp.Success {
		t.Error("applyEditCommit(non-editable field).Success = true, want false")
	}
}

func TestApplyEventEditUpdatesDuration(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	ev := &models.Event{UserID: userID, Title: "Event", Date: time.Now().UTC(), DurationMinutes: 30, EventType: models.EventTypeUser}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	commit := dialog.EditCommit{Entity: "event", Field: "duration", ID: ev.EventID, NewValue: "45"}
	resp := d.applyEditCommit(userID, commit, time.Now().UTC())
	if !resp.Success {
		t.Fatalf("applyEditCommit(event duration) response = %+v, want success", resp)
	}
	got, err := st.GetEvent(userID, ev.EventID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got.DurationMinutes != 45 {
		t.Errorf("event duration = %d, want 45", got.DurationMinutes)
	}
}

func TestApplyEventEditRejectsNonPositiveDuration(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	ev := &models.Event{UserID: userID, Title: "Event", Date: time.Now().UTC(), DurationMinutes: 30, EventType: models.EventTypeUser}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	commit := dialog.EditCommit{Entity: "event", Field: "duration", ID: ev.EventID, NewValue: "-5"}
	resp := d.applyEditCommit(userID, commit, time.Now().UTC())
	if resp.Success {
		t.Error("applyEditCommit(negative duration).Success = true, want false")
	}
}

func TestApplyStepEditUpdatesPlannedDate(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	goal := &models.Goal{UserID: userID, Title: "Goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	step := &models.Step{GoalID: goal.GoalID, Title: "Step", Order: 1, Status: models.StepStatusPending}
	if err := st.AddStep(step); err != nil {
		t.Fatalf("AddStep failed: %v", err)
	}
	commit := dialog.EditCommit{Entity: "step", Field: "date", ID: step.StepID, NewValue: "2026-09-01"}
	resp := d.applyEditCommit(userID, commit, time.Now().UTC())
	if !resp.Success {
		t.Fatalf("applyEditCommit(step date) response = %+v, want success", resp)
	}
	got, err := st.GetStep(step.StepID)
	if err != nil {
		t.Fatalf("GetStep failed: %v", err)
	}
	if got.PlannedDate == nil || got.PlannedDate.Format("2006-01-02") != "2026-09-01" {
		t.Errorf("step planned date = %v, want 2026-09-01", got.PlannedDate)
	}
}

func TestHandleConfirmGoalDeleteRemovesGoal(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	goal := &models.Goal{UserID: userID, Title: "Goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	resp := d.handleConfirm(context.Background(), userID, "goal_delete", goal.GoalID, time.Now().UTC())
	if !resp.Success {
		t.Fatalf("handleConfirm(goal_delete) response = %+v, want success", resp)
	}
	got, err := st.GetGoal(userID, goal.GoalID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if got != nil {
		t.Error("goal still present after confirm delete")
	}
}

func TestHandleConfirmRejectsUnknownOp(t *testing.T) {
	d, _ := newTestDispatcher(t, nil)
	resp := d.handleConfirm(context.Background(), "u1", "bogus_op", 1, time.Now().UTC())
	if resp.Success {
		t.Error("handleConfirm(unknown op).Success = true, want false")
	}
}

func TestHandleConfirmStepDeleteRemovesLinkedEvent(t *testing.T) {
	d, st := newTestDispatcher(t, nil)
	userID := "u1"
	goal := &models.Goal{UserID: userID, Title: "Goal", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	s := &models.Step{GoalID: goal.GoalID, Title: "Step", Order: 1, Status: models.StepStatusPending}
	ev := &models.Event{UserID: userID, Title: "Step", Date: time.Now().UTC(), DurationMinutes: 30, EventType: models.EventTypeGoalStep, LinkedGoalID: &goal.GoalID}
	if err := st.AddStepWithEvent(s, ev); err != nil {
		t.Fatalf("AddStepWithEvent failed: %v", err)
	}

	resp := d.handleConfirm(context.Background(), userID, "step_delete", s.StepID, time.Now().UTC())
	if !resp.Success {
		t.Fatalf("handleConfirm(step_delete) response = %+v, want success", resp)
	}
	got, err := st.GetStep(s.StepID)
	if err != nil {
		t.Fatalf("GetStep failed: %v", err)
	}
	if got != nil {
		t.Error("step still present after confirm delete")
	}
}
