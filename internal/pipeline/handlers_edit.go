package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/models"
)

// applyEditCommit persists a free-text value the dialog machine collected
// for an `edit:<entity>:<field>:<id>` callback. Entity/field combinations
// are exactly those enumerated in models.EditEntityFieldStates.
func (d *Dispatcher) applyEditCommit(userID string, commit dialog.EditCommit, now time.Time) models.Response {
	var err error
	switch commit.Entity {
	case "goal":
		err = d.applyGoalEdit(userID, commit, now)
	case "event":
		err = d.applyEventEdit(userID, commit, now)
	case "step":
		err = d.applyStepEdit(commit)
	default:
		err = fmt.Errorf("%w: unknown edit entity %q", models.ErrIntentInvalid, commit.Entity)
	}
	if err != nil {
		return d.errorResponse(err)
	}
	text := "Изменения сохранены."
	d.appendMessage(userID, models.MessageRoleAssistant, text, now, "")
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: text}
}

func (d *Dispatcher) applyGoalEdit(userID string, commit dialog.EditCommit, now time.Time) error {
	goal, err := d.store.GetGoal(userID, commit.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if goal == nil {
		return fmt.Errorf("%w: goal %d", models.ErrReferencesUnknownEntity, commit.ID)
	}
	switch commit.Field {
	case "title":
		goal.Title = commit.NewValue
	case "description":
		goal.Description = commit.NewValue
	case "deadline":
		t, err := models.ParseDateField(commit.NewValue)
		if err != nil {
			return err
		}
		goal.TargetDate = &t
	case "category":
		goal.Category = commit.NewValue
	case "priority":
		goal.Priority = models.GoalPriority(commit.NewValue)
	default:
		return fmt.Errorf("%w: goal field %q is not editable", models.ErrIntentInvalid, commit.Field)
	}
	if err := goal.ValidateGoal(); err != nil {
		return err
	}
	goal.UpdatedAt = now
	if err := d.store.UpdateGoal(*goal); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (d *Dispatcher) applyEventEdit(userID string, commit dialog.EditCommit, now time.Time) error {
	ev, err := d.store.GetEvent(userID, commit.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if ev == nil {
		return fmt.Errorf("%w: event %d", models.ErrReferencesUnknownEntity, commit.ID)
	}
	switch commit.Field {
	case "title":
		ev.Title = commit.NewValue
	case "date":
		t, err := models.ParseDateField(commit.NewValue)
		if err != nil {
			return err
		}
		ev.Date = t
	case "time":
		t, err := models.ParseTimeField(commit.NewValue)
		if err != nil {
			return err
		}
		ev.Time = &t
	case "duration":
		minutes, err := parseDurationMinutes(commit.NewValue)
		if err != nil {
			return err
		}
		ev.DurationMinutes = minutes
	case "notes":
		ev.Notes = commit.NewValue
	default:
		return fmt.Errorf("%w: event field %q is not editable", models.ErrIntentInvalid, commit.Field)
	}
	if err := d.store.UpdateEvent(*ev); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func (d *Dispatcher) applyStepEdit(commit dialog.EditCommit) error {
	step, err := d.store.GetStep(commit.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if step == nil {
		return fmt.Errorf("%w: step %d", models.ErrReferencesUnknownEntity, commit.ID)
	}
	switch commit.Field {
	case "title":
		step.Title = commit.NewValue
	case "date":
		t, err := models.ParseDateField(commit.NewValue)
		if err != nil {
			return err
		}
		step.PlannedDate = &t
	case "time":
		t, err := models.ParseTimeField(commit.NewValue)
		if err != nil {
			return err
		}
		step.PlannedTime = &t
	default:
		return fmt.Errorf("%w: step field %q is not editable", models.ErrIntentInvalid, commit.Field)
	}
	if err := d.store.UpdateStep(*step); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func parseDurationMinutes(s string) (int, error) {
	var minutes int
	if _, err := fmt.Sscanf(s, "%d", &minutes); err != nil || minutes <= 0 {
		return 0, fmt.Errorf("%w: duration %q is not a positive number of minutes", models.ErrIntentInvalid, s)
	}
	return minutes, nil
}

// handleConfirm re-runs, for real, a mutation that was previously offered
// as a dry-run confirmation. The confirm:<op>:<id> callback grammar carries
// only an id, so it is exercised for destructive ops whose id alone fully
// determines the action; create/update confirmations are instead resolved
// by the user simply repeating their request without dry_run.
func (d *Dispatcher) handleConfirm(ctx context.Context, userID string, op string, id int64, now time.Time) models.Response {
	var err error
	var text string
	switch op {
	case "event_delete":
		err = d.store.DeleteEvent(userID, id)
		text = "Событие удалено."
	case "goal_delete":
		err = d.store.DeleteGoalCascade(userID, id)
		text = "Цель удалена."
	case "step_delete":
		if step, getErr := d.store.GetStep(id); getErr == nil && step != nil && step.LinkedEventID != nil {
			if delErr := d.store.DeleteEventByLinkedStep(step.StepID); delErr != nil {
				err = delErr
				break
			}
		}
		err = d.store.DeleteStepCascade(id)
		text = "Шаг удалён."
	default:
		err = fmt.Errorf("%w: unknown confirm op %q", models.ErrIntentInvalid, op)
	}
	if err != nil {
		return d.errorResponse(mapStoreErr(err))
	}
	d.appendMessage(userID, models.MessageRoleAssistant, text, now, "")
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: text}
}
