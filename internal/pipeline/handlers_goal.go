package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/llm"
	"github.com/BTreeMap/GoalForge/internal/models"
)

// handleGoalSearch implements goal.search: an ordered goal list with a
// Result Set.
func (d *Dispatcher) handleGoalSearch(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	status := models.GoalStatus(intent.Status)
	goals, err := d.store.ListGoals(userID, status)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	sortGoals(goals)

	ids := make([]int64, len(goals))
	items := make([]any, len(goals))
	for i, g := range goals {
		ids[i] = g.GoalID
		items[i] = g
	}
	setID := d.results.Put(userID, models.ResultSetKindGoals, ids, now)

	return models.Response{Success: true, ResponseType: models.ResponseRenderTable, SetID: setID, Items: items}, nil
}

// handleGoalCreate starts the goal.create flow: SMART validation must
// happen before a goal is decomposed, so a direct goal.create intent
// (one not routed through the dialog clarification loop) is itself routed
// into GOAL_CLARIFICATION rather than created outright.
func (d *Dispatcher) handleGoalCreate(ctx context.Context, userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	draft := dialog.GoalDraft{
		Title:          intent.Title,
		Description:    intent.Description,
		Category:       intent.Category,
		Priority:       intent.Priority,
		UserLevel:      intent.UserLevel,
		TimeCommitment: intent.TimeCommitment,
	}
	if intent.TargetDate != "" {
		t, err := models.ParseDateField(intent.TargetDate)
		if err != nil {
			return models.Response{}, err
		}
		draft.TargetDate = &t
	}

	followUp, err := d.dialogMC.EnterGoalClarification(userID, draft, now)
	if err != nil {
		return models.Response{}, err
	}
	return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: followUp}, nil
}

func (d *Dispatcher) handleGoalDelete(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.GoalRef, now)
	if err != nil {
		return models.Response{}, err
	}
	if intent.DryRun {
		return models.Response{
			Success: true, ResponseType: models.ResponseAskClarification, Text: "Удалить эту цель вместе со всеми шагами?",
			Buttons: [][]models.Button{{
				{Text: "Да, удалить", CallbackData: fmt.Sprintf("confirm:goal_delete:%d", id)},
				{Text: "Отмена", CallbackData: "cancel"},
			}},
		}, nil
	}
	if err := d.store.DeleteGoalCascade(userID, id); err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "Цель удалена."}, nil
}

// handleGoalQuery returns a single goal with its step list (no Result
// Set — this is a detail view, not a list).
func (d *Dispatcher) handleGoalQuery(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.GoalRef, now)
	if err != nil {
		return models.Response{}, err
	}
	goal, err := d.store.GetGoal(userID, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if goal == nil {
		return models.Response{}, fmt.Errorf("%w: goal %d", models.ErrReferencesUnknownEntity, id)
	}
	steps, err := d.store.ListSteps(goal.GoalID)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	sortSteps(steps)

	items := make([]any, 0, len(steps)+1)
	items = append(items, *goal)
	for _, s := range steps {
		items = append(items, s)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Items: items}, nil
}

func (d *Dispatcher) handleGoalUpdateStep(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.StepRef, now)
	if err != nil {
		return models.Response{}, err
	}
	status := models.StepStatus(intent.NewStatus)
	switch status {
	case models.StepStatusPending, models.StepStatusInProgress, models.StepStatusCompleted:
	default:
		return models.Response{}, fmt.Errorf("%w: invalid step status %q", models.ErrIntentInvalid, intent.NewStatus)
	}
	if intent.DryRun {
		return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: "Отметить этот шаг соответствующим статусом?"}, nil
	}
	goal, err := d.store.UpdateStepStatus(id, status)
	if err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	resp := models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "Шаг обновлён."}
	if goal != nil {
		resp.Items = []any{*goal}
	}
	return resp, nil
}

func (d *Dispatcher) handleGoalAddStep(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	if intent.GoalID == nil {
		return models.Response{}, fmt.Errorf("%w: goal.add_step requires goal_id", models.ErrIntentInvalid)
	}
	goal, err := d.store.GetGoal(userID, *intent.GoalID)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if goal == nil {
		return models.Response{}, fmt.Errorf("%w: goal %d", models.ErrReferencesUnknownEntity, *intent.GoalID)
	}
	maxOrder, err := d.store.MaxStepOrder(goal.GoalID)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	order := maxOrder + 1
	if intent.Order != nil {
		order = *intent.Order
	}

	step := &models.Step{GoalID: goal.GoalID, Title: intent.Title, Order: order, Status: models.StepStatusPending}
	if intent.DryRun {
		return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: "Добавить этот шаг?", Items: []any{*step}}, nil
	}

	if intent.PlannedDate != "" {
		pd, err := models.ParseDateField(intent.PlannedDate)
		if err != nil {
			return models.Response{}, err
		}
		step.PlannedDate = &pd
		var pt *string
		if intent.PlannedTime != "" {
			t, err := models.ParseTimeField(intent.PlannedTime)
			if err != nil {
				return models.Response{}, err
			}
			pt = &t
		}
		step.PlannedTime = pt
		duration := models.DefaultEventDurationMinutes
		step.DurationMinutes = &duration
		ev := &models.Event{
			UserID: userID, Title: step.Title, Date: pd, Time: pt,
			DurationMinutes: duration, EventType: models.EventTypeGoalStep,
			LinkedGoalID: &goal.GoalID, ReminderMinutesBefore: models.DefaultReminderMinutesBefore,
			ReminderEnabled: true, CreatedAt: now,
		}
		if err := d.store.AddStepWithEvent(step, ev); err != nil {
			return models.Response{}, mapStoreErr(err)
		}
	} else if err := d.store.AddStep(step); err != nil {
		return models.Response{}, mapStoreErr(err)
	}

	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Items: []any{*step}}, nil
}

func (d *Dispatcher) handleGoalDeleteStep(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.StepRef, now)
	if err != nil {
		return models.Response{}, err
	}
	step, err := d.store.GetStep(id)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if step == nil {
		return models.Response{}, fmt.Errorf("%w: step %d", models.ErrReferencesUnknownEntity, id)
	}
	if intent.DryRun {
		return models.Response{
			Success: true, ResponseType: models.ResponseAskClarification, Text: "Удалить этот шаг?",
			Buttons: [][]models.Button{{
				{Text: "Да, удалить", CallbackData: fmt.Sprintf("confirm:step_delete:%d", id)},
				{Text: "Отмена", CallbackData: "cancel"},
			}},
		}, nil
	}
	if step.LinkedEventID != nil {
		if err := d.store.DeleteEventByLinkedStep(step.StepID); err != nil {
			return models.Response{}, mapStoreErr(err)
		}
	}
	if err := d.store.DeleteStepCascade(step.StepID); err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "Шаг удалён."}, nil
}

// createGoalFromDraft takes a SMART-validated draft, lets it leave the
// dialog machine, and turns it into a persisted Goal with a
// decomposed Step list, then the flow enters SCHEDULE_PREFS_DAYS (driven by
// the dialog machine's own transition, triggered from EnterGoalClarification
// reaching a passing draft — here we only persist and ask for schedule
// preferences).
func (d *Dispatcher) createGoalFromDraft(ctx context.Context, userID string, draft dialog.GoalDraft, now time.Time) models.Response {
	goal := &models.Goal{
		UserID: userID, Title: draft.Title, Description: draft.Description,
		Status: models.GoalStatusActive, Category: draft.Category,
		Priority: models.GoalPriority(draft.Priority), TargetDate: draft.TargetDate,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := d.store.CreateGoal(goal); err != nil {
		return d.errorResponse(mapStoreErr(err))
	}

	llmDraft := llm.GoalDraft{
		Title: draft.Title, Description: draft.Description,
		UserLevel: models.UserLevel(draft.UserLevel),
	}
	if draft.TargetDate != nil {
		llmDraft.TargetDate = draft.TargetDate.Format("2006-01-02")
	}
	steps := d.llm.DecomposeGoal(ctx, d.templates, llmDraft)
	for _, s := range steps {
		hours := s.EstimatedHours
		step := &models.Step{GoalID: goal.GoalID, Title: s.Title, Order: s.Order, Status: models.StepStatusPending, EstimatedHours: &hours}
		if err := d.store.AddStep(step); err != nil {
			return d.errorResponse(mapStoreErr(err))
		}
	}

	text := "Цель сохранена и разбита на шаги. Когда вам удобно работать над ней? Выберите дни недели."
	d.appendMessage(userID, models.MessageRoleAssistant, text, now, string(models.IntentGoalCreate))
	return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: text, Items: []any{*goal}}
}

// completeScheduling runs once the user has picked a day/time preference:
// the auto-scheduler places every unscheduled step on the calendar.
func (d *Dispatcher) completeScheduling(ctx context.Context, userID string, prefs dialog.SchedulePrefs, now time.Time) models.Response {
	goals, err := d.store.ListGoals(userID, models.GoalStatusActive)
	if err != nil {
		return d.errorResponse(fmt.Errorf("%w: %v", models.ErrStoreTransient, err))
	}
	var target *models.Goal
	for i := range goals {
		if !goals[i].IsScheduled {
			target = &goals[i]
			break
		}
	}
	if target == nil {
		return d.errorResponse(fmt.Errorf("%w: no unscheduled goal pending", models.ErrReferencesUnknownEntity))
	}

	text := "Цель запланирована."
	var placeErr error
	if d.placer != nil {
		placeErr = d.placer.PlaceGoal(ctx, userID, target.GoalID, prefs)
	}
	if placeErr != nil {
		text = RenderErrorRU(fmt.Errorf("%w: %v", models.ErrSchedulerPlacementFailure, placeErr))
	}
	d.appendMessage(userID, models.MessageRoleAssistant, text, now, "")
	return models.Response{Success: placeErr == nil, ResponseType: models.ResponseFinalText, Text: text}
}
