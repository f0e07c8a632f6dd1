package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BTreeMap/GoalForge/internal/dialog"
	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// AutoScheduler places an already-decomposed goal's steps on the
// calendar. It satisfies internal/pipeline.Placer without
// internal/pipeline importing this package, keeping the dependency edge
// one-directional.
type AutoScheduler struct {
	store store.Store
}

// NewAutoScheduler builds an AutoScheduler over st.
func NewAutoScheduler(st store.Store) *AutoScheduler {
	return &AutoScheduler{store: st}
}

// PlaceGoal implements pipeline.Placer.
func (a *AutoScheduler) PlaceGoal(ctx context.Context, userID string, goalID int64, prefs dialog.SchedulePrefs) error {
	return a.placeGoalAt(ctx, userID, goalID, prefs, time.Now().UTC())
}

// placeGoalAt is the deterministic core PlaceGoal delegates to, taking now
// explicitly so the placement algorithm itself is unit-testable without a
// real clock.
func (a *AutoScheduler) placeGoalAt(ctx context.Context, userID string, goalID int64, prefs dialog.SchedulePrefs, now time.Time) error {
	goal, err := a.store.GetGoal(userID, goalID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if goal == nil {
		return fmt.Errorf("%w: goal %d", models.ErrReferencesUnknownEntity, goalID)
	}
	if goal.IsScheduled {
		return nil // idempotent: re-running Phase 3 on an already-scheduled goal is a no-op.
	}

	steps, err := a.store.ListSteps(goal.GoalID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := windowDays(today, goal.TargetDate)

	events, err := a.store.ListEventsBetween(userID, today, today.AddDate(0, 0, d))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	am := buildAvailabilityMap(today, d, prefs.Days, events)
	dates := am.availableDates()
	if len(dates) == 0 {
		return fmt.Errorf("%w: no day of week matches the selected schedule preferences", models.ErrSchedulerPlacementFailure)
	}

	preferredMinute := prefs.Hour * 60
	if prefs.ExplicitTime != "" {
		preferredMinute = minutesOfDay(prefs.ExplicitTime)
	}

	placements := make([]store.StepPlacement, 0, len(steps))
	tightDeadline := false
	dateIdx := 0

	for _, step := range steps {
		if step.IsScheduled() {
			continue
		}
		hours := 1.0
		if step.EstimatedHours != nil {
			hours = *step.EstimatedHours
		}
		duration := int(math.Ceil(hours * 60))

		placed := false
		for ; dateIdx < len(dates); dateIdx++ {
			dateStr := dates[dateIdx]
			slotMinute, ok := am.findSlot(dateStr, preferredMinute, duration)
			if !ok {
				continue
			}
			am.markBusy(dateStr, slotMinute, slotMinute+duration)

			date, _ := time.Parse("2006-01-02", dateStr)
			timeStr := minutesToHHMM(slotMinute)

			if goal.TargetDate != nil && date.After(*goal.TargetDate) {
				tightDeadline = true
			}

			ev := models.Event{
				UserID: userID, Title: step.Title, Date: date, Time: &timeStr,
				DurationMinutes: duration, EventType: models.EventTypeGoalStep,
				LinkedGoalID: &goal.GoalID, ReminderMinutesBefore: models.DefaultReminderMinutesBefore,
				ReminderEnabled: true, CreatedAt: now,
			}
			placements = append(placements, store.StepPlacement{
				StepID: step.StepID, GoalID: goal.GoalID, PlannedDate: date,
				PlannedTime: timeStr, DurationMinutes: duration, Event: ev,
			})
			placed = true
			break
		}
		if !placed {
			return fmt.Errorf("%w: no free slot for step %q within the availability window", models.ErrSchedulerPlacementFailure, step.Title)
		}
	}

	if err := a.store.PlaceSteps(placements); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}

	goal.IsScheduled = true
	goal.UpdatedAt = now
	if err := a.store.UpdateGoal(*goal); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}

	if tightDeadline {
		_ = a.store.AppendMessage(models.ConversationMessage{
			UserID: userID, Role: models.MessageRoleAssistant,
			Text:      "Расписание составлено, но некоторые шаги выходят за дедлайн цели — возможно, стоит пересмотреть срок.",
			Timestamp: now,
		})
	}
	return nil
}
