package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// handleEventSearch returns an ordered event list, with a Result Set
// created so the reply can carry a set_id for ordinal follow-ups.
func (d *Dispatcher) handleEventSearch(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	from, to := now, now.Add(models.UpcomingEventsWindow)
	if intent.DateFrom != "" {
		t, err := models.ParseDateField(intent.DateFrom)
		if err != nil {
			return models.Response{}, err
		}
		from = t
	}
	if intent.DateTo != "" {
		t, err := models.ParseDateField(intent.DateTo)
		if err != nil {
			return models.Response{}, err
		}
		to = t
	}
	if from.After(to) {
		return models.Response{}, fmt.Errorf("%w: date_from must not be after date_to", models.ErrIntentInvalid)
	}

	events, err := d.store.ListEventsBetween(userID, from, to)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	events = filterEventsByTitle(events, intent.TitleLike)
	sortEvents(events)

	ids := make([]int64, len(events))
	items := make([]any, len(events))
	for i, e := range events {
		ids[i] = e.EventID
		items[i] = e
	}
	setID := d.results.Put(userID, models.ResultSetKindEvents, ids, now)

	return models.Response{Success: true, ResponseType: models.ResponseRenderTable, SetID: setID, Items: items}, nil
}

func filterEventsByTitle(events []models.Event, titleLike string) []models.Event {
	if titleLike == "" {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if containsFold(e.Title, titleLike) {
			out = append(out, e)
		}
	}
	return out
}

// handleEventMutate implements event.mutate: create inserts unconditionally
// (overwrite semantics, no conflict check); update/delete resolve target
// via a direct id or a Result Set ordinal.
func (d *Dispatcher) handleEventMutate(ctx context.Context, userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	switch intent.Op {
	case models.MutateOpCreate:
		return d.createEvent(userID, intent, now)
	case models.MutateOpUpdate:
		return d.updateEvent(userID, intent, now)
	case models.MutateOpDelete:
		return d.deleteEvent(userID, intent, now)
	default:
		return models.Response{}, fmt.Errorf("%w: unrecognized event.mutate op %q", models.ErrIntentInvalid, intent.Op)
	}
}

func (d *Dispatcher) createEvent(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	date, err := models.ParseDateField(intent.Date)
	if err != nil {
		return models.Response{}, err
	}
	var timePtr *string
	if intent.Time != "" {
		t, err := models.ParseTimeField(intent.Time)
		if err != nil {
			return models.Response{}, err
		}
		timePtr = &t
	}
	duration := models.DefaultEventDurationMinutes
	if intent.DurationMinutes != nil {
		duration = *intent.DurationMinutes
	}
	e := &models.Event{
		UserID: userID, Title: intent.Title, Date: date, Time: timePtr,
		DurationMinutes: duration, EventType: models.EventTypeUser,
		ReminderMinutesBefore: models.DefaultReminderMinutesBefore, ReminderEnabled: true,
		CreatedAt: now,
	}
	if intent.DryRun {
		return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: "Создать это событие?", Items: []any{*e}}, nil
	}
	if err := d.store.CreateEvent(e); err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Items: []any{*e}}, nil
}

func (d *Dispatcher) updateEvent(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.Target, now)
	if err != nil {
		return models.Response{}, err
	}
	e, err := d.store.GetEvent(userID, id)
	if err != nil {
		return models.Response{}, fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
	}
	if e == nil {
		return models.Response{}, fmt.Errorf("%w: event %d", models.ErrReferencesUnknownEntity, id)
	}
	if intent.Title != "" {
		e.Title = intent.Title
	}
	if intent.Date != "" {
		d2, err := models.ParseDateField(intent.Date)
		if err != nil {
			return models.Response{}, err
		}
		e.Date = d2
	}
	if intent.Time != "" {
		t, err := models.ParseTimeField(intent.Time)
		if err != nil {
			return models.Response{}, err
		}
		e.Time = &t
	}
	if intent.DurationMinutes != nil {
		e.DurationMinutes = *intent.DurationMinutes
	}
	if intent.DryRun {
		return models.Response{Success: true, ResponseType: models.ResponseAskClarification, Text: "Применить эти изменения?", Items: []any{*e}}, nil
	}
	if err := d.store.UpdateEvent(*e); err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Items: []any{*e}}, nil
}

func (d *Dispatcher) deleteEvent(userID string, intent *models.Intent, now time.Time) (models.Response, error) {
	id, err := d.resolveRef(userID, intent.Target, now)
	if err != nil {
		return models.Response{}, err
	}
	if intent.DryRun {
		return models.Response{
			Success: true, ResponseType: models.ResponseAskClarification, Text: "Удалить это событие?",
			Buttons: [][]models.Button{{
				{Text: "Да, удалить", CallbackData: fmt.Sprintf("confirm:event_delete:%d", id)},
				{Text: "Отмена", CallbackData: "cancel"},
			}},
		}, nil
	}
	if err := d.store.DeleteEvent(userID, id); err != nil {
		return models.Response{}, mapStoreErr(err)
	}
	return models.Response{Success: true, ResponseType: models.ResponseFinalText, Text: "Событие удалено."}, nil
}
