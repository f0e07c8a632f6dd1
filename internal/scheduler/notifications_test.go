package scheduler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

func newNotificationsTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "notifications-test.db")
	st, err := store.NewSQLiteStore(store.WithDSN(dbPath))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// fakeSender records every Send call instead of delivering anything, for
// asserting the notification jobs fire exactly once per (user, occasion).
type fakeSender struct {
	mu    sync.Mutex
	sends []string // chatID per call
}

func (f *fakeSender) ValidateAndCanonicalizeChatID(chatID string) (string, error) { return chatID, nil }

func (f *fakeSender) Send(ctx context.Context, chatID, htmlText string, buttons [][]models.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, chatID)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func TestIsLocalHourComparesInTargetTimezone(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	if !isLocalHour(now, loc, 9) {
		t.Error("isLocalHour(9:00 UTC, hour=9) = false, want true")
	}
	if isLocalHour(now, loc, 8) {
		t.Error("isLocalHour(9:00 UTC, hour=8) = true, want false")
	}
}

func TestUserLocationFallsBackToUTCOnUnknownTimezone(t *testing.T) {
	loc := userLocation("not/a/real/zone")
	if loc != time.UTC {
		t.Errorf("userLocation(invalid) = %v, want UTC", loc)
	}
}

func TestEventDateTimeCombinesDateAndTimeString(t *testing.T) {
	timeStr := "14:30"
	e := models.Event{Date: mustTime("2026-08-03"), Time: &timeStr}
	got, err := eventDateTime(e)
	if err != nil {
		t.Fatalf("eventDateTime failed: %v", err)
	}
	want := time.Date(2026, 8, 3, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("eventDateTime() = %v, want %v", got, want)
	}
}

func TestJoinTitlesJoinsWithCommaSpace(t *testing.T) {
	if got := joinTitles([]string{"a", "b", "c"}); got != "a, b, c" {
		t.Errorf("joinTitles() = %q, want %q", got, "a, b, c")
	}
	if got := joinTitles(nil); got != "" {
		t.Errorf("joinTitles(nil) = %q, want empty", got)
	}
}

func TestFireOnceSendsOnFirstCallAndDedupesOnSecond(t *testing.T) {
	st := newNotificationsTestStore(t)
	sender := &fakeSender{}
	cron := NewScheduler()
	defer cron.Stop()
	r := NewNotificationRunner(cron, st, NewRateLimitedSender(sender, 100))

	u := models.User{UserID: "u1", ChatID: "chat1", Timezone: "UTC"}
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	r.fireOnce(context.Background(), u, store.JobKindMotivation, "", now, func() string { return "hi" })
	r.fireOnce(context.Background(), u, store.JobKindMotivation, "", now, func() string { return "hi" })

	if got := sender.count(); got != 1 {
		t.Errorf("fireOnce sent %d times across two calls on the same fire date, want 1 (dedup)", got)
	}
}

func TestFireOnceAllowsDifferentDedupeKeysOnSameDay(t *testing.T) {
	st := newNotificationsTestStore(t)
	sender := &fakeSender{}
	cron := NewScheduler()
	defer cron.Stop()
	r := NewNotificationRunner(cron, st, NewRateLimitedSender(sender, 100))

	u := models.User{UserID: "u1", ChatID: "chat1", Timezone: "UTC"}
	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	r.fireOnce(context.Background(), u, store.JobKindGoalDeadline, "goal-1", now, func() string { return "hi" })
	r.fireOnce(context.Background(), u, store.JobKindGoalDeadline, "goal-2", now, func() string { return "hi" })

	if got := sender.count(); got != 2 {
		t.Errorf("fireOnce sent %d times for two distinct dedupe keys, want 2", got)
	}
}

func TestRunMotivationFiresOnlyForUsersWithActiveGoalsAtTheirLocalHour(t *testing.T) {
	st := newNotificationsTestStore(t)
	sender := &fakeSender{}
	cron := NewScheduler()
	defer cron.Stop()
	r := NewNotificationRunner(cron, st, NewRateLimitedSender(sender, 100))

	withGoal := models.User{UserID: "u1", ChatID: "chat1", Timezone: "UTC", NotifyMotivation: true}
	withoutGoal := models.User{UserID: "u2", ChatID: "chat2", Timezone: "UTC", NotifyMotivation: true}
	if err := st.UpsertUser(withGoal); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := st.UpsertUser(withoutGoal); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	goal := &models.Goal{UserID: withGoal.UserID, Title: "Learn Go", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	atTargetHour := time.Date(2026, 8, 3, 8, 0, 0, 0, time.UTC)
	r.runMotivation(context.Background(), atTargetHour)

	if got := sender.count(); got != 1 {
		t.Errorf("runMotivation sent %d messages, want 1 (only the user with an active goal)", got)
	}
}

func TestRunMotivationSkipsUsersOutsideTheirLocalTargetHour(t *testing.T) {
	st := newNotificationsTestStore(t)
	sender := &fakeSender{}
	cron := NewScheduler()
	defer cron.Stop()
	r := NewNotificationRunner(cron, st, NewRateLimitedSender(sender, 100))

	u := models.User{UserID: "u1", ChatID: "chat1", Timezone: "UTC", NotifyMotivation: true}
	if err := st.UpsertUser(u); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	goal := &models.Goal{UserID: u.UserID, Title: "Learn Go", Status: models.GoalStatusActive, Priority: models.GoalPriorityMedium}
	if err := st.CreateGoal(goal); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	notTargetHour := time.Date(2026, 8, 3, 14, 0, 0, 0, time.UTC)
	r.runMotivation(context.Background(), notTargetHour)

	if got := sender.count(); got != 0 {
		t.Errorf("runMotivation sent %d messages outside the target hour, want 0", got)
	}
}

func TestRunEventReminderFiresWithinTheLookaheadWindow(t *testing.T) {
	st := newNotificationsTestStore(t)
	sender := &fakeSender{}
	cron := NewScheduler()
	defer cron.Stop()
	r := NewNotificationRunner(cron, st, NewRateLimitedSender(sender, 100))

	u := models.User{UserID: "u1", ChatID: "chat1", Timezone: "UTC", NotifyEventReminder: true}
	if err := st.UpsertUser(u); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	now := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)
	eventTime := "09:15"
	ev := &models.Event{
		UserID: u.UserID, Title: "Standup", Date: mustTime("2026-08-03"), Time: &eventTime,
		DurationMinutes: 15, EventType: models.EventTypeUser,
		ReminderEnabled: true, ReminderMinutesBefore: 15,
	}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	r.runEventReminder(context.Background(), now)

	if got := sender.count(); got != 1 {
		t.Errorf("runEventReminder sent %d messages, want 1 (reminder due within the window)", got)
	}
}
