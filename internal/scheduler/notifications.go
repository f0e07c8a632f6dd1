package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/pipeline"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// eventReminderWindow is the lookahead the every-60s event-reminder tick
// scans.
const eventReminderWindow = time.Minute

// goalDeadlineOffsets are the days-remaining values that fire the Goal
// deadline job.
var goalDeadlineOffsets = map[int]bool{7: true, 3: true, 1: true, 0: true}

// NotificationRunner registers the four periodic notification jobs onto
// a Scheduler. All firing decisions are evaluated in each user's local
// timezone; the cron trigger itself always runs in the process's own
// location — per-user timezone correctness is pipeline code, not cron
// trigger code.
type NotificationRunner struct {
	cron   *Scheduler
	store  store.Store
	sender *RateLimitedSender
}

// NewNotificationRunner builds a NotificationRunner over an already-started
// Scheduler.
func NewNotificationRunner(cron *Scheduler, st store.Store, sender *RateLimitedSender) *NotificationRunner {
	return &NotificationRunner{cron: cron, store: st, sender: sender}
}

// Register schedules all four jobs. Call once at startup.
//
// All four jobs tick every minute: per-user timezone correctness is pipeline
// code (isLocalHour), not cron trigger code, since a single daily trigger in
// the process's own location would never line up with every user's local
// target hour. fireOnce's dedup table keeps each job from firing more than
// once per user per day despite the minute-granularity tick.
func (r *NotificationRunner) Register() error {
	if err := r.cron.AddJob("* * * * *", func() { r.runEventReminder(context.Background(), time.Now().UTC()) }); err != nil {
		return fmt.Errorf("register event reminder job: %w", err)
	}
	if err := r.cron.AddJob("* * * * *", func() { r.runGoalDeadline(context.Background(), time.Now().UTC()) }); err != nil {
		return fmt.Errorf("register goal deadline job: %w", err)
	}
	if err := r.cron.AddJob("* * * * *", func() { r.runStepReminder(context.Background(), time.Now().UTC()) }); err != nil {
		return fmt.Errorf("register step reminder job: %w", err)
	}
	if err := r.cron.AddJob("* * * * *", func() { r.runMotivation(context.Background(), time.Now().UTC()) }); err != nil {
		return fmt.Errorf("register motivation job: %w", err)
	}
	return nil
}

func (r *NotificationRunner) runEventReminder(ctx context.Context, now time.Time) {
	users, err := r.store.ListUsersWithToggle(store.ToggleEventReminder)
	if err != nil {
		slog.Error("scheduler: event reminder scan failed", "error", err)
		return
	}
	for _, u := range users {
		events, err := r.store.ListEventsBetween(u.UserID, dateOnly(now), now.Add(24*time.Hour))
		if err != nil {
			slog.Error("scheduler: event reminder list events failed", "user_id", u.UserID, "error", err)
			continue
		}
		for _, e := range events {
			if !e.ReminderEnabled || e.Time == nil {
				continue
			}
			fireAt, err := eventDateTime(e)
			if err != nil {
				continue
			}
			remindAt := fireAt.Add(-time.Duration(e.ReminderMinutesBefore) * time.Minute)
			if remindAt.Before(now) || !remindAt.Before(now.Add(eventReminderWindow)) {
				continue
			}
			r.fireOnce(ctx, u, store.JobKindEventReminder, fmt.Sprintf("%d", e.EventID), now, func() string {
				return fmt.Sprintf("Через %d минут: <b>%s</b>.", e.ReminderMinutesBefore, e.Title)
			})
		}
	}
}

func (r *NotificationRunner) runGoalDeadline(ctx context.Context, now time.Time) {
	users, err := r.store.ListUsersWithToggle(store.ToggleGoalDeadline)
	if err != nil {
		slog.Error("scheduler: goal deadline scan failed", "error", err)
		return
	}
	for _, u := range users {
		loc := userLocation(u.Timezone)
		if !isLocalHour(now, loc, 9) {
			continue
		}
		goals, err := r.store.ListGoals(u.UserID, models.GoalStatusActive)
		if err != nil {
			slog.Error("scheduler: goal deadline list goals failed", "user_id", u.UserID, "error", err)
			continue
		}
		today := now.In(loc)
		for _, g := range goals {
			if g.TargetDate == nil {
				continue
			}
			daysLeft := int(g.TargetDate.Sub(dateOnly(today)).Hours() / 24)
			if !goalDeadlineOffsets[daysLeft] {
				continue
			}
			r.fireOnce(ctx, u, store.JobKindGoalDeadline, fmt.Sprintf("%d", g.GoalID), now, func() string {
				return fmt.Sprintf("Цель «%s»: %d%% готово, осталось %d дн.", g.Title, g.ProgressPercent, daysLeft)
			})
		}
	}
}

func (r *NotificationRunner) runStepReminder(ctx context.Context, now time.Time) {
	users, err := r.store.ListUsersWithToggle(store.ToggleStepReminder)
	if err != nil {
		slog.Error("scheduler: step reminder scan failed", "error", err)
		return
	}
	for _, u := range users {
		loc := userLocation(u.Timezone)
		if !isLocalHour(now, loc, 20) {
			continue
		}
		goals, err := r.store.ListGoals(u.UserID, models.GoalStatusActive)
		if err != nil {
			continue
		}
		today := dateOnly(now.In(loc))
		overdueByGoal := map[int64][]string{}
		for _, g := range goals {
			steps, err := r.store.ListSteps(g.GoalID)
			if err != nil {
				continue
			}
			for _, s := range steps {
				if s.Status == models.StepStatusCompleted || s.PlannedDate == nil {
					continue
				}
				if s.PlannedDate.Before(today) {
					overdueByGoal[g.GoalID] = append(overdueByGoal[g.GoalID], s.Title)
				}
			}
			if len(overdueByGoal[g.GoalID]) == 0 {
				continue
			}
			r.fireOnce(ctx, u, store.JobKindStepReminder, fmt.Sprintf("%d", g.GoalID), now, func() string {
				return fmt.Sprintf("Просроченные шаги по цели «%s»: %s", g.Title, joinTitles(overdueByGoal[g.GoalID]))
			})
		}
	}
}

func (r *NotificationRunner) runMotivation(ctx context.Context, now time.Time) {
	users, err := r.store.ListUsersWithToggle(store.ToggleMotivation)
	if err != nil {
		slog.Error("scheduler: motivation scan failed", "error", err)
		return
	}
	for i, u := range users {
		loc := userLocation(u.Timezone)
		if !isLocalHour(now, loc, 8) {
			continue
		}
		goals, err := r.store.ListGoals(u.UserID, models.GoalStatusActive)
		if err != nil || len(goals) == 0 {
			continue
		}
		r.fireOnce(ctx, u, store.JobKindMotivation, "", now, func() string {
			return fmt.Sprintf("%s У вас %d активных целей.", pipeline.MotivatorRU(i+now.YearDay()), len(goals))
		})
	}
}

// fireOnce consults the dedup table before sending; text is built lazily
// since most scan iterations never reach a send.
func (r *NotificationRunner) fireOnce(ctx context.Context, u models.User, kind store.NotificationJobKind, dedupeKey string, now time.Time, text func() string) {
	loc := userLocation(u.Timezone)
	fireDate := dateOnly(now.In(loc)).Format("2006-01-02")
	first, err := r.store.MarkFired(store.NotificationDedupRecord{
		UserID: u.UserID, JobKind: kind, DedupeKey: dedupeKey, FireDate: fireDate, FiredAt: now,
	})
	if err != nil {
		slog.Error("scheduler: dedup mark failed", "user_id", u.UserID, "kind", kind, "error", err)
		return
	}
	if !first {
		return
	}
	if r.sender == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	chatID, err := r.sender.ValidateAndCanonicalizeChatID(u.ChatID)
	if err != nil {
		slog.Warn("scheduler: invalid chat id, skipping send", "user_id", u.UserID, "error", err)
		return
	}
	if err := r.sender.Send(sendCtx, chatID, text(), nil); err != nil {
		slog.Error("scheduler: notification send failed", "user_id", u.UserID, "kind", kind, "error", err)
	}
}

func userLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func isLocalHour(now time.Time, loc *time.Location, hour int) bool {
	return now.In(loc).Hour() == hour
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func eventDateTime(e models.Event) (time.Time, error) {
	var h, m int
	if _, err := fmt.Sscanf(*e.Time, "%d:%d", &h, &m); err != nil {
		return time.Time{}, err
	}
	return time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), h, m, 0, 0, time.UTC), nil
}

func joinTitles(titles []string) string {
	out := ""
	for i, t := range titles {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}
