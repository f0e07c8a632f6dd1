// Package store provides storage backends for GoalForge's domain entities
// and the Notification Scheduler's supporting tables.
package store

import "time"

// NotificationJobKind identifies which of the four periodic notification
// jobs produced a given dedup record.
type NotificationJobKind string

const (
	JobKindEventReminder NotificationJobKind = "event_reminder"
	JobKindGoalDeadline  NotificationJobKind = "goal_deadline"
	JobKindStepReminder  NotificationJobKind = "step_reminder"
	JobKindMotivation    NotificationJobKind = "motivation"
)

// NotificationDedupRecord is one row of the persisted dedup table
// backing an idempotency rule: at most one emission per
// (user_id, job_kind, dedupe_key, fire_date) per local day.
type NotificationDedupRecord struct {
	UserID    string
	JobKind   NotificationJobKind
	DedupeKey string // typically an event_id or goal_id; opaque otherwise
	FireDate  string // YYYY-MM-DD in the user's local timezone
	FiredAt   time.Time
}

// NotificationDedupRepo defines the interface for notification-occurrence
// deduplication. Unlike the Outbox's transient per-message dedupe (which
// only blocks re-enqueue of a still-pending message), this table is
// consulted before every enqueue and is never cleared within a day, so a
// message that has already been sent cannot be re-emitted by a later tick
// of the same job.
type NotificationDedupRepo interface {
	// MarkFired attempts to record one occurrence. It returns true if this
	// call performed the first recording (the caller should proceed to
	// notify), or false if the tuple was already recorded (the caller must
	// suppress the notification).
	MarkFired(rec NotificationDedupRecord) (bool, error)
}
