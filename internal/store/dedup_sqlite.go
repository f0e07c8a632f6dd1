package store

import (
	"fmt"
	"time"
)

// Compile-time check that SQLiteStore implements NotificationDedupRepo.
var _ NotificationDedupRepo = (*SQLiteStore)(nil)

func (s *SQLiteStore) MarkFired(rec NotificationDedupRecord) (bool, error) {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO notification_dedup (user_id, job_kind, dedupe_key, fire_date, fired_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, string(rec.JobKind), rec.DedupeKey, rec.FireDate, now,
	)
	if err != nil {
		return false, fmt.Errorf("dedup mark fired failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("dedup mark fired rows affected: %w", err)
	}
	return n > 0, nil
}
