package store

import (
	"fmt"
	"time"
)

// Compile-time check that PostgresStore implements NotificationDedupRepo.
var _ NotificationDedupRepo = (*PostgresStore)(nil)

func (s *PostgresStore) MarkFired(rec NotificationDedupRecord) (bool, error) {
	now := time.Now()
	result, err := s.db.Exec(
		`INSERT INTO notification_dedup (user_id, job_kind, dedupe_key, fire_date, fired_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (user_id, job_kind, dedupe_key, fire_date) DO NOTHING`,
		rec.UserID, string(rec.JobKind), rec.DedupeKey, rec.FireDate, now,
	)
	if err != nil {
		return false, fmt.Errorf("dedup mark fired failed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("dedup rows affected check failed: %w", err)
	}
	return n > 0, nil
}
