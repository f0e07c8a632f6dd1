package recovery

import (
	"fmt"
	"log/slog"

	"github.com/BTreeMap/GoalForge/internal/store"
)

// JobRunnerRecoverable adapts store.JobRunner's crash-recovery step
// (requeuing jobs stuck in a running state) to Recoverable, so
// RecoveryManager can sequence it alongside other components at startup.
type JobRunnerRecoverable struct {
	runner *store.JobRunner
}

// NewJobRunnerRecoverable wraps a JobRunner.
func NewJobRunnerRecoverable(runner *store.JobRunner) *JobRunnerRecoverable {
	return &JobRunnerRecoverable{runner: runner}
}

func (j *JobRunnerRecoverable) RecoverState() error {
	slog.Info("recovery: recovering stale durable jobs")
	if err := j.runner.RecoverStaleJobs(); err != nil {
		return fmt.Errorf("job runner recovery: %w", err)
	}
	return nil
}

// OutboxRecoverable adapts store.OutboxSender's crash-recovery step
// (requeuing outbound messages stuck in a sending state) to Recoverable.
type OutboxRecoverable struct {
	sender *store.OutboxSender
}

// NewOutboxRecoverable wraps an OutboxSender.
func NewOutboxRecoverable(sender *store.OutboxSender) *OutboxRecoverable {
	return &OutboxRecoverable{sender: sender}
}

func (o *OutboxRecoverable) RecoverState() error {
	slog.Info("recovery: recovering stale outbox messages")
	if err := o.sender.RecoverStaleMessages(); err != nil {
		return fmt.Errorf("outbox recovery: %w", err)
	}
	return nil
}
