// Package recovery restores durable work after an application restart,
// using a Recoverable/RecoveryRegistry/RecoveryManager orchestration
// shape. The components it recovers are GoalForge's own durable-job and
// outbox infrastructure rather than per-flow timers.
package recovery

import (
	"fmt"
	"log/slog"
)

// Recoverable is a component that can restore its own state at startup.
type Recoverable interface {
	RecoverState() error
}

// RecoveryRegistry exists so future recoverables can share
// infrastructure, such as a shared timer; it holds no state of its own
// today since both of GoalForge's recoverables close over a store handle
// when constructed.
type RecoveryRegistry struct{}

// NewRecoveryRegistry builds an empty RecoveryRegistry.
func NewRecoveryRegistry() *RecoveryRegistry {
	return &RecoveryRegistry{}
}

// RecoveryManager runs every registered Recoverable once at startup.
type RecoveryManager struct {
	registry     *RecoveryRegistry
	recoverables []Recoverable
}

// NewRecoveryManager builds a RecoveryManager.
func NewRecoveryManager() *RecoveryManager {
	return &RecoveryManager{registry: NewRecoveryRegistry()}
}

// Register adds a component to be recovered by RecoverAll.
func (rm *RecoveryManager) Register(r Recoverable) {
	rm.recoverables = append(rm.recoverables, r)
}

// GetRegistry exposes the shared registry for infrastructure setup.
func (rm *RecoveryManager) GetRegistry() *RecoveryRegistry {
	return rm.registry
}

// RecoverAll runs every registered component's RecoverState, continuing past
// individual failures so one stuck component cannot block the others from
// recovering.
func (rm *RecoveryManager) RecoverAll() error {
	slog.Info("recovery: starting application recovery", "components", len(rm.recoverables))

	recovered, failed := 0, 0
	for _, r := range rm.recoverables {
		if err := r.RecoverState(); err != nil {
			slog.Error("recovery: component recovery failed", "error", err, "component", fmt.Sprintf("%T", r))
			failed++
			continue
		}
		recovered++
	}

	slog.Info("recovery: application recovery completed", "recovered", recovered, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("recovery completed with %d failures out of %d components", failed, len(rm.recoverables))
	}
	return nil
}
