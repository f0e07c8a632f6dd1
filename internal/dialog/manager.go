package dialog

import (
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/BTreeMap/GoalForge/internal/store"
)

// StateManager persists and resolves per-user dialog state, built around
// GoalForge's single fixed DialogStateType enum plus an opaque context
// bag rather than a generic per-flow (flow_type, state_type, data)
// triple.
type StateManager interface {
	// Current returns userID's session, resetting it to IDLE first if it
	// has been inactive past models.DialogStateTimeout. A user with no
	// session row is treated as IDLE.
	Current(userID string, now time.Time) (models.SessionState, error)

	// Transition persists a move to newState with the given context bag.
	Transition(userID string, newState models.DialogStateType, ctx map[string]any, now time.Time) error

	// Reset returns userID to IDLE and discards its context bag,
	// implementing the `cancel` callback and the timeout rule.
	Reset(userID string, now time.Time) error
}

// StoreBasedStateManager is the StateManager backed by store.Store's
// Session State table.
type StoreBasedStateManager struct {
	store store.Store
}

// NewStoreBasedStateManager builds a StateManager over st.
func NewStoreBasedStateManager(st store.Store) *StoreBasedStateManager {
	return &StoreBasedStateManager{store: st}
}

func (m *StoreBasedStateManager) Current(userID string, now time.Time) (models.SessionState, error) {
	s, err := m.store.GetSession(userID)
	if err != nil {
		return models.SessionState{}, err
	}
	if s == nil {
		return models.SessionState{UserID: userID, State: models.StateIdle, UpdatedAt: now}, nil
	}
	if s.IsExpired(now) {
		if err := m.Reset(userID, now); err != nil {
			return models.SessionState{}, err
		}
		return models.SessionState{UserID: userID, State: models.StateIdle, UpdatedAt: now}, nil
	}
	return *s, nil
}

func (m *StoreBasedStateManager) Transition(userID string, newState models.DialogStateType, ctx map[string]any, now time.Time) error {
	return m.store.SaveSession(models.SessionState{
		UserID:       userID,
		State:        newState,
		StateContext: ctx,
		UpdatedAt:    now,
	})
}

func (m *StoreBasedStateManager) Reset(userID string, now time.Time) error {
	if err := m.store.DeleteSession(userID); err != nil {
		return err
	}
	return nil
}
