package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// containsFold reports whether s contains substr, ignoring case, matching
// the loose "title_like" filter semantics of event.search.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// mapStoreErr folds an opaque store error into the taxonomy's transient
// sentinel unless it already carries a more specific one: handlers never
// let a raw driver error reach a Response.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrStoreConstraint) || errors.Is(err, models.ErrStoreTransient) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrStoreTransient, err)
}
