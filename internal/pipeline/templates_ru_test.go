package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BTreeMap/GoalForge/internal/models"
)

func TestRenderErrorRUMatchesTaxonomySentinelThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", models.ErrReferencesUnknownEntity)
	got := RenderErrorRU(wrapped)
	want := "Не нашёл то, что вы имеете в виду. Попробуйте выбрать из списка выше."
	if got != want {
		t.Errorf("RenderErrorRU(wrapped ErrReferencesUnknownEntity) = %q, want %q", got, want)
	}
}

func TestRenderErrorRUFallsBackToDefaultForUnknownError(t *testing.T) {
	got := RenderErrorRU(errors.New("some unrelated collaborator error"))
	if got != defaultErrorTemplateRU {
		t.Errorf("RenderErrorRU(unknown) = %q, want default template %q", got, defaultErrorTemplateRU)
	}
}

func TestRenderErrorRUCoversEveryTaxonomyEntry(t *testing.T) {
	for _, entry := range errorTemplatesRU {
		if got := RenderErrorRU(entry.err); got != entry.template {
			t.Errorf("RenderErrorRU(%v) = %q, want %q", entry.err, got, entry.template)
		}
	}
}

func TestMotivatorRUCyclesAndNeverPanicsOnNegativeIndex(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < len(motivatorsRU)*2; i++ {
		seen[MotivatorRU(i)] = true
	}
	if len(seen) != len(motivatorsRU) {
		t.Errorf("MotivatorRU produced %d distinct phrases over two full cycles, want %d", len(seen), len(motivatorsRU))
	}
	if got := MotivatorRU(-3); got != MotivatorRU(3) {
		t.Errorf("MotivatorRU(-3) = %q, want same as MotivatorRU(3) = %q", got, MotivatorRU(3))
	}
}
