package resultset

import (
	"testing"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

func TestCachePutAndResolve(t *testing.T) {
	c := New(64, time.Hour)
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	setID := c.Put("u1", models.ResultSetKindEvents, []int64{10, 20, 30}, now)
	if setID == "" {
		t.Fatal("expected a non-empty set id")
	}

	id, ok := c.Resolve("u1", setID, 2, now)
	if !ok || id != 20 {
		t.Errorf("Resolve(ordinal=2) = (%d, %v), want (20, true)", id, ok)
	}
}

func TestCacheResolveWrongUser(t *testing.T) {
	c := New(64, time.Hour)
	now := time.Now()
	setID := c.Put("u1", models.ResultSetKindGoals, []int64{1}, now)

	if _, ok := c.Resolve("u2", setID, 1, now); ok {
		t.Error("expected Resolve to fail for a different user")
	}
}

func TestCacheResolveOrdinalOutOfRange(t *testing.T) {
	c := New(64, time.Hour)
	now := time.Now()
	setID := c.Put("u1", models.ResultSetKindSteps, []int64{1, 2}, now)

	if _, ok := c.Resolve("u1", setID, 3, now); ok {
		t.Error("expected Resolve to fail for an out-of-range ordinal")
	}
	if _, ok := c.Resolve("u1", setID, 0, now); ok {
		t.Error("expected Resolve to fail for ordinal 0 (1-based)")
	}
}

func TestCacheExpiresByTTL(t *testing.T) {
	c := New(64, time.Minute)
	t0 := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	setID := c.Put("u1", models.ResultSetKindEvents, []int64{1}, t0)

	later := t0.Add(2 * time.Minute)
	if _, ok := c.Resolve("u1", setID, 1, later); ok {
		t.Error("expected the set to have expired")
	}
}

func TestCacheEvictsAtCapacity(t *testing.T) {
	c := New(2, time.Hour)
	now := time.Now()

	first := c.Put("u1", models.ResultSetKindGoals, []int64{1}, now)
	c.Put("u1", models.ResultSetKindGoals, []int64{2}, now)
	c.Put("u1", models.ResultSetKindGoals, []int64{3}, now)

	if _, ok := c.Resolve("u1", first, 1, now); ok {
		t.Error("expected the oldest set to have been evicted at capacity")
	}
}

func TestCacheEvictExpired(t *testing.T) {
	c := New(64, time.Minute)
	t0 := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	c.Put("u1", models.ResultSetKindEvents, []int64{1}, t0)
	c.Put("u2", models.ResultSetKindEvents, []int64{2}, t0)

	evicted := c.EvictExpired(t0.Add(2 * time.Minute))
	if evicted != 2 {
		t.Errorf("expected 2 evicted, got %d", evicted)
	}
}

func TestCacheGetReturnsFullSet(t *testing.T) {
	c := New(64, time.Hour)
	now := time.Now()
	setID := c.Put("u1", models.ResultSetKindGoals, []int64{5, 6, 7}, now)

	set, ok := c.Get("u1", setID, now)
	if !ok {
		t.Fatal("expected Get to succeed")
	}
	if len(set.OrderedIDs) != 3 || set.Kind != models.ResultSetKindGoals {
		t.Errorf("unexpected set: %+v", set)
	}
}
