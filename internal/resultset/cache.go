// Package resultset implements the result-set reference system: a
// short-lived, in-memory, per-user cache of ordered id lists addressable
// by 1-based ordinal in a follow-up intent (`{set_id, ordinal}`). It is
// never persisted — a restart starts empty.
package resultset

import (
	"container/list"
	"sync"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/google/uuid"
)

// Cache is a per-user bounded LRU of Result Sets with an inactivity TTL.
// No pack example imports a dedicated LRU library, so this is built on
// stdlib container/list + sync, the one ambient data structure in the
// repository with no third-party dependency.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	byUser   map[string]*list.List    // userID -> LRU list of *entry, most-recent at Front
	bySetID  map[string]*list.Element // setID -> element within its user's list
}

type entry struct {
	set       models.ResultSet
	userID    string
	touchedAt time.Time
}

// New builds a Cache with the given per-user capacity and inactivity TTL.
// A non-positive argument falls back to the spec's default.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = models.ResultSetCapacity
	}
	if ttl <= 0 {
		ttl = models.ResultSetTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		byUser:   make(map[string]*list.List),
		bySetID:  make(map[string]*list.Element),
	}
}

// Put creates a new Result Set for userID and returns its generated SetID.
// If the user is already at capacity, the least-recently-used set is
// evicted.
func (c *Cache) Put(userID string, kind models.ResultSetKind, orderedIDs []int64, now time.Time) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	setID := "rs_" + uuid.NewString()
	set := models.ResultSet{
		SetID:      setID,
		UserID:     userID,
		Kind:       kind,
		OrderedIDs: orderedIDs,
		CreatedAt:  now,
	}

	l, ok := c.byUser[userID]
	if !ok {
		l = list.New()
		c.byUser[userID] = l
	}

	elem := l.PushFront(&entry{set: set, userID: userID, touchedAt: now})
	c.bySetID[setID] = elem

	for l.Len() > c.capacity {
		oldest := l.Back()
		if oldest == nil {
			break
		}
		l.Remove(oldest)
		delete(c.bySetID, oldest.Value.(*entry).set.SetID)
	}

	return setID
}

// Resolve looks up setID for userID and returns the id at the given
// 1-based ordinal. It touches the entry (moving it to the front of its
// user's LRU and refreshing its TTL clock) on every successful lookup.
// Returns false if the set is unknown, belongs to another user, has
// expired, or the ordinal is out of range — the caller maps this to
// ErrReferencesUnknownEntity.
func (c *Cache) Resolve(userID, setID string, ordinal int, now time.Time) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.touch(userID, setID, now)
	if !ok {
		return 0, false
	}
	e := elem.Value.(*entry)
	if ordinal < 1 || ordinal > len(e.set.OrderedIDs) {
		return 0, false
	}
	return e.set.OrderedIDs[ordinal-1], true
}

// Get returns the full Result Set for setID, scoped to userID.
func (c *Cache) Get(userID, setID string, now time.Time) (models.ResultSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.touch(userID, setID, now)
	if !ok {
		return models.ResultSet{}, false
	}
	return elem.Value.(*entry).set, true
}

// touch resolves setID for userID, rejecting it (and evicting it) if
// expired, otherwise moving it to the front of its user's LRU.
func (c *Cache) touch(userID, setID string, now time.Time) (*list.Element, bool) {
	elem, ok := c.bySetID[setID]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if e.userID != userID {
		return nil, false
	}
	if now.Sub(e.touchedAt) > c.ttl {
		c.byUser[userID].Remove(elem)
		delete(c.bySetID, setID)
		return nil, false
	}
	e.touchedAt = now
	c.byUser[userID].MoveToFront(elem)
	return elem, true
}

// EvictExpired removes every Result Set whose entries have not been
// touched for longer than the Cache's TTL. Callers run this periodically
// (e.g. alongside the Notification Scheduler's ticks); it is never
// required for correctness since capacity eviction alone bounds memory,
// but it frees memory for inactive users sooner.
func (c *Cache) EvictExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for userID, l := range c.byUser {
		for elem := l.Back(); elem != nil; {
			prev := elem.Prev()
			e := elem.Value.(*entry)
			if now.Sub(e.touchedAt) > c.ttl {
				l.Remove(elem)
				delete(c.bySetID, e.set.SetID)
				evicted++
			}
			elem = prev
		}
		if l.Len() == 0 {
			delete(c.byUser, userID)
		}
	}
	return evicted
}
