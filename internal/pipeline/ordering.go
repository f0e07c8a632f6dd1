package pipeline

import (
	"sort"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// sortEvents applies the event tie-break rule: ascending by
// (date, time NULLS LAST, event_id). The store's own ORDER BY is a
// reasonable index-backed approximation; this sort makes the contract
// exact regardless of backend NULL-ordering differences between SQLite
// and Postgres.
func sortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		at, bt := timeOrMax(a.Time), timeOrMax(b.Time)
		if at != bt {
			return at < bt
		}
		return a.EventID < b.EventID
	})
}

func timeOrMax(t *string) string {
	if t == nil {
		return "99:99"
	}
	return *t
}

var goalStatusRank = map[models.GoalStatus]int{
	models.GoalStatusActive:    0,
	models.GoalStatusPaused:    1,
	models.GoalStatusCompleted: 2,
}

// sortGoals applies the goal tie-break rule: active before paused
// before completed, then target_date NULLS LAST, then goal_id.
func sortGoals(goals []models.Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if goalStatusRank[a.Status] != goalStatusRank[b.Status] {
			return goalStatusRank[a.Status] < goalStatusRank[b.Status]
		}
		switch {
		case a.TargetDate == nil && b.TargetDate == nil:
		case a.TargetDate == nil:
			return false
		case b.TargetDate == nil:
			return true
		case !a.TargetDate.Equal(*b.TargetDate):
			return a.TargetDate.Before(*b.TargetDate)
		}
		return a.GoalID < b.GoalID
	})
}

// sortSteps applies the step ordering rule: by order.
func sortSteps(steps []models.Step) {
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
}
