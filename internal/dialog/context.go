package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// contextFromDraft and draftFromContext round-trip a GoalDraft through
// SessionState.StateContext's opaque map[string]any bag.
func contextFromDraft(d GoalDraft) map[string]any {
	ctx := map[string]any{
		"title":           d.Title,
		"description":     d.Description,
		"category":        d.Category,
		"priority":        d.Priority,
		"user_level":      d.UserLevel,
		"time_commitment": d.TimeCommitment,
	}
	if d.TargetDate != nil {
		ctx["target_date"] = d.TargetDate.Format("2006-01-02")
	}
	return ctx
}

func draftFromContext(ctx map[string]any) GoalDraft {
	var d GoalDraft
	if ctx == nil {
		return d
	}
	d.Title, _ = ctx["title"].(string)
	d.Description, _ = ctx["description"].(string)
	d.Category, _ = ctx["category"].(string)
	d.Priority, _ = ctx["priority"].(string)
	d.UserLevel, _ = ctx["user_level"].(string)
	d.TimeCommitment, _ = ctx["time_commitment"].(string)
	if s, ok := ctx["target_date"].(string); ok && s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			d.TargetDate = &t
		}
	}
	return d
}

// mergeFreeTextIntoDraft accumulates one more user reply into an
// in-progress GOAL_CLARIFICATION draft: the first reply fills in a blank
// title, subsequent replies extend the description.
func mergeFreeTextIntoDraft(d *GoalDraft, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if d.Title == "" {
		d.Title = text
		return
	}
	if d.Description == "" {
		d.Description = text
		return
	}
	d.Description = d.Description + " " + text
}

// daysFromContext reads the accumulated weekday set out of
// SCHEDULE_PREFS_DAYS's context bag.
func daysFromContext(ctx map[string]any) []int {
	raw, ok := ctx["days"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []int:
		return v
	case []any:
		days := make([]int, 0, len(v))
		for _, e := range v {
			days = append(days, int(toFloat(e)))
		}
		return days
	default:
		return nil
	}
}

func addDay(days []int, day int) []int {
	for _, d := range days {
		if d == day {
			return days
		}
	}
	return append(days, day)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func int64FromAny(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// resolveTimePref maps a time_pref callback's raw string to either a
// preset clock hour or an explicit HH:MM.
func resolveTimePref(pref string) (hour int, explicit string, err error) {
	if h, ok := models.TimeOfDayPreset[pref]; ok {
		return h, "", nil
	}
	t, perr := models.ParseTimeField(pref)
	if perr != nil {
		return 0, "", fmt.Errorf("%w: time_pref %q is neither a preset nor HH:MM", errMalformedCallback, pref)
	}
	return 0, t, nil
}
