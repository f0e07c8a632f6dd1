package scheduler

import (
	"fmt"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
)

// minAvailabilityWindowDays and maxAvailabilityWindowDays bound D:
// D = max(14, days from today through target_date inclusive), capped at 90.
const (
	minAvailabilityWindowDays = 14
	maxAvailabilityWindowDays = 90
)

// busyInterval is one occupied [start, end) window on a given day, in
// minutes since midnight.
type busyInterval struct {
	startMinute int
	endMinute   int
}

// availabilityMap is a per-day busy-interval index, keyed by the
// UTC-midnight date.
type availabilityMap struct {
	days map[string][]busyInterval // "2006-01-02" -> sorted busy intervals
}

// windowDays computes D given an optional target date, relative to today.
func windowDays(today time.Time, targetDate *time.Time) int {
	d := minAvailabilityWindowDays
	if targetDate != nil {
		until := int(targetDate.Sub(today).Hours()/24) + 1
		if until > d {
			d = until
		}
	}
	if d > maxAvailabilityWindowDays {
		d = maxAvailabilityWindowDays
	}
	return d
}

// buildAvailabilityMap scans events for the next D days (from today,
// inclusive) and indexes the busy intervals of every day whose weekday is
// in selectedDays.
func buildAvailabilityMap(today time.Time, d int, selectedDays []int, events []models.Event) *availabilityMap {
	wanted := make(map[int]bool, len(selectedDays))
	for _, w := range selectedDays {
		wanted[w] = true
	}

	am := &availabilityMap{days: make(map[string][]busyInterval)}
	for i := 0; i < d; i++ {
		day := today.AddDate(0, 0, i)
		if !wanted[isoWeekday(day)] {
			continue
		}
		am.days[dateKey(day)] = nil
	}

	for _, e := range events {
		key := dateKey(e.Date)
		if _, tracked := am.days[key]; !tracked {
			continue
		}
		if e.Time == nil {
			continue
		}
		start := minutesOfDay(*e.Time)
		am.days[key] = append(am.days[key], busyInterval{startMinute: start, endMinute: start + e.DurationMinutes})
	}
	return am
}

// isoWeekday maps Go's time.Weekday (Sunday=0) to the spec's
// Monday=0..Sunday=6 convention.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	return (wd + 6) % 7
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func minutesOfDay(hhmm string) int {
	var h, m int
	fmt.Sscanf(hhmm, "%d:%d", &h, &m)
	return h*60 + m
}

// availableDates returns the map's tracked dates in ascending order.
func (am *availabilityMap) availableDates() []string {
	dates := make([]string, 0, len(am.days))
	for k := range am.days {
		dates = append(dates, k)
	}
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j-1] > dates[j]; j-- {
			dates[j-1], dates[j] = dates[j], dates[j-1]
		}
	}
	return dates
}

// findSlot finds the earliest minute-of-day on or after startMinute, within
// a single day, that is free for durationMinutes against that day's busy
// intervals, advancing in 30-minute increments. Returns ok=false if no
// slot remains before the end of the day.
func (am *availabilityMap) findSlot(dateStr string, startMinute, durationMinutes int) (int, bool) {
	const dayEndMinute = 24 * 60
	const stepMinutes = 30

	for candidate := startMinute; candidate+durationMinutes <= dayEndMinute; candidate += stepMinutes {
		if !overlapsAny(am.days[dateStr], candidate, candidate+durationMinutes) {
			return candidate, true
		}
	}
	return 0, false
}

// markBusy records a newly-placed interval so subsequent placements within
// the same run see it as occupied.
func (am *availabilityMap) markBusy(dateStr string, startMinute, endMinute int) {
	am.days[dateStr] = append(am.days[dateStr], busyInterval{startMinute: startMinute, endMinute: endMinute})
}

func overlapsAny(busy []busyInterval, start, end int) bool {
	for _, b := range busy {
		if start < b.endMinute && end > b.startMinute {
			return true
		}
	}
	return false
}

func minutesToHHMM(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
