package timetable

import (
	"fmt"
	"strconv"
	"strings"
)

// NoonMin is the AM/PM boundary in minutes since midnight.
const NoonMin = 12 * 60

// ParseClock converts an "HH:MM" label to minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock label %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock label %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock label %q", raw)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock label %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock converts minutes since midnight to an "HH:MM" label.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// Config describes the weekly teaching grid the engine schedules into.
// Days holds canonical day indices (1=Monday .. 6=Saturday) in any order.
type Config struct {
	DayStartMin    int
	DayEndMin      int
	SessionMinutes int
	Days           []int
}

// Validate checks the minimal grid invariants.
func (c Config) Validate() error {
	if c.SessionMinutes <= 0 {
		return fmt.Errorf("session duration must be positive, got %d", c.SessionMinutes)
	}
	if c.DayStartMin >= c.DayEndMin {
		return fmt.Errorf("day start %s must precede day end %s", FormatClock(c.DayStartMin), FormatClock(c.DayEndMin))
	}
	if len(c.Days) == 0 {
		return fmt.Errorf("at least one school day is required")
	}
	for _, d := range c.Days {
		if d < 1 || d > 6 {
			return fmt.Errorf("invalid school day %d", d)
		}
	}
	return nil
}

// SlotStarts expands the configured day into the ordered start minutes of
// each full session that fits before the day end.
func (c Config) SlotStarts() []int {
	var slots []int
	for start := c.DayStartMin; start+c.SessionMinutes <= c.DayEndMin; start += c.SessionMinutes {
		slots = append(slots, start)
	}
	return slots
}

// canonicalDays returns the configured days sorted Monday-first.
func (c Config) canonicalDays() []int {
	days := make([]int, len(c.Days))
	copy(days, c.Days)
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j] < days[j-1]; j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
	return days
}

// PrecedingDay returns the school day immediately before the given day in
// the configured sequence (canonical Monday-first order), not the calendar.
// With days {Mon,Tue,Thu}, Thu's predecessor is Tue. The first configured
// day has no predecessor.
func (c Config) PrecedingDay(day int) (int, bool) {
	days := c.canonicalDays()
	for i, d := range days {
		if d == day {
			if i == 0 {
				return 0, false
			}
			return days[i-1], true
		}
	}
	return 0, false
}

// FollowingDay returns the school day immediately after the given day in the
// configured sequence. With days {Mon,Tue,Thu}, Tue's successor is Thu. The
// last configured day has no successor.
func (c Config) FollowingDay(day int) (int, bool) {
	days := c.canonicalDays()
	for i, d := range days {
		if d == day {
			if i == len(days)-1 {
				return 0, false
			}
			return days[i+1], true
		}
	}
	return 0, false
}
