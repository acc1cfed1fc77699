// Package recurrence computes the next fire instant for recurring jobs.
// All calendar arithmetic happens in the business civil timezone and is
// converted to UTC at the end, so the result carries the target date's
// UTC offset rather than the offset in effect "now". That keeps schedules
// correct across daylight-saving transitions.
package recurrence

import (
	"fmt"
	"time"

	"wadispatch/internal/domain"
)

type Rule struct {
	Type       domain.RepeatType
	Weekday    int // 0=Sunday..6=Saturday, weekly only
	DayOfMonth int // 1..30, monthly only
}

// NextFireTime maps a rule plus the reference instant (normally the moment
// the previous occurrence completed) to the next absolute UTC instant.
// timeOfDay is civil "HH:MM" in loc. The result is always strictly after ref.
//
// Monthly rules are restricted to days 1-30; months with fewer days roll
// forward through time.Date normalization. That is a deliberate product
// simplification, not something to paper over here.
func NextFireTime(rule Rule, timeOfDay string, ref time.Time, loc *time.Location) (time.Time, error) {
	hh, mm, err := parseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	local := ref.In(loc)
	y, m, d := local.Date()

	switch rule.Type {
	case domain.RepeatDaily:
		return time.Date(y, m, d+1, hh, mm, 0, 0, loc).UTC(), nil

	case domain.RepeatWeekly:
		if rule.Weekday < 0 || rule.Weekday > 6 {
			return time.Time{}, fmt.Errorf("invalid weekday %d", rule.Weekday)
		}
		ahead := (rule.Weekday - int(local.Weekday()) + 7) % 7
		next := time.Date(y, m, d+ahead, hh, mm, 0, 0, loc)
		if !next.After(ref) {
			next = time.Date(y, m, d+ahead+7, hh, mm, 0, 0, loc)
		}
		return next.UTC(), nil

	case domain.RepeatMonthly:
		if rule.DayOfMonth < 1 || rule.DayOfMonth > 30 {
			return time.Time{}, fmt.Errorf("invalid day of month %d", rule.DayOfMonth)
		}
		next := time.Date(y, m, rule.DayOfMonth, hh, mm, 0, 0, loc)
		if !next.After(ref) {
			next = time.Date(y, m+1, rule.DayOfMonth, hh, mm, 0, 0, loc)
		}
		return next.UTC(), nil

	default:
		return time.Time{}, fmt.Errorf("unknown repeat type %q", rule.Type)
	}
}

func parseTimeOfDay(s string) (hh, mm int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
