// internal/tat/calendar.go
package tat

import (
	"strings"
	"time"

	"bgverify-jobs/internal/models"
)

const dateKeyLayout = "2006-01-02"

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ExceptionSet holds the calendar exceptions business-day counting skips:
// holiday dates keyed by YYYY-MM-DD and the configured weekend weekdays.
// Due-date and delay computation share one set, so they can never disagree
// about which days count.
type ExceptionSet struct {
	holidays map[string]struct{}
	weekend  map[time.Weekday]struct{}
}

// NewExceptionSet builds the lookup structures from holiday rows and the
// active weekend configuration. A nil weekendCfg means no active record:
// every weekday counts as a business day. Weekday name matching is
// case-insensitive; unrecognized names are ignored.
func NewExceptionSet(holidays []models.Holiday, weekendCfg *models.WeekendConfig) ExceptionSet {
	set := ExceptionSet{
		holidays: make(map[string]struct{}, len(holidays)),
		weekend:  make(map[time.Weekday]struct{}),
	}

	for _, h := range holidays {
		set.holidays[h.Date.Format(dateKeyLayout)] = struct{}{}
	}

	if weekendCfg != nil {
		for _, name := range weekendCfg.Days {
			if wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]; ok {
				set.weekend[wd] = struct{}{}
			}
		}
	}

	return set
}

// IsBusinessDay reports whether t falls on neither a configured weekend
// weekday nor a holiday date. Only the date part of t is considered.
func (s ExceptionSet) IsBusinessDay(t time.Time) bool {
	if _, ok := s.weekend[t.Weekday()]; ok {
		return false
	}
	_, holiday := s.holidays[t.Format(dateKeyLayout)]
	return !holiday
}

// HolidayCount returns the number of holiday dates in the set.
func (s ExceptionSet) HolidayCount() int {
	return len(s.holidays)
}

// WeekendDayCount returns the number of configured weekend weekdays.
func (s ExceptionSet) WeekendDayCount() int {
	return len(s.weekend)
}

// dateOnly strips the time-of-day so date comparisons and holiday lookups
// never drift on timestamps.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
