package tat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bgverify-jobs/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weekendSet(days ...string) ExceptionSet {
	return NewExceptionSet(nil, &models.WeekendConfig{ID: "cfg-1", Days: days})
}

func holidaySet(dates ...time.Time) ExceptionSet {
	holidays := make([]models.Holiday, 0, len(dates))
	for i, d := range dates {
		holidays = append(holidays, models.Holiday{ID: string(rune('a' + i)), Title: "holiday", Date: d})
	}
	return NewExceptionSet(holidays, nil)
}

// ==========================
// DueDate
// ==========================

func TestDueDate_NoExceptions(t *testing.T) {
	// With an empty exception set the due date is start + N calendar days.
	empty := NewExceptionSet(nil, nil)
	start := date(2024, time.March, 4)

	for _, n := range []int{1, 2, 5, 10, 30, 365} {
		got := DueDate(start, n, empty)
		assert.Equal(t, start.AddDate(0, 0, n), got, "tatDays=%d", n)
	}
}

func TestDueDate_ZeroTATDaysReturnsStart(t *testing.T) {
	empty := NewExceptionSet(nil, nil)
	start := date(2024, time.March, 4)

	assert.Equal(t, start, DueDate(start, 0, empty))
}

func TestDueDate_StripsTimeOfDay(t *testing.T) {
	empty := NewExceptionSet(nil, nil)
	start := time.Date(2024, time.March, 4, 15, 30, 45, 0, time.UTC)

	assert.Equal(t, date(2024, time.March, 9), DueDate(start, 5, empty))
}

func TestDueDate_ContiguousExceptionBlockPushesDueDate(t *testing.T) {
	// Jan 2-4 2024 are holidays: a 3-day block immediately after start
	// pushes the due date out by exactly 3 extra calendar days.
	start := date(2024, time.January, 1)
	empty := NewExceptionSet(nil, nil)
	blocked := holidaySet(
		date(2024, time.January, 2),
		date(2024, time.January, 3),
		date(2024, time.January, 4),
	)

	plain := DueDate(start, 5, empty)
	pushed := DueDate(start, 5, blocked)

	assert.Equal(t, plain.AddDate(0, 0, 3), pushed)
}

func TestDueDate_FiveBusinessDaysFromMonday(t *testing.T) {
	// Monday + 5 business days with sat/sun weekends lands on the
	// following Monday.
	set := weekendSet("saturday", "sunday")
	start := date(2024, time.January, 1) // a Monday

	assert.Equal(t, date(2024, time.January, 8), DueDate(start, 5, set))
}

// ==========================
// BusinessDaysElapsed
// ==========================

func TestBusinessDaysElapsed_ZeroWhenNotPastDue(t *testing.T) {
	set := weekendSet("saturday", "sunday")
	due := date(2024, time.January, 8)

	assert.Equal(t, 0, BusinessDaysElapsed(due, due, set))
	assert.Equal(t, 0, BusinessDaysElapsed(due, date(2024, time.January, 5), set))
}

func TestBusinessDaysElapsed_WeekOverDue(t *testing.T) {
	// Due Monday Jan 1, as of Monday Jan 8: Tue-Fri plus the next Monday
	// count, the weekend does not.
	set := weekendSet("saturday", "sunday")

	got := BusinessDaysElapsed(date(2024, time.January, 1), date(2024, time.January, 8), set)
	assert.Equal(t, 5, got)
}

func TestBusinessDaysElapsed_HolidayInWindowReducesCount(t *testing.T) {
	weekendCfg := &models.WeekendConfig{ID: "cfg-1", Days: []string{"saturday", "sunday"}}
	plain := NewExceptionSet(nil, weekendCfg)
	withHoliday := NewExceptionSet(
		[]models.Holiday{{ID: "h1", Title: "New Year observance", Date: date(2024, time.January, 2)}},
		weekendCfg,
	)

	due := date(2024, time.January, 1)
	asOf := date(2024, time.January, 8)

	assert.Equal(t, BusinessDaysElapsed(due, asOf, plain)-1, BusinessDaysElapsed(due, asOf, withHoliday))
}

func TestBusinessDaysElapsed_NoExceptionsCountsCalendarDays(t *testing.T) {
	empty := NewExceptionSet(nil, nil)

	got := BusinessDaysElapsed(date(2024, time.January, 1), date(2024, time.January, 11), empty)
	assert.Equal(t, 10, got)
}

func TestBusinessDaysElapsed_StripsTimeOfDay(t *testing.T) {
	empty := NewExceptionSet(nil, nil)
	due := time.Date(2024, time.January, 1, 23, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, time.January, 3, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, BusinessDaysElapsed(due, asOf, empty))
}
