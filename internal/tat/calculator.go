// internal/tat/calculator.go
package tat

import "time"

// DueDate computes the contractual due date by stepping forward from start
// one calendar day at a time; each day that is a business day under set
// consumes one of tatDays. Irregular holiday calendars rule out a
// closed-form answer, so this is a plain forward simulation.
// tatDays <= 0 returns start unchanged.
func DueDate(start time.Time, tatDays int, set ExceptionSet) time.Time {
	day := dateOnly(start)
	remaining := tatDays

	for remaining > 0 {
		day = day.AddDate(0, 0, 1)
		if set.IsBusinessDay(day) {
			remaining--
		}
	}

	return day
}

// BusinessDaysElapsed counts the business days between due (exclusive) and
// asOf (inclusive). The cursor advances while strictly before asOf, so
// due >= asOf yields 0. This count is the application's days out of TAT.
func BusinessDaysElapsed(due, asOf time.Time, set ExceptionSet) int {
	day := dateOnly(due)
	end := dateOnly(asOf)

	count := 0
	for day.Before(end) {
		day = day.AddDate(0, 0, 1)
		if set.IsBusinessDay(day) {
			count++
		}
	}

	return count
}
