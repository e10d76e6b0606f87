// Package slots derives the calendar instants at which classes meet: the
// period-to-time-of-day clock and the per-term meeting date generator.
package slots

import (
	"time"

	"sarc/internal/models"
)

// periodStartHour is the explicit period table. The first period starts at
// the base hour and each subsequent period starts one hour later. Kept as a
// literal table rather than deriving from enum position so the mapping is
// visible and testable on its own.
var periodStartHour = map[models.Period]int{
	models.PeriodA: 8,
	models.PeriodB: 9,
	models.PeriodC: 10,
	models.PeriodD: 11,
	models.PeriodE: 12,
	models.PeriodF: 13,
	models.PeriodG: 14,
	models.PeriodH: 15,
}

// StartTime returns the time of day at which a period begins. Every defined
// period has a defined start; minute is always zero today but is returned so
// callers never rebuild the clock themselves.
func StartTime(p models.Period) (hour, minute int) {
	return periodStartHour[p], 0
}

// Timestamp combines a calendar date with a period's start time into the
// slot timestamp, in UTC. Two bookings are for the same slot exactly when
// their timestamps are equal, so this is the only place the combination
// happens.
func Timestamp(date time.Time, p models.Period) time.Time {
	hour, minute := StartTime(p)
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}
