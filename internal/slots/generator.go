package slots

import (
	"time"

	"sarc/internal/models"
)

// TermWindow returns the inclusive first and last calendar day of a term.
func TermWindow(year int, term models.Term) (start, end time.Time) {
	if term == models.TermFirst {
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC)
	} else {
		start = time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	return start, end
}

// ClassDates enumerates every calendar date inside the term window whose
// weekday is in the given set, in ascending order. The day-by-day scan is
// deliberate: a term is at most 184 days, and real dates keep leap years
// correct for free. An empty weekday set means the class never meets and
// yields no dates.
func ClassDates(year int, term models.Term, weekdays []time.Weekday) []time.Time {
	if len(weekdays) == 0 {
		return nil
	}

	meets := make(map[time.Weekday]bool, len(weekdays))
	for _, d := range weekdays {
		meets[d] = true
	}

	start, end := TermWindow(year, term)
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if meets[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

// MeetingDates is ClassDates for a loaded class record.
func MeetingDates(c *models.Class) []time.Time {
	return ClassDates(c.Year, c.Term, c.Weekdays)
}
