package booking

import (
	"time"

	"sarc/internal/models"
	"sarc/internal/slots"
)

// ValidateSlot decides whether (date, period) is a legal meeting instance of
// the class. Pure: the outcome depends only on the class record and the
// deterministic date generator.
//
// The period check runs first; a class meets at exactly one period per week,
// so a wrong period is refused before any date work. The date check walks
// the generated meeting dates, the same list a booking calendar would show.
func ValidateSlot(c *models.Class, date time.Time, period models.Period) error {
	if period != c.Period {
		return &PeriodMismatchError{Requested: period, Assigned: c.Period}
	}

	for _, d := range slots.MeetingDates(c) {
		if sameDay(d, date) {
			return nil
		}
	}
	return &NotClassDayError{
		ClassName: c.Name,
		Term:      c.Term,
		Year:      c.Year,
		Date:      date,
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
