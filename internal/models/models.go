package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Term is an academic half-year. FIRST covers January through June,
// SECOND covers July through December, endpoints inclusive.
type Term string

const (
	TermFirst  Term = "FIRST"
	TermSecond Term = "SECOND"
)

// ParseTerm parses a stored term value.
func ParseTerm(s string) (Term, error) {
	switch Term(strings.ToUpper(strings.TrimSpace(s))) {
	case TermFirst:
		return TermFirst, nil
	case TermSecond:
		return TermSecond, nil
	}
	return "", fmt.Errorf("unknown term %q", s)
}

// Period is one of the fixed daily teaching slots. A class sits at exactly
// one period per week; the period's start time comes from slots.StartTime.
type Period string

const (
	PeriodA Period = "A"
	PeriodB Period = "B"
	PeriodC Period = "C"
	PeriodD Period = "D"
	PeriodE Period = "E"
	PeriodF Period = "F"
	PeriodG Period = "G"
	PeriodH Period = "H"
)

// Periods lists all defined periods in daily order.
var Periods = []Period{
	PeriodA, PeriodB, PeriodC, PeriodD,
	PeriodE, PeriodF, PeriodG, PeriodH,
}

// ParsePeriod parses a stored period code.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Periods {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// Class is a recurring weekly teaching session: a fixed weekday pattern at a
// fixed period inside one half-year term. Classes are administered outside
// the reservation core; the core only reads them.
type Class struct {
	ID        uuid.UUID
	Name      string
	Year      int
	Term      Term
	Period    Period
	Room      string
	Weekdays  []time.Weekday
	CreatedAt time.Time
}

// MeetsOn reports whether the class meets on the given weekday.
func (c *Class) MeetsOn(d time.Weekday) bool {
	for _, w := range c.Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// Resource is a bookable asset with a finite quantity.
type Resource struct {
	ID        uuid.UUID
	Name      string
	Type      string
	Quantity  int
	Active    bool
	CreatedAt time.Time
}

// EffectiveQuantity returns the bookable quantity, defaulting to 1 when the
// stored quantity was never set.
func (r *Resource) EffectiveQuantity() int {
	if r.Quantity < 1 {
		return 1
	}
	return r.Quantity
}

// Reservation is a committed allocation of a resource quantity to a class at
// a specific slot. StartsAt is the slot timestamp (UTC); CreatedAt is when
// the reservation was admitted.
type Reservation struct {
	ID         uuid.UUID
	ResourceID uuid.UUID
	ClassID    uuid.UUID
	Quantity   int
	StartsAt   time.Time
	CreatedAt  time.Time
}

// User is an account record; the core only touches users to seed the
// default administrator at startup.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

var weekdayNames = map[string]time.Weekday{
	"SUNDAY":    time.Sunday,
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
}

// ParseWeekday parses a stored weekday name (e.g. "MONDAY").
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// ParseWeekdays parses a comma-separated weekday list as stored in sqlite.
// An empty string yields an empty set.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		d, err := ParseWeekday(p)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// FormatWeekdays renders a weekday set for storage, upper-case names joined
// by commas.
func FormatWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToUpper(d.String())
	}
	return strings.Join(names, ",")
}
