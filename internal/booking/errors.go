// Package booking holds the admission rules for resource reservations: the
// slot validator, the capacity ledger and the refusal taxonomy they produce.
package booking

import (
	"errors"
	"fmt"
	"time"

	"sarc/internal/models"
)

// Sentinel refusals without per-request detail.
var (
	ErrClassNotFound    = errors.New("class not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceInactive = errors.New("resource is not active")
)

// PeriodMismatchError means the requested period is not the period the class
// is assigned to.
type PeriodMismatchError struct {
	Requested models.Period
	Assigned  models.Period
}

func (e *PeriodMismatchError) Error() string {
	return fmt.Sprintf("requested period %s does not match class period %s", e.Requested, e.Assigned)
}

// NotClassDayError means the requested date is not one of the dates the
// class meets on. It carries the class's pattern so the message alone is
// enough to see why the date was refused.
type NotClassDayError struct {
	ClassName string
	Term      models.Term
	Year      int
	Date      time.Time
}

func (e *NotClassDayError) Error() string {
	return fmt.Sprintf("%s is not a class day for %s in term %s/%d",
		e.Date.Format("2006-01-02"), e.ClassName, e.Term, e.Year)
}

// InsufficientCapacityError means the resource does not have enough
// remaining quantity at the requested slot. The request may succeed later if
// other reservations are removed.
type InsufficientCapacityError struct {
	Requested int
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("requested quantity %d exceeds remaining capacity %d", e.Requested, e.Remaining)
}

// Reason classifies a refusal for metrics and logs. Errors outside the
// taxonomy (storage failures and the like) report an empty reason; callers
// must treat those as infrastructure failures, not refusals.
func Reason(err error) string {
	var pm *PeriodMismatchError
	var ncd *NotClassDayError
	var ic *InsufficientCapacityError
	switch {
	case errors.Is(err, ErrClassNotFound):
		return "class_not_found"
	case errors.Is(err, ErrResourceNotFound):
		return "resource_not_found"
	case errors.Is(err, ErrResourceInactive):
		return "resource_inactive"
	case errors.As(err, &pm):
		return "period_mismatch"
	case errors.As(err, &ncd):
		return "not_a_class_day"
	case errors.As(err, &ic):
		return "insufficient_capacity"
	}
	return ""
}
