package booking

import (
	"sarc/internal/models"
)

// Remaining computes how much of a resource's quantity is still free given
// the reservations already committed for one slot. A negative result can
// only come from corrupt data; it is clamped to zero so a corrupted slot
// refuses further admissions instead of compounding the overbooking.
func Remaining(resourceQuantity int, existing []models.Reservation) int {
	used := 0
	for _, r := range existing {
		used += r.Quantity
	}
	remaining := resourceQuantity - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Admit accepts a requested quantity against remaining capacity. Requests
// below one unit are refused outright.
func Admit(requested, remaining int) error {
	if requested < 1 || requested > remaining {
		return &InsufficientCapacityError{Requested: requested, Remaining: remaining}
	}
	return nil
}

// AdmitResource is the full ledger decision for one resource and slot: the
// resource must be active, then the requested quantity must fit in what the
// existing reservations leave over.
func AdmitResource(res *models.Resource, existing []models.Reservation, requested int) error {
	if !res.Active {
		return ErrResourceInactive
	}
	return Admit(requested, Remaining(res.EffectiveQuantity(), existing))
}
