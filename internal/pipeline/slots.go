package pipeline

import "github.com/ayusman/bebas/internal/skeleton"

// AssignSlots orders mapped hands into the two fixed slots.
//
// With two hands, the one whose wrist is further left on the display takes slot 0.
// If either wrist is Absent the hands keep their input order; the capability does not
// guarantee that order, so such frames may swap slots between frames. A single hand
// goes to slot 0 and missing slots are all Absent. Hands beyond the second are ignored.
func AssignSlots(hands []skeleton.Slot) [skeleton.NumSlots]skeleton.Slot {
	var slots [skeleton.NumSlots]skeleton.Slot

	switch {
	case len(hands) == 0:
		return slots
	case len(hands) == 1:
		slots[0] = hands[0]
		return slots
	}

	a, b := hands[0], hands[1]
	wa, wb := a[skeleton.Wrist], b[skeleton.Wrist]
	if wa.Valid && wb.Valid && wb.X < wa.X {
		a, b = b, a
	}

	slots[0], slots[1] = a, b
	return slots
}
