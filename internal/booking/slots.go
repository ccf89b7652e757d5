// Package booking generates and validates appointment slots under the
// marketplace's business-hour rules. It is pure: no I/O, no wall-clock reads;
// callers inject "now" so every rule is deterministically testable.
package booking

import (
	"fmt"
	"time"

	"inmueble_backend/platform/apperr"
)

// Business rules for visit scheduling.
const (
	// StartHour is the first bookable slot start (07:00 local).
	StartHour = 7
	// EndHour closes the business day (21:00); the last slot starts one hour before.
	EndHour = 21
	// SlotDuration is the length of every slot.
	SlotDuration = time.Hour
	// MinAdvance is the hard buffer: a slot starting within this window from
	// "now" is never selectable, on any date.
	MinAdvance = 2 * time.Hour
	// MaxWindowDays bounds how far ahead a visit can be booked.
	MaxWindowDays = 15
)

// Clock supplies the current time. Production wiring passes time.Now.
type Clock func() time.Time

// Slot is a candidate appointment time. It is a value object: never persisted
// on its own, only as part of a lead's appointment once selected.
type Slot struct {
	Label     string    `json:"label"`
	Start     time.Time `json:"start"`
	Available bool      `json:"available"`
}

// MaxScheduleDate returns the last calendar day on which a visit can be
// booked. Callers must re-validate client-supplied dates against this bound.
func MaxScheduleDate(now time.Time) time.Time {
	return startOfDay(now).AddDate(0, 0, MaxWindowDays)
}

// GenerateSlots produces the hourly slots for selectedDate. The result is
// empty when the date is before today or beyond the booking window. Each slot
// is flagged available only when it starts at least MinAdvance after now.
func GenerateSlots(selectedDate, now time.Time) []Slot {
	day := startOfDay(selectedDate)
	if day.Before(startOfDay(now)) || day.After(MaxScheduleDate(now)) {
		return nil
	}

	minStart := now.Add(MinAdvance)
	slots := make([]Slot, 0, EndHour-StartHour)
	for hour := StartHour; hour < EndHour; hour++ {
		start := day.Add(time.Duration(hour) * time.Hour)
		slots = append(slots, Slot{
			Label:     fmt.Sprintf("%02d:00", hour),
			Start:     start,
			Available: !start.Before(minStart),
		})
	}
	return slots
}

// ValidateSelection re-derives the slot for (date, timeLabel) and rejects the
// selection unless it matches an available generated slot. Client-chosen
// slots are never trusted as-is.
func ValidateSelection(date time.Time, timeLabel string, now time.Time) error {
	for _, slot := range GenerateSlots(date, now) {
		if slot.Label != timeLabel {
			continue
		}
		if !slot.Available {
			return apperr.Conflict("selected slot is no longer available")
		}
		return nil
	}
	return apperr.Conflict("selected slot is not bookable")
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
