package booking

import (
	"testing"
	"time"

	"inmueble_backend/platform/apperr"
)

// 2026-03-10 10:30 local time; a plain weekday mid-morning.
var now = time.Date(2026, 3, 10, 10, 30, 0, 0, time.Local)

func TestGenerateSlotsCoversBusinessDay(t *testing.T) {
	tomorrow := now.AddDate(0, 0, 1)
	slots := GenerateSlots(tomorrow, now)

	if len(slots) != 14 {
		t.Fatalf("expected 14 hourly slots, got %d", len(slots))
	}
	if slots[0].Label != "07:00" {
		t.Fatalf("first slot = %q, want 07:00", slots[0].Label)
	}
	if slots[len(slots)-1].Label != "20:00" {
		t.Fatalf("last slot = %q, want 20:00", slots[len(slots)-1].Label)
	}
	for _, slot := range slots {
		if !slot.Available {
			t.Fatalf("slot %s on a future day should be available", slot.Label)
		}
	}
}

func TestGenerateSlotsEmptyForPastDate(t *testing.T) {
	yesterday := now.AddDate(0, 0, -1)
	if slots := GenerateSlots(yesterday, now); len(slots) != 0 {
		t.Fatalf("expected no slots for a past date, got %d", len(slots))
	}
}

func TestGenerateSlotsEmptyBeyondWindow(t *testing.T) {
	tooFar := now.AddDate(0, 0, MaxWindowDays+1)
	if slots := GenerateSlots(tooFar, now); len(slots) != 0 {
		t.Fatalf("expected no slots beyond the %d-day window, got %d", MaxWindowDays, len(slots))
	}
}

func TestGenerateSlotsLastWindowDayIsBookable(t *testing.T) {
	lastDay := now.AddDate(0, 0, MaxWindowDays)
	if slots := GenerateSlots(lastDay, now); len(slots) == 0 {
		t.Fatal("expected slots on the last day of the window")
	}
}

func TestTwoHourBufferOnSameDay(t *testing.T) {
	slots := GenerateSlots(now, now)
	if len(slots) == 0 {
		t.Fatal("expected slots for today")
	}

	minStart := now.Add(MinAdvance)
	for _, slot := range slots {
		wantAvailable := !slot.Start.Before(minStart)
		if slot.Available != wantAvailable {
			t.Fatalf("slot %s available=%v, want %v (start=%s now=%s)",
				slot.Label, slot.Available, wantAvailable, slot.Start, now)
		}
	}

	// With now at 10:30, 12:00 is inside the buffer and 13:00 is the first
	// selectable slot.
	byLabel := make(map[string]Slot)
	for _, slot := range slots {
		byLabel[slot.Label] = slot
	}
	if byLabel["12:00"].Available {
		t.Fatal("12:00 starts within 2h of 10:30 and must be unavailable")
	}
	if !byLabel["13:00"].Available {
		t.Fatal("13:00 starts 2h30 after now and must be available")
	}
}

func TestMaxScheduleDate(t *testing.T) {
	want := time.Date(2026, 3, 25, 0, 0, 0, 0, time.Local)
	if got := MaxScheduleDate(now); !got.Equal(want) {
		t.Fatalf("MaxScheduleDate = %s, want %s", got, want)
	}
}

func TestValidateSelection(t *testing.T) {
	tomorrow := now.AddDate(0, 0, 1)

	if err := ValidateSelection(tomorrow, "09:00", now); err != nil {
		t.Fatalf("expected 09:00 tomorrow to validate, got %v", err)
	}

	// Inside the 2h buffer today.
	if err := ValidateSelection(now, "11:00", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for buffered slot, got %v", err)
	}

	// Label outside business hours.
	if err := ValidateSelection(tomorrow, "22:00", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for 22:00, got %v", err)
	}

	// Date outside the window.
	if err := ValidateSelection(now.AddDate(0, 0, 20), "09:00", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict beyond booking window, got %v", err)
	}

	// Past date.
	if err := ValidateSelection(now.AddDate(0, 0, -2), "09:00", now); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for past date, got %v", err)
	}
}
