package domain

import "testing"

func TestParseRejectsUnknownStatus(t *testing.T) {
	if _, err := Parse("IN_PROGRESS"); err == nil {
		t.Fatal("expected rejection of status outside the enum")
	}
	for _, raw := range []string{"PENDING_CONTACT", "REPORTED", "ASSIGNED_EXTERNAL", "WON", "LOST", "CLOSED"} {
		if _, err := Parse(raw); err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
	}
}

func TestFunnelIsMonotonic(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPendingContact, StatusReported, true},
		{StatusPendingContact, StatusAssignedExternal, true},
		{StatusReported, StatusAssignedExternal, true},
		{StatusAssignedExternal, StatusWon, true},
		{StatusAssignedExternal, StatusLost, true},
		{StatusAssignedExternal, StatusClosed, true},
		// Re-assignment correction.
		{StatusAssignedExternal, StatusAssignedExternal, true},
		// No moving backwards.
		{StatusReported, StatusPendingContact, false},
		{StatusAssignedExternal, StatusReported, false},
		// Terminal states accept nothing.
		{StatusWon, StatusAssignedExternal, false},
		{StatusWon, StatusWon, false},
		{StatusLost, StatusClosed, false},
		{StatusClosed, StatusPendingContact, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.ok {
			t.Fatalf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []Status{StatusWon, StatusLost, StatusClosed} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	for _, s := range []Status{StatusPendingContact, StatusReported, StatusAssignedExternal} {
		if s.IsTerminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}
