package phone

import "testing"

func TestLookupKeyStripsFormattingNoise(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain national", "5512345678", "5512345678"},
		{"dashes and spaces", "55-1234 5678", "5512345678"},
		{"with country code", "+52 55 1234 5678", "5512345678"},
		{"parentheses", "(55) 1234-5678", "5512345678"},
		{"empty", "", ""},
		{"no digits", "n/a", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LookupKey(tc.input); got != tc.want {
				t.Fatalf("LookupKey(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestLookupKeySameIdentityRegardlessOfFormat(t *testing.T) {
	variants := []string{"5512345678", "+525512345678", "55 12 34 56 78"}
	want := LookupKey(variants[0])
	for _, v := range variants {
		if got := LookupKey(v); got != want {
			t.Fatalf("LookupKey(%q) = %q, want %q", v, got, want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+52 (55) 1234-5678"); got != "525512345678" {
		t.Fatalf("Digits = %q", got)
	}
}
