package parse

import "testing"

func TestStripOrdinal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"1st", "1"},
		{"2nd", "2"},
		{"3rd", "3"},
		{"30th", "30"},
		{"22ND", "22"},
		{"th", "th"},       // no digits
		{"first", "first"}, // not digit-prefixed
		{"15", "15"},
	}
	for _, tt := range tests {
		if got := stripOrdinal(tt.in); got != tt.want {
			t.Errorf("stripOrdinal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnitSynonyms(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want Unit
	}{
		{"hrs", UnitHour},
		{"tomorrow", UnitDay},
		{"min", UnitMinute},
		{"weeks", UnitWeek},
		{"yr", UnitYear},
	}
	for _, tt := range tests {
		got, ok := unitSynonyms[tt.in]
		if !ok || got != tt.want {
			t.Errorf("unitSynonyms[%q] = %v, %v; want %v", tt.in, got, ok, tt.want)
		}
	}
	if _, ok := unitSynonyms["fortnight"]; ok {
		t.Error("unexpected synonym: fortnight")
	}
}
