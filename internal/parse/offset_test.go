package parse

import (
	"testing"
	"time"
)

var offsetNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC) // a Tuesday

func TestExtractOffsetSingleUnits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  time.Time
	}{
		{"in 30 seconds", offsetNow.Add(30 * time.Second)},
		{"in 10 minutes", offsetNow.Add(10 * time.Minute)},
		{"in 3 hours", offsetNow.Add(3 * time.Hour)},
		{"in 2 days", offsetNow.AddDate(0, 0, 2)},
		{"in 2 weeks", offsetNow.AddDate(0, 0, 14)},
		{"in 6 months", offsetNow.AddDate(0, 6, 0)},
		{"in 1 year", offsetNow.AddDate(1, 0, 0)},
		{"tomorrow", offsetNow.AddDate(0, 0, 1)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			res, ok := extractOffset(newTokens(tt.input), offsetNow)
			if !ok {
				t.Fatalf("extractOffset(%q) found nothing", tt.input)
			}
			if !res.when.Equal(tt.want) {
				t.Fatalf("when = %v, want %v", res.when, tt.want)
			}
		})
	}
}

func TestExtractOffsetCompound(t *testing.T) {
	t.Parallel()
	res, ok := extractOffset(newTokens("in 1 week 2 days"), offsetNow)
	if !ok {
		t.Fatal("no offset found")
	}
	if want := offsetNow.AddDate(0, 0, 9); !res.when.Equal(want) {
		t.Fatalf("when = %v, want %v (now + 9 days)", res.when, want)
	}
	if res.cad.Weeks != 1 || res.cad.Days != 2 {
		t.Fatalf("cadence = %+v, want weeks=1 days=2", res.cad)
	}
}

func TestExtractOffsetConnective(t *testing.T) {
	t.Parallel()
	tok := newTokens("in 2 hours and 15 minutes call mom")
	res, ok := extractOffset(tok, offsetNow)
	if !ok {
		t.Fatal("no offset found")
	}
	if want := offsetNow.Add(2*time.Hour + 15*time.Minute); !res.when.Equal(want) {
		t.Fatalf("when = %v, want %v", res.when, want)
	}
	// "and" before the magnitude is consumed with the pair.
	if got := tok.join(); got != "in call mom" {
		t.Fatalf("residual = %q, want %q", got, "in call mom")
	}
}

func TestExtractOffsetBareUnit(t *testing.T) {
	t.Parallel()
	res, ok := extractOffset(newTokens("in a week"), offsetNow)
	if !ok {
		t.Fatal("no offset found")
	}
	if want := offsetNow.AddDate(0, 0, 7); !res.when.Equal(want) {
		t.Fatalf("when = %v, want %v", res.when, want)
	}
	if res.cad.Weeks != 1 {
		t.Fatalf("weeks counter = %d, want 1", res.cad.Weeks)
	}
}

func TestExtractOffsetNoMatch(t *testing.T) {
	t.Parallel()
	if _, ok := extractOffset(newTokens("feed the cat"), offsetNow); ok {
		t.Fatal("expected no offset in plain text")
	}
}
