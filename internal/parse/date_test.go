package parse

import (
	"testing"
	"time"
)

var dateNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestExtractSpelledDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		order DateOrder
		month time.Month
		day   int
	}{
		{name: "month first", input: "party august 30 yay", order: OrderMonthFirst, month: time.August, day: 30},
		{name: "ordinal day", input: "august 30th", order: OrderMonthFirst, month: time.August, day: 30},
		{name: "day first", input: "30th august", order: OrderDayFirst, month: time.August, day: 30},
		{name: "mixed case", input: "DECEMBER 1st", order: OrderMonthFirst, month: time.December, day: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tok := newTokens(tt.input)
			d, ok := extractSpelledDate(tok, englishMonths, tt.order, dateNow)
			if !ok {
				t.Fatalf("no date in %q", tt.input)
			}
			if d.month != tt.month || d.day != tt.day {
				t.Fatalf("got %v %d, want %v %d", d.month, d.day, tt.month, tt.day)
			}
			if d.hasYear {
				t.Fatal("spelled dates carry no explicit year")
			}
			if d.year != dateNow.Year() {
				t.Fatalf("year = %d, want %d", d.year, dateNow.Year())
			}
		})
	}
}

func TestExtractSpelledDateRejectsBadDay(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"february 30", "august soon", "august"} {
		if _, ok := extractSpelledDate(newTokens(input), englishMonths, OrderMonthFirst, dateNow); ok {
			t.Errorf("extractSpelledDate(%q) succeeded, want failure", input)
		}
	}
}

func TestExtractNumericDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		order   DateOrder
		month   time.Month
		day     int
		year    int
		hasYear bool
	}{
		{name: "slash month first", input: "8/30", order: OrderMonthFirst, month: time.August, day: 30, year: 2026},
		{name: "slash day first", input: "30/8", order: OrderDayFirst, month: time.August, day: 30, year: 2026},
		{name: "with year", input: "8/30/2027", order: OrderMonthFirst, month: time.August, day: 30, year: 2027, hasYear: true},
		{name: "dashes", input: "8-30", order: OrderMonthFirst, month: time.August, day: 30, year: 2026},
		{name: "dots day first", input: "30.8.2027", order: OrderDayFirst, month: time.August, day: 30, year: 2027, hasYear: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tok := newTokens("x " + tt.input + " y")
			d, ok := extractNumericDate(tok, tt.order, dateNow)
			if !ok {
				t.Fatalf("no date in %q", tt.input)
			}
			if d.month != tt.month || d.day != tt.day || d.year != tt.year || d.hasYear != tt.hasYear {
				t.Fatalf("got %+v, want %v %d %d hasYear=%v", d, tt.month, tt.day, tt.year, tt.hasYear)
			}
			if got := tok.join(); got != "x y" {
				t.Fatalf("residual = %q, want %q", got, "x y")
			}
		})
	}
}

func TestExtractNumericDateNoMatch(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"30/30", "8/", "nothing here", "3:04"} {
		if _, ok := extractNumericDate(newTokens(input), OrderMonthFirst, dateNow); ok {
			t.Errorf("extractNumericDate(%q) succeeded, want failure", input)
		}
	}
}
