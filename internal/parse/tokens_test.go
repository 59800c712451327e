package parse

import "testing"

func TestTokensDropIsIndexStable(t *testing.T) {
	t.Parallel()
	tb := newTokens("a b c d e")

	// Indexes are all relative to the same snapshot, in any order.
	tb.drop(1, 3)
	if got := tb.join(); got != "a c e" {
		t.Fatalf("join = %q, want %q", got, "a c e")
	}

	tb.drop(0, 2)
	if got := tb.join(); got != "c" {
		t.Fatalf("join = %q, want %q", got, "c")
	}
}

func TestTokensDropIgnoresBadIndexes(t *testing.T) {
	t.Parallel()
	tb := newTokens("x y")
	tb.drop(-1, 5, 1, 1)
	if got := tb.join(); got != "x" {
		t.Fatalf("join = %q, want %q", got, "x")
	}
}

func TestTokensAtOutOfRange(t *testing.T) {
	t.Parallel()
	tb := newTokens("only")
	if tb.at(-1) != "" || tb.at(1) != "" {
		t.Fatal("out-of-range at() should return empty string")
	}
	if tb.at(0) != "only" {
		t.Fatalf("at(0) = %q", tb.at(0))
	}
}
