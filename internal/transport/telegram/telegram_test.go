package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextShortPassthrough(t *testing.T) {
	t.Parallel()
	got := chunkText("hello", 10)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("chunkText = %q", got)
	}
}

func TestChunkTextBreaksOnNewline(t *testing.T) {
	t.Parallel()
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = strings.Repeat("x", 9)
	}
	text := strings.Join(lines, "\n")

	chunks := chunkText(text, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if utf8.RuneCountInString(c) > 100 {
			t.Errorf("chunk %d has %d runes", i, utf8.RuneCountInString(c))
		}
		// Newline-preferring split should never bisect a line here.
		for _, ln := range strings.Split(c, "\n") {
			if len(ln) != 9 {
				t.Errorf("chunk %d contains partial line %q", i, ln)
			}
		}
	}
	if joined := strings.Join(chunks, "\n"); joined != text {
		t.Error("chunks do not reassemble the original text")
	}
}

func TestChunkTextUnicodeSafe(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("héllo wörld ", 50)
	for _, c := range chunkText(text, 64) {
		if !utf8.ValidString(c) {
			t.Fatalf("invalid UTF-8 in chunk %q", c)
		}
		if utf8.RuneCountInString(c) > 64 {
			t.Fatalf("chunk too long: %d runes", utf8.RuneCountInString(c))
		}
	}
}
