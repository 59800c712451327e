package parse

import "strings"

// tokens is the mutable word buffer the extractors consume from.
//
// Removal is mark-then-filter: callers hand drop() an arbitrary index set
// and the buffer is rebuilt in one pass, so indexes never shift out from
// under a scan.
type tokens struct {
	words []string
}

func newTokens(s string) *tokens {
	return &tokens{words: strings.Fields(s)}
}

func (t *tokens) len() int { return len(t.words) }

// at returns the token at i, or "" when i is out of range.
func (t *tokens) at(i int) string {
	if i < 0 || i >= len(t.words) {
		return ""
	}
	return t.words[i]
}

// drop removes the tokens at the given indexes. Out-of-range and duplicate
// indexes are ignored.
func (t *tokens) drop(indexes ...int) {
	if len(indexes) == 0 {
		return
	}
	dead := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		if i >= 0 && i < len(t.words) {
			dead[i] = true
		}
	}
	if len(dead) == 0 {
		return
	}
	kept := t.words[:0]
	for i, w := range t.words {
		if !dead[i] {
			kept = append(kept, w)
		}
	}
	t.words = kept
}

func (t *tokens) join() string { return strings.Join(t.words, " ") }
