package bot

import (
	"strings"
	"sync"
)

// pendingDraft is a reminder request parked while its owner answers
// the date-format dialog.
type pendingDraft struct {
	recipientID int64
	text        string
	chatID      int64
}

type pendingDrafts struct {
	mu sync.Mutex
	m  map[int64]pendingDraft
}

func (p *pendingDrafts) put(ownerID int64, d pendingDraft) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[int64]pendingDraft)
	}
	p.m[ownerID] = d
}

func (p *pendingDrafts) take(ownerID int64) (pendingDraft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.m[ownerID]
	if ok {
		delete(p.m, ownerID)
	}
	return d, ok
}

// splitCommand returns the command name without the leading slash or a
// trailing @botname, plus the remaining argument text. An empty command
// means the message was not a command at all.
func splitCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	return strings.ToLower(head), strings.TrimSpace(rest)
}

// leadingMention peels a "@username" off the front of the argument
// text, addressing the reminder to somebody else.
func leadingMention(args string) (username, rest string, ok bool) {
	args = strings.TrimSpace(args)
	if !strings.HasPrefix(args, "@") {
		return "", args, false
	}
	head, tail, _ := strings.Cut(args[1:], " ")
	if head == "" {
		return "", args, false
	}
	return head, strings.TrimSpace(tail), true
}

// containsNumericDate reports whether any token looks like a numeric
// date, i.e. two or three digit groups joined by a date separator.
func containsNumericDate(text string) bool {
	for _, tok := range strings.Fields(text) {
		if isNumericDateToken(tok) {
			return true
		}
	}
	return false
}

func isNumericDateToken(tok string) bool {
	tok = strings.TrimSuffix(tok, ",")
	groups := 0
	digits := 0
	var sep byte
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '/' || c == '-' || c == '.':
			if digits == 0 {
				return false
			}
			if sep == 0 {
				sep = c
			} else if sep != c {
				return false
			}
			groups++
			digits = 0
		default:
			return false
		}
	}
	// Times use ":" and never reach here; "1/15" has one separator,
	// "1/15/2026" two.
	return digits > 0 && (groups == 1 || groups == 2)
}
