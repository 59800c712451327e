package parse

// noMessage is the placeholder when nothing but temporal tokens and
// filler survived extraction.
const noMessage = "No attached message."

// cleanupMessage strips filler tokens ("in", "at", "remind", "me", ...)
// from the residual buffer and joins what remains with single spaces.
// Cleaning an already-clean message is a no-op.
func cleanupMessage(t *tokens) string {
	var dead []int
	for i := 0; i < t.len(); i++ {
		if isStopWord(t.at(i)) {
			dead = append(dead, i)
		}
	}
	t.drop(dead...)
	if t.len() == 0 {
		return noMessage
	}
	return t.join()
}
