package speech

import (
	"strings"
	"sync"
)

// Transcript accumulates recognizer output for one capture.
// Final segments are committed; the latest partial is replaced by each new partial.
type Transcript struct {
	mu      sync.Mutex
	finals  []string
	partial string
}

// Add records a recognizer segment.
func (t *Transcript) Add(text string, final bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text = strings.TrimSpace(text)
	if final {
		if text != "" {
			t.finals = append(t.finals, text)
		}
		t.partial = ""
		return
	}
	t.partial = text
}

// Text returns committed segments followed by the pending partial, single-spaced.
func (t *Transcript) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := append([]string(nil), t.finals...)
	if t.partial != "" {
		parts = append(parts, t.partial)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// Reset clears the transcript for the next capture.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finals = nil
	t.partial = ""
}
