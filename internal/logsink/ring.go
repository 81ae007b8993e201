package logsink

import (
	"strings"
	"sync"
)

// Ring keeps the most recent lines written to a stream.
type Ring struct {
	mu    sync.RWMutex
	lines []string
	next  int // slot the next line goes into
	full  bool
}

// NewRing creates a ring holding up to size lines. size is at least 1.
func NewRing(size int) *Ring {
	return &Ring{lines: make([]string, max(size, 1))}
}

// Add stores line, evicting the oldest when full.
func (r *Ring) Add(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

// Lines returns the stored lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	return append(out, r.lines[:r.next]...)
}

// Last returns up to n of the newest lines, oldest first.
func (r *Ring) Last(n int) []string {
	lines := r.Lines()
	if n <= 0 {
		return nil
	}
	if n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// Len is the number of stored lines.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.lines)
	}
	return r.next
}

func (r *Ring) String() string {
	return strings.Join(r.Lines(), "\n")
}
