// Package logstream holds the user-facing device console: a bounded,
// append-only window of the most recent messages.
package logstream

import (
	"strings"
	"sync"
	"time"

	"github.com/yadavnikhil03/scrcpy-gui/internal/shared/id"
)

// DefaultWindow is the number of entries retained.
const DefaultWindow = 100

// Message prefixes used across the orchestration layer.
const (
	PrefixSystem = "[SYSTEM] "
	PrefixTip    = "[TIP] "
	PrefixError  = "[ERROR] "
	PrefixWarn   = "[WARN] "
	PrefixADB    = "[ADB] "
)

// Entry is one console line.
type Entry struct {
	ID      id.LogID  `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Stream is a fixed-size window over appended entries. After every Append
// it holds exactly min(total appended since Clear, window) entries.
type Stream struct {
	// appendMu serializes appends so subscribers see entries in window order.
	appendMu sync.Mutex

	mu      sync.RWMutex
	window  int
	entries []Entry

	subMu sync.RWMutex
	subs  map[int]func(Entry)
	next  int
}

// New creates a stream keeping the most recent window entries. A
// non-positive window selects DefaultWindow.
func New(window int) *Stream {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Stream{
		window:  window,
		entries: make([]Entry, 0, window),
		subs:    make(map[int]func(Entry)),
	}
}

// Window returns the configured capacity.
func (s *Stream) Window() int {
	return s.window
}

// Append adds messages at the tail, in order, evicting from the head.
func (s *Stream) Append(messages ...string) {
	if len(messages) == 0 {
		return
	}

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	added := make([]Entry, 0, len(messages))
	s.mu.Lock()
	for _, msg := range messages {
		e := Entry{ID: id.NewLogID(), Time: time.Now(), Message: msg}
		s.entries = append(s.entries, e)
		added = append(added, e)
	}
	if over := len(s.entries) - s.window; over > 0 {
		kept := make([]Entry, s.window)
		copy(kept, s.entries[over:])
		s.entries = kept
	}
	s.mu.Unlock()

	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, e := range added {
		for _, fn := range s.subs {
			fn(e)
		}
	}
}

// System appends a "[SYSTEM] " message.
func (s *Stream) System(msg string) { s.Append(PrefixSystem + msg) }

// Tip appends a "[TIP] " message.
func (s *Stream) Tip(msg string) { s.Append(PrefixTip + msg) }

// Error appends an "[ERROR] " message.
func (s *Stream) Error(msg string) { s.Append(PrefixError + msg) }

// Lines appends every line of a multi-line block, trimming a trailing
// newline and carriage returns. prefix is prepended to each line.
func (s *Stream) Lines(block, prefix string) {
	block = strings.TrimRight(block, "\r\n")
	if block == "" {
		return
	}
	parts := strings.Split(block, "\n")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimRight(p, "\r")
	}
	s.Append(parts...)
}

// Clear empties the window.
func (s *Stream) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make([]Entry, 0, s.window)
}

// Len returns the number of retained entries.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a copy of the retained entries, oldest first.
func (s *Stream) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Messages returns the retained message strings, oldest first.
func (s *Stream) Messages() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Message
	}
	return out
}

// Since returns retained entries whose ID sorts after the given one. An
// empty or evicted ID yields the whole window.
func (s *Stream) Since(after id.LogID) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if after == "" {
		out := make([]Entry, len(s.entries))
		copy(out, s.entries)
		return out
	}
	for i, e := range s.entries {
		if e.ID > after {
			out := make([]Entry, len(s.entries)-i)
			copy(out, s.entries[i:])
			return out
		}
	}
	return []Entry{}
}

// Subscribe registers fn for every entry appended from now on and returns
// the function that removes it. fn runs on the appending goroutine and must
// not call back into the Stream's Subscribe.
func (s *Stream) Subscribe(fn func(Entry)) func() {
	s.subMu.Lock()
	key := s.next
	s.next++
	s.subs[key] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, key)
		s.subMu.Unlock()
	}
}
