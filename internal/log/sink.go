package log

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one buffered log line.
type Entry struct {
	Time      time.Time `json:"time"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
	Error     bool      `json:"error"`
}

// Sink keeps the most recent log entries in a ring buffer so they can be served over the API.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewSink creates a buffer holding at most size entries.
func NewSink(size int) *Sink {
	if size <= 0 {
		size = 1000
	}
	return &Sink{entries: make([]Entry, size)}
}

// Write implements io.Writer for zerolog JSON lines.
func (s *Sink) Write(p []byte) (int, error) {
	var raw struct {
		Time      string `json:"time"`
		Level     string `json:"level"`
		Component string `json:"component"`
		Message   string `json:"message"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(p, &raw); err != nil {
		raw.Message = string(p)
	}

	e := Entry{
		Level:     raw.Level,
		Component: raw.Component,
		Message:   raw.Message,
	}
	if raw.Error != "" {
		if e.Message != "" {
			e.Message += ": "
		}
		e.Message += raw.Error
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw.Time); err == nil {
		e.Time = ts
	} else {
		e.Time = time.Now()
	}
	if lvl, err := zerolog.ParseLevel(raw.Level); err == nil && lvl >= zerolog.ErrorLevel && lvl != zerolog.NoLevel {
		e.Error = true
	}

	s.mu.Lock()
	s.entries[s.next] = e
	s.next = (s.next + 1) % len(s.entries)
	if s.next == 0 {
		s.full = true
	}
	s.mu.Unlock()

	return len(p), nil
}

// Entries returns buffered entries, oldest first, at or above minLevel ("" keeps everything).
func (s *Sink) Entries(minLevel string) []Entry {
	threshold := zerolog.TraceLevel
	if minLevel != "" {
		if lvl, err := zerolog.ParseLevel(minLevel); err == nil {
			threshold = lvl
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ordered []Entry
	if s.full {
		ordered = append(ordered, s.entries[s.next:]...)
	}
	ordered = append(ordered, s.entries[:s.next]...)

	out := make([]Entry, 0, len(ordered))
	for _, e := range ordered {
		lvl, err := zerolog.ParseLevel(e.Level)
		if err != nil || lvl < threshold || (minLevel != "" && lvl == zerolog.NoLevel) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Clear drops every buffered entry.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		s.entries[i] = Entry{}
	}
	s.next = 0
	s.full = false
}
