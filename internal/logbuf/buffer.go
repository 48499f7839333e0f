// Package logbuf implements the Log Buffer (C1): a bounded, newest-first
// ring of structured log entries that the admin debug API reads from, fed
// by a slog.Handler wrapper rather than a separate logging call at every
// site (the same delegation approach as the teacher's
// lib/logger/tghandler.go, which wraps a handler to also fan out to
// Telegram).
package logbuf

import (
	"sync"
	"time"

	"botfleet/entity"
)

// Buffer holds at most entity.MaxLogEntries entries, newest first.
type Buffer struct {
	mu      sync.Mutex
	entries []entity.LogEntry
}

func NewBuffer() *Buffer {
	return &Buffer{entries: make([]entity.LogEntry, 0, entity.MaxLogEntries)}
}

// Append inserts a new entry at the front, evicting the oldest if full.
func (b *Buffer) Append(level entity.LogLevel, category entity.LogCategory, message, details string) {
	entry := entity.LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Category:  category,
		Message:   message,
		Details:   details,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entity.LogEntry{})
	copy(b.entries[1:], b.entries[:len(b.entries)-1])
	b.entries[0] = entry
	if len(b.entries) > entity.MaxLogEntries {
		b.entries = b.entries[:entity.MaxLogEntries]
	}
}

// Read returns up to limit entries, newest first, optionally filtered by
// level and/or category. The snapshot is taken under lock so concurrent
// writers cannot produce an inconsistent read.
func (b *Buffer) Read(limit int, level entity.LogLevel, category entity.LogCategory) (matches []entity.LogEntry, total int) {
	b.mu.Lock()
	snapshot := make([]entity.LogEntry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.Unlock()

	for _, e := range snapshot {
		if level != "" && e.Level != level {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		total++
		if limit <= 0 || len(matches) < limit {
			matches = append(matches, e)
		}
	}
	return matches, total
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
