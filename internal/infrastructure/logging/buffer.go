package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Entry is one buffered log record.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// ring holds the most recent entries. It is shared by every handler
// derived from one Buffer.
type ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func (r *ring) add(e Entry) {
	r.mu.Lock()
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

func (r *ring) snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Entry(nil), r.entries[:r.next]...)
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	return append(out, r.entries[:r.next]...)
}

// Buffer is a slog.Handler keeping the most recent records in memory.
// It also serves them as JSON over HTTP.
type Buffer struct {
	ring   *ring
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewBuffer creates a buffer holding up to size records at or above level.
func NewBuffer(size int, level slog.Leveler) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{ring: &ring{entries: make([]Entry, size)}, level: level}
}

// Enabled implements slog.Handler.
func (b *Buffer) Enabled(_ context.Context, level slog.Level) bool {
	return level >= b.level.Level()
}

// Handle implements slog.Handler.
func (b *Buffer) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(b.attrs)+r.NumAttrs())
	for _, a := range b.attrs {
		addAttr(attrs, "", a)
	}
	prefix := groupPrefix(b.groups)
	r.Attrs(func(a slog.Attr) bool {
		addAttr(attrs, prefix, a)
		return true
	})

	b.ring.add(Entry{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs implements slog.Handler.
func (b *Buffer) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *b
	prefix := groupPrefix(b.groups)
	out.attrs = append([]slog.Attr(nil), b.attrs...)
	for _, a := range attrs {
		out.attrs = append(out.attrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return &out
}

// WithGroup implements slog.Handler.
func (b *Buffer) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	out := *b
	out.groups = append(append([]string(nil), b.groups...), name)
	return &out
}

func groupPrefix(groups []string) string {
	prefix := ""
	for _, g := range groups {
		prefix += g + "."
	}
	return prefix
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, ga := range v.Group() {
			addAttr(dst, prefix+a.Key+".", ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	if err, ok := v.Any().(error); ok {
		dst[prefix+a.Key] = err.Error()
		return
	}
	dst[prefix+a.Key] = v.Any()
}

// Entries returns the buffered records, oldest first.
func (b *Buffer) Entries() []Entry {
	return b.ring.snapshot()
}

// ServeHTTP writes the buffered records as a JSON array, oldest first.
// Query parameters: level (minimum level name) and limit (newest N).
func (b *Buffer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries := b.Entries()

	if name := r.URL.Query().Get("level"); name != "" {
		minLevel := ParseLevel(name)
		filtered := entries[:0]
		for _, e := range entries {
			var lvl slog.Level
			if lvl.UnmarshalText([]byte(e.Level)) == nil && lvl >= minLevel {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // Response already committed
		"entries": entries,
		"count":   len(entries),
	})
}
