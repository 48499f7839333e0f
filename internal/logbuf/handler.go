package logbuf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"botfleet/entity"
)

// categoryKey is the slog attribute key components set (via Category) to
// route a record into the right LogEntry.Category bucket.
const categoryKey = "category"

// Category builds the slog attribute a component attaches to every log
// call so the buffer can classify it, e.g. log.With(logbuf.Category(entity.CategoryBot)).
func Category(c entity.LogCategory) slog.Attr {
	return slog.String(categoryKey, string(c))
}

// Handler wraps a delegate slog.Handler: every record is first handled by
// the delegate (the real sink — stdout text or a JSON log file), then
// translated into an entity.LogEntry and appended to the Buffer. Modeled on
// the teacher's lib/logger/tghandler.go, which wraps a handler the same way
// to additionally fan out to Telegram.
type Handler struct {
	delegate slog.Handler
	buf      *Buffer
	mu       sync.Mutex
	attrs    []slog.Attr
	group    string
}

func NewHandler(delegate slog.Handler, buf *Buffer) *Handler {
	return &Handler{delegate: delegate, buf: buf}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.delegate.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.delegate.Handle(ctx, record); err != nil {
		return err
	}

	category := entity.CategoryServer
	var details bytes.Buffer

	writeAttr := func(a slog.Attr) {
		if a.Key == categoryKey {
			category = entity.LogCategory(a.Value.String())
			return
		}
		if details.Len() > 0 {
			details.WriteString(" ")
		}
		fmt.Fprintf(&details, "%s=%v", a.Key, a.Value.Any())
	}

	h.mu.Lock()
	for _, a := range h.attrs {
		writeAttr(a)
	}
	h.mu.Unlock()

	record.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	h.buf.Append(levelFor(record.Level), category, record.Message, details.String())
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.mu.Lock()
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	h.mu.Unlock()

	return &Handler{
		delegate: h.delegate.WithAttrs(attrs),
		buf:      h.buf,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &Handler{
		delegate: h.delegate.WithGroup(name),
		buf:      h.buf,
		attrs:    h.attrs,
		group:    group,
	}
}

// levelFor maps slog's level scale onto the four-level scheme spec.md §3
// requires. There is no slog equivalent of SUCCESS; callers that want it
// use AppendSuccess directly instead of going through slog.
func levelFor(level slog.Level) entity.LogLevel {
	switch {
	case level >= slog.LevelError:
		return entity.LevelError
	case level >= slog.LevelWarn:
		return entity.LevelWarning
	default:
		return entity.LevelInfo
	}
}

// AppendSuccess records a SUCCESS-level entry directly, bypassing slog,
// for the cases spec.md calls out as success rather than plain info
// (e.g. a bot starting cleanly).
func AppendSuccess(buf *Buffer, category entity.LogCategory, message, details string) {
	buf.Append(entity.LevelSuccess, category, message, details)
}
