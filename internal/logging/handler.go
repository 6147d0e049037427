// Package logging provides a slog handler that forwards WARN and above to
// the database-backed events table for auditing.
package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/thecoachmanuel/presentmax/internal/model"
	"github.com/thecoachmanuel/presentmax/internal/store"
)

// EventRecorder persists event log entries.
type EventRecorder interface {
	CreateEvent(ctx context.Context, arg store.CreateEventParams) error
}

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its threshold to the events table.
type EventLogHandler struct {
	inner  slog.Handler
	events EventRecorder
	level  slog.Level
}

// NewEventLogHandler wraps inner so that WARN and above also land in the
// events table.
func NewEventLogHandler(inner slog.Handler, events EventRecorder) *EventLogHandler {
	return &EventLogHandler{
		inner:  inner,
		events: events,
		level:  slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.record(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), events: h.events, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), events: h.events, level: h.level}
}

// record writes a log record to the events table. A background context is
// used so the event survives request cancellation; insert failures are
// dropped, the record already reached the inner handler.
func (h *EventLogHandler) record(r slog.Record) {
	_ = h.events.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  eventCategory(r),
		Message:   r.Message,
		Metadata:  metadataJSON(r),
		CreatedAt: r.Time,
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// eventCategory uses an explicit "category" attribute when present and
// otherwise infers one from the message.
func eventCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "sign-in"), strings.Contains(msg, "sign-up"),
		strings.Contains(msg, "auth"), strings.Contains(msg, "credentials"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "session"), strings.Contains(msg, "token"):
		return model.EventCategorySession
	case strings.Contains(msg, "image"), strings.Contains(msg, "generation"), strings.Contains(msg, "upload"):
		return model.EventCategoryImage
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	default:
		return model.EventCategorySystem
	}
}

// metadataJSON collects the record attributes into a flat JSON object.
func metadataJSON(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})
	sb.WriteString("}")
	return sb.String()
}

func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
