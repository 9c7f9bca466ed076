// Package observability provides event-based observability for the pager
// subsystems. Buffers and loaders emit Events to an Observer; the SlogObserver
// turns them into structured log records. Level values align with
// OpenTelemetry SeverityNumbers so events translate to OTel log records as is.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity. Values follow the OTel SeverityNumber bands,
// four numbers per band.
type Level int

const (
	LevelVerbose Level = 5
	LevelInfo    Level = 9
	LevelWarning Level = 13
	LevelError   Level = 17
)

type band struct {
	upper Level
	text  string
	slog  slog.Level
}

var bands = []band{
	{4, "TRACE", slog.LevelDebug},
	{8, "DEBUG", slog.LevelDebug},
	{12, "INFO", slog.LevelInfo},
	{16, "WARN", slog.LevelWarn},
	{20, "ERROR", slog.LevelError},
}

func (l Level) band() (band, bool) {
	for _, b := range bands {
		if l <= b.upper {
			return b, true
		}
	}
	return band{}, false
}

// String returns the severity text of l's band, FATAL above ERROR.
func (l Level) String() string {
	if b, ok := l.band(); ok {
		return b.text
	}
	return "FATAL"
}

// SlogLevel maps l to a slog.Level. TRACE logs at debug and FATAL at error.
func (l Level) SlogLevel() slog.Level {
	if b, ok := l.band(); ok {
		return b.slog
	}
	return slog.LevelError
}

// EventType identifies the kind of event. Each subsystem declares its own
// constants, namespaced by subsystem ("paged.load.start").
type EventType string

// Event is an observability event. Source names the emitting operation
// ("paged.LoadPage") and Data carries flat attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// NewEvent returns an Event stamped with the current time.
func NewEvent(typ EventType, level Level, source string, data map[string]any) Event {
	return Event{
		Type:      typ,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	}
}

// Observer receives events. OnEvent must not block the emitter for long and
// must not panic.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}
