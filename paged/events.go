package paged

import "github.com/tailored-agentic-units/pager/observability"

// Buffer event types.
const (
	EventLoadStart    observability.EventType = "paged.load.start"
	EventLoadHit      observability.EventType = "paged.load.hit"
	EventLoadComplete observability.EventType = "paged.load.complete"
	EventLoadError    observability.EventType = "paged.load.error"
	EventStatusChange observability.EventType = "paged.status.change"
)
