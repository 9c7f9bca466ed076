package paged

import (
	"context"
	"sync/atomic"

	"github.com/tailored-agentic-units/pager/observability"
)

type MetricsSnapshot struct {
	Loads         int64 // Loader invocations.
	Hits          int64 // Loads satisfied from the held window.
	Errors        int64 // Loader failures.
	Merged        int64 // Items merged into views.
	StatusChanges int64
}

// Metrics is an Observer that counts buffer events. Attach it with
// WithObserver, alone or inside an observability.MultiObserver.
type Metrics struct {
	loads         atomic.Int64
	hits          atomic.Int64
	errors        atomic.Int64
	merged        atomic.Int64
	statusChanges atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) OnEvent(ctx context.Context, event observability.Event) {
	switch event.Type {
	case EventLoadStart:
		m.loads.Add(1)
	case EventLoadHit:
		m.hits.Add(1)
	case EventLoadError:
		m.errors.Add(1)
	case EventStatusChange:
		m.statusChanges.Add(1)
	case EventLoadComplete:
		if n, ok := event.Data["merged"].(int); ok {
			m.merged.Add(int64(n))
		}
	}
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Loads:         m.loads.Load(),
		Hits:          m.hits.Load(),
		Errors:        m.errors.Load(),
		Merged:        m.merged.Load(),
		StatusChanges: m.statusChanges.Load(),
	}
}
