package paged

import (
	"maps"

	"github.com/tailored-agentic-units/pager/cache"
	"github.com/tailored-agentic-units/pager/observability"
)

type options struct {
	handle   cache.Handle
	observer observability.Observer
	pageSize int
	extra    map[string]any
}

// Option configures a Buffer after config-driven initialization. Options
// passed to Fork override what the fork inherits from its parent.
type Option func(*options)

// WithHandle binds the buffer to an existing view handle instead of a fresh one.
func WithHandle(h cache.Handle) Option {
	return func(o *options) { o.handle = h }
}

// WithObserver overrides the observer named in Config.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithPageSize overrides the configured page size.
func WithPageSize(size int) Option {
	return func(o *options) { o.pageSize = size }
}

// WithExtra adds extra loader parameters, overriding keys with the same name.
func WithExtra(extra map[string]any) Option {
	return func(o *options) {
		if o.extra == nil {
			o.extra = make(map[string]any, len(extra))
		}
		maps.Copy(o.extra, extra)
	}
}
