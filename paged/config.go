package paged

import (
	"maps"

	"github.com/tailored-agentic-units/pager/cache"
)

const defaultPageSize = 20

// Config holds Buffer initialization parameters.
type Config struct {
	PageSize int            `json:"page_size,omitempty"`
	Observer string         `json:"observer,omitempty"` // Registered observer name; see observability.GetObserver.
	Extra    map[string]any `json:"extra,omitempty"`    // Passed to the loader with every request.
	Cache    cache.Config   `json:"cache"`              // Used only when the buffer creates its own store.
}

// DefaultConfig returns a Config with a page size of 20 and no observer.
func DefaultConfig() Config {
	return Config{
		PageSize: defaultPageSize,
		Observer: "noop",
		Cache:    cache.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c. Extra keys from source
// are added to, and override, those already in c.
func (c *Config) Merge(source *Config) {
	if source.PageSize > 0 {
		c.PageSize = source.PageSize
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if len(source.Extra) > 0 {
		if c.Extra == nil {
			c.Extra = make(map[string]any, len(source.Extra))
		}
		maps.Copy(c.Extra, source.Extra)
	}

	c.Cache.Merge(&source.Cache)
}
