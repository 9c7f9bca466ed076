package httploader

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

const (
	defaultPageParam    = "page"
	defaultPerPageParam = "per_page"
	defaultTimeout      = 30 * time.Second
)

// Duration is a time.Duration that reads from JSON either as a Go duration
// string ("5s") or as a number of nanoseconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// Config describes the paginated endpoint.
type Config struct {
	URL          string            `json:"url"`
	PageParam    string            `json:"page_param,omitempty"`
	PerPageParam string            `json:"per_page_param,omitempty"`
	Timeout      Duration          `json:"timeout,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	Breaker      *BreakerConfig    `json:"breaker,omitempty"` // Nil disables the circuit breaker.
}

// BreakerConfig configures a circuit breaker around page requests. The
// breaker opens once at least MinRequests were made in the current interval
// and the failure ratio reaches FailureRatio; while open, loads fail fast
// until Timeout has passed.
type BreakerConfig struct {
	MaxRequests  uint32   `json:"max_requests,omitempty"`
	Interval     Duration `json:"interval,omitempty"`
	Timeout      Duration `json:"timeout,omitempty"`
	MinRequests  uint32   `json:"min_requests,omitempty"`
	FailureRatio float64  `json:"failure_ratio,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		PageParam:    defaultPageParam,
		PerPageParam: defaultPerPageParam,
		Timeout:      Duration(defaultTimeout),
	}
}

// DefaultBreakerConfig trips after three requests with a 60% failure ratio.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     Duration(5 * time.Second),
		Timeout:      Duration(3 * time.Second),
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Merge applies non-zero values from source into c. Headers from source are
// added to, and override, those already in c.
func (c *Config) Merge(source *Config) {
	if source.URL != "" {
		c.URL = source.URL
	}

	if source.PageParam != "" {
		c.PageParam = source.PageParam
	}

	if source.PerPageParam != "" {
		c.PerPageParam = source.PerPageParam
	}

	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}

	if len(source.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(source.Headers))
		}
		maps.Copy(c.Headers, source.Headers)
	}

	if source.Breaker != nil {
		b := DefaultBreakerConfig()
		if c.Breaker != nil {
			b = *c.Breaker
		}
		b.Merge(source.Breaker)
		c.Breaker = &b
	}
}

func (c *BreakerConfig) Merge(source *BreakerConfig) {
	if source.MaxRequests > 0 {
		c.MaxRequests = source.MaxRequests
	}

	if source.Interval > 0 {
		c.Interval = source.Interval
	}

	if source.Timeout > 0 {
		c.Timeout = source.Timeout
	}

	if source.MinRequests > 0 {
		c.MinRequests = source.MinRequests
	}

	if source.FailureRatio > 0 {
		c.FailureRatio = source.FailureRatio
	}
}
