// Package pager composes a page loader, a record schema and a set of paged
// buffers over one shared store.
//
// The pager initializes from configuration via New: the source section picks
// and configures the transport, the schema decodes every item into a
// model.Record, and the buffer section configures the root buffer. Forks
// share the root's store, so a record fetched through one window is visible
// to all of them. Functional options allow test overrides.
//
//	p, err := pager.New(&cfg)
//	defer p.Close()
//	err = p.Buffer().LoadPage(ctx, 1)
//	second := p.Fork()
package pager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/natefinch/atomic"

	"github.com/tailored-agentic-units/pager/cache"
	"github.com/tailored-agentic-units/pager/model"
	"github.com/tailored-agentic-units/pager/observability"
	"github.com/tailored-agentic-units/pager/page"
	"github.com/tailored-agentic-units/pager/paged"
	"github.com/tailored-agentic-units/pager/transport/connectloader"
	"github.com/tailored-agentic-units/pager/transport/httploader"
)

var (
	ErrUnknownSource = errors.New("unknown source kind")
	ErrNoBuffer      = errors.New("no such buffer")
)

type options struct {
	loader     page.Loader[model.Record]
	observer   observability.Observer
	httpClient *http.Client
}

// Option configures a Pager after config-driven initialization.
type Option func(*options)

// WithLoader overrides the config-created loader.
func WithLoader(l page.Loader[model.Record]) Option {
	return func(o *options) { o.loader = l }
}

// WithObserver overrides the observer named in the buffer config.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger logs buffer events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.observer = observability.NewSlogObserver(logger) }
}

// WithHTTPClient sets the client used by config-created loaders.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// Pager owns a store and the buffers laid over it. One buffer is active at a
// time. A Pager is not safe for concurrent use.
type Pager struct {
	store   *cache.Store[model.Record]
	buffers []*paged.Buffer[model.Record]
	active  int
	metrics *paged.Metrics
}

// New creates a Pager with one root buffer.
func New(cfg *Config, opts ...Option) (*Pager, error) {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}

	if err := c.Schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.observer == nil {
		obs, err := observability.Resolve(c.Buffer.Observer)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve observer: %w", err)
		}
		o.observer = obs
	}

	if o.loader == nil {
		l, err := NewLoader(&c, o.httpClient)
		if err != nil {
			return nil, err
		}
		o.loader = l
	}

	metrics := paged.NewMetrics()
	store := cache.New[model.Record](context.Background(), c.Buffer.Cache)

	root, err := paged.NewWithStore(store, o.loader, &c.Buffer,
		paged.WithObserver(observability.NewMultiObserver(o.observer, metrics)),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}

	return &Pager{
		store:   store,
		buffers: []*paged.Buffer[model.Record]{root},
		metrics: metrics,
	}, nil
}

// NewLoader builds the loader for cfg's source kind, decoding items with
// cfg's schema. A nil client uses the loader's default.
func NewLoader(cfg *Config, client *http.Client) (page.Loader[model.Record], error) {
	schema := cfg.Schema

	switch cfg.Source.Kind {
	case SourceHTTP, "":
		var opts []httploader.Option
		if client != nil {
			opts = append(opts, httploader.WithHTTPClient(client))
		}
		l, err := httploader.New(&cfg.Source.HTTP, httploader.RecordDecoder(&schema), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create http loader: %w", err)
		}
		return l, nil

	case SourceConnect:
		var opts []connectloader.Option
		if client != nil {
			opts = append(opts, connectloader.WithHTTPClient(client))
		}
		l, err := connectloader.New(&cfg.Source.Connect, connectloader.RecordDecoder(&schema), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create connect loader: %w", err)
		}
		return l, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source.Kind)
	}
}

// Buffer returns the active buffer.
func (p *Pager) Buffer() *paged.Buffer[model.Record] {
	return p.buffers[p.active]
}

// Active returns the index of the active buffer.
func (p *Pager) Active() int {
	return p.active
}

// Buffers returns every buffer in creation order, the root first.
func (p *Pager) Buffers() []*paged.Buffer[model.Record] {
	return append([]*paged.Buffer[model.Record](nil), p.buffers...)
}

// Fork creates a buffer over the shared store from the active one, makes it
// active and returns its index.
func (p *Pager) Fork(opts ...paged.Option) int {
	p.buffers = append(p.buffers, p.Buffer().Fork(opts...))
	p.active = len(p.buffers) - 1
	return p.active
}

// Use makes buffer i active.
func (p *Pager) Use(i int) error {
	if i < 0 || i >= len(p.buffers) {
		return fmt.Errorf("%w: %d", ErrNoBuffer, i)
	}
	p.active = i
	return nil
}

// Get looks a record up in the shared store.
func (p *Pager) Get(key string) (model.Record, bool) {
	return p.store.Get(key)
}

// Metrics returns event counts across all buffers.
func (p *Pager) Metrics() paged.MetricsSnapshot {
	return p.metrics.Snapshot()
}

// Export writes the active buffer's records to filename as a JSON array,
// replacing the file atomically.
func (p *Pager) Export(filename string) error {
	data, err := json.MarshalIndent(p.Buffer().Items(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Close releases the shared store. Buffers must not be used afterwards.
func (p *Pager) Close() {
	p.store.Close()
}
