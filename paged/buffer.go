// Package paged presents a large, server-paginated collection as a locally
// held, deduplicated, windowed view.
//
// A Buffer asks its Loader for pages only when the requested window is not
// already held, merges each response into a cache.Store at the right
// absolute position, and tracks whether the resulting view is a dense run
// from the start of the collection (Consistent) or has gaps (Unconsistent).
// Several buffers can share one store through Fork, so a second window over
// the same collection reuses items the first one already fetched.
//
//	buf, err := paged.New(loader, &cfg)
//	err = buf.LoadPage(ctx, 1)
//	err = buf.LoadNextPage(ctx)
//	items := buf.Items()
//
// A Buffer is not safe for concurrent use: merge decisions are computed from
// the state read when LoadPage is called, so callers must serialise loads on
// one buffer. The shared store itself is safe for concurrent use.
package paged

import (
	"context"
	"fmt"
	"maps"

	"github.com/tailored-agentic-units/pager/cache"
	"github.com/tailored-agentic-units/pager/observability"
	"github.com/tailored-agentic-units/pager/page"
)

// Buffer is one window over a paginated collection.
type Buffer[T page.Item] struct {
	loader    page.Loader[T]
	store     *cache.Store[T]
	ownsStore bool
	handle    cache.Handle
	extra     map[string]any
	observer  observability.Observer

	status      Status
	currentPage int
	pageSize    int
	total       int
}

// New creates a Buffer with its own store. The store is released by Close.
func New[T page.Item](loader page.Loader[T], cfg *Config, opts ...Option) (*Buffer[T], error) {
	c := resolveConfig(cfg)
	store := cache.New[T](context.Background(), c.Cache)

	b, err := newBuffer(store, loader, &c, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	b.ownsStore = true

	return b, nil
}

// NewWithStore creates a Buffer over a store owned by the caller, letting
// independently constructed buffers share fetched items.
func NewWithStore[T page.Item](store *cache.Store[T], loader page.Loader[T], cfg *Config, opts ...Option) (*Buffer[T], error) {
	c := resolveConfig(cfg)
	return newBuffer(store, loader, &c, opts...)
}

func resolveConfig(cfg *Config) Config {
	c := DefaultConfig()
	if cfg != nil {
		c.Merge(cfg)
	}
	return c
}

func newBuffer[T page.Item](store *cache.Store[T], loader page.Loader[T], cfg *Config, opts ...Option) (*Buffer[T], error) {
	if loader == nil {
		return nil, ErrNilLoader
	}

	observer, err := observability.Resolve(cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}

	o := options{
		observer: observer,
		pageSize: cfg.PageSize,
		extra:    maps.Clone(cfg.Extra),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.handle == "" {
		o.handle = cache.NewHandle()
	}

	return &Buffer[T]{
		loader:   loader,
		store:    store,
		handle:   o.handle,
		extra:    o.extra,
		observer: o.observer,
		pageSize: o.pageSize,
	}, nil
}

// Fork creates a Buffer that shares this buffer's loader, extra parameters,
// observer and store, but has its own view, status, current page and total.
// The fork inherits the page size; opts may override any of these.
func (b *Buffer[T]) Fork(opts ...Option) *Buffer[T] {
	o := options{
		observer: b.observer,
		pageSize: b.pageSize,
		extra:    maps.Clone(b.extra),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.handle == "" {
		o.handle = cache.NewHandle()
	}

	return &Buffer[T]{
		loader:   b.loader,
		store:    b.store,
		handle:   o.handle,
		extra:    o.extra,
		observer: o.observer,
		pageSize: o.pageSize,
	}
}

// Close releases the store when this buffer created it. Buffers built with
// NewWithStore, and forks, leave the shared store open.
func (b *Buffer[T]) Close() {
	if b.ownsStore {
		b.store.Close()
	}
}

func (b *Buffer[T]) IsEmpty() bool {
	return b.status == StatusEmpty
}

func (b *Buffer[T]) IsInitialized() bool {
	return b.status != StatusNoInit
}

func (b *Buffer[T]) IsConsistent() bool {
	return b.status == StatusConsistent
}

func (b *Buffer[T]) Status() Status {
	return b.status
}

// Total returns the collection size from the most recent successful load.
// It is meaningful only once the buffer is initialized.
func (b *Buffer[T]) Total() int {
	return b.total
}

func (b *Buffer[T]) CurrentPage() int {
	return b.currentPage
}

func (b *Buffer[T]) PageSize() int {
	return b.pageSize
}

func (b *Buffer[T]) Handle() cache.Handle {
	return b.handle
}

func (b *Buffer[T]) Store() *cache.Store[T] {
	return b.store
}

// View returns a snapshot of the buffer's view, gaps included.
func (b *Buffer[T]) View() cache.View[T] {
	return b.store.View(b.handle)
}

// Items returns the populated items of the view in order.
func (b *Buffer[T]) Items() []T {
	return b.View().Items()
}

// LoadPage ensures page pageIndex (1-based) of the configured size is held.
func (b *Buffer[T]) LoadPage(ctx context.Context, pageIndex int) error {
	return b.LoadPageSize(ctx, pageIndex, b.pageSize)
}

// LoadPageSize ensures page pageIndex of pageSize items is held, calling the
// loader only when the window is not already satisfied. A loader error is
// returned unchanged and leaves the buffer untouched.
func (b *Buffer[T]) LoadPageSize(ctx context.Context, pageIndex, pageSize int) error {
	if pageIndex < 1 || pageSize < 1 {
		return fmt.Errorf("%w: page %d, size %d", ErrInvalidPage, pageIndex, pageSize)
	}

	if b.status == StatusConsistent {
		return b.extend(ctx, pageIndex, pageSize)
	}
	return b.reload(ctx, pageIndex, pageSize)
}

// LoadNextPage loads the page after the current one. No-op when empty.
func (b *Buffer[T]) LoadNextPage(ctx context.Context) error {
	if b.IsEmpty() {
		return nil
	}
	return b.LoadPage(ctx, b.currentPage+1)
}

// LoadPrevPage loads the page before the current one. No-op when empty or
// already at the first page.
func (b *Buffer[T]) LoadPrevPage(ctx context.Context) error {
	if b.IsEmpty() || b.currentPage <= 1 {
		return nil
	}
	return b.LoadPage(ctx, b.currentPage-1)
}

// extend handles a load while the view is a dense run from offset 0.
func (b *Buffer[T]) extend(ctx context.Context, pageIndex, pageSize int) error {
	view := b.View()
	length := view.Len()
	delta := length - pageIndex*pageSize

	if delta >= 0 || length == b.total {
		b.emit(ctx, EventLoadHit, observability.LevelVerbose, map[string]any{
			"page":  pageIndex,
			"held":  length,
			"total": b.total,
		})
		return nil
	}

	p, err := b.load(ctx, pageIndex, pageSize)
	if err != nil {
		return err
	}

	items := p.Data
	status := StatusConsistent
	var from *int

	switch sum := delta + pageSize; {
	case sum > 0:
		// The page overlaps the tail already held; keep only what is new.
		if sum < len(items) {
			items = items[sum:]
		} else {
			items = nil
		}
	case sum == 0:
	default:
		status = StatusUnconsistent
		from = p.From
	}

	if from == nil {
		items = trimOverlap(view, items)
	}

	if err := b.store.Merge(b.handle, items, from); err != nil {
		return err
	}

	b.total = p.Total
	b.currentPage = pageIndex
	b.setStatus(ctx, status)
	b.complete(ctx, pageIndex, len(items))

	return nil
}

// reload handles a load in every status other than Consistent. The loader is
// always called.
func (b *Buffer[T]) reload(ctx context.Context, pageIndex, pageSize int) error {
	p, err := b.load(ctx, pageIndex, pageSize)
	if err != nil {
		return err
	}

	status := b.status
	if status == StatusNoInit {
		status = StatusInited
	}

	switch {
	case p.IsEmpty():
		if status == StatusInited {
			status = StatusEmpty
			b.currentPage = 0
			b.total = 0
		}
		b.setStatus(ctx, status)
		b.complete(ctx, pageIndex, 0)
		return nil

	case status == StatusInited:
		if err := b.store.Merge(b.handle, p.Data, nil); err != nil {
			return err
		}
		if pageIndex == 1 {
			status = StatusConsistent
		} else {
			status = StatusUnconsistent
		}
		b.currentPage = pageIndex

	default:
		if err := b.store.Merge(b.handle, p.Data, p.From); err != nil {
			return err
		}
		view := b.View()
		if view.Dense() {
			status = StatusConsistent
			b.currentPage = pagesHeld(view.Len(), pageSize)
		} else {
			status = StatusUnconsistent
			b.currentPage = pageIndex
		}
	}

	b.total = p.Total
	b.setStatus(ctx, status)
	b.complete(ctx, pageIndex, len(p.Data))

	return nil
}

func (b *Buffer[T]) load(ctx context.Context, pageIndex, pageSize int) (*page.Page[T], error) {
	params := page.Params{
		PageIndex: pageIndex,
		PageSize:  pageSize,
		Extra:     maps.Clone(b.extra),
	}

	b.emit(ctx, EventLoadStart, observability.LevelVerbose, map[string]any{
		"page":      pageIndex,
		"page_size": pageSize,
		"status":    b.status.String(),
	})

	p, err := b.loader.Load(ctx, params)
	if err != nil {
		b.emit(ctx, EventLoadError, observability.LevelWarning, map[string]any{
			"page":  pageIndex,
			"error": err.Error(),
		})
		return nil, err
	}

	if p == nil {
		p = &page.Page[T]{PageIndex: pageIndex, PageSize: pageSize}
	}
	return p, nil
}

func (b *Buffer[T]) setStatus(ctx context.Context, status Status) {
	if status == b.status {
		return
	}

	b.emit(ctx, EventStatusChange, observability.LevelInfo, map[string]any{
		"from": b.status.String(),
		"to":   status.String(),
	})
	b.status = status
}

func (b *Buffer[T]) complete(ctx context.Context, pageIndex, merged int) {
	b.emit(ctx, EventLoadComplete, observability.LevelVerbose, map[string]any{
		"page":         pageIndex,
		"merged":       merged,
		"total":        b.total,
		"current_page": b.currentPage,
		"status":       b.status.String(),
	})
}

func (b *Buffer[T]) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	data["handle"] = b.handle.String()
	b.observer.OnEvent(ctx, observability.NewEvent(typ, level, "paged.Buffer", data))
}

// trimOverlap drops the leading run of items whose keys the view already
// holds, so a page that shifted on the server does not repeat the tail.
func trimOverlap[T page.Item](view cache.View[T], items []T) []T {
	if len(items) == 0 {
		return items
	}

	held := make(map[string]struct{}, view.Len())
	for _, item := range view.Items() {
		held[item.Key()] = struct{}{}
	}

	i := 0
	for i < len(items) {
		if _, ok := held[items[i].Key()]; !ok {
			break
		}
		i++
	}
	return items[i:]
}

// pagesHeld returns how many pages of size pageSize cover n items.
func pagesHeld(n, pageSize int) int {
	return (n + pageSize - 1) / pageSize
}
