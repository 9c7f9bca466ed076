// Package page defines the contracts shared between page loaders and the
// paged buffer: the cacheable Item, the Page a loader returns, and the Loader
// itself.
package page

import "context"

// Item is a cacheable value. Key must be stable and unique for the lifetime
// of the cache holding the item; it is used for identity, never ordering.
type Item interface {
	Key() string
}

// Page is one server page of items. From and To are absolute 0-based offsets
// of the first and last item when the loader knows them. A nil From means the
// page should be appended after the current window.
type Page[T Item] struct {
	PageIndex int  `json:"page"`
	PageSize  int  `json:"page_size"`
	From      *int `json:"from,omitempty"`
	To        *int `json:"to,omitempty"`
	Total     int  `json:"total"`
	Data      []T  `json:"data"`
}

// IsEmpty reports whether the page carries no items.
func (p *Page[T]) IsEmpty() bool {
	return p == nil || len(p.Data) == 0
}

func (p *Page[T]) First() (T, bool) {
	if p.IsEmpty() {
		var zero T
		return zero, false
	}
	return p.Data[0], true
}

func (p *Page[T]) Last() (T, bool) {
	if p.IsEmpty() {
		var zero T
		return zero, false
	}
	return p.Data[len(p.Data)-1], true
}

// Params is what a Loader receives. PageIndex is 1-based.
type Params struct {
	PageIndex int            `json:"page"`
	PageSize  int            `json:"page_size"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Loader fetches a single page. Implementations must report Total accurately
// and should set From when the returned window is not contiguous with what
// the caller already holds. Errors are propagated to the caller unchanged.
type Loader[T Item] interface {
	Load(ctx context.Context, params Params) (*Page[T], error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc[T Item] func(ctx context.Context, params Params) (*Page[T], error)

func (f LoaderFunc[T]) Load(ctx context.Context, params Params) (*Page[T], error) {
	return f(ctx, params)
}

// Offset returns the absolute 0-based offset of the first item of a page.
func Offset(pageIndex, pageSize int) int {
	return (pageIndex - 1) * pageSize
}
