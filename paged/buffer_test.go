package paged_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tailored-agentic-units/pager/cache"
	"github.com/tailored-agentic-units/pager/page"
	"github.com/tailored-agentic-units/pager/paged"
)

type item struct {
	ID  string
	Rev int
}

func (i item) Key() string { return i.ID }

// collection serves fixed-size pages over an in-memory slice and records
// every request it receives.
type collection struct {
	items  []item
	err    error
	noFrom bool
	calls  []page.Params
}

func newCollection(n int) *collection {
	c := &collection{items: make([]item, n)}
	for i := range n {
		c.items[i] = item{ID: fmt.Sprintf("k%d", i)}
	}
	return c
}

func (c *collection) Load(ctx context.Context, params page.Params) (*page.Page[item], error) {
	c.calls = append(c.calls, params)
	if c.err != nil {
		return nil, c.err
	}

	p := &page.Page[item]{
		PageIndex: params.PageIndex,
		PageSize:  params.PageSize,
		Total:     len(c.items),
	}

	from := page.Offset(params.PageIndex, params.PageSize)
	if from >= len(c.items) {
		return p, nil
	}
	to := min(from+params.PageSize, len(c.items))
	p.Data = c.items[from:to]

	if !c.noFrom {
		last := to - 1
		p.From, p.To = &from, &last
	}
	return p, nil
}

func newBuffer(t *testing.T, loader page.Loader[item], opts ...paged.Option) *paged.Buffer[item] {
	t.Helper()
	b, err := paged.New(loader, &paged.Config{PageSize: 10}, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

func keys(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func keyRange(start, end int) []string {
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, fmt.Sprintf("k%d", i))
	}
	return out
}

func mustLoad(t *testing.T, b *paged.Buffer[item], pageIndex int) {
	t.Helper()
	if err := b.LoadPage(context.Background(), pageIndex); err != nil {
		t.Fatalf("LoadPage(%d) error = %v", pageIndex, err)
	}
}

func TestBuffer_InitialState(t *testing.T) {
	b := newBuffer(t, newCollection(5))

	if b.Status() != paged.StatusNoInit {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusNoInit)
	}
	if b.IsInitialized() {
		t.Error("IsInitialized() = true before any load")
	}
	if b.PageSize() != 10 {
		t.Errorf("PageSize() = %d, want 10", b.PageSize())
	}
	if b.Handle() == "" {
		t.Error("Handle() is empty")
	}
	if len(b.Items()) != 0 {
		t.Errorf("Items() = %v, want empty", b.Items())
	}
}

func TestBuffer_FirstPage(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		pageIndex   int
		wantStatus  paged.Status
		wantKeys    []string
		wantCurrent int
		wantTotal   int
	}{
		{
			name:        "page one is consistent",
			size:        25,
			pageIndex:   1,
			wantStatus:  paged.StatusConsistent,
			wantKeys:    keyRange(0, 10),
			wantCurrent: 1,
			wantTotal:   25,
		},
		{
			name:        "later page is unconsistent",
			size:        25,
			pageIndex:   2,
			wantStatus:  paged.StatusUnconsistent,
			wantKeys:    keyRange(10, 20),
			wantCurrent: 2,
			wantTotal:   25,
		},
		{
			name:        "empty collection",
			size:        0,
			pageIndex:   1,
			wantStatus:  paged.StatusEmpty,
			wantKeys:    []string{},
			wantCurrent: 0,
			wantTotal:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuffer(t, newCollection(tt.size))
			mustLoad(t, b, tt.pageIndex)

			if b.Status() != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", b.Status(), tt.wantStatus)
			}
			if diff := cmp.Diff(tt.wantKeys, keys(b.Items())); diff != "" {
				t.Errorf("Items() mismatch (-want +got):\n%s", diff)
			}
			if b.CurrentPage() != tt.wantCurrent {
				t.Errorf("CurrentPage() = %d, want %d", b.CurrentPage(), tt.wantCurrent)
			}
			if b.Total() != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", b.Total(), tt.wantTotal)
			}
			if !b.IsInitialized() {
				t.Error("IsInitialized() = false after a load")
			}
		})
	}
}

func TestBuffer_CacheHitIsIdempotent(t *testing.T) {
	src := newCollection(25)
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	before := keys(b.Items())

	mustLoad(t, b, 1)

	if len(src.calls) != 1 {
		t.Errorf("loader calls = %d, want 1", len(src.calls))
	}
	if b.Status() != paged.StatusConsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
	}
	if diff := cmp.Diff(before, keys(b.Items())); diff != "" {
		t.Errorf("Items() changed on cache hit (-want +got):\n%s", diff)
	}
	if b.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1", b.CurrentPage())
	}
}

func TestBuffer_HitWhenWholeCollectionHeld(t *testing.T) {
	src := newCollection(15)
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	mustLoad(t, b, 2)
	if got := len(b.Items()); got != 15 {
		t.Fatalf("Items() length = %d, want 15", got)
	}

	mustLoad(t, b, 3)

	if len(src.calls) != 2 {
		t.Errorf("loader calls = %d, want 2", len(src.calls))
	}
	if b.Status() != paged.StatusConsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
	}
}

func TestBuffer_FirstEmptyIsTerminal(t *testing.T) {
	src := newCollection(0)
	b := newBuffer(t, src)
	ctx := context.Background()

	mustLoad(t, b, 1)
	if !b.IsEmpty() {
		t.Fatalf("IsEmpty() = false, status %v", b.Status())
	}

	if err := b.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage() error = %v", err)
	}
	if err := b.LoadPrevPage(ctx); err != nil {
		t.Fatalf("LoadPrevPage() error = %v", err)
	}

	if len(src.calls) != 1 {
		t.Errorf("loader calls = %d, want 1", len(src.calls))
	}
	if b.Status() != paged.StatusEmpty {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusEmpty)
	}
}

func TestBuffer_DedupByKey(t *testing.T) {
	pages := map[int][]item{
		1: {{ID: "a", Rev: 1}, {ID: "b", Rev: 1}},
		2: {{ID: "b", Rev: 2}, {ID: "c", Rev: 2}},
	}
	loader := page.LoaderFunc[item](func(ctx context.Context, params page.Params) (*page.Page[item], error) {
		return &page.Page[item]{PageIndex: params.PageIndex, PageSize: 2, Total: 4, Data: pages[params.PageIndex]}, nil
	})

	b := newBuffer(t, loader, paged.WithPageSize(2))
	mustLoad(t, b, 1)

	// A fresh view takes the page verbatim, so the second "b" reaches the store.
	f := b.Fork()
	mustLoad(t, f, 2)

	got, ok := b.Store().Get("b")
	if !ok {
		t.Fatal("Get(b) = false")
	}
	if got.Rev != 1 {
		t.Errorf("Get(b).Rev = %d, want first-seen 1", got.Rev)
	}
	if b.Store().Len() != 3 {
		t.Errorf("Store().Len() = %d, want 3", b.Store().Len())
	}
	if diff := cmp.Diff([]string{"a", "b"}, keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, keys(f.Items())); diff != "" {
		t.Errorf("fork Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_GapDetection(t *testing.T) {
	src := newCollection(30)
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	mustLoad(t, b, 3)

	if b.Status() != paged.StatusUnconsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusUnconsistent)
	}

	view := b.View()
	if view.Len() != 30 {
		t.Fatalf("View().Len() = %d, want 30", view.Len())
	}
	if diff := cmp.Diff([]cache.Range{{Start: 10, End: 20}}, view.Gaps()); diff != "" {
		t.Errorf("Gaps() mismatch (-want +got):\n%s", diff)
	}
	if got, ok := view.At(20); !ok || got.ID != "k20" {
		t.Errorf("At(20) = %+v, %v, want k20", got, ok)
	}
	if b.CurrentPage() != 3 {
		t.Errorf("CurrentPage() = %d, want 3", b.CurrentPage())
	}
}

func TestBuffer_GapFillReconciles(t *testing.T) {
	src := newCollection(30)
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	mustLoad(t, b, 3)
	mustLoad(t, b, 2)

	if b.Status() != paged.StatusConsistent {
		t.Fatalf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
	}
	if diff := cmp.Diff(keyRange(0, 30), keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
	if b.CurrentPage() != 3 {
		t.Errorf("CurrentPage() = %d, want 3", b.CurrentPage())
	}

	// Everything is held now, so further loads are hits.
	calls := len(src.calls)
	mustLoad(t, b, 3)
	if len(src.calls) != calls {
		t.Errorf("loader calls = %d, want %d", len(src.calls), calls)
	}
}

func TestBuffer_ScatteredPages(t *testing.T) {
	src := newCollection(60)
	b := newBuffer(t, src)

	steps := []struct {
		page        int
		wantStatus  paged.Status
		wantCurrent int
		wantLen     int
		wantGaps    []cache.Range
	}{
		{page: 1, wantStatus: paged.StatusConsistent, wantCurrent: 1, wantLen: 10},
		{page: 3, wantStatus: paged.StatusUnconsistent, wantCurrent: 3, wantLen: 30, wantGaps: []cache.Range{{Start: 10, End: 20}}},
		{page: 5, wantStatus: paged.StatusUnconsistent, wantCurrent: 5, wantLen: 50, wantGaps: []cache.Range{{Start: 10, End: 20}, {Start: 30, End: 40}}},
		{page: 2, wantStatus: paged.StatusUnconsistent, wantCurrent: 2, wantLen: 50, wantGaps: []cache.Range{{Start: 30, End: 40}}},
		{page: 4, wantStatus: paged.StatusConsistent, wantCurrent: 5, wantLen: 50},
	}

	for _, step := range steps {
		mustLoad(t, b, step.page)

		if b.Status() != step.wantStatus {
			t.Errorf("page %d: Status() = %v, want %v", step.page, b.Status(), step.wantStatus)
		}
		if b.CurrentPage() != step.wantCurrent {
			t.Errorf("page %d: CurrentPage() = %d, want %d", step.page, b.CurrentPage(), step.wantCurrent)
		}
		view := b.View()
		if view.Len() != step.wantLen {
			t.Errorf("page %d: View().Len() = %d, want %d", step.page, view.Len(), step.wantLen)
		}
		if diff := cmp.Diff(step.wantGaps, view.Gaps()); diff != "" {
			t.Errorf("page %d: Gaps() mismatch (-want +got):\n%s", step.page, diff)
		}
	}

	if diff := cmp.Diff(keyRange(0, 50), keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

// A collection that was empty and has since grown is taken as it arrives:
// the later page becomes the start of the view.
func TestBuffer_LoadAfterEmpty(t *testing.T) {
	src := newCollection(0)
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	if !b.IsEmpty() {
		t.Fatalf("Status() = %v, want %v", b.Status(), paged.StatusEmpty)
	}

	src.items = newCollection(22).items
	mustLoad(t, b, 3)

	if b.Status() != paged.StatusConsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
	}
	if b.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1", b.CurrentPage())
	}
	if b.Total() != 22 {
		t.Errorf("Total() = %d, want 22", b.Total())
	}
	if diff := cmp.Diff([]string{"k20", "k21"}, keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_EmptyResponseAfterDataChangesNothing(t *testing.T) {
	src := newCollection(30)
	b := newBuffer(t, src)

	mustLoad(t, b, 2)
	mustLoad(t, b, 9)

	if b.Status() != paged.StatusUnconsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusUnconsistent)
	}
	if b.CurrentPage() != 2 {
		t.Errorf("CurrentPage() = %d, want 2", b.CurrentPage())
	}
	if b.Total() != 30 {
		t.Errorf("Total() = %d, want 30", b.Total())
	}
	if diff := cmp.Diff(keyRange(10, 20), keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_ForkSharesStore(t *testing.T) {
	src := newCollection(30)
	b := newBuffer(t, src)
	mustLoad(t, b, 1)

	f := b.Fork()

	if f.Handle() == b.Handle() {
		t.Error("Fork() reused the parent handle")
	}
	if f.Status() != paged.StatusNoInit {
		t.Errorf("fork Status() = %v, want %v", f.Status(), paged.StatusNoInit)
	}
	if _, ok := f.Store().Get("k5"); !ok {
		t.Error("fork cannot see k5 loaded by parent")
	}
	if len(f.Items()) != 0 {
		t.Errorf("fork Items() = %v, want empty", keys(f.Items()))
	}

	mustLoad(t, f, 2)

	if diff := cmp.Diff(keyRange(10, 20), keys(f.Items())); diff != "" {
		t.Errorf("fork Items() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(keyRange(0, 10), keys(b.Items())); diff != "" {
		t.Errorf("parent Items() changed by fork (-want +got):\n%s", diff)
	}
	if _, ok := b.Store().Get("k15"); !ok {
		t.Error("parent cannot see k15 loaded by fork")
	}
}

func TestBuffer_OverlapTrimming(t *testing.T) {
	t.Run("shifted page", func(t *testing.T) {
		// The server moved by five items between requests, so page 2 now
		// starts with five keys the view already holds.
		src := newCollection(30)
		loader := page.LoaderFunc[item](func(ctx context.Context, params page.Params) (*page.Page[item], error) {
			p, err := src.Load(ctx, params)
			if err == nil && params.PageIndex == 2 {
				p.Data = src.items[5:15]
			}
			return p, err
		})

		b := newBuffer(t, loader)
		mustLoad(t, b, 1)
		mustLoad(t, b, 2)

		if diff := cmp.Diff(keyRange(0, 15), keys(b.Items())); diff != "" {
			t.Errorf("Items() mismatch (-want +got):\n%s", diff)
		}
		if b.Status() != paged.StatusConsistent {
			t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
		}
	})

	t.Run("wider page", func(t *testing.T) {
		src := newCollection(30)
		b := newBuffer(t, src)
		ctx := context.Background()

		mustLoad(t, b, 1)
		if err := b.LoadPageSize(ctx, 1, 15); err != nil {
			t.Fatalf("LoadPageSize() error = %v", err)
		}

		if diff := cmp.Diff(keyRange(0, 15), keys(b.Items())); diff != "" {
			t.Errorf("Items() mismatch (-want +got):\n%s", diff)
		}
		if len(src.calls) != 2 {
			t.Errorf("loader calls = %d, want 2", len(src.calls))
		}
	})
}

func TestBuffer_LoaderErrorLeavesStateUntouched(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("before first load", func(t *testing.T) {
		src := newCollection(30)
		src.err = errBoom
		b := newBuffer(t, src)

		err := b.LoadPage(context.Background(), 1)
		if !errors.Is(err, errBoom) {
			t.Fatalf("LoadPage() error = %v, want %v", err, errBoom)
		}
		if b.Status() != paged.StatusNoInit {
			t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusNoInit)
		}
	})

	t.Run("while consistent", func(t *testing.T) {
		src := newCollection(30)
		b := newBuffer(t, src)
		mustLoad(t, b, 1)

		src.err = errBoom
		err := b.LoadPage(context.Background(), 2)
		if !errors.Is(err, errBoom) {
			t.Fatalf("LoadPage() error = %v, want %v", err, errBoom)
		}
		if b.Status() != paged.StatusConsistent {
			t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusConsistent)
		}
		if b.CurrentPage() != 1 {
			t.Errorf("CurrentPage() = %d, want 1", b.CurrentPage())
		}
		if got := len(b.Items()); got != 10 {
			t.Errorf("Items() length = %d, want 10", got)
		}
	})
}

func TestBuffer_NextAndPrev(t *testing.T) {
	src := newCollection(30)
	b := newBuffer(t, src)
	ctx := context.Background()

	// Prev before any page is held has nowhere to go.
	if err := b.LoadPrevPage(ctx); err != nil {
		t.Fatalf("LoadPrevPage() error = %v", err)
	}
	if len(src.calls) != 0 {
		t.Errorf("loader calls = %d, want 0", len(src.calls))
	}

	if err := b.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage() error = %v", err)
	}
	if err := b.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage() error = %v", err)
	}

	if b.CurrentPage() != 2 {
		t.Errorf("CurrentPage() = %d, want 2", b.CurrentPage())
	}
	if diff := cmp.Diff(keyRange(0, 20), keys(b.Items())); diff != "" {
		t.Errorf("Items() mismatch (-want +got):\n%s", diff)
	}

	if err := b.LoadPrevPage(ctx); err != nil {
		t.Fatalf("LoadPrevPage() error = %v", err)
	}
	if len(src.calls) != 2 {
		t.Errorf("loader calls = %d, want 2 (page 1 is held)", len(src.calls))
	}
	wantParams := []int{1, 2}
	for i, p := range src.calls {
		if p.PageIndex != wantParams[i] {
			t.Errorf("call %d PageIndex = %d, want %d", i, p.PageIndex, wantParams[i])
		}
	}
}

func TestBuffer_InvalidPage(t *testing.T) {
	src := newCollection(5)
	b := newBuffer(t, src)
	ctx := context.Background()

	tests := []struct {
		name      string
		pageIndex int
		pageSize  int
	}{
		{name: "zero index", pageIndex: 0, pageSize: 10},
		{name: "negative index", pageIndex: -1, pageSize: 10},
		{name: "zero size", pageIndex: 1, pageSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.LoadPageSize(ctx, tt.pageIndex, tt.pageSize)
			if !errors.Is(err, paged.ErrInvalidPage) {
				t.Errorf("LoadPageSize(%d, %d) error = %v, want ErrInvalidPage", tt.pageIndex, tt.pageSize, err)
			}
		})
	}

	if len(src.calls) != 0 {
		t.Errorf("loader calls = %d, want 0", len(src.calls))
	}
}

func TestBuffer_AppendsWithoutOffset(t *testing.T) {
	src := newCollection(30)
	src.noFrom = true
	b := newBuffer(t, src)

	mustLoad(t, b, 1)
	mustLoad(t, b, 3)

	// Without From the page is appended after the window.
	if b.View().Len() != 20 {
		t.Errorf("View().Len() = %d, want 20", b.View().Len())
	}
	if !b.View().Dense() {
		t.Error("View().Dense() = false, want true")
	}
	if b.Status() != paged.StatusUnconsistent {
		t.Errorf("Status() = %v, want %v", b.Status(), paged.StatusUnconsistent)
	}
}

func TestBuffer_ExtraParams(t *testing.T) {
	src := newCollection(5)
	b, err := paged.New[item](src, &paged.Config{
		PageSize: 5,
		Extra:    map[string]any{"q": "needle"},
	}, paged.WithExtra(map[string]any{"sort": "name"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	mustLoad(t, b, 1)

	want := map[string]any{"q": "needle", "sort": "name"}
	if diff := cmp.Diff(want, src.calls[0].Extra); diff != "" {
		t.Errorf("Extra mismatch (-want +got):\n%s", diff)
	}

	f := b.Fork(paged.WithExtra(map[string]any{"q": "other"}))
	mustLoad(t, f, 1)

	want = map[string]any{"q": "other", "sort": "name"}
	if diff := cmp.Diff(want, src.calls[1].Extra); diff != "" {
		t.Errorf("fork Extra mismatch (-want +got):\n%s", diff)
	}
}

func TestBuffer_ForkOptions(t *testing.T) {
	b := newBuffer(t, newCollection(30), paged.WithPageSize(5))

	tests := []struct {
		name     string
		fork     *paged.Buffer[item]
		wantSize int
	}{
		{name: "inherits page size", fork: b.Fork(), wantSize: 5},
		{name: "overrides page size", fork: b.Fork(paged.WithPageSize(7)), wantSize: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.fork.PageSize() != tt.wantSize {
				t.Errorf("PageSize() = %d, want %d", tt.fork.PageSize(), tt.wantSize)
			}
		})
	}

	mustLoad(t, b, 1)
	shared := b.Fork(paged.WithHandle(b.Handle()))
	if diff := cmp.Diff(keys(b.Items()), keys(shared.Items())); diff != "" {
		t.Errorf("WithHandle fork sees a different view (-want +got):\n%s", diff)
	}
}

func TestBuffer_CloseOwnership(t *testing.T) {
	t.Run("owned store closes", func(t *testing.T) {
		b, err := paged.New[item](newCollection(5), nil)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		f := b.Fork()
		f.Close()
		mustLoad(t, b, 1)

		b.Close()
		if err := b.Store().Merge(b.Handle(), nil, nil); !errors.Is(err, cache.ErrClosed) {
			t.Errorf("Merge() after Close error = %v, want ErrClosed", err)
		}
	})

	t.Run("shared store stays open", func(t *testing.T) {
		store := cache.New[item](context.Background(), cache.DefaultConfig())
		defer store.Close()

		b, err := paged.NewWithStore[item](store, newCollection(5), nil)
		if err != nil {
			t.Fatalf("NewWithStore() error = %v", err)
		}
		mustLoad(t, b, 1)
		b.Close()

		if _, ok := store.Get("k0"); !ok {
			t.Error("Get(k0) = false after buffer Close, store should stay open")
		}
	})
}

func TestNew_Errors(t *testing.T) {
	if _, err := paged.New[item](nil, nil); !errors.Is(err, paged.ErrNilLoader) {
		t.Errorf("New(nil) error = %v, want ErrNilLoader", err)
	}

	if _, err := paged.New[item](newCollection(1), &paged.Config{Observer: "missing"}); err == nil {
		t.Error("New() with unknown observer should fail")
	}
}

func TestMetrics(t *testing.T) {
	src := newCollection(30)
	metrics := paged.NewMetrics()
	b := newBuffer(t, src, paged.WithObserver(metrics))

	mustLoad(t, b, 1)
	mustLoad(t, b, 1)

	src.err = errors.New("boom")
	_ = b.LoadPage(context.Background(), 2)

	want := paged.MetricsSnapshot{
		Loads:         2,
		Hits:          1,
		Errors:        1,
		Merged:        10,
		StatusChanges: 1,
	}
	if diff := cmp.Diff(want, metrics.Snapshot()); diff != "" {
		t.Errorf("Snapshot() mismatch (-want +got):\n%s", diff)
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status paged.Status
		want   string
	}{
		{paged.StatusNoInit, "no_init"},
		{paged.StatusInited, "inited"},
		{paged.StatusEmpty, "empty"},
		{paged.StatusConsistent, "consistent"},
		{paged.StatusUnconsistent, "unconsistent"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := paged.DefaultConfig()
	if cfg.PageSize != 20 {
		t.Errorf("DefaultConfig().PageSize = %d, want 20", cfg.PageSize)
	}

	cfg.Merge(&paged.Config{
		PageSize: 50,
		Observer: "slog",
		Extra:    map[string]any{"q": "x"},
	})
	cfg.Merge(&paged.Config{Extra: map[string]any{"sort": "id"}})

	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %q, want slog", cfg.Observer)
	}
	if diff := cmp.Diff(map[string]any{"q": "x", "sort": "id"}, cfg.Extra); diff != "" {
		t.Errorf("Extra mismatch (-want +got):\n%s", diff)
	}
}
