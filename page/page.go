// Package page iterates cursor-paginated listings. A listing is consumed
// through a Pager, which fetches one page at a time and exposes items in
// scanner style.
package page

import (
	"context"

	"github.com/tencent-go/restbind/errx"
)

// CursorKey is the query parameter carrying the page cursor.
const CursorKey = "cursor"

// Source is one page of results: the items plus the cursor marker for the
// next page. An empty cursor ends the listing.
type Source[M any] interface {
	PageItems() []M
	PageCursor() string
}

// Fetch retrieves one page. The empty cursor requests the first page.
type Fetch[M any] func(ctx context.Context, cursor string) (Source[M], errx.Error)

// Pager walks a listing page by page:
//
//	pager := group.Pages(ctx)
//	for pager.Next() {
//	    handle(pager.Item())
//	}
//	if err := pager.Err(); err != nil { ... }
//
// Each page is fetched exactly once, items become available before the next
// fetch, and the cursor only moves forward. A Pager is single-use and not
// safe for concurrent iteration.
type Pager[M any] struct {
	ctx    context.Context
	fetch  Fetch[M]
	items  []M
	index  int
	cursor string
	pages  int
	done   bool
	err    errx.Error
}

func NewPager[M any](ctx context.Context, fetch Fetch[M]) *Pager[M] {
	return &Pager[M]{ctx: ctx, fetch: fetch, index: -1}
}

// Next advances to the next item, fetching the next page when the current
// one is exhausted. It returns false at the end of the listing or on the
// first error; Err tells the two apart.
func (p *Pager[M]) Next() bool {
	if p.err != nil {
		return false
	}
	if p.index+1 < len(p.items) {
		p.index++
		return true
	}
	for {
		if p.done {
			return false
		}
		if !p.fetchPage() {
			return false
		}
		if len(p.items) > 0 {
			p.index = 0
			return true
		}
	}
}

func (p *Pager[M]) fetchPage() bool {
	src, err := p.fetch(p.ctx, p.cursor)
	if err != nil {
		p.err = err
		p.done = true
		return false
	}
	requested := p.cursor
	p.items = src.PageItems()
	p.index = -1
	p.cursor = src.PageCursor()
	p.pages++
	// A cursor that stands still would request the same page forever.
	if p.cursor == "" || p.cursor == requested {
		p.done = true
	}
	return true
}

// Item returns the current item. It is only valid after a Next that
// returned true.
func (p *Pager[M]) Item() M {
	if p.index < 0 || p.index >= len(p.items) {
		panic("page: Item called without a successful Next")
	}
	return p.items[p.index]
}

func (p *Pager[M]) Err() errx.Error {
	return p.err
}

// Pages reports how many fetches have run so far.
func (p *Pager[M]) Pages() int {
	return p.pages
}

// Collect drains the remaining items into a slice.
func (p *Pager[M]) Collect() ([]M, errx.Error) {
	var out []M
	for p.Next() {
		out = append(out, p.Item())
	}
	return out, p.Err()
}

// Result is the stock list envelope for cursor-paginated endpoints. APIs
// with a different wire shape implement Source on their own list model.
type Result[M any] struct {
	Items  []M    `json:"items"`
	Cursor string `json:"cursor,omitempty"`
	Total  int64  `json:"total,omitempty"`
}

func (r Result[M]) PageItems() []M {
	return r.Items
}

func (r Result[M]) PageCursor() string {
	return r.Cursor
}
