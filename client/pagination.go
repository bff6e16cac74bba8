package client

import (
	"context"
	"iter"
	"net/url"
	"strconv"
)

// DefaultPageSize is used when a listing is walked without an explicit size.
const DefaultPageSize = 100

// ListResponse is the envelope of every paged listing endpoint.
type ListResponse[T any] struct {
	TotalRecords *int `json:"TotalRecords,omitempty"`
	Data         []T  `json:"Data"`
}

// Requester is the narrow request surface the pager needs.
type Requester interface {
	Execute(ctx context.Context, path string, opts RequestOptions, out any) error
}

// Pager walks a page-numbered listing endpoint.
type Pager[T any] struct {
	requester Requester
	path      string
	query     url.Values
	pageSize  int
}

// NewPager creates a pager over path. query is copied; its page and pageSize
// parameters are overwritten per request.
func NewPager[T any](r Requester, path string, query url.Values, pageSize int) *Pager[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	for k, v := range query {
		q[k] = append([]string(nil), v...)
	}
	return &Pager[T]{requester: r, path: path, query: q, pageSize: pageSize}
}

// All returns a lazy sequence of every item, fetched one page at a time.
// Each call starts again at page 1. A request error is yielded once and ends
// the sequence.
func (p *Pager[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		page, seen, declared := 1, 0, 0
		for {
			q := url.Values{}
			for k, v := range p.query {
				q[k] = v
			}
			q.Set("page", strconv.Itoa(page))
			q.Set("pageSize", strconv.Itoa(p.pageSize))

			var resp ListResponse[T]
			if err := p.requester.Execute(ctx, p.path, RequestOptions{Query: q}, &resp); err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if page == 1 && resp.TotalRecords != nil {
				declared = *resp.TotalRecords
			}
			if len(resp.Data) == 0 {
				return
			}
			for _, item := range resp.Data {
				if !yield(item, nil) {
					return
				}
				seen++
			}
			if declared > 0 && seen >= declared {
				return
			}
			if len(resp.Data) < p.pageSize {
				return
			}
			page++
		}
	}
}

// Collect drains the pager into a slice in page order.
func (p *Pager[T]) Collect(ctx context.Context) ([]T, error) {
	var items []T
	for item, err := range p.All(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
