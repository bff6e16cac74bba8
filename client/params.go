package client

import (
	"context"
	"net/url"
	"strconv"
)

// ListOptions are the paging and query options shared by every listing.
// Page and PageSize are ignored by the ListAll methods, which walk every
// page with PageSize (or DefaultPageSize) items per request.
type ListOptions struct {
	Page      int
	PageSize  int
	Condition string // server-side filter expression
	Select    string
	OrderBy   string
	Expand    string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	setInt(q, "pageSize", o.PageSize)
	setInt(q, "page", o.Page)
	setString(q, "condition", o.Condition)
	setString(q, "$select", o.Select)
	setString(q, "$orderby", o.OrderBy)
	setString(q, "$expand", o.Expand)
	return q
}

// Bool returns a pointer to v, for optional boolean filters.
func Bool(v bool) *bool { return &v }

func setInt(q url.Values, key string, v int) {
	if v != 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

// withoutPaging drops page and pageSize; the pager sets its own.
func withoutPaging(q url.Values) url.Values {
	q.Del("page")
	q.Del("pageSize")
	return q
}

func list[T any](ctx context.Context, r Requester, path string, q url.Values) (*ListResponse[T], error) {
	var resp ListResponse[T]
	if err := r.Execute(ctx, path, RequestOptions{Query: q}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func listAll[T any](r Requester, path string, q url.Values, pageSize int) *Pager[T] {
	return NewPager[T](r, path, withoutPaging(q), pageSize)
}

// send performs a request and decodes the JSON result into a new T.
func send[T any](ctx context.Context, r Requester, method, path string, body any) (*T, error) {
	var out T
	if err := r.Execute(ctx, path, RequestOptions{Method: method, Body: body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs a request whose response body is ignored.
func do(ctx context.Context, r Requester, method, path string, body any) error {
	return r.Execute(ctx, path, RequestOptions{Method: method, Body: body}, nil)
}

func idPath(prefix string, id int, suffix ...string) string {
	p := prefix + "/" + strconv.Itoa(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
