package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/habedi/cwactl/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"Id"`
}

// fakeRequester serves pages from a fixed list and records each query.
type fakeRequester struct {
	pages   [][]item
	total   *int
	failAt  int
	err     error
	queries []url.Values
}

func (f *fakeRequester) Execute(ctx context.Context, path string, opts client.RequestOptions, out any) error {
	f.queries = append(f.queries, opts.Query)
	page, _ := strconv.Atoi(opts.Query.Get("page"))
	if f.failAt > 0 && page == f.failAt {
		return f.err
	}
	resp := client.ListResponse[item]{TotalRecords: f.total}
	if page >= 1 && page <= len(f.pages) {
		resp.Data = f.pages[page-1]
	}
	// Round-trip through JSON like the real executor does.
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func intPtr(v int) *int { return &v }

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPager_StopsAtDeclaredTotal(t *testing.T) {
	r := &fakeRequester{
		pages: [][]item{{{1}, {2}}, {{3}}},
		total: intPtr(3),
	}
	got, err := client.NewPager[item](r, "/Computers", nil, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(got))
	require.Len(t, r.queries, 2)
	assert.Equal(t, "1", r.queries[0].Get("page"))
	assert.Equal(t, "2", r.queries[1].Get("page"))
	assert.Equal(t, "2", r.queries[1].Get("pageSize"))
}

func TestPager_FullPageReachingTotalStops(t *testing.T) {
	r := &fakeRequester{
		pages: [][]item{{{1}, {2}}, {{3}, {4}}},
		total: intPtr(2),
	}
	got, err := client.NewPager[item](r, "/Computers", nil, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(got))
	assert.Len(t, r.queries, 1)
}

func TestPager_ShortPageStopsWithoutTotal(t *testing.T) {
	r := &fakeRequester{pages: [][]item{{{1}, {2}}, {{3}}, {{4}}}}
	got, err := client.NewPager[item](r, "/Alerts", nil, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(got))
	assert.Len(t, r.queries, 2)
}

func TestPager_EmptyPageStops(t *testing.T) {
	r := &fakeRequester{pages: [][]item{{{1}, {2}}}}
	got, err := client.NewPager[item](r, "/Alerts", nil, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(got))
	assert.Len(t, r.queries, 2)
}

func TestPager_EmptyFirstPage(t *testing.T) {
	r := &fakeRequester{total: intPtr(0)}
	got, err := client.NewPager[item](r, "/Alerts", nil, 0).Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Len(t, r.queries, 1)
	assert.Equal(t, strconv.Itoa(client.DefaultPageSize), r.queries[0].Get("pageSize"))
}

func TestPager_ErrorIsYieldedOnce(t *testing.T) {
	boom := errors.New("boom")
	r := &fakeRequester{pages: [][]item{{{1}, {2}}, {{3}, {4}}}, failAt: 2, err: boom}

	var got []int
	var errs []error
	for it, err := range client.NewPager[item](r, "/Alerts", nil, 2).All(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		got = append(got, it.ID)
	}
	assert.Equal(t, []int{1, 2}, got)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)

	_, err := client.NewPager[item](r, "/Alerts", nil, 2).Collect(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestPager_BreakStopsFetching(t *testing.T) {
	r := &fakeRequester{pages: [][]item{{{1}, {2}}, {{3}, {4}}, {{5}}}}
	var got []int
	for it, err := range client.NewPager[item](r, "/Alerts", nil, 2).All(context.Background()) {
		require.NoError(t, err)
		got = append(got, it.ID)
		if it.ID == 3 {
			break
		}
	}
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Len(t, r.queries, 2)
}

func TestPager_EachWalkRestarts(t *testing.T) {
	r := &fakeRequester{pages: [][]item{{{1}, {2}}, {{3}}}}
	p := client.NewPager[item](r, "/Alerts", nil, 2)

	first, err := p.Collect(context.Background())
	require.NoError(t, err)
	second, err := p.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ids(first), ids(second))
	require.Len(t, r.queries, 4)
	assert.Equal(t, "1", r.queries[2].Get("page"))
}

func TestPager_CallerQueryIsPreservedAndUntouched(t *testing.T) {
	query := url.Values{"condition": {"Status eq 'Open'"}}
	r := &fakeRequester{pages: [][]item{{{1}, {2}}, {{3}}}}

	_, err := client.NewPager[item](r, "/Alerts", query, 2).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, url.Values{"condition": {"Status eq 'Open'"}}, query)
	for _, q := range r.queries {
		assert.Equal(t, "Status eq 'Open'", q.Get("condition"))
	}
}
