package store

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Query is a fluent row-CRUD request against one table. Filters are equality
// only; that is all the application layer needs.
type Query struct {
	c       *Client
	table   string
	filters url.Values
	single  bool
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, filters: url.Values{}}
}

func (q *Query) Eq(column, value string) *Query {
	q.filters.Add(column, "eq."+value)
	return q
}

// Order sorts by column; ascending=false reverses.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.filters.Set("order", fmt.Sprintf("%s.%s", column, dir))
	return q
}

func (q *Query) Limit(n int) *Query {
	q.filters.Set("limit", fmt.Sprint(n))
	return q
}

// Single makes Select decode exactly one row; zero rows is ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) path() string { return "/rest/v1/" + q.table }

func (q *Query) headers(extra map[string]string) map[string]string {
	h := map[string]string{}
	if q.single {
		h["Accept"] = "application/vnd.pgrst.object+json"
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// Select fetches matching rows into dest (a pointer to slice, or to a struct
// when Single was requested).
func (q *Query) Select(ctx context.Context, dest any) error {
	return q.c.doJSON(ctx, http.MethodGet, q.path(), q.filters, q.headers(nil), nil, dest)
}

// Insert writes row and decodes the created representation into dest when
// dest is non-nil.
func (q *Query) Insert(ctx context.Context, row, dest any) error {
	h := q.headers(map[string]string{"Prefer": "return=representation"})
	if dest == nil {
		h["Prefer"] = "return=minimal"
	}
	return q.c.doJSON(ctx, http.MethodPost, q.path(), q.filters, h, row, dest)
}

// Upsert inserts or merges on conflict.
func (q *Query) Upsert(ctx context.Context, row, dest any) error {
	h := q.headers(map[string]string{"Prefer": "resolution=merge-duplicates,return=representation"})
	if dest == nil {
		h["Prefer"] = "resolution=merge-duplicates,return=minimal"
	}
	return q.c.doJSON(ctx, http.MethodPost, q.path(), q.filters, h, row, dest)
}

// Update patches all rows matching the filters.
func (q *Query) Update(ctx context.Context, patch any) error {
	return q.c.doJSON(ctx, http.MethodPatch, q.path(), q.filters, q.headers(nil), patch, nil)
}

// Delete removes all rows matching the filters.
func (q *Query) Delete(ctx context.Context) error {
	return q.c.doJSON(ctx, http.MethodDelete, q.path(), q.filters, q.headers(nil), nil, nil)
}
