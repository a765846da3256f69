// Package care implements the patient, bed and notification resources on top
// of the persistence gateway.
package care

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// DefaultLimit is the page size when the caller asks for none.
const DefaultLimit = 100

// Store is the gateway surface the resources need.
type Store interface {
	Query(ctx context.Context, collection string, filter store.Filter) (store.Row, error)
	QueryAll(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error)
	Insert(ctx context.Context, collection string, row store.Row) (store.Row, error)
	Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error)
	SoftDelete(ctx context.Context, collection, id string) error
}

// Page selects a window of a sorted listing.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(n int) (lo, hi int) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	lo = p.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi = lo + limit
	if hi > n {
		hi = n
	}
	return lo, hi
}

// List is one page of results plus the number of matches before paging.
type List[T any] struct {
	Data  []*T `json:"data"`
	Total int  `json:"total"`
	Count int  `json:"count"`
}

func decodeRow[T any](row store.Row) (*T, error) {
	var v T
	if err := models.FromRow(row, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func decodeRows[T any](rows []store.Row) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, r := range rows {
		v, err := decodeRow[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// patchFrom turns an input struct with camelCase json tags and omitempty
// pointer fields into a column patch.
func patchFrom(v any) (store.Row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	patch := make(store.Row, len(raw))
	for k, val := range raw {
		patch[snakeCase(k)] = val
	}
	return patch, nil
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
