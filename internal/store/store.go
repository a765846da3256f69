// Package store defines the record shape shared by every persistence backend
// (the flat-file RecordStore and the hosted primary stores) and the contract
// they implement.
package store

import (
	"context"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
)

var (
	ErrNotFound    = apperr.ErrNotFound
	ErrConflict    = apperr.ErrConflict
	ErrUnavailable = apperr.ErrUnavailable
)

// Row is one record: column name to value. After normalization values are
// string, bool, int64, float64, time.Time, []string or nil.
type Row map[string]any

// ID returns the opaque record id ("" when unset).
func (r Row) ID() string {
	id, _ := r["id"].(string)
	return id
}

// Clone returns a shallow copy; list values are copied too.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		if l, ok := v.([]string); ok {
			v = append([]string(nil), l...)
		}
		out[k] = v
	}
	return out
}

// Filter is an exact-match equality filter; all entries must match.
type Filter map[string]any

// Backend is implemented by the RecordStore and by each primary store client.
//
// Find returns an empty slice (not an error) when nothing matches. Update
// returns ErrNotFound when no record has the id. Any other error is a
// backend-level failure.
type Backend interface {
	Name() string
	Find(ctx context.Context, collection string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, collection string, row Row) (Row, error)
	Update(ctx context.Context, collection, id string, patch Row) (Row, error)
}
