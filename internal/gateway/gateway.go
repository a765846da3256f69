// Package gateway is the single persistence entry point used by every
// resource. Operations run against the primary store; when the primary is
// unconfigured, unreachable or fails to execute, the same operation runs
// against the local record store instead. A well-formed empty result from the
// primary is final and never triggers the fallback.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

// Gateway routes store operations to the primary backend with the record
// store as fallback and returns rows normalized against the collection schema.
type Gateway struct {
	primary  store.Handle
	fallback store.Backend
	schemas  map[string]*store.Schema

	now   func() time.Time
	newID func() string
	log   logger.Component

	mu      sync.Mutex
	inserts map[string]*sync.Mutex
}

// New builds a gateway. primary may report store.ErrUnconfigured, in which
// case every operation is served by fallback.
func New(primary store.Handle, fallback store.Backend, schemas ...*store.Schema) *Gateway {
	g := &Gateway{
		primary:  primary,
		fallback: fallback,
		schemas:  make(map[string]*store.Schema, len(schemas)),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		log:      logger.Named("gateway"),
		inserts:  make(map[string]*sync.Mutex),
	}
	for _, s := range schemas {
		g.schemas[s.Collection] = s
	}
	return g
}

func (g *Gateway) schema(collection string) (*store.Schema, error) {
	s, ok := g.schemas[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q: %w", collection, apperr.ErrValidation)
	}
	return s, nil
}

func (g *Gateway) insertLock(collection string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.inserts[collection]
	if !ok {
		l = &sync.Mutex{}
		g.inserts[collection] = l
	}
	return l
}

// Query returns the first row matching every filter entry, or
// store.ErrNotFound.
func (g *Gateway) Query(ctx context.Context, collection string, filter store.Filter) (store.Row, error) {
	rows, err := g.QueryAll(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

// QueryAll returns every matching row. An empty result is not an error.
func (g *Gateway) QueryAll(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error) {
	s, err := g.schema(collection)
	if err != nil {
		return nil, err
	}
	f, err := s.NormalizePartial(filter)
	if err != nil {
		return nil, err
	}
	rows, err := g.run(ctx, collection, "query", func(b store.Backend) ([]store.Row, error) {
		return b.Find(ctx, collection, store.Filter(f))
	})
	if err != nil {
		return nil, err
	}
	return normalizeAll(s, rows)
}

// Insert writes a new row. The gateway assigns the id and audit timestamps.
// A value already used in one of the collection's unique fields fails with an
// *apperr.ConflictError and nothing is written.
func (g *Gateway) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	s, err := g.schema(collection)
	if err != nil {
		return nil, err
	}
	r, err := s.NormalizePartial(row)
	if err != nil {
		return nil, err
	}
	if r.ID() == "" {
		r["id"] = g.newID()
	}
	now := g.now()
	for _, col := range []string{"created_at", "updated_at"} {
		if s.Has(col) && r[col] == nil {
			r[col] = now
		}
	}
	if err := s.CheckRequired(r); err != nil {
		return nil, err
	}

	l := g.insertLock(collection)
	l.Lock()
	defer l.Unlock()

	// The unique check runs on whichever backend takes the write.
	rows, err := g.run(ctx, collection, "insert", func(b store.Backend) ([]store.Row, error) {
		if err := checkUnique(ctx, b, s, r); err != nil {
			return nil, err
		}
		out, err := b.Insert(ctx, collection, r)
		if err != nil {
			return nil, err
		}
		return []store.Row{out}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Normalize(rows[0])
}

// Update applies patch to the row with the given id and refreshes updated_at.
func (g *Gateway) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	s, err := g.schema(collection)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, &apperr.FieldError{Field: "id", Message: "is required"}
	}
	p, err := s.NormalizePartial(patch)
	if err != nil {
		return nil, err
	}
	delete(p, "id")
	delete(p, "created_at")
	if s.Has("updated_at") {
		p["updated_at"] = g.now()
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("%s: empty update: %w", collection, apperr.ErrValidation)
	}

	rows, err := g.run(ctx, collection, "update", func(b store.Backend) ([]store.Row, error) {
		out, err := b.Update(ctx, collection, id, p)
		if err != nil {
			return nil, err
		}
		return []store.Row{out}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.Normalize(rows[0])
}

// SoftDelete marks the row inactive. Rows are never physically removed.
func (g *Gateway) SoftDelete(ctx context.Context, collection, id string) error {
	s, err := g.schema(collection)
	if err != nil {
		return err
	}
	if !s.Has("is_active") {
		return fmt.Errorf("%s does not support soft delete: %w", collection, apperr.ErrValidation)
	}
	_, err = g.Update(ctx, collection, id, store.Row{"is_active": false})
	return err
}

// Status reports the availability of each backend for readiness checks.
func (g *Gateway) Status(ctx context.Context) map[string]string {
	out := map[string]string{"fallback": g.fallback.Name()}
	b, err := g.primary.Backend(ctx)
	switch {
	case errors.Is(err, store.ErrUnconfigured):
		out["primary"] = "unconfigured"
	case err != nil:
		out["primary"] = "unavailable"
	default:
		out["primary"] = b.Name()
	}
	return out
}

func checkUnique(ctx context.Context, b store.Backend, s *store.Schema, r store.Row) error {
	for _, field := range s.Unique {
		v, ok := r[field]
		if !ok || store.FormatValue(v) == "" {
			continue
		}
		existing, err := b.Find(ctx, s.Collection, store.Filter{field: v})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &apperr.ConflictError{Collection: s.Collection, Field: field}
		}
	}
	return nil
}

func normalizeAll(s *store.Schema, rows []store.Row) ([]store.Row, error) {
	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		n, err := s.Normalize(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
