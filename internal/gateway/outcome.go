package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/pkg/metrics"
)

type outcomeKind int

const (
	found outcomeKind = iota
	notFound
	conflict
	unavailable
	backendError
)

func (k outcomeKind) String() string {
	switch k {
	case found:
		return "ok"
	case notFound:
		return "not_found"
	case conflict:
		return "conflict"
	case unavailable:
		return "unavailable"
	default:
		return "error"
	}
}

// outcome is the tagged result of one backend attempt.
type outcome struct {
	kind outcomeKind
	rows []store.Row
	err  error
}

// final reports whether the outcome ends the operation without fallback.
func (o outcome) final() bool {
	return o.kind == found || o.kind == notFound || o.kind == conflict
}

func classify(rows []store.Row, err error) outcome {
	switch {
	case err == nil:
		return outcome{kind: found, rows: rows}
	case errors.Is(err, store.ErrNotFound):
		return outcome{kind: notFound, err: err}
	case errors.Is(err, store.ErrConflict):
		return outcome{kind: conflict, err: err}
	case errors.Is(err, store.ErrUnavailable):
		return outcome{kind: unavailable, err: err}
	default:
		return outcome{kind: backendError, err: err}
	}
}

func attempt(ctx context.Context, b store.Backend, op string, fn func(store.Backend) ([]store.Row, error)) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{kind: unavailable, err: err}
	}
	o := classify(fn(b))
	metrics.BackendOps.WithLabelValues(b.Name(), op, o.kind.String()).Inc()
	return o
}

// run executes fn against the primary and, if the primary could not execute
// it, against the fallback.
func (g *Gateway) run(ctx context.Context, collection, op string, fn func(store.Backend) ([]store.Row, error)) ([]store.Row, error) {
	var primary outcome
	b, err := g.primary.Backend(ctx)
	if err != nil {
		primary = outcome{kind: unavailable, err: err}
	} else {
		primary = attempt(ctx, b, op, fn)
	}
	if primary.final() {
		return primary.rows, primary.err
	}

	metrics.GatewayFallbacks.WithLabelValues(collection, op).Inc()
	if errors.Is(primary.err, store.ErrUnconfigured) {
		g.log.Debugf("%s %s: no primary store, using %s", op, collection, g.fallback.Name())
	} else {
		g.log.Warnf("%s %s: primary %s: %v; using %s", op, collection, primary.kind, primary.err, g.fallback.Name())
	}

	fb := attempt(ctx, g.fallback, op, fn)
	if fb.final() {
		return fb.rows, fb.err
	}
	g.log.Errorf("%s %s: fallback failed: %v", op, collection, fb.err)
	return nil, fmt.Errorf("%s %s: primary: %v; %s: %v: %w",
		op, collection, primary.err, g.fallback.Name(), fb.err, store.ErrUnavailable)
}
