package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnconfigured is returned by a handle that has no connector, e.g. when
// no primary store credentials are present.
var ErrUnconfigured = fmt.Errorf("primary store not configured: %w", ErrUnavailable)

// Handle yields a ready backend or an error explaining why none is available.
type Handle interface {
	Backend(ctx context.Context) (Backend, error)
}

// Connector establishes a backend connection.
type Connector func(ctx context.Context) (Backend, error)

// Lazy is a Handle that connects on first use. The connection is created at
// most once; a failed attempt is remembered and not retried until the
// cooldown has elapsed. A zero cooldown never retries.
type Lazy struct {
	mu       sync.Mutex
	connect  Connector
	cooldown time.Duration
	now      func() time.Time

	backend Backend
	lastErr error
	failed  time.Time
}

// NewLazy returns a handle around connect. A nil connect yields a handle that
// always reports ErrUnconfigured.
func NewLazy(connect Connector, cooldown time.Duration) *Lazy {
	return &Lazy{connect: connect, cooldown: cooldown, now: time.Now}
}

func (l *Lazy) Backend(ctx context.Context) (Backend, error) {
	if l == nil || l.connect == nil {
		return nil, ErrUnconfigured
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.backend != nil {
		return l.backend, nil
	}
	if l.lastErr != nil && (l.cooldown <= 0 || l.now().Sub(l.failed) < l.cooldown) {
		return nil, l.lastErr
	}

	b, err := l.connect(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("connect primary store: %v: %w", err, ErrUnavailable)
		}
		l.lastErr = err
		l.failed = l.now()
		return nil, err
	}
	l.backend = b
	l.lastErr = nil
	return b, nil
}

// Static is a Handle for an already constructed backend.
type Static struct{ B Backend }

func (s Static) Backend(context.Context) (Backend, error) {
	if s.B == nil {
		return nil, ErrUnconfigured
	}
	return s.B, nil
}
