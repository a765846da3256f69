package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/carelink/carelink/backend/go-services/internal/config"
	"github.com/carelink/carelink/backend/go-services/internal/models"
	"github.com/carelink/carelink/backend/go-services/internal/store"
	"github.com/carelink/carelink/backend/go-services/internal/store/mongostore"
	"github.com/carelink/carelink/backend/go-services/internal/store/postgres"
	"github.com/carelink/carelink/backend/go-services/internal/store/postgrest"
	"github.com/carelink/carelink/backend/go-services/pkg/logger"
)

// Primary builds the configured primary backend on demand and owns the
// connections it opens.
type Primary struct {
	cfg config.StoreConfig
	log logger.Component

	mu      sync.Mutex
	closers []func(context.Context) error
}

func NewPrimary(cfg config.StoreConfig) *Primary {
	return &Primary{cfg: cfg, log: logger.Named("primary")}
}

// Connector returns the store.Connector for the configured driver, or nil
// when no primary store is configured.
func (p *Primary) Connector() store.Connector {
	switch p.cfg.Driver {
	case config.DriverSupabase:
		return p.supabase
	case config.DriverPostgres:
		return p.postgres
	case config.DriverMongo:
		return p.mongo
	default:
		return nil
	}
}

func (p *Primary) supabase(ctx context.Context) (store.Backend, error) {
	c, err := postgrest.New(postgrest.Config{
		URL:     p.cfg.SupabaseURL,
		APIKey:  p.cfg.SupabaseKey,
		Timeout: p.cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx, models.CollectionUsers); err != nil {
		return nil, fmt.Errorf("supabase ping: %w", err)
	}
	p.log.Infof("connected to supabase at %s", p.cfg.SupabaseURL)
	return c, nil
}

func (p *Primary) postgres(ctx context.Context) (store.Backend, error) {
	db, err := OpenPostgres(ctx, p.cfg.DatabaseURL, p.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	p.onClose(func(context.Context) error { return db.Close() })
	p.log.Infof("connected to postgres")
	return postgres.New(db, models.Schemas()...), nil
}

func (p *Primary) mongo(ctx context.Context) (store.Backend, error) {
	db, disconnect, err := ConnectMongo(ctx, p.cfg.MongoURI, p.cfg.MongoDatabase, p.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	s := mongostore.New(db)
	var collections []string
	for _, sc := range models.Schemas() {
		collections = append(collections, sc.Collection)
	}
	if err := s.EnsureIndexes(ctx, collections...); err != nil {
		p.log.Warnf("mongo indexes: %v", err)
	}
	p.onClose(disconnect)
	p.log.Infof("connected to mongo database %s", p.cfg.MongoDatabase)
	return s, nil
}

func (p *Primary) onClose(fn func(context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closers = append(p.closers, fn)
}

// Close releases every connection opened by the connector.
func (p *Primary) Close(ctx context.Context) error {
	p.mu.Lock()
	closers := p.closers
	p.closers = nil
	p.mu.Unlock()

	var first error
	for _, fn := range closers {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
