// Package repomanager opens the configured store and vends the repositories
// built on top of it.
package repomanager

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/alumnikeeper/internal/server/repositories/users"
	"github.com/go-redis/redis/v8"
)

type RepositoryManager interface {
	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Sessions() sessions.Repository
	Close(ctx context.Context) error
}

// Options selects the backends. DSN scheme picks the account store; a
// non-empty RedisAddr moves sessions to Redis.
type Options struct {
	DSN       string
	RedisAddr string
}

// New opens the store named by opts.DSN.
func New(ctx context.Context, opts Options) (RepositoryManager, error) {
	u, err := url.Parse(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	var m RepositoryManager
	switch u.Scheme {
	case "postgres", "postgresql":
		m, err = OpenPostgres(ctx, opts.DSN)
	case "mongodb", "mongodb+srv":
		m, err = OpenMongo(ctx, opts.DSN)
	case "memory":
		m = NewMemoryRepositoryManager()
	default:
		return nil, fmt.Errorf("unsupported dsn scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	if opts.RedisAddr == "" {
		return m, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		_ = m.Close(ctx)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return WithRedisSessions(m, rdb), nil
}

// redisSessions overrides the session store of an underlying manager.
type redisSessions struct {
	RepositoryManager
	rdb      *redis.Client
	sessions sessions.Repository
}

// WithRedisSessions keeps accounts in m and sessions in rdb. Closing the
// result closes both.
func WithRedisSessions(m RepositoryManager, rdb *redis.Client) RepositoryManager {
	return &redisSessions{RepositoryManager: m, rdb: rdb, sessions: sessions.NewRedisRepository(rdb)}
}

func (m *redisSessions) Sessions() sessions.Repository { return m.sessions }

func (m *redisSessions) Close(ctx context.Context) error {
	rerr := m.rdb.Close()
	if err := m.RepositoryManager.Close(ctx); err != nil {
		return err
	}
	return rerr
}
