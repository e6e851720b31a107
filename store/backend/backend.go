// Package backend opens a checkpoint store by name.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smallnest/agentcases/store"
	"github.com/smallnest/agentcases/store/file"
	"github.com/smallnest/agentcases/store/memory"
	"github.com/smallnest/agentcases/store/postgres"
	"github.com/smallnest/agentcases/store/redis"
	"github.com/smallnest/agentcases/store/sqlite"
)

// Options selects and configures a store.
type Options struct {
	Kind     string // memory, file, sqlite, redis or postgres
	Path     string // directory for file, database file for sqlite
	DSN      string // redis address or postgres connection string
	Password string
	Prefix   string
	TTL      time.Duration
}

// Open returns the store and a function releasing its resources.
func Open(ctx context.Context, opts Options) (store.CheckpointStore, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(opts.Kind) {
	case "", "memory":
		return memory.NewMemoryCheckpointStore(), noop, nil
	case "file":
		s, err := file.NewFileCheckpointStore(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: opts.Path})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		s := redis.NewRedisCheckpointStore(redis.RedisOptions{
			Addr:     opts.DSN,
			Password: opts.Password,
			Prefix:   opts.Prefix,
			TTL:      opts.TTL,
		})
		return s, s.Close, nil
	case "postgres":
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{ConnString: opts.DSN})
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown checkpoint store %q", opts.Kind)
}
