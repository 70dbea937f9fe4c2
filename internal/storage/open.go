package storage

import (
	"context"
	"fmt"

	"donationfeed/internal/infra"
)

// Open builds the KV backend selected by cfg.CacheBackend. The returned close
// function releases backend resources and is never nil.
func Open(ctx context.Context, cfg *infra.Config, logger infra.Logger) (KV, func(), error) {
	noop := func() {}
	switch cfg.CacheBackend {
	case infra.CacheBackendFile:
		kv, err := NewFileKV(cfg.CachePath)
		if err != nil {
			return nil, noop, err
		}
		return kv, noop, nil
	case infra.CacheBackendPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		runner := infra.NewSQLRunner(pool, logger.With().Str("component", "cache").Logger())
		kv, err := NewPostgresKV(runner, cfg.CacheTable)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		if err := kv.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return kv, pool.Close, nil
	case infra.CacheBackendMemory, "":
		return NewMemoryKV(), noop, nil
	default:
		return nil, noop, fmt.Errorf("storage: unsupported backend %q", cfg.CacheBackend)
	}
}
