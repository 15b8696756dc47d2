// Package ledger persists rate limit timestamp ledgers. Each purpose owns one
// ledger, a JSON array of epoch milliseconds.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/FACorreiaa/kanso/internal/pkg/config"
)

// Store loads and saves ledgers by purpose.
type Store interface {
	Load(ctx context.Context, purpose string) ([]int64, error)
	Save(ctx context.Context, purpose string, timestamps []int64) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// Open returns the store selected by cfg.Driver. The postgres driver reuses
// pool, the others open their own connection.
func Open(ctx context.Context, cfg config.LedgerConfig, pool Pool, logger *zap.Logger) (Store, error) {
	logger = logger.With(zap.String("ledger_driver", cfg.Driver))
	switch cfg.Driver {
	case "postgres":
		if pool == nil {
			return nil, errors.New("postgres ledger requires a database pool")
		}
		logger.Info("Using postgres rate limit ledger")
		return NewPostgresStore(pool, logger), nil
	case "sqlite":
		logger.Info("Using sqlite rate limit ledger", zap.String("path", cfg.SQLitePath))
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case "redis":
		logger.Info("Using redis rate limit ledger")
		return OpenRedis(ctx, cfg.RedisURL, cfg.KeyPrefix, logger)
	case "memory":
		logger.Info("Using in-memory rate limit ledger, quota resets on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}
}

func encode(timestamps []int64) ([]byte, error) {
	if timestamps == nil {
		timestamps = []int64{}
	}
	data, err := json.Marshal(timestamps)
	if err != nil {
		return nil, errors.Wrap(err, "encode ledger")
	}
	return data, nil
}

// decode tolerates corrupt data by returning an error the limiter logs and
// recovers from with an empty ledger.
func decode(data []byte) ([]int64, error) {
	if len(data) == 0 {
		return []int64{}, nil
	}
	var timestamps []int64
	if err := json.Unmarshal(data, &timestamps); err != nil {
		return nil, errors.Wrap(err, "decode ledger")
	}
	if timestamps == nil {
		timestamps = []int64{}
	}
	return timestamps, nil
}
