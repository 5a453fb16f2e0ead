package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/DaanHessen/rabbithole/internal/util"
	"go.uber.org/zap"
)

// OpenKV opens the backend selected by cfg.StoreDriver.
// Postgres is expected to be migrated already; sqlite migrates itself.
func OpenKV(ctx context.Context, cfg util.Config, logger *zap.Logger) (KV, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case util.DriverSQLite:
		return OpenSQLite(ctx, cfg.StorePath)
	case util.DriverPostgres:
		db, err := Open(ctx, cfg.DSN)
		if err != nil {
			return nil, wrap(err, "open postgres")
		}
		return NewPostgresKV(db), nil
	case util.DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, logger)
	case util.DriverMemory:
		return NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
