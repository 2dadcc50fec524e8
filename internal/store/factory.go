package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/goflagship/internal/db"
)

// NewStore creates a store backend by name.
//
// Supported Types:
//   - "memory": in-memory store (data lost on restart, suitable for development/testing)
//   - "postgres": PostgreSQL-backed store (persistent, suitable for production)
//
// For postgres stores, dbDSN must be non-empty; pool creation is lazy and
// does not itself verify connectivity. poolCfg tunes the pool (see
// internal/db.PoolConfig); it is ignored for the memory backend.
func NewStore(ctx context.Context, storeType, dbDSN string, poolCfg mydb.PoolConfig, hooks Hooks) (Store, error) {
	switch storeType {
	case "memory":
		return NewMemoryStore(hooks), nil
	case "postgres":
		if dbDSN == "" {
			return nil, fmt.Errorf("database DSN cannot be empty when using postgres store (set DB_DSN environment variable)")
		}
		pool, err := mydb.NewPool(ctx, dbDSN, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		return NewPostgresStore(pool, hooks), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s (must be 'memory' or 'postgres')", storeType)
	}
}
