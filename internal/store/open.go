package store

import (
	"context"
	"fmt"
)

var (
	_ Repository = (*SQLStore)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// Open returns the repository for driver: "postgres", "sqlite" or "memory".
func Open(ctx context.Context, driver, dsn string, migrate bool) (Repository, error) {
	if driver == "memory" {
		return NewMemoryStore(), nil
	}
	st, err := OpenSQL(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return st, nil
}
