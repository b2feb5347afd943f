package repo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"photofilter/internal/domain"
	"photofilter/internal/infra"
)

// Open builds the job store selected by cfg.StoreDriver. The returned close
// function releases the underlying connections.
func Open(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.JobRepository, func(), error) {
	switch cfg.StoreDriver {
	case infra.StoreMemory, "":
		return NewMemoryJobRepository(), func() {}, nil
	case infra.StorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, infra.Component(logger, "sql"))
		return NewJobRepository(runner), pool.Close, nil
	case infra.StoreSQLite:
		db, err := infra.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteJobRepository(db), func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
