package db

import (
	"context"
	"strings"

	"github.com/markdave123-py/docscope/internal/config"
	"github.com/markdave123-py/docscope/internal/core"
	"github.com/markdave123-py/docscope/internal/core/database/memdb"
)

// MemoryURL selects the in-memory store instead of Postgres.
const MemoryURL = "memory://"

// Open returns the DbClient selected by DATABASE_URL.
func Open(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if strings.HasPrefix(cfg.DatabaseURL, MemoryURL) {
		return memdb.New(), nil
	}
	return NewDatabaseClient(ctx, cfg)
}
