package dbaccess

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/quasarnet/quasard/database"
	"github.com/quasarnet/quasard/database/ldb"
)

const blockCacheSize = 2000

// DatabaseContext represents a context in which all database queries run.
type DatabaseContext struct {
	db         database.Database
	blockCache *lru.Cache
	*noTxContext
}

// New creates a new DatabaseContext with a database at the specified `path`.
func New(path string) (*DatabaseContext, error) {
	db, err := ldb.NewLevelDB(path)
	if err != nil {
		return nil, err
	}

	blockCache, err := lru.New(blockCacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	databaseContext := &DatabaseContext{db: db, blockCache: blockCache}
	databaseContext.noTxContext = &noTxContext{backend: databaseContext}
	return databaseContext, nil
}

// Close closes the DatabaseContext's connection.
func (ctx *DatabaseContext) Close() error {
	return ctx.db.Close()
}
