package dbaccess

import (
	"github.com/quasarnet/quasard/database"
)

// Context is an interface type representing the context in which queries run,
// currently relating to the existence or non-existence of a database
// transaction.
// Call `.NoTx()` or `.NewTx()` to acquire a Context.
type Context interface {
	accessor() (database.DataAccessor, error)
	cache() *DatabaseContext
}

type noTxContext struct {
	backend *DatabaseContext
}

func (ctx *noTxContext) accessor() (database.DataAccessor, error) {
	return ctx.backend.db, nil
}

func (ctx *noTxContext) cache() *DatabaseContext {
	return ctx.backend
}

// NoTx returns this DatabaseContext as a Context without an attached
// database transaction.
func (ctx *DatabaseContext) NoTx() Context {
	return ctx.noTxContext
}

// TxContext represents a database context with an attached database
// transaction.
type TxContext struct {
	backend       *DatabaseContext
	dbTransaction database.Transaction
}

func (ctx *TxContext) accessor() (database.DataAccessor, error) {
	return ctx.dbTransaction, nil
}

func (ctx *TxContext) cache() *DatabaseContext {
	return ctx.backend
}

// Commit commits the transaction attached to this TxContext.
func (ctx *TxContext) Commit() error {
	return ctx.dbTransaction.Commit()
}

// Rollback rolls-back the transaction attached to this TxContext.
func (ctx *TxContext) Rollback() error {
	return ctx.dbTransaction.Rollback()
}

// RollbackUnlessClosed rolls-back the transaction attached to this TxContext,
// unless the transaction had already been closed using either Rollback or
// Commit.
func (ctx *TxContext) RollbackUnlessClosed() error {
	return ctx.dbTransaction.RollbackUnlessClosed()
}

// NewTx returns an instance of TxContext with a new database transaction.
func (ctx *DatabaseContext) NewTx() (*TxContext, error) {
	dbTransaction, err := ctx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &TxContext{backend: ctx, dbTransaction: dbTransaction}, nil
}
