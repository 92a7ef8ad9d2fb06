package chunkbatch

import (
	"context"
	"database/sql"
)

// TransactionManager used by chunk step to write each chunk in a transaction.
type TransactionManager interface {
	BeginTx(ctx context.Context) (tx interface{}, err BatchError)
	Commit(tx interface{}) BatchError
	Rollback(tx interface{}) BatchError
}

// DefaultTxManager TransactionManager over a *sql.DB, the tx handed to writers is a *sql.Tx
type DefaultTxManager struct {
	db *sql.DB
}

// NewTransactionManager create a TransactionManager instance
func NewTransactionManager(db *sql.DB) *DefaultTxManager {
	if db == nil {
		panic("db must not be nil")
	}
	return &DefaultTxManager{
		db: db,
	}
}

// BeginTx begin a transaction
func (tm *DefaultTxManager) BeginTx(ctx context.Context) (interface{}, BatchError) {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "start transaction failed", err)
	}
	return tx, nil
}

// Commit commit a transaction
func (tm *DefaultTxManager) Commit(tx interface{}) BatchError {
	sqlTx, ok := tx.(*sql.Tx)
	if !ok {
		return NewBatchError(ErrCodeDbFail, "not a *sql.Tx: %T", tx)
	}
	if err := sqlTx.Commit(); err != nil {
		return NewBatchError(ErrCodeDbFail, "transaction commit failed", err)
	}
	return nil
}

// Rollback rollback a transaction
func (tm *DefaultTxManager) Rollback(tx interface{}) BatchError {
	sqlTx, ok := tx.(*sql.Tx)
	if !ok {
		return NewBatchError(ErrCodeDbFail, "not a *sql.Tx: %T", tx)
	}
	if err := sqlTx.Rollback(); err != nil {
		return NewBatchError(ErrCodeDbFail, "transaction rollback failed", err)
	}
	return nil
}

// nopTxManager used by chunk steps when no transaction manager is configured
type nopTxManager struct {
}

func (tm *nopTxManager) BeginTx(ctx context.Context) (interface{}, BatchError) {
	return nil, nil
}

func (tm *nopTxManager) Commit(tx interface{}) BatchError {
	return nil
}

func (tm *nopTxManager) Rollback(tx interface{}) BatchError {
	return nil
}
