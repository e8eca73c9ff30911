// Package dbx provides tiny DB abstractions shared by repositories and
// services: a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// transaction helpers, and a connection wrapper that reports its lifecycle
// state.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sasset/core/internal/common"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Beginner starts transactions. *sql.DB and *sql.Conn satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// TxFunc is the unit of work run inside a transaction.
type TxFunc func(ctx context.Context, tx DBTX) error

// WithTx runs fn inside a transaction started on db. It commits when fn
// succeeds and rolls back when fn fails or panics; panics are rethrown.
// A failed rollback is joined to the error returned by fn.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := assets.Update(ctx, a); err != nil {
//	        return err
//	    }
//	    return revisions.Append(ctx, rev)
//	})
func WithTx(ctx context.Context, db Beginner, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}

// WithTx is the package WithTx on c's pool. It fails with
// common.ErrConnectionDown without starting a transaction when c is not alive.
func (c *Conn) WithTx(ctx context.Context, fn TxFunc) error {
	if !IsAlive(c) {
		return common.ErrConnectionDown
	}
	return WithTx(ctx, c.db, nil, fn)
}
