// Package postgres stores the registry and login credentials in PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE codes the repositories translate into sentinels.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// querier runs statements. Both the pool and an open pgx.Tx satisfy it, so the
// same repository code serves standalone calls and units of work.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxPool is what the store needs from a connection pool: *pgxpool.Pool in
// production, pgxmock.PgxPoolIface in tests.
type PgxPool interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Close()
}

// DB owns the pool shared by the registry store, credentials and the login limiter.
type DB struct{ Pool PgxPool }

// New connects to dsn and checks the server is reachable.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() { db.Pool.Close() }

func sqlState(err error) string {
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return sqlState(err) == codeUniqueViolation }

// isForeignKeyViolation reports a write that references a missing parent row.
func isForeignKeyViolation(err error) bool { return sqlState(err) == codeForeignKeyViolation }
