package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

// registryLockKey is the advisory lock taken by every Update so that mutating
// units run one at a time across all server instances.
const registryLockKey int64 = 0x64656c706869

// readOnlyTx gives View a consistent snapshot across its statements.
var readOnlyTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Store implements repository.Store with one transaction per unit of work.
type Store struct{ db *DB }

var _ repository.Store = (*Store)(nil)

// NewStore constructs a registry store.
func NewStore(db *DB) *Store { return &Store{db: db} }

// View runs fn inside a read-only repeatable-read transaction.
func (s *Store) View(ctx context.Context, fn func(r repository.Registries) error) (err error) {
	tx, err := s.db.Pool.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()
	return fn(&registries{q: tx})
}

// Update runs fn inside a transaction holding the registry lock; any error rolls back.
func (s *Store) Update(ctx context.Context, fn func(r repository.Registries) error) (err error) {
	tx, err := s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registryLockKey); err != nil {
		return err
	}
	return fn(&registries{q: tx})
}

// registries binds the repositories to one querier.
type registries struct{ q querier }

func (r *registries) Accounts() repository.AccountRepository { return &AccountRepo{q: r.q} }
func (r *registries) Types() repository.PropertyTypeRepository { return &TypeRepo{q: r.q} }
func (r *registries) Claims() repository.ClaimIndexRepository { return &ClaimRepo{q: r.q} }
func (r *registries) Properties() repository.PropertyRepository { return &PropertyRepo{q: r.q} }
