package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// AccountRepo implements AccountRepository using PostgreSQL.
type AccountRepo struct{ q querier }

// Put upserts the account row; re-registration overwrites name and creation time.
func (r *AccountRepo) Put(ctx context.Context, info model.AccountInfo) error {
	const q = `
INSERT INTO accounts (principal, name, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (principal)
DO UPDATE SET name=EXCLUDED.name, created_at=EXCLUDED.created_at`
	name := info.Name
	if name == nil {
		name = []byte{}
	}
	_, err := r.q.Exec(ctx, q, string(info.Principal), name, int64(info.CreatedAt))
	return err
}

// Get selects an account by principal.
func (r *AccountRepo) Get(ctx context.Context, p model.Principal) (*model.AccountInfo, error) {
	const q = `SELECT principal, name, created_at FROM accounts WHERE principal=$1`
	var (
		principal string
		name      []byte
		createdAt int64
	)
	if err := r.q.QueryRow(ctx, q, string(p)).Scan(&principal, &name, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &model.AccountInfo{
		Principal: model.Principal(principal),
		Name:      name,
		CreatedAt: model.Timestamp(createdAt),
	}, nil
}
