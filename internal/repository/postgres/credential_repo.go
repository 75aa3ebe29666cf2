package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

// Create inserts a new credential row.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (principal, login, pwd_hash, salt)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, string(c.Principal), c.Login, c.PwdHash, c.Salt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByLogin selects a credential by login.
func (r *CredentialRepo) GetByLogin(ctx context.Context, login string) (*model.Credential, error) {
	const q = `
SELECT principal, login, pwd_hash, salt, created_at
FROM credentials WHERE login=$1`
	row := r.db.Pool.QueryRow(ctx, q, login)
	var (
		c         model.Credential
		principal string
	)
	if err := row.Scan(&principal, &c.Login, &c.PwdHash, &c.Salt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	c.Principal = model.Principal(principal)
	return &c, nil
}
