package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// TypeRepo implements PropertyTypeRepository using PostgreSQL.
type TypeRepo struct{ q querier }

// Create inserts a property type row.
func (r *TypeRepo) Create(ctx context.Context, t model.PropertyType) error {
	const q = `INSERT INTO property_types (type_id, authority, schema_addr) VALUES ($1, $2, $3)`
	_, err := r.q.Exec(ctx, q, string(t.ID), string(t.Authority), string(t.SchemaAddr))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Get selects a property type by id.
func (r *TypeRepo) Get(ctx context.Context, id model.TypeID) (*model.PropertyType, error) {
	const q = `SELECT type_id, authority, schema_addr FROM property_types WHERE type_id=$1`
	var typeID, authority, schema string
	if err := r.q.QueryRow(ctx, q, string(id)).Scan(&typeID, &authority, &schema); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &model.PropertyType{
		ID:         model.TypeID(typeID),
		Authority:  model.Principal(authority),
		SchemaAddr: model.ContentAddr(schema),
	}, nil
}
