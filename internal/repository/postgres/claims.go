package postgres

import (
	"context"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// ClaimRepo implements ClaimIndexRepository using PostgreSQL.
// Insertion order is kept by the table's serial column.
type ClaimRepo struct{ q querier }

// Append adds a property id to a type's claim list.
func (r *ClaimRepo) Append(ctx context.Context, typeID model.TypeID, id model.PropertyID) error {
	const q = `INSERT INTO claims (type_id, property_id) VALUES ($1, $2)`
	_, err := r.q.Exec(ctx, q, string(typeID), string(id))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// List returns the property ids registered under a type in insertion order.
func (r *ClaimRepo) List(ctx context.Context, typeID model.TypeID) ([]model.PropertyID, error) {
	const q = `SELECT property_id FROM claims WHERE type_id=$1 ORDER BY seq ASC`
	rows, err := r.q.Query(ctx, q, string(typeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PropertyID{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, model.PropertyID(id))
	}
	return out, rows.Err()
}
