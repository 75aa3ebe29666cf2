package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// PropertyRepo implements PropertyRepository using PostgreSQL. The transfer
// history lives in its own table and is only ever inserted into.
type PropertyRepo struct{ q querier }

const insertHistory = `INSERT INTO transfer_history (property_id, idx, principal, at) VALUES ($1, $2, $3, $4)`

// Create inserts the property row and its initial history.
func (r *PropertyRepo) Create(ctx context.Context, p model.Property) error {
	const q = `
INSERT INTO properties (property_id, claimer, claim_doc_addr, type_id, origin, superseded_by, asserted_at, asserted_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var (
		assertedAt int64
		assertedBy string
	)
	if p.Assertion != nil {
		assertedAt, assertedBy = int64(p.Assertion.At), string(p.Assertion.Attester)
	}
	_, err := r.q.Exec(ctx, q,
		string(p.ID), string(p.Claimer), string(p.ClaimDocAddr), string(p.TypeID),
		string(p.Origin), idStrings(p.SupersededBy), assertedAt, assertedBy,
	)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	for i, e := range p.History {
		if _, err := r.q.Exec(ctx, insertHistory, string(p.ID), int64(i), string(e.Principal), int64(e.At)); err != nil {
			return err
		}
	}
	return nil
}

// Get selects the property row and its ordered history.
func (r *PropertyRepo) Get(ctx context.Context, id model.PropertyID) (*model.Property, error) {
	const q = `
SELECT property_id, claimer, claim_doc_addr, type_id, origin, superseded_by, asserted_at, asserted_by
FROM properties WHERE property_id=$1`
	var (
		pid, claimer, doc, typeID, origin string
		superseded                        []string
		assertedAt                        int64
		assertedBy                        string
	)
	row := r.q.QueryRow(ctx, q, string(id))
	if err := row.Scan(&pid, &claimer, &doc, &typeID, &origin, &superseded, &assertedAt, &assertedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	p := &model.Property{
		ID:           model.PropertyID(pid),
		Claimer:      model.Principal(claimer),
		ClaimDocAddr: model.ContentAddr(doc),
		TypeID:       model.TypeID(typeID),
		Origin:       model.PropertyID(origin),
	}
	for _, s := range superseded {
		p.SupersededBy = append(p.SupersededBy, model.PropertyID(s))
	}
	if assertedBy != "" {
		p.Assertion = &model.Assertion{At: model.Timestamp(assertedAt), Attester: model.Principal(assertedBy)}
	}

	history, err := r.history(ctx, id)
	if err != nil {
		return nil, err
	}
	p.History = history
	return p, nil
}

func (r *PropertyRepo) history(ctx context.Context, id model.PropertyID) ([]model.TransferEntry, error) {
	const q = `SELECT principal, at FROM transfer_history WHERE property_id=$1 ORDER BY idx ASC`
	rows, err := r.q.Query(ctx, q, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TransferEntry
	for rows.Next() {
		var (
			principal string
			at        int64
		)
		if err = rows.Scan(&principal, &at); err != nil {
			return nil, err
		}
		out = append(out, model.TransferEntry{Principal: model.Principal(principal), At: model.Timestamp(at)})
	}
	return out, rows.Err()
}

// AppendTransfer inserts the next history entry; its index is the current entry count.
func (r *PropertyRepo) AppendTransfer(ctx context.Context, id model.PropertyID, e model.TransferEntry) error {
	const q = `
INSERT INTO transfer_history (property_id, idx, principal, at)
SELECT $1, COUNT(*), $2, $3 FROM transfer_history WHERE property_id=$1`
	_, err := r.q.Exec(ctx, q, string(id), string(e.Principal), int64(e.At))
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// Supersede stores the ids that replaced the property.
func (r *PropertyRepo) Supersede(ctx context.Context, id model.PropertyID, by []model.PropertyID) error {
	const q = `UPDATE properties SET superseded_by=$2 WHERE property_id=$1`
	tag, err := r.q.Exec(ctx, q, string(id), idStrings(by))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetAssertion overwrites the attestation columns.
func (r *PropertyRepo) SetAssertion(ctx context.Context, id model.PropertyID, a model.Assertion) error {
	const q = `UPDATE properties SET asserted_at=$2, asserted_by=$3 WHERE property_id=$1`
	tag, err := r.q.Exec(ctx, q, string(id), int64(a.At), string(a.Attester))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func idStrings(ids []model.PropertyID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
