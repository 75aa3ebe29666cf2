package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestAccountRepo_PutGet(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &AccountRepo{q: db.Pool}
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO accounts \(principal, name, created_at\)`).
		WithArgs("alice", []byte("Alice"), int64(7)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Put(ctx, model.AccountInfo{Principal: "alice", Name: []byte("Alice"), CreatedAt: 7}))

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("nameless", []byte{}, int64(8)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Put(ctx, model.AccountInfo{Principal: "nameless", CreatedAt: 8}))

	mock.ExpectQuery(`SELECT principal, name, created_at FROM accounts WHERE principal=\$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"principal", "name", "created_at"}).
			AddRow("alice", []byte("Alice"), int64(7)))
	got, err := r.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, model.AccountInfo{Principal: "alice", Name: []byte("Alice"), CreatedAt: 7}, *got)

	mock.ExpectQuery(`SELECT principal, name, created_at FROM accounts`).
		WithArgs("bob").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, "bob")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTypeRepo_CreateGet(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &TypeRepo{q: db.Pool}
	ctx := context.Background()
	pt := model.PropertyType{ID: "deed", Authority: "gov", SchemaAddr: "Qm123"}

	mock.ExpectExec(`INSERT INTO property_types \(type_id, authority, schema_addr\)`).
		WithArgs("deed", "gov", "Qm123").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, pt))

	mock.ExpectExec(`INSERT INTO property_types`).
		WithArgs("deed", "gov", "Qm123").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, pt), errs.ErrAlreadyExists)

	mock.ExpectQuery(`SELECT type_id, authority, schema_addr FROM property_types WHERE type_id=\$1`).
		WithArgs("deed").
		WillReturnRows(pgxmock.NewRows([]string{"type_id", "authority", "schema_addr"}).
			AddRow("deed", "gov", "Qm123"))
	got, err := r.Get(ctx, "deed")
	require.NoError(t, err)
	require.Equal(t, pt, *got)

	mock.ExpectQuery(`SELECT type_id, authority, schema_addr FROM property_types`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_AppendList(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &ClaimRepo{q: db.Pool}
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO claims \(type_id, property_id\)`).
		WithArgs("deed", "p1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Append(ctx, "deed", "p1"))

	mock.ExpectExec(`INSERT INTO claims`).
		WithArgs("deed", "p1").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Append(ctx, "deed", "p1"), errs.ErrAlreadyExists)

	mock.ExpectQuery(`SELECT property_id FROM claims WHERE type_id=\$1 ORDER BY seq ASC`).
		WithArgs("deed").
		WillReturnRows(pgxmock.NewRows([]string{"property_id"}).AddRow("p1").AddRow("p2"))
	ids, err := r.List(ctx, "deed")
	require.NoError(t, err)
	require.Equal(t, []model.PropertyID{"p1", "p2"}, ids)

	mock.ExpectQuery(`SELECT property_id FROM claims`).
		WithArgs("empty").
		WillReturnRows(pgxmock.NewRows([]string{"property_id"}))
	ids, err = r.List(ctx, "empty")
	require.NoError(t, err)
	require.NotNil(t, ids)
	require.Empty(t, ids)

	mock.ExpectQuery(`SELECT property_id FROM claims`).
		WithArgs("boom").
		WillReturnError(errors.New("db down"))
	_, err = r.List(ctx, "boom")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

var propertyCols = []string{"property_id", "claimer", "claim_doc_addr", "type_id", "origin", "superseded_by", "asserted_at", "asserted_by"}

func TestPropertyRepo_CreateWithHistory(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &PropertyRepo{q: db.Pool}
	ctx := context.Background()
	p := model.Property{
		ID: "p2", Claimer: "bob", ClaimDocAddr: "QmB", TypeID: "deed", Origin: "p1",
		History: []model.TransferEntry{{Principal: "carol", At: 3}, {Principal: "bob", At: 9}},
	}

	mock.ExpectExec(`INSERT INTO properties`).
		WithArgs("p2", "bob", "QmB", "deed", "p1", []string{}, int64(0), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO transfer_history`).
		WithArgs("p2", int64(0), "carol", int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO transfer_history`).
		WithArgs("p2", int64(1), "bob", int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, p))

	mock.ExpectExec(`INSERT INTO properties`).
		WithArgs("p2", "bob", "QmB", "deed", "p1", []string{}, int64(0), "").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, p), errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &PropertyRepo{q: db.Pool}
	ctx := context.Background()

	mock.ExpectQuery(`SELECT property_id, claimer, claim_doc_addr, type_id, origin, superseded_by, asserted_at, asserted_by`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows(propertyCols).
			AddRow("p1", "alice", "QmA", "deed", "", []string{"p1a", "p1b"}, int64(5), "gov"))
	mock.ExpectQuery(`SELECT principal, at FROM transfer_history WHERE property_id=\$1 ORDER BY idx ASC`).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"principal", "at"}).AddRow("bob", int64(6)))
	got, err := r.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, model.Property{
		ID: "p1", Claimer: "alice", ClaimDocAddr: "QmA", TypeID: "deed",
		History:      []model.TransferEntry{{Principal: "bob", At: 6}},
		Assertion:    &model.Assertion{At: 5, Attester: "gov"},
		SupersededBy: []model.PropertyID{"p1a", "p1b"},
	}, *got)
	require.True(t, got.Superseded())

	mock.ExpectQuery(`SELECT property_id, claimer`).
		WithArgs("fresh").
		WillReturnRows(pgxmock.NewRows(propertyCols).
			AddRow("fresh", "alice", "QmF", "deed", "", []string{}, int64(0), ""))
	mock.ExpectQuery(`SELECT principal, at FROM transfer_history`).
		WithArgs("fresh").
		WillReturnRows(pgxmock.NewRows([]string{"principal", "at"}))
	got, err = r.Get(ctx, "fresh")
	require.NoError(t, err)
	require.Nil(t, got.Assertion)
	require.False(t, got.Superseded())
	require.Empty(t, got.History)

	mock.ExpectQuery(`SELECT property_id, claimer`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepo_Mutations(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := &PropertyRepo{q: db.Pool}
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO transfer_history \(property_id, idx, principal, at\)\s+SELECT \$1, COUNT\(\*\), \$2, \$3`).
		WithArgs("p1", "bob", int64(4)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "bob", At: 4}))

	mock.ExpectExec(`INSERT INTO transfer_history`).
		WithArgs("gone", "bob", int64(4)).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	require.ErrorIs(t, r.AppendTransfer(ctx, "gone", model.TransferEntry{Principal: "bob", At: 4}), errs.ErrNotFound)

	mock.ExpectExec(`UPDATE properties SET superseded_by=\$2 WHERE property_id=\$1`).
		WithArgs("p1", []string{"p1a", "p1b"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.Supersede(ctx, "p1", []model.PropertyID{"p1a", "p1b"}))

	mock.ExpectExec(`UPDATE properties SET superseded_by`).
		WithArgs("gone", []string{"x"}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.Supersede(ctx, "gone", []model.PropertyID{"x"}), errs.ErrNotFound)

	mock.ExpectExec(`UPDATE properties SET asserted_at=\$2, asserted_by=\$3 WHERE property_id=\$1`).
		WithArgs("p1", int64(12), "gov").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetAssertion(ctx, "p1", model.Assertion{At: 12, Attester: "gov"}))

	mock.ExpectExec(`UPDATE properties SET asserted_at`).
		WithArgs("gone", int64(12), "gov").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetAssertion(ctx, "gone", model.Assertion{At: 12, Attester: "gov"}), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepo(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCredentialRepo(db)
	ctx := context.Background()
	c := &model.Credential{Principal: "p-1", Login: "alice", PwdHash: []byte("h"), Salt: []byte("s")}

	mock.ExpectExec(`INSERT INTO credentials \(principal, login, pwd_hash, salt\)`).
		WithArgs("p-1", "alice", []byte("h"), []byte("s")).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, c))

	mock.ExpectExec(`INSERT INTO credentials`).
		WithArgs("p-1", "alice", []byte("h"), []byte("s")).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, c), errs.ErrAlreadyExists)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT principal, login, pwd_hash, salt, created_at\s+FROM credentials WHERE login=\$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"principal", "login", "pwd_hash", "salt", "created_at"}).
			AddRow("p-1", "alice", []byte("h"), []byte("s"), created))
	got, err := r.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, model.Principal("p-1"), got.Principal)
	require.Equal(t, created, got.CreatedAt)

	mock.ExpectQuery(`FROM credentials WHERE login`).
		WithArgs("bob").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByLogin(ctx, "bob")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateCommits(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)
	ctx := context.Background()

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(registryLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`INSERT INTO property_types`).
		WithArgs("deed", "gov", "Qm1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.Update(ctx, func(r repository.Registries) error {
		return r.Types().Create(ctx, model.PropertyType{ID: "deed", Authority: "gov", SchemaAddr: "Qm1"})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(registryLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`INSERT INTO claims`).
		WithArgs("deed", "p1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectRollback()

	err := s.Update(ctx, func(r repository.Registries) error {
		if err := r.Claims().Append(ctx, "deed", "p1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateLockFailure(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)

	mock.ExpectBeginTx(pgx.TxOptions{})
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs(registryLockKey).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	called := false
	err := s.Update(context.Background(), func(repository.Registries) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_View(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	s := NewStore(db)
	ctx := context.Background()

	mock.ExpectBeginTx(readOnlyTx)
	mock.ExpectQuery(`SELECT property_id FROM claims`).
		WithArgs("deed").
		WillReturnRows(pgxmock.NewRows([]string{"property_id"}).AddRow("p1"))
	mock.ExpectCommit()

	var ids []model.PropertyID
	err := s.View(ctx, func(r repository.Registries) error {
		var err error
		ids, err = r.Claims().List(ctx, "deed")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, []model.PropertyID{"p1"}, ids)

	mock.ExpectBeginTx(readOnlyTx).WillReturnError(errors.New("no conn"))
	err = s.View(ctx, func(repository.Registries) error { return nil })
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}
