package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

var ctx = context.Background()

func seedProperty(t *testing.T, s *Store, id model.PropertyID) {
	t.Helper()
	require.NoError(t, s.Update(ctx, func(r repository.Registries) error {
		if err := r.Properties().Create(ctx, model.Property{ID: id, Claimer: "alice", TypeID: "deed"}); err != nil {
			return err
		}
		return r.Claims().Append(ctx, "deed", id)
	}))
}

func TestStore_UpdateCommitsAll(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Update(ctx, func(r repository.Registries) error {
		require.NoError(t, r.Accounts().Put(ctx, model.AccountInfo{Principal: "alice", Name: []byte("A"), CreatedAt: 1}))
		require.NoError(t, r.Types().Create(ctx, model.PropertyType{ID: "deed", Authority: "gov", SchemaAddr: "Qm1"}))
		return nil
	}))
	seedProperty(t, s, "p1")

	require.NoError(t, s.View(ctx, func(r repository.Registries) error {
		a, err := r.Accounts().Get(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, []byte("A"), a.Name)
		pt, err := r.Types().Get(ctx, "deed")
		require.NoError(t, err)
		require.Equal(t, model.Principal("gov"), pt.Authority)
		ids, err := r.Claims().List(ctx, "deed")
		require.NoError(t, err)
		require.Equal(t, []model.PropertyID{"p1"}, ids)
		return nil
	}))
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := NewStore()
	seedProperty(t, s, "p1")
	boom := errors.New("boom")

	err := s.Update(ctx, func(r repository.Registries) error {
		props := r.Properties()
		require.NoError(t, props.AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "bob", At: 2}))
		require.NoError(t, props.Supersede(ctx, "p1", []model.PropertyID{"p2", "p3"}))
		require.NoError(t, props.Create(ctx, model.Property{ID: "p2", Claimer: "alice", TypeID: "deed"}))
		require.NoError(t, r.Claims().Append(ctx, "deed", "p2"))
		require.NoError(t, r.Accounts().Put(ctx, model.AccountInfo{Principal: "bob"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(r repository.Registries) error {
		p, err := r.Properties().Get(ctx, "p1")
		require.NoError(t, err)
		require.Empty(t, p.History)
		require.False(t, p.Superseded())
		_, err = r.Properties().Get(ctx, "p2")
		require.ErrorIs(t, err, errs.ErrNotFound)
		ids, _ := r.Claims().List(ctx, "deed")
		require.Equal(t, []model.PropertyID{"p1"}, ids)
		_, err = r.Accounts().Get(ctx, "bob")
		require.ErrorIs(t, err, errs.ErrNotFound)
		return nil
	}))
}

func TestStore_UpdateReadsOwnWrites(t *testing.T) {
	s := NewStore()
	seedProperty(t, s, "p1")

	require.NoError(t, s.Update(ctx, func(r repository.Registries) error {
		props := r.Properties()
		require.NoError(t, props.AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "bob", At: 1}))
		require.NoError(t, props.AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "carol", At: 2}))
		p, err := props.Get(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, p.History, 2)

		require.NoError(t, r.Claims().Append(ctx, "deed", "p2"))
		require.ErrorIs(t, r.Claims().Append(ctx, "deed", "p1"), errs.ErrAlreadyExists)
		require.ErrorIs(t, r.Claims().Append(ctx, "deed", "p2"), errs.ErrAlreadyExists)
		ids, _ := r.Claims().List(ctx, "deed")
		require.Equal(t, []model.PropertyID{"p1", "p2"}, ids)

		require.ErrorIs(t, props.Create(ctx, model.Property{ID: "p1"}), errs.ErrAlreadyExists)
		require.ErrorIs(t, props.SetAssertion(ctx, "missing", model.Assertion{}), errs.ErrNotFound)
		return nil
	}))
}

func TestStore_ViewRejectsWrites(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.View(ctx, func(r repository.Registries) error {
		require.ErrorIs(t, r.Accounts().Put(ctx, model.AccountInfo{Principal: "a"}), errReadOnly)
		require.ErrorIs(t, r.Types().Create(ctx, model.PropertyType{ID: "t"}), errReadOnly)
		require.ErrorIs(t, r.Claims().Append(ctx, "t", "p"), errReadOnly)
		require.ErrorIs(t, r.Properties().Create(ctx, model.Property{ID: "p"}), errReadOnly)
		require.ErrorIs(t, r.Properties().SetAssertion(ctx, "p", model.Assertion{}), errReadOnly)
		ids, err := r.Claims().List(ctx, "t")
		require.NoError(t, err)
		require.NotNil(t, ids)
		require.Empty(t, ids)
		return nil
	}))
}

func TestStore_ReturnedRecordsDoNotAlias(t *testing.T) {
	s := NewStore()
	seedProperty(t, s, "p1")
	require.NoError(t, s.Update(ctx, func(r repository.Registries) error {
		return r.Properties().AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "bob", At: 1})
	}))

	require.NoError(t, s.View(ctx, func(r repository.Registries) error {
		p, err := r.Properties().Get(ctx, "p1")
		require.NoError(t, err)
		p.History[0].Principal = "mallory"
		p2, err := r.Properties().Get(ctx, "p1")
		require.NoError(t, err)
		require.Equal(t, model.Principal("bob"), p2.History[0].Principal)
		return nil
	}))
}

func TestStore_CanceledContext(t *testing.T) {
	s := NewStore()
	c, cancel := context.WithCancel(ctx)
	cancel()
	called := false
	fn := func(repository.Registries) error {
		called = true
		return nil
	}
	require.ErrorIs(t, s.Update(c, fn), context.Canceled)
	require.ErrorIs(t, s.View(c, fn), context.Canceled)
	require.False(t, called)
}

func TestStore_ConcurrentUpdatesSerialize(t *testing.T) {
	s := NewStore()
	seedProperty(t, s, "p1")

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, func(r repository.Registries) error {
				return r.Properties().AppendTransfer(ctx, "p1", model.TransferEntry{Principal: "x", At: model.Timestamp(i)})
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.View(ctx, func(r repository.Registries) error {
		p, err := r.Properties().Get(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, p.History, 50)
		return nil
	}))
}

func TestCredentials(t *testing.T) {
	r := NewCredentials()
	c := &model.Credential{Principal: "p-1", Login: "alice"}
	require.NoError(t, r.Create(ctx, c))
	require.ErrorIs(t, r.Create(ctx, c), errs.ErrAlreadyExists)

	got, err := r.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, model.Principal("p-1"), got.Principal)

	_, err = r.GetByLogin(ctx, "bob")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
