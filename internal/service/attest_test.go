package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/event"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

func TestSignDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, rec := newRegistry(t)
	landWithClaim(t, s)

	err := s.SignDocument(ctx, bob, "p1", "land-ng", 150)
	require.ErrorIs(t, err, errs.ErrUnauthorizedAccount)
	a, _, err := s.AttestationStatus(ctx, "p1")
	require.NoError(t, err)
	require.Nil(t, a)

	require.NoError(t, s.SignDocument(ctx, authority, "p1", "land-ng", 150))
	a, h, err := s.AttestationStatus(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, &model.Assertion{At: 150, Attester: authority}, a)
	require.Empty(t, h)

	// re-signing overwrites
	require.NoError(t, s.SignDocument(ctx, authority, "p1", "land-ng", 175))
	a, _, _ = s.AttestationStatus(ctx, "p1")
	require.Equal(t, model.Timestamp(175), a.At)

	// a rejected signer leaves the previous assertion in place
	require.ErrorIs(t, s.SignDocument(ctx, bob, "p1", "land-ng", 190), errs.ErrUnauthorizedAccount)
	a, _, _ = s.AttestationStatus(ctx, "p1")
	require.Equal(t, &model.Assertion{At: 175, Attester: authority}, a)

	require.Equal(t, event.PropertyDocumentSigned{Attester: authority, PropertyID: "p1"}, rec.events[2])
	require.Len(t, rec.events, 4)
}

func TestSignDocumentRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := newRegistry(t)
	landWithClaim(t, s)
	require.NoError(t, s.RegisterPropertyType(ctx, bob, "land-gh", "Qm789"))
	require.NoError(t, s.RegisterClaim(ctx, carol, model.Claim{TypeID: "land-gh", PropertyID: "g1", ClaimDocAddr: "QmG"}))

	require.ErrorIs(t, s.SignDocument(ctx, authority, "p1", "unknown", 1), errs.ErrUnauthorizedAccount)
	require.ErrorIs(t, s.SignDocument(ctx, authority, "nope", "land-ng", 1), errs.ErrNotFound)
	// authority of land-ng cannot sign a land-gh property by naming its own type
	require.ErrorIs(t, s.SignDocument(ctx, authority, "g1", "land-ng", 1), errs.ErrTypeMismatch)
	require.ErrorIs(t, s.SignDocument(ctx, authority, "g1", "land-gh", 1), errs.ErrUnauthorizedAccount)
	require.NoError(t, s.SignDocument(ctx, bob, "g1", "land-gh", 1))

	require.NoError(t, s.TransferProperty(ctx, authority, transferP1(bob, 2)))
	require.ErrorIs(t, s.SignDocument(ctx, authority, "p1", "land-ng", 3), errs.ErrSuperseded)
	require.NoError(t, s.SignDocument(ctx, authority, "p1-r", "land-ng", 3))

	_, h, _ := s.AttestationStatus(ctx, "p1-r")
	require.Equal(t, []model.TransferEntry{{Principal: bob, At: 2}}, h)
}
