package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/event"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

// TransferProperty retires the original property and reissues it as two
// records: one kept by the sender and one owned by the recipient. The
// original's history gains exactly one entry (recipient, at); both new records
// start from that history and point back at the original.
//
// Checks run in order: the property exists, is not superseded, the caller is
// the claimer, the recipient is not the caller, the new ids are fresh,
// and both document addresses are valid.
func (s *RegistryServiceImpl) TransferProperty(ctx context.Context, caller model.Principal, t model.Transfer) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("TransferProperty", err)
	}
	if t.PropertyID == "" || t.Recipient == "" {
		return s.reject("TransferProperty", fmt.Errorf("%w: empty property id or recipient", errs.ErrInvalidArgument))
	}
	return s.update(ctx, "TransferProperty", func(r repository.Registries) (event.Event, error) {
		props := r.Properties()
		orig, err := props.Get(ctx, t.PropertyID)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", t.PropertyID, err)
		}
		if orig.Superseded() {
			return nil, fmt.Errorf("property %q: %w", t.PropertyID, errs.ErrSuperseded)
		}
		if caller != orig.Claimer {
			return nil, fmt.Errorf("property %q: %w", t.PropertyID, errs.ErrNotOwner)
		}
		if t.Recipient == caller {
			return nil, errs.ErrCannotTransferToSelf
		}
		if err := s.checkNewIDs(ctx, props, t); err != nil {
			return nil, err
		}
		senderAddr, err := s.validate(string(t.SenderClaimDocAddr))
		if err != nil {
			return nil, err
		}
		recipientAddr, err := s.validate(string(t.RecipientClaimDocAddr))
		if err != nil {
			return nil, err
		}

		entry := model.TransferEntry{Principal: t.Recipient, At: t.At}
		if err := props.AppendTransfer(ctx, orig.ID, entry); err != nil {
			return nil, err
		}
		if err := props.Supersede(ctx, orig.ID, []model.PropertyID{t.SenderPropertyID, t.RecipientPropertyID}); err != nil {
			return nil, err
		}
		history := append(orig.History, entry)

		reissued := []model.Property{
			{ID: t.SenderPropertyID, Claimer: caller, ClaimDocAddr: senderAddr},
			{ID: t.RecipientPropertyID, Claimer: t.Recipient, ClaimDocAddr: recipientAddr},
		}
		for _, p := range reissued {
			p.TypeID = orig.TypeID
			p.History = history
			p.Origin = orig.ID
			if err := props.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("property %q: %w", p.ID, err)
			}
			if err := r.Claims().Append(ctx, orig.TypeID, p.ID); err != nil {
				return nil, fmt.Errorf("claim index %q: %w", orig.TypeID, err)
			}
		}
		return event.PropertyTransferred{Sender: caller, Recipient: t.Recipient, PropertyID: orig.ID}, nil
	})
}

// checkNewIDs requires two distinct unused ids that differ from the original.
func (s *RegistryServiceImpl) checkNewIDs(ctx context.Context, props repository.PropertyRepository, t model.Transfer) error {
	if t.SenderPropertyID == "" || t.RecipientPropertyID == "" {
		return fmt.Errorf("%w: empty reissued property id", errs.ErrInvalidArgument)
	}
	if t.SenderPropertyID == t.RecipientPropertyID ||
		t.SenderPropertyID == t.PropertyID || t.RecipientPropertyID == t.PropertyID {
		return fmt.Errorf("%w: reissued property ids must be distinct", errs.ErrInvalidArgument)
	}
	for _, id := range []model.PropertyID{t.SenderPropertyID, t.RecipientPropertyID} {
		_, err := props.Get(ctx, id)
		switch {
		case err == nil:
			return fmt.Errorf("property %q: %w", id, errs.ErrAlreadyExists)
		case !errors.Is(err, errs.ErrNotFound):
			return err
		}
	}
	return nil
}
