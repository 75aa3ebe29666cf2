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

// SignDocument overwrites the property's assertion with (at, caller). Only the
// principal that registered typeID may sign, and the property must carry that type.
func (s *RegistryServiceImpl) SignDocument(ctx context.Context, caller model.Principal, id model.PropertyID, typeID model.TypeID, at model.Timestamp) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("SignDocument", err)
	}
	return s.update(ctx, "SignDocument", func(r repository.Registries) (event.Event, error) {
		pt, err := r.Types().Get(ctx, typeID)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			// nobody registered the type, so nobody is its authority
			return nil, fmt.Errorf("property type %q: %w", typeID, errs.ErrUnauthorizedAccount)
		case err != nil:
			return nil, err
		}
		if pt.Authority != caller {
			return nil, fmt.Errorf("property type %q: %w", typeID, errs.ErrUnauthorizedAccount)
		}

		p, err := r.Properties().Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", id, err)
		}
		if p.TypeID != typeID {
			return nil, fmt.Errorf("property %q has type %q: %w", id, p.TypeID, errs.ErrTypeMismatch)
		}
		if p.Superseded() {
			return nil, fmt.Errorf("property %q: %w", id, errs.ErrSuperseded)
		}
		if err := r.Properties().SetAssertion(ctx, id, model.Assertion{At: at, Attester: caller}); err != nil {
			return nil, err
		}
		return event.PropertyDocumentSigned{Attester: caller, PropertyID: id}, nil
	})
}

// AttestationStatus returns (nil, empty) for unknown or never-signed properties.
func (s *RegistryServiceImpl) AttestationStatus(ctx context.Context, id model.PropertyID) (*model.Assertion, []model.TransferEntry, error) {
	p, err := s.property(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, []model.TransferEntry{}, nil
	}
	history := p.History
	if history == nil {
		history = []model.TransferEntry{}
	}
	return p.Assertion, history, nil
}
