// Package service contains the property registry and authentication services.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/event"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

// RegistryService defines account, property type, claim, transfer and attestation operations.
// Mutations take the authenticated caller; lookups never fail on absent data.
type RegistryService interface {
	// RegisterAccount stores the caller's account metadata, overwriting a previous registration.
	RegisterAccount(ctx context.Context, caller model.Principal, name []byte, at model.Timestamp) error
	// AccountExists reports whether p registered, with its name.
	AccountExists(ctx context.Context, p model.Principal) (bool, []byte, error)
	// RegisterPropertyType registers a schema with the caller as its authority.
	RegisterPropertyType(ctx context.Context, caller model.Principal, id model.TypeID, schema model.ContentAddr) error
	// RegisterClaim creates a property claimed by the caller under an existing type.
	RegisterClaim(ctx context.Context, caller model.Principal, c model.Claim) error
	// PropertyClaims lists property ids registered under a type in insertion order.
	PropertyClaims(ctx context.Context, typeID model.TypeID) ([]model.PropertyID, error)
	// PropertyDetail returns a property record, zero value when unknown.
	PropertyDetail(ctx context.Context, id model.PropertyID) (model.Property, error)
	// TransferProperty reissues a caller-owned property to a recipient.
	TransferProperty(ctx context.Context, caller model.Principal, t model.Transfer) error
	// SignDocument records an attestation by the type's authority.
	SignDocument(ctx context.Context, caller model.Principal, id model.PropertyID, typeID model.TypeID, at model.Timestamp) error
	// AttestationStatus returns the latest assertion and the transfer history.
	AttestationStatus(ctx context.Context, id model.PropertyID) (*model.Assertion, []model.TransferEntry, error)
}

// RejectionObserver is told about every mutation that did not commit.
type RejectionObserver interface {
	Rejected(op string, err error)
}

// AddressValidator normalizes or rejects a content address.
type AddressValidator func(addr string) (model.ContentAddr, error)

type RegistryServiceImpl struct {
	store      repository.Store
	notifier   event.Notifier
	log        *zap.Logger
	validate   AddressValidator
	rejections RejectionObserver
}

// Option configures RegistryServiceImpl.
type Option func(*RegistryServiceImpl)

// WithLogger sets the logger for committed and rejected operations.
func WithLogger(l *zap.Logger) Option {
	return func(s *RegistryServiceImpl) { s.log = l }
}

// WithAddressValidator checks every schema and claim document address with v.
func WithAddressValidator(v AddressValidator) Option {
	return func(s *RegistryServiceImpl) { s.validate = v }
}

// WithRejectionObserver reports failed mutations to o.
func WithRejectionObserver(o RejectionObserver) Option {
	return func(s *RegistryServiceImpl) { s.rejections = o }
}

// NewRegistryService constructs RegistryService over store. A nil notifier discards events.
func NewRegistryService(store repository.Store, notifier event.Notifier, opts ...Option) *RegistryServiceImpl {
	if notifier == nil {
		notifier = event.Nop
	}
	s := &RegistryServiceImpl{store: store, notifier: notifier, log: zap.NewNop(), validate: nonEmptyAddr}
	for _, o := range opts {
		o(s)
	}
	return s
}

func nonEmptyAddr(addr string) (model.ContentAddr, error) {
	if addr == "" {
		return "", fmt.Errorf("%w: empty content address", errs.ErrInvalidArgument)
	}
	return model.ContentAddr(addr), nil
}

// update runs fn as one unit of work and emits its event after commit.
func (s *RegistryServiceImpl) update(ctx context.Context, op string, fn func(r repository.Registries) (event.Event, error)) error {
	var ev event.Event
	err := s.store.Update(ctx, func(r repository.Registries) error {
		var err error
		ev, err = fn(r)
		return err
	})
	if err != nil {
		return s.reject(op, err)
	}
	s.log.Info("committed", append([]zap.Field{zap.String("op", op)}, event.Fields(ev)...)...)
	s.notifier.Notify(ctx, ev)
	return nil
}

// reject logs and reports a mutation that did not commit, then returns err.
func (s *RegistryServiceImpl) reject(op string, err error) error {
	s.log.Debug("rejected", zap.String("op", op), zap.Error(err))
	if s.rejections != nil {
		s.rejections.Rejected(op, err)
	}
	return err
}

func requireCaller(caller model.Principal) error {
	if caller == "" {
		return fmt.Errorf("%w: empty caller", errs.ErrInvalidArgument)
	}
	return nil
}

// RegisterAccount overwrites any previous record of the caller.
func (s *RegistryServiceImpl) RegisterAccount(ctx context.Context, caller model.Principal, name []byte, at model.Timestamp) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("RegisterAccount", err)
	}
	return s.update(ctx, "RegisterAccount", func(r repository.Registries) (event.Event, error) {
		info := model.AccountInfo{Principal: caller, Name: name, CreatedAt: at}
		if err := r.Accounts().Put(ctx, info); err != nil {
			return nil, err
		}
		return event.AccountCreated{Principal: caller, Name: name}, nil
	})
}

// AccountExists returns (false, nil) for unknown principals.
func (s *RegistryServiceImpl) AccountExists(ctx context.Context, p model.Principal) (bool, []byte, error) {
	var info *model.AccountInfo
	err := s.store.View(ctx, func(r repository.Registries) error {
		var err error
		info, err = r.Accounts().Get(ctx, p)
		return err
	})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return false, nil, nil
	case err != nil:
		return false, nil, err
	}
	return true, info.Name, nil
}

// RegisterPropertyType records the caller as the type's authority. Types are immutable.
func (s *RegistryServiceImpl) RegisterPropertyType(ctx context.Context, caller model.Principal, id model.TypeID, schema model.ContentAddr) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("RegisterPropertyType", err)
	}
	if id == "" {
		return s.reject("RegisterPropertyType", fmt.Errorf("%w: empty type id", errs.ErrInvalidArgument))
	}
	addr, err := s.validate(string(schema))
	if err != nil {
		return s.reject("RegisterPropertyType", err)
	}
	return s.update(ctx, "RegisterPropertyType", func(r repository.Registries) (event.Event, error) {
		t := model.PropertyType{ID: id, Authority: caller, SchemaAddr: addr}
		if err := r.Types().Create(ctx, t); err != nil {
			return nil, fmt.Errorf("property type %q: %w", id, err)
		}
		return event.PropertyTypeRegistered{Authority: caller, TypeID: id, SchemaAddr: addr}, nil
	})
}

// RegisterClaim creates the property and appends it to the type's claim list.
func (s *RegistryServiceImpl) RegisterClaim(ctx context.Context, caller model.Principal, c model.Claim) error {
	if err := requireCaller(caller); err != nil {
		return s.reject("RegisterClaim", err)
	}
	if c.TypeID == "" || c.PropertyID == "" {
		return s.reject("RegisterClaim", fmt.Errorf("%w: empty type or property id", errs.ErrInvalidArgument))
	}
	addr, err := s.validate(string(c.ClaimDocAddr))
	if err != nil {
		return s.reject("RegisterClaim", err)
	}
	return s.update(ctx, "RegisterClaim", func(r repository.Registries) (event.Event, error) {
		if _, err := r.Types().Get(ctx, c.TypeID); err != nil {
			return nil, fmt.Errorf("property type %q: %w", c.TypeID, err)
		}
		p := model.Property{ID: c.PropertyID, Claimer: caller, ClaimDocAddr: addr, TypeID: c.TypeID}
		if err := r.Properties().Create(ctx, p); err != nil {
			return nil, fmt.Errorf("property %q: %w", c.PropertyID, err)
		}
		if err := r.Claims().Append(ctx, c.TypeID, c.PropertyID); err != nil {
			return nil, fmt.Errorf("claim index %q: %w", c.TypeID, err)
		}
		return event.PropertyClaimRegistered{Claimer: caller, TypeID: c.TypeID, PropertyID: c.PropertyID}, nil
	})
}

// PropertyClaims returns an empty list for unknown types.
func (s *RegistryServiceImpl) PropertyClaims(ctx context.Context, typeID model.TypeID) ([]model.PropertyID, error) {
	var ids []model.PropertyID
	err := s.store.View(ctx, func(r repository.Registries) error {
		var err error
		ids, err = r.Claims().List(ctx, typeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []model.PropertyID{}
	}
	return ids, nil
}

// PropertyDetail returns the zero Property for unknown ids.
func (s *RegistryServiceImpl) PropertyDetail(ctx context.Context, id model.PropertyID) (model.Property, error) {
	p, err := s.property(ctx, id)
	if err != nil || p == nil {
		return model.Property{}, err
	}
	return *p, nil
}

// property loads id in a read-only unit; nil without error when absent.
func (s *RegistryServiceImpl) property(ctx context.Context, id model.PropertyID) (*model.Property, error) {
	var p *model.Property
	err := s.store.View(ctx, func(r repository.Registries) error {
		var err error
		p, err = r.Properties().Get(ctx, id)
		return err
	})
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	return p, err
}
