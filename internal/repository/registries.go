package repository

import (
	"context"

	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// AccountRepository maps a principal to its account metadata.
type AccountRepository interface {
	// Put stores info, overwriting any previous record of the same principal.
	Put(ctx context.Context, info model.AccountInfo) error
	// Get loads the account of p or returns errs.ErrNotFound.
	Get(ctx context.Context, p model.Principal) (*model.AccountInfo, error)
}

// PropertyTypeRepository maps a type id to its schema and authority.
type PropertyTypeRepository interface {
	// Create inserts a new type; returns errs.ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, t model.PropertyType) error
	// Get loads a type or returns errs.ErrNotFound.
	Get(ctx context.Context, id model.TypeID) (*model.PropertyType, error)
}

// ClaimIndexRepository maps a type id to the property ids registered under it.
type ClaimIndexRepository interface {
	// Append adds id to the end of the type's list; returns errs.ErrAlreadyExists on duplicates.
	Append(ctx context.Context, typeID model.TypeID, id model.PropertyID) error
	// List returns the ids in insertion order, empty for unknown types.
	List(ctx context.Context, typeID model.TypeID) ([]model.PropertyID, error)
}

// PropertyRepository stores property records. History can only grow.
type PropertyRepository interface {
	// Create inserts p together with its initial history; returns errs.ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, p model.Property) error
	// Get loads a property or returns errs.ErrNotFound.
	Get(ctx context.Context, id model.PropertyID) (*model.Property, error)
	// AppendTransfer adds e to the end of the property's history.
	AppendTransfer(ctx context.Context, id model.PropertyID, e model.TransferEntry) error
	// Supersede records the ids that replaced the property.
	Supersede(ctx context.Context, id model.PropertyID, by []model.PropertyID) error
	// SetAssertion overwrites the property's attestation.
	SetAssertion(ctx context.Context, id model.PropertyID, a model.Assertion) error
}

// CredentialRepository provides access to login credentials.
type CredentialRepository interface {
	// Create inserts a new credential; returns errs.ErrAlreadyExists if the login is taken.
	Create(ctx context.Context, c *model.Credential) error
	// GetByLogin loads a credential by login.
	GetByLogin(ctx context.Context, login string) (*model.Credential, error)
}
