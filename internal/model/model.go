// Package model defines domain entities used by services and repositories.
package model

import "time"

// Principal identifies an account-holding entity (user or authority).
type Principal string

// Timestamp is an opaque, caller-supplied point in time. The registry never
// reads the wall clock; ordering is whatever the caller encodes.
type Timestamp int64

// ContentAddr is the content address (CID) of a document held outside the registry.
type ContentAddr string

// TypeID identifies a property type (a regional document schema).
type TypeID string

// PropertyID identifies a registered property claim.
type PropertyID string

// AccountInfo is the metadata recorded when a principal registers.
type AccountInfo struct {
	Principal Principal
	Name      []byte
	CreatedAt Timestamp
}

// PropertyType binds a schema document to the authority that registered it.
// Only Authority may attest properties of this type.
type PropertyType struct {
	ID         TypeID
	Authority  Principal
	SchemaAddr ContentAddr
}

// TransferEntry records one past transfer: who received the property and when.
type TransferEntry struct {
	Principal Principal
	At        Timestamp
}

// Assertion is the most recent attestation of a property by its type's authority.
type Assertion struct {
	At       Timestamp
	Attester Principal
}

// Property is a registered claim with its ownership lineage and attestation state.
type Property struct {
	ID           PropertyID
	Claimer      Principal
	ClaimDocAddr ContentAddr
	TypeID       TypeID
	History      []TransferEntry // append-only
	Assertion    *Assertion      // nil until signed

	Origin       PropertyID   // property this one was reissued from, empty for direct claims
	SupersededBy []PropertyID // set once the property is transferred; retired records are never reused
}

// Superseded reports whether the property was retired by a transfer.
func (p Property) Superseded() bool { return len(p.SupersededBy) > 0 }

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (p Property) Clone() Property {
	c := p
	if p.History != nil {
		c.History = append([]TransferEntry(nil), p.History...)
	}
	if p.SupersededBy != nil {
		c.SupersededBy = append([]PropertyID(nil), p.SupersededBy...)
	}
	if p.Assertion != nil {
		a := *p.Assertion
		c.Assertion = &a
	}
	return c
}

// Transfer is a request to reissue a property: the sender keeps a new record
// under SenderPropertyID and the recipient gets one under RecipientPropertyID.
type Transfer struct {
	PropertyID            PropertyID
	Recipient             Principal
	SenderClaimDocAddr    ContentAddr
	SenderPropertyID      PropertyID
	RecipientClaimDocAddr ContentAddr
	RecipientPropertyID   PropertyID
	At                    Timestamp
}

// Claim is a request to register a new property under an existing type.
type Claim struct {
	TypeID       TypeID
	PropertyID   PropertyID
	ClaimDocAddr ContentAddr
}

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// Credential binds a login to a principal. The password is never stored in plaintext.
type Credential struct {
	Principal Principal
	Login     string // unique
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte
	CreatedAt time.Time
}
