// Package api defines the delphi.v1.Registry gRPC service: its messages,
// wire codec, service descriptor and client.
package api

import "time"

type EnrollRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type EnrollResponse struct {
	Principal string `json:"principal"`
}

type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Principal   string    `json:"principal"`
}

// Empty is returned by mutations that carry no result.
type Empty struct{}

type RegisterAccountRequest struct {
	Name string `json:"name"`
	At   int64  `json:"at"`
}

// AccountExistsRequest looks up Principal, or the caller when it is empty.
type AccountExistsRequest struct {
	Principal string `json:"principal,omitempty"`
}

type AccountExistsResponse struct {
	Exists bool   `json:"exists"`
	Name   string `json:"name"`
}

type RegisterPropertyTypeRequest struct {
	TypeID     string `json:"type_id"`
	SchemaAddr string `json:"schema_addr"`
}

type RegisterClaimRequest struct {
	TypeID       string `json:"type_id"`
	PropertyID   string `json:"property_id"`
	ClaimDocAddr string `json:"claim_doc_addr"`
}

type PropertyClaimsRequest struct {
	TypeID string `json:"type_id"`
}

type PropertyClaimsResponse struct {
	PropertyIDs []string `json:"property_ids"`
}

type PropertyDetailRequest struct {
	PropertyID string `json:"property_id"`
}

type PropertyDetailResponse struct {
	Property Property `json:"property"`
}

type TransferEntry struct {
	Principal string `json:"principal"`
	At        int64  `json:"at"`
}

type Assertion struct {
	At       int64  `json:"at"`
	Attester string `json:"attester"`
}

type Property struct {
	ID           string          `json:"id"`
	Claimer      string          `json:"claimer"`
	ClaimDocAddr string          `json:"claim_doc_addr"`
	TypeID       string          `json:"type_id"`
	History      []TransferEntry `json:"history"`
	Assertion    *Assertion      `json:"assertion,omitempty"`
	Origin       string          `json:"origin,omitempty"`
	SupersededBy []string        `json:"superseded_by,omitempty"`
}

type TransferPropertyRequest struct {
	PropertyID            string `json:"property_id"`
	Recipient             string `json:"recipient"`
	SenderClaimDocAddr    string `json:"sender_claim_doc_addr"`
	SenderPropertyID      string `json:"sender_property_id"`
	RecipientClaimDocAddr string `json:"recipient_claim_doc_addr"`
	RecipientPropertyID   string `json:"recipient_property_id"`
	At                    int64  `json:"at"`
}

type SignDocumentRequest struct {
	PropertyID string `json:"property_id"`
	TypeID     string `json:"type_id"`
	At         int64  `json:"at"`
}

type AttestationStatusRequest struct {
	PropertyID string `json:"property_id"`
}

type AttestationStatusResponse struct {
	Assertion *Assertion      `json:"assertion,omitempty"`
	History   []TransferEntry `json:"history"`
}
