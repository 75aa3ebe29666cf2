// Package convert maps between wire messages and domain models.
package convert

import (
	"github.com/thewoodfish/property-delphi-contract/internal/api"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// --- history / assertion ---

// ToAPIHistory never returns nil so the wire form is always a list.
func ToAPIHistory(in []model.TransferEntry) []api.TransferEntry {
	out := make([]api.TransferEntry, 0, len(in))
	for _, e := range in {
		out = append(out, api.TransferEntry{Principal: string(e.Principal), At: int64(e.At)})
	}
	return out
}

// FromAPIHistory converts wire history entries.
func FromAPIHistory(in []api.TransferEntry) []model.TransferEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.TransferEntry, 0, len(in))
	for _, e := range in {
		out = append(out, model.TransferEntry{Principal: model.Principal(e.Principal), At: model.Timestamp(e.At)})
	}
	return out
}

func ToAPIAssertion(a *model.Assertion) *api.Assertion {
	if a == nil {
		return nil
	}
	return &api.Assertion{At: int64(a.At), Attester: string(a.Attester)}
}

func FromAPIAssertion(a *api.Assertion) *model.Assertion {
	if a == nil {
		return nil
	}
	return &model.Assertion{At: model.Timestamp(a.At), Attester: model.Principal(a.Attester)}
}

// --- ids ---

func ToAPIIDs(in []model.PropertyID) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, string(id))
	}
	return out
}

func FromAPIIDs(in []string) []model.PropertyID {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.PropertyID, 0, len(in))
	for _, id := range in {
		out = append(out, model.PropertyID(id))
	}
	return out
}

// --- property ---

// ToAPIProperty converts a property record; the zero Property maps to the zero message plus an empty history.
func ToAPIProperty(p model.Property) api.Property {
	out := api.Property{
		ID:           string(p.ID),
		Claimer:      string(p.Claimer),
		ClaimDocAddr: string(p.ClaimDocAddr),
		TypeID:       string(p.TypeID),
		History:      ToAPIHistory(p.History),
		Assertion:    ToAPIAssertion(p.Assertion),
		Origin:       string(p.Origin),
	}
	if len(p.SupersededBy) > 0 {
		out.SupersededBy = ToAPIIDs(p.SupersededBy)
	}
	return out
}

// FromAPIProperty converts a wire property back to the domain model.
func FromAPIProperty(p api.Property) model.Property {
	return model.Property{
		ID:           model.PropertyID(p.ID),
		Claimer:      model.Principal(p.Claimer),
		ClaimDocAddr: model.ContentAddr(p.ClaimDocAddr),
		TypeID:       model.TypeID(p.TypeID),
		History:      FromAPIHistory(p.History),
		Assertion:    FromAPIAssertion(p.Assertion),
		Origin:       model.PropertyID(p.Origin),
		SupersededBy: FromAPIIDs(p.SupersededBy),
	}
}

// --- requests ---

// FromAPIClaim converts a claim registration request.
func FromAPIClaim(in *api.RegisterClaimRequest) model.Claim {
	return model.Claim{
		TypeID:       model.TypeID(in.TypeID),
		PropertyID:   model.PropertyID(in.PropertyID),
		ClaimDocAddr: model.ContentAddr(in.ClaimDocAddr),
	}
}

// FromAPITransfer converts a transfer request.
func FromAPITransfer(in *api.TransferPropertyRequest) model.Transfer {
	return model.Transfer{
		PropertyID:            model.PropertyID(in.PropertyID),
		Recipient:             model.Principal(in.Recipient),
		SenderClaimDocAddr:    model.ContentAddr(in.SenderClaimDocAddr),
		SenderPropertyID:      model.PropertyID(in.SenderPropertyID),
		RecipientClaimDocAddr: model.ContentAddr(in.RecipientClaimDocAddr),
		RecipientPropertyID:   model.PropertyID(in.RecipientPropertyID),
		At:                    model.Timestamp(in.At),
	}
}
