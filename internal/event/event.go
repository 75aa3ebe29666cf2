// Package event defines the notifications emitted after successful registry
// operations and the Notifier capability that receives them.
package event

import (
	"context"

	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

// Kind names a notification variant.
type Kind string

// Notification kinds.
const (
	KindAccountCreated          Kind = "AccountCreated"
	KindPropertyTypeRegistered  Kind = "PropertyTypeRegistered"
	KindPropertyClaimRegistered Kind = "PropertyClaimRegistered"
	KindPropertyTransferred     Kind = "PropertyTransferred"
	KindPropertyDocumentSigned  Kind = "PropertyDocumentSigned"
)

// Event is one of the notification structs below.
type Event interface {
	Kind() Kind
}

// AccountCreated is emitted by every successful account registration.
type AccountCreated struct {
	Principal model.Principal
	Name      []byte
}

// PropertyTypeRegistered is emitted when an authority registers a type.
type PropertyTypeRegistered struct {
	Authority  model.Principal
	TypeID     model.TypeID
	SchemaAddr model.ContentAddr
}

// PropertyClaimRegistered is emitted when a claim creates a property.
type PropertyClaimRegistered struct {
	Claimer    model.Principal
	TypeID     model.TypeID
	PropertyID model.PropertyID
}

// PropertyTransferred is emitted once per successful transfer, for the original property.
type PropertyTransferred struct {
	Sender     model.Principal
	Recipient  model.Principal
	PropertyID model.PropertyID
}

// PropertyDocumentSigned is emitted when an authority attests a property.
type PropertyDocumentSigned struct {
	Attester   model.Principal
	PropertyID model.PropertyID
}

func (AccountCreated) Kind() Kind          { return KindAccountCreated }
func (PropertyTypeRegistered) Kind() Kind  { return KindPropertyTypeRegistered }
func (PropertyClaimRegistered) Kind() Kind { return KindPropertyClaimRegistered }
func (PropertyTransferred) Kind() Kind     { return KindPropertyTransferred }
func (PropertyDocumentSigned) Kind() Kind  { return KindPropertyDocumentSigned }

// Notifier receives events. Delivery is fire-and-forget: implementations must
// not block the caller for long and cannot fail the operation that emitted the event.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Nop discards events.
var Nop Notifier = NotifierFunc(func(context.Context, Event) {})

// Multi fans an event out to every notifier in order.
type Multi []Notifier

// Notify delivers e to each notifier.
func (m Multi) Notify(ctx context.Context, e Event) {
	for _, n := range m {
		n.Notify(ctx, e)
	}
}
