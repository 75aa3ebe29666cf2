package event

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes each event as a structured log line.
type LogNotifier struct{ log *zap.Logger }

// NewLogNotifier constructs a notifier logging through log.
func NewLogNotifier(log *zap.Logger) *LogNotifier { return &LogNotifier{log: log} }

// Notify logs the event kind and its identifiers.
func (n *LogNotifier) Notify(_ context.Context, e Event) {
	n.log.Info("event", append([]zap.Field{zap.String("kind", string(e.Kind()))}, Fields(e)...)...)
}

// Fields returns the identifiers carried by e as zap fields.
func Fields(e Event) []zap.Field {
	switch v := e.(type) {
	case AccountCreated:
		return []zap.Field{zap.String("principal", string(v.Principal)), zap.ByteString("name", v.Name)}
	case PropertyTypeRegistered:
		return []zap.Field{
			zap.String("authority", string(v.Authority)),
			zap.String("type_id", string(v.TypeID)),
			zap.String("schema_addr", string(v.SchemaAddr)),
		}
	case PropertyClaimRegistered:
		return []zap.Field{
			zap.String("claimer", string(v.Claimer)),
			zap.String("type_id", string(v.TypeID)),
			zap.String("property_id", string(v.PropertyID)),
		}
	case PropertyTransferred:
		return []zap.Field{
			zap.String("sender", string(v.Sender)),
			zap.String("recipient", string(v.Recipient)),
			zap.String("property_id", string(v.PropertyID)),
		}
	case PropertyDocumentSigned:
		return []zap.Field{zap.String("attester", string(v.Attester)), zap.String("property_id", string(v.PropertyID))}
	default:
		return nil
	}
}
