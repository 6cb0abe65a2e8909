package gateway

import (
	"strings"

	"github.com/oneelevenhq/leadbridge/domains/ingest"
)

// EventType pulls the provider event string out of the payload. Providers
// disagree on the field name, so `event` wins, then `type`, then a literal
// UNKNOWN. The result is uppercased for comparison.
func EventType(payload map[string]any) string {
	if v, ok := payload["event"].(string); ok && v != "" {
		return strings.ToUpper(v)
	}
	if v, ok := payload["type"].(string); ok && v != "" {
		return strings.ToUpper(v)
	}
	return "UNKNOWN"
}

// Classify maps an uppercased event type onto a coarse class. Substring
// matching is deliberate: gateway event names drift across provider
// versions (MESSAGES_UPSERT, MESSAGES_UPDATE, ...) and over-inclusion is
// cheaper than silently dropping messages.
func Classify(eventType string) ingest.EventClass {
	upper := strings.ToUpper(eventType)
	switch {
	case strings.Contains(upper, "MESSAGE"):
		return ingest.ClassMessage
	case strings.Contains(upper, "QRCODE"):
		return ingest.ClassQRCode
	case strings.Contains(upper, "CONNECTION"):
		return ingest.ClassConnection
	default:
		return ingest.ClassOther
	}
}
