package ingest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// EventClass is the coarse classification of a gateway event.
type EventClass string

const (
	ClassMessage    EventClass = "message"
	ClassQRCode     EventClass = "qrcode"
	ClassConnection EventClass = "connection"
	ClassOther      EventClass = "other"
)

// InboundEvent is the request-scoped view of one webhook invocation. It is
// built at request entry, consumed inside the handler, and discarded; only
// RawPayload survives, in the raw event log.
type InboundEvent struct {
	WorkspaceID  string
	InstanceName string
	EventType    string
	RawPayload   map[string]any
}

// NormalizedMessage is derived from an InboundEvent whose type classifies
// as message. Nil-able fields stay nil when no payload variant carried them.
type NormalizedMessage struct {
	RemoteJid         *string `json:"remote_jid"`
	Phone             *string `json:"phone"`
	DisplayName       *string `json:"display_name"`
	Text              *string `json:"text"`
	ExternalMessageID *string `json:"external_message_id"`
	FromMe            bool    `json:"from_me"`
}

// WebhookRequest carries everything the pipeline needs from the HTTP layer.
type WebhookRequest struct {
	WorkspaceID  string
	InstanceName string
	Signature    string
	URLToken     string
	Body         []byte
}

// ForwardResult reports the single forwarding attempt. It is surfaced in
// the webhook response body; it never changes the HTTP status.
type ForwardResult struct {
	Ok     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WebhookResponse is the JSON body returned to the gateway. Always paired
// with HTTP 200: gateways retry aggressively on non-2xx, so business
// outcomes live in the body, not the status.
type WebhookResponse struct {
	Ok        bool           `json:"ok"`
	DebugID   string         `json:"debugId"`
	Ignored   bool           `json:"ignored,omitempty"`
	Captured  bool           `json:"captured,omitempty"`
	Processed bool           `json:"processed,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Error     string         `json:"error,omitempty"`
	Forwarded *ForwardResult `json:"forwarded,omitempty"`
}

type IIngestUsecase interface {
	ProcessInbound(ctx context.Context, req WebhookRequest) WebhookResponse
}

// NewDebugID tags one webhook invocation for log/response correlation.
// Every response carries one, including the panic path.
func NewDebugID() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("evo_in_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
