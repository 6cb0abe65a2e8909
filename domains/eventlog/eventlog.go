package eventlog

import (
	"context"
	"time"
)

// RawEvent is one appended webhook payload, kept verbatim for audit and
// debugging. EventType carries the provider string, or INVALID_SIGNATURE
// when verification failed.
type RawEvent struct {
	ID                string    `json:"id"`
	WorkspaceID       string    `json:"workspace_id"`
	InstanceName      string    `json:"instance_name"`
	EventType         string    `json:"event_type"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	Payload           string    `json:"payload"`
	CreatedAt         time.Time `json:"created_at"`
}

const EventTypeInvalidSignature = "INVALID_SIGNATURE"

type IEventLogUsecase interface {
	// Record appends synchronously. The ingestion pipeline never calls it
	// directly; it goes through RecordAsync.
	Record(ctx context.Context, evt RawEvent) error

	// RecordAsync hands the append to the background pool and returns
	// immediately. Failures are swallowed by contract.
	RecordAsync(evt RawEvent)

	List(ctx context.Context, workspaceID string, limit, offset int) ([]RawEvent, error)
}
