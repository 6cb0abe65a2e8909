package tenant

import (
	"context"
	"time"
)

// Workspace is the unit of data isolation. Every inbound event and
// forwarded message is scoped to one workspace.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Instance is one gateway-managed WhatsApp connection, identified by name,
// belonging to exactly one workspace.
type Instance struct {
	ID           string     `json:"id"`
	WorkspaceID  string     `json:"workspace_id"`
	InstanceName string     `json:"instance_name"`
	Status       string     `json:"status"`
	QRBase64     string     `json:"qr_base64,omitempty"`
	LastEventAt  *time.Time `json:"last_event_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateWorkspaceRequest struct {
	Name         string `json:"name"`
	ForwardToken string `json:"forward_token"`
}

type CreateInstanceRequest struct {
	WorkspaceID  string `json:"workspace_id"`
	InstanceName string `json:"instance_name"`
}

// CreateInstanceResponse returns the fully-formed webhook URL the gateway
// should be pointed at, signature included.
type CreateInstanceResponse struct {
	Instance   Instance `json:"instance"`
	WebhookURL string   `json:"webhook_url"`
}

type ITenantUsecase interface {
	CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (Workspace, error)
	ListWorkspaces(ctx context.Context) ([]Workspace, error)
	GetWorkspace(ctx context.Context, id string) (Workspace, error)

	CreateInstance(ctx context.Context, req CreateInstanceRequest) (CreateInstanceResponse, error)
	ListInstances(ctx context.Context, workspaceID string) ([]Instance, error)

	// ResolveForwardToken returns the decrypted forwarding credential for a
	// workspace (lookup mode). Empty string when the workspace is unknown
	// or disabled.
	ResolveForwardToken(ctx context.Context, workspaceID string) (string, error)

	// RotateForwardToken replaces the stored credential and invalidates any
	// cached copy, so lookup-mode resolution picks up the new token without
	// re-provisioning the webhook URL.
	RotateForwardToken(ctx context.Context, workspaceID, newToken string) error

	// UpdateInstanceQR and UpdateInstanceStatus are best-effort projections
	// driven by gateway events; both swallow not-found.
	UpdateInstanceQR(ctx context.Context, instanceName, qrBase64 string) error
	UpdateInstanceStatus(ctx context.Context, instanceName, status string) error

	// TouchInstance bumps last_event_at for an instance that just produced
	// a message event. Not-found is swallowed.
	TouchInstance(ctx context.Context, instanceName string) error
}
