package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oneelevenhq/leadbridge/domains/ingest"
	"github.com/sirupsen/logrus"
)

// Forwarder posts a normalized message to the internal CRM ingestion
// endpoint. One attempt per webhook invocation, short timeout: the
// gateway's own retry-on-failure is the only retry mechanism, and this
// call must never stall the webhook response past the gateway's patience.
type Forwarder struct {
	baseURL    string
	httpClient *http.Client
}

func NewForwarder(baseURL string, timeout time.Duration) *Forwarder {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Forwarder{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Forward delivers msg under the tenant credential. The result is reported
// in the webhook response body; a failure here is surfaced, not retried.
//
// The body repeats several fields under aliased keys (text+message,
// from+phone) because the receiving endpoint's own schema has drifted
// across deployments.
func (f *Forwarder) Forward(ctx context.Context, workspaceID, instanceName, token string, msg ingest.NormalizedMessage, raw map[string]any) ingest.ForwardResult {
	body := map[string]any{
		"workspace_id":        workspaceID,
		"instance":            instanceName,
		"from":                msg.Phone,
		"phone":               msg.Phone,
		"name":                msg.DisplayName,
		"text":                msg.Text,
		"message":             msg.Text,
		"external_message_id": msg.ExternalMessageID,
		"from_me":             msg.FromMe,
		"raw":                 raw,
	}

	postBody, err := json.Marshal(body)
	if err != nil {
		return ingest.ForwardResult{Ok: false, Error: fmt.Sprintf("marshal body: %v", err)}
	}

	url := f.baseURL + "/ingest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(postBody))
	if err != nil {
		return ingest.ForwardResult{Ok: false, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Token", token)
	req.Header.Set("X-Workspace-Id", workspaceID)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		logrus.Warnf("[FORWARD] Delivery to %s failed: %v", url, err)
		return ingest.ForwardResult{Ok: false, Error: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Warnf("[FORWARD] Ingestion endpoint returned status %d for workspace %s", resp.StatusCode, workspaceID)
		return ingest.ForwardResult{
			Ok:     false,
			Status: resp.StatusCode,
			Error:  fmt.Sprintf("ingestion endpoint returned status %d", resp.StatusCode),
		}
	}

	return ingest.ForwardResult{Ok: true, Status: resp.StatusCode}
}

// SetHTTPClient swaps the underlying client; tests use it to stub the
// transport.
func (f *Forwarder) SetHTTPClient(c *http.Client) {
	if c != nil {
		f.httpClient = c
	}
}
