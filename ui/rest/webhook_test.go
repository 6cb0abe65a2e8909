package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneelevenhq/leadbridge/core/config"
	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	domainIngest "github.com/oneelevenhq/leadbridge/domains/ingest"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	"github.com/oneelevenhq/leadbridge/usecase"
)

type fakeVerifier struct {
	enabled bool
	valid   bool
}

func (f *fakeVerifier) Enabled() bool { return f.enabled }

func (f *fakeVerifier) Verify(workspaceID, instanceName, signature string) bool {
	return !f.enabled || f.valid
}

type forwardCall struct {
	workspaceID string
	instance    string
	token       string
	msg         domainIngest.NormalizedMessage
}

type fakeForwarder struct {
	calls  []forwardCall
	result domainIngest.ForwardResult
}

func (f *fakeForwarder) Forward(ctx context.Context, workspaceID, instanceName, token string, msg domainIngest.NormalizedMessage, raw map[string]any) domainIngest.ForwardResult {
	f.calls = append(f.calls, forwardCall{workspaceID: workspaceID, instance: instanceName, token: token, msg: msg})
	return f.result
}

type fakeTenants struct {
	lookupToken string
	touched     []string
}

func (f *fakeTenants) CreateWorkspace(ctx context.Context, req domainTenant.CreateWorkspaceRequest) (domainTenant.Workspace, error) {
	return domainTenant.Workspace{}, nil
}

func (f *fakeTenants) ListWorkspaces(ctx context.Context) ([]domainTenant.Workspace, error) {
	return nil, nil
}

func (f *fakeTenants) GetWorkspace(ctx context.Context, id string) (domainTenant.Workspace, error) {
	return domainTenant.Workspace{}, nil
}

func (f *fakeTenants) CreateInstance(ctx context.Context, req domainTenant.CreateInstanceRequest) (domainTenant.CreateInstanceResponse, error) {
	return domainTenant.CreateInstanceResponse{}, nil
}

func (f *fakeTenants) ListInstances(ctx context.Context, workspaceID string) ([]domainTenant.Instance, error) {
	return nil, nil
}

func (f *fakeTenants) ResolveForwardToken(ctx context.Context, workspaceID string) (string, error) {
	return f.lookupToken, nil
}

func (f *fakeTenants) RotateForwardToken(ctx context.Context, workspaceID, newToken string) error {
	f.lookupToken = newToken
	return nil
}

func (f *fakeTenants) UpdateInstanceQR(ctx context.Context, instanceName, qrBase64 string) error {
	return nil
}

func (f *fakeTenants) UpdateInstanceStatus(ctx context.Context, instanceName, status string) error {
	return nil
}

func (f *fakeTenants) TouchInstance(ctx context.Context, instanceName string) error {
	f.touched = append(f.touched, instanceName)
	return nil
}

type fakeEvents struct {
	recorded []domainEventlog.RawEvent
}

func (f *fakeEvents) Record(ctx context.Context, evt domainEventlog.RawEvent) error {
	f.recorded = append(f.recorded, evt)
	return nil
}

func (f *fakeEvents) RecordAsync(evt domainEventlog.RawEvent) {
	f.recorded = append(f.recorded, evt)
}

func (f *fakeEvents) List(ctx context.Context, workspaceID string, limit, offset int) ([]domainEventlog.RawEvent, error) {
	return f.recorded, nil
}

type webhookFixture struct {
	app       *fiber.App
	forwarder *fakeForwarder
	events    *fakeEvents
	tenants   *fakeTenants
}

func newWebhookFixture(t *testing.T, mode config.CredentialMode, verifier *fakeVerifier) *webhookFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Webhook.CredentialMode = mode

	forwarder := &fakeForwarder{result: domainIngest.ForwardResult{Ok: true, Status: 200}}
	events := &fakeEvents{}
	tenants := &fakeTenants{lookupToken: "lookup-token"}

	service := usecase.NewIngestService(cfg, verifier, forwarder, tenants, events)

	app := fiber.New()
	InitRestWebhook(app, service)

	return &webhookFixture{app: app, forwarder: forwarder, events: events, tenants: tenants}
}

func postInbound(t *testing.T, app *fiber.App, query, body string) (int, domainIngest.WebhookResponse) {
	t.Helper()

	req := httptest.NewRequest("POST", "/webhook/inbound?"+query, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	var parsed domainIngest.WebhookResponse
	require.NoError(t, json.Unmarshal(raw, &parsed))
	return res.StatusCode, parsed
}

const inboundMessageBody = `{
	"event": "messages.upsert",
	"data": {
		"key": {"remoteJid": "5511999999999@s.whatsapp.net", "fromMe": false, "id": "ABCD1234"},
		"pushName": "Maria",
		"message": {"conversation": "quero um orcamento"}
	}
}`

func TestWebhook_MissingParamsIsIgnored(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	status, resp := postInbound(t, fixture.app, "", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Ok)
	assert.True(t, resp.Ignored)
	assert.NotEmpty(t, resp.DebugID)
	assert.Empty(t, fixture.forwarder.calls)
	assert.Empty(t, fixture.events.recorded)
}

func TestWebhook_UnparsableBodyIsIgnored(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1", "not json")

	assert.Equal(t, 200, status)
	assert.True(t, resp.Ignored)
	assert.Equal(t, "unparsable body", resp.Reason)
	assert.Empty(t, fixture.forwarder.calls)
}

func TestWebhook_InvalidSignatureIsRecordedNotForwarded(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{enabled: true, valid: false})

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&sig=bogus&api_token=tok", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Ok)
	assert.True(t, resp.Captured)
	assert.Equal(t, "invalid signature", resp.Reason)
	assert.Empty(t, fixture.forwarder.calls)

	require.Len(t, fixture.events.recorded, 1)
	assert.Equal(t, domainEventlog.EventTypeInvalidSignature, fixture.events.recorded[0].EventType)
}

func TestWebhook_FromMeIsFilteredAfterCapture(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	body := `{"event":"messages.upsert","data":{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":true,"id":"XYZ"},"message":{"conversation":"me talking"}}}`
	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=tok", body)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Captured)
	assert.Equal(t, "fromMe", resp.Reason)
	assert.False(t, resp.Processed)
	assert.Empty(t, fixture.forwarder.calls)
	assert.Len(t, fixture.events.recorded, 1)
}

func TestWebhook_ForwardsWithURLToken(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=url-token", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Captured)
	assert.True(t, resp.Processed)
	require.NotNil(t, resp.Forwarded)
	assert.True(t, resp.Forwarded.Ok)

	require.Len(t, fixture.forwarder.calls, 1)
	call := fixture.forwarder.calls[0]
	assert.Equal(t, "ws1", call.workspaceID)
	assert.Equal(t, "url-token", call.token)
	require.NotNil(t, call.msg.Text)
	assert.Equal(t, "quero um orcamento", *call.msg.Text)
	require.NotNil(t, call.msg.Phone)
	assert.Equal(t, "5511999999999", *call.msg.Phone)
	assert.Equal(t, []string{"inst1"}, fixture.tenants.touched)
}

func TestWebhook_ForwardsWithLookupToken(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeLookup, &fakeVerifier{})

	_, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=url-token-ignored", inboundMessageBody)

	assert.True(t, resp.Processed)
	require.Len(t, fixture.forwarder.calls, 1)
	assert.Equal(t, "lookup-token", fixture.forwarder.calls[0].token)
}

func TestWebhook_NoCredentialResolvedSkipsForward(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeLookup, &fakeVerifier{})
	fixture.tenants.lookupToken = ""

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.Equal(t, "no forwarding credential resolved", resp.Reason)
	assert.False(t, resp.Processed)
	assert.Empty(t, fixture.forwarder.calls)
}

func TestWebhook_ForwardFailureStillAnswers200(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})
	fixture.forwarder.result = domainIngest.ForwardResult{Ok: false, Status: 500, Error: "upstream exploded"}

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=tok", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Ok)
	assert.False(t, resp.Processed)
	assert.Equal(t, "forward failed", resp.Reason)
	require.Len(t, fixture.forwarder.calls, 1)
}

// Duplicate delivery of the same gateway message id forwards twice;
// deduplication belongs downstream.
func TestWebhook_DuplicateExternalMessageIDForwardsTwice(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	_, first := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=tok", inboundMessageBody)
	_, second := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1&api_token=tok", inboundMessageBody)

	assert.True(t, first.Processed)
	assert.True(t, second.Processed)
	assert.Len(t, fixture.forwarder.calls, 2)
	assert.Len(t, fixture.events.recorded, 2)
	assert.Equal(t, fixture.events.recorded[0].ExternalMessageID, fixture.events.recorded[1].ExternalMessageID)
}

func TestWebhook_QRCodeEventUpdatesInstance(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	body := `{"event":"qrcode.updated","data":{"qrcode":{"base64":"data:image/png;base64,AAAA"}}}`
	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1", body)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Captured)
	assert.Equal(t, "qrcode event", resp.Reason)
	assert.Empty(t, fixture.forwarder.calls)
}

func TestWebhook_UnknownEventIsCapturedOnly(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	status, resp := postInbound(t, fixture.app, "workspace_id=ws1&instance=inst1", `{"event":"contacts.update"}`)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Captured)
	assert.Equal(t, "unsupported event type", resp.Reason)
	assert.Empty(t, fixture.forwarder.calls)
	assert.Len(t, fixture.events.recorded, 1)
	assert.Equal(t, "CONTACTS.UPDATE", fixture.events.recorded[0].EventType)
}

type panickingIngest struct{}

func (panickingIngest) ProcessInbound(ctx context.Context, req domainIngest.WebhookRequest) domainIngest.WebhookResponse {
	panic("pipeline exploded")
}

func TestWebhook_PanicStillAnswers200WithDebugID(t *testing.T) {
	app := fiber.New()
	InitRestWebhook(app, panickingIngest{})

	status, resp := postInbound(t, app, "workspace_id=ws1&instance=inst1", inboundMessageBody)

	assert.Equal(t, 200, status)
	assert.True(t, resp.Ok)
	assert.Equal(t, "pipeline exploded", resp.Error)
	assert.Regexp(t, `^evo_in_\d+_[0-9a-f]{12}$`, resp.DebugID)
}

func TestWebhook_Preflight(t *testing.T) {
	fixture := newWebhookFixture(t, config.CredentialModeURL, &fakeVerifier{})

	req := httptest.NewRequest("OPTIONS", "/webhook/inbound", nil)
	res, err := fixture.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)
}
