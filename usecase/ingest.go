package usecase

import (
	"context"
	"encoding/json"

	"github.com/oneelevenhq/leadbridge/core/config"
	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	domainIngest "github.com/oneelevenhq/leadbridge/domains/ingest"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	"github.com/oneelevenhq/leadbridge/infrastructure/gateway"
	pkgError "github.com/oneelevenhq/leadbridge/pkg/error"
	"github.com/sirupsen/logrus"
)

type signatureVerifier interface {
	Enabled() bool
	Verify(workspaceID, instanceName, signature string) bool
}

type messageForwarder interface {
	Forward(ctx context.Context, workspaceID, instanceName, token string, msg domainIngest.NormalizedMessage, raw map[string]any) domainIngest.ForwardResult
}

type ingestService struct {
	cfg       *config.Config
	verifier  signatureVerifier
	forwarder messageForwarder
	tenants   domainTenant.ITenantUsecase
	events    domainEventlog.IEventLogUsecase
}

func NewIngestService(
	cfg *config.Config,
	verifier signatureVerifier,
	forwarder messageForwarder,
	tenants domainTenant.ITenantUsecase,
	events domainEventlog.IEventLogUsecase,
) domainIngest.IIngestUsecase {
	return &ingestService{
		cfg:       cfg,
		verifier:  verifier,
		forwarder: forwarder,
		tenants:   tenants,
		events:    events,
	}
}

// ProcessInbound runs the whole pipeline for one webhook invocation:
// verify -> record (fire-and-forget) -> classify -> normalize -> resolve
// credential -> forward. Every outcome maps onto an Ok response; the
// gateway must never see a failure it would retry into a storm.
func (s *ingestService) ProcessInbound(ctx context.Context, req domainIngest.WebhookRequest) domainIngest.WebhookResponse {
	resp := domainIngest.WebhookResponse{Ok: true, DebugID: domainIngest.NewDebugID()}

	if req.WorkspaceID == "" || req.InstanceName == "" {
		resp.Ignored = true
		resp.Reason = "missing workspace_id or instance"
		return resp
	}

	var payload map[string]any
	if err := json.Unmarshal(req.Body, &payload); err != nil || payload == nil {
		resp.Ignored = true
		resp.Reason = "unparsable body"
		return resp
	}

	eventType := gateway.EventType(payload)

	if !s.verifier.Verify(req.WorkspaceID, req.InstanceName, req.Signature) {
		logrus.WithFields(logrus.Fields{
			"workspace_id": req.WorkspaceID,
			"instance":     req.InstanceName,
			"event":        eventType,
		}).Warn("[WEBHOOK] Invalid signature, event recorded but not processed")

		s.events.RecordAsync(domainEventlog.RawEvent{
			WorkspaceID:  req.WorkspaceID,
			InstanceName: req.InstanceName,
			EventType:    domainEventlog.EventTypeInvalidSignature,
			Payload:      string(req.Body),
		})
		resp.Captured = true
		resp.Reason = "invalid signature"
		return resp
	}

	class := gateway.Classify(eventType)

	rawEvent := domainEventlog.RawEvent{
		WorkspaceID:  req.WorkspaceID,
		InstanceName: req.InstanceName,
		EventType:    eventType,
		Payload:      string(req.Body),
	}

	var msg domainIngest.NormalizedMessage
	if class == domainIngest.ClassMessage {
		msg = gateway.Normalize(payload)
		if msg.ExternalMessageID != nil {
			rawEvent.ExternalMessageID = *msg.ExternalMessageID
		}
	}

	// Audit log is an independent side effect; the response never waits on it.
	s.events.RecordAsync(rawEvent)
	resp.Captured = true

	logrus.WithFields(logrus.Fields{
		"workspace_id": req.WorkspaceID,
		"instance":     req.InstanceName,
		"event":        eventType,
		"class":        class,
		"debug_id":     resp.DebugID,
	}).Info("[WEBHOOK] Inbound event")

	switch class {
	case domainIngest.ClassQRCode:
		s.applyQRUpdate(ctx, req.InstanceName, payload)
		resp.Reason = "qrcode event"
		return resp

	case domainIngest.ClassConnection:
		s.applyConnectionUpdate(ctx, req.InstanceName, payload)
		resp.Reason = "connection event"
		return resp

	case domainIngest.ClassMessage:
		return s.processMessage(ctx, req, msg, payload, resp)

	default:
		resp.Reason = "unsupported event type"
		return resp
	}
}

func (s *ingestService) processMessage(ctx context.Context, req domainIngest.WebhookRequest, msg domainIngest.NormalizedMessage, payload map[string]any, resp domainIngest.WebhookResponse) domainIngest.WebhookResponse {
	if err := s.tenants.TouchInstance(ctx, req.InstanceName); err != nil {
		logrus.WithError(err).Debugf("[WEBHOOK] Could not touch instance %s", req.InstanceName)
	}

	// Outbound echoes from the tenant's own device are not new leads.
	if msg.FromMe {
		resp.Reason = "fromMe"
		return resp
	}

	token := s.resolveToken(ctx, req)
	if token == "" {
		resp.Reason = "no forwarding credential resolved"
		return resp
	}

	// Exactly one forwarding attempt; the gateway's own retries are the
	// only retry mechanism.
	result := s.forwarder.Forward(ctx, req.WorkspaceID, req.InstanceName, token, msg, payload)
	resp.Forwarded = &result
	resp.Processed = result.Ok
	if !result.Ok {
		resp.Reason = "forward failed"
		logrus.WithError(pkgError.ForwardError(result.Error)).WithFields(logrus.Fields{
			"workspace_id": req.WorkspaceID,
			"debug_id":     resp.DebugID,
		}).Warn("[WEBHOOK] Forwarding failed")
	}
	return resp
}

// resolveToken applies the configured strategy. Explicit either/or: the
// modes do not cascade, so a misconfigured deployment fails visibly in the
// response reason instead of silently using the wrong credential.
func (s *ingestService) resolveToken(ctx context.Context, req domainIngest.WebhookRequest) string {
	switch s.cfg.Webhook.CredentialMode {
	case config.CredentialModeLookup:
		token, err := s.tenants.ResolveForwardToken(ctx, req.WorkspaceID)
		if err != nil {
			logrus.WithError(err).Warnf("[WEBHOOK] Credential lookup failed for workspace %s", req.WorkspaceID)
			return ""
		}
		return token
	default:
		return req.URLToken
	}
}

func (s *ingestService) applyQRUpdate(ctx context.Context, instanceName string, payload map[string]any) {
	qr := firstPayloadString(payload,
		[]string{"data", "qrcode", "base64"},
		[]string{"qrcode", "base64"},
		[]string{"data", "base64"},
	)
	if qr == "" {
		return
	}
	if err := s.tenants.UpdateInstanceQR(ctx, instanceName, qr); err != nil {
		logrus.WithError(err).Warnf("[WEBHOOK] Failed to store QR for instance %s", instanceName)
	}
}

func (s *ingestService) applyConnectionUpdate(ctx context.Context, instanceName string, payload map[string]any) {
	state := firstPayloadString(payload,
		[]string{"data", "state"},
		[]string{"data", "status"},
		[]string{"state"},
		[]string{"status"},
	)
	if state == "" {
		return
	}
	if err := s.tenants.UpdateInstanceStatus(ctx, instanceName, state); err != nil {
		logrus.WithError(err).Warnf("[WEBHOOK] Failed to store connection state for instance %s", instanceName)
	}
}

func firstPayloadString(payload map[string]any, paths ...[]string) string {
	for _, path := range paths {
		var cur any = payload
		for _, k := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				cur = nil
				break
			}
			cur = m[k]
		}
		if s, ok := cur.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
