package rest

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	domainIngest "github.com/oneelevenhq/leadbridge/domains/ingest"
	"github.com/sirupsen/logrus"
)

type Webhook struct {
	Service domainIngest.IIngestUsecase
}

// InitRestWebhook registers the gateway-facing route. It lives outside the
// basic-auth API group: the caller is the gateway provider, authenticated
// by HMAC signature, not by admin credentials.
func InitRestWebhook(app fiber.Router, service domainIngest.IIngestUsecase) Webhook {
	rest := Webhook{Service: service}
	app.Post("/webhook/inbound", rest.Inbound)
	app.Options("/webhook/inbound", rest.Preflight)
	return rest
}

// Inbound always answers HTTP 200. Gateways retry aggressively on non-2xx,
// so every business outcome (auth failure, missing fields, forward
// failure) travels in the response body instead.
func (handler *Webhook) Inbound(c *fiber.Ctx) error {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[WEBHOOK] Panic while processing inbound event: %v", r)
			_ = c.Status(fiber.StatusOK).JSON(domainIngest.WebhookResponse{
				Ok:      true,
				DebugID: domainIngest.NewDebugID(),
				Error:   fmt.Sprintf("%v", r),
			})
		}
	}()

	req := domainIngest.WebhookRequest{
		WorkspaceID:  c.Query("workspace_id"),
		InstanceName: c.Query("instance"),
		Signature:    c.Query("sig"),
		URLToken:     c.Query("api_token"),
		Body:         c.Body(),
	}

	resp := handler.Service.ProcessInbound(c.UserContext(), req)
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (handler *Webhook) Preflight(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
