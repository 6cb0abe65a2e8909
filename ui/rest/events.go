package rest

import (
	"github.com/gofiber/fiber/v2"
	domainEventlog "github.com/oneelevenhq/leadbridge/domains/eventlog"
	pkgError "github.com/oneelevenhq/leadbridge/pkg/error"
	"github.com/oneelevenhq/leadbridge/pkg/utils"
)

type Events struct {
	Service domainEventlog.IEventLogUsecase
}

func InitRestEvents(app fiber.Router, service domainEventlog.IEventLogUsecase) Events {
	rest := Events{Service: service}
	app.Get("/events", rest.List)
	return rest
}

// List pages through the raw inbound event log for one workspace.
func (handler *Events) List(c *fiber.Ctx) error {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		utils.PanicIfNeeded(pkgError.ValidationError("workspace_id: cannot be blank."))
	}

	events, err := handler.Service.List(c.UserContext(), workspaceID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Events retrieved",
		Results: events,
	})
}
