package rest

import (
	"github.com/gofiber/fiber/v2"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	pkgError "github.com/oneelevenhq/leadbridge/pkg/error"
	"github.com/oneelevenhq/leadbridge/pkg/utils"
)

type Instance struct {
	Service domainTenant.ITenantUsecase
}

func InitRestInstance(app fiber.Router, service domainTenant.ITenantUsecase) Instance {
	rest := Instance{Service: service}
	app.Post("/instances", rest.Create)
	app.Get("/instances", rest.List)
	return rest
}

// Create registers a local instance record and returns the webhook URL to
// configure on the gateway. It never calls the gateway itself.
func (handler *Instance) Create(c *fiber.Ctx) error {
	var request domainTenant.CreateInstanceRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	response, err := handler.Service.CreateInstance(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instance created",
		Results: response,
	})
}

func (handler *Instance) List(c *fiber.Ctx) error {
	workspaceID := c.Query("workspace_id")
	if workspaceID == "" {
		utils.PanicIfNeeded(pkgError.ValidationError("workspace_id: cannot be blank."))
	}

	instances, err := handler.Service.ListInstances(c.UserContext(), workspaceID)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Instances retrieved",
		Results: instances,
	})
}
