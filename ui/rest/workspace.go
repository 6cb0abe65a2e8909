package rest

import (
	"github.com/gofiber/fiber/v2"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	"github.com/oneelevenhq/leadbridge/pkg/utils"
)

type Workspace struct {
	Service domainTenant.ITenantUsecase
}

func InitRestWorkspace(app fiber.Router, service domainTenant.ITenantUsecase) Workspace {
	rest := Workspace{Service: service}
	app.Post("/workspaces", rest.Create)
	app.Get("/workspaces", rest.List)
	app.Get("/workspaces/:id", rest.Get)
	app.Put("/workspaces/:id/token", rest.RotateToken)
	return rest
}

func (handler *Workspace) Create(c *fiber.Ctx) error {
	var request domainTenant.CreateWorkspaceRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	workspace, err := handler.Service.CreateWorkspace(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Workspace created",
		Results: workspace,
	})
}

func (handler *Workspace) List(c *fiber.Ctx) error {
	workspaces, err := handler.Service.ListWorkspaces(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Workspaces retrieved",
		Results: workspaces,
	})
}

// RotateToken replaces a workspace's forwarding credential. The webhook URL
// stays valid; only lookup-mode resolution changes.
func (handler *Workspace) RotateToken(c *fiber.Ctx) error {
	var request struct {
		ForwardToken string `json:"forward_token"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = handler.Service.RotateForwardToken(c.UserContext(), c.Params("id"), request.ForwardToken)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Forward token rotated",
	})
}

func (handler *Workspace) Get(c *fiber.Ctx) error {
	workspace, err := handler.Service.GetWorkspace(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Workspace retrieved",
		Results: workspace,
	})
}
