package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	domainTenant "github.com/oneelevenhq/leadbridge/domains/tenant"
	pkgError "github.com/oneelevenhq/leadbridge/pkg/error"
)

func ValidateCreateWorkspace(ctx context.Context, request domainTenant.CreateWorkspaceRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&request.ForwardToken, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateCreateInstance(ctx context.Context, request domainTenant.CreateInstanceRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.WorkspaceID, validation.Required),
		validation.Field(&request.InstanceName, validation.Required, validation.Length(1, 120)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
