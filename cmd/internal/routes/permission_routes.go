package routes

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
)

type PermissionService interface {
	Grant(ctx context.Context, clientID int, req *service.GrantRequest) (*service.PermissionResponse, apierror.ErrorResponse)
	GrantForAppointment(ctx context.Context, clientID, appointmentID int, req *service.SessionGrantRequest) (*service.PermissionResponse, apierror.ErrorResponse)
	Revoke(ctx context.Context, clientID int, req *service.RevokeRequest) apierror.ErrorResponse
	List(ctx context.Context, clientID int) ([]*service.PermissionResponse, apierror.ErrorResponse)
	ForAppointment(ctx context.Context, userID, appointmentID int) ([]*service.PermissionResponse, apierror.ErrorResponse)
}

type AuditService interface {
	ListForSubject(ctx context.Context, subjectID int) ([]*service.AuditResponse, apierror.ErrorResponse)
}

type DefaultPermissionRoute struct {
	PermissionService PermissionService
	AuditService      AuditService
}

func NewPermissionDefault(permService PermissionService, auditService AuditService) *DefaultPermissionRoute {
	return &DefaultPermissionRoute{PermissionService: permService, AuditService: auditService}
}

func (p *DefaultPermissionRoute) List(c echo.Context) error {
	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	perms, apierr := p.PermissionService.List(c.Request().Context(), clientID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"permissions": perms}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultPermissionRoute) Grant(c echo.Context) error {
	var req service.GrantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	perm, apierr := p.PermissionService.Grant(c.Request().Context(), clientID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, perm)
}

func (p *DefaultPermissionRoute) Revoke(c echo.Context) error {
	var req service.RevokeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	apierr := p.PermissionService.Revoke(c.Request().Context(), clientID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.NoContent(http.StatusOK)
}

func (p *DefaultPermissionRoute) Audit(c echo.Context) error {
	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	entries, apierr := p.AuditService.ListForSubject(c.Request().Context(), clientID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"entries": entries}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultPermissionRoute) ListForAppointment(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	perms, apierr := p.PermissionService.ForAppointment(c.Request().Context(), userID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"permissions": perms}
	return c.JSON(http.StatusOK, &resp)
}

func (p *DefaultPermissionRoute) GrantForAppointment(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.SessionGrantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	perm, apierr := p.PermissionService.GrantForAppointment(c.Request().Context(), clientID, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, perm)
}
