package routes

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
)

type ApplicationService interface {
	Apply(ctx context.Context, clientID int, req *service.ApplyRequest) (*service.ApplicationResponse, apierror.ErrorResponse)
	ListForClient(ctx context.Context, clientID int) ([]*service.ApplicationResponse, apierror.ErrorResponse)
	ListForConsultant(ctx context.Context, consultantID int) ([]*service.ApplicationResponse, apierror.ErrorResponse)
	Reject(ctx context.Context, consultantID, applicationID int) (*service.ApplicationResponse, apierror.ErrorResponse)
	Cancel(ctx context.Context, clientID, applicationID int) (*service.ApplicationResponse, apierror.ErrorResponse)
	AcceptAndSchedule(ctx context.Context, consultantID, applicationID int, req *service.ScheduleRequest) (*service.ScheduleResponse, apierror.ErrorResponse)
}

type DefaultApplicationRoute struct {
	ApplicationService ApplicationService
}

func NewApplicationDefault(appService ApplicationService) *DefaultApplicationRoute {
	return &DefaultApplicationRoute{ApplicationService: appService}
}

func (a *DefaultApplicationRoute) Apply(c echo.Context) error {
	var req service.ApplyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	app, apierr := a.ApplicationService.Apply(c.Request().Context(), clientID, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusCreated, app)
}

func (a *DefaultApplicationRoute) ListMine(c echo.Context) error {
	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	apps, apierr := a.ApplicationService.ListForClient(c.Request().Context(), clientID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"applications": apps}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultApplicationRoute) ListIncoming(c echo.Context) error {
	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	apps, apierr := a.ApplicationService.ListForConsultant(c.Request().Context(), consultantID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"applications": apps}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultApplicationRoute) Reject(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	app, apierr := a.ApplicationService.Reject(c.Request().Context(), consultantID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, app)
}

func (a *DefaultApplicationRoute) Cancel(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	app, apierr := a.ApplicationService.Cancel(c.Request().Context(), clientID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, app)
}

func (a *DefaultApplicationRoute) Accept(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	scheduled, apierr := a.ApplicationService.AcceptAndSchedule(c.Request().Context(), consultantID, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, scheduled)
}
