package routes

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
)

type SessionService interface {
	Start(ctx context.Context, consultantID, appointmentID int) (*service.RoomResponse, apierror.ErrorResponse)
	End(ctx context.Context, consultantID, appointmentID int) (*service.RoomResponse, apierror.ErrorResponse)
}

type DefaultSessionRoute struct {
	SessionService SessionService
}

func NewSessionDefault(sessionService SessionService) *DefaultSessionRoute {
	return &DefaultSessionRoute{SessionService: sessionService}
}

func (s *DefaultSessionRoute) Start(c echo.Context) error {
	return s.transition(c, s.SessionService.Start)
}

func (s *DefaultSessionRoute) End(c echo.Context) error {
	return s.transition(c, s.SessionService.End)
}

func (s *DefaultSessionRoute) transition(c echo.Context, fn func(ctx context.Context, consultantID, appointmentID int) (*service.RoomResponse, apierror.ErrorResponse)) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	room, apierr := fn(c.Request().Context(), consultantID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, room)
}
