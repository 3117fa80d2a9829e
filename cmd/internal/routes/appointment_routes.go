package routes

import (
	"context"
	"errors"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
	"time"
)

type AppointmentService interface {
	ListForClient(ctx context.Context, clientID int) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	ListForConsultant(ctx context.Context, consultantID int) ([]*service.AppointmentResponse, apierror.ErrorResponse)
	GetRoom(ctx context.Context, userID, appointmentID int) (*service.RoomResponse, apierror.ErrorResponse)
	Resolve(ctx context.Context, consultantID, appointmentID int, req *service.ResolveRequest) (*service.AppointmentResponse, apierror.ErrorResponse)
	GetCalendar(ctx context.Context, consultantID int, monthStart, monthEnd int64) (*service.CalendarResponse, apierror.ErrorResponse)
}

type DefaultAppointmentRoute struct {
	AppointmentService AppointmentService
}

func NewAppointmentDefault(apptService AppointmentService) *DefaultAppointmentRoute {
	return &DefaultAppointmentRoute{AppointmentService: apptService}
}

func (a *DefaultAppointmentRoute) ListMine(c echo.Context) error {
	clientID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appts, apierr := a.AppointmentService.ListForClient(c.Request().Context(), clientID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) ListConsultant(c echo.Context) error {
	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appts, apierr := a.AppointmentService.ListForConsultant(c.Request().Context(), consultantID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	resp := echo.Map{"appointments": appts}
	return c.JSON(http.StatusOK, &resp)
}

func (a *DefaultAppointmentRoute) GetRoom(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	room, apierr := a.AppointmentService.GetRoom(c.Request().Context(), userID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, room)
}

func (a *DefaultAppointmentRoute) Resolve(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.ResolveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	appt, apierr := a.AppointmentService.Resolve(c.Request().Context(), consultantID, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, appt)
}

func (a *DefaultAppointmentRoute) GetCalendar(c echo.Context) error {
	monthStr := c.QueryParam("month") // "2025-08"
	if monthStr == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewMissingParamError("month"))
	}

	monthStartMillis, monthEndMillis, err := parseMonthString(monthStr)
	if err != nil {
		apierr := apierror.NewSimple(http.StatusBadRequest, "Could not understand month format")
		return c.JSON(apierr.Code(), apierr)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	calendar, apierr := a.AppointmentService.GetCalendar(c.Request().Context(), consultantID, monthStartMillis, monthEndMillis)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, &calendar)
}

// parseMonthString takes "YYYY-MM" (e.g., "2025-08") and returns
// the start of that month and the start of the next month as epoch millis.
func parseMonthString(monthString string) (int64, int64, error) {
	t, err := time.Parse("2006-01", monthString)
	if err != nil {
		return 0, 0, errors.New("invalid month format, expected YYYY-MM")
	}

	monthStart := t.UTC()
	monthEnd := monthStart.AddDate(0, 1, 0)
	return monthStart.UnixMilli(), monthEnd.UnixMilli(), nil
}
