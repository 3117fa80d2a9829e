package routes

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
)

type HealthService interface {
	ClientHealth(ctx context.Context, consultantID, appointmentID int, resource entity.Resource) (*service.HealthSnapshot, apierror.ErrorResponse)
	OwnHealth(ctx context.Context, userID int) (*service.HealthSnapshot, apierror.ErrorResponse)
	PutOwnTarget(ctx context.Context, userID int, req *service.NutritionTargetRequest) (*entity.NutritionTarget, apierror.ErrorResponse)
	PutOwnGoal(ctx context.Context, userID int, req *service.GoalRequest) (*entity.UserGoal, apierror.ErrorResponse)
	PutOwnData(ctx context.Context, userID int, req *service.UserDataRequest) (*entity.UserData, apierror.ErrorResponse)
	PutClientTarget(ctx context.Context, consultantID, clientID int, appointmentID *int, req *service.NutritionTargetRequest) (*entity.NutritionTarget, apierror.ErrorResponse)
	PutClientGoal(ctx context.Context, consultantID, clientID int, appointmentID *int, req *service.GoalRequest) (*entity.UserGoal, apierror.ErrorResponse)
	PutClientData(ctx context.Context, consultantID, clientID int, appointmentID *int, req *service.UserDataRequest) (*entity.UserData, apierror.ErrorResponse)
}

type DefaultHealthRoute struct {
	HealthService HealthService
}

func NewHealthDefault(healthService HealthService) *DefaultHealthRoute {
	return &DefaultHealthRoute{HealthService: healthService}
}

// GetClientHealth serves both the full snapshot and a single resource.
func (h *DefaultHealthRoute) GetClientHealth(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	resource := entity.Resource(c.Param("resource"))
	snap, apierr := h.HealthService.ClientHealth(c.Request().Context(), consultantID, id, resource)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *DefaultHealthRoute) GetOwnHealth(c echo.Context) error {
	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	snap, apierr := h.HealthService.OwnHealth(c.Request().Context(), userID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *DefaultHealthRoute) PutOwnTarget(c echo.Context) error {
	var req service.NutritionTargetRequest
	return putOwn(c, &req, func(ctx context.Context, userID int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutOwnTarget(ctx, userID, &req)
	})
}

func (h *DefaultHealthRoute) PutOwnGoal(c echo.Context) error {
	var req service.GoalRequest
	return putOwn(c, &req, func(ctx context.Context, userID int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutOwnGoal(ctx, userID, &req)
	})
}

func (h *DefaultHealthRoute) PutOwnData(c echo.Context) error {
	var req service.UserDataRequest
	return putOwn(c, &req, func(ctx context.Context, userID int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutOwnData(ctx, userID, &req)
	})
}

func (h *DefaultHealthRoute) PutClientTarget(c echo.Context) error {
	var req service.NutritionTargetRequest
	return putClient(c, &req, func(ctx context.Context, consultantID, clientID int, apptID *int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutClientTarget(ctx, consultantID, clientID, apptID, &req)
	})
}

func (h *DefaultHealthRoute) PutClientGoal(c echo.Context) error {
	var req service.GoalRequest
	return putClient(c, &req, func(ctx context.Context, consultantID, clientID int, apptID *int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutClientGoal(ctx, consultantID, clientID, apptID, &req)
	})
}

func (h *DefaultHealthRoute) PutClientData(c echo.Context) error {
	var req service.UserDataRequest
	return putClient(c, &req, func(ctx context.Context, consultantID, clientID int, apptID *int) (any, apierror.ErrorResponse) {
		return h.HealthService.PutClientData(ctx, consultantID, clientID, apptID, &req)
	})
}

func putOwn(c echo.Context, req any, write func(ctx context.Context, userID int) (any, apierror.ErrorResponse)) error {
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	record, apierr := write(c.Request().Context(), userID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, record)
}

func putClient(c echo.Context, req any, write func(ctx context.Context, consultantID, clientID int, apptID *int) (any, apierror.ErrorResponse)) error {
	clientID, apierr := intParam(c, "userId")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	apptID, apierr := optionalIntQuery(c, "appointment_id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	record, apierr := write(c.Request().Context(), consultantID, clientID, apptID)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, record)
}
