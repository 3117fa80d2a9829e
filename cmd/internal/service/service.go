package service

import (
	"context"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
)

type RoomResponse struct {
	ID            int     `json:"id"`
	AppointmentID int     `json:"appointment_id"`
	Status        string  `json:"status"`
	StartedAt     *string `json:"started_at,omitempty"`
	EndedAt       *string `json:"ended_at,omitempty"`
	StartedBy     *int    `json:"started_by,omitempty"`
	EndedBy       *int    `json:"ended_by,omitempty"`
}

func checkRequest(validate *validator.Validate, req any) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}
	return nil
}

// publish is best effort: the state change is already committed.
func publish(ctx context.Context, pub events.Publisher, evt events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(context.WithoutCancel(ctx), evt); err != nil {
		log.Warnf("failed to publish %s event %s: %v", evt.Type, evt.ID, err)
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toRoomResponse(room *entity.SessionRoom) *RoomResponse {
	return &RoomResponse{
		ID:            room.ID,
		AppointmentID: room.AppointmentID,
		Status:        string(room.Status),
		StartedAt:     utils.FormatEpochPtr(room.StartedAt),
		EndedAt:       utils.FormatEpochPtr(room.EndedAt),
		StartedBy:     room.StartedBy,
		EndedBy:       room.EndedBy,
	}
}
