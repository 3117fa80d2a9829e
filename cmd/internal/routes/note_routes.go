package routes

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
	"nutricare/cmd/internal/service"
	"nutricare/cmd/internal/utils/apierror"
)

type NoteService interface {
	PutNote(ctx context.Context, consultantID, appointmentID int, req *service.NoteRequest) (*service.NoteResponse, apierror.ErrorResponse)
	GetNote(ctx context.Context, userID, appointmentID int) (*service.NoteResponse, apierror.ErrorResponse)
}

type DefaultNoteRoute struct {
	NoteService NoteService
}

func NewNoteDefault(noteService NoteService) *DefaultNoteRoute {
	return &DefaultNoteRoute{NoteService: noteService}
}

func (n *DefaultNoteRoute) GetNote(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	userID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	note, apierr := n.NoteService.GetNote(c.Request().Context(), userID, id)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}

func (n *DefaultNoteRoute) PutNote(c echo.Context) error {
	id, apierr := intParam(c, "id")
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}

	var req service.NoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.MalformedBodyError)
	}

	consultantID, ok := principalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apierror.InvalidAuthTokenError)
	}

	note, apierr := n.NoteService.PutNote(c.Request().Context(), consultantID, id, &req)
	if apierr != nil {
		return c.JSON(apierr.Code(), apierr)
	}
	return c.JSON(http.StatusOK, note)
}
