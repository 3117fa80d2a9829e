package service

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
)

type NoteRequest struct {
	Text            string `json:"text" validate:"required,max=10000"`
	VisibleToClient bool   `json:"visible_to_client"`
}

type NoteResponse struct {
	ID              int    `json:"id"`
	AppointmentID   int    `json:"appointment_id"`
	AuthorID        int    `json:"author_id"`
	Text            string `json:"text"`
	VisibleToClient bool   `json:"visible_to_client"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type DefaultNoteService struct {
	Store    *repository.Store
	Validate *validator.Validate
}

func NewNoteService(store *repository.Store, validate *validator.Validate) *DefaultNoteService {
	return &DefaultNoteService{Store: store, Validate: validate}
}

// PutNote creates or replaces the appointment's note while the session is active.
func (n *DefaultNoteService) PutNote(ctx context.Context, consultantID, appointmentID int, req *NoteRequest) (*NoteResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(n.Validate, req); apierr != nil {
		return nil, apierr
	}

	var note *entity.SessionNote
	err := n.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		sess, err := loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if err = authorizeNoteWrite(sess, consultantID); err != nil {
			return err
		}

		now := utils.NowUTC()
		note = &entity.SessionNote{
			AppointmentID:   appointmentID,
			AuthorID:        consultantID,
			Text:            req.Text,
			VisibleToClient: req.VisibleToClient,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err = tx.Notes().Upsert(note); err != nil {
			return fmt.Errorf("save note of appointment %d: %w", appointmentID, err)
		}
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}
	return toNoteResponse(note), nil
}

// GetNote hides notes the consultant has not shared from the client.
func (n *DefaultNoteService) GetNote(ctx context.Context, userID, appointmentID int) (*NoteResponse, apierror.ErrorResponse) {
	store := n.Store.WithContext(ctx)
	sess, err := loadSessionByAppointment(store, appointmentID)
	if err != nil {
		return nil, apierror.FromError(err)
	}

	if err = authorizeSessionRead(sess, userID); err != nil {
		return nil, apierror.FromError(err)
	}

	note, err := store.Notes().FindByAppointmentID(appointmentID)
	if err != nil {
		return nil, apierror.FromError(fmt.Errorf("find note of appointment %d: %w", appointmentID, err))
	}

	if note == nil {
		return nil, apierror.NotFound("Note not found")
	}

	if sess.isClient(userID) && !note.VisibleToClient {
		return nil, apierror.Forbidden("Note is not shared with the client")
	}
	return toNoteResponse(note), nil
}

func toNoteResponse(note *entity.SessionNote) *NoteResponse {
	return &NoteResponse{
		ID:              note.ID,
		AppointmentID:   note.AppointmentID,
		AuthorID:        note.AuthorID,
		Text:            note.Text,
		VisibleToClient: note.VisibleToClient,
		CreatedAt:       utils.FormatEpoch(note.CreatedAt),
		UpdatedAt:       utils.FormatEpoch(note.UpdatedAt),
	}
}
