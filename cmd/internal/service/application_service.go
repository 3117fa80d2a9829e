package service

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
)

type ApplyRequest struct {
	ConsultantID int    `json:"consultant_id" validate:"required,gt=0"`
	Note         string `json:"note" validate:"max=2000"`
}

type ScheduleRequest struct {
	BeginsAt string `json:"begins_at" validate:"required,iso8601"`
	EndsAt   string `json:"ends_at" validate:"required,iso8601"`
}

type ApplicationResponse struct {
	ID           int     `json:"id"`
	ClientID     int     `json:"client_id"`
	ConsultantID int     `json:"consultant_id"`
	Note         *string `json:"note,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type ScheduleResponse struct {
	Application *ApplicationResponse `json:"application"`
	Appointment *AppointmentResponse `json:"appointment"`
	Room        *RoomResponse        `json:"room"`
}

type DefaultApplicationService struct {
	Store    *repository.Store
	Validate *validator.Validate
	Events   events.Publisher
}

func NewApplicationService(store *repository.Store, validate *validator.Validate, pub events.Publisher) *DefaultApplicationService {
	return &DefaultApplicationService{Store: store, Validate: validate, Events: pub}
}

func (a *DefaultApplicationService) Apply(ctx context.Context, clientID int, req *ApplyRequest) (*ApplicationResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(a.Validate, req); apierr != nil {
		return nil, apierr
	}

	if req.ConsultantID == clientID {
		return nil, apierror.Validation("Cannot apply to yourself")
	}

	store := a.Store.WithContext(ctx)
	consultant, err := store.Users().FindByID(req.ConsultantID)
	if err != nil {
		log.Errorf("failed to fetch consultant %d: %v", req.ConsultantID, err)
		return nil, apierror.StorageUnavailableError
	}

	if consultant == nil {
		return nil, apierror.NotFound("Consultant not found")
	}

	if consultant.Role != entity.RoleConsultant {
		return nil, apierror.Validation(fmt.Sprintf("User %d is not a consultant", consultant.ID))
	}

	now := utils.NowUTC()
	app := &entity.Application{
		ClientID:     clientID,
		ConsultantID: consultant.ID,
		Note:         optionalString(req.Note),
		Status:       entity.ApplicationSubmitted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = store.Applications().Create(app); err != nil {
		log.Errorf("failed to save application from client %d: %v", clientID, err)
		return nil, apierror.StorageUnavailableError
	}

	publish(ctx, a.Events, events.New(events.ApplicationSubmitted, clientID, clientID, consultant.ID, nil).With("application_id", app.ID))
	return toApplicationResponse(app), nil
}

func (a *DefaultApplicationService) ListForClient(ctx context.Context, clientID int) ([]*ApplicationResponse, apierror.ErrorResponse) {
	apps, err := a.Store.WithContext(ctx).Applications().FindByClientID(clientID)
	if err != nil {
		log.Errorf("failed to find applications of client %d: %v", clientID, err)
		return nil, apierror.StorageUnavailableError
	}
	return toApplicationResponses(apps), nil
}

func (a *DefaultApplicationService) ListForConsultant(ctx context.Context, consultantID int) ([]*ApplicationResponse, apierror.ErrorResponse) {
	apps, err := a.Store.WithContext(ctx).Applications().FindByConsultantID(consultantID)
	if err != nil {
		log.Errorf("failed to find applications of consultant %d: %v", consultantID, err)
		return nil, apierror.StorageUnavailableError
	}
	return toApplicationResponses(apps), nil
}

// Reject closes a submitted application addressed to the consultant.
func (a *DefaultApplicationService) Reject(ctx context.Context, consultantID, applicationID int) (*ApplicationResponse, apierror.ErrorResponse) {
	var app *entity.Application
	err := a.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		app, err = transitionApplication(tx, applicationID, entity.ApplicationRejected, func(app *entity.Application) bool {
			return app.ConsultantID == consultantID
		})
		return err
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	publish(ctx, a.Events, events.New(events.ApplicationRejected, consultantID, app.ClientID, app.ConsultantID, nil).With("application_id", app.ID))
	return toApplicationResponse(app), nil
}

// Cancel withdraws the client's own submitted application.
func (a *DefaultApplicationService) Cancel(ctx context.Context, clientID, applicationID int) (*ApplicationResponse, apierror.ErrorResponse) {
	var app *entity.Application
	err := a.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		app, err = transitionApplication(tx, applicationID, entity.ApplicationCancelled, func(app *entity.Application) bool {
			return app.ClientID == clientID
		})
		return err
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	publish(ctx, a.Events, events.New(events.ApplicationCancelled, clientID, app.ClientID, app.ConsultantID, nil).With("application_id", app.ID))
	return toApplicationResponse(app), nil
}

// AcceptAndSchedule accepts the application and creates its appointment and
// not_started room in one transaction. Either all three exist afterwards or none.
func (a *DefaultApplicationService) AcceptAndSchedule(ctx context.Context, consultantID, applicationID int, req *ScheduleRequest) (*ScheduleResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(a.Validate, req); apierr != nil {
		return nil, apierr
	}

	begin, err := utils.FromEpoch(req.BeginsAt)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}

	end, err := utils.FromEpoch(req.EndsAt)
	if err != nil {
		return nil, apierror.MalformedBodyError
	}

	var (
		app  *entity.Application
		appt *entity.Appointment
		room *entity.SessionRoom
	)
	err = a.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		app, err = loadApplication(tx, applicationID, func(app *entity.Application) bool {
			return app.ConsultantID == consultantID
		})
		if err != nil {
			return err
		}

		if !app.Status.CanTransition(entity.ApplicationAccepted) {
			return apierror.Conflict(fmt.Sprintf("Application is already %s", app.Status))
		}

		if end <= begin {
			return apierror.Validation("Appointment must end after it begins")
		}

		now := utils.NowUTC()
		ok, err := tx.Applications().TransitionStatus(app.ID, app.Status, entity.ApplicationAccepted, now)
		if err != nil {
			return fmt.Errorf("accept application %d: %w", app.ID, err)
		}
		if !ok {
			return apierror.Conflict("Application was resolved concurrently")
		}
		app.Status = entity.ApplicationAccepted
		app.UpdatedAt = now

		appt = &entity.Appointment{
			ApplicationID: &app.ID,
			ClientID:      app.ClientID,
			ConsultantID:  app.ConsultantID,
			BeginsAt:      begin,
			EndsAt:        end,
			Status:        entity.AppointmentScheduled,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err = tx.Appointments().Create(appt); err != nil {
			return fmt.Errorf("create appointment for application %d: %w", app.ID, err)
		}

		room = &entity.SessionRoom{
			AppointmentID: appt.ID,
			Status:        entity.RoomNotStarted,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err = tx.Rooms().Create(room); err != nil {
			return fmt.Errorf("create room for appointment %d: %w", appt.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	publish(ctx, a.Events, events.New(events.ApplicationAccepted, consultantID, app.ClientID, app.ConsultantID, &appt.ID).With("application_id", app.ID))
	return &ScheduleResponse{
		Application: toApplicationResponse(app),
		Appointment: toAppointmentResponse(appt, room),
		Room:        toRoomResponse(room),
	}, nil
}

// loadApplication fails with NotFound when the application is missing and with
// Forbidden when owns rejects the caller.
func loadApplication(tx *repository.Store, id int, owns func(*entity.Application) bool) (*entity.Application, error) {
	app, err := tx.Applications().FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("find application %d: %w", id, err)
	}

	if app == nil {
		return nil, apierror.NotFound("Application not found")
	}

	if !owns(app) {
		return nil, apierror.Forbidden("Application belongs to someone else")
	}
	return app, nil
}

func transitionApplication(tx *repository.Store, id int, to entity.ApplicationStatus, owns func(*entity.Application) bool) (*entity.Application, error) {
	app, err := loadApplication(tx, id, owns)
	if err != nil {
		return nil, err
	}

	if !app.Status.CanTransition(to) {
		return nil, apierror.Conflict(fmt.Sprintf("Application is already %s", app.Status))
	}

	now := utils.NowUTC()
	ok, err := tx.Applications().TransitionStatus(app.ID, app.Status, to, now)
	if err != nil {
		return nil, fmt.Errorf("move application %d to %s: %w", app.ID, to, err)
	}
	if !ok {
		return nil, apierror.Conflict("Application was resolved concurrently")
	}

	app.Status = to
	app.UpdatedAt = now
	return app, nil
}

func toApplicationResponses(apps []*entity.Application) []*ApplicationResponse {
	resp := make([]*ApplicationResponse, len(apps))
	for i, app := range apps {
		resp[i] = toApplicationResponse(app)
	}
	return resp
}

func toApplicationResponse(app *entity.Application) *ApplicationResponse {
	return &ApplicationResponse{
		ID:           app.ID,
		ClientID:     app.ClientID,
		ConsultantID: app.ConsultantID,
		Note:         app.Note,
		Status:       string(app.Status),
		CreatedAt:    utils.FormatEpoch(app.CreatedAt),
		UpdatedAt:    utils.FormatEpoch(app.UpdatedAt),
	}
}
