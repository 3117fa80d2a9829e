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

type ResolveRequest struct {
	Status string `json:"status" validate:"required,oneof=cancelled no_show"`
}

type AppointmentResponse struct {
	ID            int    `json:"id"`
	ApplicationID *int   `json:"application_id,omitempty"`
	ClientID      int    `json:"client_id"`
	ConsultantID  int    `json:"consultant_id"`
	BeginsAt      string `json:"begins_at"`
	EndsAt        string `json:"ends_at"`
	Status        string `json:"status"`
	RoomID        *int   `json:"room_id,omitempty"`
	RoomStatus    string `json:"room_status,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type ScheduledDay struct {
	BeginsAt string `json:"begins_at"`
	EndsAt   string `json:"ends_at"`
}

type CalendarResponse struct {
	ConsultantID  int             `json:"consultant_id"`
	ScheduledDays []*ScheduledDay `json:"scheduled_days"`
}

type DefaultAppointmentService struct {
	Store    *repository.Store
	Validate *validator.Validate
	Events   events.Publisher
}

func NewAppointmentService(store *repository.Store, validate *validator.Validate, pub events.Publisher) *DefaultAppointmentService {
	return &DefaultAppointmentService{Store: store, Validate: validate, Events: pub}
}

func (a *DefaultAppointmentService) ListForClient(ctx context.Context, clientID int) ([]*AppointmentResponse, apierror.ErrorResponse) {
	store := a.Store.WithContext(ctx)
	appts, err := store.Appointments().FindByClientID(clientID)
	if err != nil {
		log.Errorf("failed to find appointments for client %d: %v", clientID, err)
		return nil, apierror.StorageUnavailableError
	}
	return a.withRooms(store, appts)
}

func (a *DefaultAppointmentService) ListForConsultant(ctx context.Context, consultantID int) ([]*AppointmentResponse, apierror.ErrorResponse) {
	store := a.Store.WithContext(ctx)
	appts, err := store.Appointments().FindByConsultantID(consultantID)
	if err != nil {
		log.Errorf("failed to find appointments for consultant %d: %v", consultantID, err)
		return nil, apierror.StorageUnavailableError
	}
	return a.withRooms(store, appts)
}

// GetRoom returns the session room of an appointment the caller takes part in.
func (a *DefaultAppointmentService) GetRoom(ctx context.Context, userID, appointmentID int) (*RoomResponse, apierror.ErrorResponse) {
	sess, err := loadSessionByAppointment(a.Store.WithContext(ctx), appointmentID)
	if err != nil {
		return nil, apierror.FromError(err)
	}

	if err = sess.requireParticipant(userID); err != nil {
		return nil, apierror.FromError(err)
	}
	return toRoomResponse(sess.Room), nil
}

// Resolve closes a scheduled appointment that never took place.
func (a *DefaultAppointmentService) Resolve(ctx context.Context, consultantID, appointmentID int, req *ResolveRequest) (*AppointmentResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(a.Validate, req); apierr != nil {
		return nil, apierr
	}

	target := entity.AppointmentStatus(req.Status)

	var sess *session
	err := a.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		sess, err = loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if err = sess.requireConsultant(consultantID); err != nil {
			return err
		}

		if sess.Room.Status != entity.RoomNotStarted {
			return apierror.Conflict(fmt.Sprintf("Session is %s", sess.Room.Status))
		}

		if !sess.Appointment.Status.CanTransition(target) {
			return apierror.Conflict(fmt.Sprintf("Appointment is already %s", sess.Appointment.Status))
		}

		now := utils.NowUTC()
		ok, err := tx.Appointments().TransitionStatus(appointmentID, sess.Appointment.Status, target, now)
		if err != nil {
			return fmt.Errorf("resolve appointment %d: %w", appointmentID, err)
		}
		if !ok {
			return apierror.Conflict("Appointment was resolved concurrently")
		}

		sess.Appointment.Status = target
		sess.Appointment.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	appt := sess.Appointment
	publish(ctx, a.Events, events.New(events.AppointmentResolved, consultantID, appt.ClientID, appt.ConsultantID, &appt.ID).With("status", string(target)))
	return toAppointmentResponse(appt, sess.Room), nil
}

// GetCalendar lists the consultant's booked slots in [monthStart, monthEnd).
func (a *DefaultAppointmentService) GetCalendar(ctx context.Context, consultantID int, monthStart, monthEnd int64) (*CalendarResponse, apierror.ErrorResponse) {
	appts, err := a.Store.WithContext(ctx).Appointments().FindMonthAppointments(consultantID, monthStart, monthEnd)
	if err != nil {
		log.Errorf("failed to fetch consultant %d calendar [%d - %d]: %v", consultantID, monthStart, monthEnd, err)
		return nil, apierror.StorageUnavailableError
	}

	schedDays := make([]*ScheduledDay, len(appts))
	for i, appt := range appts {
		schedDays[i] = toScheduledDay(appt)
	}

	calendar := &CalendarResponse{
		ConsultantID:  consultantID,
		ScheduledDays: schedDays,
	}
	return calendar, nil
}

func (a *DefaultAppointmentService) withRooms(store *repository.Store, appts []*entity.Appointment) ([]*AppointmentResponse, apierror.ErrorResponse) {
	ids := make([]int, len(appts))
	for i, appt := range appts {
		ids[i] = appt.ID
	}

	rooms, err := store.Rooms().FindByAppointmentIDs(ids)
	if err != nil {
		log.Errorf("failed to fetch rooms for %d appointments: %v", len(ids), err)
		return nil, apierror.StorageUnavailableError
	}

	response := make([]*AppointmentResponse, len(appts))
	for i, appt := range appts {
		response[i] = toAppointmentResponse(appt, rooms[appt.ID])
	}
	return response, nil
}

func toScheduledDay(appt *entity.Appointment) *ScheduledDay {
	return &ScheduledDay{
		BeginsAt: utils.FormatEpoch(appt.BeginsAt),
		EndsAt:   utils.FormatEpoch(appt.EndsAt),
	}
}

func toAppointmentResponse(appt *entity.Appointment, room *entity.SessionRoom) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:            appt.ID,
		ApplicationID: appt.ApplicationID,
		ClientID:      appt.ClientID,
		ConsultantID:  appt.ConsultantID,
		Status:        string(appt.Status),
		BeginsAt:      utils.FormatEpoch(appt.BeginsAt),
		EndsAt:        utils.FormatEpoch(appt.EndsAt),
		CreatedAt:     utils.FormatEpoch(appt.CreatedAt),
		UpdatedAt:     utils.FormatEpoch(appt.UpdatedAt),
	}
	if room != nil {
		resp.RoomID = &room.ID
		resp.RoomStatus = string(room.Status)
	}
	return resp
}
