package service

import (
	"context"
	"fmt"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
)

type DefaultSessionService struct {
	Store  *repository.Store
	Events events.Publisher
}

func NewSessionService(store *repository.Store, pub events.Publisher) *DefaultSessionService {
	return &DefaultSessionService{Store: store, Events: pub}
}

// Start opens the room of a scheduled appointment. Starting a room that is
// already active returns it unchanged.
func (s *DefaultSessionService) Start(ctx context.Context, consultantID, appointmentID int) (*RoomResponse, apierror.ErrorResponse) {
	var (
		sess    *session
		started bool
	)
	err := s.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		sess, err = loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if err = sess.requireConsultant(consultantID); err != nil {
			return err
		}

		switch sess.Room.Status {
		case entity.RoomActive:
			return nil
		case entity.RoomEnded:
			return apierror.Conflict("Session has already ended")
		}

		if sess.Appointment.Status != entity.AppointmentScheduled {
			return apierror.Conflict(fmt.Sprintf("Appointment is %s", sess.Appointment.Status))
		}

		now := utils.NowUTC()
		ok, err := tx.Rooms().Start(sess.Room.ID, consultantID, now)
		if err != nil {
			return fmt.Errorf("start room %d: %w", sess.Room.ID, err)
		}

		if !ok {
			room, err := tx.Rooms().FindByID(sess.Room.ID)
			if err != nil {
				return fmt.Errorf("reload room %d: %w", sess.Room.ID, err)
			}
			if room == nil || room.Status != entity.RoomActive {
				return apierror.Conflict("Session changed state concurrently")
			}
			sess.Room = room
			return nil
		}

		sess.Room.Status = entity.RoomActive
		sess.Room.StartedAt = &now
		sess.Room.StartedBy = &consultantID
		started = true
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	if started {
		appt := sess.Appointment
		publish(ctx, s.Events, events.New(events.SessionStarted, consultantID, appt.ClientID, appt.ConsultantID, &appt.ID))
	}
	return toRoomResponse(sess.Room), nil
}

// End closes an active room. In the same transaction the appointment is
// completed and the pair's consent is revoked, so no grant outlives its session.
func (s *DefaultSessionService) End(ctx context.Context, consultantID, appointmentID int) (*RoomResponse, apierror.ErrorResponse) {
	var (
		sess    *session
		revoked bool
	)
	err := s.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		sess, err = loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if err = sess.requireConsultant(consultantID); err != nil {
			return err
		}

		if !sess.Room.Status.CanTransition(entity.RoomEnded) {
			return apierror.Conflict(fmt.Sprintf("Session is %s", sess.Room.Status))
		}

		appt := sess.Appointment
		if !appt.Status.CanTransition(entity.AppointmentCompleted) {
			return apierror.Conflict(fmt.Sprintf("Appointment is already %s", appt.Status))
		}

		now := utils.NowUTC()
		ok, err := tx.Rooms().End(sess.Room.ID, consultantID, now)
		if err != nil {
			return fmt.Errorf("end room %d: %w", sess.Room.ID, err)
		}
		if !ok {
			return apierror.Conflict("Session was ended concurrently")
		}

		ok, err = tx.Appointments().TransitionStatus(appt.ID, appt.Status, entity.AppointmentCompleted, now)
		if err != nil {
			return fmt.Errorf("complete appointment %d: %w", appt.ID, err)
		}
		if !ok {
			return apierror.Conflict("Appointment changed state concurrently")
		}

		revoked, err = revokePair(tx, appt.ClientID, appt.ConsultantID, now)
		if err != nil {
			return err
		}

		sess.Room.Status = entity.RoomEnded
		sess.Room.EndedAt = &now
		sess.Room.EndedBy = &consultantID
		appt.Status = entity.AppointmentCompleted
		appt.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	appt := sess.Appointment
	publish(ctx, s.Events, events.New(events.SessionEnded, consultantID, appt.ClientID, appt.ConsultantID, &appt.ID))
	if revoked {
		publish(ctx, s.Events, events.New(events.PermissionRevoked, consultantID, appt.ClientID, appt.ConsultantID, &appt.ID).With("reason", "session_ended"))
	}
	return toRoomResponse(sess.Room), nil
}
