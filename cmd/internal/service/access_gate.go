package service

import (
	"fmt"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils/apierror"
)

// session is an appointment together with its room, read inside the
// transaction that is about to act on it.
type session struct {
	Appointment *entity.Appointment
	Room        *entity.SessionRoom
}

func loadSessionByAppointment(tx *repository.Store, appointmentID int) (*session, error) {
	appt, err := tx.Appointments().FindByID(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("find appointment %d: %w", appointmentID, err)
	}

	if appt == nil {
		return nil, apierror.NotFound("Appointment not found")
	}

	room, err := tx.Rooms().FindByAppointmentID(appointmentID)
	if err != nil {
		return nil, fmt.Errorf("find room of appointment %d: %w", appointmentID, err)
	}

	if room == nil {
		return nil, apierror.NotFound("Session room not found")
	}
	return &session{Appointment: appt, Room: room}, nil
}

func loadSessionByRoom(tx *repository.Store, roomID int) (*session, error) {
	room, err := tx.Rooms().FindByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("find room %d: %w", roomID, err)
	}

	if room == nil {
		return nil, apierror.NotFound("Session room not found")
	}

	appt, err := tx.Appointments().FindByID(room.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("find appointment %d: %w", room.AppointmentID, err)
	}

	if appt == nil {
		return nil, fmt.Errorf("room %d points at missing appointment %d", roomID, room.AppointmentID)
	}
	return &session{Appointment: appt, Room: room}, nil
}

func (s *session) isClient(userID int) bool {
	return s.Appointment.ClientID == userID
}

func (s *session) requireParticipant(userID int) error {
	if !s.Appointment.IsParticipant(userID) {
		return apierror.Forbidden("Not a participant of this session")
	}
	return nil
}

func (s *session) requireConsultant(userID int) error {
	if s.Appointment.ConsultantID != userID {
		return apierror.Forbidden("Only the appointment's consultant may do this")
	}
	return nil
}

func (s *session) requireActive() error {
	if s.Room.Status != entity.RoomActive {
		return apierror.Forbidden(fmt.Sprintf("Session is %s", s.Room.Status))
	}
	return nil
}

func authorizeChatPost(s *session, userID int) error {
	if err := s.requireParticipant(userID); err != nil {
		return err
	}
	return s.requireActive()
}

// authorizeSessionRead covers chat history and the note. The consultant may
// read at any point, the client only once the session has started.
func authorizeSessionRead(s *session, userID int) error {
	if err := s.requireParticipant(userID); err != nil {
		return err
	}

	if s.isClient(userID) && s.Room.Status == entity.RoomNotStarted {
		return apierror.Forbidden("Session has not started yet")
	}
	return nil
}

func authorizeNoteWrite(s *session, userID int) error {
	if err := s.requireConsultant(userID); err != nil {
		return err
	}
	return s.requireActive()
}

// authorizeHealthRead admits the consultant to the client's health data only
// while the session is live and under a grant issued for this appointment.
// An empty resource asks for whatever the grant covers.
func authorizeHealthRead(tx *repository.Store, s *session, consultantID int, resource entity.Resource) (*entity.ConsultantPermission, error) {
	if err := s.requireConsultant(consultantID); err != nil {
		return nil, err
	}

	if err := s.requireActive(); err != nil {
		return nil, err
	}

	var (
		perm *entity.ConsultantPermission
		err  error
	)
	if resource == "" {
		perm, err = activePermission(tx, s.Appointment.ClientID, consultantID)
	} else {
		perm, err = assertAccess(tx, s.Appointment.ClientID, consultantID, resource, false)
	}
	if err != nil {
		return nil, err
	}

	if !perm.PinnedTo(s.Appointment.ID) {
		return nil, apierror.Forbidden("Permission was not granted for this appointment")
	}
	return perm, nil
}

// authorizeHealthWrite checks a consultant write against the pair's grant.
// An appointment, when given, must belong to the same pair.
func authorizeHealthWrite(tx *repository.Store, consultantID, clientID int, resource entity.Resource, appointmentID *int) (*entity.ConsultantPermission, error) {
	perm, err := assertAccess(tx, clientID, consultantID, resource, true)
	if err != nil {
		return nil, err
	}

	if appointmentID == nil {
		return perm, nil
	}

	appt, err := tx.Appointments().FindByID(*appointmentID)
	if err != nil {
		return nil, fmt.Errorf("find appointment %d: %w", *appointmentID, err)
	}

	if appt == nil {
		return nil, apierror.NotFound("Appointment not found")
	}

	if appt.ClientID != clientID || appt.ConsultantID != consultantID {
		return nil, apierror.Validation("Appointment does not belong to this client and consultant")
	}
	return perm, nil
}

func activePermission(tx *repository.Store, clientID, consultantID int) (*entity.ConsultantPermission, error) {
	perm, err := tx.Permissions().FindByPair(clientID, consultantID)
	if err != nil {
		return nil, fmt.Errorf("find permission %d/%d: %w", clientID, consultantID, err)
	}

	if perm == nil || !perm.IsActive() {
		return nil, apierror.Forbidden("No active permission from this client")
	}
	return perm, nil
}

// assertAccess checks, in order, that the pair has an active grant, that it
// covers resource, and that it allows writing when write is set.
func assertAccess(tx *repository.Store, clientID, consultantID int, resource entity.Resource, write bool) (*entity.ConsultantPermission, error) {
	perm, err := activePermission(tx, clientID, consultantID)
	if err != nil {
		return nil, err
	}

	if !perm.Covers(resource) {
		return nil, apierror.Forbidden(fmt.Sprintf("Permission does not cover %s", resource))
	}

	if write && !perm.Scope.AllowsWrite() {
		return nil, apierror.Forbidden("Permission is read only")
	}
	return perm, nil
}
