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

type GrantRequest struct {
	ConsultantID  int      `json:"consultant_id" validate:"required,gt=0"`
	Scope         string   `json:"scope" validate:"omitempty,scope"`
	Resources     []string `json:"resources" validate:"required,min=1,dive,resource"`
	AppointmentID *int     `json:"appointment_id" validate:"omitempty,gt=0"`
}

// SessionGrantRequest is a grant issued from inside an appointment, which
// fixes both the consultant and the pinned appointment.
type SessionGrantRequest struct {
	Scope     string   `json:"scope" validate:"omitempty,scope"`
	Resources []string `json:"resources" validate:"required,min=1,dive,resource"`
}

type RevokeRequest struct {
	ConsultantID int `json:"consultant_id" validate:"required,gt=0"`
}

type PermissionResponse struct {
	ID            int      `json:"id"`
	ClientID      int      `json:"client_id"`
	ConsultantID  int      `json:"consultant_id"`
	Scope         string   `json:"scope"`
	Resources     []string `json:"resources"`
	Status        string   `json:"status"`
	AppointmentID *int     `json:"appointment_id,omitempty"`
	GrantedAt     string   `json:"granted_at"`
	RevokedAt     *string  `json:"revoked_at,omitempty"`
}

type DefaultPermissionService struct {
	Store    *repository.Store
	Validate *validator.Validate
	Events   events.Publisher
}

func NewPermissionService(store *repository.Store, validate *validator.Validate, pub events.Publisher) *DefaultPermissionService {
	return &DefaultPermissionService{Store: store, Validate: validate, Events: pub}
}

// Grant gives the consultant access to the client's resources, replacing any
// previous grant of the pair and reactivating it if it was revoked.
func (p *DefaultPermissionService) Grant(ctx context.Context, clientID int, req *GrantRequest) (*PermissionResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(p.Validate, req); apierr != nil {
		return nil, apierr
	}

	var perm *entity.ConsultantPermission
	err := p.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		perm, err = grant(tx, clientID, req.ConsultantID, scopeOrDefault(req.Scope), toResources(req.Resources), req.AppointmentID)
		return err
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	p.publishGrant(ctx, clientID, perm)
	return toPermissionResponse(perm), nil
}

// GrantForAppointment grants the appointment's consultant access pinned to
// that appointment. Only the appointment's client may call it.
func (p *DefaultPermissionService) GrantForAppointment(ctx context.Context, clientID, appointmentID int, req *SessionGrantRequest) (*PermissionResponse, apierror.ErrorResponse) {
	if apierr := checkRequest(p.Validate, req); apierr != nil {
		return nil, apierr
	}

	var perm *entity.ConsultantPermission
	err := p.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		sess, err := loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		if !sess.isClient(clientID) {
			return apierror.Forbidden("Only the appointment's client may grant access")
		}

		perm, err = grant(tx, clientID, sess.Appointment.ConsultantID, scopeOrDefault(req.Scope), toResources(req.Resources), &sess.Appointment.ID)
		return err
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}

	p.publishGrant(ctx, clientID, perm)
	return toPermissionResponse(perm), nil
}

func (p *DefaultPermissionService) Revoke(ctx context.Context, clientID int, req *RevokeRequest) apierror.ErrorResponse {
	if apierr := checkRequest(p.Validate, req); apierr != nil {
		return apierr
	}

	var revoked bool
	err := p.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		var err error
		revoked, err = revokePair(tx, clientID, req.ConsultantID, utils.NowUTC())
		return err
	})
	if err != nil {
		return apierror.FromError(err)
	}

	if revoked {
		publish(ctx, p.Events, events.New(events.PermissionRevoked, clientID, clientID, req.ConsultantID, nil).With("reason", "client"))
	}
	return nil
}

func (p *DefaultPermissionService) List(ctx context.Context, clientID int) ([]*PermissionResponse, apierror.ErrorResponse) {
	perms, err := p.Store.WithContext(ctx).Permissions().FindByClientID(clientID)
	if err != nil {
		log.Errorf("failed to find permissions of client %d: %v", clientID, err)
		return nil, apierror.StorageUnavailableError
	}

	resp := make([]*PermissionResponse, len(perms))
	for i, perm := range perms {
		resp[i] = toPermissionResponse(perm)
	}
	return resp, nil
}

// ForAppointment shows either participant the pair's grant. The list is
// empty when the pair never had one.
func (p *DefaultPermissionService) ForAppointment(ctx context.Context, userID, appointmentID int) ([]*PermissionResponse, apierror.ErrorResponse) {
	store := p.Store.WithContext(ctx)
	sess, err := loadSessionByAppointment(store, appointmentID)
	if err != nil {
		return nil, apierror.FromError(err)
	}

	if err = sess.requireParticipant(userID); err != nil {
		return nil, apierror.FromError(err)
	}

	perm, err := store.Permissions().FindByPair(sess.Appointment.ClientID, sess.Appointment.ConsultantID)
	if err != nil {
		log.Errorf("failed to find permission for appointment %d: %v", appointmentID, err)
		return nil, apierror.StorageUnavailableError
	}

	if perm == nil {
		return []*PermissionResponse{}, nil
	}
	return []*PermissionResponse{toPermissionResponse(perm)}, nil
}

// AssertAccess is the consent check on its own, for callers outside a session.
func (p *DefaultPermissionService) AssertAccess(ctx context.Context, clientID, consultantID int, resource entity.Resource, write bool) apierror.ErrorResponse {
	if _, err := assertAccess(p.Store.WithContext(ctx), clientID, consultantID, resource, write); err != nil {
		return apierror.FromError(err)
	}
	return nil
}

func (p *DefaultPermissionService) publishGrant(ctx context.Context, clientID int, perm *entity.ConsultantPermission) {
	evt := events.New(events.PermissionGranted, clientID, perm.ClientID, perm.ConsultantID, perm.AppointmentID).
		With("scope", string(perm.Scope)).
		With("resources", perm.Resources)
	publish(ctx, p.Events, evt)
}

func grant(tx *repository.Store, clientID, consultantID int, scope entity.Scope, resources []entity.Resource, appointmentID *int) (*entity.ConsultantPermission, error) {
	if clientID == consultantID {
		return nil, apierror.Validation("Cannot grant access to yourself")
	}

	consultant, err := tx.Users().FindByID(consultantID)
	if err != nil {
		return nil, fmt.Errorf("find consultant %d: %w", consultantID, err)
	}

	if consultant == nil {
		return nil, apierror.NotFound("Consultant not found")
	}

	if consultant.Role != entity.RoleConsultant {
		return nil, apierror.Validation(fmt.Sprintf("User %d is not a consultant", consultantID))
	}

	if appointmentID != nil {
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
	}

	perm := &entity.ConsultantPermission{
		ClientID:      clientID,
		ConsultantID:  consultantID,
		Scope:         scope,
		Resources:     resources,
		Status:        entity.PermissionActive,
		AppointmentID: appointmentID,
		GrantedAt:     utils.NowUTC(),
	}
	if err = tx.Permissions().Upsert(perm); err != nil {
		return nil, fmt.Errorf("upsert permission %d/%d: %w", clientID, consultantID, err)
	}
	return perm, nil
}

// revokePair revokes the pair's active grant. Revoking nothing is not an error.
func revokePair(tx *repository.Store, clientID, consultantID int, now int64) (bool, error) {
	revoked, err := tx.Permissions().Revoke(clientID, consultantID, now)
	if err != nil {
		return false, fmt.Errorf("revoke permission %d/%d: %w", clientID, consultantID, err)
	}
	return revoked, nil
}

func scopeOrDefault(scope string) entity.Scope {
	if scope == "" {
		return entity.ScopeRead
	}
	return entity.Scope(scope)
}

// toResources dedupes and puts resources in canonical order.
func toResources(raw []string) []entity.Resource {
	wanted := make(map[entity.Resource]bool, len(raw))
	for _, r := range raw {
		wanted[entity.Resource(r)] = true
	}

	resources := make([]entity.Resource, 0, len(wanted))
	for _, r := range entity.Resources {
		if wanted[r] {
			resources = append(resources, r)
		}
	}
	return resources
}

func toPermissionResponse(perm *entity.ConsultantPermission) *PermissionResponse {
	resources := make([]string, len(perm.Resources))
	for i, r := range perm.Resources {
		resources[i] = string(r)
	}

	return &PermissionResponse{
		ID:            perm.ID,
		ClientID:      perm.ClientID,
		ConsultantID:  perm.ConsultantID,
		Scope:         string(perm.Scope),
		Resources:     resources,
		Status:        string(perm.Status),
		AppointmentID: perm.AppointmentID,
		GrantedAt:     utils.FormatEpoch(perm.GrantedAt),
		RevokedAt:     utils.FormatEpochPtr(perm.RevokedAt),
	}
}
