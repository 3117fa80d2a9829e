package service

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/utils"
	"nutricare/cmd/internal/utils/apierror"
	"reflect"
)

type AuditResponse struct {
	ID            int             `json:"id"`
	SubjectID     int             `json:"subject_id"`
	ActorID       int             `json:"actor_id"`
	Resource      string          `json:"resource"`
	Action        string          `json:"action"`
	Before        json.RawMessage `json:"before"`
	After         json.RawMessage `json:"after"`
	AppointmentID *int            `json:"appointment_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type DefaultAuditService struct {
	Store *repository.Store
}

func NewAuditService(store *repository.Store) *DefaultAuditService {
	return &DefaultAuditService{Store: store}
}

// ListForSubject returns the changes made to the client's data, newest first.
func (a *DefaultAuditService) ListForSubject(ctx context.Context, subjectID int) ([]*AuditResponse, apierror.ErrorResponse) {
	entries, err := a.Store.WithContext(ctx).Audit().FindBySubjectID(subjectID)
	if err != nil {
		log.Errorf("failed to list audit entries of user %d: %v", subjectID, err)
		return nil, apierror.StorageUnavailableError
	}

	resp := make([]*AuditResponse, len(entries))
	for i, entry := range entries {
		resp[i] = toAuditResponse(entry)
	}
	return resp, nil
}

// recordAudit appends an entry inside tx, so a failed write undoes the change it describes.
func recordAudit(tx *repository.Store, subjectID, actorID int, resource entity.Resource, action entity.AuditAction, before, after any, appointmentID *int) error {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return fmt.Errorf("encode %s before image: %w", resource, err)
	}

	afterJSON, err := snapshot(after)
	if err != nil {
		return fmt.Errorf("encode %s after image: %w", resource, err)
	}

	entry := &entity.AuditEntry{
		SubjectID:     subjectID,
		ActorID:       actorID,
		Resource:      resource,
		Action:        action,
		Before:        beforeJSON,
		After:         afterJSON,
		AppointmentID: appointmentID,
		CreatedAt:     utils.NowUTC(),
	}
	if err = tx.Audit().Create(entry); err != nil {
		return fmt.Errorf("append audit entry for user %d: %w", subjectID, err)
	}
	return nil
}

// snapshot encodes a record image. A missing record is stored as the JSON
// literal null; the column is never SQL NULL.
func snapshot(v any) (datatypes.JSON, error) {
	if isNil(v) {
		return datatypes.JSON("null"), nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func toAuditResponse(entry *entity.AuditEntry) *AuditResponse {
	return &AuditResponse{
		ID:            entry.ID,
		SubjectID:     entry.SubjectID,
		ActorID:       entry.ActorID,
		Resource:      string(entry.Resource),
		Action:        string(entry.Action),
		Before:        rawOrNull(entry.Before),
		After:         rawOrNull(entry.After),
		AppointmentID: entry.AppointmentID,
		CreatedAt:     utils.FormatEpoch(entry.CreatedAt),
	}
}

func rawOrNull(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(j)
}
