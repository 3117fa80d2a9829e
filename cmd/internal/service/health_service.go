package service

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
	"nutricare/cmd/internal/domain/database/repository"
	"nutricare/cmd/internal/domain/entity"
	"nutricare/cmd/internal/events"
	"nutricare/cmd/internal/utils/apierror"
)

type NutritionTargetRequest struct {
	CaloriesKcal int     `json:"calories_kcal" validate:"required,gte=800,lte=10000"`
	ProteinG     float64 `json:"protein_g" validate:"gte=0,lte=400"`
	CarbsG       float64 `json:"carbs_g" validate:"gte=0,lte=1200"`
	FatG         float64 `json:"fat_g" validate:"gte=0,lte=300"`
}

type GoalRequest struct {
	GoalType      string   `json:"goal_type" validate:"required,oneof=lose gain maintain"`
	TargetDeltaKg *float64 `json:"target_delta_kg" validate:"omitempty,gt=0"`
	DurationDays  *int     `json:"duration_days" validate:"omitempty,gt=0"`
	StartDate     *string  `json:"start_date" validate:"omitempty,isodate"`
	EndDate       *string  `json:"end_date" validate:"omitempty,isodate"`
}

type UserDataRequest struct {
	Age           *int     `json:"age" validate:"omitempty,gte=10,lte=120"`
	Gender        *string  `json:"gender" validate:"omitempty,oneof=male female"`
	HeightCm      *float64 `json:"height_cm" validate:"omitempty,gte=50,lte=260"`
	WeightKg      *float64 `json:"weight_kg" validate:"omitempty,gte=20,lte=400"`
	ActivityLevel *string  `json:"activity_level" validate:"omitempty,oneof=sedentary light moderate active very_active"`
}

// HealthSnapshot carries the records a reader is allowed to see. Resources
// lists them; anything outside it, or never recorded, is null.
type HealthSnapshot struct {
	UserID          int                     `json:"user_id"`
	Resources       []string                `json:"resources"`
	NutritionTarget *entity.NutritionTarget `json:"nutrition_target"`
	Goal            *entity.UserGoal        `json:"goal"`
	Data            *entity.UserData        `json:"data"`
}

type DefaultHealthService struct {
	Store    *repository.Store
	Validate *validator.Validate
	Events   events.Publisher
}

func NewHealthService(store *repository.Store, validate *validator.Validate, pub events.Publisher) *DefaultHealthService {
	return &DefaultHealthService{Store: store, Validate: validate, Events: pub}
}

// ClientHealth lets the appointment's consultant read the client's records
// while the session is live. An empty resource returns every covered record.
func (h *DefaultHealthService) ClientHealth(ctx context.Context, consultantID, appointmentID int, resource entity.Resource) (*HealthSnapshot, apierror.ErrorResponse) {
	if resource != "" && !resource.Valid() {
		return nil, apierror.Validation(fmt.Sprintf("Unknown resource '%s'", resource))
	}

	var snap *HealthSnapshot
	err := h.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		sess, err := loadSessionByAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		perm, err := authorizeHealthRead(tx, sess, consultantID, resource)
		if err != nil {
			return err
		}

		resources := []entity.Resource(perm.Resources)
		if resource != "" {
			resources = []entity.Resource{resource}
		}

		snap, err = loadSnapshot(tx, sess.Appointment.ClientID, resources)
		return err
	})
	if err != nil {
		return nil, apierror.FromError(err)
	}
	return snap, nil
}

// OwnHealth returns every record the user keeps about themself.
func (h *DefaultHealthService) OwnHealth(ctx context.Context, userID int) (*HealthSnapshot, apierror.ErrorResponse) {
	snap, err := loadSnapshot(h.Store.WithContext(ctx), userID, entity.Resources)
	if err != nil {
		log.Errorf("failed to load health records of user %d: %v", userID, err)
		return nil, apierror.StorageUnavailableError
	}
	return snap, nil
}

func (h *DefaultHealthService) PutOwnTarget(ctx context.Context, userID int, req *NutritionTargetRequest) (*entity.NutritionTarget, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	target := req.toEntity(userID)
	if err := h.Store.WithContext(ctx).Health().UpsertTarget(target); err != nil {
		log.Errorf("failed to save nutrition target of user %d: %v", userID, err)
		return nil, apierror.StorageUnavailableError
	}
	return target, nil
}

func (h *DefaultHealthService) PutOwnGoal(ctx context.Context, userID int, req *GoalRequest) (*entity.UserGoal, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	goal := req.toEntity(userID)
	if err := h.Store.WithContext(ctx).Health().UpsertGoal(goal); err != nil {
		log.Errorf("failed to save goal of user %d: %v", userID, err)
		return nil, apierror.StorageUnavailableError
	}
	return goal, nil
}

func (h *DefaultHealthService) PutOwnData(ctx context.Context, userID int, req *UserDataRequest) (*entity.UserData, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	data := req.toEntity(userID)
	if err := h.Store.WithContext(ctx).Health().UpsertData(data); err != nil {
		log.Errorf("failed to save data of user %d: %v", userID, err)
		return nil, apierror.StorageUnavailableError
	}
	return data, nil
}

func (h *DefaultHealthService) PutClientTarget(ctx context.Context, consultantID, clientID int, appointmentID *int, req *NutritionTargetRequest) (*entity.NutritionTarget, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	target := req.toEntity(clientID)
	apierr := h.consultantWrite(ctx, consultantID, clientID, appointmentID, entity.ResourceNutritionTargets, func(tx *repository.Store) (any, error) {
		before, err := tx.Health().FindTarget(clientID)
		if err != nil {
			return nil, err
		}
		if err = tx.Health().UpsertTarget(target); err != nil {
			return nil, err
		}
		return nilIfAbsent(before), nil
	}, target)
	if apierr != nil {
		return nil, apierr
	}
	return target, nil
}

func (h *DefaultHealthService) PutClientGoal(ctx context.Context, consultantID, clientID int, appointmentID *int, req *GoalRequest) (*entity.UserGoal, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	goal := req.toEntity(clientID)
	apierr := h.consultantWrite(ctx, consultantID, clientID, appointmentID, entity.ResourceUserGoals, func(tx *repository.Store) (any, error) {
		before, err := tx.Health().FindGoal(clientID)
		if err != nil {
			return nil, err
		}
		if err = tx.Health().UpsertGoal(goal); err != nil {
			return nil, err
		}
		return nilIfAbsent(before), nil
	}, goal)
	if apierr != nil {
		return nil, apierr
	}
	return goal, nil
}

func (h *DefaultHealthService) PutClientData(ctx context.Context, consultantID, clientID int, appointmentID *int, req *UserDataRequest) (*entity.UserData, apierror.ErrorResponse) {
	if apierr := checkRequest(h.Validate, req); apierr != nil {
		return nil, apierr
	}

	data := req.toEntity(clientID)
	apierr := h.consultantWrite(ctx, consultantID, clientID, appointmentID, entity.ResourceUserData, func(tx *repository.Store) (any, error) {
		before, err := tx.Health().FindData(clientID)
		if err != nil {
			return nil, err
		}
		if err = tx.Health().UpsertData(data); err != nil {
			return nil, err
		}
		return nilIfAbsent(before), nil
	}, data)
	if apierr != nil {
		return nil, apierr
	}
	return data, nil
}

// consultantWrite runs write under the consent check and appends the audit
// entry in the same transaction. write returns the record as it was before.
func (h *DefaultHealthService) consultantWrite(ctx context.Context, consultantID, clientID int, appointmentID *int, resource entity.Resource, write func(tx *repository.Store) (any, error), after any) apierror.ErrorResponse {
	action := entity.AuditCreate
	err := h.Store.WithContext(ctx).Atomic(func(tx *repository.Store) error {
		if _, err := authorizeHealthWrite(tx, consultantID, clientID, resource, appointmentID); err != nil {
			return err
		}

		before, err := write(tx)
		if err != nil {
			return fmt.Errorf("write %s of user %d: %w", resource, clientID, err)
		}

		if before != nil {
			action = entity.AuditUpdate
		}
		return recordAudit(tx, clientID, consultantID, resource, action, before, after, appointmentID)
	})
	if err != nil {
		return apierror.FromError(err)
	}

	evt := events.New(events.HealthChanged, consultantID, clientID, consultantID, appointmentID).
		With("resource", string(resource)).
		With("action", string(action))
	publish(ctx, h.Events, evt)
	return nil
}

func loadSnapshot(store *repository.Store, userID int, resources []entity.Resource) (*HealthSnapshot, error) {
	snap := &HealthSnapshot{UserID: userID, Resources: make([]string, 0, len(resources))}
	for _, r := range resources {
		var err error
		switch r {
		case entity.ResourceNutritionTargets:
			snap.NutritionTarget, err = store.Health().FindTarget(userID)
		case entity.ResourceUserGoals:
			snap.Goal, err = store.Health().FindGoal(userID)
		case entity.ResourceUserData:
			snap.Data, err = store.Health().FindData(userID)
		}
		if err != nil {
			return nil, fmt.Errorf("load %s of user %d: %w", r, userID, err)
		}
		snap.Resources = append(snap.Resources, string(r))
	}
	return snap, nil
}

// nilIfAbsent turns a missing record into an untyped nil.
func nilIfAbsent(v any) any {
	if isNil(v) {
		return nil
	}
	return v
}

func (r *NutritionTargetRequest) toEntity(userID int) *entity.NutritionTarget {
	return &entity.NutritionTarget{
		UserID:       userID,
		CaloriesKcal: r.CaloriesKcal,
		ProteinG:     r.ProteinG,
		CarbsG:       r.CarbsG,
		FatG:         r.FatG,
	}
}

func (r *GoalRequest) toEntity(userID int) *entity.UserGoal {
	return &entity.UserGoal{
		UserID:        userID,
		GoalType:      entity.GoalType(r.GoalType),
		TargetDeltaKg: r.TargetDeltaKg,
		DurationDays:  r.DurationDays,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	}
}

func (r *UserDataRequest) toEntity(userID int) *entity.UserData {
	return &entity.UserData{
		UserID:        userID,
		Age:           r.Age,
		Gender:        r.Gender,
		HeightCm:      r.HeightCm,
		WeightKg:      r.WeightKg,
		ActivityLevel: r.ActivityLevel,
	}
}
