package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultHealthRepository struct {
	db *gorm.DB
}

func NewHealthRepository(db *gorm.DB) *DefaultHealthRepository {
	return &DefaultHealthRepository{db: db}
}

func (h *DefaultHealthRepository) FindTarget(userID int) (*entity.NutritionTarget, error) {
	var target entity.NutritionTarget
	if err := findByUser(h.db, userID, &target); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &target, nil
}

func (h *DefaultHealthRepository) FindGoal(userID int) (*entity.UserGoal, error) {
	var goal entity.UserGoal
	if err := findByUser(h.db, userID, &goal); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &goal, nil
}

func (h *DefaultHealthRepository) FindData(userID int) (*entity.UserData, error) {
	var data entity.UserData
	if err := findByUser(h.db, userID, &data); err != nil {
		return nil, notFoundAsNil(err)
	}
	return &data, nil
}

func (h *DefaultHealthRepository) UpsertTarget(target *entity.NutritionTarget) error {
	return upsertByUser(h.db, target, target.UserID, "calories_kcal", "protein_g", "carbs_g", "fat_g")
}

func (h *DefaultHealthRepository) UpsertGoal(goal *entity.UserGoal) error {
	return upsertByUser(h.db, goal, goal.UserID, "goal_type", "target_delta_kg", "duration_days", "start_date", "end_date")
}

func (h *DefaultHealthRepository) UpsertData(data *entity.UserData) error {
	return upsertByUser(h.db, data, data.UserID, "age", "gender", "height_cm", "weight_kg", "activity_level")
}

func findByUser(db *gorm.DB, userID int, dest any) error {
	return db.Where("user_id = ?", userID).First(dest).Error
}

// upsertByUser keeps one row per user and reloads the stored row into record.
func upsertByUser(db *gorm.DB, record any, userID int, columns ...string) error {
	err := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
		}).
		Create(record).Error
	if err != nil {
		return err
	}
	return findByUser(db, userID, record)
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
