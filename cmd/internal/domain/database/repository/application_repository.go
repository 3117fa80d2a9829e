package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *DefaultApplicationRepository {
	return &DefaultApplicationRepository{db: db}
}

func (a *DefaultApplicationRepository) Create(app *entity.Application) error {
	return a.db.Omit(clause.Associations).Create(app).Error
}

func (a *DefaultApplicationRepository) FindByID(id int) (*entity.Application, error) {
	var app entity.Application
	err := a.db.First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (a *DefaultApplicationRepository) FindByClientID(clientID int) ([]*entity.Application, error) {
	var apps []*entity.Application
	err := a.db.Where("client_id = ?", clientID).
		Order("created_at desc, id desc").
		Find(&apps).Error
	return apps, err
}

func (a *DefaultApplicationRepository) FindByConsultantID(consultantID int) ([]*entity.Application, error) {
	var apps []*entity.Application
	err := a.db.Where("consultant_id = ?", consultantID).
		Order("created_at desc, id desc").
		Find(&apps).Error
	return apps, err
}

// TransitionStatus moves the application from one status to another only if
// it is still in the expected one. A false result means somebody got there first.
func (a *DefaultApplicationRepository) TransitionStatus(id int, from, to entity.ApplicationStatus, now int64) (bool, error) {
	res := a.db.Model(&entity.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
