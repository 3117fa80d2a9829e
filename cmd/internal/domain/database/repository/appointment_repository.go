package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultAppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *DefaultAppointmentRepository {
	return &DefaultAppointmentRepository{db: db}
}

func (a *DefaultAppointmentRepository) Create(appt *entity.Appointment) error {
	return a.db.Omit(clause.Associations).Create(appt).Error
}

func (a *DefaultAppointmentRepository) FindByID(id int) (*entity.Appointment, error) {
	var appt entity.Appointment
	err := a.db.First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (a *DefaultAppointmentRepository) FindByClientID(clientID int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Where("client_id = ?", clientID).
		Order("begins_at desc, id desc").
		Find(&appts).Error
	return appts, err
}

func (a *DefaultAppointmentRepository) FindByConsultantID(consultantID int) ([]*entity.Appointment, error) {
	var appts []*entity.Appointment
	err := a.db.Where("consultant_id = ?", consultantID).
		Order("begins_at desc, id desc").
		Find(&appts).Error
	return appts, err
}

// FindMonthAppointments finds the consultant's scheduled appointments that overlap
// with a given month. This method returns PARTIAL appointment entities, having only
// `BeginsAt` and `EndsAt` fields.
func (a *DefaultAppointmentRepository) FindMonthAppointments(consultantID int, monthStart, monthEnd int64) ([]*entity.Appointment, error) {
	var results []*entity.Appointment

	err := a.db.Model(&entity.Appointment{}).
		Select("begins_at, ends_at").
		Where("consultant_id = ?", consultantID).
		Where("status = ?", entity.AppointmentScheduled).
		Where("begins_at < ?", monthEnd).
		Where("ends_at > ?", monthStart).
		Order("begins_at asc").
		Find(&results).Error

	if err != nil {
		return nil, err
	}
	return results, nil
}

func (a *DefaultAppointmentRepository) TransitionStatus(id int, from, to entity.AppointmentStatus, now int64) (bool, error) {
	res := a.db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
