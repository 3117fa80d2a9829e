package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultNoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *DefaultNoteRepository {
	return &DefaultNoteRepository{db: db}
}

func (n *DefaultNoteRepository) FindByAppointmentID(appointmentID int) (*entity.SessionNote, error) {
	var note entity.SessionNote
	err := n.db.Where("appointment_id = ?", appointmentID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Upsert keeps a single note per appointment. The stored row is reloaded into note.
func (n *DefaultNoteRepository) Upsert(note *entity.SessionNote) error {
	err := n.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "appointment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"author_id", "text", "visible_to_client", "updated_at"}),
		}).
		Create(note).Error
	if err != nil {
		return err
	}
	note.ID = 0
	return n.db.Where("appointment_id = ?", note.AppointmentID).First(note).Error
}
