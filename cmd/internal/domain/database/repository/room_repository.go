package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultRoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *DefaultRoomRepository {
	return &DefaultRoomRepository{db: db}
}

func (r *DefaultRoomRepository) Create(room *entity.SessionRoom) error {
	return r.db.Omit(clause.Associations).Create(room).Error
}

func (r *DefaultRoomRepository) FindByID(id int) (*entity.SessionRoom, error) {
	var room entity.SessionRoom
	err := r.db.First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *DefaultRoomRepository) FindByAppointmentID(appointmentID int) (*entity.SessionRoom, error) {
	var room entity.SessionRoom
	err := r.db.Where("appointment_id = ?", appointmentID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindByAppointmentIDs returns the rooms keyed by appointment id.
func (r *DefaultRoomRepository) FindByAppointmentIDs(ids []int) (map[int]*entity.SessionRoom, error) {
	rooms := make(map[int]*entity.SessionRoom, len(ids))
	if len(ids) == 0 {
		return rooms, nil
	}

	var found []*entity.SessionRoom
	if err := r.db.Where("appointment_id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, room := range found {
		rooms[room.AppointmentID] = room
	}
	return rooms, nil
}

// Start flips a not_started room to active. False means the room was not
// in not_started anymore when the update ran.
func (r *DefaultRoomRepository) Start(id, actorID int, now int64) (bool, error) {
	res := r.db.Model(&entity.SessionRoom{}).
		Where("id = ? AND status = ?", id, entity.RoomNotStarted).
		Updates(map[string]any{
			"status":     entity.RoomActive,
			"started_at": now,
			"started_by": actorID,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DefaultRoomRepository) End(id, actorID int, now int64) (bool, error) {
	res := r.db.Model(&entity.SessionRoom{}).
		Where("id = ? AND status = ?", id, entity.RoomActive).
		Updates(map[string]any{
			"status":     entity.RoomEnded,
			"ended_at":   now,
			"ended_by":   actorID,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
