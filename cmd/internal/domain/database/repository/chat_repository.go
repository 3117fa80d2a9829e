package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *DefaultChatRepository {
	return &DefaultChatRepository{db: db}
}

func (c *DefaultChatRepository) Create(msg *entity.ChatMessage) error {
	return c.db.Omit(clause.Associations).Create(msg).Error
}

// FindByRoomID returns the first limit messages of a room in the order
// they were sent. Ties on the timestamp fall back to insertion order.
func (c *DefaultChatRepository) FindByRoomID(roomID, limit int) ([]*entity.ChatMessage, error) {
	var msgs []*entity.ChatMessage
	err := c.db.Where("room_id = ?", roomID).
		Order("sent_at asc, id asc").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
