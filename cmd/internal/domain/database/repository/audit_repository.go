package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultAuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *DefaultAuditRepository {
	return &DefaultAuditRepository{db: db}
}

func (a *DefaultAuditRepository) Create(entry *entity.AuditEntry) error {
	return a.db.Omit(clause.Associations).Create(entry).Error
}

func (a *DefaultAuditRepository) FindBySubjectID(subjectID int) ([]*entity.AuditEntry, error) {
	var entries []*entity.AuditEntry
	err := a.db.Where("subject_id = ?", subjectID).
		Order("created_at desc, id desc").
		Find(&entries).Error
	return entries, err
}
