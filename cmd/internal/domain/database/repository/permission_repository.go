package repository

import (
	"errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"nutricare/cmd/internal/domain/entity"
)

type DefaultPermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *DefaultPermissionRepository {
	return &DefaultPermissionRepository{db: db}
}

func (p *DefaultPermissionRepository) FindByPair(clientID, consultantID int) (*entity.ConsultantPermission, error) {
	var perm entity.ConsultantPermission
	err := p.db.Where("client_id = ? AND consultant_id = ?", clientID, consultantID).First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (p *DefaultPermissionRepository) FindByClientID(clientID int) ([]*entity.ConsultantPermission, error) {
	var perms []*entity.ConsultantPermission
	err := p.db.Where("client_id = ?", clientID).
		Order("granted_at desc, id desc").
		Find(&perms).Error
	return perms, err
}

// Upsert writes the pair's grant in place, reactivating a revoked row.
// The stored row is reloaded into perm.
func (p *DefaultPermissionRepository) Upsert(perm *entity.ConsultantPermission) error {
	err := p.db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "client_id"}, {Name: "consultant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scope", "resources", "status", "appointment_id", "granted_at", "revoked_at",
			}),
		}).
		Create(perm).Error
	if err != nil {
		return err
	}
	perm.ID = 0
	return p.db.Where("client_id = ? AND consultant_id = ?", perm.ClientID, perm.ConsultantID).First(perm).Error
}

// Revoke marks the pair's active grant as revoked. It reports whether a
// grant was actually active.
func (p *DefaultPermissionRepository) Revoke(clientID, consultantID int, now int64) (bool, error) {
	res := p.db.Model(&entity.ConsultantPermission{}).
		Where("client_id = ? AND consultant_id = ? AND status = ?", clientID, consultantID, entity.PermissionActive).
		Updates(map[string]any{"status": entity.PermissionRevoked, "revoked_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
