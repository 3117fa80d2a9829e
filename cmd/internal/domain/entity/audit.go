package entity

import "gorm.io/datatypes"

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntry is append-only. Nothing updates or deletes these rows.
type AuditEntry struct {
	ID            int            `gorm:"primaryKey"`
	SubjectID     int            `gorm:"not null;index"`
	ActorID       int            `gorm:"not null;index"`
	Resource      Resource       `gorm:"type:varchar(32);not null;index"`
	Action        AuditAction    `gorm:"type:varchar(16);not null"`
	Before        datatypes.JSON `gorm:"not null"`
	After         datatypes.JSON `gorm:"not null"`
	AppointmentID *int           `gorm:"index"`
	CreatedAt     int64          `gorm:"not null;index;autoCreateTime:milli"`

	Subject     User         `gorm:"foreignKey:SubjectID;references:ID"`
	Actor       User         `gorm:"foreignKey:ActorID;references:ID"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID;references:ID"`
}

func (AuditEntry) TableName() string {
	return "health_change_audit"
}
