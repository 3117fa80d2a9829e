package entity

import "gorm.io/datatypes"

type Scope string

const (
	ScopeRead      Scope = "read"
	ScopeReadWrite Scope = "read_write"
)

func (s Scope) Valid() bool {
	return s == ScopeRead || s == ScopeReadWrite
}

func (s Scope) AllowsWrite() bool {
	return s == ScopeReadWrite
}

type Resource string

const (
	ResourceNutritionTargets Resource = "nutrition_targets"
	ResourceUserGoals        Resource = "user_goals"
	ResourceUserData         Resource = "user_data"
)

// Resources lists every health resource in canonical order.
var Resources = []Resource{ResourceNutritionTargets, ResourceUserGoals, ResourceUserData}

func (r Resource) Valid() bool {
	for _, known := range Resources {
		if r == known {
			return true
		}
	}
	return false
}

type PermissionStatus string

const (
	PermissionActive  PermissionStatus = "active"
	PermissionRevoked PermissionStatus = "revoked"
)

// CanTransition allows revocation of an active grant and re-grant in any state.
func (s PermissionStatus) CanTransition(next PermissionStatus) bool {
	switch next {
	case PermissionActive:
		return s == PermissionActive || s == PermissionRevoked
	case PermissionRevoked:
		return s == PermissionActive
	default:
		return false
	}
}

// ConsultantPermission is the single current-state consent row of a
// (client, consultant) pair. Re-granting rewrites it in place.
type ConsultantPermission struct {
	ID            int                           `gorm:"primaryKey"`
	ClientID      int                           `gorm:"not null;uniqueIndex:ux_permission_pair,priority:1"`
	ConsultantID  int                           `gorm:"not null;uniqueIndex:ux_permission_pair,priority:2;index"`
	Scope         Scope                         `gorm:"type:varchar(16);not null"`
	Resources     datatypes.JSONSlice[Resource] `gorm:"not null"`
	Status        PermissionStatus              `gorm:"type:varchar(16);not null;index"`
	AppointmentID *int                          `gorm:"index"`
	GrantedAt     int64                         `gorm:"not null"`
	RevokedAt     *int64
	CreatedAt     int64 `gorm:"not null;autoCreateTime:milli"`

	Client      User         `gorm:"foreignKey:ClientID;references:ID"`
	Consultant  User         `gorm:"foreignKey:ConsultantID;references:ID"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID;references:ID"`
}

func (p *ConsultantPermission) IsActive() bool {
	return p.Status == PermissionActive
}

func (p *ConsultantPermission) Covers(resource Resource) bool {
	for _, r := range p.Resources {
		if r == resource {
			return true
		}
	}
	return false
}

// PinnedTo reports whether the grant was issued for the given appointment.
func (p *ConsultantPermission) PinnedTo(appointmentID int) bool {
	return p.AppointmentID != nil && *p.AppointmentID == appointmentID
}
