package entity

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled:
		return next == AppointmentCompleted || next == AppointmentCancelled || next == AppointmentNoShow
	default:
		return false
	}
}

type Appointment struct {
	ID            int               `gorm:"primaryKey"`
	ApplicationID *int              `gorm:"index"`
	ClientID      int               `gorm:"not null;index"`
	ConsultantID  int               `gorm:"not null;index"`
	BeginsAt      int64             `gorm:"not null;index"`
	EndsAt        int64             `gorm:"not null"`
	Status        AppointmentStatus `gorm:"type:varchar(16);not null;index"`
	CreatedAt     int64             `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt     int64             `gorm:"not null;autoUpdateTime:milli"`

	Application *Application `gorm:"foreignKey:ApplicationID;references:ID"`
	Client      User         `gorm:"foreignKey:ClientID;references:ID"`
	Consultant  User         `gorm:"foreignKey:ConsultantID;references:ID"`
}

func (a *Appointment) IsParticipant(userID int) bool {
	return a.ClientID == userID || a.ConsultantID == userID
}
