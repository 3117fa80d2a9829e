package entity

type ApplicationStatus string

const (
	ApplicationSubmitted ApplicationStatus = "submitted"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCancelled ApplicationStatus = "cancelled"
)

// CanTransition reports whether an application may move from s to next.
// Every status other than submitted is terminal.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	switch s {
	case ApplicationSubmitted:
		return next == ApplicationAccepted || next == ApplicationRejected || next == ApplicationCancelled
	default:
		return false
	}
}

type Application struct {
	ID           int               `gorm:"primaryKey"`
	ClientID     int               `gorm:"not null;index"`
	ConsultantID int               `gorm:"not null;index"`
	Note         *string           `gorm:"type:text"`
	Status       ApplicationStatus `gorm:"type:varchar(16);not null;index"`
	CreatedAt    int64             `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt    int64             `gorm:"not null;autoUpdateTime:milli"`

	Client     User `gorm:"foreignKey:ClientID;references:ID"`
	Consultant User `gorm:"foreignKey:ConsultantID;references:ID"`
}
