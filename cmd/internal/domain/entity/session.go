package entity

type RoomStatus string

const (
	RoomNotStarted RoomStatus = "not_started"
	RoomActive     RoomStatus = "active"
	RoomEnded      RoomStatus = "ended"
)

// CanTransition only allows the forward path not_started -> active -> ended.
func (s RoomStatus) CanTransition(next RoomStatus) bool {
	switch s {
	case RoomNotStarted:
		return next == RoomActive
	case RoomActive:
		return next == RoomEnded
	default:
		return false
	}
}

// SessionRoom is the live-session state of exactly one appointment.
type SessionRoom struct {
	ID            int        `gorm:"primaryKey"`
	AppointmentID int        `gorm:"not null;uniqueIndex"`
	Status        RoomStatus `gorm:"type:varchar(16);not null;index"`
	StartedAt     *int64
	EndedAt       *int64
	StartedBy     *int
	EndedBy       *int
	CreatedAt     int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt     int64 `gorm:"not null;autoUpdateTime:milli"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID;references:ID"`
}

type ChatMessage struct {
	ID       int    `gorm:"primaryKey"`
	RoomID   int    `gorm:"not null;index:idx_chat_room_sent,priority:1"`
	SenderID int    `gorm:"not null;index"`
	Text     string `gorm:"type:text;not null"`
	SentAt   int64  `gorm:"not null;index:idx_chat_room_sent,priority:2"`

	Room   SessionRoom `gorm:"foreignKey:RoomID;references:ID"`
	Sender User        `gorm:"foreignKey:SenderID;references:ID"`
}

// SessionNote is the consultant's single note for an appointment.
type SessionNote struct {
	ID              int    `gorm:"primaryKey"`
	AppointmentID   int    `gorm:"not null;uniqueIndex"`
	AuthorID        int    `gorm:"not null;index"`
	Text            string `gorm:"type:text;not null"`
	VisibleToClient bool   `gorm:"not null;default:false"`
	CreatedAt       int64  `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt       int64  `gorm:"not null;autoUpdateTime:milli"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID;references:ID"`
	Author      User        `gorm:"foreignKey:AuthorID;references:ID"`
}
