package entity

type Role string

const (
	RoleClient     Role = "client"
	RoleConsultant Role = "consultant"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleConsultant
}

// User mirrors an authenticated principal. Identity itself lives in the
// token issuer; this row only exists so that every other table can point at it.
type User struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Username  string `gorm:"type:varchar(80);not null"`
	Role      Role   `gorm:"type:varchar(16);not null;index"`
	CreatedAt int64  `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:milli"`
}
