package entity

type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalGain     GoalType = "gain"
	GoalMaintain GoalType = "maintain"
)

type NutritionTarget struct {
	ID           int     `gorm:"primaryKey" json:"-"`
	UserID       int     `gorm:"not null;uniqueIndex" json:"user_id"`
	CaloriesKcal int     `gorm:"not null" json:"calories_kcal"`
	ProteinG     float64 `gorm:"not null" json:"protein_g"`
	CarbsG       float64 `gorm:"not null" json:"carbs_g"`
	FatG         float64 `gorm:"not null" json:"fat_g"`
	CreatedAt    int64   `gorm:"not null;autoCreateTime:milli" json:"-"`
	UpdatedAt    int64   `gorm:"not null;autoUpdateTime:milli" json:"-"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

type UserGoal struct {
	ID            int      `gorm:"primaryKey" json:"-"`
	UserID        int      `gorm:"not null;uniqueIndex" json:"user_id"`
	GoalType      GoalType `gorm:"type:varchar(16);not null" json:"goal_type"`
	TargetDeltaKg *float64 `json:"target_delta_kg,omitempty"`
	DurationDays  *int     `json:"duration_days,omitempty"`
	StartDate     *string  `gorm:"type:varchar(10)" json:"start_date,omitempty"`
	EndDate       *string  `gorm:"type:varchar(10)" json:"end_date,omitempty"`
	CreatedAt     int64    `gorm:"not null;autoCreateTime:milli" json:"-"`
	UpdatedAt     int64    `gorm:"not null;autoUpdateTime:milli" json:"-"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

type UserData struct {
	ID            int      `gorm:"primaryKey" json:"-"`
	UserID        int      `gorm:"not null;uniqueIndex" json:"user_id"`
	Age           *int     `json:"age,omitempty"`
	Gender        *string  `gorm:"type:varchar(8)" json:"gender,omitempty"`
	HeightCm      *float64 `json:"height_cm,omitempty"`
	WeightKg      *float64 `json:"weight_kg,omitempty"`
	ActivityLevel *string  `gorm:"type:varchar(16)" json:"activity_level,omitempty"`
	CreatedAt     int64    `gorm:"not null;autoCreateTime:milli" json:"-"`
	UpdatedAt     int64    `gorm:"not null;autoUpdateTime:milli" json:"-"`

	User User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (UserData) TableName() string {
	return "user_data"
}
