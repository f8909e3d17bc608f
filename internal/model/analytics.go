package model

import (
	"time"

	"gorm.io/datatypes"
)

// LearningAnalytics 每个用户一行
type LearningAnalytics struct {
	ID                  uint                                   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              string                                 `gorm:"size:128;not null;uniqueIndex" json:"user_id"`
	TotalTimeSpent      int                                    `gorm:"not null" json:"total_time_spent"`
	AlgorithmsCompleted int                                    `gorm:"not null" json:"algorithms_completed"`
	AverageAccuracy     float64                                `gorm:"not null" json:"average_accuracy"`
	CategoriesProgress  datatypes.JSONType[map[string]float64] `json:"categories_progress"`
	DifficultyProgress  datatypes.JSONType[map[string]float64] `json:"difficulty_progress"`
	LearningStreak      int                                    `gorm:"not null" json:"learning_streak"`
	WeeklyStats         datatypes.JSONSlice[WeeklyStats]       `json:"weekly_stats"`
	MonthlyStats        datatypes.JSONSlice[MonthlyStats]      `json:"monthly_stats"`
	UpdatedAt           time.Time                              `json:"updated_at"`
}

func (LearningAnalytics) TableName() string {
	return "learning_analytics"
}

// NewLearningAnalytics 全零默认值
func NewLearningAnalytics(userID string) *LearningAnalytics {
	return &LearningAnalytics{
		UserID:             userID,
		CategoriesProgress: datatypes.NewJSONType(map[string]float64{}),
		DifficultyProgress: datatypes.NewJSONType(map[string]float64{}),
		WeeklyStats:        datatypes.JSONSlice[WeeklyStats]{},
		MonthlyStats:       datatypes.JSONSlice[MonthlyStats]{},
	}
}
