package model

import (
	"time"
)

// swagger:model User
// ID 由外部身份提供方签发，服务端从不生成
type User struct {
	ID                  string    `gorm:"primaryKey;size:128" json:"id"`
	Email               string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	DisplayName         string    `gorm:"size:100" json:"display_name"`
	PhotoURL            string    `gorm:"size:512" json:"photo_url"`
	Level               int       `gorm:"default:1" json:"level"`
	ExperiencePoints    int       `gorm:"default:0" json:"experience_points"`
	GlobalRank          int       `gorm:"default:0" json:"global_rank"`
	TotalTimeSpent      int       `gorm:"default:0" json:"total_time_spent"`
	AlgorithmsCompleted int       `gorm:"default:0" json:"algorithms_completed"`
	CurrentStreak       int       `gorm:"default:0" json:"current_streak"`
	LongestStreak       int       `gorm:"default:0" json:"longest_streak"`
	PreferredLanguage   string    `gorm:"size:10;default:en" json:"preferred_language"`
	LastStudyDate       string    `gorm:"size:10" json:"last_study_date,omitempty"` // 连续学习天数的计算基准，YYYY-MM-DD
	CreatedAt           time.Time `json:"created_at"`
	LastActive          time.Time `json:"last_active"`
}

func (User) TableName() string {
	return "users"
}

// ProfileUpdate 资料修改，nil 字段保持不变
type ProfileUpdate struct {
	DisplayName       *string `json:"display_name"`
	PhotoURL          *string `json:"photo_url"`
	PreferredLanguage *string `json:"preferred_language" binding:"omitempty,max=10"`
}

// XPPerLevel 每升一级所需经验
const XPPerLevel = 200

func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}
