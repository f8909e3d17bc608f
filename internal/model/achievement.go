package model

import "time"

type AchievementCategory string

const (
	CategoryLearning    AchievementCategory = "learning"
	CategoryPerformance AchievementCategory = "performance"
	CategoryConsistency AchievementCategory = "consistency"
	CategoryExploration AchievementCategory = "exploration"
	CategorySocial      AchievementCategory = "social"
	CategoryMilestone   AchievementCategory = "milestone"
)

type AchievementRarity string

const (
	RarityCommon    AchievementRarity = "common"
	RarityUncommon  AchievementRarity = "uncommon"
	RarityRare      AchievementRarity = "rare"
	RarityEpic      AchievementRarity = "epic"
	RarityLegendary AchievementRarity = "legendary"
)

// RequirementType 成就触发条件类型
type RequirementType string

const (
	RequirementAlgorithmsCompleted RequirementType = "algorithms_completed"
	RequirementTimeSpent           RequirementType = "time_spent"
	RequirementAccuracy            RequirementType = "accuracy"
	RequirementStreak              RequirementType = "streak"
	RequirementCategoryMastery     RequirementType = "category_mastery"
)

// Achievement 用户解锁记录，元数据冗余存储
type Achievement struct {
	ID            uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        string              `gorm:"size:128;not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string              `gorm:"size:64;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Name          string              `gorm:"size:100;not null" json:"name"`
	Description   string              `gorm:"size:255;not null" json:"description"`
	Icon          string              `gorm:"size:32;not null" json:"icon"`
	Category      AchievementCategory `gorm:"size:20;not null" json:"category"`
	Points        int                 `gorm:"not null" json:"points"`
	Rarity        AchievementRarity   `gorm:"size:20;not null" json:"rarity"`
	UnlockedAt    time.Time           `json:"unlocked_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}

type AchievementRequirement struct {
	Type     RequirementType `json:"type"`
	Value    float64         `json:"value"`
	Category string          `json:"category,omitempty"`
}

// AchievementDefinition 规则表中的一条成就
type AchievementDefinition struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Icon        string                 `json:"icon"`
	Category    AchievementCategory    `json:"category"`
	Points      int                    `json:"points"`
	Rarity      AchievementRarity      `json:"rarity"`
	Requirement AchievementRequirement `json:"requirement"`
}

// Record 为 userID 生成解锁记录
func (d AchievementDefinition) Record(userID string, at time.Time) *Achievement {
	return &Achievement{
		UserID:        userID,
		AchievementID: d.ID,
		Name:          d.Name,
		Description:   d.Description,
		Icon:          d.Icon,
		Category:      d.Category,
		Points:        d.Points,
		Rarity:        d.Rarity,
		UnlockedAt:    at,
	}
}
