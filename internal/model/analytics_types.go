package model

// WeeklyStats 周统计，week 形如 2025-W07
type WeeklyStats struct {
	Week                string  `json:"week"`
	TimeSpent           int     `json:"timeSpent"`
	AlgorithmsCompleted int     `json:"algorithmsCompleted"`
	Accuracy            float64 `json:"accuracy"`
	StreakDays          int     `json:"streakDays"`
}

// MonthlyStats 月统计，month 形如 2025-02
type MonthlyStats struct {
	Month               string  `json:"month"`
	TimeSpent           int     `json:"timeSpent"`
	AlgorithmsCompleted int     `json:"algorithmsCompleted"`
	Accuracy            float64 `json:"accuracy"`
	NewSkillsLearned    int     `json:"newSkillsLearned"`
	ProjectsCompleted   int     `json:"projectsCompleted"`
}
