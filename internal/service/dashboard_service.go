package service

import (
	"time"
)

// DashboardStats 仪表盘概览，目前除算法总数外均为演示数据
type DashboardStats struct {
	TotalAlgorithms     int     `json:"totalAlgorithms"`
	CompletedAlgorithms int     `json:"completedAlgorithms"`
	CurrentStreak       int     `json:"currentStreak"`
	WeeklyGoal          int     `json:"weeklyGoal"`
	WeeklyProgress      int     `json:"weeklyProgress"`
	TotalHours          float64 `json:"totalHours"`
	AvgSessionTime      float64 `json:"avgSessionTime"`
	CompletionRate      float64 `json:"completionRate"`
	GlobalRank          int     `json:"globalRank"`
	ExperiencePoints    int     `json:"experiencePoints"`
}

type DashboardActivity struct {
	ID          int       `json:"id"`
	Type        string    `json:"type"`
	Algorithm   string    `json:"algorithm"`
	Timestamp   time.Time `json:"timestamp"`
	Duration    int       `json:"duration,omitempty"`
	Accuracy    *float64  `json:"accuracy"`
	Achievement string    `json:"achievement,omitempty"`
	Points      int       `json:"points,omitempty"`
}

type RecommendedAlgorithm struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Difficulty    string  `json:"difficulty"`
	EstimatedTime string  `json:"estimatedTime"`
	Rating        float64 `json:"rating"`
	Reason        string  `json:"reason"`
}

type DashboardService struct {
	Catalog *CatalogService
	now     func() time.Time
}

func NewDashboardService(catalog *CatalogService) *DashboardService {
	return &DashboardService{Catalog: catalog, now: time.Now}
}

func (s *DashboardService) Stats() DashboardStats {
	return DashboardStats{
		TotalAlgorithms: s.Catalog.Count(),
		WeeklyGoal:      5,
		WeeklyProgress:  2,
		GlobalRank:      1000,
	}
}

// Activity 时间戳相对当前时间生成
func (s *DashboardService) Activity() []DashboardActivity {
	now := s.now().UTC()
	accuracy := 95.0
	return []DashboardActivity{
		{
			ID:        1,
			Type:      "completed",
			Algorithm: "Linear Regression",
			Timestamp: now.Add(-24 * time.Hour),
			Duration:  120,
			Accuracy:  &accuracy,
		},
		{
			ID:        2,
			Type:      "started",
			Algorithm: "Neural Networks",
			Timestamp: now.Add(-2 * time.Hour),
			Duration:  45,
		},
		{
			ID:          3,
			Type:        "achievement",
			Algorithm:   "K-Means Clustering",
			Timestamp:   now.Add(-48 * time.Hour),
			Achievement: "First Algorithm Completed",
			Points:      100,
		},
	}
}

func (s *DashboardService) Recommended() []RecommendedAlgorithm {
	return []RecommendedAlgorithm{
		{
			ID:            "linear-regression",
			Name:          "Linear Regression",
			Category:      "Machine Learning",
			Difficulty:    "Beginner",
			EstimatedTime: "2-3 hours",
			Rating:        4.8,
			Reason:        "Perfect for beginners in machine learning",
		},
		{
			ID:            "k-means",
			Name:          "K-Means Clustering",
			Category:      "Machine Learning",
			Difficulty:    "Beginner",
			EstimatedTime: "2-3 hours",
			Rating:        4.6,
			Reason:        "Builds on your statistics knowledge",
		},
		{
			ID:            "neural-networks",
			Name:          "Neural Networks",
			Category:      "Deep Learning",
			Difficulty:    "Intermediate",
			EstimatedTime: "5-6 hours",
			Rating:        4.7,
			Reason:        "Next step in your learning journey",
		},
	}
}
