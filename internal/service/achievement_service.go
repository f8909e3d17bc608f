package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/pkg/logger"
	"ai_academy_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultAchievementRules 声明式成就规则表，按 Requirement.Type 分派
var DefaultAchievementRules = []model.AchievementDefinition{
	{
		ID:          "first_algorithm",
		Name:        "First Steps",
		Description: "Complete your first algorithm",
		Icon:        "🎯",
		Category:    model.CategoryMilestone,
		Points:      100,
		Rarity:      model.RarityCommon,
		Requirement: model.AchievementRequirement{Type: model.RequirementAlgorithmsCompleted, Value: 1},
	},
	{
		ID:          "algorithm_explorer",
		Name:        "Algorithm Explorer",
		Description: "Complete three algorithms",
		Icon:        "🧭",
		Category:    model.CategoryExploration,
		Points:      250,
		Rarity:      model.RarityUncommon,
		Requirement: model.AchievementRequirement{Type: model.RequirementAlgorithmsCompleted, Value: 3},
	},
	{
		ID:          "algorithm_master",
		Name:        "Algorithm Master",
		Description: "Complete ten algorithms",
		Icon:        "🏆",
		Category:    model.CategoryMilestone,
		Points:      1000,
		Rarity:      model.RarityEpic,
		Requirement: model.AchievementRequirement{Type: model.RequirementAlgorithmsCompleted, Value: 10},
	},
	{
		ID:          "dedicated_learner",
		Name:        "Dedicated Learner",
		Description: "Spend an hour learning",
		Icon:        "⏱️",
		Category:    model.CategoryLearning,
		Points:      150,
		Rarity:      model.RarityCommon,
		Requirement: model.AchievementRequirement{Type: model.RequirementTimeSpent, Value: 60},
	},
	{
		ID:          "marathon_learner",
		Name:        "Marathon Learner",
		Description: "Spend ten hours learning",
		Icon:        "🏃",
		Category:    model.CategoryLearning,
		Points:      500,
		Rarity:      model.RarityRare,
		Requirement: model.AchievementRequirement{Type: model.RequirementTimeSpent, Value: 600},
	},
	{
		ID:          "sharpshooter",
		Name:        "Sharpshooter",
		Description: "Keep an average accuracy of 90% across completed algorithms",
		Icon:        "🎯",
		Category:    model.CategoryPerformance,
		Points:      300,
		Rarity:      model.RarityRare,
		Requirement: model.AchievementRequirement{Type: model.RequirementAccuracy, Value: 90},
	},
	{
		ID:          "week_streak",
		Name:        "On Fire",
		Description: "Learn seven days in a row",
		Icon:        "🔥",
		Category:    model.CategoryConsistency,
		Points:      300,
		Rarity:      model.RarityUncommon,
		Requirement: model.AchievementRequirement{Type: model.RequirementStreak, Value: 7},
	},
	{
		ID:          "ml_mastery",
		Name:        "Machine Learning Adept",
		Description: "Complete two Machine Learning algorithms",
		Icon:        "🤖",
		Category:    model.CategoryLearning,
		Points:      400,
		Rarity:      model.RarityRare,
		Requirement: model.AchievementRequirement{Type: model.RequirementCategoryMastery, Value: 2, Category: "Machine Learning"},
	},
	{
		ID:          "deep_diver",
		Name:        "Deep Diver",
		Description: "Complete a Deep Learning algorithm",
		Icon:        "🧠",
		Category:    model.CategoryExploration,
		Points:      200,
		Rarity:      model.RarityUncommon,
		Requirement: model.AchievementRequirement{Type: model.RequirementCategoryMastery, Value: 1, Category: "Deep Learning"},
	},
}

// LearnerFacts 规则求值所需的派生事实
type LearnerFacts struct {
	AlgorithmsCompleted int
	TimeSpent           int
	AverageAccuracy     float64
	Streak              int
	CompletedByCategory map[string]int
}

// Satisfies 未知类型永远不满足
func (f LearnerFacts) Satisfies(req model.AchievementRequirement) bool {
	switch req.Type {
	case model.RequirementAlgorithmsCompleted:
		return float64(f.AlgorithmsCompleted) >= req.Value
	case model.RequirementTimeSpent:
		return float64(f.TimeSpent) >= req.Value
	case model.RequirementAccuracy:
		return f.AlgorithmsCompleted > 0 && f.AverageAccuracy >= req.Value
	case model.RequirementStreak:
		return float64(f.Streak) >= req.Value
	case model.RequirementCategoryMastery:
		return float64(f.CompletedByCategory[req.Category]) >= req.Value
	}
	return false
}

// BuildLearnerFacts categoryOf 查不到的算法不计入分类统计
func BuildLearnerFacts(rows []model.UserProgress, streak int, categoryOf func(id string) (string, bool)) LearnerFacts {
	facts := LearnerFacts{
		Streak:              streak,
		CompletedByCategory: make(map[string]int),
	}
	var accuracySum float64
	for _, p := range rows {
		facts.TimeSpent += p.TimeSpent
		if p.Status != model.StatusCompleted {
			continue
		}
		facts.AlgorithmsCompleted++
		accuracySum += p.Accuracy
		if category, ok := categoryOf(p.AlgorithmID); ok {
			facts.CompletedByCategory[category]++
		}
	}
	if facts.AlgorithmsCompleted > 0 {
		facts.AverageAccuracy = accuracySum / float64(facts.AlgorithmsCompleted)
	}
	return facts
}

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	ProgressRepo    *repository.ProgressRepository
	UserRepo        *repository.UserRepository
	Catalog         *CatalogService
	Users           *UserService
	Rules           []model.AchievementDefinition
	now             func() time.Time
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	progressRepo *repository.ProgressRepository,
	userRepo *repository.UserRepository,
	catalog *CatalogService,
	users *UserService,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		ProgressRepo:    progressRepo,
		UserRepo:        userRepo,
		Catalog:         catalog,
		Users:           users,
		Rules:           DefaultAchievementRules,
		now:             time.Now,
	}
}

func (s *AchievementService) Definitions() []model.AchievementDefinition {
	return s.Rules
}

func (s *AchievementService) List(ctx context.Context, userID string) ([]model.Achievement, error) {
	achievements, err := s.AchievementRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}

// Unlock 直接写入一条成就，重复写入返回 false 且不报错
func (s *AchievementService) Unlock(ctx context.Context, a *model.Achievement) (bool, error) {
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = s.now()
	}
	created, err := s.AchievementRepo.InsertIfAbsent(ctx, a)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	if created {
		s.onUnlocked(ctx, a)
	}
	return created, nil
}

// Evaluate 重新加载进度后求值全部规则
func (s *AchievementService) Evaluate(ctx context.Context, userID string) ([]model.Achievement, error) {
	rows, err := s.ProgressRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	return s.EvaluateRows(ctx, userID, rows)
}

// EvaluateRows 只返回本次新插入的成就
func (s *AchievementService) EvaluateRows(ctx context.Context, userID string, rows []model.UserProgress) ([]model.Achievement, error) {
	streak, err := s.currentStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	facts := BuildLearnerFacts(rows, streak, func(id string) (string, bool) {
		category, _, ok := s.Catalog.CategoryOf(id)
		return category, ok
	})

	unlocked := make([]model.Achievement, 0)
	now := s.now()
	for _, rule := range s.Rules {
		if !facts.Satisfies(rule.Requirement) {
			continue
		}
		record := rule.Record(userID, now)
		created, err := s.AchievementRepo.InsertIfAbsent(ctx, record)
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", rule.ID, err)
		}
		if created {
			s.onUnlocked(ctx, record)
			unlocked = append(unlocked, *record)
		}
	}
	return unlocked, nil
}

func (s *AchievementService) currentStreak(ctx context.Context, userID string) (int, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load user: %w", err)
	}
	return user.CurrentStreak, nil
}

func (s *AchievementService) onUnlocked(ctx context.Context, a *model.Achievement) {
	monitoring.AchievementsUnlocked.WithLabelValues(a.AchievementID).Inc()
	logger.Log.Info("achievement unlocked",
		zap.String("user_id", a.UserID),
		zap.String("achievement_id", a.AchievementID),
	)
	if err := s.Users.AddExperience(ctx, a.UserID, a.Points); err != nil {
		logger.Log.Warn("award experience failed", zap.String("user_id", a.UserID), zap.Error(err))
	}
}
