package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	analyticsWeeks  = 8
	analyticsMonths = 6
	daysPerWeek     = 7
)

type AnalyticsService struct {
	AnalyticsRepo *repository.AnalyticsRepository
	ProgressRepo  *repository.ProgressRepository
	UserRepo      *repository.UserRepository
	Catalog       *CatalogService
	now           func() time.Time
}

func NewAnalyticsService(
	analyticsRepo *repository.AnalyticsRepository,
	progressRepo *repository.ProgressRepository,
	userRepo *repository.UserRepository,
	catalog *CatalogService,
) *AnalyticsService {
	return &AnalyticsService{
		AnalyticsRepo: analyticsRepo,
		ProgressRepo:  progressRepo,
		UserRepo:      userRepo,
		Catalog:       catalog,
		now:           time.Now,
	}
}

// Get 不存在时创建全零行，随后按当前进度重算并保存
func (s *AnalyticsService) Get(ctx context.Context, userID string) (*model.LearningAnalytics, error) {
	row, err := s.AnalyticsRepo.FindOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	rows, err := s.ProgressRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	streak := 0
	user, err := s.UserRepo.FindByID(ctx, userID)
	switch {
	case err == nil:
		streak = user.CurrentStreak
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("load user: %w", err)
	}

	ComputeAnalytics(row, rows, streak, s.Catalog, s.now())
	if err := s.AnalyticsRepo.Save(ctx, row); err != nil {
		return nil, fmt.Errorf("save analytics: %w", err)
	}
	return row, nil
}

func (s *AnalyticsService) Refresh(ctx context.Context, userID string) (*model.LearningAnalytics, error) {
	return s.Get(ctx, userID)
}

// catalogLookup 只依赖目录的分类查询，便于测试替换
type catalogLookup interface {
	CategoryOf(algorithmID string) (string, model.Difficulty, bool)
	List() []model.AlgorithmSummary
}

// ComputeAnalytics 用进度行覆盖 a 的全部聚合字段
func ComputeAnalytics(a *model.LearningAnalytics, rows []model.UserProgress, streak int, catalog catalogLookup, now time.Time) {
	a.TotalTimeSpent = TotalTimeSpent(rows)
	a.AlgorithmsCompleted = countCompleted(rows)
	a.AverageAccuracy = averageAccuracy(rows)
	a.LearningStreak = streak

	categoryTotals := make(map[string]int)
	difficultyTotals := make(map[string]int)
	for _, summary := range catalog.List() {
		categoryTotals[summary.Category]++
		difficultyTotals[summary.Difficulty.Key()]++
	}

	categories := make(map[string]float64)
	difficulties := make(map[string]float64)
	categoryDone := make(map[string]int)
	difficultyDone := make(map[string]int)
	for _, p := range rows {
		category, difficulty, ok := catalog.CategoryOf(p.AlgorithmID)
		if !ok {
			continue
		}
		key := difficulty.Key()
		if _, seen := categories[category]; !seen {
			categories[category] = 0
		}
		if _, seen := difficulties[key]; !seen {
			difficulties[key] = 0
		}
		if p.Status == model.StatusCompleted {
			categoryDone[category]++
			difficultyDone[key]++
		}
	}
	for category := range categories {
		categories[category] = percent(categoryDone[category], categoryTotals[category])
	}
	for key := range difficulties {
		difficulties[key] = percent(difficultyDone[key], difficultyTotals[key])
	}
	a.CategoriesProgress = datatypes.NewJSONType(categories)
	a.DifficultyProgress = datatypes.NewJSONType(difficulties)

	a.WeeklyStats = weeklyStats(rows, streak, now)
	a.MonthlyStats = monthlyStats(rows, catalog, now)
}

func percent(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

func averageAccuracy(rows []model.UserProgress) float64 {
	var sum float64
	n := 0
	for _, p := range rows {
		if p.Status != model.StatusCompleted {
			continue
		}
		sum += p.Accuracy
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

type bucket struct {
	timeSpent   int
	completed   int
	accuracySum float64
	categories  map[string]bool
}

func (b *bucket) accuracy() float64 {
	if b.completed == 0 {
		return 0
	}
	return b.accuracySum / float64(b.completed)
}

// bucketize 完成数按 completed_at 归桶，学习时长按 last_accessed 归桶
func bucketize(rows []model.UserProgress, keyOf func(time.Time) string, categoryOf func(string) (string, bool)) map[string]*bucket {
	buckets := make(map[string]*bucket)
	get := func(key string) *bucket {
		b, ok := buckets[key]
		if !ok {
			b = &bucket{categories: make(map[string]bool)}
			buckets[key] = b
		}
		return b
	}
	for _, p := range rows {
		if !p.LastAccessed.IsZero() {
			get(keyOf(p.LastAccessed)).timeSpent += p.TimeSpent
		}
		if p.Status != model.StatusCompleted || p.CompletedAt == nil {
			continue
		}
		b := get(keyOf(*p.CompletedAt))
		b.completed++
		b.accuracySum += p.Accuracy
		if categoryOf != nil {
			if category, ok := categoryOf(p.AlgorithmID); ok {
				b.categories[category] = true
			}
		}
	}
	return buckets
}

// weeklyStats 最近 8 个 ISO 周，从旧到新，缺失的周补 0
func weeklyStats(rows []model.UserProgress, streak int, now time.Time) datatypes.JSONSlice[model.WeeklyStats] {
	buckets := bucketize(rows, weekKey, nil)
	current := weekKey(now)

	stats := make(datatypes.JSONSlice[model.WeeklyStats], 0, analyticsWeeks)
	for i := analyticsWeeks - 1; i >= 0; i-- {
		key := weekKey(now.AddDate(0, 0, -i*daysPerWeek))
		entry := model.WeeklyStats{Week: key}
		if b, ok := buckets[key]; ok {
			entry.TimeSpent = b.timeSpent
			entry.AlgorithmsCompleted = b.completed
			entry.Accuracy = b.accuracy()
		}
		if key == current {
			entry.StreakDays = min(streak, daysPerWeek)
		}
		stats = append(stats, entry)
	}
	return stats
}

// monthlyStats 最近 6 个自然月，从旧到新
func monthlyStats(rows []model.UserProgress, catalog catalogLookup, now time.Time) datatypes.JSONSlice[model.MonthlyStats] {
	buckets := bucketize(rows, monthKey, func(id string) (string, bool) {
		category, _, ok := catalog.CategoryOf(id)
		return category, ok
	})

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	stats := make(datatypes.JSONSlice[model.MonthlyStats], 0, analyticsMonths)
	for i := analyticsMonths - 1; i >= 0; i-- {
		key := monthKey(firstOfMonth.AddDate(0, -i, 0))
		entry := model.MonthlyStats{Month: key}
		if b, ok := buckets[key]; ok {
			entry.TimeSpent = b.timeSpent
			entry.AlgorithmsCompleted = b.completed
			entry.Accuracy = b.accuracy()
			entry.NewSkillsLearned = len(b.categories)
		}
		stats = append(stats, entry)
	}
	return stats
}
