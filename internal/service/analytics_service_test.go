package service

import (
	"ai_academy_backend/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsLazyCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.analytics.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, first.TotalTimeSpent)
	assert.Equal(t, 0, first.AlgorithmsCompleted)
	assert.Equal(t, 0.0, first.AverageAccuracy)
	assert.Empty(t, first.CategoriesProgress.Data())
	assert.Len(t, first.WeeklyStats, analyticsWeeks)
	assert.Len(t, first.MonthlyStats, analyticsMonths)

	second, err := env.analytics.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&model.LearningAnalytics{}).Where("user_id = ?", "fresh").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAnalyticsAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	accuracy := 90.0
	_, err := env.progress.Start(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	_, err = env.progress.Update(ctx, "u1", "linear-regression", model.ProgressPatch{TimeSpent: intPtr(30), Accuracy: &accuracy})
	require.NoError(t, err)
	_, err = env.progress.Complete(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	_, err = env.progress.Start(ctx, "u1", "neural-networks")
	require.NoError(t, err)
	_, err = env.progress.Update(ctx, "u1", "neural-networks", model.ProgressPatch{TimeSpent: intPtr(15)})
	require.NoError(t, err)

	a, err := env.analytics.Refresh(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 45, a.TotalTimeSpent)
	assert.Equal(t, 1, a.AlgorithmsCompleted)
	assert.Equal(t, 90.0, a.AverageAccuracy)
	assert.Equal(t, 1, a.LearningStreak)
	assert.Equal(t, map[string]float64{"Machine Learning": 50, "Deep Learning": 0}, a.CategoriesProgress.Data())
	assert.Equal(t, map[string]float64{"beginner": 50, "intermediate": 0}, a.DifficultyProgress.Data())

	current := a.WeeklyStats[len(a.WeeklyStats)-1]
	assert.Equal(t, "2025-W11", current.Week)
	assert.Equal(t, 45, current.TimeSpent)
	assert.Equal(t, 1, current.AlgorithmsCompleted)
	assert.Equal(t, 90.0, current.Accuracy)
	assert.Equal(t, 1, current.StreakDays)

	month := a.MonthlyStats[len(a.MonthlyStats)-1]
	assert.Equal(t, "2025-03", month.Month)
	assert.Equal(t, 1, month.AlgorithmsCompleted)
	assert.Equal(t, 1, month.NewSkillsLearned)
	assert.Equal(t, 0, month.ProjectsCompleted)
}

func TestWeeklyStatsZeroFilled(t *testing.T) {
	completed := time.Date(2025, 2, 4, 9, 0, 0, 0, time.UTC)
	rows := []model.UserProgress{
		{AlgorithmID: "k-means", Status: model.StatusCompleted, Accuracy: 70, TimeSpent: 20, LastAccessed: completed, CompletedAt: &completed},
	}

	stats := weeklyStats(rows, 12, testNow)
	require.Len(t, stats, analyticsWeeks)
	assert.Equal(t, "2025-W04", stats[0].Week)
	assert.Equal(t, "2025-W11", stats[analyticsWeeks-1].Week)
	assert.Equal(t, daysPerWeek, stats[analyticsWeeks-1].StreakDays)

	for _, s := range stats {
		if s.Week == "2025-W06" {
			assert.Equal(t, 20, s.TimeSpent)
			assert.Equal(t, 1, s.AlgorithmsCompleted)
			assert.Equal(t, 70.0, s.Accuracy)
			continue
		}
		assert.Zero(t, s.TimeSpent, s.Week)
		assert.Zero(t, s.AlgorithmsCompleted, s.Week)
	}
}

func TestMonthlyStatsWindow(t *testing.T) {
	catalog := newTestCatalog(t)
	old := time.Date(2024, 8, 20, 9, 0, 0, 0, time.UTC)
	rows := []model.UserProgress{
		{AlgorithmID: "k-means", Status: model.StatusCompleted, TimeSpent: 20, LastAccessed: old, CompletedAt: &old},
	}

	stats := monthlyStats(rows, catalog, testNow)
	require.Len(t, stats, analyticsMonths)
	assert.Equal(t, "2024-10", stats[0].Month)
	assert.Equal(t, "2025-03", stats[analyticsMonths-1].Month)
	for _, s := range stats {
		assert.Zero(t, s.AlgorithmsCompleted, s.Month)
	}
}
