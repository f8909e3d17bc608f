package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/util"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, env *testEnv, id string) {
	t.Helper()
	_, err := env.users.Upsert(context.Background(), UpsertUserRequest{ID: id, Email: id + "@example.com", DisplayName: id})
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }

func TestKeepEarliest(t *testing.T) {
	earlier := testNow.Add(-time.Hour)
	assert.Equal(t, earlier, KeepEarliest(&earlier, testNow))
	assert.Equal(t, testNow, KeepEarliest(nil, testNow))

	var zero time.Time
	assert.Equal(t, testNow, KeepEarliest(&zero, testNow))
}

func TestStartIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.progress.Start(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, first.Progress.Status)
	assert.Equal(t, 1, first.Progress.Attempts)
	assert.Empty(t, first.Progress.CompletedSections)
	require.NotNil(t, first.Progress.StartedAt)

	env.clock.advance(time.Hour)
	second, err := env.progress.Start(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	assert.Equal(t, first.Progress.ID, second.Progress.ID)
	assert.Equal(t, 1, second.Progress.Attempts)
	assert.True(t, second.Progress.StartedAt.Equal(*first.Progress.StartedAt))

	rows, err := env.progress.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStartRequiresKeys(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.progress.Start(context.Background(), "", "linear-regression")
	assert.ErrorIs(t, err, util.ErrMissingUserID)
	_, err = env.progress.Start(context.Background(), "u1", " ")
	assert.ErrorIs(t, err, util.ErrMissingAlgorithmID)
}

func TestUpdateRequiresExistingRow(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.progress.Update(context.Background(), "u1", "k-means", model.ProgressPatch{TimeSpent: intPtr(10)})
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
}

func TestUpdateMergesAndKeepsStartedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	started, err := env.progress.Start(ctx, "u1", "k-means")
	require.NoError(t, err)

	env.clock.advance(2 * time.Hour)
	accuracy := 80.0
	later := env.clock.now().Add(time.Hour)
	result, err := env.progress.Update(ctx, "u1", "k-means", model.ProgressPatch{
		TimeSpent: intPtr(25),
		Accuracy:  &accuracy,
		StartedAt: &later,
	})
	require.NoError(t, err)

	p := result.Progress
	assert.Equal(t, 25, p.TimeSpent)
	assert.Equal(t, 80.0, p.Accuracy)
	assert.Equal(t, model.StatusInProgress, p.Status)
	assert.True(t, p.StartedAt.Equal(*started.Progress.StartedAt))
	assert.True(t, p.LastAccessed.Equal(env.clock.now()))
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.progress.Start(ctx, "u1", "k-means")
	require.NoError(t, err)
	_, err = env.progress.Update(ctx, "u1", "k-means", model.ProgressPatch{TimeSpent: intPtr(30)})
	require.NoError(t, err)

	_, err = env.progress.Update(ctx, "u1", "k-means", model.ProgressPatch{TimeSpent: intPtr(10)})
	assert.ErrorIs(t, err, util.ErrTimeSpentDecreased)

	bad := model.ProgressStatus("paused")
	_, err = env.progress.Update(ctx, "u1", "k-means", model.ProgressPatch{Status: &bad})
	assert.ErrorIs(t, err, util.ErrInvalidStatus)

	_, err = env.progress.Update(ctx, "u1", "k-means", model.ProgressPatch{Rating: intPtr(6)})
	assert.ErrorIs(t, err, util.ErrInvalidRating)

	// 校验失败不落库
	p, err := env.progress.Get(ctx, "u1", "k-means")
	require.NoError(t, err)
	assert.Equal(t, 30, p.TimeSpent)
	assert.Nil(t, p.Rating)
}

func TestCompleteKeepsFirstCompletedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	_, err := env.progress.Start(ctx, "u1", "linear-regression")
	require.NoError(t, err)

	first, err := env.progress.Complete(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, first.Progress.Status)
	require.NotNil(t, first.Progress.CompletedAt)
	firstCompleted := *first.Progress.CompletedAt

	unlocked := make([]string, 0)
	for _, a := range first.Unlocked {
		unlocked = append(unlocked, a.AchievementID)
	}
	assert.Contains(t, unlocked, "first_algorithm")

	env.clock.advance(24 * time.Hour)
	again, err := env.progress.Complete(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	assert.True(t, again.Progress.CompletedAt.Equal(firstCompleted))
	assert.Empty(t, again.Unlocked)
}

func TestCompleteMissingRow(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.progress.Complete(context.Background(), "u1", "linear-regression")
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
}

func TestCompleteSectionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.progress.Start(ctx, "u1", "neural-networks")
	require.NoError(t, err)

	first, err := env.progress.CompleteSection(ctx, "u1", "neural-networks", "intro")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, []string(first.Progress.CompletedSections))
	assert.Equal(t, model.SectionTimeIncrement, first.Progress.TimeSpent)

	again, err := env.progress.CompleteSection(ctx, "u1", "neural-networks", "intro")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, []string(again.Progress.CompletedSections))
	assert.Equal(t, model.SectionTimeIncrement, again.Progress.TimeSpent)

	second, err := env.progress.CompleteSection(ctx, "u1", "neural-networks", "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro", "math"}, []string(second.Progress.CompletedSections))
	assert.Equal(t, 2*model.SectionTimeIncrement, second.Progress.TimeSpent)

	_, err = env.progress.CompleteSection(ctx, "u1", "neural-networks", "")
	assert.ErrorIs(t, err, util.ErrMissingSectionID)
	_, err = env.progress.CompleteSection(ctx, "u1", "k-means", "intro")
	assert.ErrorIs(t, err, util.ErrProgressNotFound)
}

func TestBookmarkStartsImplicitly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.progress.Bookmark(ctx, "u1", "k-means")
	require.NoError(t, err)
	assert.True(t, result.Progress.Bookmarked)
	assert.Equal(t, model.StatusInProgress, result.Progress.Status)
	assert.Equal(t, 1, result.Progress.Attempts)

	toggled, err := env.progress.Bookmark(ctx, "u1", "k-means")
	require.NoError(t, err)
	assert.False(t, toggled.Progress.Bookmarked)

	stored, err := env.progress.Get(ctx, "u1", "k-means")
	require.NoError(t, err)
	assert.False(t, stored.Bookmarked)
}

func TestConcurrentFirstBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.progress.Bookmark(ctx, "u1", "k-means")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, env.db.Model(&model.UserProgress{}).Where("user_id = ? AND algorithm_id = ?", "u1", "k-means").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// 先创建并收藏，再切换一次
	stored, err := env.progress.Get(ctx, "u1", "k-means")
	require.NoError(t, err)
	assert.False(t, stored.Bookmarked)
}

func TestRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.progress.Rate(ctx, "u1", "k-means", 4)
	assert.ErrorIs(t, err, util.ErrProgressNotFound)

	_, err = env.progress.Start(ctx, "u1", "k-means")
	require.NoError(t, err)

	for _, bad := range []int{0, 6, -1} {
		_, err = env.progress.Rate(ctx, "u1", "k-means", bad)
		assert.ErrorIs(t, err, util.ErrInvalidRating)
	}

	result, err := env.progress.Rate(ctx, "u1", "k-means", 5)
	require.NoError(t, err)
	require.NotNil(t, result.Progress.Rating)
	assert.Equal(t, 5, *result.Progress.Rating)
}

func TestUpsertCreatesWithDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.progress.Upsert(ctx, "u1", "k-means", model.ProgressPatch{})
	require.NoError(t, err)

	p := result.Progress
	assert.Equal(t, model.StatusInProgress, p.Status)
	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 0, p.TimeSpent)
	assert.False(t, p.Bookmarked)
	assert.NotNil(t, p.CompletedSections)
	require.NotNil(t, p.StartedAt)
	assert.True(t, p.StartedAt.Equal(testNow))
}

func TestUpsertCoalescesStartedAt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	original := testNow.Add(-48 * time.Hour)
	_, err := env.progress.Upsert(ctx, "u1", "k-means", model.ProgressPatch{StartedAt: &original})
	require.NoError(t, err)

	env.clock.advance(time.Hour)
	completed := model.StatusCompleted
	later := env.clock.now()
	result, err := env.progress.Upsert(ctx, "u1", "k-means", model.ProgressPatch{
		Status:    &completed,
		TimeSpent: intPtr(40),
		StartedAt: &later,
	})
	require.NoError(t, err)
	assert.True(t, result.Progress.StartedAt.Equal(original))
	require.NotNil(t, result.Progress.CompletedAt)
	assert.True(t, result.Progress.CompletedAt.Equal(env.clock.now()))

	_, err = env.progress.Upsert(ctx, "u1", "k-means", model.ProgressPatch{TimeSpent: intPtr(5)})
	assert.ErrorIs(t, err, util.ErrTimeSpentDecreased)
}

// 学习一个算法的完整流程：开始、完成两个章节、完成
func TestLinearRegressionWalkthrough(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "learner")

	_, err := env.progress.Start(ctx, "learner", "linear-regression")
	require.NoError(t, err)
	_, err = env.progress.CompleteSection(ctx, "learner", "linear-regression", "theory")
	require.NoError(t, err)
	_, err = env.progress.CompleteSection(ctx, "learner", "linear-regression", "code")
	require.NoError(t, err)
	accuracy := 95.0
	_, err = env.progress.Update(ctx, "learner", "linear-regression", model.ProgressPatch{Accuracy: &accuracy})
	require.NoError(t, err)
	done, err := env.progress.Complete(ctx, "learner", "linear-regression")
	require.NoError(t, err)

	assert.Equal(t, 10, done.Progress.TimeSpent)

	unlocked := make([]string, 0)
	for _, a := range done.Unlocked {
		unlocked = append(unlocked, a.AchievementID)
	}
	assert.ElementsMatch(t, []string{"first_algorithm", "sharpshooter"}, unlocked)

	rate, err := env.progress.CompletionRate(ctx, "learner")
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)

	spent, err := env.progress.TimeSpent(ctx, "learner")
	require.NoError(t, err)
	assert.Equal(t, 10, spent)

	user, err := env.users.Get(ctx, "learner")
	require.NoError(t, err)
	assert.Equal(t, 1, user.AlgorithmsCompleted)
	assert.Equal(t, 10, user.TotalTimeSpent)
	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, 400, user.ExperiencePoints)
	assert.Equal(t, 3, user.Level)
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.progress.Start(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	_, err = env.progress.Complete(ctx, "u1", "linear-regression")
	require.NoError(t, err)
	_, err = env.progress.Bookmark(ctx, "u1", "k-means")
	require.NoError(t, err)

	summary, err := env.progress.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressSummary{
		Total:          2,
		Completed:      1,
		InProgress:     1,
		Bookmarked:     1,
		CompletionRate: 50,
		TimeSpent:      0,
	}, summary)

	empty, err := env.progress.Summary(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressSummary{}, empty)
}

func TestGetMissingReturnsNil(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.progress.Get(context.Background(), "u1", "k-means")
	require.NoError(t, err)
	assert.Nil(t, p)
}
