package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/logger"
	"ai_academy_backend/pkg/monitoring"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressResult 一次进度变更的结果，Unlocked 为本次新解锁的成就
type ProgressResult struct {
	Progress *model.UserProgress `json:"progress"`
	Unlocked []model.Achievement `json:"achievements"`
}

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	Users        *UserService
	Achievements *AchievementService
	now          func() time.Time
}

func NewProgressService(progressRepo *repository.ProgressRepository, users *UserService, achievements *AchievementService) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		Users:        users,
		Achievements: achievements,
		now:          time.Now,
	}
}

// KeepEarliest 已有开始时间时保留，否则取候选值
func KeepEarliest(existing *time.Time, candidate time.Time) time.Time {
	if existing != nil && !existing.IsZero() {
		return *existing
	}
	return candidate
}

func newProgress(userID, algorithmID string, now time.Time) *model.UserProgress {
	started := now
	return &model.UserProgress{
		UserID:            userID,
		AlgorithmID:       algorithmID,
		Status:            model.StatusInProgress,
		CompletedSections: datatypes.JSONSlice[string]{},
		Attempts:          1,
		LastAccessed:      now,
		StartedAt:         &started,
	}
}

func validateKeys(userID, algorithmID string) error {
	if strings.TrimSpace(userID) == "" {
		return util.ErrMissingUserID
	}
	if strings.TrimSpace(algorithmID) == "" {
		return util.ErrMissingAlgorithmID
	}
	return nil
}

func validateRating(r int) error {
	if r < model.MinRating || r > model.MaxRating {
		return util.ErrInvalidRating
	}
	return nil
}

// Start 已存在时原样返回，attempts 不递增
func (s *ProgressService) Start(ctx context.Context, userID, algorithmID string) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}

	p := newProgress(userID, algorithmID, s.now())
	created, err := s.ProgressRepo.CreateIfAbsent(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("start progress: %w", err)
	}
	if !created {
		existing, err := s.ProgressRepo.Find(ctx, userID, algorithmID)
		if err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
		return &ProgressResult{Progress: existing, Unlocked: []model.Achievement{}}, nil
	}
	return s.afterMutation(ctx, "start", p), nil
}

// mutate 在事务内读改写一行，fn 返回 false 表示无需保存
func (s *ProgressService) mutate(ctx context.Context, userID, algorithmID string, fn func(p *model.UserProgress, now time.Time) (bool, error)) (*model.UserProgress, bool, error) {
	var (
		row     *model.UserProgress
		changed bool
	)
	err := s.ProgressRepo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		p, err := tx.Find(ctx, userID, algorithmID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrProgressNotFound
			}
			return err
		}
		changed, err = fn(p, s.now())
		if err != nil {
			return err
		}
		row = p
		if !changed {
			return nil
		}
		return tx.Save(ctx, p)
	})
	if err != nil {
		return nil, false, err
	}
	return row, changed, nil
}

// applyPatch 合并非 nil 字段，校验失败时不修改 p
func applyPatch(p *model.UserProgress, patch model.ProgressPatch, now time.Time) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return util.ErrInvalidStatus
	}
	if patch.Rating != nil {
		if err := validateRating(*patch.Rating); err != nil {
			return err
		}
	}
	if patch.TimeSpent != nil && *patch.TimeSpent < p.TimeSpent {
		return util.ErrTimeSpentDecreased
	}

	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.CompletedSections != nil {
		p.CompletedSections = dedupe(*patch.CompletedSections)
	}
	if patch.TimeSpent != nil {
		p.TimeSpent = *patch.TimeSpent
	}
	if patch.Accuracy != nil {
		p.Accuracy = *patch.Accuracy
	}
	if patch.Attempts != nil {
		p.Attempts = *patch.Attempts
	}
	if patch.Bookmarked != nil {
		p.Bookmarked = *patch.Bookmarked
	}
	if patch.Rating != nil {
		r := *patch.Rating
		p.Rating = &r
	}
	if patch.Notes != nil {
		n := *patch.Notes
		p.Notes = &n
	}

	candidate := now
	if patch.StartedAt != nil {
		candidate = *patch.StartedAt
	}
	started := KeepEarliest(p.StartedAt, candidate)
	p.StartedAt = &started

	if p.Status == model.StatusCompleted && p.CompletedAt == nil {
		completed := now
		p.CompletedAt = &completed
	}
	p.LastAccessed = now
	return nil
}

func dedupe(sections []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(sections))
	seen := make(map[string]bool, len(sections))
	for _, id := range sections {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func (s *ProgressService) Update(ctx context.Context, userID, algorithmID string, patch model.ProgressPatch) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}
	p, _, err := s.mutate(ctx, userID, algorithmID, func(p *model.UserProgress, now time.Time) (bool, error) {
		return true, applyPatch(p, patch, now)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, "update", p), nil
}

// Complete 重复完成时保留首次 completed_at
func (s *ProgressService) Complete(ctx context.Context, userID, algorithmID string) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}
	status := model.StatusCompleted
	p, _, err := s.mutate(ctx, userID, algorithmID, func(p *model.UserProgress, now time.Time) (bool, error) {
		return true, applyPatch(p, model.ProgressPatch{Status: &status}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, "complete", p), nil
}

// CompleteSection 已完成的章节不重复计时
func (s *ProgressService) CompleteSection(ctx context.Context, userID, algorithmID, sectionID string) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sectionID) == "" {
		return nil, util.ErrMissingSectionID
	}

	p, changed, err := s.mutate(ctx, userID, algorithmID, func(p *model.UserProgress, now time.Time) (bool, error) {
		if p.HasSection(sectionID) {
			return false, nil
		}
		p.CompletedSections = append(p.CompletedSections, sectionID)
		p.TimeSpent += model.SectionTimeIncrement
		p.LastAccessed = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return &ProgressResult{Progress: p, Unlocked: []model.Achievement{}}, nil
	}
	return s.afterMutation(ctx, "complete_section", p), nil
}

// Bookmark 切换收藏；没有进度时先开始学习并收藏
func (s *ProgressService) Bookmark(ctx context.Context, userID, algorithmID string) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}

	var row *model.UserProgress
	err := s.ProgressRepo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		now := s.now()
		p, err := tx.Find(ctx, userID, algorithmID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = newProgress(userID, algorithmID, now)
			p.Bookmarked = true
			var created bool
			if created, err = tx.CreateIfAbsent(ctx, p); err != nil {
				return err
			}
			if created {
				row = p
				return nil
			}
			// 并发请求已插入，按已有记录切换
			p, err = tx.Find(ctx, userID, algorithmID)
		}
		if err != nil {
			return err
		}
		p.Bookmarked = !p.Bookmarked
		p.LastAccessed = now
		row = p
		return tx.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, "bookmark", row), nil
}

func (s *ProgressService) Rate(ctx context.Context, userID, algorithmID string, rating int) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	p, _, err := s.mutate(ctx, userID, algorithmID, func(p *model.UserProgress, now time.Time) (bool, error) {
		return true, applyPatch(p, model.ProgressPatch{Rating: &rating}, now)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, "rate", p), nil
}

// Upsert 合并写入整条记录，新行使用默认值
func (s *ProgressService) Upsert(ctx context.Context, userID, algorithmID string, patch model.ProgressPatch) (*ProgressResult, error) {
	if err := validateKeys(userID, algorithmID); err != nil {
		return nil, err
	}

	var row *model.UserProgress
	err := s.ProgressRepo.Transaction(ctx, func(tx *repository.ProgressRepository) error {
		now := s.now()
		p, err := tx.Find(ctx, userID, algorithmID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = newProgress(userID, algorithmID, now)
			p.StartedAt = nil
			if err := applyPatch(p, patch, now); err != nil {
				return err
			}
			row = p
			return tx.Upsert(ctx, p)
		case err != nil:
			return err
		}
		if err := applyPatch(p, patch, now); err != nil {
			return err
		}
		row = p
		return tx.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.afterMutation(ctx, "upsert", row), nil
}

// afterMutation 同步用户统计并评估成就，失败只记日志
func (s *ProgressService) afterMutation(ctx context.Context, action string, p *model.UserProgress) *ProgressResult {
	monitoring.ProgressTransitions.WithLabelValues(action).Inc()
	result := &ProgressResult{Progress: p, Unlocked: []model.Achievement{}}

	rows, err := s.ProgressRepo.FindByUser(ctx, p.UserID)
	if err != nil {
		logger.Log.Warn("reload progress failed", zap.String("user_id", p.UserID), zap.Error(err))
		return result
	}

	if err := s.Users.SyncProgressStats(ctx, p.UserID, countCompleted(rows), TotalTimeSpent(rows)); err != nil {
		logger.Log.Warn("sync user stats failed", zap.String("user_id", p.UserID), zap.Error(err))
	}
	if err := s.Users.RecordActivity(ctx, p.UserID); err != nil {
		logger.Log.Warn("record activity failed", zap.String("user_id", p.UserID), zap.Error(err))
	}

	unlocked, err := s.Achievements.EvaluateRows(ctx, p.UserID, rows)
	if err != nil {
		logger.Log.Warn("evaluate achievements failed", zap.String("user_id", p.UserID), zap.Error(err))
	}
	if len(unlocked) > 0 {
		result.Unlocked = unlocked
	}
	return result
}

// Get 不存在时返回 nil, nil
func (s *ProgressService) Get(ctx context.Context, userID, algorithmID string) (*model.UserProgress, error) {
	p, err := s.ProgressRepo.Find(ctx, userID, algorithmID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find progress: %w", err)
	}
	return p, nil
}

func (s *ProgressService) List(ctx context.Context, userID string) ([]model.UserProgress, error) {
	rows, err := s.ProgressRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

func (s *ProgressService) CompletionRate(ctx context.Context, userID string) (float64, error) {
	rows, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return CompletionRate(rows), nil
}

func (s *ProgressService) TimeSpent(ctx context.Context, userID string) (int, error) {
	rows, err := s.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return TotalTimeSpent(rows), nil
}

func (s *ProgressService) Summary(ctx context.Context, userID string) (model.ProgressSummary, error) {
	rows, err := s.List(ctx, userID)
	if err != nil {
		return model.ProgressSummary{}, err
	}
	summary := model.ProgressSummary{
		Total:          len(rows),
		Completed:      countCompleted(rows),
		CompletionRate: CompletionRate(rows),
		TimeSpent:      TotalTimeSpent(rows),
	}
	for _, p := range rows {
		if p.Status == model.StatusInProgress {
			summary.InProgress++
		}
		if p.Bookmarked {
			summary.Bookmarked++
		}
	}
	return summary, nil
}

// CompletionRate 已完成行占比（百分数），无记录时为 0
func CompletionRate(rows []model.UserProgress) float64 {
	if len(rows) == 0 {
		return 0
	}
	return float64(countCompleted(rows)) / float64(len(rows)) * 100
}

func TotalTimeSpent(rows []model.UserProgress) int {
	total := 0
	for _, p := range rows {
		total += p.TimeSpent
	}
	return total
}

func countCompleted(rows []model.UserProgress) int {
	n := 0
	for _, p := range rows {
		if p.Status == model.StatusCompleted {
			n++
		}
	}
	return n
}
