package client

import (
	"ai_academy_backend/internal/model"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

var (
	ErrNoProgress         = errors.New("algorithm has not been started")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrTimeSpentDecreased = errors.New("time_spent cannot decrease")
)

// API Session 依赖的接口子集，*Client 实现了它
type API interface {
	ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error)
	ListProgress(ctx context.Context, userID string) ([]model.UserProgress, error)
	SaveProgress(ctx context.Context, p *model.UserProgress) (*SaveProgressResult, error)
	ListAchievements(ctx context.Context, userID string) ([]model.Achievement, error)
	GetAnalytics(ctx context.Context, userID string) (*model.LearningAnalytics, error)
}

type resource int

const (
	resourceProgress resource = iota
	resourceAchievements
	resourceAnalytics
)

const (
	syncInitialBackoff = time.Second
	syncMaxBackoff     = 2 * time.Minute
)

// Session 单个用户的本地学习状态，写操作先更新本地再提交服务端
type Session struct {
	api     API
	userID  string
	journal *Journal
	now     func() time.Time

	mu    sync.Mutex
	state State
	gens  map[resource]uint64
}

func NewSession(api API, userID string) *Session {
	return &Session{
		api:     api,
		userID:  userID,
		journal: NewJournal(),
		now:     time.Now,
		state:   NewState(),
		gens:    map[resource]uint64{},
	}
}

func (s *Session) Journal() *Journal {
	return s.journal
}

// State 当前快照
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) dispatch(a Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
}

// issue 为一次请求分配代数，之后的请求会使更早的响应失效
func (s *Session) issue(r resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[r]++
	return s.gens[r]
}

// commit 只有最新一代的响应才写入状态
func (s *Session) commit(r resource, gen uint64, a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[r] != gen {
		return false
	}
	s.state = Reduce(s.state, a)
	return true
}

// Load 并发拉取进度、成就与分析，各资源互不影响
func (s *Session) Load(ctx context.Context) error {
	s.dispatch(SetLoading(true))
	defer s.dispatch(SetLoading(false))

	var g errgroup.Group
	g.Go(func() error { return s.loadProgress(ctx) })
	g.Go(func() error { return s.loadAchievements(ctx) })
	g.Go(func() error { return s.loadAnalytics(ctx) })
	return g.Wait()
}

func (s *Session) loadProgress(ctx context.Context) error {
	gen := s.issue(resourceProgress)
	rows, err := s.api.ListProgress(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	byAlgorithm := make(SetProgress, len(rows))
	for _, p := range rows {
		byAlgorithm[p.AlgorithmID] = p
	}
	s.commit(resourceProgress, gen, byAlgorithm)
	return nil
}

func (s *Session) loadAchievements(ctx context.Context) error {
	gen := s.issue(resourceAchievements)
	rows, err := s.api.ListAchievements(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}
	s.commit(resourceAchievements, gen, SetAchievements(rows))
	return nil
}

func (s *Session) loadAnalytics(ctx context.Context) error {
	gen := s.issue(resourceAnalytics)
	a, err := s.api.GetAnalytics(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load analytics: %w", err)
	}
	s.commit(resourceAnalytics, gen, SetAnalytics{Analytics: a})
	return nil
}

// RefreshAnalytics 重新拉取学习分析
func (s *Session) RefreshAnalytics(ctx context.Context) error {
	return s.loadAnalytics(ctx)
}

// LoadAlgorithms 失败时返回离线目录，fallback 为 true
func (s *Session) LoadAlgorithms(ctx context.Context) (algorithms []model.AlgorithmSummary, fallback bool) {
	list, err := s.api.ListAlgorithms(ctx)
	if err != nil || len(list) == 0 {
		return FallbackAlgorithms(), true
	}
	return list, false
}

func (s *Session) Progress(algorithmID string) *model.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.Progress[algorithmID]
	if !ok {
		return nil
	}
	return &p
}

// CompletionRate 已完成占比，单位为百分比
func (s *Session) CompletionRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Progress) == 0 {
		return 0
	}
	completed := 0
	for _, p := range s.state.Progress {
		if p.Status == model.StatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(s.state.Progress)) * 100
}

func (s *Session) TimeSpent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, p := range s.state.Progress {
		total += p.TimeSpent
	}
	return total
}

// mutate 在锁内基于当前记录计算新记录并立即生效，随后提交服务端
func (s *Session) mutate(ctx context.Context, algorithmID string, fn func(p *model.UserProgress, exists bool, now time.Time) error) (*model.UserProgress, error) {
	s.mu.Lock()
	current, exists := s.state.Progress[algorithmID]
	next := cloneProgress(current)
	if err := fn(&next, exists, s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	// 本地修改使进行中的进度拉取失效
	s.gens[resourceProgress]++
	s.state = Reduce(s.state, UpdateProgress(next))
	s.mu.Unlock()

	if err := s.save(ctx, next); err != nil {
		return &next, err
	}
	return &next, nil
}

// save 失败时记入 Journal 等待重试
func (s *Session) save(ctx context.Context, p model.UserProgress) error {
	record := p
	mark := s.journal.mark()
	result, err := s.api.SaveProgress(ctx, &record)
	if err != nil {
		s.journal.Record(p)
		return fmt.Errorf("save progress %s: %w", p.AlgorithmID, err)
	}
	// 整行写入已覆盖服务端，旧的待重试记录不能再重放
	s.journal.forget(p.AlgorithmID, mark)
	s.addUnlocked(result.Achievements)
	return nil
}

func (s *Session) addUnlocked(unlocked []model.Achievement) {
	if len(unlocked) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range unlocked {
		known := slices.ContainsFunc(s.state.Achievements, func(have model.Achievement) bool {
			return have.AchievementID == a.AchievementID
		})
		if !known {
			s.state = Reduce(s.state, AddAchievement(a))
		}
	}
}

func (s *Session) startRecord(p *model.UserProgress, algorithmID string, now time.Time) {
	started := now
	*p = model.UserProgress{
		UserID:            s.userID,
		AlgorithmID:       algorithmID,
		Status:            model.StatusInProgress,
		CompletedSections: datatypes.JSONSlice[string]{},
		Attempts:          1,
		LastAccessed:      now,
		StartedAt:         &started,
	}
}

// StartAlgorithm 已开始时原样返回，不重复提交
func (s *Session) StartAlgorithm(ctx context.Context, algorithmID string) (*model.UserProgress, error) {
	if p := s.Progress(algorithmID); p != nil {
		return p, nil
	}
	return s.mutate(ctx, algorithmID, func(p *model.UserProgress, exists bool, now time.Time) error {
		if !exists {
			s.startRecord(p, algorithmID, now)
		}
		return nil
	})
}

// UpdateProgress 合并 patch 中非 nil 的字段
func (s *Session) UpdateProgress(ctx context.Context, algorithmID string, patch model.ProgressPatch) (*model.UserProgress, error) {
	return s.mutate(ctx, algorithmID, func(p *model.UserProgress, exists bool, now time.Time) error {
		if !exists {
			return ErrNoProgress
		}
		return applyLocalPatch(p, patch, now)
	})
}

func (s *Session) CompleteAlgorithm(ctx context.Context, algorithmID string) (*model.UserProgress, error) {
	status := model.StatusCompleted
	return s.UpdateProgress(ctx, algorithmID, model.ProgressPatch{Status: &status})
}

// CompleteSection 同一章节只计一次
func (s *Session) CompleteSection(ctx context.Context, algorithmID, sectionID string) (*model.UserProgress, error) {
	if p := s.Progress(algorithmID); p != nil && p.HasSection(sectionID) {
		return p, nil
	}
	return s.mutate(ctx, algorithmID, func(p *model.UserProgress, exists bool, now time.Time) error {
		if !exists {
			return ErrNoProgress
		}
		if p.HasSection(sectionID) {
			return nil
		}
		p.CompletedSections = append(p.CompletedSections, sectionID)
		p.TimeSpent += model.SectionTimeIncrement
		p.LastAccessed = now
		return nil
	})
}

// ToggleBookmark 未开始时先开始再收藏
func (s *Session) ToggleBookmark(ctx context.Context, algorithmID string) (*model.UserProgress, error) {
	return s.mutate(ctx, algorithmID, func(p *model.UserProgress, exists bool, now time.Time) error {
		if !exists {
			s.startRecord(p, algorithmID, now)
			p.Bookmarked = true
			return nil
		}
		p.Bookmarked = !p.Bookmarked
		p.LastAccessed = now
		return nil
	})
}

func (s *Session) RateAlgorithm(ctx context.Context, algorithmID string, rating int) (*model.UserProgress, error) {
	if rating < model.MinRating || rating > model.MaxRating {
		return nil, ErrInvalidRating
	}
	return s.UpdateProgress(ctx, algorithmID, model.ProgressPatch{Rating: &rating})
}

// Flush 立即重放 Journal
func (s *Session) Flush(ctx context.Context) error {
	return s.journal.Flush(ctx, s.api)
}

// RunSync 按 interval 周期重放 Journal，连续失败时指数退避，直到 ctx 结束
func (s *Session) RunSync(ctx context.Context, interval time.Duration) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = syncInitialBackoff
	b.MaxInterval = syncMaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()

	wait := interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait = interval
		if s.journal.Len() > 0 {
			// 被拒绝的记录已移出队列，只有仍待重试时才退避
			if err := s.Flush(ctx); err != nil && s.journal.Len() > 0 {
				wait = b.NextBackOff()
			} else {
				b.Reset()
			}
		}
		timer.Reset(wait)
	}
}

func applyLocalPatch(p *model.UserProgress, patch model.ProgressPatch, now time.Time) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("invalid status %q", *patch.Status)
	}
	if patch.Rating != nil && (*patch.Rating < model.MinRating || *patch.Rating > model.MaxRating) {
		return ErrInvalidRating
	}
	if patch.TimeSpent != nil && *patch.TimeSpent < p.TimeSpent {
		return ErrTimeSpentDecreased
	}

	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.CompletedSections != nil {
		sections := datatypes.JSONSlice[string]{}
		for _, id := range *patch.CompletedSections {
			if !slices.Contains(sections, id) {
				sections = append(sections, id)
			}
		}
		p.CompletedSections = sections
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
	if p.Status == model.StatusCompleted && p.CompletedAt == nil {
		done := now
		p.CompletedAt = &done
	}
	p.LastAccessed = now
	return nil
}

// cloneProgress 切片与指针字段深拷贝，保证 Reduce 的入参不被修改
func cloneProgress(p model.UserProgress) model.UserProgress {
	out := p
	if p.CompletedSections != nil {
		out.CompletedSections = append(datatypes.JSONSlice[string]{}, p.CompletedSections...)
	}
	if p.StartedAt != nil {
		t := *p.StartedAt
		out.StartedAt = &t
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		out.CompletedAt = &t
	}
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	if p.Notes != nil {
		n := *p.Notes
		out.Notes = &n
	}
	return out
}
