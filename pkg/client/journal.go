package client

import (
	"ai_academy_backend/internal/model"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// ProgressWriter Journal 重放写入时使用
type ProgressWriter interface {
	SaveProgress(ctx context.Context, p *model.UserProgress) (*SaveProgressResult, error)
}

type journalEntry struct {
	progress model.UserProgress
	seq      uint64
}

// Journal 保存写入失败的进度，同一算法只保留最新的一条完整记录
type Journal struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]journalEntry
}

func NewJournal() *Journal {
	return &Journal{pending: map[string]journalEntry{}}
}

func (j *Journal) Record(p model.UserProgress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	j.pending[p.AlgorithmID] = journalEntry{progress: p, seq: j.seq}
}

// mark 当前序号，配合 forget 只丢弃发送前已存在的记录
func (j *Journal) mark() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// forget 在更新的写入成功后丢弃旧记录，之后写入的记录保留
func (j *Journal) forget(algorithmID string, through uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if current, ok := j.pending[algorithmID]; ok && current.seq <= through {
		delete(j.pending, algorithmID)
	}
}

// Forget 丢弃该算法的待重试记录
func (j *Journal) Forget(algorithmID string) {
	j.forget(algorithmID, j.mark())
}

// Pending 按 algorithm_id 排序
func (j *Journal) Pending() []model.UserProgress {
	entries := j.snapshot()
	out := make([]model.UserProgress, len(entries))
	for i, e := range entries {
		out[i] = e.progress
	}
	return out
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.pending)
}

// ErrRejected 服务端拒绝的记录，重试也不会成功，已从队列移除
var ErrRejected = errors.New("progress rejected by server")

// Flush 逐条重试，成功或被拒绝的移出队列，返回失败的合并错误
func (j *Journal) Flush(ctx context.Context, w ProgressWriter) error {
	var errs []error
	for _, e := range j.snapshot() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		record := e.progress
		if _, err := w.SaveProgress(ctx, &record); err != nil {
			if isPermanent(err) {
				j.remove(e)
				err = fmt.Errorf("%w: %s: %w", ErrRejected, e.progress.AlgorithmID, err)
			}
			errs = append(errs, err)
			continue
		}
		j.remove(e)
	}
	return errors.Join(errs...)
}

// isPermanent 4xx 中除 408/429 外都不重试
func isPermanent(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

func (j *Journal) snapshot() []journalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]journalEntry, 0, len(j.pending))
	for _, e := range j.pending {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].progress.AlgorithmID < out[b].progress.AlgorithmID })
	return out
}

// remove 重试期间写入了更新的记录时保留新记录
func (j *Journal) remove(sent journalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if current, ok := j.pending[sent.progress.AlgorithmID]; ok && current.seq == sent.seq {
		delete(j.pending, sent.progress.AlgorithmID)
	}
}
