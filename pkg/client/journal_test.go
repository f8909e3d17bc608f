package client

import (
	"ai_academy_backend/internal/model"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu     sync.Mutex
	fail   map[string]bool
	errs   map[string]error
	saved  []model.UserProgress
	before func(p *model.UserProgress)
}

func (w *recordingWriter) SaveProgress(ctx context.Context, p *model.UserProgress) (*SaveProgressResult, error) {
	if w.before != nil {
		w.before(p)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail[p.AlgorithmID] {
		return nil, errors.New("offline")
	}
	if err := w.errs[p.AlgorithmID]; err != nil {
		return nil, err
	}
	w.saved = append(w.saved, *p)
	return &SaveProgressResult{UserID: p.UserID, AlgorithmID: p.AlgorithmID, Status: p.Status}, nil
}

func TestJournalKeepsLatestRecord(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "svm", TimeSpent: 5})
	j.Record(model.UserProgress{AlgorithmID: "k-means", TimeSpent: 1})
	j.Record(model.UserProgress{AlgorithmID: "svm", TimeSpent: 15})

	pending := j.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "k-means", pending[0].AlgorithmID)
	assert.Equal(t, "svm", pending[1].AlgorithmID)
	assert.Equal(t, 15, pending[1].TimeSpent)
}

func TestJournalFlushPartialFailure(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "k-means"})
	j.Record(model.UserProgress{AlgorithmID: "svm"})

	w := &recordingWriter{fail: map[string]bool{"svm": true}}
	err := j.Flush(context.Background(), w)
	assert.Error(t, err)
	assert.Equal(t, 1, j.Len())
	assert.Equal(t, "svm", j.Pending()[0].AlgorithmID)

	w.fail = nil
	require.NoError(t, j.Flush(context.Background(), w))
	assert.Zero(t, j.Len())
	assert.Len(t, w.saved, 2)
}

func TestJournalKeepsRecordWrittenDuringFlush(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "svm", TimeSpent: 5})

	w := &recordingWriter{}
	w.before = func(p *model.UserProgress) {
		if p.TimeSpent == 5 {
			j.Record(model.UserProgress{AlgorithmID: "svm", TimeSpent: 20})
		}
	}
	require.NoError(t, j.Flush(context.Background(), w))

	pending := j.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 20, pending[0].TimeSpent)
}

func TestJournalFlushStopsOnCancel(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "svm"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := j.Flush(ctx, &recordingWriter{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, j.Len())
}

func TestJournalDropsRejectedRecords(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "k-means", TimeSpent: 10})
	j.Record(model.UserProgress{AlgorithmID: "svm"})
	j.Record(model.UserProgress{AlgorithmID: "pca"})

	w := &recordingWriter{errs: map[string]error{
		"k-means": &APIError{StatusCode: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "time_spent cannot decrease"},
		"svm":     &APIError{StatusCode: http.StatusForbidden, Code: "FORBIDDEN"},
		"pca":     &APIError{StatusCode: http.StatusTooManyRequests, Code: "RATE_LIMITED"},
	}}
	err := j.Flush(context.Background(), w)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorContains(t, err, "k-means")

	// 429 仍可重试
	pending := j.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "pca", pending[0].AlgorithmID)

	w.errs = nil
	require.NoError(t, j.Flush(context.Background(), w))
	assert.Zero(t, j.Len())
}

func TestJournalForget(t *testing.T) {
	j := NewJournal()
	j.Record(model.UserProgress{AlgorithmID: "svm"})
	mark := j.mark()
	j.Record(model.UserProgress{AlgorithmID: "k-means"})

	j.forget("k-means", mark)
	assert.Equal(t, 2, j.Len())

	j.Forget("k-means")
	j.Forget("missing")
	require.Len(t, j.Pending(), 1)
	assert.Equal(t, "svm", j.Pending()[0].AlgorithmID)
}
