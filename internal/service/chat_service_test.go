package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	reply   string
	err     error
	calls   int
	prompts []ChatPrompt
}

func (r *stubResponder) Reply(ctx context.Context, prompt ChatPrompt) (string, error) {
	r.calls++
	r.prompts = append(r.prompts, prompt)
	return r.reply, r.err
}

func newTestChatService(t *testing.T, primary Responder) (*ChatService, *testClock) {
	t.Helper()
	db := newTestDB(t)
	clock := &testClock{t: testNow}
	s := NewChatService(repository.NewChatRepository(db), primary)
	s.now = clock.now
	return s, clock
}

func TestChatCannedReply(t *testing.T) {
	s, _ := newTestChatService(t, nil)
	ctx := context.Background()

	reply, err := s.Send(ctx, "u1", "  What is gradient descent?  ", &model.ChatContext{AlgorithmID: "linear-regression"})
	require.NoError(t, err)
	assert.Contains(t, CannedResponses(), reply.Response)
	assert.Equal(t, SourceCanned, reply.Source)
	require.NotNil(t, reply.Context)
	assert.Equal(t, "linear-regression", reply.Context.AlgorithmID)

	history, err := s.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "What is gradient descent?", history[0].Content)
	assert.Equal(t, reply.Response, history[0].Response)
	assert.Equal(t, "linear-regression", history[0].ContextAlgorithmID)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	s, _ := newTestChatService(t, nil)
	_, err := s.Send(context.Background(), "u1", "   ", nil)
	assert.ErrorIs(t, err, util.ErrEmptyMessage)
}

func TestChatWithoutUserIsNotStored(t *testing.T) {
	s, _ := newTestChatService(t, nil)
	ctx := context.Background()

	reply, err := s.Send(ctx, "", "hello", &model.ChatContext{})
	require.NoError(t, err)
	assert.Nil(t, reply.Context)

	var count int64
	require.NoError(t, s.ChatRepo.DB.Model(&model.ChatMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestChatUsesPrimaryResponder(t *testing.T) {
	primary := &stubResponder{reply: "Gradient descent follows the slope downhill."}
	s, clock := newTestChatService(t, primary)
	ctx := context.Background()

	_, err := s.Send(ctx, "u1", "first", nil)
	require.NoError(t, err)
	clock.advance(time.Minute)
	reply, err := s.Send(ctx, "u1", "second", nil)
	require.NoError(t, err)

	assert.Equal(t, SourceAI, reply.Source)
	assert.Equal(t, primary.reply, reply.Response)

	// 第二次请求带上第一轮对话
	require.Len(t, primary.prompts, 2)
	require.Len(t, primary.prompts[1].History, 1)
	assert.Equal(t, "first", primary.prompts[1].History[0].Content)
}

func TestChatFallsBackWhenBreakerOpens(t *testing.T) {
	primary := &stubResponder{err: errors.New("upstream timeout")}
	s, _ := newTestChatService(t, primary)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		reply, err := s.Send(ctx, "", fmt.Sprintf("question %d", i), nil)
		require.NoError(t, err)
		assert.Equal(t, SourceCanned, reply.Source)
		assert.Contains(t, CannedResponses(), reply.Response)
	}
	// 连续 3 次失败后熔断，之后不再调用模型
	assert.Equal(t, 3, primary.calls)
}

func TestChatHistoryLimit(t *testing.T) {
	s, clock := newTestChatService(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Send(ctx, "u1", fmt.Sprintf("message %d", i), nil)
		require.NoError(t, err)
		clock.advance(time.Second)
	}

	history, err := s.History(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "message 4", history[0].Content)
	assert.Equal(t, "message 3", history[1].Content)

	all, err := s.History(ctx, "u1", MaxHistoryLimit+50)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBuildMessagesOrder(t *testing.T) {
	msgs := buildMessages(ChatPrompt{
		Message: "now",
		Context: &model.ChatContext{Topic: "regularization"},
		History: []model.ChatMessage{{Content: "earlier", Response: "answer"}},
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "regularization")
	assert.Equal(t, "earlier", msgs[1].Content)
	assert.Equal(t, "answer", msgs[2].Content)
	assert.Equal(t, "now", msgs[3].Content)
}
