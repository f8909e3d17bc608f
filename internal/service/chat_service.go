package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/logger"
	"ai_academy_backend/pkg/monitoring"
	"context"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200

	// 传给模型的最近对话轮数
	promptHistoryTurns = 10
)

type ChatService struct {
	ChatRepo *repository.ChatRepository
	primary  Responder
	fallback Responder
	breaker  *gobreaker.CircuitBreaker[string]
	now      func() time.Time
}

// NewChatService primary 为 nil 时只使用固定回复
func NewChatService(chatRepo *repository.ChatRepository, primary Responder) *ChatService {
	s := &ChatService{
		ChatRepo: chatRepo,
		primary:  primary,
		fallback: NewCannedResponder(),
		now:      time.Now,
	}
	if primary != nil {
		s.breaker = newResponderBreaker("ai-responder")
	}
	return s
}

func newResponderBreaker(name string) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Send 生成回复并追加到对话日志；userID 为空时不落库
func (s *ChatService) Send(ctx context.Context, userID, message string, chatCtx *model.ChatContext) (*model.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, util.ErrEmptyMessage
	}
	if chatCtx.IsZero() {
		chatCtx = nil
	}

	prompt := ChatPrompt{Message: message, Context: chatCtx}
	if userID != "" && s.primary != nil {
		prompt.History = s.recentHistory(ctx, userID)
	}

	response, source := s.respond(ctx, prompt)
	monitoring.ChatReplies.WithLabelValues(source).Inc()

	reply := &model.ChatReply{
		Response:  response,
		Timestamp: s.now().UTC(),
		Context:   chatCtx,
		Source:    source,
	}
	if userID == "" {
		return reply, nil
	}

	msg := &model.ChatMessage{
		UserID:    userID,
		Content:   message,
		Response:  response,
		CreatedAt: reply.Timestamp,
	}
	if chatCtx != nil {
		msg.ContextAlgorithmID = chatCtx.AlgorithmID
		msg.ContextSectionID = chatCtx.SectionID
		msg.ContextTopic = chatCtx.Topic
	}
	if err := s.ChatRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("save chat message: %w", err)
	}
	return reply, nil
}

// respond 模型失败或熔断打开时退回固定回复
func (s *ChatService) respond(ctx context.Context, prompt ChatPrompt) (string, string) {
	if s.primary != nil {
		text, err := s.breaker.Execute(func() (string, error) {
			return s.primary.Reply(ctx, prompt)
		})
		if err == nil {
			return text, SourceAI
		}
		logger.Log.Warn("AI responder unavailable, using canned reply", zap.Error(err))
	}
	text, _ := s.fallback.Reply(ctx, prompt)
	return text, SourceCanned
}

func (s *ChatService) recentHistory(ctx context.Context, userID string) []model.ChatMessage {
	messages, err := s.ChatRepo.FindByUserID(ctx, userID, promptHistoryTurns)
	if err != nil {
		logger.Log.Warn("load chat history failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	// 仓储按时间倒序返回，模型需要正序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages
}

// History 最新的在前
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	messages, err := s.ChatRepo.FindByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	return messages, nil
}
