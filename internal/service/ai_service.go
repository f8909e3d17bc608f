package service

import (
	"ai_academy_backend/internal/config"
	"ai_academy_backend/internal/model"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	SourceCanned = "canned"
	SourceAI     = "ai"
)

// ChatPrompt 一次提问及其上下文，History 按时间正序
type ChatPrompt struct {
	Message string
	Context *model.ChatContext
	History []model.ChatMessage
}

// Responder 生成助教回复
type Responder interface {
	Reply(ctx context.Context, prompt ChatPrompt) (string, error)
}

var cannedResponses = []string{
	"That's a great question about machine learning! Let me explain...",
	"I'd be happy to help you understand this concept better.",
	"This is a fundamental topic in AI. Here's what you need to know...",
	"Let me break this down into simpler terms for you.",
	"That's an advanced topic! Let's start with the basics...",
}

// CannedResponder 从固定回复中均匀随机挑选
type CannedResponder struct {
	pick func(n int) int
}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{pick: rand.IntN}
}

func (r *CannedResponder) Reply(ctx context.Context, prompt ChatPrompt) (string, error) {
	return cannedResponses[r.pick(len(cannedResponses))], nil
}

// CannedResponses 返回副本
func CannedResponses() []string {
	out := make([]string, len(cannedResponses))
	copy(out, cannedResponses)
	return out
}

// OpenAIResponder 走 OpenAI 兼容接口，BaseURL 可指向自建网关
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(cfg config.AIConfig) (*OpenAIResponder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai.api_key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	modelName := cfg.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAIResponder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  modelName,
	}, nil
}

func systemPrompt(c *model.ChatContext) string {
	var b strings.Builder
	b.WriteString("You are a patient tutor at AI Algorithms Academy. Explain machine learning concepts clearly, start from the basics and keep answers focused on the learner's question.")
	if c.IsZero() {
		return b.String()
	}
	b.WriteString("\n\nThe learner is currently studying:")
	if c.AlgorithmID != "" {
		fmt.Fprintf(&b, "\n- algorithm: %s", c.AlgorithmID)
	}
	if c.SectionID != "" {
		fmt.Fprintf(&b, "\n- section: %s", c.SectionID)
	}
	if c.Topic != "" {
		fmt.Fprintf(&b, "\n- topic: %s", c.Topic)
	}
	return b.String()
}

// buildMessages 系统提示词、历史对话、当前问题
func buildMessages(prompt ChatPrompt) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2+2*len(prompt.History))
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt(prompt.Context),
	})
	for _, h := range prompt.History {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: h.Content})
		if h.Response != "" {
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: h.Response})
		}
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.Message,
	})
	return messages
}

func (r *OpenAIResponder) Reply(ctx context.Context, prompt ChatPrompt) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    r.model,
		Messages: buildMessages(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("AI returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("AI returned empty content")
	}
	return content, nil
}
