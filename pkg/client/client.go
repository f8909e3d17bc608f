package client

import (
	"ai_academy_backend/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout 单个请求的固定超时
const DefaultTimeout = 5 * time.Second

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
}

// IsNotFound 判断是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient baseURL 形如 http://localhost:3001/api
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SaveProgressResult POST /progress 的返回
type SaveProgressResult struct {
	UserID       string               `json:"user_id"`
	AlgorithmID  string               `json:"algorithm_id"`
	Status       model.ProgressStatus `json:"status"`
	Achievements []model.Achievement  `json:"achievements"`
}

type ChatRequest struct {
	Message string             `json:"message"`
	UserID  string             `json:"user_id,omitempty"`
	Context *model.ChatContext `json:"context,omitempty"`
}

type UpsertUserRequest struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

func (c *Client) ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error) {
	var out []model.AlgorithmSummary
	err := c.do(ctx, http.MethodGet, "/algorithms", nil, &out)
	return out, err
}

func (c *Client) GetAlgorithm(ctx context.Context, id string) (*model.Algorithm, error) {
	var out model.Algorithm
	if err := c.do(ctx, http.MethodGet, "/algorithms/detailed/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertUser(ctx context.Context, req UpsertUserRequest) error {
	return c.do(ctx, http.MethodPost, "/users", req, nil)
}

func (c *Client) ListProgress(ctx context.Context, userID string) ([]model.UserProgress, error) {
	var out []model.UserProgress
	err := c.do(ctx, http.MethodGet, "/progress/"+url.PathEscape(userID), nil, &out)
	return out, err
}

// SaveProgress 以完整记录覆盖服务端进度
func (c *Client) SaveProgress(ctx context.Context, p *model.UserProgress) (*SaveProgressResult, error) {
	var out SaveProgressResult
	if err := c.do(ctx, http.MethodPost, "/progress", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAchievements(ctx context.Context, userID string) ([]model.Achievement, error) {
	var out []model.Achievement
	err := c.do(ctx, http.MethodGet, "/achievements/"+url.PathEscape(userID), nil, &out)
	return out, err
}

func (c *Client) GetAnalytics(ctx context.Context, userID string) (*model.LearningAnalytics, error) {
	var out model.LearningAnalytics
	if err := c.do(ctx, http.MethodGet, "/analytics/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*model.ChatReply, error) {
	var out model.ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
		if decodeErr == nil {
			if env.Error != "" {
				apiErr.Code = env.Error
			}
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Code: env.Error, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
