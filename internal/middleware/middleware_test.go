package middleware

import (
	"ai_academy_backend/internal/config"
	"ai_academy_backend/internal/util"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type activityRecorder struct {
	mu          sync.Mutex
	seen        []string
	noDeadlines int
}

func (r *activityRecorder) UpdateLastSeen(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		r.noDeadlines++
	}
	r.seen = append(r.seen, userID)
}

func (r *activityRecorder) unbounded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.noDeadlines
}

func (r *activityRecorder) users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestRequestIDPropagation(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(util.RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.RequestHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(util.RequestHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(util.RequestHeader, strings.Repeat("x", 100))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get(util.RequestHeader), 36)
}

func TestRecoveryReturns500(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong!")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestAuthAndOwnership(t *testing.T) {
	secret := "middleware-test-secret-0123456789ab"
	cfg := &config.Config{Auth: config.AuthConfig{Enabled: true}, JWT: config.JWTConfig{Secret: secret}}
	recorder := &activityRecorder{}

	r := gin.New()
	r.GET("/users/:id", AuthMiddleware(cfg), ActivityMiddleware(recorder), OwnerMiddleware("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/users/u1", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(""))

	other, err := util.GenerateJWT("u2", "", secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(other))

	own, err := util.GenerateJWT("u1", "", secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(own))

	assert.Eventually(t, func() bool {
		return len(recorder.users()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"u1", "u2"}, recorder.users())
	assert.Zero(t, recorder.unbounded())
}

func TestAuthDisabledAllowsAnyone(t *testing.T) {
	r := gin.New()
	r.GET("/users/:id", AuthMiddleware(&config.Config{}), OwnerMiddleware("id"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/anyone", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
