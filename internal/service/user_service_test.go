package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/util"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.users.Upsert(ctx, UpsertUserRequest{ID: "u1", Email: "a@example.com", DisplayName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, 1, created.Level)

	env.clock.advance(time.Hour)
	_, err = env.users.Upsert(ctx, UpsertUserRequest{ID: "u1", Email: "ada@example.com", DisplayName: "Ada L."})
	require.NoError(t, err)

	user, err := env.users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada L.", user.DisplayName)
	assert.Equal(t, "en", user.PreferredLanguage)
	assert.True(t, user.LastActive.Equal(env.clock.now()))
}

func TestUpsertUserRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Upsert(ctx, UpsertUserRequest{ID: "u1", Email: "shared@example.com"})
	require.NoError(t, err)

	_, err = env.users.Upsert(ctx, UpsertUserRequest{ID: "u2", Email: "shared@example.com"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestUpsertKeepsCounters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	require.NoError(t, env.users.AddExperience(ctx, "u1", 450))
	seedUser(t, env, "u1")

	user, err := env.users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 450, user.ExperiencePoints)
	assert.Equal(t, 3, user.Level)
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	lang := "zh"
	user, err := env.users.UpdateProfile(ctx, "u1", model.ProfileUpdate{PreferredLanguage: &lang})
	require.NoError(t, err)
	assert.Equal(t, "zh", user.PreferredLanguage)
	assert.Equal(t, "u1", user.DisplayName)

	_, err = env.users.UpdateProfile(ctx, "ghost", model.ProfileUpdate{PreferredLanguage: &lang})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	user, err := env.users.UploadAvatar(ctx, "u1", "me.png", bytes.NewReader(png), int64(len(png)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.PhotoURL, "/uploads/avatars/u1/"))
	assert.True(t, strings.HasSuffix(user.PhotoURL, ".png"))

	_, err = env.users.UploadAvatar(ctx, "u1", "notes.txt", strings.NewReader("plain text"), 10)
	assert.ErrorIs(t, err, util.ErrInvalidFileType)

	_, err = env.users.UploadAvatar(ctx, "u1", "big.png", bytes.NewReader(png), util.MaxAvatarSize+1)
	assert.ErrorIs(t, err, util.ErrFileTooLarge)
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 3, 12, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		last    string
		current int
		want    int
	}{
		{"first activity", "", 0, 1},
		{"same day", "2025-03-12", 4, 4},
		{"next day", "2025-03-11", 4, 5},
		{"gap", "2025-03-09", 4, 1},
		{"garbage date", "yesterday", 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.last, tt.current, now))
		})
	}
}

func TestRecordActivityTracksLongestStreak(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedUser(t, env, "u1")

	for i := 0; i < 3; i++ {
		require.NoError(t, env.users.RecordActivity(ctx, "u1"))
		env.clock.advance(24 * time.Hour)
	}
	env.clock.advance(48 * time.Hour)
	require.NoError(t, env.users.RecordActivity(ctx, "u1"))

	user, err := env.users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, 3, user.LongestStreak)

	// 用户不存在时静默忽略
	assert.NoError(t, env.users.RecordActivity(ctx, "ghost"))
}
