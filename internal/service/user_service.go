package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"ai_academy_backend/pkg/logger"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpsertUserRequest 首次登录或资料同步
type UpsertUserRequest struct {
	ID          string `json:"id" binding:"required,max=128"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"max=100"`
	PhotoURL    string `json:"photo_url" binding:"max=512"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
	now      func() time.Time
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
		now:      time.Now,
	}
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// Upsert id 已存在时更新身份字段；邮箱属于其他用户时拒绝
func (s *UserService) Upsert(ctx context.Context, req UpsertUserRequest) (*model.User, error) {
	owner, err := s.UserRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && owner.ID != req.ID:
		return nil, util.ErrEmailRegistered
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("check email owner: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:                req.ID,
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		PhotoURL:          req.PhotoURL,
		Level:             1,
		PreferredLanguage: "en",
		CreatedAt:         now,
		LastActive:        now,
	}
	if err := s.UserRepo.Upsert(ctx, user); err != nil {
		// 并发写入时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{"last_active": s.now()}
	if upd.DisplayName != nil {
		fields["display_name"] = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		fields["photo_url"] = *upd.PhotoURL
	}
	if upd.PreferredLanguage != nil {
		fields["preferred_language"] = *upd.PreferredLanguage
	}

	rows, err := s.UserRepo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if rows == 0 {
		return nil, util.ErrUserNotFound
	}
	return s.Get(ctx, id)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// UploadAvatar 校验图片后写入存储并更新 photo_url
func (s *UserService) UploadAvatar(ctx context.Context, id, filename string, r io.Reader, size int64) (*model.User, error) {
	if size > util.MaxAvatarSize {
		return nil, util.ErrFileTooLarge
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	head = head[:n]

	mimeType, err := util.ValidateMimeType(bytes.NewReader(head), []string{util.MimeImage})
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s%s",
		unsafeKeyChars.ReplaceAllString(id, "_"),
		model.GenerateUUID(),
		util.ImageExtension(filename, mimeType),
	)
	url, err := s.Storage.Upload(ctx, key, io.MultiReader(bytes.NewReader(head), r), size, mimeType)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	photo := url
	user, err := s.UpdateProfile(ctx, id, model.ProfileUpdate{PhotoURL: &photo})
	if err != nil {
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("remove orphan avatar failed", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return user, nil
}

// UpdateLastSeen 供 ActivityMiddleware 异步调用，失败只记日志
func (s *UserService) UpdateLastSeen(ctx context.Context, userID string) {
	if err := s.UserRepo.UpdateLastActive(ctx, userID); err != nil {
		logger.Log.Warn("touch last_active failed", zap.String("user_id", userID), zap.Error(err))
	}
}

// SyncProgressStats 用进度表的派生值覆盖用户计数，用户不存在时忽略
func (s *UserService) SyncProgressStats(ctx context.Context, id string, completed, timeSpent int) error {
	_, err := s.UserRepo.UpdateFields(ctx, id, map[string]interface{}{
		"algorithms_completed": completed,
		"total_time_spent":     timeSpent,
	})
	return err
}

// RecordActivity 以自然日为粒度维护连续学习天数
func (s *UserService) RecordActivity(ctx context.Context, id string) error {
	user, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	now := s.now()
	today := now.Format(util.DateFormat)
	streak := NextStreak(user.LastStudyDate, user.CurrentStreak, now)
	longest := user.LongestStreak
	if streak > longest {
		longest = streak
	}

	_, err = s.UserRepo.UpdateFields(ctx, id, map[string]interface{}{
		"current_streak":  streak,
		"longest_streak":  longest,
		"last_study_date": today,
		"last_active":     now,
	})
	return err
}

// NextStreak 同一天不变，隔天加一，中断后从 1 重新开始
func NextStreak(lastStudyDate string, current int, now time.Time) int {
	if lastStudyDate == "" || current <= 0 {
		return 1
	}
	last, err := time.ParseInLocation(util.DateFormat, lastStudyDate, now.Location())
	if err != nil {
		return 1
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(math.Round(today.Sub(last).Hours() / 24))
	switch {
	case days <= 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func (s *UserService) AddExperience(ctx context.Context, id string, points int) error {
	if points <= 0 {
		return nil
	}
	_, err := s.UserRepo.AddExperience(ctx, id, points)
	return err
}
