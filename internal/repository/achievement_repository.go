package repository

import (
	"ai_academy_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository struct {
	DB *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{DB: db}
}

// FindByUserID 最新解锁的排在前面
func (r *AchievementRepository) FindByUserID(ctx context.Context, userID string) ([]model.Achievement, error) {
	achievements := make([]model.Achievement, 0)
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at desc, id desc").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// InsertIfAbsent 重复解锁静默忽略，返回是否真正插入
func (r *AchievementRepository) InsertIfAbsent(ctx context.Context, a *model.Achievement) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
