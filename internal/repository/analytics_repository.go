package repository

import (
	"ai_academy_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// FindOrCreate 不存在时插入全零行，依赖 user_id 唯一索引防止重复
func (r *AnalyticsRepository) FindOrCreate(ctx context.Context, userID string) (*model.LearningAnalytics, error) {
	db := r.DB.WithContext(ctx)

	fresh := model.NewLearningAnalytics(userID)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(fresh).Error
	if err != nil {
		return nil, err
	}

	var row model.LearningAnalytics
	if err := db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *AnalyticsRepository) Save(ctx context.Context, a *model.LearningAnalytics) error {
	return r.DB.WithContext(ctx).Save(a).Error
}
