package repository

import (
	"ai_academy_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

var progressConflict = []clause.Column{{Name: "user_id"}, {Name: "algorithm_id"}}

func (r *ProgressRepository) Find(ctx context.Context, userID, algorithmID string) (*model.UserProgress, error) {
	var p model.UserProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND algorithm_id = ?", userID, algorithmID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) FindByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	rows := make([]model.UserProgress, 0)
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateIfAbsent 并发 start 时只有一个插入生效
func (r *ProgressRepository) CreateIfAbsent(ctx context.Context, p *model.UserProgress) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: progressConflict, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ProgressRepository) Save(ctx context.Context, p *model.UserProgress) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

// Upsert 按 (user_id, algorithm_id) 覆盖写入整行
func (r *ProgressRepository) Upsert(ctx context.Context, p *model.UserProgress) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: progressConflict,
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "completed_sections", "time_spent", "accuracy", "attempts",
			"last_accessed", "started_at", "completed_at", "bookmarked", "rating", "notes",
		}),
	}).Create(p).Error
}

// Transaction 在同一事务中执行读改写
func (r *ProgressRepository) Transaction(ctx context.Context, fn func(tx *ProgressRepository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ProgressRepository{DB: tx})
	})
}
