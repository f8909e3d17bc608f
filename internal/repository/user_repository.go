package repository

import (
	"ai_academy_backend/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert 按主键插入或更新身份字段，计数器不受影响
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "photo_url", "last_active"}),
	}).Create(user).Error
}

func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *UserRepository) UpdateLastActive(ctx context.Context, id string) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_active", time.Now()).Error
}

// AddExperience 累加经验并同步等级，用户不存在时返回 false
func (r *UserRepository) AddExperience(ctx context.Context, id string, points int) (bool, error) {
	found := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		xp := user.ExperiencePoints + points
		return tx.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"experience_points": xp,
			"level":             model.LevelForXP(xp),
		}).Error
	})
	return found, err
}
