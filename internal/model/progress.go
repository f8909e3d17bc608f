package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
	StatusLocked     ProgressStatus = "locked"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusLocked:
		return true
	}
	return false
}

// SectionTimeIncrement 每完成一个章节计入的固定分钟数，并非实测时长
const SectionTimeIncrement = 5

const (
	MinRating = 1
	MaxRating = 5
)

// UserProgress 每个 (user_id, algorithm_id) 一行
type UserProgress struct {
	ID                uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            string                      `gorm:"size:128;not null;uniqueIndex:idx_user_algorithm" json:"user_id"`
	AlgorithmID       string                      `gorm:"size:128;not null;uniqueIndex:idx_user_algorithm" json:"algorithm_id"`
	Status            ProgressStatus              `gorm:"size:20;not null" json:"status"`
	CompletedSections datatypes.JSONSlice[string] `json:"completed_sections"`
	TimeSpent         int                         `gorm:"not null" json:"time_spent"`
	Accuracy          float64                     `gorm:"not null" json:"accuracy"`
	Attempts          int                         `gorm:"not null" json:"attempts"`
	LastAccessed      time.Time                   `json:"last_accessed"`
	StartedAt         *time.Time                  `json:"started_at"`
	CompletedAt       *time.Time                  `json:"completed_at"`
	Bookmarked        bool                        `gorm:"not null" json:"bookmarked"`
	Rating            *int                        `json:"rating"`
	Notes             *string                     `gorm:"type:text" json:"notes"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// BeforeSave 保证 completed_sections 永远落库为 []
func (p *UserProgress) BeforeSave(tx *gorm.DB) error {
	if p.CompletedSections == nil {
		p.CompletedSections = datatypes.JSONSlice[string]{}
	}
	return nil
}

// AfterFind 旧数据中的 null 读出为空列表
func (p *UserProgress) AfterFind(tx *gorm.DB) error {
	if p.CompletedSections == nil {
		p.CompletedSections = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (p *UserProgress) HasSection(sectionID string) bool {
	for _, s := range p.CompletedSections {
		if s == sectionID {
			return true
		}
	}
	return false
}

// ProgressPatch 部分更新，nil 表示不修改
type ProgressPatch struct {
	Status            *ProgressStatus `json:"status" binding:"omitempty,oneof=not_started in_progress completed locked"`
	CompletedSections *[]string       `json:"completed_sections"`
	TimeSpent         *int            `json:"time_spent" binding:"omitempty,min=0"`
	Accuracy          *float64        `json:"accuracy" binding:"omitempty,min=0,max=100"`
	Attempts          *int            `json:"attempts" binding:"omitempty,min=0"`
	Bookmarked        *bool           `json:"bookmarked"`
	Rating            *int            `json:"rating"`
	Notes             *string         `json:"notes"`
	StartedAt         *time.Time      `json:"started_at"`
}

// ProgressSummary 进度派生统计
type ProgressSummary struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	Bookmarked     int     `json:"bookmarked"`
	CompletionRate float64 `json:"completionRate"`
	TimeSpent      int     `json:"timeSpent"`
}
