package model

import (
	"strings"

	"github.com/google/uuid"
)

// Difficulty 目录中的难度等级
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyExpert       Difficulty = "Expert"
)

// Key 统计用的小写键，如 beginner
func (d Difficulty) Key() string {
	return strings.ToLower(string(d))
}

func GenerateUUID() string {
	return uuid.New().String()
}
