package repository

import (
	"ai_academy_backend/internal/model"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
)

//go:embed data/algorithms.json
var algorithmData []byte

// AlgorithmRepository 只读目录，启动时解析一次
type AlgorithmRepository struct {
	algorithms []model.Algorithm
	index      map[string]int
}

func NewAlgorithmRepository() (*AlgorithmRepository, error) {
	var algorithms []model.Algorithm
	if err := json.Unmarshal(algorithmData, &algorithms); err != nil {
		return nil, fmt.Errorf("decode algorithm catalog: %w", err)
	}
	return NewAlgorithmRepositoryFrom(algorithms), nil
}

func NewAlgorithmRepositoryFrom(algorithms []model.Algorithm) *AlgorithmRepository {
	r := &AlgorithmRepository{
		algorithms: algorithms,
		index:      make(map[string]int, len(algorithms)),
	}
	for i, a := range algorithms {
		r.index[a.ID] = i
	}
	return r
}

func (r *AlgorithmRepository) FindByID(id string) (*model.Algorithm, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	a := r.algorithms[i]
	return &a, true
}

// FindAll 返回副本，调用方排序不会影响目录顺序
func (r *AlgorithmRepository) FindAll() []model.Algorithm {
	return slices.Clone(r.algorithms)
}

func (r *AlgorithmRepository) Count() int {
	return len(r.algorithms)
}
