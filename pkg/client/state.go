package client

import "ai_academy_backend/internal/model"

// State 客户端本地的学习状态快照
type State struct {
	Loading      bool
	Progress     map[string]model.UserProgress
	Achievements []model.Achievement
	Analytics    *model.LearningAnalytics
}

func NewState() State {
	return State{Progress: map[string]model.UserProgress{}}
}

type Action interface {
	apply(State) State
}

type SetLoading bool

type SetProgress map[string]model.UserProgress

// UpdateProgress 按 algorithm_id 替换单条进度
type UpdateProgress model.UserProgress

type SetAchievements []model.Achievement

type AddAchievement model.Achievement

type SetAnalytics struct {
	Analytics *model.LearningAnalytics
}

// Reduce 纯函数，不修改入参 state 的 map 与切片
func Reduce(state State, action Action) State {
	if action == nil {
		return state
	}
	return action.apply(state)
}

func (a SetLoading) apply(s State) State {
	s.Loading = bool(a)
	return s
}

func (a SetProgress) apply(s State) State {
	progress := make(map[string]model.UserProgress, len(a))
	for k, v := range a {
		progress[k] = v
	}
	s.Progress = progress
	return s
}

func (a UpdateProgress) apply(s State) State {
	progress := make(map[string]model.UserProgress, len(s.Progress)+1)
	for k, v := range s.Progress {
		progress[k] = v
	}
	p := model.UserProgress(a)
	progress[p.AlgorithmID] = p
	s.Progress = progress
	return s
}

func (a SetAchievements) apply(s State) State {
	s.Achievements = append([]model.Achievement(nil), a...)
	return s
}

func (a AddAchievement) apply(s State) State {
	achievements := make([]model.Achievement, 0, len(s.Achievements)+1)
	achievements = append(achievements, s.Achievements...)
	s.Achievements = append(achievements, model.Achievement(a))
	return s
}

func (a SetAnalytics) apply(s State) State {
	s.Analytics = a.Analytics
	return s
}
