package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"cmp"
	"slices"
	"strings"
)

const statsTopN = 5

// CatalogService 目录只读查询，不产生副作用
type CatalogService struct {
	AlgorithmRepo *repository.AlgorithmRepository
}

func NewCatalogService(algorithmRepo *repository.AlgorithmRepository) *CatalogService {
	return &CatalogService{AlgorithmRepo: algorithmRepo}
}

func (s *CatalogService) Get(id string) (*model.Algorithm, error) {
	a, ok := s.AlgorithmRepo.FindByID(id)
	if !ok {
		return nil, util.ErrAlgorithmNotFound
	}
	return a, nil
}

func (s *CatalogService) List() []model.AlgorithmSummary {
	return summarize(s.AlgorithmRepo.FindAll())
}

func (s *CatalogService) ListByCategory(category string) []model.AlgorithmSummary {
	var matched []model.Algorithm
	for _, a := range s.AlgorithmRepo.FindAll() {
		if strings.EqualFold(a.Category, category) {
			matched = append(matched, a)
		}
	}
	return summarize(matched)
}

// Search 对名称、描述、标签做不区分大小写的子串匹配
func (s *CatalogService) Search(query string) []model.Algorithm {
	all := s.AlgorithmRepo.FindAll()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}

	matched := make([]model.Algorithm, 0)
	for _, a := range all {
		if matchesQuery(&a, q) {
			matched = append(matched, a)
		}
	}
	return matched
}

func matchesQuery(a *model.Algorithm, q string) bool {
	if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Description), q) {
		return true
	}
	for _, tag := range a.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func (s *CatalogService) Stats() model.CatalogStats {
	all := s.AlgorithmRepo.FindAll()

	stats := model.CatalogStats{
		TotalAlgorithms: len(all),
		Categories:      make([]string, 0),
		CategoryCounts:  make(map[string]int),
		MostPopular:     make([]model.AlgorithmSummary, 0),
		RecentlyUpdated: make([]model.AlgorithmSummary, 0),
	}
	if len(all) == 0 {
		return stats
	}

	var ratingSum, completionSum float64
	for _, a := range all {
		if _, seen := stats.CategoryCounts[a.Category]; !seen {
			stats.Categories = append(stats.Categories, a.Category)
		}
		stats.CategoryCounts[a.Category]++

		switch a.Difficulty {
		case model.DifficultyBeginner:
			stats.DifficultyDistribution.Beginner++
		case model.DifficultyIntermediate:
			stats.DifficultyDistribution.Intermediate++
		case model.DifficultyAdvanced:
			stats.DifficultyDistribution.Advanced++
		case model.DifficultyExpert:
			stats.DifficultyDistribution.Expert++
		}

		ratingSum += a.Rating
		completionSum += a.CompletionRate
	}
	stats.AverageRating = ratingSum / float64(len(all))
	stats.AverageCompletionRate = completionSum / float64(len(all))

	byPopularity := slices.Clone(all)
	slices.SortStableFunc(byPopularity, func(a, b model.Algorithm) int {
		return cmp.Compare(b.Popularity, a.Popularity)
	})
	stats.MostPopular = summarize(head(byPopularity, statsTopN))

	// lastUpdated 为 YYYY-MM-DD，字典序即时间序
	byUpdate := slices.Clone(all)
	slices.SortStableFunc(byUpdate, func(a, b model.Algorithm) int {
		return cmp.Compare(b.LastUpdated, a.LastUpdated)
	})
	stats.RecentlyUpdated = summarize(head(byUpdate, statsTopN))

	return stats
}

// Categories 按首次出现顺序汇总分类
func (s *CatalogService) Categories() []model.CategorySummary {
	var out []model.CategorySummary
	pos := make(map[string]int)
	for _, a := range s.AlgorithmRepo.FindAll() {
		i, ok := pos[a.Category]
		if !ok {
			i = len(out)
			pos[a.Category] = i
			out = append(out, model.CategorySummary{Name: a.Category, Difficulties: []model.Difficulty{}})
		}
		out[i].Count++
		if !slices.Contains(out[i].Difficulties, a.Difficulty) {
			out[i].Difficulties = append(out[i].Difficulties, a.Difficulty)
		}
	}
	if out == nil {
		out = []model.CategorySummary{}
	}
	return out
}

// CategoryOf 未收录的算法返回 false
func (s *CatalogService) CategoryOf(algorithmID string) (category string, difficulty model.Difficulty, ok bool) {
	a, found := s.AlgorithmRepo.FindByID(algorithmID)
	if !found {
		return "", "", false
	}
	return a.Category, a.Difficulty, true
}

func (s *CatalogService) Count() int {
	return s.AlgorithmRepo.Count()
}

func summarize(algorithms []model.Algorithm) []model.AlgorithmSummary {
	out := make([]model.AlgorithmSummary, 0, len(algorithms))
	for i := range algorithms {
		out = append(out, algorithms[i].Summary())
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
