package service

import (
	"ai_academy_backend/internal/model"
	"ai_academy_backend/internal/repository"
	"ai_academy_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	algorithms, err := repository.NewAlgorithmRepository()
	require.NoError(t, err)
	return NewCatalogService(algorithms)
}

func ids(summaries []model.AlgorithmSummary) []string {
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s.ID)
	}
	return out
}

func TestCatalogGet(t *testing.T) {
	catalog := newTestCatalog(t)

	a, err := catalog.Get("linear-regression")
	require.NoError(t, err)
	assert.Equal(t, "Linear Regression", a.Name)
	assert.NotEmpty(t, a.CodeExamples)

	_, err = catalog.Get("nonexistent")
	assert.ErrorIs(t, err, util.ErrAlgorithmNotFound)
}

func TestCatalogListKeepsSourceOrder(t *testing.T) {
	catalog := newTestCatalog(t)
	assert.Equal(t, []string{"linear-regression", "neural-networks", "k-means"}, ids(catalog.List()))
}

func TestCatalogListByCategoryIgnoresCase(t *testing.T) {
	catalog := newTestCatalog(t)

	assert.Equal(t, []string{"linear-regression", "k-means"}, ids(catalog.ListByCategory("machine learning")))
	assert.Equal(t, []string{"neural-networks"}, ids(catalog.ListByCategory("Deep Learning")))
	assert.Empty(t, catalog.ListByCategory("Quantum"))
}

func TestCatalogSearch(t *testing.T) {
	catalog := newTestCatalog(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"linear-regression", "neural-networks", "k-means"}},
		{"NEURAL", []string{"neural-networks"}},
		{"clustering", []string{"k-means"}},
		{"regression", []string{"linear-regression"}},
		{"no-such-thing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := make([]string, 0)
			for _, a := range catalog.Search(tt.query) {
				got = append(got, a.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogStats(t *testing.T) {
	catalog := newTestCatalog(t)
	before := ids(catalog.List())

	stats := catalog.Stats()
	assert.Equal(t, 3, stats.TotalAlgorithms)
	assert.Equal(t, []string{"Machine Learning", "Deep Learning"}, stats.Categories)
	assert.Equal(t, map[string]int{"Machine Learning": 2, "Deep Learning": 1}, stats.CategoryCounts)
	assert.Equal(t, model.DifficultyDistribution{Beginner: 2, Intermediate: 1}, stats.DifficultyDistribution)
	assert.InDelta(t, 4.7, stats.AverageRating, 0.001)
	assert.Equal(t, []string{"linear-regression", "neural-networks", "k-means"}, ids(stats.MostPopular))
	assert.Equal(t, []string{"neural-networks", "k-means", "linear-regression"}, ids(stats.RecentlyUpdated))

	// 排序不能影响目录本身
	assert.Equal(t, before, ids(catalog.List()))
}

func TestCatalogCategories(t *testing.T) {
	catalog := newTestCatalog(t)

	got := catalog.Categories()
	require.Len(t, got, 2)
	assert.Equal(t, model.CategorySummary{
		Name:         "Machine Learning",
		Count:        2,
		Difficulties: []model.Difficulty{model.DifficultyBeginner},
	}, got[0])
	assert.Equal(t, "Deep Learning", got[1].Name)
	assert.Equal(t, []model.Difficulty{model.DifficultyIntermediate}, got[1].Difficulties)
}

func TestCatalogCategoryOf(t *testing.T) {
	catalog := newTestCatalog(t)

	category, difficulty, ok := catalog.CategoryOf("neural-networks")
	assert.True(t, ok)
	assert.Equal(t, "Deep Learning", category)
	assert.Equal(t, model.DifficultyIntermediate, difficulty)

	_, _, ok = catalog.CategoryOf("missing")
	assert.False(t, ok)
}
