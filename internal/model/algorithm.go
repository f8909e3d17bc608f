package model

// Algorithm 目录中的只读内容记录
type Algorithm struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Category           string             `json:"category"`
	Subcategory        string             `json:"subcategory"`
	Difficulty         Difficulty         `json:"difficulty"`
	Description        string             `json:"description"`
	LongDescription    string             `json:"longDescription"`
	TimeToComplete     int                `json:"timeToComplete"`
	EstimatedTime      string             `json:"estimatedTime"`
	Prerequisites      []string           `json:"prerequisites"`
	LearningObjectives []string           `json:"learningObjectives"`
	Applications       []string           `json:"applications"`
	Visualization      Visualization      `json:"visualization"`
	CodeExamples       []CodeExample      `json:"codeExamples"`
	Mathematics        MathContent        `json:"mathematics"`
	RelatedAlgorithms  []RelatedAlgorithm `json:"relatedAlgorithms"`
	Exercises          []Exercise         `json:"exercises"`
	Resources          []Resource         `json:"resources"`
	Rating             float64            `json:"rating"`
	ReviewCount        int                `json:"reviewCount"`
	LastUpdated        string             `json:"lastUpdated"`
	Tags               []string           `json:"tags"`
	Level              string             `json:"level"`
	Popularity         int                `json:"popularity"`
	CompletionRate     float64            `json:"completionRate"`
}

type Visualization struct {
	Type   string              `json:"type"`
	Config map[string]any      `json:"config"`
	Steps  []VisualizationStep `json:"steps"`
}

type VisualizationStep struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Animation   string `json:"animation"`
}

type CodeExample struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

type MathContent struct {
	Formulas []string `json:"formulas"`
	Concepts []string `json:"concepts"`
	Proofs   []string `json:"proofs"`
}

type RelatedAlgorithm struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Similarity int    `json:"similarity"`
}

type Exercise struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Difficulty  string `json:"difficulty"`
	Description string `json:"description"`
}

type Resource struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AlgorithmSummary 列表接口使用的精简视图
type AlgorithmSummary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	Description    string     `json:"description"`
	EstimatedTime  string     `json:"estimatedTime"`
	Rating         float64    `json:"rating"`
	ReviewCount    int        `json:"reviewCount"`
	Tags           []string   `json:"tags"`
	Popularity     int        `json:"popularity"`
	CompletionRate float64    `json:"completionRate"`
}

func (a *Algorithm) Summary() AlgorithmSummary {
	return AlgorithmSummary{
		ID:             a.ID,
		Name:           a.Name,
		Category:       a.Category,
		Difficulty:     a.Difficulty,
		Description:    a.Description,
		EstimatedTime:  a.EstimatedTime,
		Rating:         a.Rating,
		ReviewCount:    a.ReviewCount,
		Tags:           a.Tags,
		Popularity:     a.Popularity,
		CompletionRate: a.CompletionRate,
	}
}

type DifficultyDistribution struct {
	Beginner     int `json:"beginner"`
	Intermediate int `json:"intermediate"`
	Advanced     int `json:"advanced"`
	Expert       int `json:"expert"`
}

type CatalogStats struct {
	TotalAlgorithms        int                    `json:"totalAlgorithms"`
	Categories             []string               `json:"categories"`
	CategoryCounts         map[string]int         `json:"categoryCounts"`
	DifficultyDistribution DifficultyDistribution `json:"difficultyDistribution"`
	AverageRating          float64                `json:"averageRating"`
	AverageCompletionRate  float64                `json:"averageCompletionRate"`
	MostPopular            []AlgorithmSummary     `json:"mostPopular"`
	RecentlyUpdated        []AlgorithmSummary     `json:"recentlyUpdated"`
}

type CategorySummary struct {
	Name         string       `json:"name"`
	Count        int          `json:"count"`
	Difficulties []Difficulty `json:"difficulties"`
}
