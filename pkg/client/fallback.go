package client

import "ai_academy_backend/internal/model"

// fallbackAlgorithms 接口不可用时展示的离线目录
var fallbackAlgorithms = []model.AlgorithmSummary{
	{
		ID:            "linear-regression",
		Name:          "Linear Regression",
		Category:      "Supervised Learning",
		Difficulty:    model.DifficultyBeginner,
		Description:   "A basic algorithm for predicting continuous values using linear relationships between variables.",
		EstimatedTime: "30 min",
		Tags:          []string{"Linear Algebra", "Gradient Descent", "Cost Function"},
	},
	{
		ID:            "logistic-regression",
		Name:          "Logistic Regression",
		Category:      "Supervised Learning",
		Difficulty:    model.DifficultyBeginner,
		Description:   "A classification algorithm that predicts the probability of an instance belonging to a given class.",
		EstimatedTime: "45 min",
		Tags:          []string{"Sigmoid Function", "Binary Classification", "Maximum Likelihood"},
	},
	{
		ID:            "decision-trees",
		Name:          "Decision Trees",
		Category:      "Supervised Learning",
		Difficulty:    model.DifficultyIntermediate,
		Description:   "A tree-like model of decisions that predicts the value of a target variable by learning decision rules.",
		EstimatedTime: "60 min",
		Tags:          []string{"Entropy", "Information Gain", "Pruning"},
	},
	{
		ID:            "k-means",
		Name:          "K-Means Clustering",
		Category:      "Unsupervised Learning",
		Difficulty:    model.DifficultyIntermediate,
		Description:   "A method that partitions data points into k clusters, where each point belongs to the cluster with the nearest mean.",
		EstimatedTime: "45 min",
		Tags:          []string{"Centroid", "Euclidean Distance", "Cluster Assignment"},
	},
	{
		ID:            "neural-networks",
		Name:          "Neural Networks",
		Category:      "Deep Learning",
		Difficulty:    model.DifficultyAdvanced,
		Description:   "A computational model inspired by the human brain, consisting of layers of interconnected nodes to process data.",
		EstimatedTime: "90 min",
		Tags:          []string{"Backpropagation", "Activation Functions", "Gradient Descent", "Loss Functions"},
	},
	{
		ID:            "convolutional-neural-networks",
		Name:          "Convolutional Neural Networks",
		Category:      "Deep Learning",
		Difficulty:    model.DifficultyAdvanced,
		Description:   "A specialized neural network architecture designed for processing grid-like data such as images.",
		EstimatedTime: "120 min",
		Tags:          []string{"Convolution", "Pooling", "Feature Maps", "Filters"},
	},
	{
		ID:            "reinforcement-learning",
		Name:          "Q-Learning",
		Category:      "Reinforcement Learning",
		Difficulty:    model.DifficultyAdvanced,
		Description:   "A model-free reinforcement learning algorithm to learn the value of an action in a particular state.",
		EstimatedTime: "150 min",
		Tags:          []string{"Q-Table", "Exploration vs Exploitation", "Reward Function", "Bellman Equation"},
	},
}

// FallbackAlgorithms 返回副本，调用方可以随意修改
func FallbackAlgorithms() []model.AlgorithmSummary {
	out := make([]model.AlgorithmSummary, len(fallbackAlgorithms))
	for i, a := range fallbackAlgorithms {
		a.Tags = append([]string(nil), a.Tags...)
		out[i] = a
	}
	return out
}
