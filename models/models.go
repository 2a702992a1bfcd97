package models

import "time"

// Problem difficulty tiers as used by the catalog and the recommender.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Problem is one coding problem in the catalog.
type Problem struct {
	ID             int      `json:"id"`
	Title          string   `json:"title"`
	Difficulty     string   `json:"difficulty"`
	Description    string   `json:"description,omitempty"`
	Motivation     string   `json:"motivation,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	AcceptanceRate float64  `json:"acceptance_rate,omitempty"`
	Frequency      float64  `json:"frequency,omitempty"`
}

// Recommendation is the trimmed problem shape returned by the recommender.
type Recommendation struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
}

// Motivation is one item of a motivation stream.
type Motivation struct {
	Quote     string    `json:"quote"`
	Tip       string    `json:"tip"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// CodeAnalysis is the result of analyzing a user's solution.
type CodeAnalysis struct {
	QualityScore float64    `json:"quality_score"`
	Language     string     `json:"language"`
	Suggestions  []string   `json:"suggestions"`
	Complexity   Complexity `json:"complexity"`
	Strengths    []string   `json:"strengths"`
	Motivation   string     `json:"motivation,omitempty"`
}

// Complexity describes time/space complexity of a solution.
type Complexity struct {
	Time  string `json:"time"`
	Space string `json:"space"`
}

// TrainingReport summarizes a finished simulated training run.
type TrainingReport struct {
	Status          string  `json:"status"`
	FinalAccuracy   float64 `json:"final_accuracy"`
	TrainingBatches int     `json:"training_batches"`
	TotalSamples    int     `json:"total_samples"`
}
