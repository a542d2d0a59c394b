package models

import "time"

// AnalysisResult is the language-model verdict for one query key.
// AnalyzedCount is the number of stored posts that were fed to the model.
type AnalysisResult struct {
	Positive      string    `json:"positive" dynamodbav:"positive"`
	Negative      string    `json:"negative" dynamodbav:"negative"`
	Summary       string    `json:"summary" dynamodbav:"summary"`
	AnalyzedCount int       `json:"analyzed_count" dynamodbav:"analyzed_count"`
	AnalyzedAt    time.Time `json:"analyzed_at" dynamodbav:"analyzed_at"`
}
