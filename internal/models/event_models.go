package models

import "time"

const (
	EventSearchStored   = "search.stored"
	EventAnalysisStored = "analysis.stored"
)

// PipelineEvent is published after the pipeline has written to the store.
type PipelineEvent struct {
	Type       string    `json:"type"`
	QueryKey   string    `json:"query_key"`
	ItemCount  int       `json:"item_count"`
	OccurredAt time.Time `json:"occurred_at"`
}
