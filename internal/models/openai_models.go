package models

// AnalysisReply is the JSON object the model is asked to answer with.
// Pointers let the decoder tell a missing key apart from an empty one.
type AnalysisReply struct {
	Positive *string `json:"positive"`
	Negative *string `json:"negative"`
	Summary  *string `json:"summary"`
}
