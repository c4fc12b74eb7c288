package models

import (
	"maps"
	"time"
)

// Metrics are the usage numbers recorded for one invocation.
type Metrics struct {
	PromptTokens     int   `json:"promptTokens"`
	CompletionTokens int   `json:"completionTokens"`
	TotalTokens      int   `json:"totalTokens"`
	ResponseTimeMs   int64 `json:"responseTimeMs"`
}

// TestResult records a single prompt execution against one model.
type TestResult struct {
	ID        string            `json:"id"`
	Response  string            `json:"response"`
	ModelID   string            `json:"modelId"`
	Variables map[string]string `json:"variables"`
	Metrics   Metrics           `json:"metrics"`
	Timestamp time.Time         `json:"timestamp"`
}

func (t TestResult) Clone() TestResult {
	out := t
	out.Variables = maps.Clone(t.Variables)
	return out
}
