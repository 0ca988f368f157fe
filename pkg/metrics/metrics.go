package metrics

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Operation names recorded in dispatch metrics.
const (
	OperationAsk               = "ask"
	OperationListConversations = "get_conversations"
)

// DispatchMetric describes one completed dispatch to the target application.
// The prompt itself is never recorded, only a short hash for correlating
// repeated questions.
type DispatchMetric struct {
	Operation      string  `json:"operation"`
	PromptHash     string  `json:"prompt_hash,omitempty"`
	FinalStatus    string  `json:"final_status"` // "succeeded" or "failed"
	ErrorKind      string  `json:"error_kind,omitempty"`
	WaitSeconds    float64 `json:"wait_seconds"`
	AdapterSeconds float64 `json:"adapter_seconds"`
	Fallback       bool    `json:"fallback"`
	Timestamp      int64   `json:"timestamp"` // Unix timestamp
}

// NewDispatchMetric creates a metric for a finished dispatch.
func NewDispatchMetric(operation, promptHash string, success bool, wait, adapter time.Duration) *DispatchMetric {
	finalStatus := "failed"
	if success {
		finalStatus = "succeeded"
	}
	return &DispatchMetric{
		Operation:      operation,
		PromptHash:     promptHash,
		FinalStatus:    finalStatus,
		WaitSeconds:    float64(wait) / float64(time.Second),
		AdapterSeconds: float64(adapter) / float64(time.Second),
		Timestamp:      time.Now().Unix(),
	}
}

// Succeeded reports whether the dispatch completed successfully.
func (m *DispatchMetric) Succeeded() bool {
	return m.FinalStatus == "succeeded"
}

// HashPrompt creates a consistent short hash for a prompt
func HashPrompt(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	// Return first 8 characters of hex representation
	return fmt.Sprintf("%x", hash)[:8]
}
