package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDispatchMetric(t *testing.T) {
	m := NewDispatchMetric(OperationAsk, "abcd1234", true, 90*time.Second, 7500*time.Millisecond)

	assert.Equal(t, OperationAsk, m.Operation)
	assert.Equal(t, "abcd1234", m.PromptHash)
	assert.True(t, m.Succeeded())
	assert.Equal(t, 90.0, m.WaitSeconds)
	assert.Equal(t, 7.5, m.AdapterSeconds)
	assert.False(t, m.Fallback)
	assert.NotZero(t, m.Timestamp)
}

func TestDispatchMetricFailed(t *testing.T) {
	m := NewDispatchMetric(OperationAsk, "abcd1234", false, 0, 0)

	assert.False(t, m.Succeeded())
	assert.Equal(t, "failed", m.FinalStatus)
}

func TestHashPrompt(t *testing.T) {
	hash := HashPrompt("what is the answer?")

	assert.Len(t, hash, 8)
	assert.Equal(t, hash, HashPrompt("what is the answer?"), "hashing is deterministic")
	assert.NotEqual(t, hash, HashPrompt("a different prompt"))
}

func TestDispatchMetricJSON(t *testing.T) {
	m := NewDispatchMetric(OperationListConversations, "", true, 0, 2*time.Second)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	// Empty optional fields are omitted entirely.
	assert.NotContains(t, string(data), "prompt_hash")
	assert.NotContains(t, string(data), "error_kind")
	assert.Contains(t, string(data), `"operation":"get_conversations"`)
	assert.Contains(t, string(data), `"final_status":"succeeded"`)
}
