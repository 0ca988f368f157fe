package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.DispatchStart("ask")
	r.ShowWaiting(90 * time.Second)
	r.ShowSettling(5 * time.Second)
	r.ShowWarning("conversation not found")
	r.DispatchOutcome(true, "ok", 97*time.Second)

	out := buf.String()
	assert.Contains(t, out, "[chatbridge] Dispatching ask...")
	assert.Contains(t, out, "Waiting 1m30s for the dispatch interval")
	assert.Contains(t, out, "settling 5s for the reply")
	assert.Contains(t, out, "Warning: conversation not found")
	assert.Contains(t, out, "Dispatch succeeded after 1m37s (ok)")
}

func TestReporterFailureOutcome(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.DispatchOutcome(false, "adapter_unreachable", 2*time.Second)

	assert.Contains(t, buf.String(), "Dispatch failed after 2s (adapter_unreachable)")
}

func TestReporterQuietSuppressesEverything(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.SetQuiet(true)

	r.DispatchStart("ask")
	r.ShowWaiting(time.Minute)
	r.ShowSettling(time.Second)
	r.ShowWarning("ignored")
	r.DispatchOutcome(true, "ok", time.Second)

	assert.Empty(t, buf.String())
}
