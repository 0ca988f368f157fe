package ui

import (
	"fmt"
	"io"
	"time"
)

// Reporter prints dispatch progress for the one-shot CLI mode. The serve mode
// runs it quiet: stderr carries structured logs there instead.
type Reporter struct {
	writer io.Writer
	quiet  bool
}

// NewReporter creates a new status reporter
func NewReporter(writer io.Writer) *Reporter {
	return &Reporter{
		writer: writer,
		quiet:  false,
	}
}

// SetQuiet enables or disables quiet mode (suppresses progress messages)
func (r *Reporter) SetQuiet(quiet bool) {
	r.quiet = quiet
}

// DispatchStart reports the start of a dispatch
func (r *Reporter) DispatchStart(operation string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[chatbridge] Dispatching %s...\n", operation)
}

// ShowWaiting reports that the throttle gate is holding the dispatch
func (r *Reporter) ShowWaiting(wait time.Duration) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[chatbridge] Waiting %s for the dispatch interval...\n", wait.Round(time.Second))
}

// ShowSettling reports the post-submit settle delay
func (r *Reporter) ShowSettling(delay time.Duration) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[chatbridge] Prompt submitted, settling %s for the reply...\n", delay.Round(time.Second))
}

// ShowWarning reports a non-fatal problem
func (r *Reporter) ShowWarning(message string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.writer, "[chatbridge] Warning: %s\n", message)
}

// DispatchOutcome reports the final result of a dispatch
func (r *Reporter) DispatchOutcome(success bool, reason string, duration time.Duration) {
	if r.quiet {
		return
	}
	status := "failed"
	if success {
		status = "succeeded"
	}
	fmt.Fprintf(r.writer, "[chatbridge] Dispatch %s after %s (%s)\n", status, duration.Round(time.Millisecond), reason)
}
