package dispatch

import (
	"errors"
	"log/slog"
	"time"

	"github.com/chatbridge/chatbridge/pkg/automation"
	"github.com/chatbridge/chatbridge/pkg/metrics"
	"github.com/chatbridge/chatbridge/pkg/ui"
)

// FallbackReply is returned by Ask when the prompt was submitted but the
// reply element could not be read. A partially rendered UI is not a hard
// error; the prompt already reached the application.
const FallbackReply = "Could not retrieve the response from ChatGPT."

// DefaultReplySettleDelay is how long Ask waits after submitting the prompt
// before reading the reply. There is no completion signal from the app; this
// is a tunable heuristic.
const DefaultReplySettleDelay = 5 * time.Second

// Recorder persists dispatch metrics. Recording failures are logged, never
// propagated into the dispatch result.
type Recorder interface {
	Record(m *metrics.DispatchMetric) error
}

// Options carries the target-application knobs for a Dispatcher.
type Options struct {
	App                 string
	ReplySettleDelay    time.Duration
	ReplyLocator        automation.Locator
	ConversationLocator automation.Locator
	NewChatLabel        string
}

// Dispatcher serializes requests to the target application: probe, throttle,
// drive the UI, normalize the reply. It owns the rate limiter's timestamp and
// assumes single-flight use; the frontend handles one tool call to completion
// before the next.
type Dispatcher struct {
	scripter automation.Scripter
	prober   *Prober
	limiter  *RateLimiter
	clock    Clock
	opts     Options

	// Optional collaborators.
	Reporter *ui.Reporter
	Recorder Recorder
	Logger   *slog.Logger
}

// NewDispatcher creates a dispatcher from its required collaborators.
func NewDispatcher(scripter automation.Scripter, prober *Prober, limiter *RateLimiter, clock Clock, opts Options) *Dispatcher {
	if clock == nil {
		clock = SystemClock()
	}
	if opts.ReplySettleDelay <= 0 {
		opts.ReplySettleDelay = DefaultReplySettleDelay
	}
	return &Dispatcher{
		scripter: scripter,
		prober:   prober,
		limiter:  limiter,
		clock:    clock,
		opts:     opts,
	}
}

// Ask relays one prompt to the application and reads back its reply. A nil
// delayOverride uses the limiter's default interval; zero disables the
// throttle for this call only. The returned text is non-empty on success and
// may be FallbackReply when the reply element was unreadable.
func (d *Dispatcher) Ask(prompt, conversationID string, delayOverride *time.Duration) (string, error) {
	if prompt == "" {
		return "", newError(KindInvalidRequest, "prompt must not be empty", nil)
	}
	if delayOverride != nil && *delayOverride < 0 {
		return "", newError(KindInvalidRequest, "delay override must be non-negative", nil)
	}

	if d.Reporter != nil {
		d.Reporter.DispatchStart(metrics.OperationAsk)
	}

	if err := d.prober.EnsureAvailable(); err != nil {
		d.finish(metrics.OperationAsk, prompt, err, 0, 0, false)
		return "", err
	}

	waited := d.wait(delayOverride)
	d.limiter.MarkDispatch()

	adapterStart := d.clock.Now()
	reply, err := d.interact(prompt, conversationID)
	adapterDuration := d.clock.Now().Sub(adapterStart)
	if err != nil {
		err = newError(KindAdapterInteractionFailed, "interaction with "+d.opts.App+" failed", err)
		d.finish(metrics.OperationAsk, prompt, err, waited, adapterDuration, false)
		return "", err
	}

	fallback := false
	if reply == "" {
		reply = FallbackReply
		fallback = true
	}
	d.finish(metrics.OperationAsk, prompt, nil, waited, adapterDuration, fallback)
	return reply, nil
}

// interact drives the UI for one Ask. It returns the reply text, or empty
// text when the reply element could not be read; any other failure is a hard
// error for the caller to classify.
func (d *Dispatcher) interact(prompt, conversationID string) (string, error) {
	if err := d.scripter.Activate(d.opts.App); err != nil {
		return "", err
	}

	if conversationID != "" {
		// Best effort: a missing conversation entry leaves the currently
		// active conversation in place.
		err := d.scripter.FindAndClickElement(d.opts.App, conversationID, d.opts.ConversationLocator)
		if err != nil && !errors.Is(err, automation.ErrElementNotFound) {
			return "", err
		}
		if err != nil && d.Logger != nil {
			d.Logger.Debug("conversation not found, staying in active conversation",
				"conversation_id", conversationID)
		}
	}

	if err := d.scripter.SendKeystrokes(d.opts.App, prompt); err != nil {
		return "", err
	}
	if err := d.scripter.Submit(d.opts.App); err != nil {
		return "", err
	}

	if d.Reporter != nil {
		d.Reporter.ShowSettling(d.opts.ReplySettleDelay)
	}
	d.clock.Sleep(d.opts.ReplySettleDelay)

	reply, err := d.scripter.ReadElementText(d.opts.App, d.opts.ReplyLocator)
	if err != nil {
		if d.Logger != nil {
			d.Logger.Warn("reply unreadable, substituting fallback text",
				"error", err.Error(), "error_kind", KindReplyUnavailable.String())
		}
		return "", nil
	}
	return reply, nil
}

// ListConversations enumerates conversation entries, excluding the
// new-conversation affordance. Listing is read-only and skips the throttle.
// Adapter failures surface as classified errors here; the boundary layer
// decides whether to downgrade them.
func (d *Dispatcher) ListConversations() ([]string, error) {
	if d.Reporter != nil {
		d.Reporter.DispatchStart(metrics.OperationListConversations)
	}

	if err := d.prober.EnsureAvailable(); err != nil {
		d.finish(metrics.OperationListConversations, "", err, 0, 0, false)
		return nil, err
	}

	adapterStart := d.clock.Now()
	elements, err := d.scripter.ListElements(d.opts.App, d.opts.ConversationLocator)
	adapterDuration := d.clock.Now().Sub(adapterStart)
	if err != nil {
		err = newError(KindAdapterInteractionFailed, "listing conversations in "+d.opts.App+" failed", err)
		d.finish(metrics.OperationListConversations, "", err, 0, adapterDuration, false)
		return nil, err
	}

	names := make([]string, 0, len(elements))
	for _, el := range elements {
		if el.Name == d.opts.NewChatLabel {
			continue
		}
		names = append(names, el.Name)
	}
	d.finish(metrics.OperationListConversations, "", nil, 0, adapterDuration, false)
	return names, nil
}

// LastDispatch exposes the limiter timestamp for status reporting.
func (d *Dispatcher) LastDispatch() time.Time {
	return d.limiter.LastDispatch()
}

// wait runs the throttle gate and reports the wait to the UI.
func (d *Dispatcher) wait(delayOverride *time.Duration) time.Duration {
	interval := d.limiter.Interval()
	if delayOverride != nil {
		interval = *delayOverride
	}
	if d.Reporter != nil && !d.limiter.LastDispatch().IsZero() {
		if remaining := interval - d.clock.Now().Sub(d.limiter.LastDispatch()); remaining > 0 {
			d.Reporter.ShowWaiting(remaining)
		}
	}
	return d.limiter.Wait(delayOverride)
}

// finish logs and records the outcome of a dispatch.
func (d *Dispatcher) finish(operation, prompt string, dispatchErr error, waited, adapterDuration time.Duration, fallback bool) {
	promptHash := ""
	if prompt != "" {
		promptHash = metrics.HashPrompt(prompt)
	}

	m := metrics.NewDispatchMetric(operation, promptHash, dispatchErr == nil, waited, adapterDuration)
	m.Fallback = fallback
	if dispatchErr != nil {
		m.ErrorKind = KindOf(dispatchErr).String()
	}

	if d.Logger != nil {
		if dispatchErr != nil {
			d.Logger.Error("dispatch failed",
				"operation", operation,
				"error", dispatchErr.Error(),
				"error_kind", m.ErrorKind,
				"wait_seconds", m.WaitSeconds,
				"adapter_seconds", m.AdapterSeconds)
		} else {
			d.Logger.Info("dispatch completed",
				"operation", operation,
				"prompt_hash", promptHash,
				"fallback", fallback,
				"wait_seconds", m.WaitSeconds,
				"adapter_seconds", m.AdapterSeconds)
		}
	}

	if d.Reporter != nil {
		reason := "ok"
		if fallback {
			reason = "fallback reply"
		}
		if dispatchErr != nil {
			reason = m.ErrorKind
		}
		d.Reporter.DispatchOutcome(dispatchErr == nil, reason, waited+adapterDuration)
	}

	if d.Recorder != nil {
		if err := d.Recorder.Record(m); err != nil && d.Logger != nil {
			d.Logger.Warn("failed to record dispatch history", "error", err.Error())
		}
	}
}
