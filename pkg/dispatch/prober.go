package dispatch

import (
	"time"

	"github.com/chatbridge/chatbridge/pkg/automation"
)

// DefaultActivateSettleDelay gives a freshly launched application time to
// draw its window before the first interaction.
const DefaultActivateSettleDelay = 2 * time.Second

// Prober verifies that the target application is running before a dispatch,
// activating it when it is not. It keeps no memory of prior success: the app
// may be closed between calls, so every dispatch re-probes.
type Prober struct {
	scripter automation.Scripter
	clock    Clock
	app      string
	settle   time.Duration
}

// NewProber creates a prober for the named application.
func NewProber(scripter automation.Scripter, app string, settle time.Duration, clock Clock) *Prober {
	if settle <= 0 {
		settle = DefaultActivateSettleDelay
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Prober{
		scripter: scripter,
		clock:    clock,
		app:      app,
		settle:   settle,
	}
}

// EnsureAvailable checks that the application process exists, launching and
// activating it if absent. After an activation it sleeps the settle delay and
// proceeds optimistically without re-checking. A failing existence query or
// activation is classified KindAdapterUnreachable.
func (p *Prober) EnsureAvailable() error {
	running, err := p.scripter.ProcessExists(p.app)
	if err != nil {
		return newError(KindAdapterUnreachable, "cannot confirm "+p.app+" is running", err)
	}
	if running {
		return nil
	}

	if err := p.scripter.Activate(p.app); err != nil {
		return newError(KindAdapterUnreachable, "cannot launch "+p.app, err)
	}
	p.clock.Sleep(p.settle)
	return nil
}
