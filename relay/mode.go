// Package relay implements the mode-driven message router at the heart of
// ChatRelay: a single process-wide operating mode decides whether an inbound
// message is broadcast to all subscribers, delivered to one supervised
// recipient, or used to pulse the state machine back to autonomous operation.
package relay

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

// Mode is the system-wide routing policy in effect.
type Mode int32

const (
	// ModeAutonomous broadcasts a notice for every inbound message. Initial mode.
	ModeAutonomous Mode = iota
	// ModeSupervised routes each message to its named recipient's private queue.
	ModeSupervised
	// ModeReEvaluate is a transient pulse: the next handled message switches
	// the controller back to ModeAutonomous and emits a system notice.
	ModeReEvaluate
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAutonomous:
		return "autonomous"
	case ModeSupervised:
		return "supervised"
	case ModeReEvaluate:
		return "reevaluate"
	default:
		return "unknown"
	}
}

// IsValid checks if the mode is a known variant.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAutonomous, ModeSupervised, ModeReEvaluate:
		return true
	default:
		return false
	}
}

// ParseMode parses a wire name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "autonomous":
		return ModeAutonomous, nil
	case "supervised":
		return ModeSupervised, nil
	case "reevaluate":
		return ModeReEvaluate, nil
	default:
		return ModeAutonomous, errors.Errorf("unknown mode: %q", s)
	}
}

// ModeController owns the single mutable mode value. All reads and writes go
// through the mutex so concurrent handlers always observe a value that was
// valid at some point; a transition racing a Handle call does not change that
// call's routing decision, which is made against one snapshot.
type ModeController struct {
	mu   sync.RWMutex
	mode Mode
}

// NewModeController creates a controller starting in ModeAutonomous.
func NewModeController() *ModeController {
	return &ModeController{mode: ModeAutonomous}
}

// Current returns the mode visible at call time.
func (c *ModeController) Current() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Transition sets the active mode unconditionally. Notifying subscribers of
// the change is the caller's responsibility.
func (c *ModeController) Transition(target Mode) {
	c.mu.Lock()
	prev := c.mode
	c.mode = target
	c.mu.Unlock()

	if prev != target {
		slog.Info("mode_transition", "from", prev.String(), "to", target.String())
	}
}

// ForceSupervised is the alarm path: equivalent to Transition(ModeSupervised).
func (c *ModeController) ForceSupervised() {
	c.Transition(ModeSupervised)
}
