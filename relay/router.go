package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrelay/relay/metrics"
)

const (
	// defaultAgentSender is the sender identity that marks a message as
	// coming from the automated participant and triggers augmentation.
	defaultAgentSender = "AI"

	defaultGenerateTimeout   = 60 * time.Second
	defaultAutomationTimeout = 10 * time.Second
)

// systemNoticeModeRestored is emitted when a re-evaluation pulse switches
// the controller back to autonomous operation.
const systemNoticeModeRestored = "mode restored"

// Router consumes inbound messages, persists them, and fans them out
// according to the mode snapshot taken at dispatch time. Persistence and
// routing are the load-bearing guarantees; augmentation (AI rewrite, device
// actions) is best-effort and never prevents a message from being routed.
type Router struct {
	modes      *ModeController
	history    HistoryStore
	notifier   Notifier
	generator  ResponseGenerator
	automation DeviceAutomation
	collector  *metrics.Collector

	agentSender       string
	generateTimeout   time.Duration
	automationTimeout time.Duration
}

// RouterOption customizes a Router.
type RouterOption func(*Router)

// WithGenerator enables AI augmentation for messages sent by the agent
// identity.
func WithGenerator(g ResponseGenerator) RouterOption {
	return func(r *Router) { r.generator = g }
}

// WithAutomation enables forwarding of embedded device-action directives.
func WithAutomation(a DeviceAutomation) RouterOption {
	return func(r *Router) { r.automation = a }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) RouterOption {
	return func(r *Router) { r.collector = c }
}

// WithAgentSender overrides the sender identity treated as the automated
// participant.
func WithAgentSender(sender string) RouterOption {
	return func(r *Router) {
		if sender != "" {
			r.agentSender = sender
		}
	}
}

// WithGenerateTimeout bounds each ResponseGenerator call.
func WithGenerateTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.generateTimeout = d
		}
	}
}

// WithAutomationTimeout bounds each DeviceAutomation call.
func WithAutomationTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.automationTimeout = d
		}
	}
}

// NewRouter creates a message router. modes, history and notifier are
// required; generator and automation are optional collaborators.
func NewRouter(modes *ModeController, history HistoryStore, notifier Notifier, opts ...RouterOption) *Router {
	r := &Router{
		modes:             modes,
		history:           history,
		notifier:          notifier,
		agentSender:       defaultAgentSender,
		generateTimeout:   defaultGenerateTimeout,
		automationTimeout: defaultAutomationTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle routes one inbound message:
//
//  1. append the pre-augmentation message to the history store (fatal on error),
//  2. snapshot the active mode,
//  3. dispatch by mode (broadcast / private delivery / re-evaluation pulse),
//  4. augment agent messages through the response generator (best-effort),
//  5. forward embedded device-action directives (best-effort),
//
// and returns the possibly content-rewritten message. The mode is read once;
// a transition racing in mid-call does not change this call's dispatch.
func (r *Router) Handle(ctx context.Context, msg Message) (Message, error) {
	start := time.Now()
	msg.normalize()

	stored := msg
	if err := r.history.Append(ctx, &stored); err != nil {
		return Message{}, errors.Wrap(err, "failed to append message to history")
	}

	mode := r.modes.Current()
	switch mode {
	case ModeAutonomous:
		r.notifier.Broadcast(ctx, "New message: "+msg.Content)
	case ModeSupervised:
		if msg.Recipient == "" {
			return Message{}, errors.Wrapf(ErrMissingRecipient, "supervised dispatch of message %s", msg.UID)
		}
		delivered := msg
		r.notifier.SendTo(ctx, msg.Recipient, &delivered)
	case ModeReEvaluate:
		// Pulse semantics: revert to autonomous within the same handling
		// step and announce it. The message itself is not otherwise routed.
		r.modes.Transition(ModeAutonomous)
		r.notifier.SystemNotice(ctx, systemNoticeModeRestored)
	}

	if r.generator != nil && msg.Sender == r.agentSender {
		msg.Content = r.augment(ctx, msg)
	}

	if r.automation != nil {
		if kind, action, ok := parseDirective(msg.Content); ok {
			r.performAction(ctx, msg.UID, kind, action)
		}
	}

	if r.collector != nil {
		r.collector.ObserveHandled(mode.String(), time.Since(start))
	}
	return msg, nil
}

// HandlePrivate bypasses mode dispatch and always delivers to the message's
// recipient. It does not persist or augment.
func (r *Router) HandlePrivate(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return errors.Wrap(ErrMissingRecipient, "private dispatch")
	}
	msg.normalize()
	r.notifier.SendTo(ctx, msg.Recipient, &msg)
	return nil
}

// augment asks the response generator to rewrite the message content. On
// failure the original content is preserved and the call still succeeds.
func (r *Router) augment(ctx context.Context, msg Message) string {
	genCtx, cancel := context.WithTimeout(ctx, r.generateTimeout)
	defer cancel()

	generated, err := r.generator.Generate(genCtx, msg.Content)
	if err != nil {
		slog.Warn("message_augmentation_failed",
			"uid", msg.UID,
			"sender", msg.Sender,
			"error", err)
		if r.collector != nil {
			r.collector.CountGenerationFailure()
		}
		return msg.Content
	}
	return generated
}

// performAction forwards a parsed device directive. Failures are isolated
// from routing and surfaced through logs and metrics only.
func (r *Router) performAction(ctx context.Context, uid string, kind ActionKind, action string) {
	actCtx, cancel := context.WithTimeout(ctx, r.automationTimeout)
	defer cancel()

	if err := r.automation.Perform(actCtx, kind, action); err != nil {
		slog.Warn("device_action_failed",
			"uid", uid,
			"kind", string(kind),
			"action", action,
			"error", err)
		if r.collector != nil {
			r.collector.CountAutomationFailure()
		}
	}
}
