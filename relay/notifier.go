package relay

import "context"

// Notifier delivers routed messages to subscribers. All methods are
// fire-and-forget: implementations drop what they cannot deliver and never
// report delivery results back to the router.
type Notifier interface {
	// Broadcast delivers a text notice to every subscriber of the shared
	// notifications topic.
	Broadcast(ctx context.Context, text string)

	// SendTo delivers a full message to one recipient's private queue.
	SendTo(ctx context.Context, recipient string, msg *Message)

	// SystemNotice delivers a text notice to the system/control topic.
	SystemNotice(ctx context.Context, text string)
}

// HistoryStore is the durable append log of messages. Append failures are
// fatal to the handling call.
type HistoryStore interface {
	Append(ctx context.Context, msg *Message) error
}

// ResponseGenerator turns a prompt into generated text. May fail; failures
// are non-fatal to routing.
type ResponseGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ActionKind selects the device input class for a simulated action.
type ActionKind string

const (
	ActionPointer ActionKind = "pointer"
	ActionKey     ActionKind = "key"
)

// DeviceAutomation performs a simulated input action. Parsing of the action
// string (coordinates, key code) is the implementation's responsibility.
type DeviceAutomation interface {
	Perform(ctx context.Context, kind ActionKind, action string) error
}

// MultiNotifier fans a notification out to several notifiers in order.
// Used to mirror broadcasts into secondary channels (e.g. Telegram) next to
// the in-process subscriber hub.
type MultiNotifier []Notifier

func (m MultiNotifier) Broadcast(ctx context.Context, text string) {
	for _, n := range m {
		n.Broadcast(ctx, text)
	}
}

func (m MultiNotifier) SendTo(ctx context.Context, recipient string, msg *Message) {
	for _, n := range m {
		n.SendTo(ctx, recipient, msg)
	}
}

func (m MultiNotifier) SystemNotice(ctx context.Context, text string) {
	for _, n := range m {
		n.SystemNotice(ctx, text)
	}
}
