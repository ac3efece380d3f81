package relay

import (
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// Message is the unit routed and stored. Once persisted a message is
// immutable; the router may return a copy with rewritten Content (AI
// augmentation) but the stored row always reflects the pre-augmentation
// content. Sender and Recipient are never rewritten.
type Message struct {
	UID       string `json:"uid"`
	Content   string `json:"content"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient,omitempty"`
	CreatedTs int64  `json:"createdTs"`
	// ModeHint is an advisory tag from the caller. The authoritative mode
	// always comes from the ModeController, never from the message.
	ModeHint string `json:"modeHint,omitempty"`
}

// normalize assigns a UID and creation timestamp when the caller left them
// empty.
func (m *Message) normalize() {
	if m.UID == "" {
		m.UID = shortuuid.New()
	}
	if m.CreatedTs == 0 {
		m.CreatedTs = time.Now().Unix()
	}
}
