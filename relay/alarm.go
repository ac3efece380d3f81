package relay

import (
	"context"
	"log/slog"

	"github.com/hrygo/chatrelay/relay/metrics"
)

// AlarmHandler forces the controller into supervised mode when an external
// alarm fires, e.g. an agent watchdog timing out. The transition is
// observable by the next Handle call.
type AlarmHandler struct {
	modes     *ModeController
	collector *metrics.Collector
}

// NewAlarmHandler creates an alarm handler. collector may be nil.
func NewAlarmHandler(modes *ModeController, collector *metrics.Collector) *AlarmHandler {
	return &AlarmHandler{modes: modes, collector: collector}
}

// OnAlarm switches the system into supervised mode. agentID identifies the
// agent whose alarm fired; it is recorded for auditing only.
func (h *AlarmHandler) OnAlarm(ctx context.Context, agentID string) {
	slog.Warn("alarm_received", "agent_id", agentID, "forced_mode", ModeSupervised.String())
	h.modes.ForceSupervised()
	if h.collector != nil {
		h.collector.CountAlarm()
	}
}
