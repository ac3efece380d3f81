package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/chatrelay/ai"
	aigemini "github.com/hrygo/chatrelay/ai/gemini"
	aiopenai "github.com/hrygo/chatrelay/ai/openai"
	"github.com/hrygo/chatrelay/internal/profile"
	"github.com/hrygo/chatrelay/plugin/automation"
	"github.com/hrygo/chatrelay/plugin/channels/telegram"
	"github.com/hrygo/chatrelay/relay"
	"github.com/hrygo/chatrelay/relay/metrics"
	"github.com/hrygo/chatrelay/server/ws"
	"github.com/hrygo/chatrelay/store"
)

type APIV1Service struct {
	// Domain Services
	ChatService *ChatService
	ModeService *ModeService

	// Shared Infra
	Profile   *profile.Profile
	Store     *store.Store
	Hub       *ws.Hub
	Collector *metrics.Collector
	Modes     *relay.ModeController
	Router    *relay.Router
	Alarms    *relay.AlarmHandler
}

func NewAPIV1Service(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store, collector *metrics.Collector) *APIV1Service {
	hub := ws.NewHub(collector)
	modes := relay.NewModeController()

	notifier := buildNotifier(instanceProfile, hub)

	opts := []relay.RouterOption{
		relay.WithCollector(collector),
		relay.WithAgentSender(instanceProfile.AgentSender),
		relay.WithGenerateTimeout(time.Duration(instanceProfile.AITimeout) * time.Second),
	}
	if generator := buildGenerator(ctx, instanceProfile); generator != nil {
		opts = append(opts, relay.WithGenerator(generator))
	}
	if instanceProfile.AutomationEnabled && instanceProfile.AutomationControlURL != "" {
		opts = append(opts, relay.WithAutomation(automation.NewController(instanceProfile.AutomationControlURL)))
		slog.Info("device_automation_enabled", "control_url", instanceProfile.AutomationControlURL)
	}

	history := &historyStore{store: storeInstance}
	router := relay.NewRouter(modes, history, notifier, opts...)

	service := &APIV1Service{
		Profile:   instanceProfile,
		Store:     storeInstance,
		Hub:       hub,
		Collector: collector,
		Modes:     modes,
		Router:    router,
		Alarms:    relay.NewAlarmHandler(modes, collector),
	}
	service.ChatService = &ChatService{
		Router: router,
		Alarms: service.Alarms,
		Store:  storeInstance,
	}
	service.ModeService = &ModeService{Modes: modes}
	return service
}

// buildNotifier assembles the delivery fan-out: the websocket hub always,
// plus the Telegram mirror when a bot token is configured.
func buildNotifier(instanceProfile *profile.Profile, hub *ws.Hub) relay.Notifier {
	if instanceProfile.TelegramBotToken == "" {
		return hub
	}
	mirror, err := telegram.NewMirror(&telegram.MirrorConfig{
		BotToken: instanceProfile.TelegramBotToken,
		ChatID:   instanceProfile.TelegramChatID,
	})
	if err != nil {
		slog.Warn("telegram_mirror_disabled", "error", err)
		return hub
	}
	slog.Info("telegram_mirror_enabled", "chat_id", instanceProfile.TelegramChatID)
	return relay.MultiNotifier{hub, mirror}
}

// buildGenerator initializes the configured augmentation provider. A nil
// return means augmentation is disabled; the relay works without it.
func buildGenerator(ctx context.Context, instanceProfile *profile.Profile) relay.ResponseGenerator {
	if !instanceProfile.IsAIEnabled() {
		slog.Info("augmentation_disabled", "enabled", instanceProfile.IsAIEnabled())
		return nil
	}
	config := ai.NewConfigFromProfile(instanceProfile)
	if err := config.Validate(); err != nil {
		slog.Warn("augmentation_config_invalid", "error", err)
		return nil
	}

	var (
		generator ai.Generator
		err       error
	)
	switch config.Provider {
	case "gemini":
		generator, err = aigemini.NewGenerator(ctx, config)
	default:
		generator, err = aiopenai.NewGenerator(config)
	}
	if err != nil {
		slog.Warn("augmentation_init_failed", "provider", config.Provider, "error", err)
		return nil
	}
	slog.Info("augmentation_enabled", "provider", config.Provider, "model", config.Model)
	return ai.NewBounded(generator, int64(instanceProfile.AIMaxConcurrent))
}

// RegisterRoutes registers the REST and websocket endpoints with the given
// Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	apiGroup := echoServer.Group("/api/v1")
	apiGroup.Use(middleware.CORS())

	apiGroup.POST("/chat", s.ChatService.PostChat)
	apiGroup.POST("/chat/private", s.ChatService.PostPrivateChat)
	apiGroup.POST("/alarm", s.ChatService.PostAlarm)
	apiGroup.GET("/history", s.ChatService.GetHistory)
	apiGroup.GET("/mode", s.ModeService.GetMode)
	apiGroup.PUT("/mode", s.ModeService.PutMode)

	echoServer.GET("/api/v1/ws", func(c echo.Context) error {
		participant := c.QueryParam("participant")
		if err := s.Hub.Subscribe(c.Response(), c.Request(), participant); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return nil
	})
}
