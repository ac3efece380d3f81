package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Generator configuration. Provider selects the backend: "openai"
	// (OpenAI-compatible protocol) or "gemini" (Google GenAI).
	AIProvider        string
	AIAPIKey          string
	AIBaseURL         string
	AIModel           string
	AIMaxOutputTokens int     // default: 8192
	AITemperature     float32 // default: 1.0
	AITopP            float32 // default: 0.95
	AISafetyThreshold string  // none, low, medium, high (gemini only)
	AITimeout         int     // generation timeout in seconds (default: 60)
	AIMaxConcurrent   int     // concurrent generation bound (default: 4)

	// AgentSender is the sender identity treated as the automated
	// participant whose messages are augmented.
	AgentSender string

	// Telegram broadcast mirror (optional).
	TelegramBotToken string
	TelegramChatID   int64

	// Device automation over CDP (optional).
	AutomationControlURL string
	AutomationEnabled    bool

	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string
	DSN     string
	Version string

	AIEnabled bool
}

// Provider default configurations for the generator.
var aiProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"gemini": {
		// The GenAI SDK resolves its own endpoint; BaseURL stays empty.
		Model: "gemini-1.5-flash-001",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if augmentation is enabled and an API key is
// configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultFloat returns environment variable value as float32 or default value.
func getEnvOrDefaultFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.AIProvider = getEnvOrDefault("CHATRELAY_AI_PROVIDER", "openai")
	p.AIAPIKey = getEnvOrDefault("CHATRELAY_AI_API_KEY", "")
	p.AIBaseURL = getEnvOrDefault("CHATRELAY_AI_BASE_URL", "")
	p.AIModel = getEnvOrDefault("CHATRELAY_AI_MODEL", "")
	p.AIMaxOutputTokens = getEnvOrDefaultInt("CHATRELAY_AI_MAX_OUTPUT_TOKENS", 8192)
	p.AITemperature = getEnvOrDefaultFloat("CHATRELAY_AI_TEMPERATURE", 1.0)
	p.AITopP = getEnvOrDefaultFloat("CHATRELAY_AI_TOP_P", 0.95)
	p.AISafetyThreshold = getEnvOrDefault("CHATRELAY_AI_SAFETY_THRESHOLD", "medium")
	p.AITimeout = getEnvOrDefaultInt("CHATRELAY_AI_TIMEOUT_SECONDS", 60)
	p.AIMaxConcurrent = getEnvOrDefaultInt("CHATRELAY_AI_MAX_CONCURRENT", 4)
	p.AIEnabled = p.AIAPIKey != ""

	p.AgentSender = getEnvOrDefault("CHATRELAY_AGENT_SENDER", "AI")

	p.TelegramBotToken = getEnvOrDefault("CHATRELAY_TELEGRAM_BOT_TOKEN", "")
	if chatID := os.Getenv("CHATRELAY_TELEGRAM_CHAT_ID"); chatID != "" {
		if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			p.TelegramChatID = id
		} else {
			slog.Warn("invalid telegram chat id, mirror disabled", "value", chatID)
		}
	}

	p.AutomationControlURL = getEnvOrDefault("CHATRELAY_AUTOMATION_CONTROL_URL", "")
	p.AutomationEnabled = getEnvOrDefault("CHATRELAY_AUTOMATION_ENABLED", "false") == "true"

	// Apply provider defaults when not explicitly set.
	if _, ok := aiProviderDefaults[p.AIProvider]; !ok {
		slog.Warn("unknown AI provider, using default: openai", "provider", p.AIProvider)
		p.AIProvider = "openai"
	}
	if defaults, ok := aiProviderDefaults[p.AIProvider]; ok {
		if p.AIBaseURL == "" {
			p.AIBaseURL = defaults.BaseURL
		}
		if p.AIModel == "" {
			p.AIModel = defaults.Model
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("chatrelay_%s.db", p.Mode)
		p.DSN = filepath.Join(p.Data, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	return nil
}
