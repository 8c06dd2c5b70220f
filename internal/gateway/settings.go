package gateway

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"frieddie/internal/chat"
	"frieddie/internal/llm"
	"frieddie/internal/onboarding"

	"github.com/joho/godotenv"
)

const (
	EventsFormatJSON    = "json"
	EventsFormatHTML    = "html"
	EventsFormatBrowser = "browser"
)

// Settings is the resolved runtime configuration: defaults, then the
// config file, then the environment.
type Settings struct {
	Provider    llm.Provider
	Model       string
	BaseURL     string
	ModelAPIKey string

	BackendURL    string
	BackendAPIKey string
	EventsURL     string
	EventsFormat  string
	ResourceID    string

	MaxTokens   int
	MaxDepth    int
	CallTimeout time.Duration

	// TokenBudget is the default token_budget middleware context for every
	// turn. Zero leaves MaxTokens alone.
	TokenBudget int

	TelegramToken string
}

func DefaultSettings() Settings {
	return Settings{
		Provider:     llm.ProviderOpenAI,
		Model:        llm.DefaultModel,
		EventsFormat: EventsFormatJSON,
		MaxTokens:    chat.DefaultMaxTokens,
		MaxDepth:     chat.DefaultMaxDepth,
		CallTimeout:  chat.DefaultCallTimeout,
	}
}

// LoadSettings reads .env, the optional config file at configPath and the
// FRIEDDIE_* environment. A missing config file is not an error.
func LoadSettings(configPath string) (Settings, error) {
	// Load environment variables from .env if present
	_ = godotenv.Load()

	s := DefaultSettings()
	if configPath != "" {
		cfg, err := onboarding.LoadFromFile(configPath)
		switch {
		case err == nil:
			if err := s.applyFile(cfg); err != nil {
				return s, fmt.Errorf("config %s: %w", configPath, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return s, fmt.Errorf("config %s: %w", configPath, err)
		}
	}
	if err := s.applyEnv(); err != nil {
		return s, err
	}
	if s.EventsFormat != EventsFormatJSON && s.EventsFormat != EventsFormatHTML && s.EventsFormat != EventsFormatBrowser {
		return s, fmt.Errorf("unknown events format %q", s.EventsFormat)
	}
	return s, nil
}

func (s *Settings) applyFile(cfg *onboarding.Config) error {
	setString(&s.Model, cfg.Model)
	if cfg.Provider != "" {
		s.Provider = llm.Provider(cfg.Provider)
	}
	setString(&s.BaseURL, cfg.BaseURL)
	setString(&s.ModelAPIKey, cfg.ModelAPIKey)
	setString(&s.BackendURL, cfg.BackendURL)
	setString(&s.BackendAPIKey, cfg.BackendAPIKey)
	setString(&s.EventsURL, cfg.EventsURL)
	setString(&s.EventsFormat, cfg.EventsFormat)
	setString(&s.ResourceID, cfg.ResourceID)
	setString(&s.TelegramToken, cfg.TelegramToken)
	if cfg.MaxTokens > 0 {
		s.MaxTokens = cfg.MaxTokens
	}
	if cfg.MaxDepth > 0 {
		s.MaxDepth = cfg.MaxDepth
	}
	if cfg.CallTimeout != "" {
		d, err := time.ParseDuration(cfg.CallTimeout)
		if err != nil {
			return fmt.Errorf("call_timeout: %w", err)
		}
		s.CallTimeout = d
	}

	// Middleware settings travel through the environment, where the
	// registry and the middlewares read them.
	for _, m := range cfg.Middlewares {
		for k, v := range m.EnvVars {
			if v != "" && os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}
	if disabled := cfg.DisabledMiddlewares(); len(disabled) > 0 && os.Getenv("FRIEDDIE_DISABLED_MIDDLEWARES") == "" {
		os.Setenv("FRIEDDIE_DISABLED_MIDDLEWARES", strings.Join(disabled, ","))
	}
	return nil
}

// Environment variables override config file
func (s *Settings) applyEnv() error {
	if p := os.Getenv("FRIEDDIE_PROVIDER"); p != "" {
		s.Provider = llm.Provider(p)
	}
	setString(&s.Model, os.Getenv("FRIEDDIE_MODEL"))
	setString(&s.BaseURL, os.Getenv("FRIEDDIE_BASE_URL"))
	setString(&s.ModelAPIKey, os.Getenv("FRIEDDIE_MODEL_API_KEY"))
	setString(&s.BackendURL, os.Getenv("FRIEDDIE_API_URL"))
	setString(&s.BackendAPIKey, os.Getenv("FRIEDDIE_API_KEY"))
	setString(&s.EventsURL, os.Getenv("FRIEDDIE_EVENTS_URL"))
	setString(&s.EventsFormat, strings.ToLower(os.Getenv("FRIEDDIE_EVENTS_FORMAT")))
	setString(&s.ResourceID, os.Getenv("FRIEDDIE_RESOURCE_ID"))
	setString(&s.TelegramToken, os.Getenv("TELEGRAM_BOT_TOKEN"))

	if err := setInt(&s.MaxTokens, "FRIEDDIE_MAX_TOKENS"); err != nil {
		return err
	}
	if err := setInt(&s.MaxDepth, "FRIEDDIE_MAX_DEPTH"); err != nil {
		return err
	}
	if err := setInt(&s.TokenBudget, "FRIEDDIE_TOKEN_BUDGET"); err != nil {
		return err
	}
	if v := os.Getenv("FRIEDDIE_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("FRIEDDIE_CALL_TIMEOUT: invalid duration %q", v)
		}
		s.CallTimeout = d
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	*dst = n
	return nil
}
