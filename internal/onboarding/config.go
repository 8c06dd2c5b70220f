package onboarding

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath is where the setup wizard writes its result.
const DefaultPath = "~/.frieddie/config.json"

// Config represents the settings gathered during onboarding. Environment
// variables override every field at startup.
type Config struct {
	Provider      string              `json:"provider"`
	Model         string              `json:"model"`
	BaseURL       string              `json:"base_url,omitempty"`
	ModelAPIKey   string              `json:"model_api_key,omitempty"`
	BackendURL    string              `json:"backend_url,omitempty"`
	BackendAPIKey string              `json:"backend_api_key,omitempty"`
	EventsURL     string              `json:"events_url,omitempty"`
	EventsFormat  string              `json:"events_format,omitempty"`
	ResourceID    string              `json:"resource_id,omitempty"`
	MaxTokens     int                 `json:"max_tokens,omitempty"`
	MaxDepth      int                 `json:"max_depth,omitempty"`
	CallTimeout   string              `json:"call_timeout,omitempty"`
	TelegramToken string              `json:"telegram_token,omitempty"`
	Middlewares   []MiddlewareSetting `json:"middlewares,omitempty"`
}

// MiddlewareSetting holds the user's choice for a specific middleware
type MiddlewareSetting struct {
	ID      string            `json:"id"`
	Enabled bool              `json:"enabled"`
	EnvVars map[string]string `json:"env_vars,omitempty"`
}

// DisabledMiddlewares returns the IDs switched off in the config.
func (cfg *Config) DisabledMiddlewares() []string {
	var out []string
	for _, m := range cfg.Middlewares {
		if !m.Enabled {
			out = append(out, m.ID)
		}
	}
	return out
}

// LoadFromFile loads the configuration from a JSON file
func LoadFromFile(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) SaveToFile(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// keys live in here
	return os.WriteFile(path, data, 0o600)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[2:]), nil
}
