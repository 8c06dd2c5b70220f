package onboarding

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"frieddie/internal/middleware"
)

// Wizard is the line-oriented setup used when no terminal UI is available
// (setup --plain, piped stdin).
type Wizard struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// Run asks every question in order and returns the resulting config.
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "\n🚀 Welcome to Frieddie setup!")
	fmt.Fprintln(w.out, "Let's connect the assistant to a model and to your frieddies.")
	fmt.Fprintln(w.out, strings.Repeat("-", 40))

	cfg := &Config{}

	fmt.Fprintln(w.out, "\n[1/3] Model")
	if err := w.askProvider(cfg); err != nil {
		return nil, err
	}
	w.askAPIKey(cfg)
	w.askModel(cfg)
	w.askBaseURL(cfg)

	fmt.Fprintln(w.out, "\n[2/3] Frieddie backend")
	cfg.BackendURL = w.ask("GraphQL endpoint URL: ", "")
	cfg.BackendAPIKey = w.ask("Backend API key (x-api-key): ", "")
	cfg.EventsURL = w.ask("Events source URL (optional): ", "")
	if cfg.EventsURL != "" {
		cfg.EventsFormat = w.ask("Events format json/html/browser (default: json): ", "json")
	}
	cfg.ResourceID = w.ask("Default resource ID for invitations (optional): ", "")

	fmt.Fprintln(w.out, "\n[3/3] Middlewares")
	cfg.Middlewares = w.askMiddlewares()

	w.summarize(cfg)
	return cfg, nil
}

func (w *Wizard) askProvider(cfg *Config) error {
	fmt.Fprintln(w.out, "Select LLM Provider:")
	for i, p := range providerChoices {
		fmt.Fprintf(w.out, "%d) %s - %s\n", i+1, p.title, p.desc)
	}

	for {
		fmt.Fprint(w.out, "Choice (default: 1): ")
		if !w.scanner.Scan() {
			if err := w.scanner.Err(); err != nil {
				return err
			}
			return io.ErrUnexpectedEOF
		}
		input := strings.TrimSpace(w.scanner.Text())
		if input == "" {
			input = "1"
		}
		var n int
		if _, err := fmt.Sscanf(input, "%d", &n); err == nil && n >= 1 && n <= len(providerChoices) {
			cfg.Provider = providerChoices[n-1].title
			return nil
		}
		fmt.Fprintf(w.out, "❌ Invalid choice. Please select 1-%d.\n", len(providerChoices))
	}
}

func (w *Wizard) askAPIKey(cfg *Config) {
	if !needsAPIKey(cfg.Provider) {
		return
	}
	cfg.ModelAPIKey = w.ask("Enter API Key (or leave empty if set in FRIEDDIE_MODEL_API_KEY): ", "")
}

func (w *Wizard) askModel(cfg *Config) {
	def := defaultModels(cfg.Provider)[0].title
	cfg.Model = w.ask(fmt.Sprintf("Enter Model Name (default: %s): ", def), def)
}

func (w *Wizard) askBaseURL(cfg *Config) {
	if cfg.Provider != "ollama" {
		return
	}
	cfg.BaseURL = w.ask("Enter Base URL (default: http://localhost:11434): ", "http://localhost:11434")
}

func (w *Wizard) askMiddlewares() []MiddlewareSetting {
	var settings []MiddlewareSetting
	for _, mw := range middleware.Registered() {
		answer := w.ask(fmt.Sprintf("Enable %s? (Y/n): ", mw.ID()), "y")
		settings = append(settings, MiddlewareSetting{
			ID:      mw.ID(),
			Enabled: isYes(answer),
		})
	}
	return settings
}

func (w *Wizard) ask(prompt, def string) string {
	fmt.Fprint(w.out, prompt)
	if !w.scanner.Scan() {
		return def
	}
	input := strings.TrimSpace(w.scanner.Text())
	if input == "" {
		return def
	}
	return input
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func (w *Wizard) summarize(cfg *Config) {
	fmt.Fprintln(w.out, "\n"+strings.Repeat("=", 40))
	fmt.Fprintln(w.out, "Setup Summary:")
	fmt.Fprintf(w.out, "Provider: %s\n", cfg.Provider)
	fmt.Fprintf(w.out, "Model:    %s\n", cfg.Model)
	if cfg.BaseURL != "" {
		fmt.Fprintf(w.out, "URL:      %s\n", cfg.BaseURL)
	}
	if cfg.BackendURL != "" {
		fmt.Fprintf(w.out, "Backend:  %s\n", cfg.BackendURL)
	}
	fmt.Fprintln(w.out, strings.Repeat("=", 40))
}
