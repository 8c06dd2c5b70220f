package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"frieddie/internal/backend"
	"frieddie/internal/browser"
	"frieddie/internal/chat"
	"frieddie/internal/events"
	"frieddie/internal/functions"
	"frieddie/internal/llm"
	"frieddie/internal/middleware"
	_ "frieddie/middlewares/autoload" // Auto-load all middlewares
)

// DefaultDebugLogPath receives one JSONL entry per middleware decision.
var DefaultDebugLogPath = filepath.Join("bin", "middleware.debug.jsonl")

type Gateway struct {
	ConfigPath   string
	DebugLogPath string
	Logger       *log.Logger
}

func New(configPath string) *Gateway {
	return &Gateway{
		ConfigPath:   configPath,
		DebugLogPath: DefaultDebugLogPath,
		Logger:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Runtime is a fully wired assistant. Front ends share one Service and own
// their transcripts.
type Runtime struct {
	Service   *chat.Service
	Functions *functions.Registry
	Settings  Settings

	closers []func()
}

func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Start resolves settings and builds the runtime.
func (g *Gateway) Start(ctx context.Context) (*Runtime, error) {
	s, err := LoadSettings(g.ConfigPath)
	if err != nil {
		return nil, err
	}
	return g.Build(ctx, s)
}

func (g *Gateway) Build(_ context.Context, s Settings) (*Runtime, error) {
	logger := g.logger()
	rt := &Runtime{Settings: s}

	adapter, err := llm.NewAdapter(llm.Options{
		Provider: s.Provider,
		Model:    s.Model,
		BaseURL:  s.BaseURL,
		APIKey:   s.ModelAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize adapter: %w", err)
	}

	registry := functions.NewRegistry()
	registry.SetLogger(logger)
	if err := g.registerFunctions(rt, registry, s); err != nil {
		rt.Close()
		return nil, err
	}
	rt.Functions = registry

	opts := []chat.ServiceOption{
		chat.WithMaxDepth(s.MaxDepth),
		chat.WithMaxTokens(s.MaxTokens),
		chat.WithTokenBudget(s.TokenBudget),
		chat.WithCallTimeout(s.CallTimeout),
		chat.WithLogger(logger),
	}
	if chain := middleware.NewChainFromRegistry(g.debugWriter(rt)); chain != nil {
		opts = append(opts, chat.WithMiddlewareChain(chain))
	}

	rt.Service = chat.NewService(adapter, registry, opts...)
	logger.Printf("[Gateway] provider=%s model=%s functions=%d", s.Provider, s.Model, len(registry.List()))
	return rt, nil
}

func (g *Gateway) registerFunctions(rt *Runtime, r *functions.Registry, s Settings) error {
	logger := g.logger()

	if s.EventsURL != "" {
		src, err := g.eventsSource(rt, s)
		if err != nil {
			return err
		}
		if err := r.Register(&functions.GetEvents{Source: src}); err != nil {
			return err
		}
	} else {
		logger.Printf("[Gateway] warning: FRIEDDIE_EVENTS_URL not set, get_events disabled")
	}

	if s.BackendURL != "" {
		client, err := backend.New(backend.Config{
			URL:     s.BackendURL,
			APIKey:  s.BackendAPIKey,
			Timeout: s.CallTimeout,
		})
		if err != nil {
			return err
		}
		if err := r.Register(&functions.GetFrieddies{Backend: client}); err != nil {
			return err
		}
		if err := r.Register(&functions.InviteFrieddie{Backend: client, DefaultResourceID: s.ResourceID}); err != nil {
			return err
		}
	} else {
		logger.Printf("[Gateway] warning: FRIEDDIE_API_URL not set, frieddie functions disabled")
	}
	return nil
}

func (g *Gateway) eventsSource(rt *Runtime, s Settings) (events.Source, error) {
	httpClient := &http.Client{Timeout: s.CallTimeout}

	var src events.Source
	switch s.EventsFormat {
	case EventsFormatJSON, "":
		src = events.NewAPISource(s.EventsURL, httpClient)
	case EventsFormatHTML:
		src = events.NewPageSource(s.EventsURL, &events.HTTPFetcher{Client: httpClient})
	case EventsFormatBrowser:
		ctrl := browser.New(browser.Config{Headless: true, Timeout: s.CallTimeout})
		rt.closers = append(rt.closers, ctrl.Stop)
		src = events.NewPageSource(s.EventsURL, ctrl)
	default:
		return nil, fmt.Errorf("unknown events format %q", s.EventsFormat)
	}
	return events.NewCachedSource(src, 0), nil
}

func (g *Gateway) debugWriter(rt *Runtime) io.Writer {
	if g.DebugLogPath == "" {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(g.DebugLogPath), 0o755)
	logFile, err := os.OpenFile(g.DebugLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open middleware log file (%s): %v\n", g.DebugLogPath, err)
		return nil
	}
	rt.closers = append(rt.closers, func() { _ = logFile.Close() })
	return logFile
}

func (g *Gateway) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return g.Logger
}
