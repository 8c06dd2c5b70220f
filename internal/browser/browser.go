package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Config holds browser configuration.
type Config struct {
	Headless    bool
	ChromePath  string
	UserDataDir string
	Timeout     time.Duration
}

// Controller manages a headless Chrome/Chromium instance used to render
// event listings that are built client-side.
type Controller struct {
	cfg         Config
	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// New creates a browser controller. Chrome is launched lazily on first use.
func New(cfg Config) *Controller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Controller{cfg: cfg}
}

// Start launches Chrome/Chromium.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allocCtx != nil {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if c.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ChromePath))
	}
	if c.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.cfg.UserDataDir))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)

	// Trigger start by creating a context
	runCtx, _ := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(runCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}
	c.allocCtx = allocCtx
	c.allocCancel = cancel
	return nil
}

// Stop gracefully shuts down Chrome.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.allocCancel != nil {
		c.allocCancel()
	}
	c.allocCtx = nil
	c.allocCancel = nil
}

// Fetch navigates to pageURL, waits for the body and returns the rendered
// document HTML.
func (c *Controller) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := c.Start(context.Background()); err != nil {
		return "", err
	}
	c.mu.Lock()
	allocCtx := c.allocCtx
	c.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.Timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("navigate failed: %w", err)
	}
	return html, nil
}
