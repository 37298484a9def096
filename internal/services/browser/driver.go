// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// Driver implements the BrowserDriver interface with chromedp. One exec
// allocator (one Chrome process) is shared across pages; each NewPage opens
// an isolated browser context sized to its viewport, torn down by Close.
type Driver struct {
	config          *common.BrowserConfig
	logger          arbor.ILogger
	mu              sync.Mutex
	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc
	initialized     bool
}

// NewDriver creates a chromedp browser driver. Chrome is launched lazily on
// the first NewPage call.
func NewDriver(config *common.BrowserConfig, logger arbor.ILogger) *Driver {
	return &Driver{
		config: config,
		logger: logger,
	}
}

// buildAllocatorOptions assembles Chrome launch flags
func (d *Driver) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-background-networking", false),
		chromedp.Flag("enable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	}

	if d.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.config.UserAgent))
	}
	if d.config.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if d.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	return opts
}

// ensureAllocator lazily starts the shared Chrome allocator
func (d *Driver) ensureAllocator() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		if d.allocatorCtx == nil {
			return fmt.Errorf("browser driver has been shut down")
		}
		return nil
	}

	d.logger.Info().
		Bool("headless", d.config.Headless).
		Bool("no_sandbox", d.config.NoSandbox).
		Msg("Starting Chrome allocator")

	d.allocatorCtx, d.allocatorCancel = chromedp.NewExecAllocator(context.Background(), d.buildAllocatorOptions()...)
	d.initialized = true
	return nil
}

// NewPage opens a fresh isolated browsing context emulating the viewport.
// Console and page-error listeners are armed before any navigation.
func (d *Driver) NewPage(ctx context.Context, viewport models.Viewport) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.ensureAllocator(); err != nil {
		return nil, err
	}

	browserCtx, browserCancel := chromedp.NewContext(d.allocatorCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			d.logger.Debug().Msg(fmt.Sprintf("chromedp: "+s, i...))
		}))

	page := &chromePage{
		ctx:    browserCtx,
		cancel: browserCancel,
		config: d.config,
		logger: d.logger,
	}
	page.attachListeners()

	width := viewport.Width
	height := viewport.Height
	if width <= 0 || height <= 0 {
		width = models.DefaultViewportWidth
		height = models.DefaultViewportHeight
	}

	if err := chromedp.Run(browserCtx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		browserCancel()
		return nil, fmt.Errorf("failed to open browser context for %s: %w", viewport.Size(), err)
	}

	d.logger.Debug().
		Str("viewport", viewport.Name).
		Str("size", viewport.Size()).
		Msg("Browser context opened")

	return page, nil
}

// Shutdown releases the Chrome process
func (d *Driver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.allocatorCancel != nil {
		d.allocatorCancel()
		d.allocatorCancel = nil
		d.allocatorCtx = nil
		d.logger.Info().Msg("Chrome allocator shut down")
	}
	return nil
}
