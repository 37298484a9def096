package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/verity/internal/models"
)

// ClickOptions controls a single click attempt
type ClickOptions struct {
	Timeout time.Duration // Bound on this click attempt (default 5s)
	Force   bool          // Bypass pointer-interception via a direct DOM click
}

// Locator resolves one element by selector and performs actions against it.
// Obtained from Page.Find; cheap to create, holds no browser state.
type Locator interface {
	// WaitVisible blocks until the element is visible or the timeout elapses
	WaitVisible(ctx context.Context, timeout time.Duration) error

	// ScrollIntoView scrolls the element into the visible viewport
	ScrollIntoView(ctx context.Context) error

	// Click attempts a click. A click defeated by pointer interception fails
	// with models.ErrClickIntercepted so callers can retry with Force.
	Click(ctx context.Context, opts ClickOptions) error

	// Fill replaces the field's value with the given text
	Fill(ctx context.Context, value string) error

	// SelectOption chooses the option matching the given value
	SelectOption(ctx context.Context, value string) error

	// Hover moves the pointer over the element
	Hover(ctx context.Context) error

	// TextContent returns the element's text content
	TextContent(ctx context.Context) (string, error)
}

// Page is one isolated browsing context sized to a single viewport. Console
// and page-error listeners must be attached before navigation so no early
// output is lost. Pages are never shared across scenario executions.
type Page interface {
	// OnConsole registers a listener for browser console messages
	OnConsole(fn func(entry models.ConsoleEntry))

	// OnPageError registers a listener for uncaught page errors
	OnPageError(fn func(entry models.ErrorEntry))

	// Navigate loads the URL and waits for the load event, bounded by timeout
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// Find returns a locator for the first element matching the selector
	Find(selector string) Locator

	// Screenshot captures a full-page raster screenshot as PNG bytes
	Screenshot(ctx context.Context) ([]byte, error)

	// Close tears the browsing context down. Safe to call more than once.
	Close() error
}

// BrowserDriver launches isolated browsing contexts. One page per scenario
// execution; the driver owns the underlying browser process lifecycle.
type BrowserDriver interface {
	// NewPage opens a fresh isolated context emulating the given viewport
	NewPage(ctx context.Context, viewport models.Viewport) (Page, error)

	// Shutdown releases the underlying browser process
	Shutdown() error
}
