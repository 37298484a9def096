package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// chromePage is a single browsing context. All actions run against the
// page's own chromedp context; caller contexts only gate entry so that a
// cancelled run stops issuing new commands.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *common.BrowserConfig
	logger arbor.ILogger

	mu         sync.Mutex
	consoleFns []func(models.ConsoleEntry)
	errorFns   []func(models.ErrorEntry)
	closed     bool
}

// attachListeners wires CDP runtime events to the registered callbacks.
// ListenTarget callbacks must not block, so dispatch stays synchronous and
// the handlers are expected to only record the entry.
func (p *chromePage) attachListeners() {
	chromedp.ListenTarget(p.ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			entry := models.ConsoleEntry{
				Type:      string(e.Type),
				Message:   formatConsoleArgs(e.Args),
				Timestamp: time.Now().UTC(),
			}
			p.mu.Lock()
			fns := append([]func(models.ConsoleEntry){}, p.consoleFns...)
			p.mu.Unlock()
			for _, fn := range fns {
				fn(entry)
			}
		case *runtime.EventExceptionThrown:
			entry := models.ErrorEntry{
				Message:   formatException(e.ExceptionDetails),
				Source:    "page",
				Timestamp: time.Now().UTC(),
			}
			p.mu.Lock()
			fns := append([]func(models.ErrorEntry){}, p.errorFns...)
			p.mu.Unlock()
			for _, fn := range fns {
				fn(entry)
			}
		}
	})
}

func formatConsoleArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if len(arg.Value) > 0 {
			var v interface{}
			if err := json.Unmarshal(arg.Value, &v); err == nil {
				parts = append(parts, fmt.Sprintf("%v", v))
				continue
			}
			parts = append(parts, string(arg.Value))
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
		}
	}
	return strings.Join(parts, " ")
}

func formatException(details *runtime.ExceptionDetails) string {
	if details == nil {
		return "uncaught exception"
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	if details.Text != "" {
		return details.Text
	}
	return "uncaught exception"
}

func (p *chromePage) OnConsole(fn func(models.ConsoleEntry)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consoleFns = append(p.consoleFns, fn)
}

func (p *chromePage) OnPageError(fn func(models.ErrorEntry)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorFns = append(p.errorFns, fn)
}

// Navigate loads the URL and waits for the load event, bounded by the
// configured navigation timeout. chromedp.Navigate returns on load, not
// network idle; late requests are absorbed by the per-step visibility
// waits that follow.
func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = p.config.NavigationTimeout
	}

	navCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("navigation to %s timed out after %s: %w", url, timeout, err)
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *chromePage) Find(selector string) interfaces.Locator {
	return &chromeLocator{page: p, selector: selector}
}

// Screenshot captures the full scrollable page as PNG
func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf []byte
	if err := chromedp.Run(p.ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("screenshot capture failed: %w", err)
	}
	return buf, nil
}

// Close tears down the browsing context. Safe to call more than once.
func (p *chromePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.cancel()
	return nil
}
