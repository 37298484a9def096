package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// chromeLocator resolves a CSS selector against its page on each action.
// Selectors are not cached between calls, so a re-rendered element is found
// fresh every time.
type chromeLocator struct {
	page     *chromePage
	selector string
}

func (l *chromeLocator) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx := l.page.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (l *chromeLocator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = l.page.config.VisibilityTimeout
	}
	if err := l.run(ctx, timeout, chromedp.WaitVisible(l.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element %s not visible after %s: %w", l.selector, timeout, err)
	}
	return nil
}

func (l *chromeLocator) ScrollIntoView(ctx context.Context) error {
	if err := l.run(ctx, l.page.config.ClickTimeout, chromedp.ScrollIntoView(l.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("scroll to %s failed: %w", l.selector, err)
	}
	return nil
}

// hitTestJS reports whether the element's centre point actually receives
// pointer events, so an overlay sitting on top is detected before the click
// is dispatched.
const hitTestJS = `(function(sel){
	const el = document.querySelector(sel);
	if (!el) return "missing";
	const r = el.getBoundingClientRect();
	const hit = document.elementFromPoint(r.x + r.width/2, r.y + r.height/2);
	if (!hit) return "intercepted";
	if (hit === el || el.contains(hit) || hit.contains(el)) return "ok";
	return "intercepted";
})(%q)`

const forcedClickJS = `(function(sel){
	const el = document.querySelector(sel);
	if (!el) return false;
	el.click();
	return true;
})(%q)`

// Click dispatches a real pointer click. When another element covers the
// target it returns ErrClickIntercepted without clicking; with Force set the
// click is raised directly on the element via the DOM instead.
func (l *chromeLocator) Click(ctx context.Context, opts interfaces.ClickOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = l.page.config.ClickTimeout
	}

	if opts.Force {
		var clicked bool
		expr := fmt.Sprintf(forcedClickJS, l.selector)
		if err := l.run(ctx, timeout, chromedp.Evaluate(expr, &clicked)); err != nil {
			return fmt.Errorf("forced click on %s failed: %w", l.selector, err)
		}
		if !clicked {
			return fmt.Errorf("forced click on %s failed: element not found", l.selector)
		}
		return nil
	}

	var hit string
	expr := fmt.Sprintf(hitTestJS, l.selector)
	if err := l.run(ctx, timeout, chromedp.Evaluate(expr, &hit)); err != nil {
		return fmt.Errorf("click on %s failed: %w", l.selector, err)
	}
	switch hit {
	case "missing":
		return fmt.Errorf("click on %s failed: element not found", l.selector)
	case "intercepted":
		return fmt.Errorf("click on %s: %w", l.selector, models.ErrClickIntercepted)
	}

	if err := l.run(ctx, timeout, chromedp.Click(l.selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click on %s failed: %w", l.selector, err)
	}
	return nil
}

// Fill replaces the element's value
func (l *chromeLocator) Fill(ctx context.Context, value string) error {
	if err := l.run(ctx, l.page.config.ClickTimeout, chromedp.SetValue(l.selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("fill on %s failed: %w", l.selector, err)
	}
	return nil
}

const selectOptionJS = `(function(sel, val){
	const el = document.querySelector(sel);
	if (!el) return false;
	el.value = val;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%q, %q)`

// SelectOption sets the select's value and raises input/change so framework
// bindings observe the selection.
func (l *chromeLocator) SelectOption(ctx context.Context, value string) error {
	var ok bool
	expr := fmt.Sprintf(selectOptionJS, l.selector, value)
	if err := l.run(ctx, l.page.config.ClickTimeout, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("select on %s failed: %w", l.selector, err)
	}
	if !ok {
		return fmt.Errorf("select on %s failed: element not found", l.selector)
	}
	return nil
}

const hoverJS = `(function(sel){
	const el = document.querySelector(sel);
	if (!el) return false;
	const r = el.getBoundingClientRect();
	const opts = { bubbles: true, clientX: r.x + r.width/2, clientY: r.y + r.height/2 };
	el.dispatchEvent(new MouseEvent('mouseover', opts));
	el.dispatchEvent(new MouseEvent('mouseenter', opts));
	el.dispatchEvent(new MouseEvent('mousemove', opts));
	return true;
})(%q)`

func (l *chromeLocator) Hover(ctx context.Context) error {
	var ok bool
	expr := fmt.Sprintf(hoverJS, l.selector)
	if err := l.run(ctx, l.page.config.ClickTimeout, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("hover on %s failed: %w", l.selector, err)
	}
	if !ok {
		return fmt.Errorf("hover on %s failed: element not found", l.selector)
	}
	return nil
}

func (l *chromeLocator) TextContent(ctx context.Context) (string, error) {
	var text string
	if err := l.run(ctx, l.page.config.VisibilityTimeout, chromedp.Text(l.selector, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading text of %s failed: %w", l.selector, err)
	}
	return strings.TrimSpace(text), nil
}
