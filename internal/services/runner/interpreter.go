// -----------------------------------------------------------------------
// Last Modified: Thursday, 20th August 2026 11:05:44 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

const defaultWaitSleep = 3 * time.Second

// Interpreter executes one normalized step against a page. Each step
// produces exactly one StepResult; a failed step never aborts the loop.
type Interpreter struct {
	config *common.BrowserConfig
	logger arbor.ILogger
}

// NewInterpreter creates a step interpreter
func NewInterpreter(config *common.BrowserConfig, logger arbor.ILogger) *Interpreter {
	return &Interpreter{
		config: config,
		logger: logger,
	}
}

// ExecuteStep runs one step and records its outcome. The result is created
// when the step begins and finalized when it ends; duration covers the whole
// attempt including retries.
func (i *Interpreter) ExecuteStep(ctx context.Context, page interfaces.Page, step models.Step, index int) models.StepResult {
	result := models.StepResult{
		Index: index,
		Kind:  step.Kind,
	}
	started := time.Now()

	message, err := i.dispatch(ctx, page, step)
	result.Duration = time.Since(started)
	result.Message = message

	if err != nil {
		result.Status = models.StepStatusFail
		result.Error = err.Error()
		i.logger.Warn().
			Int("index", index).
			Str("kind", string(step.Kind)).
			Str("selector", step.Selector).
			Err(err).
			Msg("Step failed")
	} else {
		result.Status = models.StepStatusPass
		i.logger.Debug().
			Int("index", index).
			Str("kind", string(step.Kind)).
			Str("duration", result.Duration.String()).
			Msg("Step passed")
	}

	return result
}

func (i *Interpreter) dispatch(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	switch step.Kind {
	case models.StepKindNavigate:
		return i.executeNavigate(ctx, page, step)
	case models.StepKindClick:
		return i.executeClick(ctx, page, step)
	case models.StepKindFill:
		return i.executeFill(ctx, page, step)
	case models.StepKindSelect:
		return i.executeSelect(ctx, page, step)
	case models.StepKindHover:
		return i.executeHover(ctx, page, step)
	case models.StepKindVerify:
		return i.executeVerify(ctx, page, step)
	case models.StepKindWait:
		return i.executeWait(ctx, page, step)
	case models.StepKindScreenshot:
		// Capture is handled by the scenario runner after the step completes
		return "screenshot requested", nil
	default:
		i.logger.Warn().
			Str("kind", string(step.Kind)).
			Msg("Unknown step kind, skipping")
		return fmt.Sprintf("unknown step kind %q skipped", step.Kind), nil
	}
}

func (i *Interpreter) executeNavigate(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.URL == "" {
		return "", models.NewStepError(step.Kind, "url is required", nil)
	}
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = i.config.NavigationTimeout
	}
	if err := page.Navigate(ctx, step.URL, timeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("navigate to %s", step.URL), err)
	}
	return fmt.Sprintf("navigated to %s", step.URL), nil
}

// executeClick waits for visibility, scrolls the target into view, then
// clicks. A click defeated by pointer interception is retried once with a
// forced DOM click.
func (i *Interpreter) executeClick(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector == "" {
		return "", models.NewStepError(step.Kind, "selector is required", nil)
	}
	locator := page.Find(step.Selector)

	if err := locator.WaitVisible(ctx, i.config.VisibilityTimeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("waiting for %s", step.Selector), err)
	}
	if err := locator.ScrollIntoView(ctx); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("scrolling to %s", step.Selector), err)
	}

	opts := interfaces.ClickOptions{Timeout: clickTimeout(step, i.config)}
	err := locator.Click(ctx, opts)
	if err != nil && errors.Is(err, models.ErrClickIntercepted) {
		i.logger.Debug().
			Str("selector", step.Selector).
			Msg("Click intercepted, retrying with forced click")
		opts.Force = true
		err = locator.Click(ctx, opts)
		if err == nil {
			return fmt.Sprintf("clicked %s (forced)", step.Selector), nil
		}
	}
	if err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("clicking %s", step.Selector), err)
	}
	return fmt.Sprintf("clicked %s", step.Selector), nil
}

func (i *Interpreter) executeFill(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector == "" {
		return "", models.NewStepError(step.Kind, "selector is required", nil)
	}
	locator := page.Find(step.Selector)

	if err := locator.WaitVisible(ctx, i.config.VisibilityTimeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("waiting for %s", step.Selector), err)
	}
	if err := locator.ScrollIntoView(ctx); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("scrolling to %s", step.Selector), err)
	}
	if err := locator.Fill(ctx, step.Value); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("filling %s", step.Selector), err)
	}
	return fmt.Sprintf("filled %s", step.Selector), nil
}

func (i *Interpreter) executeSelect(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector == "" {
		return "", models.NewStepError(step.Kind, "selector is required", nil)
	}
	locator := page.Find(step.Selector)

	if err := locator.WaitVisible(ctx, i.config.VisibilityTimeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("waiting for %s", step.Selector), err)
	}
	if err := locator.ScrollIntoView(ctx); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("scrolling to %s", step.Selector), err)
	}
	if err := locator.SelectOption(ctx, step.Value); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("selecting %q in %s", step.Value, step.Selector), err)
	}
	return fmt.Sprintf("selected %q in %s", step.Value, step.Selector), nil
}

func (i *Interpreter) executeHover(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector == "" {
		return "", models.NewStepError(step.Kind, "selector is required", nil)
	}
	locator := page.Find(step.Selector)

	if err := locator.WaitVisible(ctx, i.config.VisibilityTimeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("waiting for %s", step.Selector), err)
	}
	if err := locator.ScrollIntoView(ctx); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("scrolling to %s", step.Selector), err)
	}
	if err := locator.Hover(ctx); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("hovering %s", step.Selector), err)
	}
	return fmt.Sprintf("hovered %s", step.Selector), nil
}

// executeVerify checks that the element is visible and, when expected text
// is set, that the element's text contains it as a substring.
func (i *Interpreter) executeVerify(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector == "" {
		return "", models.NewStepError(step.Kind, "selector is required", nil)
	}
	locator := page.Find(step.Selector)

	timeout := step.Timeout
	if timeout <= 0 {
		timeout = i.config.VisibilityTimeout
	}
	if err := locator.WaitVisible(ctx, timeout); err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("element %s not visible", step.Selector), err)
	}

	if step.ExpectedText == "" {
		return fmt.Sprintf("verified %s visible", step.Selector), nil
	}

	text, err := locator.TextContent(ctx)
	if err != nil {
		return "", models.NewStepError(step.Kind, fmt.Sprintf("reading text of %s", step.Selector), err)
	}
	if !strings.Contains(text, step.ExpectedText) {
		return "", models.NewStepError(step.Kind,
			fmt.Sprintf("text of %s does not contain %q (got %q)", step.Selector, step.ExpectedText, truncate(text, 200)), nil)
	}
	return fmt.Sprintf("verified %s contains %q", step.Selector, step.ExpectedText), nil
}

// executeWait blocks on element visibility when a selector is given,
// otherwise sleeps for the step timeout (default 3s).
func (i *Interpreter) executeWait(ctx context.Context, page interfaces.Page, step models.Step) (string, error) {
	if step.Selector != "" {
		timeout := step.Timeout
		if timeout <= 0 {
			timeout = i.config.NavigationTimeout
		}
		locator := page.Find(step.Selector)
		if err := locator.WaitVisible(ctx, timeout); err != nil {
			return "", models.NewStepError(step.Kind, fmt.Sprintf("waiting for %s", step.Selector), err)
		}
		return fmt.Sprintf("waited for %s", step.Selector), nil
	}

	sleep := step.Timeout
	if sleep <= 0 {
		sleep = defaultWaitSleep
	}
	select {
	case <-time.After(sleep):
	case <-ctx.Done():
		return "", models.NewStepError(step.Kind, "wait cancelled", ctx.Err())
	}
	return fmt.Sprintf("waited %s", sleep), nil
}

func clickTimeout(step models.Step, config *common.BrowserConfig) time.Duration {
	if step.Timeout > 0 {
		return step.Timeout
	}
	return config.ClickTimeout
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
