package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/common"
	"github.com/ternarybob/verity/internal/models"
)

func testBrowserConfig() *common.BrowserConfig {
	return &common.BrowserConfig{
		NavigationTimeout: 30 * time.Second,
		VisibilityTimeout: 10 * time.Second,
		ClickTimeout:      5 * time.Second,
	}
}

func newTestInterpreter() *Interpreter {
	return NewInterpreter(testBrowserConfig(), arbor.NewLogger())
}

func TestInterpreter_Navigate(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind: models.StepKindNavigate,
		URL:  "https://example.com/login",
	}, 0)

	if result.Status != models.StepStatusPass {
		t.Fatalf("expected pass, got %s (%s)", result.Status, result.Error)
	}
	if len(page.navigated) != 1 || page.navigated[0] != "https://example.com/login" {
		t.Errorf("unexpected navigations: %v", page.navigated)
	}
}

func TestInterpreter_NavigateMissingURL(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	result := interp.ExecuteStep(context.Background(), page, models.Step{Kind: models.StepKindNavigate}, 0)

	if result.Status != models.StepStatusFail {
		t.Fatalf("expected fail for missing url, got %s", result.Status)
	}
	if !strings.Contains(result.Error, "url is required") {
		t.Errorf("unexpected error: %s", result.Error)
	}
}

func TestInterpreter_ClickInterceptedRetriesForced(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()
	page.clickErrs["#submit"] = []error{models.ErrClickIntercepted}

	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind:     models.StepKindClick,
		Selector: "#submit",
	}, 0)

	if result.Status != models.StepStatusPass {
		t.Fatalf("expected forced retry to pass, got %s (%s)", result.Status, result.Error)
	}
	if !strings.Contains(result.Message, "forced") {
		t.Errorf("expected forced click message, got %q", result.Message)
	}
}

func TestInterpreter_ClickOtherErrorNotRetried(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()
	page.clickErrs["#submit"] = []error{errors.New("node detached")}

	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind:     models.StepKindClick,
		Selector: "#submit",
	}, 0)

	if result.Status != models.StepStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if remaining := page.clickErrs["#submit"]; len(remaining) != 0 {
		t.Errorf("expected a single click attempt, %d scripted errors left", len(remaining))
	}
}

func TestInterpreter_ClickNotVisible(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()
	page.waitErrs["#hidden"] = errors.New("timeout waiting for visibility")

	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind:     models.StepKindClick,
		Selector: "#hidden",
	}, 0)

	if result.Status != models.StepStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
}

func TestInterpreter_ElementStepsScrollIntoView(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	steps := []models.Step{
		{Kind: models.StepKindClick, Selector: "#submit"},
		{Kind: models.StepKindFill, Selector: "#email", Value: "alice@example.com"},
		{Kind: models.StepKindSelect, Selector: "#country", Value: "AU"},
		{Kind: models.StepKindHover, Selector: ".menu"},
	}
	for index, step := range steps {
		result := interp.ExecuteStep(context.Background(), page, step, index)
		if result.Status != models.StepStatusPass {
			t.Fatalf("step %d (%s) failed: %s", index, step.Kind, result.Error)
		}
	}

	want := []string{"#submit", "#email", "#country", ".menu"}
	if len(page.scrolled) != len(want) {
		t.Fatalf("expected every element step to scroll its target, got %v", page.scrolled)
	}
	for i, selector := range want {
		if page.scrolled[i] != selector {
			t.Errorf("scroll %d: expected %s, got %s", i, selector, page.scrolled[i])
		}
	}
}

func TestInterpreter_VerifyTextSubstring(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()
	page.texts["h1.title"] = "Welcome back, Alice!"

	tests := []struct {
		name     string
		expected string
		want     models.StepStatus
	}{
		{"substring match", "Welcome back", models.StepStatusPass},
		{"exact match", "Welcome back, Alice!", models.StepStatusPass},
		{"no match", "Goodbye", models.StepStatusFail},
		{"visibility only", "", models.StepStatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := interp.ExecuteStep(context.Background(), page, models.Step{
				Kind:         models.StepKindVerify,
				Selector:     "h1.title",
				ExpectedText: tt.expected,
			}, 0)
			if result.Status != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, result.Status, result.Error)
			}
		})
	}
}

func TestInterpreter_WaitSleepsWithoutSelector(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	started := time.Now()
	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind:    models.StepKindWait,
		Timeout: 20 * time.Millisecond,
	}, 0)

	if result.Status != models.StepStatusPass {
		t.Fatalf("expected pass, got %s", result.Status)
	}
	if elapsed := time.Since(started); elapsed < 20*time.Millisecond {
		t.Errorf("wait returned after %s, expected at least 20ms", elapsed)
	}
}

func TestInterpreter_WaitWithSelector(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	result := interp.ExecuteStep(context.Background(), page, models.Step{
		Kind:     models.StepKindWait,
		Selector: ".loaded",
	}, 0)

	if result.Status != models.StepStatusPass {
		t.Fatalf("expected pass, got %s", result.Status)
	}
	if !strings.Contains(result.Message, ".loaded") {
		t.Errorf("unexpected message: %q", result.Message)
	}
}

func TestInterpreter_UnknownKindSkipped(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	result := interp.ExecuteStep(context.Background(), page, models.Step{Kind: "drag"}, 3)

	if result.Status != models.StepStatusPass {
		t.Fatalf("unknown kind should be skipped as pass, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "skipped") {
		t.Errorf("unexpected message: %q", result.Message)
	}
	if result.Index != 3 {
		t.Errorf("expected index 3, got %d", result.Index)
	}
}

func TestInterpreter_SelectorRequired(t *testing.T) {
	interp := newTestInterpreter()
	page := newFakePage()

	for _, kind := range []models.StepKind{models.StepKindClick, models.StepKindFill, models.StepKindSelect, models.StepKindHover, models.StepKindVerify} {
		result := interp.ExecuteStep(context.Background(), page, models.Step{Kind: kind}, 0)
		if result.Status != models.StepStatusFail {
			t.Errorf("%s without selector should fail, got %s", kind, result.Status)
		}
	}
}
