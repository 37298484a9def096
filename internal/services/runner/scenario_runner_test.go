package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/models"
)

func newTestScenarioRunner(driver *fakeDriver, store *fakeScreenshotStore) *ScenarioRunner {
	return NewScenarioRunner(driver, store, testBrowserConfig(), arbor.NewLogger())
}

func loginScenario() models.Scenario {
	return models.Scenario{
		ID:   "login",
		Name: "Login flow",
		Steps: []models.Step{
			{Kind: models.StepKindFill, Selector: "#email", Value: "alice@example.com"},
			{Kind: models.StepKindFill, Selector: "#password", Value: "hunter2"},
			{Kind: models.StepKindClick, Selector: "#submit"},
		},
	}
}

func TestScenarioRunner_PassingRun(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-1",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusPass {
		t.Fatalf("expected pass, got %s: %+v", result.Status, result.Errors)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 step results, got %d", len(result.Steps))
	}
	if result.RunID != "run-1" || result.ScenarioID != "login" {
		t.Errorf("result not linked to run: %+v", result)
	}

	page := driver.pages[0]
	if len(page.navigated) != 1 || page.navigated[0] != "https://example.com" {
		t.Errorf("expected initial navigation, got %v", page.navigated)
	}
	if !page.closed {
		t.Error("page was not closed")
	}

	labels := store.labels()
	if len(labels) != 2 || labels[0] != "initial" || labels[1] != "final" {
		t.Errorf("expected initial+final screenshots, got %v", labels)
	}
}

func TestScenarioRunner_ContinuesThroughStepFailure(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.waitErrs["#email"] = errors.New("not visible")
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-2",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "mobile", Width: 375, Height: 667},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if len(result.Steps) != 3 {
		t.Fatalf("failed step must not abort the loop, got %d results", len(result.Steps))
	}
	if result.Steps[0].Status != models.StepStatusFail {
		t.Errorf("expected first step to fail")
	}
	if result.Steps[1].Status != models.StepStatusPass || result.Steps[2].Status != models.StepStatusPass {
		t.Errorf("expected later steps to run and pass: %+v", result.Steps)
	}

	if len(result.Errors) != 1 || result.Errors[0].Source != "step" {
		t.Fatalf("expected one step error entry, got %+v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "not visible") {
		t.Errorf("error entry should carry the step failure: %q", result.Errors[0].Message)
	}

	labels := store.labels()
	if len(labels) != 3 || labels[0] != "initial" || labels[1] != "error" || labels[2] != "final" {
		t.Errorf("expected initial+error+final screenshots, got %v", labels)
	}
}

func TestScenarioRunner_RecordsEveryStepFailure(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.waitErrs["#email"] = errors.New("not visible")
		page.waitErrs["#submit"] = errors.New("detached")
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-2b",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "mobile", Width: 375, Height: 667},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected an error entry per failed step, got %+v", result.Errors)
	}
	for _, entry := range result.Errors {
		if entry.Source != "step" {
			t.Errorf("expected step source, got %q", entry.Source)
		}
	}

	labels := store.labels()
	if len(labels) != 4 || labels[1] != "error" || labels[2] != "error" {
		t.Errorf("expected an error screenshot per failure, got %v", labels)
	}
}

func TestScenarioRunner_ConsoleCapture(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.consoleOnNav = []string{"app booted", "hydration done"}
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-3",
		Scenario:  models.Scenario{ID: "boot", Name: "Boot", Steps: nil},
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusPass {
		t.Fatalf("console output alone must not fail the scenario, got %s", result.Status)
	}
	if len(result.ConsoleLogs) != 2 {
		t.Fatalf("expected 2 console entries, got %d", len(result.ConsoleLogs))
	}
	if result.ConsoleLogs[0].Message != "app booted" {
		t.Errorf("unexpected console entry: %+v", result.ConsoleLogs[0])
	}
}

func TestScenarioRunner_CapturedPageErrorMeansFail(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.pageErrorsOnNav = []string{"ReferenceError: boom"}
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-4",
		Scenario:  models.Scenario{ID: "errs", Name: "Errors", Steps: nil},
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("captured page error must fail the scenario, got %s", result.Status)
	}
	if len(result.Errors) != 1 || result.Errors[0].Source != "page" {
		t.Errorf("unexpected error entries: %+v", result.Errors)
	}
}

// Listener callbacks dispatch on the CDP event goroutine, so capture must
// hold up under concurrent emission and the page must be closed before the
// status is computed. Run under -race.
func TestScenarioRunner_ConcurrentPageErrorCapture(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.emitAsync = true
		page.pageErrorsOnNav = []string{
			"TypeError: a is undefined",
			"TypeError: b is undefined",
			"TypeError: c is undefined",
		}
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-4b",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if len(result.Errors) != 3 {
		t.Fatalf("late page errors must be drained before status computation, got %+v", result.Errors)
	}
}

func TestScenarioRunner_NavigationFailure(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	driver.newPageFn = func(models.Viewport) *fakePage {
		page := newFakePage()
		page.navigateErr = errors.New("net::ERR_CONNECTION_REFUSED")
		return page
	}

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-5",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://down.example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if len(result.Steps) != 0 {
		t.Errorf("steps should not run after failed initial navigation, got %d", len(result.Steps))
	}
	if len(result.Errors) == 0 {
		t.Error("expected a scenario-level error entry")
	}
	if !driver.pages[0].closed {
		t.Error("page must be closed even when navigation fails")
	}
}

func TestScenarioRunner_DriverFailure(t *testing.T) {
	driver := newFakeDriver()
	driver.failOpen = errors.New("chrome crashed")
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:     "run-6",
		Scenario:  loginScenario(),
		Viewport:  models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL: "https://example.com",
	})

	if result.Status != models.ScenarioStatusFail {
		t.Fatalf("expected fail, got %s", result.Status)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error entry, got %d", len(result.Errors))
	}
}

func TestScenarioRunner_ScreenshotEveryStep(t *testing.T) {
	driver := newFakeDriver()
	store := &fakeScreenshotStore{}
	runner := newTestScenarioRunner(driver, store)

	result := runner.Run(context.Background(), ScenarioRun{
		RunID:               "run-7",
		Scenario:            loginScenario(),
		Viewport:            models.Viewport{Name: "desktop", Width: 1920, Height: 1080},
		TargetURL:           "https://example.com",
		ScreenshotEveryStep: true,
	})

	if result.Status != models.ScenarioStatusPass {
		t.Fatalf("expected pass, got %s", result.Status)
	}
	// initial + one per step + final
	labels := store.labels()
	if len(labels) != 5 {
		t.Fatalf("expected 5 screenshots, got %d: %v", len(labels), labels)
	}
	if labels[1] != "step" || labels[2] != "step" || labels[3] != "step" {
		t.Errorf("expected step screenshots, got %v", labels)
	}
}
