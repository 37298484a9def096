package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// fakeDriver hands out scripted pages so runner behavior can be exercised
// without a browser.
type fakeDriver struct {
	mu        sync.Mutex
	pages     []*fakePage
	newPageFn func(viewport models.Viewport) *fakePage
	failOpen  error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{}
}

func (d *fakeDriver) NewPage(ctx context.Context, viewport models.Viewport) (interfaces.Page, error) {
	if d.failOpen != nil {
		return nil, d.failOpen
	}

	var page *fakePage
	if d.newPageFn != nil {
		page = d.newPageFn(viewport)
	} else {
		page = newFakePage()
	}
	page.viewport = viewport

	d.mu.Lock()
	d.pages = append(d.pages, page)
	d.mu.Unlock()
	return page, nil
}

func (d *fakeDriver) Shutdown() error { return nil }

type fakePage struct {
	viewport    models.Viewport
	navigated   []string
	navigateErr error
	screenshots int
	consoleFns  []func(models.ConsoleEntry)
	errorFns    []func(models.ErrorEntry)
	closed      bool

	// Per-selector failure scripting
	waitErrs  map[string]error
	clickErrs map[string][]error // consumed in order per click attempt
	texts     map[string]string
	scrolled  []string // selectors scrolled into view, in order

	// Emitted through armed listeners when Navigate succeeds. With
	// emitAsync set each emission runs on its own goroutine, the way CDP
	// listeners dispatch; Close joins them.
	consoleOnNav    []string
	pageErrorsOnNav []string
	emitAsync       bool
	emitWG          sync.WaitGroup
}

func newFakePage() *fakePage {
	return &fakePage{
		waitErrs:  make(map[string]error),
		clickErrs: make(map[string][]error),
		texts:     make(map[string]string),
	}
}

func (p *fakePage) OnConsole(fn func(models.ConsoleEntry)) {
	p.consoleFns = append(p.consoleFns, fn)
}

func (p *fakePage) OnPageError(fn func(models.ErrorEntry)) {
	p.errorFns = append(p.errorFns, fn)
}

func (p *fakePage) emitConsole(entryType, message string) {
	for _, fn := range p.consoleFns {
		fn(models.ConsoleEntry{Type: entryType, Message: message, Timestamp: time.Now()})
	}
}

func (p *fakePage) emitPageError(message string) {
	entry := models.ErrorEntry{Message: message, Source: "page", Timestamp: time.Now()}
	if p.emitAsync {
		p.emitWG.Add(1)
		go func() {
			defer p.emitWG.Done()
			for _, fn := range p.errorFns {
				fn(entry)
			}
		}()
		return
	}
	for _, fn := range p.errorFns {
		fn(entry)
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.navigated = append(p.navigated, url)
	for _, msg := range p.consoleOnNav {
		p.emitConsole("log", msg)
	}
	for _, msg := range p.pageErrorsOnNav {
		p.emitPageError(msg)
	}
	return nil
}

func (p *fakePage) Find(selector string) interfaces.Locator {
	return &fakeLocator{page: p, selector: selector}
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.screenshots++
	return []byte("png-bytes"), nil
}

func (p *fakePage) Close() error {
	p.emitWG.Wait()
	p.closed = true
	return nil
}

type fakeLocator struct {
	page     *fakePage
	selector string
}

func (l *fakeLocator) WaitVisible(ctx context.Context, timeout time.Duration) error {
	if err, ok := l.page.waitErrs[l.selector]; ok {
		return err
	}
	return nil
}

func (l *fakeLocator) ScrollIntoView(ctx context.Context) error {
	l.page.scrolled = append(l.page.scrolled, l.selector)
	return nil
}

func (l *fakeLocator) Click(ctx context.Context, opts interfaces.ClickOptions) error {
	errs := l.page.clickErrs[l.selector]
	if len(errs) == 0 {
		return nil
	}
	err := errs[0]
	l.page.clickErrs[l.selector] = errs[1:]
	return err
}

func (l *fakeLocator) Fill(ctx context.Context, value string) error {
	l.page.texts[l.selector] = value
	return nil
}

func (l *fakeLocator) SelectOption(ctx context.Context, value string) error {
	l.page.texts[l.selector] = value
	return nil
}

func (l *fakeLocator) Hover(ctx context.Context) error { return nil }

func (l *fakeLocator) TextContent(ctx context.Context) (string, error) {
	if text, ok := l.page.texts[l.selector]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no text for %s", l.selector)
}

// fakeScreenshotStore records refs in memory and returns stable URLs
type fakeScreenshotStore struct {
	mu   sync.Mutex
	refs []interfaces.ScreenshotRef
}

func (s *fakeScreenshotStore) Save(ctx context.Context, data []byte, ref interfaces.ScreenshotRef) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
	return fmt.Sprintf("/screenshots/%s/%s__%s__%s.png", ref.RunID, ref.Viewport, ref.ScenarioName, ref.Label), nil
}

func (s *fakeScreenshotStore) Load(ctx context.Context, url string) ([]byte, error) {
	return nil, models.ErrNotFound
}

// fakeAnalysis counts enrichment invocations
type fakeAnalysis struct {
	mu    sync.Mutex
	calls int
}

func (a *fakeAnalysis) AnalyzeScenario(ctx context.Context, result *models.ScenarioResult) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return "likely a selector change", nil
}

func (a *fakeAnalysis) Enabled() bool { return true }

func (a *fakeAnalysis) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// saveFailStorage delegates everything but fails scenario-result saves
type saveFailStorage struct {
	interfaces.StorageManager
}

func (s *saveFailStorage) Runs() interfaces.RunStorage {
	return &saveFailRuns{RunStorage: s.StorageManager.Runs()}
}

type saveFailRuns struct {
	interfaces.RunStorage
}

func (r *saveFailRuns) SaveScenarioResult(ctx context.Context, result *models.ScenarioResult) error {
	return fmt.Errorf("disk full")
}

func (s *fakeScreenshotStore) labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels := make([]string, 0, len(s.refs))
	for _, ref := range s.refs {
		labels = append(labels, ref.Label)
	}
	return labels
}
