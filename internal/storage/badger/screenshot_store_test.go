package badger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

func TestScreenshotStore_SaveAndLoad(t *testing.T) {
	store := NewScreenshotStore(t.TempDir(), arbor.NewLogger())
	ctx := context.Background()

	data := []byte("fake-png-bytes")
	ref := interfaces.ScreenshotRef{
		RunID:        "run-1",
		ScenarioName: "login",
		Viewport:     "375x667",
		Label:        "initial",
	}

	url, err := store.Save(ctx, data, ref)
	if err != nil {
		t.Fatalf("Failed to save screenshot: %v", err)
	}
	if !strings.HasPrefix(url, ScreenshotURLPrefix) {
		t.Errorf("url %s missing prefix", url)
	}
	if !strings.Contains(url, "run-1") {
		t.Errorf("url %s missing run id", url)
	}

	loaded, err := store.Load(ctx, url)
	if err != nil {
		t.Fatalf("Failed to load screenshot: %v", err)
	}
	if string(loaded) != string(data) {
		t.Error("loaded bytes do not match saved bytes")
	}
}

func TestScreenshotStore_UnconfiguredReturnsEmptyURL(t *testing.T) {
	store := NewScreenshotStore("", arbor.NewLogger())
	ctx := context.Background()

	url, err := store.Save(ctx, []byte("data"), interfaces.ScreenshotRef{RunID: "run-1"})
	if err != nil {
		t.Fatalf("unconfigured store must not error, got %v", err)
	}
	if url != "" {
		t.Errorf("expected empty url, got %s", url)
	}
}

func TestScreenshotStore_LoadRejectsTraversal(t *testing.T) {
	store := NewScreenshotStore(t.TempDir(), arbor.NewLogger())
	ctx := context.Background()

	if _, err := store.Load(ctx, "/screenshots/../../../etc/passwd"); err == nil {
		t.Error("expected error for traversal URL")
	}
	if _, err := store.Load(ctx, "https://elsewhere.example.com/x.png"); err == nil {
		t.Error("expected error for foreign URL")
	}
}

func TestScreenshotStore_LoadMissing(t *testing.T) {
	store := NewScreenshotStore(t.TempDir(), arbor.NewLogger())
	ctx := context.Background()

	if _, err := store.Load(ctx, ScreenshotURLPrefix+"run-x/none.png"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScreenshotStore_StepNameInURL(t *testing.T) {
	store := NewScreenshotStore(t.TempDir(), arbor.NewLogger())
	ctx := context.Background()

	url, err := store.Save(ctx, []byte("data"), interfaces.ScreenshotRef{
		RunID:        "run-1",
		ScenarioName: "checkout flow",
		StepName:     "after login!",
		Viewport:     "1920x1080",
		Label:        "step",
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(url, " !") {
		t.Errorf("url %s contains unsafe characters", url)
	}
	if !strings.Contains(url, "after-login") {
		t.Errorf("url %s missing sanitized step name", url)
	}
}
