package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/verity/internal/interfaces"
	"github.com/ternarybob/verity/internal/models"
)

// ScreenshotURLPrefix is the public path screenshots are served under
const ScreenshotURLPrefix = "/screenshots/"

// ScreenshotStore persists screenshot binaries on the local filesystem and
// addresses them with stable /screenshots/... URLs. A store with no
// configured directory accepts writes and returns an empty URL, so scenario
// execution never fails on missing artifact storage.
type ScreenshotStore struct {
	baseDir string
	logger  arbor.ILogger
}

// NewScreenshotStore creates a filesystem screenshot store rooted at baseDir
func NewScreenshotStore(baseDir string, logger arbor.ILogger) interfaces.ScreenshotStore {
	return &ScreenshotStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

func (s *ScreenshotStore) Save(ctx context.Context, data []byte, ref interfaces.ScreenshotRef) (string, error) {
	if s.baseDir == "" {
		return "", nil
	}
	if len(data) == 0 {
		return "", fmt.Errorf("screenshot data is empty")
	}

	name := buildScreenshotName(ref)
	relPath := filepath.Join(sanitizePathSegment(ref.RunID), name)
	fullPath := filepath.Join(s.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	url := ScreenshotURLPrefix + filepath.ToSlash(relPath)
	s.logger.Debug().Str("url", url).Int("bytes", len(data)).Msg("Screenshot saved")
	return url, nil
}

func (s *ScreenshotStore) Load(ctx context.Context, url string) ([]byte, error) {
	if s.baseDir == "" {
		return nil, models.ErrNotFound
	}

	relPath := strings.TrimPrefix(url, ScreenshotURLPrefix)
	if relPath == url || relPath == "" {
		return nil, fmt.Errorf("invalid screenshot URL: %s", url)
	}

	// Reject traversal outside the store root
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(relPath))
	cleanBase := filepath.Clean(s.baseDir) + string(os.PathSeparator)
	if !strings.HasPrefix(filepath.Clean(fullPath)+string(os.PathSeparator), cleanBase) {
		return nil, fmt.Errorf("invalid screenshot URL: %s", url)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read screenshot: %w", err)
	}
	return data, nil
}

// buildScreenshotName composes a stable, filesystem-safe artifact name from
// the reference parts: viewport__scenario__label[__step]__timestamp.png
func buildScreenshotName(ref interfaces.ScreenshotRef) string {
	parts := []string{
		sanitizePathSegment(ref.Viewport),
		sanitizePathSegment(ref.ScenarioName),
		sanitizePathSegment(ref.Label),
	}
	if ref.StepName != "" {
		parts = append(parts, sanitizePathSegment(ref.StepName))
	}
	parts = append(parts, fmt.Sprintf("%d", time.Now().UnixNano()))
	return strings.Join(parts, "__") + ".png"
}

func sanitizePathSegment(segment string) string {
	if segment == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
