package models

import (
	"encoding/json"
	"testing"
)

func TestViewport_Size(t *testing.T) {
	tests := []struct {
		name     string
		viewport Viewport
		expected string
	}{
		{
			name:     "mobile profile",
			viewport: Viewport{Name: "mobile", Width: 375, Height: 667},
			expected: "375x667",
		},
		{
			name:     "empty viewport falls back to desktop default",
			viewport: Viewport{Name: "unknown"},
			expected: "1920x1080",
		},
		{
			name:     "zero height falls back to desktop default",
			viewport: Viewport{Name: "broken", Width: 100},
			expected: "1920x1080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.viewport.Size(); got != tt.expected {
				t.Errorf("Size() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseViewportSize(t *testing.T) {
	w, h, err := ParseViewportSize("375x667")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 375 || h != 667 {
		t.Errorf("got %dx%d, want 375x667", w, h)
	}

	for _, invalid := range []string{"", "375", "375x", "x667", "0x100", "-1x100", "axb"} {
		if _, _, err := ParseViewportSize(invalid); err == nil {
			t.Errorf("expected error for %q", invalid)
		}
	}
}

func TestViewportSpec_UnmarshalJSON(t *testing.T) {
	var specs []ViewportSpec
	payload := `["mobile", {"name":"custom","width":800,"height":600}]`
	if err := json.Unmarshal([]byte(payload), &specs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Name != "mobile" || specs[0].Width != 0 {
		t.Errorf("bare name spec wrong: %+v", specs[0])
	}
	if specs[1].Name != "custom" || specs[1].Width != 800 || specs[1].Height != 600 {
		t.Errorf("object spec wrong: %+v", specs[1])
	}
}

func TestViewportSpec_Resolve(t *testing.T) {
	profiles := map[string]string{
		"mobile":  "375x667",
		"desktop": "1920x1080",
	}

	tests := []struct {
		name     string
		spec     ViewportSpec
		expected Viewport
	}{
		{
			name:     "profile name resolves to configured size",
			spec:     ViewportSpec{Name: "mobile"},
			expected: Viewport{Name: "mobile", Width: 375, Height: 667},
		},
		{
			name:     "explicit dimensions win over profile",
			spec:     ViewportSpec{Name: "mobile", Width: 400, Height: 700},
			expected: Viewport{Name: "mobile", Width: 400, Height: 700},
		},
		{
			name:     "unknown profile falls back to desktop default",
			spec:     ViewportSpec{Name: "watch"},
			expected: Viewport{Name: "watch", Width: 1920, Height: 1080},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Resolve(profiles); got != tt.expected {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestViewportsFromProfiles_Deterministic(t *testing.T) {
	profiles := map[string]string{"mobile": "375x667", "desktop": "1920x1080"}

	a := ViewportsFromProfiles([]string{"desktop", "mobile"}, profiles)
	b := ViewportsFromProfiles([]string{"mobile", "desktop"}, profiles)

	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected 2 viewports each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("ordering not deterministic: %+v vs %+v", a, b)
		}
	}
}
