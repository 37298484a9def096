package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Default viewport dimensions used when a profile omits a size
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Viewport is a named device profile with concrete pixel dimensions
type Viewport struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Size returns the "WxH" size string for the viewport.
// A viewport with no dimensions set reports the desktop default 1920x1080.
func (v Viewport) Size() string {
	width := v.Width
	height := v.Height
	if width <= 0 || height <= 0 {
		width = DefaultViewportWidth
		height = DefaultViewportHeight
	}
	return fmt.Sprintf("%dx%d", width, height)
}

// ParseViewportSize parses a "WxH" size string into pixel dimensions
func ParseViewportSize(size string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(size), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid viewport size %q: expected WxH", size)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid viewport width in %q: %w", size, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid viewport height in %q: %w", size, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid viewport size %q: dimensions must be positive", size)
	}
	return width, height, nil
}

// ViewportSpec is the wire form of a requested viewport. Requests may carry
// either a bare profile name ("mobile") or a full object with explicit
// dimensions; both decode into this shape.
type ViewportSpec struct {
	Name   string `json:"name" yaml:"name"`
	Width  int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height int    `json:"height,omitempty" yaml:"height,omitempty"`
}

// UnmarshalJSON accepts both a bare name string and a {name,width,height} object
func (v *ViewportSpec) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "\"") {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		v.Name = name
		return nil
	}

	type plain ViewportSpec
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = ViewportSpec(p)
	return nil
}

// Resolve turns a ViewportSpec into a concrete Viewport. Explicit dimensions win;
// otherwise the configured profile map supplies them; otherwise the desktop
// default applies.
func (v ViewportSpec) Resolve(profiles map[string]string) Viewport {
	vp := Viewport{Name: v.Name, Width: v.Width, Height: v.Height}
	if vp.Width > 0 && vp.Height > 0 {
		return vp
	}
	if size, ok := profiles[v.Name]; ok && size != "" {
		if w, h, err := ParseViewportSize(size); err == nil {
			vp.Width = w
			vp.Height = h
			return vp
		}
	}
	vp.Width = DefaultViewportWidth
	vp.Height = DefaultViewportHeight
	return vp
}

// ResolveViewports resolves every requested viewport against the configured
// profile map, preserving request order.
func ResolveViewports(specs []ViewportSpec, profiles map[string]string) []Viewport {
	viewports := make([]Viewport, 0, len(specs))
	for _, spec := range specs {
		viewports = append(viewports, spec.Resolve(profiles))
	}
	return viewports
}

// ViewportsFromProfiles resolves a set of requested profile names against
// the configured name -> "WxH" profile map. Names are returned in sorted
// order so the execution matrix is deterministic. An unknown profile or an
// empty profile entry resolves to the desktop default rather than failing.
func ViewportsFromProfiles(requested []string, profiles map[string]string) []Viewport {
	names := make([]string, 0, len(requested))
	names = append(names, requested...)
	sort.Strings(names)

	viewports := make([]Viewport, 0, len(names))
	for _, name := range names {
		vp := Viewport{Name: name, Width: DefaultViewportWidth, Height: DefaultViewportHeight}
		if size, ok := profiles[name]; ok && size != "" {
			if w, h, err := ParseViewportSize(size); err == nil {
				vp.Width = w
				vp.Height = h
			}
		}
		viewports = append(viewports, vp)
	}
	return viewports
}
