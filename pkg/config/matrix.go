package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Entry is one session descriptor of a run matrix, as written in YAML.
type Entry struct {
	Engine     string `yaml:"engine" json:"engine"`
	Device     string `yaml:"device,omitempty" json:"device,omitempty"`
	Resolution string `yaml:"resolution,omitempty" json:"resolution,omitempty"`
}

// Matrix lists the descriptors a test runs against.
type Matrix struct {
	Sessions []Entry `yaml:"sessions" json:"sessions"`
}

// DefaultMatrix runs webkit at full HD and emulating two phones.
func DefaultMatrix() Matrix {
	return Matrix{Sessions: []Entry{
		{Engine: "webkit", Resolution: "1920x1080"},
		{Engine: "webkit", Device: "Pixel 5"},
		{Engine: "webkit", Device: "iPhone 12"},
	}}
}

// LoadMatrix reads a YAML matrix file.
func LoadMatrix(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("failed to read matrix %s: %w", path, err)
	}

	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Matrix{}, fmt.Errorf("failed to parse matrix %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

// ID identifies an entry, e.g. "webkit-Pixel 5" or "webkit-1920x1080".
func (e Entry) ID() string {
	switch {
	case e.Device != "":
		return e.Engine + "-" + e.Device
	case e.Resolution != "":
		return e.Engine + "-" + e.Resolution
	default:
		return e.Engine
	}
}

// Viewport parses Resolution as WIDTHxHEIGHT. ok is false when unset.
func (e Entry) Viewport() (width, height int, ok bool, err error) {
	if e.Resolution == "" {
		return 0, 0, false, nil
	}
	w, h, found := strings.Cut(strings.ToLower(e.Resolution), "x")
	if !found {
		return 0, 0, false, fmt.Errorf("invalid resolution %q: expected WIDTHxHEIGHT", e.Resolution)
	}
	width, err = strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return 0, 0, false, fmt.Errorf("invalid resolution width in %q", e.Resolution)
	}
	height, err = strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return 0, 0, false, fmt.Errorf("invalid resolution height in %q", e.Resolution)
	}
	return width, height, true, nil
}

// Validate rejects entries without an engine, with a malformed resolution,
// or with both a device and a resolution.
func (m Matrix) Validate() error {
	if len(m.Sessions) == 0 {
		return &ConfigurationError{Reason: "matrix has no sessions"}
	}
	for i, e := range m.Sessions {
		if e.Engine == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("matrix entry %d has no engine", i)}
		}
		if e.Device != "" && e.Resolution != "" {
			return &ConfigurationError{
				Reason: fmt.Sprintf("matrix entry %s sets both device and resolution", e.ID()),
			}
		}
		if _, _, _, err := e.Viewport(); err != nil {
			return &ConfigurationError{Reason: fmt.Sprintf("matrix entry %d", i), Err: err}
		}
	}
	return nil
}

// Filter keeps entries whose ID matches any of the glob patterns. No patterns
// keeps everything.
func (m Matrix) Filter(patterns ...string) (Matrix, error) {
	if len(patterns) == 0 {
		return m, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return Matrix{}, fmt.Errorf("invalid filter pattern '%s': %w", pattern, err)
		}
		globs = append(globs, g)
	}

	var out Matrix
	for _, e := range m.Sessions {
		for _, g := range globs {
			if g.Match(e.ID()) {
				out.Sessions = append(out.Sessions, e)
				break
			}
		}
	}
	return out, nil
}
