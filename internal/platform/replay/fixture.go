// Package replay is a file-backed desktop. Windows and their controls are
// described in a YAML fixture; actions are applied to that in-memory model
// and recorded so they can be inspected.
package replay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mj1618/deskctl/internal/model"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk desktop description.
type Fixture struct {
	Windows []WindowSpec `yaml:"windows"`
	// Apps are the applications Launch can start, keyed by app name. Each
	// opens the given window.
	Apps map[string]WindowSpec `yaml:"apps,omitempty"`
	// Faults makes the named operation fail with a transient subsystem error
	// the given number of times before succeeding.
	Faults map[string]int `yaml:"faults,omitempty"`
}

// WindowSpec describes one top-level window.
type WindowSpec struct {
	Handle     int           `yaml:"handle"`
	Title      string        `yaml:"title"`
	Process    string        `yaml:"process"`
	PID        int           `yaml:"pid"`
	Rect       model.Rect    `yaml:"rect,flow"`
	Focused    bool          `yaml:"focused,omitempty"`
	Screenshot string        `yaml:"screenshot,omitempty"`
	Controls   []ControlSpec `yaml:"controls"`
}

// ControlSpec describes one accessibility node.
type ControlSpec struct {
	ID    string      `yaml:"id"`
	Type  string      `yaml:"type"`
	Label string      `yaml:"label"`
	Rect  *model.Rect `yaml:"rect,omitempty,flow"`
	Text  string      `yaml:"text,omitempty"`
	Value string      `yaml:"value,omitempty"`
	// Hidden and Disabled model controls that exist in the tree but are
	// offscreen or greyed out.
	Hidden   bool `yaml:"hidden,omitempty"`
	Disabled bool `yaml:"disabled,omitempty"`
}

// LoadFixture reads a fixture file. Relative screenshot paths are resolved
// against the fixture's directory.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	fx, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i := range fx.Windows {
		if s := fx.Windows[i].Screenshot; s != "" && !filepath.IsAbs(s) {
			fx.Windows[i].Screenshot = filepath.Join(dir, s)
		}
	}
	for name, w := range fx.Apps {
		if w.Screenshot != "" && !filepath.IsAbs(w.Screenshot) {
			w.Screenshot = filepath.Join(dir, w.Screenshot)
			fx.Apps[name] = w
		}
	}
	return fx, nil
}

// ParseFixture decodes and validates fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	seen := make(map[int]bool, len(fx.Windows)+len(fx.Apps))
	for _, w := range fx.Windows {
		if err := checkWindow(w, seen); err != nil {
			return nil, err
		}
	}
	for name, w := range fx.Apps {
		if err := checkWindow(w, seen); err != nil {
			return nil, fmt.Errorf("app %q: %w", name, err)
		}
	}
	return &fx, nil
}

func checkWindow(w WindowSpec, seen map[int]bool) error {
	if w.Handle == 0 {
		return fmt.Errorf("window %q has no handle", w.Title)
	}
	if seen[w.Handle] {
		return fmt.Errorf("duplicate window handle %d", w.Handle)
	}
	seen[w.Handle] = true
	ids := make(map[string]bool, len(w.Controls))
	for _, c := range w.Controls {
		if c.ID == "" {
			return fmt.Errorf("window %d: control %q has no id", w.Handle, c.Label)
		}
		if ids[c.ID] {
			return fmt.Errorf("window %d: duplicate control id %q", w.Handle, c.ID)
		}
		ids[c.ID] = true
	}
	return nil
}
