package model

import (
	"strconv"
	"strings"
)

// Window identifies a top-level application window.
type Window struct {
	Handle  int    `yaml:"handle"            json:"handle"`
	Title   string `yaml:"title"             json:"title"`
	Process string `yaml:"process"           json:"process"`
	PID     int    `yaml:"pid"               json:"pid"`
	Rect    Rect   `yaml:"rect,flow"         json:"rect"`
	Focused bool   `yaml:"focused,omitempty" json:"focused,omitempty"`
}

// IsZero reports whether no window is set.
func (w Window) IsZero() bool {
	return w.Handle == 0 && w.Title == "" && w.Process == ""
}

// Matches implements the window lookup rule for one candidate: an exact
// handle id, or a case-insensitive substring of the title or process name.
// The bool reports whether the match was on the handle.
func (w Window) Matches(identifier string) (matched, exactHandle bool) {
	if identifier == "" {
		return false, false
	}
	if id, err := strconv.Atoi(strings.TrimSpace(identifier)); err == nil && id == w.Handle {
		return true, true
	}
	needle := strings.ToLower(identifier)
	return strings.Contains(strings.ToLower(w.Title), needle) ||
		strings.Contains(strings.ToLower(w.Process), needle), false
}

// FindWindow picks the window for identifier: an exact handle id match wins
// over any substring match, otherwise the first substring match in order.
func FindWindow(windows []Window, identifier string) (Window, bool) {
	var first *Window
	for i := range windows {
		matched, exact := windows[i].Matches(identifier)
		if exact {
			return windows[i], true
		}
		if matched && first == nil {
			first = &windows[i]
		}
	}
	if first == nil {
		return Window{}, false
	}
	return *first, true
}
