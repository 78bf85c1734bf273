package platform

import (
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/deskctl/internal/model"
)

// Action names an operation an Executor can perform.
type Action string

const (
	ActionClick       Action = "click"
	ActionDoubleClick Action = "double_click"
	ActionRightClick  Action = "right_click"
	ActionSetText     Action = "set_text"
	ActionTypeText    Action = "type_text"
	ActionKeys        Action = "keys"
	ActionScroll      Action = "scroll"
	ActionDrag        Action = "drag"
	ActionGetText     Action = "get_text"
	ActionGetValue    Action = "get_value"
	// ActionQueryState reports whether the element is visible and enabled.
	ActionQueryState Action = "query_state"
)

// Actions lists every known action.
var Actions = []Action{
	ActionClick, ActionDoubleClick, ActionRightClick, ActionSetText,
	ActionTypeText, ActionKeys, ActionScroll, ActionDrag, ActionGetText,
	ActionGetValue, ActionQueryState,
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action: %q", s)
}

// ReadsOnly reports whether the action only queries the element.
func (a Action) ReadsOnly() bool {
	return a == ActionGetText || a == ActionGetValue || a == ActionQueryState
}

// Target is where an action lands: a live handle, or a screen point.
type Target struct {
	Handle model.Handle
	Point  *model.Point
}

func (t Target) String() string {
	if t.Handle != nil {
		return "handle " + t.Handle.HandleID()
	}
	if t.Point != nil {
		return "point " + t.Point.String()
	}
	return "no target"
}

// MouseButton represents a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseRight:
		return "right"
	case MouseMiddle:
		return "middle"
	default:
		return "left"
	}
}

// ParseMouseButton converts a string flag value to MouseButton.
func ParseMouseButton(s string) (MouseButton, error) {
	switch strings.ToLower(s) {
	case "left", "":
		return MouseLeft, nil
	case "right":
		return MouseRight, nil
	case "middle":
		return MouseMiddle, nil
	default:
		return MouseLeft, fmt.Errorf("unknown mouse button: %q (expected left, right, or middle)", s)
	}
}

// ScrollDirection is the direction of a scroll action.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// ParseScrollDirection converts a string to ScrollDirection.
func ParseScrollDirection(s string) (ScrollDirection, error) {
	switch d := ScrollDirection(strings.ToLower(s)); d {
	case ScrollUp, ScrollDown, ScrollLeft, ScrollRight:
		return d, nil
	default:
		return "", fmt.Errorf("unknown scroll direction: %q (expected up, down, left, or right)", s)
	}
}

// ParseKeyCombo splits "ctrl+shift+s" into its keys.
func ParseKeyCombo(s string) ([]string, error) {
	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			return nil, fmt.Errorf("invalid key combo %q", s)
		}
		keys = append(keys, p)
	}
	return keys, nil
}

// ActionParams carries the arguments an action needs. Unused fields are
// ignored by actions that do not need them.
type ActionParams struct {
	Text      string          `yaml:"text,omitempty"      json:"text,omitempty"`
	Keys      []string        `yaml:"keys,omitempty"      json:"keys,omitempty"`
	Direction ScrollDirection `yaml:"direction,omitempty" json:"direction,omitempty"`
	Amount    int             `yaml:"amount,omitempty"    json:"amount,omitempty"`
	Button    MouseButton     `yaml:"button,omitempty"    json:"button,omitempty"`
	To        *model.Point    `yaml:"to,omitempty"        json:"to,omitempty"`
	Duration  time.Duration   `yaml:"duration,omitempty"  json:"duration,omitempty"`
}

// ActionResult is what an action reports back. Text is set by get_text and
// get_value, Visible and Enabled by query_state.
type ActionResult struct {
	Text    string `yaml:"text,omitempty"    json:"text,omitempty"`
	Visible bool   `yaml:"visible,omitempty" json:"visible,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// AppName is the name a launched application's window is looked up by: the
// lowercased base name of its path without an .exe suffix.
func AppName(app string) string {
	name := strings.ToLower(strings.TrimSpace(app))
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, ".exe")
}
