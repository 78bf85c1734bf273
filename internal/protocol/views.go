package protocol

import (
	"time"

	"github.com/mj1618/deskctl/internal/model"
)

// State is the wire view of a snapshot.
type State struct {
	Window     string              `yaml:"window"         json:"window"`
	Handle     int                 `yaml:"handle"         json:"handle"`
	Process    string              `yaml:"process"        json:"process"`
	Detectors  string              `yaml:"detectors"      json:"detectors"`
	CapturedAt time.Time           `yaml:"captured_at"    json:"captured_at"`
	Elements   []model.Element     `yaml:"elements"       json:"elements"`
	Diff       *model.SnapshotDiff `yaml:"diff,omitempty" json:"diff,omitempty"`
}

// NewState renders snap. Unless verbose, rects are only kept for elements
// without a handle, since those are the ones acted on by coordinates.
func NewState(snap *model.Snapshot, detectors string, verbose bool) *State {
	w := snap.Window()
	els := snap.Elements()
	if !verbose {
		for i := range els {
			if els[i].Handle != nil {
				els[i].Rect = nil
			}
		}
	}
	return &State{
		Window:     w.Title,
		Handle:     w.Handle,
		Process:    w.Process,
		Detectors:  detectors,
		CapturedAt: snap.CapturedAt(),
		Elements:   els,
	}
}

// Pong answers ping.
type Pong struct {
	Session string `yaml:"session" json:"session"`
	PID     int    `yaml:"pid"     json:"pid"`
	Addr    string `yaml:"addr"    json:"addr"`
}

// Focused answers focus.
type Focused struct {
	Window model.Window `yaml:"window" json:"window"`
}

// Launched answers launch with the window that was bound.
type Launched struct {
	App    string       `yaml:"app"    json:"app"`
	Window model.Window `yaml:"window" json:"window"`
}

// Closed answers close.
type Closed struct {
	Window model.Window `yaml:"window" json:"window"`
}

// Windows answers windows.
type Windows struct {
	Windows []model.Window `yaml:"windows" json:"windows"`
	Bound   int            `yaml:"bound,omitempty" json:"bound,omitempty"`
}

// Inspected answers inspect and get-rect.
type Inspected struct {
	Element   model.Element `yaml:"element"             json:"element"`
	HasHandle bool          `yaml:"has_handle"          json:"has_handle"`
	HandleID  string        `yaml:"handle_id,omitempty" json:"handle_id,omitempty"`
	Center    *model.Point  `yaml:"center,omitempty"    json:"center,omitempty"`
}

// Acted answers every action command.
type Acted struct {
	Action   string       `yaml:"action"             json:"action"`
	Index    int          `yaml:"index,omitempty"    json:"index,omitempty"`
	Label    string       `yaml:"label,omitempty"    json:"label,omitempty"`
	Fallback bool         `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Point    *model.Point `yaml:"point,omitempty"    json:"point,omitempty"`
	Text     string       `yaml:"text,omitempty"     json:"text,omitempty"`
}

// Screenshot answers screenshot.
type Screenshot struct {
	Path      string `yaml:"path"                json:"path"`
	Annotated bool   `yaml:"annotated,omitempty" json:"annotated,omitempty"`
	Width     int    `yaml:"width"               json:"width"`
	Height    int    `yaml:"height"              json:"height"`
}

// Waited answers wait. Condition and Index are set when the wait was for an
// element to become visible or enabled; Seconds is then the time it took.
type Waited struct {
	Seconds   float64 `yaml:"seconds"             json:"seconds"`
	Index     int     `yaml:"index,omitempty"     json:"index,omitempty"`
	Condition string  `yaml:"condition,omitempty" json:"condition,omitempty"`
}
