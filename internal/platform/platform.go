package platform

import (
	"context"

	"github.com/mj1618/deskctl/internal/model"
)

// Control is one node reported by the accessibility tree walker.
type Control struct {
	Handle model.Handle
	Type   string
	Label  string
	Rect   *model.Rect
}

// Accessor walks the OS accessibility layer.
type Accessor interface {
	// ListWindows returns top-level windows in enumeration order.
	ListWindows(ctx context.Context) ([]model.Window, error)

	// Enumerate returns the controls of a window in tree order.
	Enumerate(ctx context.Context, window model.Window) ([]Control, error)
}

// Executor performs one action, either on a native handle or at a screen
// point. It holds no reference to any session.
type Executor interface {
	Perform(ctx context.Context, target Target, action Action, params ActionParams) (ActionResult, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, target Target, action Action, params ActionParams) (ActionResult, error)

func (f ExecutorFunc) Perform(ctx context.Context, target Target, action Action, params ActionParams) (ActionResult, error) {
	return f(ctx, target, action, params)
}

// WindowManager raises, starts and closes windows.
type WindowManager interface {
	Activate(ctx context.Context, window model.Window) error

	// Launch starts an application. It returns once the process is started;
	// its window may appear later.
	Launch(ctx context.Context, app string) error

	// Close asks a window to close.
	Close(ctx context.Context, window model.Window) error
}

// Screenshotter captures screenshots.
type Screenshotter interface {
	// CaptureWindow returns a PNG of the window's screen area.
	CaptureWindow(ctx context.Context, window model.Window) ([]byte, error)
}
