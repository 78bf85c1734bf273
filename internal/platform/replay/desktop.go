package replay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
)

func init() {
	platform.Register("replay", func(opts platform.Options) (*platform.Provider, error) {
		if opts.Fixture == "" {
			return nil, fmt.Errorf("replay backend needs a fixture file (--fixture)")
		}
		fx, err := LoadFixture(opts.Fixture)
		if err != nil {
			return nil, err
		}
		return New(fx).Provider(), nil
	})
}

// Handle references one control of one window.
type Handle struct {
	Window  int
	Control string
}

func (h Handle) HandleID() string {
	return fmt.Sprintf("%d/%s", h.Window, h.Control)
}

// Record is one performed action.
type Record struct {
	Action platform.Action
	Target platform.Target
	Params platform.ActionParams
	At     time.Time
}

// Desktop implements every platform interface over a fixture.
type Desktop struct {
	mu      sync.Mutex
	windows []WindowSpec
	apps    map[string]WindowSpec
	faults  map[string]int
	records []Record
	now     func() time.Time
}

// New builds a Desktop. The fixture is copied.
func New(fx *Fixture) *Desktop {
	d := &Desktop{faults: make(map[string]int), apps: make(map[string]WindowSpec), now: time.Now}
	for _, w := range fx.Windows {
		w.Controls = append([]ControlSpec(nil), w.Controls...)
		d.windows = append(d.windows, w)
	}
	for name, w := range fx.Apps {
		w.Controls = append([]ControlSpec(nil), w.Controls...)
		d.apps[platform.AppName(name)] = w
	}
	for k, v := range fx.Faults {
		d.faults[k] = v
	}
	return d
}

// Provider exposes the Desktop through the platform bundle.
func (d *Desktop) Provider() *platform.Provider {
	return &platform.Provider{
		Accessor:      d,
		Executor:      d,
		WindowManager: d,
		Screenshotter: d,
	}
}

// Records returns the actions performed so far.
func (d *Desktop) Records() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Record(nil), d.records...)
}

// SetControls replaces a window's controls, simulating a UI change.
func (d *Desktop) SetControls(window int, controls []ControlSpec) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.window(window)
	if w == nil {
		return fmt.Errorf("no window with handle %d", window)
	}
	w.Controls = append([]ControlSpec(nil), controls...)
	return nil
}

// Control returns the current state of one control.
func (d *Desktop) Control(window int, id string) (ControlSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.control(Handle{Window: window, Control: id})
	if c == nil {
		return ControlSpec{}, false
	}
	return *c, true
}

func (d *Desktop) fault(op string) error {
	if d.faults[op] > 0 {
		d.faults[op]--
		return model.Errorf(model.KindTransientSubsystem, op, "accessibility subsystem busy")
	}
	return nil
}

func (d *Desktop) window(handle int) *WindowSpec {
	for i := range d.windows {
		if d.windows[i].Handle == handle {
			return &d.windows[i]
		}
	}
	return nil
}

func (d *Desktop) control(h Handle) *ControlSpec {
	w := d.window(h.Window)
	if w == nil {
		return nil
	}
	for i := range w.Controls {
		if w.Controls[i].ID == h.Control {
			return &w.Controls[i]
		}
	}
	return nil
}

func toWindow(w WindowSpec) model.Window {
	return model.Window{
		Handle:  w.Handle,
		Title:   w.Title,
		Process: w.Process,
		PID:     w.PID,
		Rect:    w.Rect,
		Focused: w.Focused,
	}
}

func (d *Desktop) ListWindows(ctx context.Context) ([]model.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("list_windows"); err != nil {
		return nil, err
	}
	out := make([]model.Window, 0, len(d.windows))
	for _, w := range d.windows {
		out = append(out, toWindow(w))
	}
	return out, nil
}

func (d *Desktop) Enumerate(ctx context.Context, window model.Window) ([]platform.Control, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("enumerate"); err != nil {
		return nil, err
	}
	w := d.window(window.Handle)
	if w == nil {
		return nil, fmt.Errorf("window %d (%q) no longer exists", window.Handle, window.Title)
	}
	out := make([]platform.Control, 0, len(w.Controls))
	for _, c := range w.Controls {
		out = append(out, platform.Control{
			Handle: Handle{Window: w.Handle, Control: c.ID},
			Type:   model.MapRole(c.Type),
			Label:  c.Label,
			Rect:   c.Rect,
		})
	}
	return out, nil
}

func (d *Desktop) Activate(ctx context.Context, window model.Window) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.window(window.Handle) == nil {
		return fmt.Errorf("window %d not found", window.Handle)
	}
	for i := range d.windows {
		d.windows[i].Focused = d.windows[i].Handle == window.Handle
	}
	return nil
}

// Launch opens the window of a fixture app and focuses it. An app whose
// window is already open is only focused.
func (d *Desktop) Launch(ctx context.Context, app string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("launch"); err != nil {
		return err
	}
	w, ok := d.apps[platform.AppName(app)]
	if !ok {
		return fmt.Errorf("cannot launch %q: not installed", app)
	}
	if d.window(w.Handle) == nil {
		w.Controls = append([]ControlSpec(nil), w.Controls...)
		d.windows = append(d.windows, w)
	}
	for i := range d.windows {
		d.windows[i].Focused = d.windows[i].Handle == w.Handle
	}
	return nil
}

// Close removes a window from the desktop.
func (d *Desktop) Close(ctx context.Context, window model.Window) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("close"); err != nil {
		return err
	}
	for i := range d.windows {
		if d.windows[i].Handle == window.Handle {
			d.windows = append(d.windows[:i], d.windows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("window %d not found", window.Handle)
}

// SetControlState shows or hides and enables or disables one control.
func (d *Desktop) SetControlState(window int, id string, visible, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.control(Handle{Window: window, Control: id})
	if c == nil {
		return fmt.Errorf("no control %d/%s", window, id)
	}
	c.Hidden = !visible
	c.Disabled = !enabled
	return nil
}

func (d *Desktop) Perform(ctx context.Context, target platform.Target, action platform.Action, params platform.ActionParams) (platform.ActionResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault("perform"); err != nil {
		return platform.ActionResult{}, err
	}

	var ctl *ControlSpec
	switch {
	case target.Handle != nil:
		h, ok := target.Handle.(Handle)
		if !ok {
			return platform.ActionResult{}, fmt.Errorf("foreign handle %s", target.Handle.HandleID())
		}
		if ctl = d.control(h); ctl == nil {
			return platform.ActionResult{}, fmt.Errorf("element %s is no longer available", h.HandleID())
		}
	case target.Point != nil:
		ctl = d.controlAt(*target.Point)
	}

	d.records = append(d.records, Record{Action: action, Target: target, Params: params, At: d.now()})

	var res platform.ActionResult
	switch action {
	case platform.ActionSetText:
		if ctl == nil {
			return res, fmt.Errorf("set_text needs an element")
		}
		ctl.Text = params.Text
	case platform.ActionTypeText:
		// Typing at a point or into the focused window lands on whatever is there.
		if ctl != nil {
			ctl.Text += params.Text
		}
	case platform.ActionGetText:
		if ctl == nil {
			return res, fmt.Errorf("get_text needs an element")
		}
		res.Text = ctl.Text
		if res.Text == "" {
			res.Text = ctl.Label
		}
	case platform.ActionGetValue:
		if ctl == nil {
			return res, fmt.Errorf("get_value needs an element")
		}
		res.Text = ctl.Value
	case platform.ActionQueryState:
		if ctl == nil {
			return res, fmt.Errorf("query_state needs an element")
		}
		res.Visible = !ctl.Hidden
		res.Enabled = !ctl.Disabled
	}
	return res, nil
}

// controlAt finds the topmost control containing p in the focused window.
func (d *Desktop) controlAt(p model.Point) *ControlSpec {
	for i := range d.windows {
		w := &d.windows[i]
		if !w.Focused {
			continue
		}
		for j := len(w.Controls) - 1; j >= 0; j-- {
			if r := w.Controls[j].Rect; r != nil && r.Contains(p) {
				return &w.Controls[j]
			}
		}
	}
	return nil
}

// CaptureWindow returns the window's fixture screenshot, or renders one
// with every control rect outlined.
func (d *Desktop) CaptureWindow(ctx context.Context, window model.Window) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w := d.window(window.Handle)
	if w == nil {
		return nil, fmt.Errorf("window %d not found", window.Handle)
	}
	if w.Screenshot != "" {
		data, err := os.ReadFile(w.Screenshot)
		if err != nil {
			return nil, fmt.Errorf("read screenshot: %w", err)
		}
		return data, nil
	}
	return render(*w)
}

func render(w WindowSpec) ([]byte, error) {
	width, height := w.Rect.Width(), w.Rect.Height()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("window %d has an empty rect", w.Handle)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{R: 245, G: 245, B: 245, A: 255}
	fg := color.RGBA{R: 60, G: 60, B: 60, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, bg)
		}
	}
	for _, c := range w.Controls {
		if c.Rect == nil || strings.EqualFold(c.Type, "Window") {
			continue
		}
		r := c.Rect.Translate(-w.Rect.Left(), -w.Rect.Top())
		outline(img, image.Rect(r[0], r[1], r[2], r[3]), fg)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
