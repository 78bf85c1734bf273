package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mj1618/deskctl/internal/annotate"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/mj1618/deskctl/internal/protocol"
)

func (d *Dispatcher) table() map[string]command {
	return map[string]command{
		"state":      {run: d.state, needs: needsWindow, help: "Detect elements in the bound window"},
		"windows":    {run: d.windows, help: "List top-level windows"},
		"focus":      {run: d.focus, help: "Bind a window by handle, title or process"},
		"launch":     {run: d.launch, mutates: true, help: "Start an application and bind its window"},
		"close":      {run: d.closeWindow, needs: needsWindow, help: "Close the bound window"},
		"inspect":    {run: d.inspect, needs: needsState, help: "Show one element"},
		"get-rect":   {run: d.inspect, needs: needsState, help: "Show an element's rect"},
		"get-text":   {run: d.read(platform.ActionGetText), needs: needsState, help: "Read an element's text"},
		"get-value":  {run: d.read(platform.ActionGetValue), needs: needsState, help: "Read an element's value"},
		"screenshot": {run: d.screenshot, needs: needsWindow, help: "Capture the bound window"},
		"click":      {run: d.click, needs: needsState, mutates: true, help: "Click an element"},
		"dblclick":   {run: d.indexed(platform.ActionDoubleClick), needs: needsState, mutates: true, help: "Double-click an element"},
		"rightclick": {run: d.indexed(platform.ActionRightClick), needs: needsState, mutates: true, help: "Right-click an element"},
		"input":      {run: d.input, needs: needsState, mutates: true, help: "Replace an element's text"},
		"select":     {run: d.selectValue, needs: needsState, mutates: true, help: "Open a list or combo box and pick a value"},
		"scroll":     {run: d.scroll, needs: needsState, mutates: true, help: "Scroll an element"},
		"drag":       {run: d.drag, needs: needsState, mutates: true, help: "Drag from an element to a point"},
		"keys":       {run: d.keys, needs: needsWindow, mutates: true, help: "Send a key combo"},
		"type":       {run: d.typeText, needs: needsWindow, mutates: true, help: "Type text into the focused element"},
		"click-at":   {run: d.clickAt, needs: needsWindow, mutates: true, help: "Click at screen coordinates"},
		"drag-at":    {run: d.dragAt, needs: needsWindow, mutates: true, help: "Drag between screen coordinates"},
		"wait":       {run: d.wait, help: "Pause, or wait for an element to become visible or enabled"},
	}
}

func badArgs(op string, err error) error {
	return model.NewError(model.KindConfiguration, op, err)
}

func (d *Dispatcher) state(ctx context.Context, req protocol.Request) (any, error) {
	snap, err := d.session.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	st := protocol.NewState(snap, d.session.DetectorConfig().String(), req.Flags.Verbose)
	if text := protocol.StringParam(req.Args, "text", ""); text != "" {
		st.Elements = model.FilterByText(st.Elements, text)
	}
	if types := protocol.StringParam(req.Args, "type", ""); types != "" {
		st.Elements = model.FilterByType(st.Elements, strings.Split(types, ","))
	}
	if protocol.BoolParam(req.Args, "diff", false) {
		diff := model.DiffSnapshots(d.session.Previous(), snap)
		st.Diff = &diff
	}
	return st, nil
}

func (d *Dispatcher) windows(ctx context.Context, req protocol.Request) (any, error) {
	windows, err := d.session.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	out := protocol.Windows{Windows: windows}
	if w, ok := d.session.Window(); ok {
		out.Bound = w.Handle
	}
	return out, nil
}

func (d *Dispatcher) focus(ctx context.Context, req protocol.Request) (any, error) {
	target := protocol.StringParam(req.Args, "window", "")
	if target == "" {
		return nil, badArgs("focus", fmt.Errorf("missing window identifier"))
	}
	w, err := d.session.Focus(ctx, target)
	if err != nil {
		return nil, err
	}
	return protocol.Focused{Window: w}, nil
}

func (d *Dispatcher) launch(ctx context.Context, req protocol.Request) (any, error) {
	app := protocol.StringParam(req.Args, "app", "")
	if app == "" {
		return nil, badArgs("launch", fmt.Errorf("missing application"))
	}
	w, err := d.session.Launch(ctx, app)
	if err != nil {
		return nil, err
	}
	return protocol.Launched{App: app, Window: w}, nil
}

func (d *Dispatcher) closeWindow(ctx context.Context, req protocol.Request) (any, error) {
	w, err := d.session.Close(ctx)
	if err != nil {
		return nil, err
	}
	return protocol.Closed{Window: w}, nil
}

func (d *Dispatcher) inspect(ctx context.Context, req protocol.Request) (any, error) {
	index, err := protocol.RequireInt(req.Args, "index")
	if err != nil {
		return nil, badArgs(req.Command, err)
	}
	target, err := d.session.Resolve(index)
	if err != nil {
		return nil, err
	}
	out := protocol.Inspected{Element: target.Element, HasHandle: target.HasHandle()}
	if target.HasHandle() {
		out.HandleID = target.Handle.HandleID()
	}
	if r := target.Element.Rect; r != nil {
		c := r.Center()
		out.Center = &c
	}
	return out, nil
}

func (d *Dispatcher) perform(ctx context.Context, req protocol.Request, action platform.Action, params platform.ActionParams) (any, error) {
	index, err := protocol.RequireInt(req.Args, "index")
	if err != nil {
		return nil, badArgs(req.Command, err)
	}
	out, err := d.session.Execute(ctx, index, action, params)
	if err != nil {
		return nil, err
	}
	return protocol.Acted{
		Action:   string(action),
		Index:    out.Index,
		Label:    out.Element.Label,
		Fallback: out.Fallback,
		Point:    out.Point,
		Text:     out.Text,
	}, nil
}

func (d *Dispatcher) indexed(action platform.Action) func(context.Context, protocol.Request) (any, error) {
	return func(ctx context.Context, req protocol.Request) (any, error) {
		return d.perform(ctx, req, action, platform.ActionParams{})
	}
}

func (d *Dispatcher) read(action platform.Action) func(context.Context, protocol.Request) (any, error) {
	return d.indexed(action)
}

func (d *Dispatcher) click(ctx context.Context, req protocol.Request) (any, error) {
	return d.perform(ctx, req, clickAction(req.Args), platform.ActionParams{})
}

func clickAction(args map[string]any) platform.Action {
	switch {
	case protocol.BoolParam(args, "double", false):
		return platform.ActionDoubleClick
	case protocol.BoolParam(args, "right", false):
		return platform.ActionRightClick
	default:
		return platform.ActionClick
	}
}

func (d *Dispatcher) input(ctx context.Context, req protocol.Request) (any, error) {
	text, ok := req.Args["text"]
	if !ok {
		return nil, badArgs("input", fmt.Errorf("missing text"))
	}
	return d.perform(ctx, req, platform.ActionSetText, platform.ActionParams{Text: fmt.Sprint(text)})
}

// selectPause lets a list or combo box open between the click and the write.
const selectPause = 300 * time.Millisecond

func (d *Dispatcher) selectValue(ctx context.Context, req protocol.Request) (any, error) {
	index, err := protocol.RequireInt(req.Args, "index")
	if err != nil {
		return nil, badArgs("select", err)
	}
	value, ok := req.Args["value"]
	if !ok {
		return nil, badArgs("select", fmt.Errorf("missing value"))
	}
	if _, err := d.session.Execute(ctx, index, platform.ActionClick, platform.ActionParams{}); err != nil {
		return nil, err
	}
	if err := d.sleep(ctx, selectPause); err != nil {
		return nil, err
	}
	out, err := d.session.Execute(ctx, index, platform.ActionSetText, platform.ActionParams{Text: fmt.Sprint(value)})
	if err != nil {
		return nil, err
	}
	return protocol.Acted{
		Action:   "select",
		Index:    out.Index,
		Label:    out.Element.Label,
		Fallback: out.Fallback,
		Point:    out.Point,
		Text:     fmt.Sprint(value),
	}, nil
}

func (d *Dispatcher) scroll(ctx context.Context, req protocol.Request) (any, error) {
	dir, err := platform.ParseScrollDirection(protocol.StringParam(req.Args, "direction", "down"))
	if err != nil {
		return nil, badArgs("scroll", err)
	}
	amount := protocol.IntParam(req.Args, "amount", 3)
	if amount <= 0 {
		return nil, badArgs("scroll", fmt.Errorf("amount must be positive, got %d", amount))
	}
	return d.perform(ctx, req, platform.ActionScroll, platform.ActionParams{Direction: dir, Amount: amount})
}

func dragParams(args map[string]any, x2, y2 int) (platform.ActionParams, error) {
	button, err := platform.ParseMouseButton(protocol.StringParam(args, "button", "left"))
	if err != nil {
		return platform.ActionParams{}, err
	}
	dur := time.Duration(protocol.FloatParam(args, "duration", 0.5) * float64(time.Second))
	return platform.ActionParams{To: &model.Point{X: x2, Y: y2}, Button: button, Duration: dur}, nil
}

func requirePoint(args map[string]any, xKey, yKey string) (model.Point, error) {
	x, err := protocol.RequireInt(args, xKey)
	if err != nil {
		return model.Point{}, err
	}
	y, err := protocol.RequireInt(args, yKey)
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{X: x, Y: y}, nil
}

func (d *Dispatcher) drag(ctx context.Context, req protocol.Request) (any, error) {
	to, err := requirePoint(req.Args, "x2", "y2")
	if err != nil {
		return nil, badArgs("drag", err)
	}
	params, err := dragParams(req.Args, to.X, to.Y)
	if err != nil {
		return nil, badArgs("drag", err)
	}
	return d.perform(ctx, req, platform.ActionDrag, params)
}

func (d *Dispatcher) keys(ctx context.Context, req protocol.Request) (any, error) {
	keys, err := platform.ParseKeyCombo(protocol.StringParam(req.Args, "keys", ""))
	if err != nil {
		return nil, badArgs("keys", err)
	}
	params := platform.ActionParams{Keys: keys}
	if _, ok := req.Args["target"]; ok {
		if err := d.ensure(ctx, needsState); err != nil {
			return nil, err
		}
		args := map[string]any{"index": req.Args["target"]}
		return d.perform(ctx, protocol.Request{Command: req.Command, Args: args}, platform.ActionKeys, params)
	}
	if _, err := d.session.ExecuteGlobal(ctx, platform.ActionKeys, params); err != nil {
		return nil, err
	}
	return protocol.Acted{Action: string(platform.ActionKeys), Text: strings.Join(keys, "+")}, nil
}

func (d *Dispatcher) typeText(ctx context.Context, req protocol.Request) (any, error) {
	text := protocol.StringParam(req.Args, "text", "")
	if text == "" {
		return nil, badArgs("type", fmt.Errorf("missing text"))
	}
	if _, err := d.session.ExecuteGlobal(ctx, platform.ActionTypeText, platform.ActionParams{Text: text}); err != nil {
		return nil, err
	}
	return protocol.Acted{Action: string(platform.ActionTypeText)}, nil
}

func (d *Dispatcher) clickAt(ctx context.Context, req protocol.Request) (any, error) {
	p, err := requirePoint(req.Args, "x", "y")
	if err != nil {
		return nil, badArgs("click-at", err)
	}
	action := clickAction(req.Args)
	if _, err := d.session.ExecuteAt(ctx, p, action, platform.ActionParams{}); err != nil {
		return nil, err
	}
	return protocol.Acted{Action: string(action), Point: &p}, nil
}

func (d *Dispatcher) dragAt(ctx context.Context, req protocol.Request) (any, error) {
	from, err := requirePoint(req.Args, "x1", "y1")
	if err != nil {
		return nil, badArgs("drag-at", err)
	}
	to, err := requirePoint(req.Args, "x2", "y2")
	if err != nil {
		return nil, badArgs("drag-at", err)
	}
	params, err := dragParams(req.Args, to.X, to.Y)
	if err != nil {
		return nil, badArgs("drag-at", err)
	}
	if _, err := d.session.ExecuteAt(ctx, from, platform.ActionDrag, params); err != nil {
		return nil, err
	}
	return protocol.Acted{Action: string(platform.ActionDrag), Point: &from}, nil
}

// Element waits poll every waitPoll until the timeout runs out.
const (
	waitPoll           = 500 * time.Millisecond
	defaultWaitTimeout = 10.0
)

func (d *Dispatcher) wait(ctx context.Context, req protocol.Request) (any, error) {
	_, visible := req.Args["visible"]
	_, enabled := req.Args["enabled"]
	switch {
	case visible && enabled:
		return nil, badArgs("wait", fmt.Errorf("wait for visible or enabled, not both"))
	case visible:
		return d.waitFor(ctx, req, "visible")
	case enabled:
		return d.waitFor(ctx, req, "enabled")
	}

	secs := protocol.FloatParam(req.Args, "seconds", 1)
	if secs < 0 {
		return nil, badArgs("wait", fmt.Errorf("seconds must not be negative"))
	}
	if err := d.sleep(ctx, time.Duration(secs*float64(time.Second))); err != nil {
		return nil, err
	}
	return protocol.Waited{Seconds: secs}, nil
}

// waitFor polls the element named by the condition argument until it is
// visible or enabled. The snapshot is not refreshed, so the index keeps
// pointing at the same element.
func (d *Dispatcher) waitFor(ctx context.Context, req protocol.Request, condition string) (any, error) {
	index, err := protocol.RequireInt(req.Args, condition)
	if err != nil {
		return nil, badArgs("wait", err)
	}
	timeout := protocol.FloatParam(req.Args, "timeout", defaultWaitTimeout)
	if timeout < 0 {
		return nil, badArgs("wait", fmt.Errorf("timeout must not be negative"))
	}
	if err := d.ensure(ctx, needsState); err != nil {
		return nil, err
	}

	met := func() (bool, error) {
		out, err := d.session.Execute(ctx, index, platform.ActionQueryState, platform.ActionParams{})
		if err != nil {
			return false, err
		}
		if condition == "visible" {
			return out.Visible, nil
		}
		return out.Enabled, nil
	}

	waited := 0.0
	for {
		ok, err := met()
		if err != nil {
			return nil, err
		}
		if ok {
			return protocol.Waited{Seconds: waited, Index: index, Condition: condition}, nil
		}
		if waited >= timeout {
			return nil, model.Errorf(model.KindAction, "wait", "element %d not %s after %gs", index, condition, timeout)
		}
		if err := d.sleep(ctx, waitPoll); err != nil {
			return nil, err
		}
		waited += waitPoll.Seconds()
	}
}

func (d *Dispatcher) screenshot(ctx context.Context, req protocol.Request) (any, error) {
	data, err := d.session.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewError(model.KindAction, "screenshot", fmt.Errorf("decode: %w", err))
	}

	annotated := protocol.BoolParam(req.Args, "annotated", false)
	if annotated {
		if err := d.ensure(ctx, needsState); err != nil {
			return nil, err
		}
		snap := d.session.Snapshot()
		img = annotate.Draw(img, snap.Elements(), snap.Window().Rect)
	}

	path := protocol.StringParam(req.Args, "path", "")
	if path == "" {
		name := fmt.Sprintf("deskctl-%s-%d.png", safeName(d.session.Name()), time.Now().UnixMilli())
		path = filepath.Join(d.opts.ScreenshotDir, name)
	}
	if err := writePNG(path, img); err != nil {
		return nil, model.NewError(model.KindAction, "screenshot", err)
	}
	b := img.Bounds()
	return protocol.Screenshot{Path: path, Annotated: annotated, Width: b.Dx(), Height: b.Dy()}, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func safeName(s string) string {
	if s == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
