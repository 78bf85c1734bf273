package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mj1618/deskctl/internal/detect"
	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/mj1618/deskctl/internal/platform/replay"
	"github.com/mj1618/deskctl/internal/reasoning"
	"github.com/sirupsen/logrus/hooks/test"
)

const fixtureYAML = `
windows:
  - handle: 101
    title: "Untitled - Notepad"
    process: notepad
    pid: 4242
    rect: [0, 0, 800, 600]
    focused: true
    controls:
      - id: menu-file
        type: MenuItem
        label: File
        rect: [0, 0, 40, 20]
      - id: editor
        type: Edit
        label: Text editor
        rect: [0, 40, 800, 580]
        text: hello
  - handle: 202
    title: "Book1 - Excel"
    process: excel
    pid: 5151
    rect: [100, 100, 1100, 900]
    controls:
      - id: grid
        type: DataGrid
        label: Sheet1
        rect: [100, 150, 1100, 880]
apps:
  calc:
    handle: 303
    title: Calculator
    process: calc
    pid: 6161
    rect: [200, 200, 520, 700]
    controls:
      - id: display
        type: Text
        label: Display
        rect: [210, 210, 510, 260]
`

func newDesktop(t *testing.T) *replay.Desktop {
	t.Helper()
	fx, err := replay.ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatal(err)
	}
	return replay.New(fx)
}

func newSession(t *testing.T, desk *replay.Desktop, deps detect.Deps, cfg detect.Config) *Session {
	t.Helper()
	log, _ := test.NewNullLogger()
	s, err := New(Options{
		Name:           "test",
		Provider:       desk.Provider(),
		Detectors:      deps,
		DetectorConfig: cfg,
		Log:            log,
		Now:            func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, newDesktop(t), detect.Deps{}, detect.DefaultConfig())

	if s.State() != Uninitialized {
		t.Fatalf("state = %s, want uninitialized", s.State())
	}
	if _, err := s.Refresh(ctx); !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("refresh without window: %v", err)
	}
	if _, err := s.Execute(ctx, 1, platform.ActionClick, platform.ActionParams{}); !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("execute without state: %v", err)
	}

	w, err := s.Focus(ctx, "excel")
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 202 || s.State() != Bound {
		t.Fatalf("focus bound %d in state %s", w.Handle, s.State())
	}

	snap, err := s.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != Ready || snap.Len() != 1 {
		t.Fatalf("state %s with %d elements", s.State(), snap.Len())
	}

	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	if s.State() != Bound || s.Snapshot() != nil {
		t.Error("focus must invalidate the snapshot")
	}
}

func TestSession_FocusNoMatch(t *testing.T) {
	s := newSession(t, newDesktop(t), detect.Deps{}, detect.DefaultConfig())
	_, err := s.Focus(context.Background(), "calculator")
	if !model.IsKind(err, model.KindResolution) {
		t.Errorf("error = %v, want resolution", err)
	}
	if s.State() != Uninitialized {
		t.Errorf("failed focus changed state to %s", s.State())
	}
}

func TestSession_FocusExactHandleWins(t *testing.T) {
	s := newSession(t, newDesktop(t), detect.Deps{}, detect.DefaultConfig())
	w, err := s.Focus(context.Background(), "202")
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 202 {
		t.Errorf("bound %d, want 202", w.Handle)
	}
}

func TestSession_FocusForegroundRaisesWindow(t *testing.T) {
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())
	w, err := s.FocusForeground(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 101 {
		t.Errorf("foreground = %d, want 101", w.Handle)
	}

	if _, err := s.Focus(context.Background(), "excel"); err != nil {
		t.Fatal(err)
	}
	windows, _ := desk.ListWindows(context.Background())
	if !windows[1].Focused {
		t.Error("focus should activate the window")
	}
}

func TestSession_ExecuteOnHandle(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	out, err := s.Execute(ctx, 2, platform.ActionSetText, platform.ActionParams{Text: "typed"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Fallback {
		t.Error("native element should not fall back to coordinates")
	}
	c, _ := desk.Control(101, "editor")
	if c.Text != "typed" {
		t.Errorf("editor text = %q", c.Text)
	}

	out, err = s.Execute(ctx, 2, platform.ActionGetText, platform.ActionParams{})
	if err != nil || out.Text != "typed" {
		t.Errorf("get_text = %q, %v", out.Text, err)
	}

	if err := desk.SetControlState(101, "editor", true, false); err != nil {
		t.Fatal(err)
	}
	out, err = s.Execute(ctx, 2, platform.ActionQueryState, platform.ActionParams{})
	if err != nil || !out.Visible || out.Enabled {
		t.Errorf("query_state = visible %v enabled %v, %v", out.Visible, out.Enabled, err)
	}
}

func TestSession_ExecuteStaleIndex(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := desk.SetControls(101, []replay.ControlSpec{{ID: "only", Type: "Button", Label: "OK"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	_, err := s.Execute(ctx, 2, platform.ActionClick, platform.ActionParams{})
	if !model.IsKind(err, model.KindResolution) {
		t.Errorf("error = %v, want resolution", err)
	}
}

func visionDeps(resp string) detect.Deps {
	return detect.Deps{
		VisionReasoner: reasoning.Func(func(ctx context.Context, p reasoning.Prompt) (string, error) {
			return resp, nil
		}),
	}
}

func TestSession_ExecuteFallback(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	cfg := detect.DefaultConfig()
	cfg.Visual = true
	// The rendered screenshot is 800x600 at offset 0,0 so image and screen
	// coordinates coincide.
	s := newSession(t, desk, visionDeps(`[{"label": "Splitter", "type": "Splitter", "rect": [700, 590, 710, 600]}]`), cfg)
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 3 {
		t.Fatalf("expected 2 native + 1 visual, got %d", snap.Len())
	}

	out, err := s.Execute(ctx, 3, platform.ActionDoubleClick, platform.ActionParams{})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Fallback || *out.Point != (model.Point{X: 705, Y: 595}) {
		t.Errorf("fallback = %v at %v", out.Fallback, out.Point)
	}
	recs := desk.Records()
	last := recs[len(recs)-1]
	if last.Action != platform.ActionDoubleClick || last.Target.Point == nil {
		t.Errorf("unexpected record %+v", last)
	}

	if _, err := s.Execute(ctx, 3, platform.ActionSetText, platform.ActionParams{Text: "x"}); err != nil {
		t.Fatal(err)
	}
	recs = desk.Records()
	if recs[len(recs)-2].Action != platform.ActionClick || recs[len(recs)-1].Action != platform.ActionTypeText {
		t.Errorf("set_text fallback should click then type, got %s, %s", recs[len(recs)-2].Action, recs[len(recs)-1].Action)
	}

	if _, err := s.Execute(ctx, 3, platform.ActionGetText, platform.ActionParams{}); !model.IsKind(err, model.KindAction) {
		t.Errorf("get_text without handle: %v", err)
	}
	if _, err := s.Execute(ctx, 3, platform.ActionQueryState, platform.ActionParams{}); !model.IsKind(err, model.KindAction) {
		t.Errorf("query_state without handle: %v", err)
	}
}

func TestSession_RefreshFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	before, err := s.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}

	failing := &failingAccessor{Accessor: desk}
	s.provider = &platform.Provider{Accessor: failing, Executor: desk}
	s.deps.Accessor = failing
	if _, err := s.SwitchDetectorConfig(detect.Config{Threshold: 0.2, MinConfidence: 0.7}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); !model.IsKind(err, model.KindHardDetector) {
		t.Fatalf("error = %v, want hard detector", err)
	}
	if s.Snapshot() != before || s.State() != Ready {
		t.Error("failed refresh must leave the snapshot untouched")
	}
}

type failingAccessor struct {
	platform.Accessor
}

func (f *failingAccessor) Enumerate(ctx context.Context, w model.Window) ([]platform.Control, error) {
	return nil, errors.New("element tree unavailable")
}

func TestSession_SwitchDetectorConfig(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, newDesktop(t), visionDeps("[]"), detect.DefaultConfig())
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}

	changed, err := s.SwitchDetectorConfig(detect.DefaultConfig())
	if err != nil || changed {
		t.Errorf("same config: changed=%v err=%v", changed, err)
	}

	cfg := detect.DefaultConfig()
	cfg.Visual = true
	changed, err = s.SwitchDetectorConfig(cfg)
	if err != nil || !changed {
		t.Fatalf("new config: changed=%v err=%v", changed, err)
	}
	if s.Snapshot() != snap {
		t.Error("switching detectors must not invalidate the snapshot")
	}

	cfg.Structural = true
	if _, err := s.SwitchDetectorConfig(cfg); !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("structural without reasoner: %v", err)
	}
	if s.DetectorConfig().Structural {
		t.Error("failed switch must keep the old config")
	}
}

func TestSession_PreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, newDesktop(t), detect.Deps{}, detect.DefaultConfig())
	if _, err := s.Focus(ctx, "notepad"); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Refresh(ctx)
	if s.Previous() != nil {
		t.Error("no previous snapshot expected after first refresh")
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if s.Previous() != first {
		t.Error("previous should be the replaced snapshot")
	}
	if _, err := s.Focus(ctx, "excel"); err != nil {
		t.Fatal(err)
	}
	if s.Previous() != nil {
		t.Error("binding another window should drop the previous snapshot")
	}
}

func TestSession_ExecuteAtRequiresWindow(t *testing.T) {
	s := newSession(t, newDesktop(t), detect.Deps{}, detect.DefaultConfig())
	_, err := s.ExecuteAt(context.Background(), model.Point{X: 1, Y: 1}, platform.ActionClick, platform.ActionParams{})
	if !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("error = %v, want configuration", err)
	}
}

func TestSession_LaunchBindsWindow(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())

	w, err := s.Launch(ctx, `C:\Windows\System32\calc.exe`)
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 303 || s.State() != Bound {
		t.Fatalf("launch bound %d in state %s", w.Handle, s.State())
	}
	snap, err := s.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != 1 {
		t.Errorf("calculator has %d elements, want 1", snap.Len())
	}

	if _, err := s.Launch(ctx, "paint"); !model.IsKind(err, model.KindAction) {
		t.Errorf("unknown app: %v", err)
	}
	if _, err := s.Launch(ctx, "  "); !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("empty app: %v", err)
	}
}

// silentLauncher starts nothing, so no window ever appears.
type silentLauncher struct {
	platform.WindowManager
	launched []string
}

func (l *silentLauncher) Launch(ctx context.Context, app string) error {
	l.launched = append(l.launched, app)
	return nil
}

func TestSession_LaunchTimeout(t *testing.T) {
	desk := newDesktop(t)
	wm := &silentLauncher{WindowManager: desk}
	log, _ := test.NewNullLogger()
	s, err := New(Options{
		Name:          "test",
		Provider:      &platform.Provider{Accessor: desk, Executor: desk, WindowManager: wm},
		Log:           log,
		LaunchTimeout: 300 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	_, err = s.Launch(context.Background(), "calc")
	if !model.IsKind(err, model.KindAction) {
		t.Fatalf("error = %v, want action", err)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("gave up after %s", elapsed)
	}
	if len(wm.launched) != 1 || s.State() != Uninitialized {
		t.Errorf("launched %v, state %s", wm.launched, s.State())
	}
}

func TestSession_Close(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())

	if _, err := s.Close(ctx); !model.IsKind(err, model.KindConfiguration) {
		t.Errorf("close without window: %v", err)
	}
	if _, err := s.Focus(ctx, "excel"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	w, err := s.Close(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if w.Handle != 202 {
		t.Errorf("closed %d, want 202", w.Handle)
	}
	if s.State() != Uninitialized || s.Snapshot() != nil || s.Previous() != nil {
		t.Errorf("state after close = %s", s.State())
	}
	windows, err := s.ListWindows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 1 || windows[0].Handle != 101 {
		t.Errorf("windows after close = %v", windows)
	}
}

func TestSession_CloseFailureKeepsBinding(t *testing.T) {
	ctx := context.Background()
	desk := newDesktop(t)
	s := newSession(t, desk, detect.Deps{}, detect.DefaultConfig())
	if _, err := s.Focus(ctx, "excel"); err != nil {
		t.Fatal(err)
	}
	if err := desk.Close(ctx, model.Window{Handle: 202}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Close(ctx); !model.IsKind(err, model.KindAction) {
		t.Errorf("closing a vanished window: %v", err)
	}
	if s.State() != Bound {
		t.Errorf("state = %s, want bound", s.State())
	}
}
