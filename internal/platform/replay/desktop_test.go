package replay

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
)

func loadDesktop(t *testing.T) *Desktop {
	t.Helper()
	fx, err := LoadFixture("testdata/notepad.yaml")
	if err != nil {
		t.Fatal(err)
	}
	return New(fx)
}

func TestParseFixture_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing handle", "windows:\n  - title: x\n"},
		{"duplicate handle", "windows:\n  - handle: 1\n  - handle: 1\n"},
		{"control without id", "windows:\n  - handle: 1\n    controls:\n      - label: x\n"},
		{"duplicate control id", "windows:\n  - handle: 1\n    controls:\n      - id: a\n      - id: a\n"},
		{"bad yaml", "windows: [\n"},
		{"app reuses window handle", "windows:\n  - handle: 1\napps:\n  calc:\n    handle: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFixture([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDesktop_ListAndEnumerate(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()

	windows, err := d.ListWindows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(windows) != 2 || windows[0].Title != "Untitled - Notepad" {
		t.Fatalf("unexpected windows: %+v", windows)
	}

	controls, err := d.Enumerate(ctx, windows[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(controls) != 3 {
		t.Fatalf("expected 3 controls, got %d", len(controls))
	}
	if controls[2].Type != "Text" {
		t.Errorf("AX role should map to a category, got %q", controls[2].Type)
	}
	if controls[1].Handle.HandleID() != "101/editor" {
		t.Errorf("handle id = %q", controls[1].Handle.HandleID())
	}
}

func TestDesktop_PerformOnHandle(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()
	editor := platform.Target{Handle: Handle{Window: 101, Control: "editor"}}

	if _, err := d.Perform(ctx, editor, platform.ActionSetText, platform.ActionParams{Text: "new text"}); err != nil {
		t.Fatal(err)
	}
	res, err := d.Perform(ctx, editor, platform.ActionGetText, platform.ActionParams{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "new text" {
		t.Errorf("get_text = %q, want %q", res.Text, "new text")
	}
	if got := len(d.Records()); got != 2 {
		t.Errorf("records = %d, want 2", got)
	}
}

func TestDesktop_PerformAtPoint(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()
	p := model.Point{X: 10, Y: 100}

	if _, err := d.Perform(ctx, platform.Target{Point: &p}, platform.ActionTypeText, platform.ActionParams{Text: " world"}); err != nil {
		t.Fatal(err)
	}
	c, _ := d.Control(101, "editor")
	if c.Text != "hello world" {
		t.Errorf("editor text = %q", c.Text)
	}
}

func TestDesktop_StaleHandle(t *testing.T) {
	d := loadDesktop(t)
	if err := d.SetControls(101, nil); err != nil {
		t.Fatal(err)
	}
	_, err := d.Perform(context.Background(), platform.Target{Handle: Handle{Window: 101, Control: "editor"}}, platform.ActionClick, platform.ActionParams{})
	if err == nil {
		t.Error("expected error for a control that disappeared")
	}
}

func TestDesktop_Faults(t *testing.T) {
	fx, err := ParseFixture([]byte("windows:\n  - handle: 1\n    title: w\nfaults:\n  enumerate: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	d := New(fx)
	w := model.Window{Handle: 1}
	_, err = d.Enumerate(context.Background(), w)
	if !model.IsKind(err, model.KindTransientSubsystem) {
		t.Fatalf("first enumerate error = %v, want transient", err)
	}
	if _, err := d.Enumerate(context.Background(), w); err != nil {
		t.Errorf("second enumerate should succeed, got %v", err)
	}
}

func TestDesktop_ActivateAndCapture(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()
	excel := model.Window{Handle: 202}
	if err := d.Activate(ctx, excel); err != nil {
		t.Fatal(err)
	}
	windows, _ := d.ListWindows(ctx)
	if windows[0].Focused || !windows[1].Focused {
		t.Errorf("focus not moved: %+v", windows)
	}

	data, err := d.CaptureWindow(ctx, excel)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 1000 || img.Bounds().Dy() != 800 {
		t.Errorf("screenshot size = %v, want 1000x800", img.Bounds())
	}
}

func TestRegisteredBackend(t *testing.T) {
	p, err := platform.NewProvider("replay", platform.Options{Fixture: "testdata/notepad.yaml"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Accessor == nil || p.Executor == nil || p.WindowManager == nil || p.Screenshotter == nil {
		t.Error("replay provider is incomplete")
	}
	if _, err := platform.NewProvider("replay", platform.Options{}); err == nil {
		t.Error("expected error without a fixture")
	}
}

func TestDesktop_LaunchAndClose(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()

	if err := d.Launch(ctx, `C:\Windows\System32\Calc.exe`); err != nil {
		t.Fatal(err)
	}
	windows, _ := d.ListWindows(ctx)
	if len(windows) != 3 {
		t.Fatalf("expected the launched window to be listed, got %+v", windows)
	}
	calc := windows[2]
	if calc.Title != "Calculator" || !calc.Focused || windows[0].Focused {
		t.Errorf("launched window should be the only focused one: %+v", windows)
	}

	// A second launch focuses the open window instead of opening another.
	if err := d.Launch(ctx, "calc"); err != nil {
		t.Fatal(err)
	}
	if windows, _ := d.ListWindows(ctx); len(windows) != 3 {
		t.Errorf("relaunch opened a duplicate window: %d windows", len(windows))
	}
	if err := d.Launch(ctx, "paint"); err == nil {
		t.Error("expected error for an app the fixture does not know")
	}

	if err := d.Close(ctx, calc); err != nil {
		t.Fatal(err)
	}
	if windows, _ := d.ListWindows(ctx); len(windows) != 2 {
		t.Errorf("closed window still listed: %+v", windows)
	}
	if err := d.Close(ctx, calc); err == nil {
		t.Error("closing a closed window should fail")
	}
}

func TestDesktop_QueryState(t *testing.T) {
	d := loadDesktop(t)
	ctx := context.Background()
	if err := d.Launch(ctx, "calc"); err != nil {
		t.Fatal(err)
	}
	query := func(id string) platform.ActionResult {
		t.Helper()
		res, err := d.Perform(ctx, platform.Target{Handle: Handle{Window: 303, Control: id}}, platform.ActionQueryState, platform.ActionParams{})
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	if res := query("display"); !res.Visible || !res.Enabled {
		t.Errorf("display = %+v, want visible and enabled", res)
	}
	if res := query("equals"); !res.Visible || res.Enabled {
		t.Errorf("equals = %+v, want visible and disabled", res)
	}
	if err := d.SetControlState(303, "equals", false, true); err != nil {
		t.Fatal(err)
	}
	if res := query("equals"); res.Visible || !res.Enabled {
		t.Errorf("equals = %+v, want hidden and enabled", res)
	}
	if err := d.SetControlState(303, "missing", true, true); err == nil {
		t.Error("expected error for an unknown control")
	}
}
