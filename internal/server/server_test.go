package server

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mj1618/deskctl/internal/detect"
	"github.com/mj1618/deskctl/internal/dispatch"
	"github.com/mj1618/deskctl/internal/platform/replay"
	"github.com/mj1618/deskctl/internal/session"
	"github.com/sirupsen/logrus/hooks/test"
)

const fixtureYAML = `
windows:
  - handle: 101
    title: "Untitled - Notepad"
    process: notepad
    rect: [0, 0, 400, 300]
    focused: true
    controls:
      - id: save
        type: Button
        label: Save
        rect: [300, 0, 360, 20]
  - handle: 202
    title: "Book1 - Excel"
    process: excel
    rect: [0, 0, 400, 300]
    controls:
      - id: grid
        type: DataGrid
        label: Sheet1
        rect: [0, 20, 400, 300]
`

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	fx, err := replay.ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	sess, err := session.New(session.Options{
		Name:           "mcp",
		Provider:       replay.New(fx).Provider(),
		DetectorConfig: detect.DefaultConfig(),
		Log:            log,
	})
	if err != nil {
		t.Fatal(err)
	}
	d := dispatch.New(sess, dispatch.Options{Log: log, ScreenshotDir: t.TempDir()})
	return New(d, "test", log), sess
}

func call(t *testing.T, s *Server, command string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Name = ToolName(command)
	req.Params.Arguments = args
	res, err := s.handler(command)(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func text(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestToolName(t *testing.T) {
	if got := ToolName("click-at"); got != "click_at" {
		t.Errorf("ToolName = %q", got)
	}
}

func TestHandler_StateAndClick(t *testing.T) {
	s, _ := newTestServer(t)

	res := call(t, s, "state", nil)
	if res.IsError {
		t.Fatalf("state failed: %s", text(res))
	}
	if !strings.Contains(text(res), "label: Save") {
		t.Errorf("state text = %s", text(res))
	}

	res = call(t, s, "click", map[string]interface{}{"index": float64(1), "return_state": true})
	if res.IsError {
		t.Fatalf("click failed: %s", text(res))
	}
	if !strings.Contains(text(res), "state:") {
		t.Errorf("return_state missing: %s", text(res))
	}
}

func TestHandler_ErrorCarriesKind(t *testing.T) {
	s, _ := newTestServer(t)
	call(t, s, "state", nil)
	res := call(t, s, "click", map[string]interface{}{"index": float64(42)})
	if !res.IsError {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(text(res), "kind: resolution") {
		t.Errorf("error text = %s", text(res))
	}
}

func TestHandler_WindowOverrideAndFocus(t *testing.T) {
	s, sess := newTestServer(t)
	res := call(t, s, "state", map[string]interface{}{"window": "excel"})
	if res.IsError {
		t.Fatalf("state failed: %s", text(res))
	}
	if w, _ := sess.Window(); w.Handle != 202 {
		t.Errorf("bound %d, want 202", w.Handle)
	}

	res = call(t, s, "focus", map[string]interface{}{"window": "notepad"})
	if res.IsError {
		t.Fatalf("focus failed: %s", text(res))
	}
	if w, _ := sess.Window(); w.Handle != 101 {
		t.Errorf("bound %d, want 101", w.Handle)
	}
}

func TestHandler_ScreenshotAttachesImage(t *testing.T) {
	s, _ := newTestServer(t)
	res := call(t, s, "screenshot", nil)
	if res.IsError {
		t.Fatalf("screenshot failed: %s", text(res))
	}
	var found bool
	for _, c := range res.Content {
		if img, ok := c.(mcp.ImageContent); ok && img.MIMEType == "image/png" && img.Data != "" {
			found = true
		}
	}
	if !found {
		t.Error("screenshot result has no image content")
	}
}

func TestToolParams_NewCommands(t *testing.T) {
	tests := []struct {
		command  string
		props    []string
		required []string
	}{
		{"select", []string{"index", "value", "return_state"}, []string{"index", "value"}},
		{"launch", []string{"app", "return_state"}, []string{"app"}},
		{"close", []string{"window"}, nil},
		{"wait", []string{"seconds", "visible", "enabled", "timeout"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			tool := mcp.NewTool(ToolName(tt.command), toolParams(tt.command)...)
			for _, p := range tt.props {
				if _, ok := tool.InputSchema.Properties[p]; !ok {
					t.Errorf("missing parameter %q", p)
				}
			}
			if strings.Join(tool.InputSchema.Required, ",") != strings.Join(tt.required, ",") {
				t.Errorf("required = %v, want %v", tool.InputSchema.Required, tt.required)
			}
		})
	}
}

func TestHandler_WaitAndClose(t *testing.T) {
	s, sess := newTestServer(t)
	call(t, s, "state", nil)

	res := call(t, s, "wait", map[string]interface{}{"enabled": float64(1), "timeout": float64(0)})
	if res.IsError {
		t.Fatalf("wait failed: %s", text(res))
	}
	if !strings.Contains(text(res), "condition: enabled") {
		t.Errorf("wait text = %s", text(res))
	}

	res = call(t, s, "close", map[string]interface{}{"window": "excel"})
	if res.IsError {
		t.Fatalf("close failed: %s", text(res))
	}
	if !strings.Contains(text(res), "Book1 - Excel") || sess.State() != session.Uninitialized {
		t.Errorf("close text = %s, state %s", text(res), sess.State())
	}
}

func TestSplitFlags(t *testing.T) {
	args, flags := splitFlags("state", map[string]interface{}{
		"window": "excel", "visual": true, "verbose": true, "text": "Save",
	})
	if flags.Window != "excel" || flags.Visual == nil || !*flags.Visual || flags.Structural != nil || !flags.Verbose {
		t.Errorf("flags = %+v", flags)
	}
	if len(args) != 1 || args["text"] != "Save" {
		t.Errorf("args = %v", args)
	}

	args, flags = splitFlags("focus", map[string]interface{}{"window": "excel"})
	if flags.Window != "" || args["window"] != "excel" {
		t.Errorf("focus: args = %v, flags = %+v", args, flags)
	}
}
