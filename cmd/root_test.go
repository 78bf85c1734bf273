package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mj1618/deskctl/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{
		"state", "windows", "focus", "inspect", "get-rect", "get-text", "get-value",
		"screenshot", "click", "dblclick", "rightclick", "input", "type", "keys",
		"scroll", "drag", "click-at", "drag-at", "wait", "daemon", "session", "mcp",
		"select", "launch", "close",
	}
	commands := rootCmd.Commands()

	found := make(map[string]bool)
	for _, c := range commands {
		found[c.Name()] = true
	}

	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func fixturePath(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "internal", "platform", "replay", "testdata", "notepad.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// run executes deskctl in-process and returns what it printed to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("DESKCTL_RUNTIME_DIR", dir)
	t.Setenv("DESKCTL_SCREENSHOT_DIR", dir)
	resetFlags(rootCmd)
	defer func() { output.OutputFormat = output.FormatText }()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	rootCmd.SetArgs(append([]string{"--ephemeral", "--fixture", fixturePath(t)}, args...))
	err := rootCmd.Execute()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), err
}

func TestRun_State(t *testing.T) {
	out, err := run(t, "state")
	if err != nil {
		t.Fatal(err)
	}
	want := "Window: \"Untitled - Notepad\" (notepad)\n" +
		"[1] [MenuItem] \"File\"\n" +
		"[2] [Edit] \"Text editor\"\n" +
		"[3] [Text] \"Ln 1, Col 1\"\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestRun_StateWithWindowAndFilter(t *testing.T) {
	out, err := run(t, "--window", "excel", "--verbose", "state", "--type", "DataGrid")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `[1] [DataGrid] "Sheet1" rect=[100, 150, 1100, 880]`) {
		t.Errorf("got:\n%s", out)
	}
}

func TestRun_Windows(t *testing.T) {
	out, err := run(t, "--format", "json", "windows")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"status":"ok"`) || !strings.Contains(out, "Book1 - Excel") {
		t.Errorf("got:\n%s", out)
	}
}

func TestRun_GetText(t *testing.T) {
	out, err := run(t, "get-text", "2")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello\n" {
		t.Errorf("got %q", out)
	}
}

func TestRun_LaunchAndClose(t *testing.T) {
	out, err := run(t, "launch", "calc.exe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, `Launched: [303] "Calculator" (calc)`) {
		t.Errorf("launch printed %q", out)
	}

	out, err = run(t, "--window", "excel", "close")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, `Closed: [202] "Book1 - Excel" (excel)`) {
		t.Errorf("close printed %q", out)
	}
}

func TestRun_SelectAndWait(t *testing.T) {
	out, err := run(t, "select", "2", "Arial")
	if err != nil {
		t.Fatal(err)
	}
	if out != "OK: select [2] \"Text editor\" Arial\n" {
		t.Errorf("select printed %q", out)
	}

	out, err = run(t, "wait", "--enabled", "2", "--timeout", "0")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Element [2] is enabled (after 0s)\n" {
		t.Errorf("wait printed %q", out)
	}
}

func TestRun_ErrorResponseFails(t *testing.T) {
	_, err := run(t, "click", "99")
	if err == nil {
		t.Fatal("expected an error for an unknown index")
	}
	if _, ok := err.(reportedError); !ok {
		t.Errorf("error response should be reported once, got %T", err)
	}
}

func TestRun_BadArguments(t *testing.T) {
	if _, err := run(t, "click", "first"); err == nil {
		t.Error("non-integer index should fail")
	}
	if _, err := run(t, "wait", "--", "-1"); err == nil {
		t.Error("negative wait should fail")
	}
	if _, err := run(t, "wait", "--visible", "2", "--enabled", "2"); err == nil {
		t.Error("waiting for both visible and enabled should fail")
	}
	if _, err := run(t, "wait", "--visible", "2", "5"); err == nil {
		t.Error("seconds with --visible should fail")
	}
	if _, err := run(t, "wait"); err == nil {
		t.Error("wait without seconds should fail")
	}
	if _, err := run(t, "--format", "xml", "state"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestRequestFlags(t *testing.T) {
	resetFlags(rootCmd)
	defer resetFlags(rootCmd)
	pf := rootCmd.PersistentFlags()
	f := requestFlags()
	if f.Structural != nil || f.Visual != nil {
		t.Errorf("unset detector flags must not be sent: %+v", f)
	}
	pf.Set("vision", "true")
	pf.Set("window", "excel")
	f = requestFlags()
	if f.Visual == nil || !*f.Visual || f.Window != "excel" {
		t.Errorf("flags = %+v", f)
	}
}

func TestDaemonArgs(t *testing.T) {
	resetFlags(rootCmd)
	defer resetFlags(rootCmd)
	pf := rootCmd.PersistentFlags()
	pf.Set("backend", "replay")
	pf.Set("fixture", "/tmp/desk.yaml")
	pf.Set("window", "excel")
	got := strings.Join(daemonArgs(), " ")
	if got != "--backend=replay --fixture=/tmp/desk.yaml" {
		t.Errorf("daemonArgs = %q", got)
	}
}
