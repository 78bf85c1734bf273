package output

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/protocol"
	"gopkg.in/yaml.v3"
)

func sampleWindows() protocol.Windows {
	return protocol.Windows{
		Windows: []model.Window{
			{Handle: 101, Title: "Untitled - Notepad", Process: "notepad"},
			{Handle: 202, Title: "Book1 - Excel", Process: "excel"},
		},
		Bound: 202,
	}
}

func TestPrintYAML(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := PrintYAML(sampleWindows())
	w.Close()
	os.Stdout = old

	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	// YAML output should be multi-line
	if bytes.Count([]byte(output), []byte("\n")) <= 1 {
		t.Errorf("YAML output should be multi-line, got:\n%s", output)
	}

	var decoded protocol.Windows
	if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(decoded.Windows) != 2 || decoded.Bound != 202 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFprint_JSONCompactAndPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, FormatJSON, sampleWindows()); err != nil {
		t.Fatal(err)
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Errorf("compact output should be single line, got:\n%s", buf.String())
	}
	var decoded protocol.Windows
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	PrettyOutput = true
	defer func() { PrettyOutput = false }()
	buf.Reset()
	if err := Fprint(&buf, FormatJSON, sampleWindows()); err != nil {
		t.Fatal(err)
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) <= 1 {
		t.Errorf("pretty output should be multi-line, got:\n%s", buf.String())
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"text", "yaml", "json"} {
		if f, err := ParseFormat(s); err != nil || string(f) != s {
			t.Errorf("ParseFormat(%q) = %q, %v", s, f, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
}

func TestFprintResponse(t *testing.T) {
	req := protocol.NewRequest("click", nil, protocol.Flags{ReturnState: true})
	resp := protocol.OK(req, protocol.Acted{Action: "click", Index: 3, Label: "Save"})
	resp.State = &protocol.State{
		Window:  "Untitled - Notepad",
		Process: "notepad",
		Elements: []model.Element{
			{Index: 1, Kind: model.KindNative, Type: "Button", Label: "Save"},
		},
	}

	t.Run("text", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := FprintResponse(&out, &errOut, FormatText, resp); err != nil {
			t.Fatal(err)
		}
		want := "OK: click [3] \"Save\"\n\nWindow: \"Untitled - Notepad\" (notepad)\n[1] [Button] \"Save\"\n"
		if out.String() != want {
			t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := FprintResponse(&out, &errOut, FormatYAML, resp); err != nil {
			t.Fatal(err)
		}
		var m map[string]interface{}
		if err := yaml.Unmarshal(out.Bytes(), &m); err != nil {
			t.Fatal(err)
		}
		if _, ok := m["state"]; !ok {
			t.Errorf("state missing from:\n%s", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var out, errOut bytes.Buffer
		if err := FprintResponse(&out, &errOut, FormatJSON, resp); err != nil {
			t.Fatal(err)
		}
		var decoded protocol.Response
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Status != protocol.StatusOK || decoded.State == nil {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}

func TestFprintResponse_Error(t *testing.T) {
	req := protocol.NewRequest("click", nil, protocol.Flags{})
	resp := protocol.Fail(req, model.Errorf(model.KindResolution, "resolve", "index 9 not found"))

	var out, errOut bytes.Buffer
	err := FprintResponse(&out, &errOut, FormatText, resp)
	if !model.IsKind(err, model.KindResolution) {
		t.Errorf("err = %v, want resolution error", err)
	}
	if out.Len() != 0 {
		t.Errorf("stdout should be empty, got %q", out.String())
	}
	if !bytes.Contains(errOut.Bytes(), []byte("Error (resolution)")) {
		t.Errorf("stderr = %q", errOut.String())
	}

	errOut.Reset()
	FprintResponse(&out, &errOut, FormatJSON, resp)
	var m map[string]string
	if err := json.Unmarshal(errOut.Bytes(), &m); err != nil || m["kind"] != "resolution" {
		t.Errorf("json error = %q (%v)", errOut.String(), err)
	}
}

func TestDecodeResult_Unknown(t *testing.T) {
	resp := protocol.Response{Command: "custom", Status: protocol.StatusOK, Result: json.RawMessage(`{"a":1}`)}
	v, err := DecodeResult(resp)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]interface{})
	if !ok || m["a"] != float64(1) {
		t.Errorf("DecodeResult = %#v", v)
	}
}

func TestDecodeResult_Commands(t *testing.T) {
	w := model.Window{Handle: 303, Title: "Calculator", Process: "calc"}
	tests := []struct {
		command string
		v       interface{}
	}{
		{"launch", protocol.Launched{App: "calc", Window: w}},
		{"close", protocol.Closed{Window: w}},
		{"select", protocol.Acted{Action: "select", Index: 2, Text: "Arial"}},
		{"wait", protocol.Waited{Seconds: 0.5, Index: 2, Condition: "enabled"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			resp := protocol.OK(protocol.NewRequest(tt.command, nil, protocol.Flags{}), tt.v)
			got, err := DecodeResult(resp)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.v {
				t.Errorf("DecodeResult = %#v, want %#v", got, tt.v)
			}
		})
	}
}
