package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mj1618/deskctl/internal/protocol"
)

// DecodeResult unmarshals a response's result into the type its command
// produces. Unknown commands decode into a generic map.
func DecodeResult(resp protocol.Response) (interface{}, error) {
	var v interface{}
	switch resp.Command {
	case "state":
		v = &protocol.State{}
	case "windows":
		v = &protocol.Windows{}
	case "focus":
		v = &protocol.Focused{}
	case "launch":
		v = &protocol.Launched{}
	case "close":
		v = &protocol.Closed{}
	case "inspect", "get-rect":
		v = &protocol.Inspected{}
	case "screenshot":
		v = &protocol.Screenshot{}
	case "wait":
		v = &protocol.Waited{}
	case protocol.CommandPing, protocol.CommandShutdown:
		v = &protocol.Pong{}
	case "get-text", "get-value", "click", "dblclick", "rightclick", "input",
		"select", "scroll", "drag", "keys", "type", "click-at", "drag-at":
		v = &protocol.Acted{}
	default:
		m := map[string]interface{}{}
		if len(resp.Result) == 0 {
			return m, nil
		}
		if err := json.Unmarshal(resp.Result, &m); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", resp.Command, err)
		}
		return m, nil
	}
	if err := resp.Decode(v); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", resp.Command, err)
	}
	return deref(v), nil
}

func deref(v interface{}) interface{} {
	switch t := v.(type) {
	case *protocol.State:
		return t
	case *protocol.Windows:
		return *t
	case *protocol.Focused:
		return *t
	case *protocol.Launched:
		return *t
	case *protocol.Closed:
		return *t
	case *protocol.Inspected:
		return *t
	case *protocol.Screenshot:
		return *t
	case *protocol.Waited:
		return *t
	case *protocol.Pong:
		return *t
	case *protocol.Acted:
		return *t
	}
	return v
}

// PrintResponse writes a successful response to stdout, or its error to
// stderr. It returns the response's error so callers can set the exit code.
func PrintResponse(resp protocol.Response) error {
	return FprintResponse(os.Stdout, os.Stderr, OutputFormat, resp)
}

// FprintResponse is PrintResponse with explicit writers and format.
func FprintResponse(stdout, stderr io.Writer, f Format, resp protocol.Response) error {
	if resp.Status == protocol.StatusError {
		printError(stderr, f, resp)
		return resp.Err()
	}
	if f == FormatJSON {
		return writeJSON(stdout, resp, PrettyOutput)
	}
	result, err := DecodeResult(resp)
	if err != nil {
		return err
	}
	if f == FormatYAML {
		out := map[string]interface{}{"result": result}
		if resp.State != nil {
			out["state"] = resp.State
		}
		return writeYAML(stdout, out)
	}
	if len(resp.Result) > 0 {
		if err := writeText(stdout, result); err != nil {
			return err
		}
	}
	if resp.State != nil {
		if _, err := io.WriteString(stdout, "\n"); err != nil {
			return err
		}
		return writeText(stdout, resp.State)
	}
	return nil
}

func printError(w io.Writer, f Format, resp protocol.Response) {
	if f == FormatJSON {
		writeJSON(w, map[string]interface{}{"error": resp.Error, "kind": resp.Kind}, false)
		return
	}
	if resp.Kind != "" {
		fmt.Fprintf(w, "Error (%s): %s\n", resp.Kind, resp.Error)
		return
	}
	fmt.Fprintf(w, "Error: %s\n", resp.Error)
}
