package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/protocol"
)

// writeText renders the known result types for people; anything else falls
// back to YAML.
func writeText(w io.Writer, v interface{}) error {
	var b strings.Builder
	switch r := v.(type) {
	case *protocol.State:
		stateText(&b, r)
	case protocol.State:
		stateText(&b, &r)
	case protocol.Windows:
		for _, win := range r.Windows {
			mark := " "
			if win.Handle == r.Bound && r.Bound != 0 {
				mark = "*"
			}
			fmt.Fprintf(&b, "%s[%d] %s (%s)\n", mark, win.Handle, win.Title, win.Process)
		}
	case protocol.Focused:
		fmt.Fprintf(&b, "Focused: [%d] %q (%s)\n", r.Window.Handle, r.Window.Title, r.Window.Process)
	case protocol.Launched:
		fmt.Fprintf(&b, "Launched: [%d] %q (%s)\n", r.Window.Handle, r.Window.Title, r.Window.Process)
	case protocol.Closed:
		fmt.Fprintf(&b, "Closed: [%d] %q (%s)\n", r.Window.Handle, r.Window.Title, r.Window.Process)
	case protocol.Inspected:
		fmt.Fprintln(&b, elementLine(r.Element, false))
		fmt.Fprintf(&b, "kind: %s\n", r.Element.Kind)
		if r.Element.Rect != nil {
			fmt.Fprintf(&b, "rect: %s\n", r.Element.Rect)
		}
		if r.Center != nil {
			fmt.Fprintf(&b, "center: %s\n", r.Center)
		}
		if r.Element.Confidence != nil {
			fmt.Fprintf(&b, "confidence: %.2f\n", *r.Element.Confidence)
		}
		if r.HasHandle {
			fmt.Fprintf(&b, "handle: %s\n", r.HandleID)
		} else {
			fmt.Fprintln(&b, "handle: none (coordinate actions only)")
		}
	case protocol.Acted:
		actedText(&b, r)
	case protocol.Screenshot:
		label := "Screenshot"
		if r.Annotated {
			label = "Annotated screenshot"
		}
		fmt.Fprintf(&b, "%s saved to %s (%dx%d)\n", label, r.Path, r.Width, r.Height)
	case protocol.Waited:
		if r.Condition != "" {
			fmt.Fprintf(&b, "Element [%d] is %s (after %gs)\n", r.Index, r.Condition, r.Seconds)
			break
		}
		fmt.Fprintf(&b, "Waited %gs\n", r.Seconds)
	case protocol.Pong:
		fmt.Fprintf(&b, "Session %q: pid %d at %s\n", r.Session, r.PID, r.Addr)
	case string:
		b.WriteString(r)
		if !strings.HasSuffix(r, "\n") {
			b.WriteByte('\n')
		}
	default:
		return writeYAML(w, v)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func stateText(b *strings.Builder, st *protocol.State) {
	fmt.Fprintf(b, "Window: %q (%s)\n", st.Window, st.Process)
	for _, el := range st.Elements {
		fmt.Fprintln(b, elementLine(el, true))
	}
	if st.Diff != nil {
		diffText(b, st.Diff)
	}
}

// elementLine renders `[i] [type] "label"`, with the rect when withRect
// is set and the element carries one.
func elementLine(el model.Element, withRect bool) string {
	line := fmt.Sprintf("[%d] [%s] %q", el.Index, el.Type, el.Label)
	if withRect && el.Rect != nil {
		line += " rect=" + el.Rect.String()
	}
	return line
}

func diffText(b *strings.Builder, d *model.SnapshotDiff) {
	if d.Empty() {
		fmt.Fprintf(b, "Diff: no changes (%d unchanged)\n", d.UnchangedCount)
		return
	}
	fmt.Fprintf(b, "Diff: +%d -%d ~%d (%d unchanged)\n", len(d.Added), len(d.Removed), len(d.Moved), d.UnchangedCount)
	for _, el := range d.Added {
		fmt.Fprintf(b, "+ %s\n", elementLine(el, true))
	}
	for _, el := range d.Removed {
		fmt.Fprintf(b, "- %s\n", elementLine(el, true))
	}
	for _, m := range d.Moved {
		fmt.Fprintf(b, "~ [%d->%d] [%s] %q", m.FromIndex, m.ToIndex, m.Type, m.Label)
		if m.FromRect != nil && m.ToRect != nil && *m.FromRect != *m.ToRect {
			fmt.Fprintf(b, " %s -> %s", m.FromRect, m.ToRect)
		}
		b.WriteByte('\n')
	}
}

func actedText(b *strings.Builder, r protocol.Acted) {
	switch r.Action {
	case "get_text", "get_value":
		fmt.Fprintln(b, r.Text)
		return
	}
	fmt.Fprintf(b, "OK: %s", r.Action)
	if r.Index > 0 {
		fmt.Fprintf(b, " [%d] %q", r.Index, r.Label)
	}
	if r.Point != nil {
		fmt.Fprintf(b, " at %s", r.Point)
	}
	if r.Fallback {
		b.WriteString(" (by coordinates)")
	}
	if r.Text != "" {
		fmt.Fprintf(b, " %s", r.Text)
	}
	b.WriteByte('\n')
}
