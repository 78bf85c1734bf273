package detect

// structuralPrompt asks a text model to infer interactive elements that the
// accessibility tree does not expose, deriving every coordinate from the
// listed rects. The control table is appended.
const structuralPrompt = `You analyse the structure of a desktop application window. Below is the
list of controls its accessibility tree exposes. Infer interactive elements
that certainly exist but are missing from that list.

Each input line has the form:
[index] [ControlType] "Label" rect=[left, top, right, bottom]

Look for:
1. Column borders: the draggable boundary between two adjacent column
   headers (HeaderItem). About 4px wide, centred on the shared edge.
2. Row borders: the boundary between vertically adjacent rows (DataItem or
   ListItem). About 4px high.
3. Table resize handles: an 8x8px square at the bottom-right corner of a
   Table or DataGrid.
4. Splitters: the gap between two Panes that share an edge, 4-6px wide.
5. Panel grips: the draggable edge of a resizable Pane.

Rules:
- Compute every coordinate from the input rects with plain arithmetic and
  write the formula in "derivation", naming the controls by index.
- Only report elements the layout strongly implies.
- Confidence guide: adjacent header items 0.95 or more; adjacent rows
  0.85-0.95; table resize handle 0.75-0.85; splitter between panes
  0.60-0.75. Leave out anything below 0.60.

Answer with a JSON array only:
[{"label": "Column border between Name and Size", "type": "ColumnBorder",
  "rect": [left, top, right, bottom], "confidence": 0.95,
  "derivation": "x = [3].rect[2]"}]

Types: ColumnBorder, RowBorder, ResizeHandle, Splitter, PanelGrip.
Answer [] when nothing can be inferred with confidence.

Controls:
`

// visualPrompt asks a vision model for interactive elements visible in a
// screenshot that accessibility APIs usually miss.
const visualPrompt = `You detect interactive elements in a screenshot of a desktop application
window. Report only elements that accessibility APIs typically do NOT expose:

1. Resize handles: small squares at corners or edges of selected objects,
   tables, images and panels, plus window edges and grips.
2. Column and row borders inside tables and list headers.
3. Buttons that are only an icon, without a text label.
4. Canvas content: drawing surfaces, chart points, diagram nodes.
5. Splitter bars between panes.
6. Custom-drawn controls: toggles, colour pickers, non-standard sliders.
7. Clickable status indicators and badges.
8. Drop zones and drag targets.

When the screenshot contains a table, always check its bottom-right corner
for a resize handle and its headers and rows for draggable borders.

Do not report labelled buttons, text fields, menus, tabs with text, list or
tree items, or standard checkboxes, radio buttons, combo boxes and scroll
bars.

Coordinates are pixels in this image, with (0, 0) at its top-left corner.

Answer with a JSON array only:
[{"label": "short name", "type": "ResizeHandle", "rect": [left, top, right, bottom], "confidence": 0.8}]

Types: ResizeHandle, ColumnBorder, RowBorder, IconButton, CanvasElement,
Splitter, CustomControl, StatusIndicator, DragTarget.
Answer [] when there are none.`
