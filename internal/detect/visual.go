package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"

	"github.com/mj1618/deskctl/internal/model"
	"github.com/mj1618/deskctl/internal/platform"
	"github.com/mj1618/deskctl/internal/reasoning"
	"golang.org/x/image/draw"
)

// MaxImageLongSide bounds the screenshot sent to the vision model. Larger
// captures are downscaled so the scale factor back to screen space is known.
const MaxImageLongSide = 1568

// VisualDetector asks a vision model for elements visible in a screenshot.
// It never produces handles.
type VisualDetector struct {
	Screenshotter platform.Screenshotter
	Reasoner      reasoning.Reasoner
	MaxLongSide   int
}

func (d *VisualDetector) Kind() model.Kind { return model.KindVisual }

func (d *VisualDetector) Detect(ctx context.Context, window model.Window) (Result, error) {
	raw, err := d.Screenshotter.CaptureWindow(ctx, window)
	if err != nil {
		return Result{}, fmt.Errorf("capture: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("decode screenshot: %w", err)
	}

	limit := d.MaxLongSide
	if limit <= 0 {
		limit = MaxImageLongSide
	}
	sent := Downscale(img, limit)
	var buf bytes.Buffer
	if err := png.Encode(&buf, sent); err != nil {
		return Result{}, fmt.Errorf("encode screenshot: %w", err)
	}

	answer, err := d.Reasoner.Complete(ctx, reasoning.Prompt{
		Text:      visualPrompt,
		Image:     buf.Bytes(),
		MediaType: "image/png",
	})
	if err != nil {
		return Result{}, err
	}
	candidates, err := ParseCandidates(answer)
	if err != nil {
		return Result{}, err
	}

	m := NewImageMapping(window.Rect, img.Bounds(), sent.Bounds())
	var elements []model.Element
	for _, c := range candidates {
		r, ok := c.ToRect()
		if !ok {
			continue
		}
		screen := m.ToScreen(r)
		el := model.Element{
			Kind:  model.KindVisual,
			Label: c.DisplayLabel(),
			Type:  c.Type,
			Rect:  &screen,
		}
		if c.Confidence != nil {
			el.Confidence = model.ConfidencePtr(*c.Confidence)
		}
		elements = append(elements, el)
	}
	return Result{Elements: renumber(elements)}, nil
}

// Downscale returns img unchanged when its long side fits limit, otherwise a
// proportionally resized copy.
func Downscale(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	long := max(w, h)
	if long <= limit || long == 0 {
		return img
	}
	ratio := float64(limit) / float64(long)
	nw := max(1, int(math.Round(float64(w)*ratio)))
	nh := max(1, int(math.Round(float64(h)*ratio)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// ImageMapping converts coordinates in the image sent to a model back to
// screen coordinates.
type ImageMapping struct {
	ScaleX, ScaleY   float64
	OffsetX, OffsetY int
}

// NewImageMapping scales the sent image back to the captured one and then
// offsets by the window's screen position. The capture size, not the window
// rect, sets the scale.
func NewImageMapping(window model.Rect, captured, sent image.Rectangle) ImageMapping {
	m := ImageMapping{ScaleX: 1, ScaleY: 1, OffsetX: window.Left(), OffsetY: window.Top()}
	if sent.Dx() > 0 && captured.Dx() > 0 {
		m.ScaleX = float64(captured.Dx()) / float64(sent.Dx())
	}
	if sent.Dy() > 0 && captured.Dy() > 0 {
		m.ScaleY = float64(captured.Dy()) / float64(sent.Dy())
	}
	return m
}

// ToScreen maps an image-space rect to screen space.
func (m ImageMapping) ToScreen(r model.Rect) model.Rect {
	return model.Rect{
		int(math.Round(float64(r[0])*m.ScaleX)) + m.OffsetX,
		int(math.Round(float64(r[1])*m.ScaleY)) + m.OffsetY,
		int(math.Round(float64(r[2])*m.ScaleX)) + m.OffsetX,
		int(math.Round(float64(r[3])*m.ScaleY)) + m.OffsetY,
	}
}
