// Package annotate draws element boxes and index labels onto screenshots.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/mj1618/deskctl/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box colors per element kind.
var kindColors = map[model.Kind]color.RGBA{
	model.KindNative:   {R: 255, G: 0, B: 0, A: 255},
	model.KindInferred: {R: 0, G: 160, B: 255, A: 255},
	model.KindVisual:   {R: 0, G: 200, B: 0, A: 255},
}

var (
	textColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Draw returns a copy of img with every element that has a rect outlined
// and labelled "[index]". window is the captured window's screen rect;
// element rects are screen coordinates and are mapped into image pixels
// using the ratio of image size to window size, which also covers HiDPI
// captures.
func Draw(img image.Image, elements []model.Element, window model.Rect) *image.RGBA {
	rgba := ToRGBA(img)

	b := img.Bounds()
	scaleX, scaleY := 1.0, 1.0
	if w := window.Width(); w > 0 {
		scaleX = float64(b.Dx()) / float64(w)
	}
	if h := window.Height(); h > 0 {
		scaleY = float64(b.Dy()) / float64(h)
	}

	for _, el := range elements {
		if el.Rect == nil {
			continue
		}
		r := el.Rect.Translate(-window.Left(), -window.Top())
		x1 := b.Min.X + int(float64(r[0])*scaleX)
		y1 := b.Min.Y + int(float64(r[1])*scaleY)
		x2 := b.Min.X + int(float64(r[2])*scaleX)
		y2 := b.Min.Y + int(float64(r[3])*scaleY)

		c, ok := kindColors[el.Kind]
		if !ok {
			c = kindColors[model.KindNative]
		}
		drawRectangle(rgba, x1, y1, x2, y2, c)
		drawTextWithOutline(rgba, fmt.Sprintf("[%d]", el.Index), x1+2, y1+13, textColor, outlineColor)
	}
	return rgba
}

// ToRGBA converts any image to RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// drawRectangle draws a rectangle outline, clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	x1, y1 = max(x1, bounds.Min.X), max(y1, bounds.Min.Y)
	x2, y2 = min(x2, bounds.Max.X), min(y2, bounds.Max.Y)
	if x2 <= x1 || y2 <= y1 {
		return
	}
	for x := x1; x < x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2-1, c)
	}
	for y := y1; y < y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2-1, y, c)
	}
}

// drawTextWithOutline draws text with its baseline at (x, y) and a one
// pixel outline for contrast.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, fg, outline color.Color) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, x+dx, y+dy, outline)
		}
	}
	drawString(img, text, x, y, fg)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
