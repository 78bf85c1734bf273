package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/mj1618/deskctl/internal/model"
)

func TestDraw_OutlinesElementsInImageSpace(t *testing.T) {
	white := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			white.Set(x, y, color.White)
		}
	}
	// 2x capture of a 100x50 window at screen offset (1000, 500).
	window := model.Rect{1000, 500, 1100, 550}
	elements := []model.Element{
		{Index: 1, Kind: model.KindVisual, Rect: model.RectPtr(1010, 510, 1050, 540)},
		{Index: 2, Kind: model.KindNative},
	}
	out := Draw(white, elements, window)

	want := kindColors[model.KindVisual]
	got := out.RGBAAt(20, 60)
	if got != want {
		t.Errorf("left edge pixel = %v, want %v", got, want)
	}
	if out.RGBAAt(199, 99) != (color.RGBA{255, 255, 255, 255}) {
		t.Error("pixels outside any box should be untouched")
	}
	if white.RGBAAt(20, 60) != (color.RGBA{255, 255, 255, 255}) {
		t.Error("Draw must not modify the source image")
	}
}

func TestDrawRectangle_ClampsToBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	drawRectangle(img, -5, -5, 50, 50, color.Black)
	if img.RGBAAt(0, 0).A == 0 || img.RGBAAt(9, 9).A == 0 {
		t.Error("clamped rectangle should touch the image corners")
	}
	drawRectangle(img, 20, 20, 30, 30, color.Black)
}
