package model

import (
	"math"
	"testing"
)

func TestRect_Center(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want Point
	}{
		{"even", Rect{0, 0, 100, 40}, Point{50, 20}},
		{"odd rounds down", Rect{0, 0, 5, 3}, Point{2, 1}},
		{"negative rounds toward lower", Rect{-5, -3, 0, 0}, Point{-3, -2}},
		{"offset", Rect{100, 200, 151, 221}, Point{125, 210}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Center(); got != tt.want {
				t.Errorf("Center(%v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestRect_IoU(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want float64
	}{
		{"identical", Rect{0, 0, 10, 10}, Rect{0, 0, 10, 10}, 1},
		{"disjoint", Rect{0, 0, 10, 10}, Rect{20, 20, 30, 30}, 0},
		{"touching edges", Rect{0, 0, 10, 10}, Rect{10, 0, 20, 10}, 0},
		{"half overlap", Rect{0, 0, 10, 10}, Rect{5, 0, 15, 10}, 50.0 / 150.0},
		{"contained", Rect{0, 0, 10, 10}, Rect{0, 0, 5, 10}, 0.5},
		{"empty", Rect{0, 0, 0, 0}, Rect{0, 0, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.IoU(tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
			if back := tt.b.IoU(tt.a); math.Abs(back-got) > 1e-9 {
				t.Errorf("IoU not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestRect_InvertedHasNoArea(t *testing.T) {
	r := Rect{10, 10, 0, 0}
	if r.Area() != 0 || !r.Empty() {
		t.Errorf("inverted rect should be empty, area=%d", r.Area())
	}
}

func TestParseRect(t *testing.T) {
	tests := []struct {
		input   string
		want    Rect
		wantErr bool
	}{
		{"1,2,3,4", Rect{1, 2, 3, 4}, false},
		{"[10, 20, 30, 40]", Rect{10, 20, 30, 40}, false},
		{" -5,0,5,10 ", Rect{-5, 0, 5, 10}, false},
		{"1,2,3", Rect{}, true},
		{"a,b,c,d", Rect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRect(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRect(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseRect(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{0, 0, 10, 10}
	if !r.Contains(Point{0, 0}) {
		t.Error("top-left corner should be inside")
	}
	if r.Contains(Point{10, 5}) {
		t.Error("right edge should be outside")
	}
}
