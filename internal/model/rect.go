package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a screen rectangle as [left, top, right, bottom] in pixels.
type Rect [4]int

// Point is a screen coordinate.
type Point struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Left, Top, Right and Bottom name the rect edges.
func (r Rect) Left() int   { return r[0] }
func (r Rect) Top() int    { return r[1] }
func (r Rect) Right() int  { return r[2] }
func (r Rect) Bottom() int { return r[3] }

// Width is zero for inverted rects.
func (r Rect) Width() int {
	return max(0, r[2]-r[0])
}

// Height is zero for inverted rects.
func (r Rect) Height() int {
	return max(0, r[3]-r[1])
}

// Area of the rect in square pixels.
func (r Rect) Area() int {
	return r.Width() * r.Height()
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Area() == 0
}

// Center returns the rect midpoint, rounding toward negative infinity.
func (r Rect) Center() Point {
	return Point{X: floorDiv(r[0]+r[2], 2), Y: floorDiv(r[1]+r[3], 2)}
}

// Contains reports whether p lies inside the rect (right and bottom edges excluded).
func (r Rect) Contains(p Point) bool {
	return p.X >= r[0] && p.X < r[2] && p.Y >= r[1] && p.Y < r[3]
}

// Intersect returns the overlapping area of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	in := Rect{max(r[0], o[0]), max(r[1], o[1]), min(r[2], o[2]), min(r[3], o[3])}
	if in[2] <= in[0] || in[3] <= in[1] {
		return Rect{}
	}
	return in
}

// Translate shifts the rect by dx, dy.
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{r[0] + dx, r[1] + dy, r[2] + dx, r[3] + dy}
}

// IoU is the intersection area divided by the union area. It is 0 when the
// rects do not overlap or when the union is empty.
func (r Rect) IoU(o Rect) float64 {
	inter := r.Intersect(o).Area()
	if inter == 0 {
		return 0
	}
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", r[0], r[1], r[2], r[3])
}

// ParseRect parses "l,t,r,b" (brackets and spaces allowed) into a Rect.
func ParseRect(s string) (Rect, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "[]")
	parts := strings.Split(trimmed, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid rect %q: expected left,top,right,bottom", s)
	}
	var r Rect
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		r[i] = v
	}
	return r, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
