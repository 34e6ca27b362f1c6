package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Foreground is the value of a set pixel.
const Foreground uint8 = 255

var ErrInvalidShape = errors.New("invalid mask shape")

// Shape is the (height, width) of a raster.
type Shape struct {
	Height int
	Width  int
}

func (s Shape) Validate() error {
	if s.Height < 0 || s.Width < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidShape, s.Height, s.Width)
	}
	return nil
}

// Mask is a binary raster stored row-major, 0 or Foreground per pixel.
type Mask struct {
	Shape
	Pix []uint8
}

func NewMask(shape Shape) *Mask {
	return &Mask{Shape: shape, Pix: make([]uint8, shape.Height*shape.Width)}
}

func (m *Mask) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the pixel at column x, row y. Out of range pixels are unset.
func (m *Mask) At(x, y int) uint8 {
	if !m.inside(x, y) {
		return 0
	}
	return m.Pix[y*m.Width+x]
}

// Set marks the pixel at column x, row y. Out of range pixels are ignored.
func (m *Mask) Set(x, y int) {
	if m.inside(x, y) {
		m.Pix[y*m.Width+x] = Foreground
	}
}

func (m *Mask) setSpan(y, x0, x1 int) {
	if y < 0 || y >= m.Height {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= m.Width {
		x1 = m.Width - 1
	}
	row := m.Pix[y*m.Width : (y+1)*m.Width]
	for x := x0; x <= x1; x++ {
		row[x] = Foreground
	}
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// AnyIn reports whether a pixel is set inside the box starting at (x, y) with the given size,
// clipped to the mask.
func (m *Mask) AnyIn(x, y, h, w int) bool {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, m.Width), min(y+h, m.Height)
	if x0 >= x1 || y0 >= y1 {
		return false
	}
	for r := y0; r < y1; r++ {
		row := m.Pix[r*m.Width+x0 : r*m.Width+x1]
		for _, v := range row {
			if v != 0 {
				return true
			}
		}
	}
	return false
}

// And returns the pixel-wise intersection of two masks of the same shape.
func (m *Mask) And(o *Mask) (*Mask, error) {
	if m.Shape != o.Shape {
		return nil, fmt.Errorf("%w: %dx%d and %dx%d", ErrInvalidShape, m.Height, m.Width, o.Height, o.Width)
	}
	out := NewMask(m.Shape)
	for i := range m.Pix {
		if m.Pix[i] != 0 && o.Pix[i] != 0 {
			out.Pix[i] = Foreground
		}
	}
	return out, nil
}

// Fill draws the contour filled solid into the mask, outline included. Pixels already set stay
// set, so several contours combine as a union.
func (m *Mask) Fill(c Contour) error {
	if err := c.Validate(); err != nil {
		return err
	}
	bound := c.Ring().Bound()
	yMin := max(int(math.Floor(bound.Min[1])), 0)
	yMax := min(int(math.Ceil(bound.Max[1])), m.Height-1)

	n := len(c)
	xs := make([]float64, 0, n)
	for y := yMin; y <= yMax; y++ {
		xs = xs[:0]
		for i := 0; i < n; i++ {
			a, b := c[i], c[(i+1)%n]
			if a[1] == b[1] {
				continue
			}
			lo, hi := a, b
			if lo[1] > hi[1] {
				lo, hi = hi, lo
			}
			// half open on the upper end so shared vertices are counted once
			if y < lo[1] || y >= hi[1] {
				continue
			}
			t := (float64(y) - float64(lo[1])) / (float64(hi[1]) - float64(lo[1]))
			xs = append(xs, float64(lo[0])+t*(float64(hi[0])-float64(lo[0])))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			m.setSpan(y, int(math.Ceil(xs[i])), int(math.Floor(xs[i+1])))
		}
	}

	for i := 0; i < n; i++ {
		m.line(c[i], c[(i+1)%n])
	}
	return nil
}

// line draws a Bresenham segment between two points, clipped to the mask first so the walk never
// leaves the raster.
func (m *Mask) line(a, b Point) {
	x0, y0, x1, y1, ok := clipSegment(a, b, m.Width-1, m.Height-1)
	if !ok {
		return
	}
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		m.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// clipSegment clips the segment a-b to the box [0, xMax] x [0, yMax] with the Liang-Barsky
// parameters. Segments inside the box keep their exact end points.
func clipSegment(a, b Point, xMax, yMax int) (x0, y0, x1, y1 int, ok bool) {
	if xMax < 0 || yMax < 0 {
		return 0, 0, 0, 0, false
	}
	inBox := func(p Point) bool {
		return p[0] >= 0 && p[1] >= 0 && p[0] <= xMax && p[1] <= yMax
	}
	if inBox(a) && inBox(b) {
		return a[0], a[1], b[0], b[1], true
	}

	ax, ay := float64(a[0]), float64(a[1])
	dx, dy := float64(b[0])-ax, float64(b[1])-ay
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, ax},
		{dx, float64(xMax) - ax},
		{-dy, ay},
		{dy, float64(yMax) - ay},
	}
	for _, edge := range edges {
		p, q := edge[0], edge[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	clamp := func(v float64, hi int) int {
		return min(max(int(math.Round(v)), 0), hi)
	}
	return clamp(ax+t0*dx, xMax), clamp(ay+t0*dy, yMax), clamp(ax+t1*dx, xMax), clamp(ay+t1*dy, yMax), true
}

// Rasterize returns a mask of the given shape with every contour filled. An empty contour list
// yields an all zero mask.
func Rasterize(shape Shape, contours []Contour) (*Mask, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	m := NewMask(shape)
	for i, c := range contours {
		if err := m.Fill(c); err != nil {
			return nil, fmt.Errorf("contour %d: %w", i, err)
		}
	}
	return m, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
