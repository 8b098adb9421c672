package viz

import (
	"math"
	"strings"
)

// Braille cells pack 2x4 dots each, unicode offset 0x2800.
var brailleDots = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type brailleCanvas struct {
	width, height int
	grid          [][]rune
}

func newBrailleCanvas(w, h int) *brailleCanvas {
	c := &brailleCanvas{width: w, height: h, grid: make([][]rune, h)}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
		}
	}
	return c
}

// set lights one dot; x spans width*2 dots, y spans height*4.
func (c *brailleCanvas) set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.width || row >= c.height {
		return
	}
	c.grid[row][col] |= brailleDots[y%4][x%2]
}

func (c *brailleCanvas) line(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *brailleCanvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
		b.WriteRune('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PoleMap draws poles as crosses and zeros as diamonds on the complex
// plane, axes through the origin. The origin is always in view, so the
// stability boundary shows even when every root sits well inside the
// left half plane.
func PoleMap(poles, zeros []complex128, width, height int) string {
	if width <= 0 || height <= 0 || len(poles)+len(zeros) == 0 {
		return ""
	}

	minRe, maxRe, minIm, maxIm := 0.0, 0.0, 0.0, 0.0
	mark := func(p complex128) {
		minRe = math.Min(minRe, real(p))
		maxRe = math.Max(maxRe, real(p))
		minIm = math.Min(minIm, imag(p))
		maxIm = math.Max(maxIm, imag(p))
	}
	for _, p := range poles {
		mark(p)
	}
	for _, z := range zeros {
		mark(z)
	}

	rangeRe := maxRe - minRe
	rangeIm := maxIm - minIm
	if rangeRe == 0 {
		rangeRe = 1
	}
	if rangeIm == 0 {
		rangeIm = 1
	}
	minRe -= rangeRe * 0.2
	maxRe += rangeRe * 0.2
	minIm -= rangeIm * 0.2
	maxIm += rangeIm * 0.2
	rangeRe = maxRe - minRe
	rangeIm = maxIm - minIm

	dotsW := width * 2
	dotsH := height * 4
	toDots := func(p complex128) (int, int) {
		x := int((real(p) - minRe) / rangeRe * float64(dotsW-1))
		y := dotsH - 1 - int((imag(p)-minIm)/rangeIm*float64(dotsH-1))
		return x, y
	}

	c := newBrailleCanvas(width, height)

	axisX, _ := toDots(complex(0, minIm))
	c.line(axisX, 0, axisX, dotsH-1)
	_, axisY := toDots(complex(minRe, 0))
	c.line(0, axisY, dotsW-1, axisY)

	for _, p := range poles {
		x, y := toDots(p)
		c.set(x, y)
		c.set(x-1, y-1)
		c.set(x+1, y-1)
		c.set(x-1, y+1)
		c.set(x+1, y+1)
	}
	for _, z := range zeros {
		x, y := toDots(z)
		c.set(x-1, y)
		c.set(x+1, y)
		c.set(x, y-1)
		c.set(x, y+1)
	}

	return c.String()
}
