package viz

import "strings"

const brailleBlank = 0x2800

// dots maps a sub-cell (row, col) to its braille dot bit.
var dots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid. Each cell holds 2x4 pixels, so a canvas
// of w x h cells addresses 2w x 4h pixels.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Pixels returns the pixel resolution.
func (c *Canvas) Pixels() (int, int) { return 2 * c.Width, 4 * c.Height }

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

// Set lights pixel (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	pw, ph := c.Pixels()
	if x < 0 || y < 0 || x >= pw || y >= ph {
		return
	}
	c.cells[y/4][x/2] |= dots[y%4][x%2]
}

// IsSet reports whether pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	pw, ph := c.Pixels()
	if x < 0 || y < 0 || x >= pw || y >= ph {
		return false
	}
	return c.cells[y/4][x/2]&dots[y%4][x%2] != 0
}

// Line draws with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
