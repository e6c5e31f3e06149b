package analysis

import "strings"

// Point is one sample of a 2D view.
type Point struct{ X, Y float64 }

type bounds struct {
	minX, maxX, minY, maxY float64
}

func boundsOf(points []Point, pad float64) bounds {
	b := bounds{points[0].X, points[0].X, points[0].Y, points[0].Y}
	for _, p := range points {
		b.minX, b.maxX = min(b.minX, p.X), max(b.maxX, p.X)
		b.minY, b.maxY = min(b.minY, p.Y), max(b.maxY, p.Y)
	}
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	b.minX -= rx * pad
	b.maxX += rx * pad
	b.minY -= ry * pad
	b.maxY += ry * pad
	return b
}

type canvas struct {
	cells  [][]rune
	b      bounds
	width  int
	height int
}

func newCanvas(width, height int, b bounds) *canvas {
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", width))
	}
	return &canvas{cells: cells, b: b, width: width, height: height}
}

func (c *canvas) col(x float64) int {
	return int((x - c.b.minX) / (c.b.maxX - c.b.minX) * float64(c.width-1))
}

func (c *canvas) row(y float64) int {
	return c.height - 1 - int((y-c.b.minY)/(c.b.maxY-c.b.minY)*float64(c.height-1))
}

func (c *canvas) set(row, col int, r rune) {
	if row >= 0 && row < c.height && col >= 0 && col < c.width {
		c.cells[row][col] = r
	}
}

// axes draws x = 0 and y = 0 where they are visible, without covering points.
func (c *canvas) axes() {
	if c.b.minX <= 0 && c.b.maxX >= 0 {
		col := c.col(0)
		for row := range c.height {
			if c.cells[row][col] == ' ' {
				c.cells[row][col] = '│'
			}
		}
	}
	if c.b.minY <= 0 && c.b.maxY >= 0 {
		row := c.row(0)
		for col := range c.width {
			if row >= 0 && row < c.height && c.cells[row][col] == ' ' {
				c.cells[row][col] = '─'
			}
		}
	}
}

func (c *canvas) String() string {
	var sb strings.Builder
	for _, row := range c.cells {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Scatter renders points on a width x height grid with padded bounds.
func Scatter(points []Point, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	c := newCanvas(width, height, boundsOf(points, 0.1))
	for _, p := range points {
		c.set(c.row(p.Y), c.col(p.X), '•')
	}
	c.axes()
	return c.String()
}
