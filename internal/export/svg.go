// Package export renders rollouts as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// PathSVG draws points as one polyline scaled to the canvas with a 10%
// margin.
func PathSVG(points []analysis.Point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke)
	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&sb, "%s%.1f,%.1f ", cmd, x, y)
	}
	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}

// SkeletonSVG draws the chain at one set of body frames as seen by cam.
// Body origins are marked with dots.
func SkeletonSVG(sys *dynamo.System, x []spatial.Transform, cam *viz.Camera, width, height int, stroke string) string {
	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g stroke=\"%s\" stroke-width=\"2\" fill=\"%s\">\n", stroke, stroke)
	for _, seg := range viz.Skeleton(sys, x) {
		x0, y0, _, ok0 := cam.Project(seg.From, width, height)
		x1, y1, _, ok1 := cam.Project(seg.To, width, height)
		if !ok0 || !ok1 {
			continue
		}
		fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", x0, y0, x1, y1)
	}
	for _, t := range x {
		if cx, cy, _, ok := cam.Project(t.Pos, width, height); ok {
			fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"3\"/>\n", cx, cy)
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}
