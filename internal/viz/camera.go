package viz

import (
	"math"
	"sort"

	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is an orbit camera looking at the world origin from -y. Yaw turns
// about the world z axis and a positive pitch looks down, so z stays up on
// screen.
type Camera struct {
	Yaw, Pitch float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Pitch: 0.3, Distance: 8, Zoom: 1}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dpitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view expresses p in camera axes: x right, y up, z towards the viewer.
func (c *Camera) view(p r3.Vec) r3.Vec {
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	x, depth := p.X*cy+p.Y*sy, -p.X*sy+p.Y*cy
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	return r3.Vec{X: x, Y: p.Z*cp + depth*sp, Z: p.Z*sp - depth*cp}
}

// Project maps p to pixel coordinates on a w x h canvas. ok is false for
// points behind the camera.
func (c *Camera) Project(p r3.Vec, w, h int) (x, y int, depth float64, ok bool) {
	v := r3.Scale(c.Zoom, c.view(p))
	if v.Z >= c.Distance-0.1 {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - v.Z) * float64(min(w, h)) / 6
	x = int(math.Round(v.X*scale)) + w/2
	y = int(math.Round(-v.Y*scale)) + h/2
	return x, y, v.Z, true
}

// Segment is one edge of the rendered skeleton.
type Segment struct {
	From, To r3.Vec
}

// Skeleton connects every body origin to its parent's, and world-attached
// bodies to the world origin. Bodies with geometry also get a short stub
// along their local x axis.
func Skeleton(sys *dynamo.System, x []spatial.Transform) []Segment {
	segs := make([]Segment, 0, 2*len(sys.Bodies))
	for i, b := range sys.Bodies {
		var from r3.Vec
		if b.Parent != dynamo.World {
			from = x[b.Parent].Pos
		}
		segs = append(segs, Segment{From: from, To: x[i].Pos})
		if len(b.Geoms) > 0 {
			com := x[i].PointToParent(b.Inertia().Com)
			segs = append(segs, Segment{From: x[i].Pos, To: com})
		}
	}
	return segs
}

// Render draws segments far to near.
func Render(c *Canvas, cam *Camera, segs []Segment) {
	type projected struct {
		x0, y0, x1, y1 int
		depth          float64
	}
	w, h := c.Pixels()
	out := make([]projected, 0, len(segs))
	for _, s := range segs {
		x0, y0, d0, ok0 := cam.Project(s.From, w, h)
		x1, y1, d1, ok1 := cam.Project(s.To, w, h)
		if ok0 && ok1 {
			out = append(out, projected{x0, y0, x1, y1, (d0 + d1) / 2})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].depth < out[j].depth })
	for _, p := range out {
		c.Line(p.x0, p.y0, p.x1, p.y1)
	}
}
