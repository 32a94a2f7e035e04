package scene

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minDistance = 0.2
	maxDistance = 20.0
	maxPitch    = 1.45
	nearPlane   = 0.05

	// cellAspect is the height-to-width ratio of a terminal cell.
	cellAspect = 2.0
)

// Camera orbits a target point. Yaw is measured about +Z from +X; positive pitch
// places the eye above the target.
type Camera struct {
	Target   r3.Vec
	Distance float64
	Yaw      float64
	Pitch    float64
	FOV      float64 // vertical field of view in radians
}

// DefaultCamera looks at the robot from the front, slightly above the base.
func DefaultCamera() Camera {
	return Camera{
		Target:   r3.Vec{Z: 0.5},
		Distance: 1.6,
		Yaw:      0,
		Pitch:    0.3,
		FOV:      math.Pi / 3,
	}
}

// Orbit rotates the camera around its target.
func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw = math.Mod(c.Yaw+dyaw, 2*math.Pi)
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+dpitch))
}

// Zoom scales the distance to the target.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = math.Max(minDistance, math.Min(maxDistance, c.Distance*factor))
}

// Eye returns the camera position.
func (c Camera) Eye() r3.Vec {
	dir := r3.Vec{
		X: math.Cos(c.Pitch) * math.Cos(c.Yaw),
		Y: math.Cos(c.Pitch) * math.Sin(c.Yaw),
		Z: math.Sin(c.Pitch),
	}
	return r3.Add(c.Target, r3.Scale(c.Distance, dir))
}

// basis returns the forward, right and up unit vectors of the view.
func (c Camera) basis() (fwd, right, up r3.Vec) {
	fwd = r3.Unit(r3.Sub(c.Target, c.Eye()))
	right = r3.Unit(r3.Cross(fwd, r3.Vec{Z: 1}))
	up = r3.Cross(right, fwd)
	return fwd, right, up
}

// Project maps a world point to a cell of a w×h grid. ok is false for points behind
// the near plane or outside the grid.
func (c Camera) Project(p r3.Vec, w, h int) (x, y int, depth float64, ok bool) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, false
	}
	fwd, right, up := c.basis()
	v := r3.Sub(p, c.Eye())
	depth = r3.Dot(v, fwd)
	if depth < nearPlane {
		return 0, 0, depth, false
	}

	fov := c.FOV
	if fov <= 0 {
		fov = math.Pi / 3
	}
	scale := float64(h) / 2 / math.Tan(fov/2)
	sx := r3.Dot(v, right) / depth * scale * cellAspect
	sy := r3.Dot(v, up) / depth * scale

	x = int(math.Round(float64(w)/2 + sx))
	y = int(math.Round(float64(h)/2 - sy))
	ok = x >= 0 && x < w && y >= 0 && y < h
	return x, y, depth, ok
}
