// Package camera provides a perspective camera and the screen/world
// transforms used for pointer interaction and point projection.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a right-handed perspective camera looking at Target.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	// Vertical field of view in degrees.
	FovY float32
	Near float32
	Far  float32

	// Viewport dimensions in pixels.
	ViewportW, ViewportH float32
}

// New creates a camera at (0, 0, 10) looking at the origin.
func New(viewportW, viewportH float32) *Camera {
	return &Camera{
		Position:  mgl32.Vec3{0, 0, 10},
		Target:    mgl32.Vec3{0, 0, 0},
		Up:        mgl32.Vec3{0, 1, 0},
		FovY:      75,
		Near:      0.1,
		Far:       1000,
		ViewportW: max(viewportW, 1),
		ViewportH: max(viewportH, 1),
	}
}

// Aspect returns the viewport aspect ratio.
func (c *Camera) Aspect() float32 {
	return c.ViewportW / c.ViewportH
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the camera-to-clip matrix.
func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), c.Aspect(), c.Near, c.Far)
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Resize updates the viewport. Zero or negative sizes are ignored.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW <= 0 || viewportH <= 0 {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// ScreenToNDC maps pixel coordinates (origin top-left) to normalized device
// coordinates in [-1, 1] with y up.
func (c *Camera) ScreenToNDC(sx, sy float32) (x, y float32) {
	x = sx/c.ViewportW*2 - 1
	y = -(sy/c.ViewportH*2 - 1)
	return x, y
}

// NDCToScreen is the inverse of ScreenToNDC.
func (c *Camera) NDCToScreen(x, y float32) (sx, sy float32) {
	sx = (x + 1) / 2 * c.ViewportW
	sy = (1 - y) / 2 * c.ViewportH
	return sx, sy
}

// Ray returns the world-space origin and unit direction of the ray through
// the given NDC point.
func (c *Camera) Ray(x, y float32) (origin, dir mgl32.Vec3) {
	inv := c.ViewProjection().Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{x, y, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{x, y, 1}, inv)
	return near, far.Sub(near).Normalize()
}

// NDCToWorld casts a ray through the NDC point and intersects it with the
// plane z = planeZ. ok is false when the ray is parallel to the plane or
// the hit lies behind the camera.
func (c *Camera) NDCToWorld(x, y, planeZ float32) (mgl32.Vec3, bool) {
	origin, dir := c.Ray(x, y)
	return IntersectPlaneZ(origin, dir, planeZ)
}

// IntersectPlaneZ intersects a ray with the plane z = planeZ.
func IntersectPlaneZ(origin, dir mgl32.Vec3, planeZ float32) (mgl32.Vec3, bool) {
	if mgl32.Abs(dir[2]) < 1e-6 {
		return mgl32.Vec3{}, false
	}
	t := (planeZ - origin[2]) / dir[2]
	if t < 0 {
		return mgl32.Vec3{}, false
	}
	return origin.Add(dir.Mul(t)), true
}

// Project maps a world point to screen pixels. depth is the distance along
// the view axis (positive in front of the camera). ok is false for points
// behind the near plane.
func (c *Camera) Project(p mgl32.Vec3) (sx, sy, depth float32, ok bool) {
	view := c.View()
	vp := view.Mul4x1(p.Vec4(1))
	depth = -vp[2]
	if depth < c.Near {
		return 0, 0, depth, false
	}
	clip := c.Projection().Mul4x1(vp)
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	sx, sy = c.NDCToScreen(ndcX, ndcY)
	return sx, sy, depth, true
}

// Distance returns the camera's distance to its target.
func (c *Camera) Distance() float32 {
	return c.Position.Sub(c.Target).Len()
}

// Orbit rotates the camera about its target by yaw and pitch radians,
// keeping the distance fixed. Pitch is limited short of the poles.
func (c *Camera) Orbit(yaw, pitch float32) {
	offset := c.Position.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	curYaw, curPitch := yawPitch(offset)
	y := float64(curYaw + yaw)
	p := float64(clamp(curPitch+pitch, -1.5, 1.5))

	c.Position = c.Target.Add(mgl32.Vec3{
		r * float32(math.Cos(p)*math.Sin(y)),
		r * float32(math.Sin(p)),
		r * float32(math.Cos(p)*math.Cos(y)),
	})
}

// Dolly moves the camera toward (negative) or away from the target,
// never closer than minDist.
func (c *Camera) Dolly(delta, minDist float32) {
	offset := c.Position.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	nr := max(r+delta, minDist)
	c.Position = c.Target.Add(offset.Mul(nr / r))
}

// Reset returns the camera to its default placement.
func (c *Camera) Reset() {
	c.Position = mgl32.Vec3{0, 0, 10}
	c.Target = mgl32.Vec3{}
	c.Up = mgl32.Vec3{0, 1, 0}
}

func yawPitch(v mgl32.Vec3) (yaw, pitch float32) {
	r := v.Len()
	yaw = float32(math.Atan2(float64(v[0]), float64(v[2])))
	pitch = float32(math.Asin(float64(v[1] / r)))
	return yaw, pitch
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
