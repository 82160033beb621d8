package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func TestNew(t *testing.T) {
	cam := New(1280, 720)

	if cam.Position != (mgl32.Vec3{0, 0, 10}) {
		t.Errorf("expected camera at (0, 0, 10), got %v", cam.Position)
	}
	if cam.FovY != 75 || cam.Near != 0.1 || cam.Far != 1000 {
		t.Errorf("unexpected frustum fov=%f near=%f far=%f", cam.FovY, cam.Near, cam.Far)
	}
}

func TestScreenNDCRoundtrip(t *testing.T) {
	cam := New(1280, 720)

	testCases := []struct{ sx, sy float32 }{
		{640, 360}, // center
		{0, 0},     // top-left
		{1280, 720},
		{100, 600},
	}

	for _, tc := range testCases {
		x, y := cam.ScreenToNDC(tc.sx, tc.sy)
		if x < -1 || x > 1 || y < -1 || y > 1 {
			t.Errorf("NDC (%f,%f) out of range for screen (%f,%f)", x, y, tc.sx, tc.sy)
		}
		sx, sy := cam.NDCToScreen(x, y)
		if !near(sx, tc.sx, 0.01) || !near(sy, tc.sy, 0.01) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, x, y, sx, sy)
		}
	}
}

func TestScreenToNDCYUp(t *testing.T) {
	cam := New(800, 600)
	_, top := cam.ScreenToNDC(400, 0)
	if top != 1 {
		t.Errorf("expected top of screen at ndc y=1, got %f", top)
	}
}

func TestCenterRayHitsOrigin(t *testing.T) {
	cam := New(1280, 720)

	p, ok := cam.NDCToWorld(0, 0, 0)
	if !ok {
		t.Fatal("expected center ray to hit z=0")
	}
	if p.Len() > 1e-3 {
		t.Errorf("expected hit at origin, got %v", p)
	}
}

func TestNDCToWorldProjectRoundtrip(t *testing.T) {
	cam := New(1280, 720)

	for _, ndc := range [][2]float32{{0.5, 0.5}, {-0.8, 0.2}, {0.1, -0.9}} {
		p, ok := cam.NDCToWorld(ndc[0], ndc[1], 0)
		if !ok {
			t.Fatalf("ray through %v missed the plane", ndc)
		}
		if !near(p[2], 0, 1e-3) {
			t.Errorf("hit %v not on z=0", p)
		}
		sx, sy, depth, ok := cam.Project(p)
		if !ok {
			t.Fatalf("projected point %v behind camera", p)
		}
		if !near(depth, 10, 1e-2) {
			t.Errorf("expected depth 10 for z=0 plane, got %f", depth)
		}
		x, y := cam.ScreenToNDC(sx, sy)
		if !near(x, ndc[0], 1e-3) || !near(y, ndc[1], 1e-3) {
			t.Errorf("roundtrip %v -> %v -> (%f,%f)", ndc, p, x, y)
		}
	}
}

func TestRightOfScreenIsPositiveX(t *testing.T) {
	cam := New(1280, 720)
	p, ok := cam.NDCToWorld(1, 0, 0)
	if !ok || p[0] <= 0 {
		t.Errorf("expected right edge to map to +x, got %v ok=%v", p, ok)
	}
}

func TestIntersectPlaneParallel(t *testing.T) {
	if _, ok := IntersectPlaneZ(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{1, 0, 0}, 0); ok {
		t.Error("expected parallel ray to miss")
	}
	if _, ok := IntersectPlaneZ(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, 0, 1}, 0); ok {
		t.Error("expected plane behind ray origin to miss")
	}
}

func TestProjectBehindCamera(t *testing.T) {
	cam := New(1280, 720)
	if _, _, _, ok := cam.Project(mgl32.Vec3{0, 0, 20}); ok {
		t.Error("expected point behind camera to be rejected")
	}
}

func TestResizeIgnoresZero(t *testing.T) {
	cam := New(1280, 720)
	cam.Resize(0, 500)
	if cam.ViewportW != 1280 || cam.ViewportH != 720 {
		t.Errorf("zero resize changed viewport to %fx%f", cam.ViewportW, cam.ViewportH)
	}
	cam.Resize(1920, 1080)
	if cam.Aspect() != 1920.0/1080.0 {
		t.Errorf("unexpected aspect %f", cam.Aspect())
	}
}

func TestOrbitKeepsDistance(t *testing.T) {
	cam := New(1280, 720)
	cam.Orbit(0.7, 0.3)
	if !near(cam.Distance(), 10, 1e-3) {
		t.Errorf("expected distance 10 after orbit, got %f", cam.Distance())
	}
	cam.Orbit(0, 10)
	if cam.Position[1] >= 10 {
		t.Errorf("pitch should be clamped short of the pole, got %v", cam.Position)
	}
}

func TestDollyClamp(t *testing.T) {
	cam := New(1280, 720)
	cam.Dolly(-100, 2)
	if !near(cam.Distance(), 2, 1e-4) {
		t.Errorf("expected distance clamped to 2, got %f", cam.Distance())
	}
	cam.Reset()
	if cam.Distance() != 10 {
		t.Errorf("expected reset distance 10, got %f", cam.Distance())
	}
}
