package scene

import (
	"image"
	"math"
	"testing"

	"github.com/df07/go-restir-gi/pkg/core"
)

func TestBuildGeometry_FirstFrame(t *testing.T) {
	s := NewCornellScene()
	camera := s.CameraForFrame(0, 1)
	g := BuildGeometry(s, nil, camera, 16, 16)

	center := image.Pt(8, 8)
	if g.Depth.At(center) <= 0 {
		t.Fatalf("Expected geometry at the image center, got depth %f", g.Depth.At(center))
	}
	if got := g.Reprojection.At(center); got.Z != 0 {
		t.Errorf("Expected no valid reprojection without a previous camera, got %v", got)
	}
	if got := g.Invalidity.At(center); got != 1 {
		t.Errorf("Expected full invalidity without a previous camera, got %f", got)
	}

	if size := g.HalfViewNormal.Size(); size != image.Pt(8, 8) {
		t.Errorf("Expected half resolution normals 8x8, got %v", size)
	}
}

func TestBuildGeometry_StaticCameraReprojectsInPlace(t *testing.T) {
	s := NewCornellScene()
	camera := s.CameraForFrame(0, 1)
	g := BuildGeometry(s, camera, camera, 16, 16)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			px := image.Pt(x, y)
			if g.Depth.At(px) == 0 {
				continue
			}
			r := g.Reprojection.At(px)
			if math.Abs(r.X) > 1e-9 || math.Abs(r.Y) > 1e-9 || r.Z != 1 {
				t.Errorf("Pixel %v: expected in-place valid reprojection, got %v", px, r)
			}
			if inv := g.Invalidity.At(px); inv > 1e-6 {
				t.Errorf("Pixel %v: expected zero invalidity, got %f", px, inv)
			}
		}
	}
}

func TestBuildGeometry_ReconstructsPrimaryHit(t *testing.T) {
	s := NewCornellScene()
	camera := s.CameraForFrame(0, 1)
	size := image.Pt(16, 16)
	g := BuildGeometry(s, nil, camera, size.X, size.Y)

	for _, px := range []image.Point{{8, 8}, {4, 12}, {12, 3}} {
		depth := g.Depth.At(px)
		if depth == 0 {
			continue
		}
		ray := camera.GetRay(px, size)
		hit, ok := s.Hit(ray, primaryTMin, math.Inf(1))
		if !ok {
			t.Fatalf("Pixel %v: expected a hit", px)
		}

		reconstructed := g.View.Unproject(PixelUV(px, size), depth)
		if reconstructed.Subtract(hit.Point).Length() > 1e-6*hit.T {
			t.Errorf("Pixel %v: reconstructed %v, expected %v", px, reconstructed, hit.Point)
		}

		worldNormal := camera.ViewToWorldNormal(g.FullViewNormal.At(px))
		if worldNormal.Subtract(hit.Normal).Length() > 1e-9 {
			t.Errorf("Pixel %v: expected normal %v, got %v", px, hit.Normal, worldNormal)
		}
	}
}

func TestBuildGeometry_Sky(t *testing.T) {
	s := NewDefaultScene()
	camera := s.CameraForFrame(0, 2)
	g := BuildGeometry(s, nil, camera, 32, 16)

	// The top row looks over the spheres into the sky
	px := image.Pt(16, 0)
	if g.Depth.At(px) != 0 {
		t.Fatalf("Expected sky at %v, got depth %f", px, g.Depth.At(px))
	}
	ray := camera.GetRay(px, g.Depth.Size())
	if got := g.Emission.At(px); got.Subtract(s.Background(ray.Direction)).Length() > 1e-12 {
		t.Errorf("Expected background %v, got %v", s.Background(ray.Direction), got)
	}
	if got := g.BRDF.At(px); got != (core.Vec3{}) {
		t.Errorf("Expected no BRDF for sky, got %v", got)
	}
}

func TestGBuffer_SetSkyOverwritesStaleSurface(t *testing.T) {
	s := NewDefaultScene()
	camera := s.CameraForFrame(0, 1)
	g := NewGBuffer(s, camera, nil, 4, 4)

	// Leftovers of a surface that no longer projects
	px := image.Pt(1, 2)
	g.Depth.Set(px, 0.5)
	g.FullViewNormal.Set(px, core.NewVec3(0, 0, -1))
	g.BRDF.Set(px, core.NewVec3(0.2, 0.2, 0.2))
	g.Emission.Set(px, core.NewVec3(9, 9, 9))
	g.Reprojection.Set(px, core.NewVec4(0.1, 0.1, 1, 0))
	g.Invalidity.Set(px, 0)

	ray := camera.GetRay(px, g.Depth.Size())
	g.setSky(px, ray)

	if got := g.Depth.At(px); got != 0 {
		t.Errorf("Expected zero depth, got %f", got)
	}
	if got := g.Emission.At(px); got != s.Background(ray.Direction) {
		t.Errorf("Expected background %v, got %v", s.Background(ray.Direction), got)
	}
	if got := g.Invalidity.At(px); got != 1 {
		t.Errorf("Expected full invalidity, got %f", got)
	}
	if got := g.Reprojection.At(px); got != (core.Vec4{}) {
		t.Errorf("Expected no reprojection, got %v", got)
	}
	if g.BRDF.At(px) != (core.Vec3{}) || g.FullViewNormal.At(px) != (core.Vec3{}) {
		t.Errorf("Expected surface terms cleared, got BRDF %v normal %v", g.BRDF.At(px), g.FullViewNormal.At(px))
	}
}

func TestBuildGeometry_MovingCameraDetectsMotion(t *testing.T) {
	s := NewCornellScene()
	prev := s.CameraForFrame(0, 1)
	camera := s.CameraForFrame(8, 1) // 2 degrees of orbit
	g := BuildGeometry(s, prev, camera, 32, 32)

	moved := 0
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			px := image.Pt(x, y)
			if g.Depth.At(px) == 0 {
				continue
			}
			if r := g.Reprojection.At(px); math.Abs(r.X) > 1e-6 {
				moved++
			}
		}
	}
	if moved == 0 {
		t.Error("Expected a non-zero reprojection delta after the camera moved")
	}
}

func TestScene_Hit_Closest(t *testing.T) {
	s := NewCornellScene()

	// Straight down the center column hits the light before the ceiling from below
	ray := core.NewRay(core.NewVec3(277.5, 300, 277.5), core.NewVec3(0, 1, 0))
	hit, ok := s.Hit(ray, 1e-4, math.Inf(1))
	if !ok {
		t.Fatal("Expected a hit")
	}
	if math.Abs(hit.Point.Y-554) > 1e-9 {
		t.Errorf("Expected the light at y=554, got %v", hit.Point)
	}
}
