package scene

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/material"
	"github.com/df07/go-restir-gi/pkg/restir"
	"github.com/df07/go-restir-gi/pkg/texture"
)

const (
	primaryTMin = 1e-4

	// occlusionTolerance is the relative distance below which a previous-frame
	// hit counts as the same surface
	occlusionTolerance = 1e-3

	// invalidityFalloff maps the relative occlusion distance to invalidity
	invalidityFalloff = 0.05
)

// GBuffer holds the primary-visibility pass for a frame: the geometry inputs of the
// resampling kernel plus the shading terms the renderer needs to assemble an image.
type GBuffer struct {
	*restir.Geometry
	FullViewNormal *texture.Buffer[core.Vec3] // Full resolution view-space normals
	BRDF           *texture.Buffer[core.Vec3] // Diffuse BRDF at the primary hit toward the normal
	Emission       *texture.Buffer[core.Vec3] // Emitted radiance at the primary hit, background for sky

	scene      *Scene
	camera     *Camera
	prevCamera *Camera
}

// NewGBuffer allocates a G-buffer for a frame. prevCamera may be nil for the first frame.
func NewGBuffer(s *Scene, camera, prevCamera *Camera, width, height int) *GBuffer {
	return &GBuffer{
		Geometry:       restir.NewGeometry(width, height, camera),
		FullViewNormal: texture.NewBuffer[core.Vec3](width, height),
		BRDF:           texture.NewBuffer[core.Vec3](width, height),
		Emission:       texture.NewBuffer[core.Vec3](width, height),
		scene:          s,
		camera:         camera,
		prevCamera:     prevCamera,
	}
}

// BuildGeometry casts primary rays for every pixel and finishes the G-buffer
func BuildGeometry(s *Scene, prevCamera, camera *Camera, width, height int) *GBuffer {
	g := NewGBuffer(s, camera, prevCamera, width, height)
	g.Fill(g.Depth.Bounds())
	g.Finish()
	return g
}

// Camera returns the camera the G-buffer was rendered from
func (g *GBuffer) Camera() *Camera {
	return g.camera
}

// Fill casts primary rays for the pixels in bounds. Disjoint bounds may be filled concurrently.
func (g *GBuffer) Fill(bounds image.Rectangle) {
	size := g.Depth.Size()
	bounds = bounds.Intersect(g.Depth.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := image.Pt(x, y)
			ray := g.camera.GetRay(px, size)

			hit, isHit := g.scene.Hit(ray, primaryTMin, math.Inf(1))
			if !isHit {
				g.setSky(px, ray)
				continue
			}

			_, depth, ok := g.camera.Project(hit.Point)
			if !ok {
				g.setSky(px, ray)
				continue
			}
			g.Depth.Set(px, depth)
			g.FullViewNormal.Set(px, g.camera.WorldToViewNormal(hit.Normal))
			g.BRDF.Set(px, hit.Material.EvaluateBRDF(hit.Normal, hit))
			if emitter, isEmissive := hit.Material.(material.Emitter); isEmissive {
				g.Emission.Set(px, emitter.Emit(ray))
			}

			reprojection, invalidity := g.reproject(px, hit.Point)
			g.Reprojection.Set(px, reprojection)
			g.Invalidity.Set(px, invalidity)
		}
	}
}

// setSky marks px as background: zero depth, the background as emission and no
// usable history
func (g *GBuffer) setSky(px image.Point, ray core.Ray) {
	g.Depth.Set(px, 0)
	g.FullViewNormal.Set(px, core.Vec3{})
	g.BRDF.Set(px, core.Vec3{})
	g.Emission.Set(px, g.scene.Background(ray.Direction))
	g.Reprojection.Set(px, core.Vec4{})
	g.Invalidity.Set(px, 1)
}

// Finish derives the half-resolution normals once every pixel is filled
func (g *GBuffer) Finish() {
	g.HalfViewNormal = texture.DownsampleNormals(g.FullViewNormal)
}

// reproject finds where a surface point was on screen last frame and whether it was
// visible there. The uv delta goes in XY and validity in Z.
func (g *GBuffer) reproject(px image.Point, point core.Vec3) (core.Vec4, float64) {
	if g.prevCamera == nil {
		return core.Vec4{}, 1
	}

	prevUV, _, ok := g.prevCamera.Project(point)
	if !ok || prevUV.X < 0 || prevUV.X >= 1 || prevUV.Y < 0 || prevUV.Y >= 1 {
		return core.Vec4{}, 1
	}

	// Cast from the previous eye toward the point; a closer hit occluded it
	toPoint := point.Subtract(g.prevCamera.Center())
	distance := toPoint.Length()
	ray := core.NewRay(g.prevCamera.Center(), toPoint.Multiply(1/distance))

	occlusion := 0.0
	if hit, isHit := g.scene.Hit(ray, primaryTMin, distance*(1+occlusionTolerance)); isHit {
		occlusion = max(0, distance-hit.T) / distance
	}

	uv := PixelUV(px, g.Depth.Size())
	delta := prevUV.Subtract(uv)

	validity := 0.0
	if occlusion < occlusionTolerance {
		validity = 1
	}
	return core.NewVec4(delta.X, delta.Y, validity, 0), core.Smoothstep(0, invalidityFalloff, occlusion)
}
