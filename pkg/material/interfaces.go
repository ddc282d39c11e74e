package material

import (
	"image"

	"github.com/df07/go-restir-gi/pkg/core"
)

// Material interface for surfaces that scatter light diffusely
type Material interface {
	// Scatter samples an outgoing direction
	Scatter(rayIn core.Ray, hit SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool)

	// EvaluateBRDF evaluates the BRDF for an outgoing direction at the hit
	EvaluateBRDF(outgoingDir core.Vec3, hit *SurfaceInteraction) core.Vec3

	// PDF returns the density of Scatter choosing outgoingDir
	PDF(outgoingDir, normal core.Vec3) float64
}

// Emitter interface for materials that emit light
type Emitter interface {
	Emit(rayIn core.Ray) core.Vec3
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Incoming    core.Ray  // The incoming ray
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // BRDF value for the scattered direction
	PDF         float64   // Probability density of the scattered direction
}

// SurfaceInteraction contains information about a ray-object intersection
type SurfaceInteraction struct {
	Point     core.Vec3 // Point of intersection
	Normal    core.Vec3 // Surface normal at intersection, facing the ray
	T         float64   // Parameter t along the ray
	FrontFace bool      // Whether ray hit the front face
	UV        core.Vec2 // Surface coordinates for textured materials
	Material  Material  // Material of the hit object
}

// SetFaceNormal sets the normal vector and determines front/back face
func (h *SurfaceInteraction) SetFaceNormal(ray core.Ray, outwardNormal core.Vec3) {
	h.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Multiply(-1)
	}
}

// texelAt maps wrapped uv coordinates onto a texel grid of the given size.
// V=0 is the bottom row.
func texelAt(uv core.Vec2, size image.Point) image.Point {
	u := uv.X - float64(int(uv.X))
	v := uv.Y - float64(int(uv.Y))
	if u < 0 {
		u += 1.0
	}
	if v < 0 {
		v += 1.0
	}

	x := min(size.X-1, max(0, int(u*float64(size.X))))
	y := min(size.Y-1, max(0, int((1.0-v)*float64(size.Y))))
	return image.Pt(x, y)
}
