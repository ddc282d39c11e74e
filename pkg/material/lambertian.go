package material

import (
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo ColorSource // Base color/reflectance (can be solid or textured)
}

// NewLambertian creates a new lambertian material with solid color
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: NewSolidColor(albedo)}
}

// NewTexturedLambertian creates a new lambertian material with texture
func NewTexturedLambertian(albedoTexture ColorSource) *Lambertian {
	return &Lambertian{Albedo: albedoTexture}
}

// Scatter implements the Material interface for lambertian scattering
func (l *Lambertian) Scatter(rayIn core.Ray, hit SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool) {
	// Generate cosine-weighted random direction in hemisphere around normal
	scatterDirection := core.SampleCosineHemisphere(hit.Normal, sampler.Get2D()).Normalize()
	scattered := core.NewRay(hit.Point, scatterDirection)

	// Calculate PDF: cos(θ) / π where θ is angle from normal
	pdf := l.PDF(scatterDirection, hit.Normal)
	if pdf <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Incoming:    rayIn,
		Scattered:   scattered,
		Attenuation: l.EvaluateBRDF(scatterDirection, &hit),
		PDF:         pdf,
	}, true
}

// EvaluateBRDF returns albedo/π above the surface and zero below it
func (l *Lambertian) EvaluateBRDF(outgoingDir core.Vec3, hit *SurfaceInteraction) core.Vec3 {
	if outgoingDir.Dot(hit.Normal) <= 0 {
		return core.Vec3{}
	}

	albedo := l.Albedo.Evaluate(hit.UV, hit.Point)
	return albedo.Multiply(1.0 / math.Pi)
}

// PDF calculates the cosine-weighted hemisphere density: cos(θ) / π
func (l *Lambertian) PDF(outgoingDir, normal core.Vec3) float64 {
	cosTheta := outgoingDir.Dot(normal)
	if cosTheta <= 0 {
		return 0.0
	}
	return cosTheta / math.Pi
}
