package restir

import (
	"image"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/texture"
)

// skyHitDistance marks the irradiance texel of a background pixel
const skyHitDistance = -10000.0

// SampleDetail is the full record of a selected sample, kept outside the reservoir
type SampleDetail struct {
	Radiance    core.Vec3 // Incoming radiance
	Origin      core.Vec3 // Ray origin the sample was traced from
	Hit         core.Vec3 // Hit position
	HitNormal   core.Vec3 // Normal at the hit
	HitDistance float64   // Distance from origin to hit
	NormalDot   float64   // -dot(HitNormal, direction): cosine at the hit as seen from Origin
}

// Geometry is the current frame's read-only per-pixel input
type Geometry struct {
	Depth          *texture.Buffer[float64]   // Full resolution, reverse-Z, 0 for sky
	HalfViewNormal *texture.Buffer[core.Vec3] // Half resolution view-space normals
	Reprojection   *texture.Buffer[core.Vec4] // uv delta to the previous frame, validity in Z
	Invalidity     *texture.Buffer[float64]   // Ray-tracing invalidity confidence in [0,1]
	View           ViewReconstructor
}

// NewGeometry allocates geometry buffers for a width x height frame
func NewGeometry(width, height int, view ViewReconstructor) *Geometry {
	return &Geometry{
		Depth:          texture.NewBuffer[float64](width, height),
		HalfViewNormal: texture.NewBuffer[core.Vec3](max(1, (width+1)/2), max(1, (height+1)/2)),
		Reprojection:   texture.NewBuffer[core.Vec4](width, height),
		Invalidity:     texture.NewBuffer[float64](width, height),
		View:           view,
	}
}

// ViewNormal samples the half-resolution normal for a full-resolution pixel
func (g *Geometry) ViewNormal(p image.Point) core.Vec3 {
	return g.HalfViewNormal.At(g.HalfViewNormal.Clamp(image.Pt(p.X/2, p.Y/2)))
}

// Buffers is one frame's worth of resampling state.
// A frame writes Buffers as output; the next frame reads the same set as history.
type Buffers struct {
	Irradiance       *texture.Buffer[core.Vec4]       // Selected radiance, dot(normal, outgoing) in W
	RayOrigin        *texture.Buffer[core.Vec4]       // Secondary ray origin
	Ray              *texture.Buffer[core.Vec4]       // Selected hit position, distance from origin in W
	HitNormal        *texture.Buffer[core.Vec4]       // Hit normal, -dot(hit normal, outgoing) in W
	Reservoir        *texture.Buffer[PackedReservoir] // Packed reservoir
	CandidateHistory *texture.Buffer[float64]         // Smoothed candidate ray length
}

// NewBuffers allocates a zeroed buffer set
func NewBuffers(width, height int) *Buffers {
	return &Buffers{
		Irradiance:       texture.NewBuffer[core.Vec4](width, height),
		RayOrigin:        texture.NewBuffer[core.Vec4](width, height),
		Ray:              texture.NewBuffer[core.Vec4](width, height),
		HitNormal:        texture.NewBuffer[core.Vec4](width, height),
		Reservoir:        texture.NewBuffer[PackedReservoir](width, height),
		CandidateHistory: texture.NewBuffer[float64](width, height),
	}
}

// Size returns the frame extent
func (b *Buffers) Size() image.Point {
	return b.Reservoir.Size()
}

// Sample looks up the sample detail stored for a pixel
func (b *Buffers) Sample(p image.Point) SampleDetail {
	irradiance := b.Irradiance.At(p)
	ray := b.Ray.At(p)
	hitNormal := b.HitNormal.At(p)

	return SampleDetail{
		Radiance:    irradiance.XYZ(),
		Origin:      b.RayOrigin.At(p).XYZ(),
		Hit:         ray.XYZ(),
		HitNormal:   hitNormal.XYZ(),
		HitDistance: ray.W,
		NormalDot:   hitNormal.W,
	}
}

// ReservoirAt unpacks the reservoir stored for a pixel
func (b *Buffers) ReservoirAt(p image.Point) Reservoir {
	return UnpackReservoir(b.Reservoir.At(p))
}

// writeSample stores the selected sample as seen from origin with surface normal
func (b *Buffers) writeSample(p image.Point, s SampleDetail, origin, normal core.Vec3) {
	offset := s.Hit.Subtract(origin)
	distance := offset.Length()
	outgoing := offset.Normalize()

	b.Irradiance.Set(p, s.Radiance.WithW(normal.Dot(outgoing)))
	b.RayOrigin.Set(p, origin.WithW(1))
	b.Ray.Set(p, s.Hit.WithW(distance))
	b.HitNormal.Set(p, s.HitNormal.WithW(-s.HitNormal.Dot(outgoing)))
}

// writeSentinel marks a background pixel. Only irradiance, hit normal and reservoir are touched.
func (b *Buffers) writeSentinel(p image.Point) {
	b.Irradiance.Set(p, core.NewVec4(0, 0, 0, skyHitDistance))
	b.HitNormal.Set(p, core.Vec4{})
	b.Reservoir.Set(p, PackedReservoir{})
}
