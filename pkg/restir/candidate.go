package restir

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/texture"
)

// candidateHistoryBlend is the exponential moving average factor for the candidate ray length
const candidateHistoryBlend = 0.05

// TraceRequest describes one secondary ray handed to the trace oracle
type TraceRequest struct {
	Pixel  image.Point // Pixel that owns the ray, for oracles keyed by pixel
	Ray    core.Ray    // Biased origin and unit direction
	Normal core.Vec3   // Surface normal at the origin (world space)
	InvPdf float64     // Inverse pdf of the sampled direction
}

// TraceResult is what the oracle found along a ray
type TraceResult struct {
	Radiance        core.Vec3 // Incoming radiance along the ray
	HitNormal       core.Vec3 // Normal at the hit point; zero for misses
	HitOffset       core.Vec3 // Hit point relative to the ray origin; zero means Direction*HitDistance
	HitDistance     float64   // Distance from origin to hit
	InvPdf          float64   // Inverse pdf of the traced direction
	ReusedFromCache bool      // The oracle reused a previous-frame path for this pixel
}

// TraceOracle is the external ray-tracing stage
type TraceOracle interface {
	Trace(req TraceRequest) TraceResult
}

// Candidate is the freshly traced sample for a pixel
type Candidate struct {
	Radiance        core.Vec3
	Origin          core.Vec3
	Direction       core.Vec3
	Hit             core.Vec3
	HitNormal       core.Vec3
	HitDistance     float64
	InvPdf          float64
	PrevSampleValid bool
}

// Detail returns the candidate as a sample record
func (c Candidate) Detail() SampleDetail {
	return SampleDetail{
		Radiance:    c.Radiance,
		Origin:      c.Origin,
		Hit:         c.Hit,
		HitNormal:   c.HitNormal,
		HitDistance: c.HitDistance,
		NormalDot:   max(0, -c.HitNormal.Dot(c.Direction)),
	}
}

// CandidateGenerator wraps the trace oracle into candidate records
type CandidateGenerator struct {
	Oracle          TraceOracle
	UseBRDFSampling bool
	RayBias         float64
}

// Generate samples one direction above the surface, traces it and returns the candidate
func (g CandidateGenerator) Generate(px image.Point, surface, normal core.Vec3, rng *core.PixelRNG) Candidate {
	origin := surface.Add(normal.Multiply(g.RayBias))

	// Cosine-weighted when BRDF sampling, uniform hemisphere otherwise
	var direction core.Vec3
	var invPdf float64
	if g.UseBRDFSampling {
		direction = core.SampleCosineHemisphere(normal, rng.Get2D()).Normalize()
		invPdf = math.Pi / max(epsilon, direction.Dot(normal))
	} else {
		direction = core.SampleUniformHemisphere(normal, rng.Get2D()).Normalize()
		invPdf = 2 * math.Pi
	}

	result := g.Oracle.Trace(TraceRequest{
		Pixel:  px,
		Ray:    core.NewRay(origin, direction),
		Normal: normal,
		InvPdf: invPdf,
	})

	// The oracle may have traced a different direction (precomputed candidates)
	offset := result.HitOffset
	if offset.LengthSquared() == 0 {
		offset = direction.Multiply(max(0, result.HitDistance))
	} else {
		direction = offset.Normalize()
	}

	return Candidate{
		Radiance:        result.Radiance,
		Origin:          origin,
		Direction:       direction,
		Hit:             origin.Add(offset),
		HitNormal:       result.HitNormal,
		HitDistance:     offset.Length(),
		InvPdf:          sanitizeWeight(result.InvPdf),
		PrevSampleValid: result.ReusedFromCache,
	}
}

// SmoothRayLength blends the candidate ray length into its history.
// Without valid history the current length seeds it.
func SmoothRayLength(history, current float64, historyValid bool) float64 {
	if !historyValid || !(history > 0) {
		return current
	}
	return core.Lerp(history, current, candidateHistoryBlend)
}

// CandidateBuffers holds candidates traced by an earlier pass.
// It implements TraceOracle by looking up the requesting pixel.
type CandidateBuffers struct {
	Radiance  *texture.Buffer[core.Vec4] // RGB radiance, inverse pdf signed by previous-sample validity
	Hit       *texture.Buffer[core.Vec4] // Hit offset from the ray origin, hit distance
	HitNormal *texture.Buffer[core.Vec3] // Normal at the hit
}

// NewCandidateBuffers allocates empty candidate buffers
func NewCandidateBuffers(width, height int) *CandidateBuffers {
	return &CandidateBuffers{
		Radiance:  texture.NewBuffer[core.Vec4](width, height),
		Hit:       texture.NewBuffer[core.Vec4](width, height),
		HitNormal: texture.NewBuffer[core.Vec3](width, height),
	}
}

// Store records a trace result for a pixel
func (b *CandidateBuffers) Store(px image.Point, result TraceResult) {
	signedInvPdf := math.Abs(result.InvPdf)
	if !result.ReusedFromCache {
		signedInvPdf = -signedInvPdf
	}
	b.Radiance.Set(px, result.Radiance.WithW(signedInvPdf))
	b.Hit.Set(px, result.HitOffset.WithW(result.HitDistance))
	b.HitNormal.Set(px, result.HitNormal)
}

// Trace returns the stored candidate for the requesting pixel
func (b *CandidateBuffers) Trace(req TraceRequest) TraceResult {
	radiance := b.Radiance.At(req.Pixel)
	hit := b.Hit.At(req.Pixel)

	return TraceResult{
		Radiance:        radiance.XYZ(),
		HitNormal:       b.HitNormal.At(req.Pixel),
		HitOffset:       hit.XYZ(),
		HitDistance:     hit.W,
		InvPdf:          math.Abs(radiance.W),
		ReusedFromCache: radiance.W > 0,
	}
}
