package restir

import (
	"image"

	"github.com/df07/go-restir-gi/pkg/core"
)

// FrameContext holds the frame-global constants
type FrameContext struct {
	FrameIndex uint32
}

// PixelResult summarizes one pixel's resampling for statistics
type PixelResult struct {
	Sky          bool               // Background pixel, sentinel written
	Resampled    bool               // The reuse loop ran
	Considered   int                // Neighbors enumerated
	Accepted     int                // Neighbors that passed validation and were folded in
	Rejections   [numRejections]int // Rejected neighbors by reason
	Selected     Payload            // Source of the final selection (current pixel for the candidate)
	FromHistory  bool               // The final selection came from a history reservoir
	Reservoir    Reservoir          // Final reservoir before the payload is re-homed
	CandidateLen float64            // Candidate ray length
}

// RejectionCount returns how many neighbors were rejected for reason
func (r PixelResult) RejectionCount(reason Rejection) int {
	if reason <= Accepted || reason >= numRejections {
		return 0
	}
	return r.Rejections[reason]
}

// Kernel runs the per-pixel resampling step. It is safe for concurrent use:
// all per-pixel state lives on the stack of ResolvePixel.
type Kernel struct {
	config    Config
	generator CandidateGenerator
	validator Validator
}

// NewKernel creates a kernel around a trace oracle
func NewKernel(config Config, oracle TraceOracle) *Kernel {
	return &Kernel{
		config: config,
		generator: CandidateGenerator{
			Oracle:          oracle,
			UseBRDFSampling: config.UseBRDFSampling,
			RayBias:         config.RayBias,
		},
		validator: DefaultValidator(),
	}
}

// Config returns the kernel configuration
func (k *Kernel) Config() Config {
	return k.config
}

// ResolvePixel runs one frame-step for px. It reads geometry for the current frame and
// history from the previous one, and writes only px's slots in out.
func (k *Kernel) ResolvePixel(px image.Point, frame FrameContext, geo *Geometry, hist, out *Buffers) PixelResult {
	depth := geo.Depth.At(px)
	if depth == 0 {
		out.writeSentinel(px)
		return PixelResult{Sky: true}
	}

	rng := core.NewPixelRNG(uint32(px.X), uint32(px.Y), frame.FrameIndex)
	size := geo.Depth.Size()

	// Reconstruct the surface at the pixel center
	uv := core.NewVec2((float64(px.X)+0.5)/float64(size.X), (float64(px.Y)+0.5)/float64(size.Y))
	surface := geo.View.Unproject(uv, depth)
	viewNormal := geo.ViewNormal(px)
	normal := geo.View.ViewToWorldNormal(viewNormal).Normalize()

	// CandidateSeeded
	candidate := k.generator.Generate(px, surface, normal, &rng)
	k.writeCandidateHistory(px, candidate, geo, hist, out)

	selected := candidate.Detail()
	selectedPdf := k.targetPdf(candidate.Radiance, normal, candidate.Direction)
	reservoir := NewCandidateReservoir(PackPayload(px), selectedPdf, candidate.InvPdf)

	result := PixelResult{
		Selected:     reservoir.Payload,
		CandidateLen: candidate.HitDistance,
	}

	// Resampling
	if candidate.PrevSampleValid && k.config.EnableResampling {
		result.Resampled = true

		sampler := NewNeighborSampler(px, frame.FrameIndex)
		probe := VisibilityProbe{Depth: geo.Depth, View: geo.View}
		mClamp := k.historyMClamp(geo.Invalidity.At(px))
		mSum := reservoir.M

		for i := 0; ShouldContinue(i, mSum, k.config.TemporalMClamp); i++ {
			result.Considered++

			samplePx := sampler.SamplePixel(px, i, mSum)
			if !geo.Depth.InBounds(samplePx) {
				result.Rejections[RejectOutOfBounds]++
				continue
			}

			prevPx, reprojValid := Reproject(samplePx, geo.Reprojection.At(samplePx), size)
			if !hist.Reservoir.InBounds(prevPx) {
				result.Rejections[RejectOutOfBounds]++
				continue
			}

			prev := hist.Sample(prevPx)
			rejection := k.validator.Check(NeighborContext{
				CenterNormal:      viewNormal,
				SampleNormal:      geo.ViewNormal(samplePx),
				CenterDepth:       depth,
				SampleDepth:       geo.Depth.At(samplePx),
				ReprojectionValid: reprojValid,
				RayOrigin:         candidate.Origin,
				SurfaceNormal:     normal,
				ReusedHit:         prev.Hit,
			})
			if rejection != Accepted {
				result.Rejections[rejection]++
				continue
			}

			neighbor := hist.ReservoirAt(prevPx)
			neighbor.ClampM(mClamp)

			toHit := prev.Hit.Subtract(candidate.Origin).Normalize()
			pdf := k.targetPdf(prev.Radiance, normal, toHit)
			jacobian := Jacobian(candidate.Origin, prev.Origin, prev.Hit, prev.HitNormal, prev.NormalDot, k.config.MinDistance)

			// The temporal sample was visibility-correct last frame
			visibility := 1.0
			if i > 0 {
				visibility = probe.Visibility(candidate.Origin, prev.Hit)
			}

			weight := pdf * neighbor.W * neighbor.M * jacobian * visibility
			if reservoir.Update(weight, PackPayload(prevPx), &rng) {
				selected = prev
				selectedPdf = pdf
				result.FromHistory = true
			}

			mSum += neighbor.M
			result.Accepted++
		}

		// Finalized
		reservoir.M = mSum
		reservoir.Finalize(selectedPdf, k.config.ReservoirWClamp)
	}

	result.Selected = reservoir.Payload
	result.Reservoir = reservoir

	// The selected sample is re-homed into this pixel's output slots
	out.writeSample(px, selected, candidate.Origin, normal)
	reservoir.Payload = PackPayload(px)
	out.Reservoir.Set(px, reservoir.Pack())

	return result
}

// targetPdf is the function the reservoir importance-samples: luminance, with the
// cosine term only when candidates are not already cosine-distributed
func (k *Kernel) targetPdf(radiance, normal, direction core.Vec3) float64 {
	pdf := max(0, radiance.Luminance())
	if !k.config.UseBRDFSampling {
		pdf *= max(0, normal.Dot(direction))
	}
	return pdf
}

// historyMClamp lowers the M clamp toward 25% as the invalidity confidence rises
func (k *Kernel) historyMClamp(invalidity float64) float64 {
	return k.config.TemporalMClamp * core.Lerp(1, 0.25, core.Clamp(invalidity, 0, 1))
}

// writeCandidateHistory updates the smoothed candidate ray length for px
func (k *Kernel) writeCandidateHistory(px image.Point, candidate Candidate, geo *Geometry, hist, out *Buffers) {
	prevPx, valid := Reproject(px, geo.Reprojection.At(px), geo.Depth.Size())
	valid = valid && hist.CandidateHistory.InBounds(prevPx)

	history := 0.0
	if valid {
		history = hist.CandidateHistory.At(prevPx)
	}
	out.CandidateHistory.Set(px, SmoothRayLength(history, candidate.HitDistance, valid))
}
