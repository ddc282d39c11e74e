// Package restir implements one frame-step of spatiotemporal reservoir resampling
// for one-sample-per-pixel diffuse indirect lighting.
package restir

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

// epsilon guards every division in the kernel
const epsilon = 1e-8

// MaxPayloadExtent is the largest frame width or height a payload can address
const MaxPayloadExtent = 1 << 16

// Payload packs a 2D pixel coordinate into one word: x in the low 16 bits, y in the high 16 bits.
// It names the pixel whose history buffers hold a reservoir's selected sample.
type Payload uint32

// PackPayload packs a pixel coordinate
func PackPayload(p image.Point) Payload {
	return Payload(uint32(p.X)&0xffff | (uint32(p.Y)&0xffff)<<16)
}

// Point unpacks the coordinate
func (p Payload) Point() image.Point {
	return image.Pt(int(uint32(p)&0xffff), int(uint32(p)>>16))
}

// Reservoir is a single-slot weighted reservoir.
// It stores only scalars and the payload key; the sample detail lives in keyed history buffers.
type Reservoir struct {
	WeightSum float64 // Running sum of resampling weights
	M         float64 // Effective number of samples folded in
	W         float64 // Contribution weight of the selected sample
	Payload   Payload // Coordinate of the selected sample's detail
}

// NewCandidateReservoir seeds a reservoir from a freshly traced candidate
func NewCandidateReservoir(payload Payload, targetPdf, invPdf float64) Reservoir {
	invPdf = sanitizeWeight(invPdf)
	return Reservoir{
		WeightSum: sanitizeWeight(targetPdf * invPdf),
		M:         1,
		W:         invPdf,
		Payload:   payload,
	}
}

// Update folds one weighted candidate into the reservoir and reports whether it became the selection.
// Exactly one uniform draw is consumed per call. M is left to the caller.
func (r *Reservoir) Update(weight float64, payload Payload, rng *core.PixelRNG) bool {
	weight = sanitizeWeight(weight)
	r.WeightSum += weight

	u := rng.Get1D()
	if r.WeightSum <= 0 || weight <= 0 {
		return false
	}

	if u < weight/r.WeightSum {
		r.Payload = payload
		return true
	}
	return false
}

// HasSelection reports whether the reservoir holds a valid sample
func (r Reservoir) HasSelection() bool {
	return r.M > 0
}

// ClampM limits the sample count, bounding how much a stale history reservoir can dominate
func (r *Reservoir) ClampM(limit float64) {
	r.M = max(0, min(r.M, limit))
}

// Finalize computes W for the selected sample and clamps it to wClamp
func (r *Reservoir) Finalize(selectedPdf, wClamp float64) {
	w := (1.0 / max(epsilon, selectedPdf)) * (r.WeightSum / max(epsilon, r.M))
	r.W = min(sanitizeWeight(w), wClamp)
}

// PackedReservoir is the buffer form of a reservoir: weight sum, M, W, payload bits
type PackedReservoir [4]float32

// Pack serializes the reservoir for the output buffer
func (r Reservoir) Pack() PackedReservoir {
	return PackedReservoir{
		float32(r.WeightSum),
		float32(r.M),
		float32(r.W),
		math.Float32frombits(uint32(r.Payload)),
	}
}

// UnpackReservoir reads a reservoir back from its buffer form.
// Negative or non-finite fields from a corrupt buffer come back as zero.
func UnpackReservoir(p PackedReservoir) Reservoir {
	return Reservoir{
		WeightSum: sanitizeWeight(float64(p[0])),
		M:         sanitizeWeight(float64(p[1])),
		W:         sanitizeWeight(float64(p[2])),
		Payload:   Payload(math.Float32bits(p[3])),
	}
}

// sanitizeWeight maps negative, NaN and infinite weights to zero
func sanitizeWeight(w float64) float64 {
	if !(w > 0) || math.IsInf(w, 1) {
		return 0
	}
	return w
}
