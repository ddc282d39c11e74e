package restir

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

const (
	// MaxNeighbors bounds the reuse loop: one temporal plus four spatial candidates
	MaxNeighbors = 5

	// GoldenAngle is the angular step of the sampling spiral, in radians
	GoldenAngle = 2.39996322972865332

	// earlyExitFactor stops the loop once M_sum reaches this multiple of the temporal clamp
	earlyExitFactor = 1.25
)

// NeighborSampler enumerates reuse candidates for one pixel in one frame.
// Index 0 is the pixel itself; indices 1-4 walk a golden-angle spiral whose
// radius shrinks as confidence accumulates.
type NeighborSampler struct {
	FrameIndex  uint32
	AngleOffset float64 // Base spiral angle in [0, 2π), varies per pixel and frame
}

// NewNeighborSampler derives the spiral rotation from the pixel and frame
func NewNeighborSampler(px image.Point, frameIndex uint32) NeighborSampler {
	h := core.Hash3(uint32(px.X), uint32(px.Y), frameIndex)
	return NeighborSampler{
		FrameIndex:  frameIndex,
		AngleOffset: core.HashToUnit(h) * 2 * math.Pi,
	}
}

// Offset returns the pixel offset for neighbor i given the confidence accumulated so far
func (s NeighborSampler) Offset(i int, mSum float64) image.Point {
	if i == 0 {
		return image.Point{}
	}

	angle := s.AngleOffset + float64(i)*GoldenAngle
	ring := float64(((uint32(i-1) + s.FrameIndex) & 3) + 1)
	radius := math.Sqrt(ring) * core.Clamp(8-mSum, 1, 7)

	// Truncate toward zero
	return image.Pt(int(math.Cos(angle)*radius), int(math.Sin(angle)*radius))
}

// SamplePixel returns the current-frame pixel to reuse for neighbor i.
// Spatial neighbors start from px^3, a cheap stand-in for permutation sampling.
func (s NeighborSampler) SamplePixel(px image.Point, i int, mSum float64) image.Point {
	base := px
	if i > 0 {
		base = image.Pt(px.X^3, px.Y^3)
	}
	return base.Add(s.Offset(i, mSum))
}

// ShouldContinue reports whether the loop may consider another neighbor
func ShouldContinue(i int, mSum, temporalMClamp float64) bool {
	return i < MaxNeighbors && mSum < earlyExitFactor*temporalMClamp
}

// Reproject maps a current-frame pixel into the previous frame.
// reprojection.XY is the uv delta to the previous position and Z the validity flag.
func Reproject(p image.Point, reprojection core.Vec4, size image.Point) (image.Point, bool) {
	x := math.Floor(float64(p.X) + 0.5 + reprojection.X*float64(size.X))
	y := math.Floor(float64(p.Y) + 0.5 + reprojection.Y*float64(size.Y))
	return image.Pt(int(x), int(y)), reprojection.Z > 0
}
