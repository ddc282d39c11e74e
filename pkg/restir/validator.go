package restir

import (
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

// Rejection is the outcome of validating a reuse candidate
type Rejection int

const (
	Accepted Rejection = iota
	RejectOutOfBounds
	RejectNormal
	RejectSky
	RejectDepth
	RejectReprojection
	RejectBelowSurface

	numRejections
)

// RejectionReasons lists every outcome that rejects a neighbor
func RejectionReasons() []Rejection {
	reasons := make([]Rejection, 0, numRejections-1)
	for r := Accepted + 1; r < numRejections; r++ {
		reasons = append(reasons, r)
	}
	return reasons
}

// String returns a short name for the outcome
func (r Rejection) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case RejectOutOfBounds:
		return "out-of-bounds"
	case RejectNormal:
		return "normal"
	case RejectSky:
		return "sky"
	case RejectDepth:
		return "depth"
	case RejectReprojection:
		return "reprojection"
	case RejectBelowSurface:
		return "below-surface"
	default:
		return "unknown"
	}
}

// NeighborContext gathers what the validator needs about the center pixel and one neighbor
type NeighborContext struct {
	CenterNormal      core.Vec3 // View-space normal at the center pixel
	SampleNormal      core.Vec3 // View-space normal at the neighbor
	CenterDepth       float64   // Reverse-Z depth at the center pixel
	SampleDepth       float64   // Reverse-Z depth at the neighbor
	ReprojectionValid bool      // Validity flag of the neighbor's reprojection
	RayOrigin         core.Vec3 // Current pixel's secondary ray origin (world space)
	SurfaceNormal     core.Vec3 // Current pixel's normal (world space)
	ReusedHit         core.Vec3 // Hit point of the neighbor's selected sample (world space)
}

// Validator rejects neighbors whose geometry is incompatible with the center pixel
type Validator struct {
	NormalThreshold float64 // Minimum normal dot product
	DepthThreshold  float64 // Maximum relative inverse-depth difference
	HitDotThreshold float64 // Minimum alignment of the reused hit direction with the normal
}

// DefaultValidator returns the standard thresholds
func DefaultValidator() Validator {
	return Validator{
		NormalThreshold: 0.7,
		DepthThreshold:  0.2,
		HitDotThreshold: 1e-3,
	}
}

// Check runs every test in order and returns the first failure.
// Temporal and spatial neighbors are treated identically.
func (v Validator) Check(c NeighborContext) Rejection {
	if c.CenterNormal.Dot(c.SampleNormal) < v.NormalThreshold {
		return RejectNormal
	}

	if c.SampleDepth == 0 {
		return RejectSky
	}

	if InverseDepthRelativeDiff(c.CenterDepth, c.SampleDepth) > v.DepthThreshold {
		return RejectDepth
	}

	if !c.ReprojectionValid {
		return RejectReprojection
	}

	// Light arriving from below the surface cannot be reused
	toHit := c.ReusedHit.Subtract(c.RayOrigin).Normalize()
	if toHit.Dot(c.SurfaceNormal) < v.HitDotThreshold {
		return RejectBelowSurface
	}

	return Accepted
}

// InverseDepthRelativeDiff compares two reverse-Z depths as a ratio
func InverseDepthRelativeDiff(primary, secondary float64) float64 {
	return math.Abs(max(1e-20, primary)/max(1e-20, secondary) - 1.0)
}
