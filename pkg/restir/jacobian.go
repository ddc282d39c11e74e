package restir

import (
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

// Jacobian reweights a sample traced from prevOrigin for reuse from newOrigin.
// It is the ratio of solid angles the hit point subtends from the two origins:
// (prevDist/newDist)^2 * cos(new) / cos(prev), with cos(prev) read from the stored term.
// Hits without a surface normal (sky) are directional and keep a unit Jacobian.
func Jacobian(newOrigin, prevOrigin, hit, hitNormal core.Vec3, storedNormalDot, minDistance float64) float64 {
	if hitNormal.LengthSquared() == 0 {
		return 1
	}

	newOffset := hit.Subtract(newOrigin)
	prevOffset := hit.Subtract(prevOrigin)

	newDist := max(minDistance, newOffset.Length())
	prevDist := max(minDistance, prevOffset.Length())

	newDir := newOffset.Multiply(1.0 / newDist)
	cosNew := max(0, -hitNormal.Dot(newDir))

	distRatio := prevDist / newDist
	jacobian := distRatio * distRatio * cosNew / max(epsilon, storedNormalDot)

	if math.IsNaN(jacobian) || math.IsInf(jacobian, 0) {
		return 0
	}
	return jacobian
}
