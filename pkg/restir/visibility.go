package restir

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/texture"
)

const (
	maxProbeTaps      = 2
	minProbePixelStep = 2.0
	occlusionFalloff  = 0.05
)

// ViewReconstructor is the screen-space geometry service.
// Depths use the same reverse-Z encoding as the depth buffer: 0 at infinity, larger is closer.
type ViewReconstructor interface {
	// Project maps a world point to uv in [0,1]^2 and depth; ok is false behind the camera
	Project(world core.Vec3) (uv core.Vec2, depth float64, ok bool)
	// Unproject reconstructs the world point for a uv and depth
	Unproject(uv core.Vec2, depth float64) core.Vec3
	// ViewToWorldNormal rotates a view-space normal into world space
	ViewToWorldNormal(n core.Vec3) core.Vec3
}

// VisibilityProbe marches the depth buffer between a ray origin and a reused hit point
type VisibilityProbe struct {
	Depth *texture.Buffer[float64]
	View  ViewReconstructor
}

// Visibility returns a soft visibility factor in [0,1] for the segment origin→hit.
// At most two taps are taken, each at least two pixels apart; a tap behind the depth
// buffer attenuates by a smoothstep of the relative depth difference.
func (p VisibilityProbe) Visibility(origin, hit core.Vec3) float64 {
	startUV, _, okStart := p.View.Project(origin)
	endUV, _, okEnd := p.View.Project(hit)
	if !okStart || !okEnd {
		return 1
	}

	size := p.Depth.Size()
	travelPx := core.NewVec2(
		(endUV.X-startUV.X)*float64(size.X),
		(endUV.Y-startUV.Y)*float64(size.Y),
	).Length()

	taps := min(maxProbeTaps, int(math.Floor(travelPx/minProbePixelStep)))

	visibility := 1.0
	for k := 0; k < taps; k++ {
		t := float64(k+1) / float64(taps+1)
		uv, rayDepth, ok := p.View.Project(origin.Lerp(hit, t))
		if !ok {
			continue
		}

		tap := image.Pt(int(math.Floor(uv.X*float64(size.X))), int(math.Floor(uv.Y*float64(size.Y))))
		if !p.Depth.InBounds(tap) {
			continue
		}

		// Reverse-Z: a larger stored depth is a surface in front of the ray
		sceneDepth := p.Depth.At(tap)
		if sceneDepth > rayDepth {
			visibility *= 1 - core.Smoothstep(0, occlusionFalloff, InverseDepthRelativeDiff(sceneDepth, rayDepth))
		}
	}

	return visibility
}
