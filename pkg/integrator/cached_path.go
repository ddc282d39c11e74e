package integrator

import (
	"image"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/restir"
	"github.com/df07/go-restir-gi/pkg/texture"
)

const (
	// DefaultSkyDistance is the hit distance reported for rays that escape the scene
	DefaultSkyDistance = 1e4

	// pathSeedSalt decorrelates path sampling from the resampling kernel's random stream
	pathSeedSalt = 0x9e3779b9
)

// CachedPathOracle traces candidate rays for the resampling kernel. It remembers which
// pixels it traced in the previous committed frame so it can report when a pixel's path
// history is continuous. A frame's traces only count as history once EndFrame is called,
// so an abandoned frame can be retried with the same index.
type CachedPathOracle struct {
	scene       Scene
	integrator  *PathTracingIntegrator
	stamps      *texture.Buffer[uint32] // Last committed frame each pixel traced, plus one; 0 = never
	pending     *texture.Buffer[uint32] // Stamps written by the frame in progress
	frame       uint32
	skyDistance float64
}

// NewCachedPathOracle creates an oracle for a width x height frame
func NewCachedPathOracle(scene Scene, config PathConfig, width, height int) *CachedPathOracle {
	return &CachedPathOracle{
		scene:       scene,
		integrator:  NewPathTracingIntegrator(config),
		stamps:      texture.NewBuffer[uint32](width, height),
		pending:     texture.NewBuffer[uint32](width, height),
		skyDistance: DefaultSkyDistance,
	}
}

// BeginFrame sets the frame subsequent traces belong to
func (o *CachedPathOracle) BeginFrame(frame uint32) {
	o.frame = frame
}

// EndFrame commits the traces of the current frame as history for the next one
func (o *CachedPathOracle) EndFrame() {
	o.stamps, o.pending = o.pending, o.stamps
}

// Reset forgets every pixel's history, as after a camera cut
func (o *CachedPathOracle) Reset() {
	o.stamps.Fill(0)
	o.pending.Fill(0)
}

// Trace implements restir.TraceOracle. Calls for distinct pixels may run concurrently.
func (o *CachedPathOracle) Trace(req restir.TraceRequest) restir.TraceResult {
	result := restir.TraceResult{
		InvPdf:          req.InvPdf,
		ReusedFromCache: o.tracedLastFrame(req.Pixel),
	}
	o.pending.Set(req.Pixel, o.frame+1)

	seed := core.Hash3(uint32(req.Pixel.X), uint32(req.Pixel.Y), o.frame) ^ pathSeedSalt
	rng := core.NewPixelRNGFromSeed(seed)

	path := o.integrator.TracePath(req.Ray, o.scene, &rng)
	result.Radiance = path.Radiance
	if path.Hit == nil {
		result.HitDistance = o.skyDistance
		return result
	}

	result.HitNormal = path.Hit.Normal
	result.HitOffset = path.Hit.Point.Subtract(req.Ray.Origin)
	result.HitDistance = result.HitOffset.Length()
	return result
}

func (o *CachedPathOracle) tracedLastFrame(px image.Point) bool {
	stamp := o.stamps.At(px)
	return stamp != 0 && stamp == o.frame
}
