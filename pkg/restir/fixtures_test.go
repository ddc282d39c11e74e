package restir

import (
	"image"

	"github.com/df07/go-restir-gi/pkg/core"
)

// flatView is a pixel-unit orthographic view: x/y are pixels, z is distance, depth is 1/z
type flatView struct {
	size image.Point
}

func (v flatView) Project(p core.Vec3) (core.Vec2, float64, bool) {
	if p.Z <= 0 {
		return core.Vec2{}, 0, false
	}
	return core.NewVec2(p.X/float64(v.size.X), p.Y/float64(v.size.Y)), 1 / p.Z, true
}

func (v flatView) Unproject(uv core.Vec2, depth float64) core.Vec3 {
	return core.NewVec3(uv.X*float64(v.size.X), uv.Y*float64(v.size.Y), 1/depth)
}

func (v flatView) ViewToWorldNormal(n core.Vec3) core.Vec3 {
	return n
}

var (
	facingNormal = core.NewVec3(0, 0, -1) // Surface normal facing the viewer
	hitOffset    = core.NewVec3(0, 0, -0.5)
)

// testScene is a wall at depth 1 facing the camera, with uniform candidates and history
type testScene struct {
	config     Config
	geo        *Geometry
	hist       *Buffers
	out        *Buffers
	candidates *CandidateBuffers
}

func newTestScene(size int) *testScene {
	config := DefaultConfig()
	view := flatView{size: image.Pt(size, size)}

	geo := NewGeometry(size, size, view)
	geo.Depth.Fill(1)
	geo.HalfViewNormal.Fill(facingNormal)
	geo.Reprojection.Fill(core.NewVec4(0, 0, 1, 0))

	candidates := NewCandidateBuffers(size, size)
	for _, p := range allPixels(size) {
		candidates.Store(p, TraceResult{
			Radiance:        core.NewVec3(1, 1, 1),
			HitNormal:       core.NewVec3(0, 0, 1),
			HitOffset:       hitOffset,
			HitDistance:     hitOffset.Length(),
			InvPdf:          2,
			ReusedFromCache: true,
		})
	}

	s := &testScene{
		config:     config,
		geo:        geo,
		hist:       NewBuffers(size, size),
		out:        NewBuffers(size, size),
		candidates: candidates,
	}
	s.fillHistory(Reservoir{WeightSum: 1, M: 1, W: 1})
	return s
}

// fillHistory writes the same sample shape at every pixel, traced from that pixel's own origin
func (s *testScene) fillHistory(r Reservoir) {
	for _, p := range allPixels(s.hist.Size().X) {
		origin := s.surfaceOrigin(p)
		detail := SampleDetail{
			Radiance:  core.NewVec3(1, 1, 1),
			Hit:       origin.Add(hitOffset),
			HitNormal: core.NewVec3(0, 0, 1),
		}
		s.hist.writeSample(p, detail, origin, facingNormal)
		r.Payload = PackPayload(p)
		s.hist.Reservoir.Set(p, r.Pack())
	}
}

func (s *testScene) surfaceOrigin(p image.Point) core.Vec3 {
	size := s.geo.Depth.Size()
	uv := core.NewVec2((float64(p.X)+0.5)/float64(size.X), (float64(p.Y)+0.5)/float64(size.Y))
	return s.geo.View.Unproject(uv, s.geo.Depth.At(p)).Add(facingNormal.Multiply(s.config.RayBias))
}

func (s *testScene) resolve(px image.Point, frame uint32) PixelResult {
	kernel := NewKernel(s.config, s.candidates)
	return kernel.ResolvePixel(px, FrameContext{FrameIndex: frame}, s.geo, s.hist, s.out)
}

func allPixels(size int) []image.Point {
	points := make([]image.Point, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			points = append(points, image.Pt(x, y))
		}
	}
	return points
}
