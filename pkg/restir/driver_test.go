package restir

import (
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/df07/go-restir-gi/pkg/core"
)

func TestResolvePixel_SkySentinel(t *testing.T) {
	s := newTestScene(8)
	px := image.Pt(3, 4)
	s.geo.Depth.Set(px, 0)

	// Mark the buffers the sentinel path must not touch
	marker := core.NewVec4(7, 7, 7, 7)
	s.out.RayOrigin.Fill(marker)
	s.out.Ray.Fill(marker)
	s.out.CandidateHistory.Fill(7)
	s.out.Irradiance.Fill(marker)
	s.out.HitNormal.Fill(marker)
	s.out.Reservoir.Fill(PackedReservoir{7, 7, 7, 7})

	result := s.resolve(px, 1)
	if !result.Sky {
		t.Fatal("Expected sky result for zero depth")
	}

	if got := s.out.Irradiance.At(px); got != core.NewVec4(0, 0, 0, -10000) {
		t.Errorf("Irradiance: expected (0,0,0,-10000), got %v", got)
	}
	if got := s.out.HitNormal.At(px); got != (core.Vec4{}) {
		t.Errorf("HitNormal: expected zero, got %v", got)
	}
	if got := s.out.Reservoir.At(px); got != (PackedReservoir{}) {
		t.Errorf("Reservoir: expected zero, got %v", got)
	}

	if got := s.out.RayOrigin.At(px); got != marker {
		t.Errorf("RayOrigin should be untouched, got %v", got)
	}
	if got := s.out.Ray.At(px); got != marker {
		t.Errorf("Ray should be untouched, got %v", got)
	}
	if got := s.out.CandidateHistory.At(px); got != 7 {
		t.Errorf("CandidateHistory should be untouched, got %v", got)
	}
}

func TestResolvePixel_GateClosed(t *testing.T) {
	tests := []struct {
		name      string
		configure func(s *testScene, px image.Point)
	}{
		{
			name: "resampling disabled",
			configure: func(s *testScene, px image.Point) {
				s.config.EnableResampling = false
			},
		},
		{
			name: "previous sample invalid",
			configure: func(s *testScene, px image.Point) {
				r := s.candidates.Radiance.At(px)
				r.W = -math.Abs(r.W)
				s.candidates.Radiance.Set(px, r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(16)
			px := image.Pt(8, 8)
			tt.configure(s, px)

			result := s.resolve(px, 3)
			if result.Resampled {
				t.Fatal("Expected the resampling loop to be skipped")
			}

			// Seeded reservoir written unchanged: luma(1,1,1) * invPdf 2
			want := Reservoir{WeightSum: 2, M: 1, W: 2, Payload: PackPayload(px)}
			if diff := cmp.Diff(want, s.out.ReservoirAt(px), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("Unexpected reservoir (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolvePixel_TemporalMClamp(t *testing.T) {
	s := newTestScene(32)
	px := image.Pt(16, 16)

	// Only the center pixel has geometry; spatial neighbors land on sky
	s.geo.Depth.Fill(0)
	s.geo.Depth.Set(px, 1)
	s.fillHistory(Reservoir{WeightSum: 1, M: 500, W: 1})

	result := s.resolve(px, 5)
	if !result.Resampled {
		t.Fatal("Expected resampling to run")
	}

	if result.Accepted != 1 {
		t.Errorf("Expected only the temporal neighbor to be accepted, got %d", result.Accepted)
	}
	if got := result.RejectionCount(RejectSky); got != 4 {
		t.Errorf("Expected 4 sky rejections, got %d", got)
	}

	// Candidate M=1 plus the history M clamped from 500 to 20
	if got := s.out.ReservoirAt(px).M; got != 21 {
		t.Errorf("Expected M=21, got %f", got)
	}
}

func TestResolvePixel_VisibilityOnlyForSpatialNeighbors(t *testing.T) {
	px := image.Pt(32, 24)
	const frame = 1

	// At this pixel and frame the spiral visits these four pixels
	spatial := []image.Point{image.Pt(33, 19), image.Pt(42, 31), image.Pt(28, 28), image.Pt(36, 25)}
	// Depth taps along the rays toward the spatial hits, and along the temporal ray
	spatialTaps := []image.Point{
		image.Pt(32, 22), image.Pt(33, 21),
		image.Pt(35, 26), image.Pt(39, 29),
		image.Pt(31, 25), image.Pt(29, 27),
		image.Pt(33, 24), image.Pt(35, 25),
	}
	temporalTaps := []image.Point{image.Pt(36, 24), image.Pt(40, 24)}

	setup := func(occluded bool) *testScene {
		s := newTestScene(64)

		// The temporal sample hits 12 pixels to the right so its ray crosses the occluders too
		origin := s.surfaceOrigin(px)
		s.hist.writeSample(px, SampleDetail{
			Radiance:  core.NewVec3(1, 1, 1),
			Hit:       origin.Add(core.NewVec3(12, 0, -0.5)),
			HitNormal: core.NewVec3(0, 0, 1),
		}, origin, facingNormal)

		if occluded {
			// Thin occluders far in front of every ray, on pixels no neighbor samples
			for _, p := range append(spatialTaps, temporalTaps...) {
				s.geo.Depth.Set(p, 10)
			}
		}
		return s
	}

	open := setup(false).resolve(px, frame)
	blocked := setup(true).resolve(px, frame)

	for name, result := range map[string]PixelResult{"open": open, "blocked": blocked} {
		if result.Considered != MaxNeighbors || result.Accepted != MaxNeighbors {
			t.Errorf("%s: expected all %d neighbors accepted, got %d of %d (rejections %v)",
				name, MaxNeighbors, result.Accepted, result.Considered, result.Rejections)
		}
		// Occluded neighbors still count toward confidence
		if result.Reservoir.M != 6 {
			t.Errorf("%s: expected M=6, got %f", name, result.Reservoir.M)
		}
	}

	// Candidate weight 1*2 plus the unattenuated temporal weight 1; spatial weights vanish
	if math.Abs(blocked.Reservoir.WeightSum-3) > 1e-9 {
		t.Errorf("Expected weight sum 3 with occluded spatial neighbors, got %f", blocked.Reservoir.WeightSum)
	}
	// Grazing spatial hits carry small but nonzero weights when nothing blocks them
	if open.Reservoir.WeightSum <= 3+1e-6 {
		t.Errorf("Expected visible spatial neighbors to add weight, got %f", open.Reservoir.WeightSum)
	}
	for _, p := range spatial {
		if blocked.Selected == PackPayload(p) {
			t.Errorf("Expected occluded spatial sample %v never to be selected", p)
		}
	}
}

func TestResolvePixel_EarlyExitAfterTemporal(t *testing.T) {
	s := newTestScene(32)
	s.config.TemporalMClamp = 4
	px := image.Pt(16, 16)

	// The clamped history M of 4 plus the candidate reaches 1.25 * 4 after the temporal fold
	s.fillHistory(Reservoir{WeightSum: 1, M: 25, W: 1})

	result := s.resolve(px, 3)
	if result.Considered != 1 || result.Accepted != 1 {
		t.Errorf("Expected only the temporal neighbor, got %d considered, %d accepted", result.Considered, result.Accepted)
	}
	if got := s.out.ReservoirAt(px).M; got != 5 {
		t.Errorf("Expected M=5, got %f", got)
	}
}

func TestResolvePixel_InvalidityReducesMClamp(t *testing.T) {
	s := newTestScene(32)
	px := image.Pt(16, 16)

	s.geo.Depth.Fill(0)
	s.geo.Depth.Set(px, 1)
	s.geo.Invalidity.Set(px, 1)
	s.fillHistory(Reservoir{WeightSum: 1, M: 500, W: 1})

	s.resolve(px, 5)

	// Full invalidity clamps history to 25% of 20; the spiral then still finds only sky
	if got := s.out.ReservoirAt(px).M; got != 6 {
		t.Errorf("Expected M=6, got %f", got)
	}
}

func TestResolvePixel_RejectsDivergentNormal(t *testing.T) {
	s := newTestScene(64)
	px := image.Pt(32, 32)

	// Every neighbor is tilted 60 degrees away from the center normal
	tilted := core.NewVec3(math.Sqrt(3)/2, 0, -0.5)
	s.geo.HalfViewNormal.Fill(tilted)
	s.geo.HalfViewNormal.Set(image.Pt(16, 16), facingNormal)

	// The temporal neighbor fails reprojection
	s.geo.Reprojection.Set(px, core.NewVec4(0, 0, 0, 0))

	result := s.resolve(px, 2)
	if !result.Resampled {
		t.Fatal("Expected resampling to run")
	}

	if got := result.RejectionCount(RejectReprojection); got != 1 {
		t.Errorf("Expected 1 reprojection rejection, got %d", got)
	}
	if got := result.RejectionCount(RejectNormal); got != 4 {
		t.Errorf("Expected 4 normal rejections, got %d", got)
	}
	if result.Accepted != 0 {
		t.Errorf("Expected no accepted neighbors, got %d", result.Accepted)
	}

	// Nothing folded in: M stays at the candidate's 1 and the weight sum at the seed
	r := s.out.ReservoirAt(px)
	if r.M != 1 {
		t.Errorf("Expected M=1, got %f", r.M)
	}
	if math.Abs(r.WeightSum-2) > 1e-6 {
		t.Errorf("Expected weight sum 2, got %f", r.WeightSum)
	}
	if result.FromHistory {
		t.Error("Rejected neighbors must never be selected")
	}
}

func TestResolvePixel_OutputWeightCeiling(t *testing.T) {
	s := newTestScene(64)
	px := image.Pt(32, 32)
	s.fillHistory(Reservoir{WeightSum: 1, M: 1, W: 1e6})

	result := s.resolve(px, 9)
	if !result.Resampled {
		t.Fatal("Expected resampling to run")
	}

	if result.Reservoir.W != s.config.ReservoirWClamp {
		t.Errorf("Expected W clamped to %f, got %f", s.config.ReservoirWClamp, result.Reservoir.W)
	}
	if got := s.out.ReservoirAt(px).W; got != s.config.ReservoirWClamp {
		t.Errorf("Expected stored W %f, got %f", s.config.ReservoirWClamp, got)
	}
}

func TestResolvePixel_OutputsDescribeSelectedSample(t *testing.T) {
	s := newTestScene(16)
	px := image.Pt(5, 9)

	s.resolve(px, 4)

	origin := s.surfaceOrigin(px)
	got := s.out.Sample(px)

	if got.Origin.Subtract(origin).Length() > 1e-9 {
		t.Errorf("Expected ray origin %v, got %v", origin, got.Origin)
	}
	if math.Abs(got.HitDistance-got.Hit.Subtract(origin).Length()) > 1e-9 {
		t.Errorf("Stored distance %f does not match hit %v", got.HitDistance, got.Hit)
	}
	if got.NormalDot <= 0 {
		t.Errorf("Expected positive normal-dot term, got %f", got.NormalDot)
	}
	if cos := s.out.Irradiance.At(px).W; cos <= 0 || cos > 1 {
		t.Errorf("Expected irradiance alpha in (0,1], got %f", cos)
	}
	if payload := s.out.ReservoirAt(px).Payload; payload.Point() != px {
		t.Errorf("Expected payload re-homed to %v, got %v", px, payload.Point())
	}
}

func TestResolvePixel_Deterministic(t *testing.T) {
	a := newTestScene(16)
	b := newTestScene(16)

	for _, px := range allPixels(16) {
		a.resolve(px, 11)
		b.resolve(px, 11)
	}

	if diff := cmp.Diff(a.out.Reservoir.Values(), b.out.Reservoir.Values()); diff != "" {
		t.Errorf("Same inputs produced different reservoirs (-a +b):\n%s", diff)
	}
}

func TestResolvePixel_NonNegativeOutputs(t *testing.T) {
	s := newTestScene(16)

	// Mix in degenerate history: negative, NaN and infinite fields
	bad := []PackedReservoir{
		{-1, -5, -2, 0},
		{float32(math.NaN()), 3, float32(math.NaN()), 0},
		{float32(math.Inf(1)), float32(math.Inf(1)), 1, 0},
	}
	for i, p := range allPixels(16) {
		if i%4 == 0 {
			s.hist.Reservoir.Set(p, bad[i%len(bad)])
		}
	}

	for frame := uint32(0); frame < 3; frame++ {
		for _, px := range allPixels(16) {
			s.resolve(px, frame)
		}
		for _, px := range allPixels(16) {
			r := s.out.ReservoirAt(px)
			if r.WeightSum < 0 || r.M < 0 || r.W < 0 {
				t.Fatalf("Frame %d pixel %v: negative reservoir %+v", frame, px, r)
			}
			if math.IsNaN(r.W) || math.IsNaN(r.WeightSum) {
				t.Fatalf("Frame %d pixel %v: NaN reservoir %+v", frame, px, r)
			}
		}
		s.hist, s.out = s.out, s.hist
	}
}
