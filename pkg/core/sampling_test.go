package core

import (
	"math"
	"testing"
)

func TestPixelRNG_Deterministic(t *testing.T) {
	a := NewPixelRNG(10, 20, 3)
	b := NewPixelRNG(10, 20, 3)

	for i := 0; i < 16; i++ {
		if a.NextUint32() != b.NextUint32() {
			t.Fatalf("Streams diverged at draw %d", i)
		}
	}

	c := NewPixelRNG(10, 20, 4)
	d := NewPixelRNG(10, 20, 3)
	if c.NextUint32() == d.NextUint32() {
		t.Error("Expected different frames to produce different streams")
	}
}

func TestPixelRNG_Range(t *testing.T) {
	rng := NewPixelRNGFromSeed(7)
	sum := 0.0
	const n = 20000

	for i := 0; i < n; i++ {
		u := rng.Get1D()
		if u < 0 || u >= 1 {
			t.Fatalf("Sample out of [0,1): %f", u)
		}
		sum += u
	}

	mean := sum / n
	if math.Abs(mean-0.5) > 0.01 {
		t.Errorf("Expected mean near 0.5, got %f", mean)
	}
}

func TestSampleHemisphere_AboveSurface(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 0, 0),
		NewVec3(0, 0, -1),
		NewVec3(1, 1, 1).Normalize(),
	}

	rng := NewPixelRNGFromSeed(42)
	for _, n := range normals {
		for i := 0; i < 200; i++ {
			cos := SampleCosineHemisphere(n, rng.Get2D())
			if cos.Dot(n) < 0 {
				t.Fatalf("Cosine sample below surface for normal %v: %v", n, cos)
			}
			if math.Abs(cos.Length()-1) > 1e-9 {
				t.Fatalf("Cosine sample not unit length: %f", cos.Length())
			}

			uni := SampleUniformHemisphere(n, rng.Get2D())
			if uni.Dot(n) < 0 {
				t.Fatalf("Uniform sample below surface for normal %v: %v", n, uni)
			}
			if math.Abs(uni.Length()-1) > 1e-9 {
				t.Fatalf("Uniform sample not unit length: %f", uni.Length())
			}
		}
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"below", -1, 0},
		{"lower edge", 0, 0},
		{"middle", 0.025, 0.5},
		{"upper edge", 0.05, 1},
		{"above", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Smoothstep(0, 0.05, tt.x)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Smoothstep(0, 0.05, %f) = %f, expected %f", tt.x, got, tt.expected)
			}
		})
	}
}
