package core

import "math"

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// PixelRNG is a small PCG stream owned by a single per-pixel invocation.
// It is a plain value: seeding from (x, y, frame) makes every pixel reproducible
// and no state is shared between pixels running in parallel.
type PixelRNG struct {
	state uint32
}

// NewPixelRNG seeds a stream from a pixel coordinate and frame index
func NewPixelRNG(x, y, frame uint32) PixelRNG {
	return PixelRNG{state: Hash3(x, y, frame)}
}

// NewPixelRNGFromSeed seeds a stream directly, mostly for tests
func NewPixelRNGFromSeed(seed uint32) PixelRNG {
	return PixelRNG{state: pcgHash(seed)}
}

// NextUint32 advances the stream and returns 32 random bits
func (r *PixelRNG) NextUint32() uint32 {
	r.state = r.state*747796405 + 2891336453
	word := ((r.state >> ((r.state >> 28) + 4)) ^ r.state) * 277803737
	return (word >> 22) ^ word
}

// Get1D returns a uniform float64 in [0, 1)
func (r *PixelRNG) Get1D() float64 {
	return float64(r.NextUint32()>>8) / float64(1<<24)
}

// Get2D returns two uniform values in [0, 1)
func (r *PixelRNG) Get2D() Vec2 {
	x := r.Get1D()
	return NewVec2(x, r.Get1D())
}

// Get3D returns three uniform values in [0, 1)
func (r *PixelRNG) Get3D() Vec3 {
	x := r.Get1D()
	y := r.Get1D()
	return NewVec3(x, y, r.Get1D())
}

// Hash3 mixes three words into one, used to derive per-pixel per-frame seeds
func Hash3(x, y, z uint32) uint32 {
	return pcgHash(x ^ pcgHash(y^pcgHash(z)))
}

// HashToUnit maps a hash to [0, 1)
func HashToUnit(h uint32) float64 {
	return float64(h>>8) / float64(1<<24)
}

func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// OrthonormalBasis builds a tangent frame around normal
func OrthonormalBasis(normal Vec3) (tangent, bitangent Vec3) {
	// Find a vector perpendicular to normal
	var nt Vec3
	if math.Abs(normal.X) > 0.1 {
		nt = NewVec3(0, 1, 0)
	} else {
		nt = NewVec3(1, 0, 0)
	}

	tangent = nt.Cross(normal).Normalize()
	bitangent = normal.Cross(tangent)
	return tangent, bitangent
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	// Generate point in unit disk using uniform random sampling
	a := 2.0 * math.Pi * sample.X
	z := sample.Y
	r := math.Sqrt(z)

	x := r * math.Cos(a)
	y := r * math.Sin(a)
	zCoord := math.Sqrt(1.0 - z)

	tangent, bitangent := OrthonormalBasis(normal)

	// Transform to world space
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(zCoord))
}

// SampleUniformHemisphere generates a uniformly distributed direction in hemisphere around normal
func SampleUniformHemisphere(normal Vec3, sample Vec2) Vec3 {
	cosTheta := sample.X
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y

	tangent, bitangent := OrthonormalBasis(normal)

	return tangent.Multiply(sinTheta * math.Cos(phi)).
		Add(bitangent.Multiply(sinTheta * math.Sin(phi))).
		Add(normal.Multiply(cosTheta))
}
