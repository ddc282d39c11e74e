package integrator

import (
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/material"
)

// PathConfig contains path tracing parameters
type PathConfig struct {
	MaxDepth                  int     `json:"maxDepth"`                  // Surfaces visited per path; 2 is one diffuse bounce
	RussianRouletteMinBounces int     `json:"russianRouletteMinBounces"` // Bounces before Russian Roulette can terminate a path
	TMin                      float64 `json:"tMin"`                      // Self-intersection offset along each ray
}

// DefaultPathConfig returns the one-bounce configuration the resampler expects
func DefaultPathConfig() PathConfig {
	return PathConfig{
		MaxDepth:                  2,
		RussianRouletteMinBounces: 4,
		TMin:                      1e-3,
	}
}

// PathSample is the result of tracing one path
type PathSample struct {
	Radiance core.Vec3                    // Radiance arriving along the initial ray
	Hit      *material.SurfaceInteraction // First intersection, nil for a miss
}

// PathTracingIntegrator implements unidirectional path tracing
type PathTracingIntegrator struct {
	config PathConfig
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config PathConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{config: config}
}

// TracePath traces a path starting with ray and reports its first hit
func (pt *PathTracingIntegrator) TracePath(ray core.Ray, scene Scene, sampler core.Sampler) PathSample {
	if pt.config.MaxDepth <= 0 {
		return PathSample{}
	}

	hit, isHit := scene.Hit(ray, pt.config.TMin, math.Inf(1))
	if !isHit {
		return PathSample{Radiance: scene.Background(ray.Direction)}
	}

	return PathSample{
		Radiance: pt.shade(ray, hit, scene, sampler, pt.config.MaxDepth, core.NewVec3(1, 1, 1)),
		Hit:      hit,
	}
}

// rayColor returns the radiance for a ray with depth surfaces still allowed
func (pt *PathTracingIntegrator) rayColor(ray core.Ray, scene Scene, sampler core.Sampler, depth int, throughput core.Vec3) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := scene.Hit(ray, pt.config.TMin, math.Inf(1))
	if !isHit {
		return scene.Background(ray.Direction)
	}

	return pt.shade(ray, hit, scene, sampler, depth, throughput)
}

// shade returns emitted plus scattered radiance leaving hit toward the ray origin
func (pt *PathTracingIntegrator) shade(ray core.Ray, hit *material.SurfaceInteraction, scene Scene, sampler core.Sampler, depth int, throughput core.Vec3) core.Vec3 {
	colorEmitted := pt.getEmittedLight(ray, hit)

	shouldTerminate, rrCompensation := pt.applyRussianRoulette(depth, throughput, sampler)
	if shouldTerminate {
		return colorEmitted
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter || scatter.PDF <= 0 {
		return colorEmitted
	}

	cosine := scatter.Scattered.Direction.Normalize().Dot(hit.Normal)
	if cosine <= 0 {
		return colorEmitted
	}

	// Monte Carlo estimator: (BRDF * incomingLight * cosine) / PDF
	weight := scatter.Attenuation.Multiply(cosine / scatter.PDF * rrCompensation)
	incomingLight := pt.rayColor(scatter.Scattered, scene, sampler, depth-1, throughput.MultiplyVec(weight))

	return colorEmitted.Add(weight.MultiplyVec(incomingLight))
}

// getEmittedLight returns the emitted light from a material if it's emissive
func (pt *PathTracingIntegrator) getEmittedLight(ray core.Ray, hit *material.SurfaceInteraction) core.Vec3 {
	if emitter, isEmissive := hit.Material.(material.Emitter); isEmissive {
		return emitter.Emit(ray)
	}
	return core.Vec3{}
}

// applyRussianRoulette determines if a path should be terminated and returns the compensation factor
func (pt *PathTracingIntegrator) applyRussianRoulette(depth int, throughput core.Vec3, sampler core.Sampler) (bool, float64) {
	currentBounce := pt.config.MaxDepth - depth
	if currentBounce < pt.config.RussianRouletteMinBounces {
		return false, 1.0
	}

	// Conservative bounds: survivalProb between 0.5 and 0.95
	survivalProb := math.Min(0.95, math.Max(0.5, throughput.Luminance()))
	if sampler.Get1D() > survivalProb {
		return true, 0.0
	}

	return false, 1.0 / survivalProb
}
