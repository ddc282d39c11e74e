package integrator

import (
	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/material"
)

// Scene is the ray query surface the integrators need
type Scene interface {
	// Hit returns the closest intersection along the ray
	Hit(ray core.Ray, tMin, tMax float64) (*material.SurfaceInteraction, bool)
	// Background returns the radiance arriving from a direction that hits nothing
	Background(direction core.Vec3) core.Vec3
}
