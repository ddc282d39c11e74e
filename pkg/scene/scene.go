package scene

import (
	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/geometry"
	"github.com/df07/go-restir-gi/pkg/material"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Name                 string
	CameraConfig         CameraConfig
	Shapes               []geometry.Shape // Objects in the scene
	TopColor             core.Vec3        // Background color looking straight up
	BottomColor          core.Vec3        // Background color looking straight down
	OrbitDegreesPerFrame float64          // Camera motion between frames
	Width                int              // Default image width
	Height               int              // Default image height
}

// Hit returns the closest intersection along the ray
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.SurfaceInteraction, bool) {
	var closestHit *material.SurfaceInteraction
	closestSoFar := tMax

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// Background returns the gradient background color for a ray direction
func (s *Scene) Background(direction core.Vec3) core.Vec3 {
	// Map the y-component from [-1,1] to [0,1]
	t := 0.5 * (direction.Normalize().Y + 1.0)
	return s.BottomColor.Lerp(s.TopColor, t)
}

// CameraForFrame returns the camera for a frame of the orbit
func (s *Scene) CameraForFrame(frame int, aspectRatio float64) *Camera {
	config := s.CameraConfig.Orbit(float64(frame) * s.OrbitDegreesPerFrame)
	config.AspectRatio = aspectRatio
	return NewCamera(config)
}

// NewGroundQuad creates a horizontal quad centered at the given point with normal pointing up
func NewGroundQuad(center core.Vec3, size float64, material material.Material) *geometry.Quad {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// u × v = (0,0,size) × (size,0,0) points up
	u := core.NewVec3(0, 0, size)
	v := core.NewVec3(size, 0, 0)
	return geometry.NewQuad(corner, u, v, material)
}

// AddSphereLight adds a spherical emitter to the scene
func (s *Scene) AddSphereLight(center core.Vec3, radius float64, emission core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewSphere(center, radius, material.NewEmissive(emission)))
}

// AddQuadLight adds a rectangular area emitter to the scene
func (s *Scene) AddQuadLight(corner, u, v core.Vec3, emission core.Vec3) {
	s.Shapes = append(s.Shapes, geometry.NewQuad(corner, u, v, material.NewEmissive(emission)))
}
