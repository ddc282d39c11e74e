package scene

import (
	"image"
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
)

// CameraConfig contains all parameters needed to create a camera
type CameraConfig struct {
	Center      core.Vec3 // Camera position
	LookAt      core.Vec3 // Point the camera is looking at
	Up          core.Vec3 // Up direction (usually 0,1,0)
	VFov        float64   // Vertical field of view in degrees
	AspectRatio float64   // Width / height
	Near        float64   // Near distance, sets the reverse-Z depth scale
}

// Camera is a pinhole camera that also serves as the screen-space reconstructor.
// Depth is reverse-Z: Near/viewZ, 0 at infinity.
type Camera struct {
	config   CameraConfig
	u, v, w  core.Vec3 // Right, up, and backward basis vectors
	tanHalfV float64
	tanHalfH float64
}

// NewCamera creates a camera from the given configuration
func NewCamera(config CameraConfig) *Camera {
	if config.AspectRatio <= 0 {
		config.AspectRatio = 1
	}
	if config.Near <= 0 {
		config.Near = 0.1
	}

	// Calculate camera coordinate system
	w := config.Center.Subtract(config.LookAt).Normalize()
	u := config.Up.Cross(w).Normalize()
	v := w.Cross(u)

	tanHalfV := math.Tan(config.VFov * math.Pi / 360)

	return &Camera{
		config:   config,
		u:        u,
		v:        v,
		w:        w,
		tanHalfV: tanHalfV,
		tanHalfH: tanHalfV * config.AspectRatio,
	}
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// Center returns the camera position
func (c *Camera) Center() core.Vec3 {
	return c.config.Center
}

// GetRay returns the primary ray through the center of pixel px
func (c *Camera) GetRay(px image.Point, size image.Point) core.Ray {
	uv := PixelUV(px, size)
	target := c.Unproject(uv, 1) // Depth 1 is the near plane
	return core.NewRay(c.config.Center, target.Subtract(c.config.Center).Normalize())
}

// Project maps a world point to uv in [0,1]^2 and reverse-Z depth
func (c *Camera) Project(world core.Vec3) (core.Vec2, float64, bool) {
	rel := world.Subtract(c.config.Center)
	z := -rel.Dot(c.w)
	if z <= 1e-9 {
		return core.Vec2{}, 0, false
	}

	ndcX := rel.Dot(c.u) / (z * c.tanHalfH)
	ndcY := rel.Dot(c.v) / (z * c.tanHalfV)
	uv := core.NewVec2((ndcX+1)*0.5, (1-ndcY)*0.5)

	return uv, c.config.Near / z, true
}

// Unproject reconstructs the world point for a uv and reverse-Z depth
func (c *Camera) Unproject(uv core.Vec2, depth float64) core.Vec3 {
	z := c.config.Near / depth
	x := (uv.X*2 - 1) * z * c.tanHalfH
	y := (1 - uv.Y*2) * z * c.tanHalfV

	return c.config.Center.
		Add(c.u.Multiply(x)).
		Add(c.v.Multiply(y)).
		Subtract(c.w.Multiply(z))
}

// ViewToWorldNormal rotates a view-space normal into world space.
// View space is x right, y up, z forward.
func (c *Camera) ViewToWorldNormal(n core.Vec3) core.Vec3 {
	return c.u.Multiply(n.X).Add(c.v.Multiply(n.Y)).Subtract(c.w.Multiply(n.Z))
}

// WorldToViewNormal rotates a world-space normal into view space
func (c *Camera) WorldToViewNormal(n core.Vec3) core.Vec3 {
	return core.NewVec3(n.Dot(c.u), n.Dot(c.v), -n.Dot(c.w))
}

// Orbit returns the configuration rotated about the look-at point around the up axis
func (config CameraConfig) Orbit(degrees float64) CameraConfig {
	if degrees == 0 {
		return config
	}

	// Rodrigues' rotation of the offset from the look-at point
	axis := config.Up.Normalize()
	offset := config.Center.Subtract(config.LookAt)
	theta := degrees * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	rotated := offset.Multiply(cos).
		Add(axis.Cross(offset).Multiply(sin)).
		Add(axis.Multiply(axis.Dot(offset) * (1 - cos)))

	config.Center = config.LookAt.Add(rotated)
	return config
}

// PixelUV returns the uv coordinate of a pixel center
func PixelUV(px image.Point, size image.Point) core.Vec2 {
	return core.NewVec2((float64(px.X)+0.5)/float64(size.X), (float64(px.Y)+0.5)/float64(size.Y))
}
