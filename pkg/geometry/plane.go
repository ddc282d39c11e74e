package geometry

import (
	"math"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/material"
)

// Plane represents an infinite plane defined by a point and normal
type Plane struct {
	Point    core.Vec3         // A point on the plane
	Normal   core.Vec3         // Normal vector (should be normalized)
	Material material.Material // Material of the plane
	TileSize float64           // World size of one UV repeat; zero disables UVs
}

// NewPlane creates a new plane
func NewPlane(point, normal core.Vec3, material material.Material) *Plane {
	return &Plane{
		Point:    point,
		Normal:   normal.Normalize(),
		Material: material,
	}
}

// Hit tests if a ray intersects with the plane
func (p *Plane) Hit(ray core.Ray, tMin, tMax float64) (*material.SurfaceInteraction, bool) {
	denominator := ray.Direction.Dot(p.Normal)
	if math.Abs(denominator) < 1e-8 {
		return nil, false
	}

	// t = (point_on_plane - ray_origin) · normal / (ray_direction · normal)
	t := p.Point.Subtract(ray.Origin).Dot(p.Normal) / denominator
	if t < tMin || t > tMax {
		return nil, false
	}

	hit := &material.SurfaceInteraction{
		T:        t,
		Point:    ray.At(t),
		Material: p.Material,
	}
	hit.SetFaceNormal(ray, p.Normal)

	if p.TileSize > 0 {
		tangent, bitangent := core.OrthonormalBasis(p.Normal)
		local := hit.Point.Subtract(p.Point)
		hit.UV = core.NewVec2(local.Dot(tangent)/p.TileSize, local.Dot(bitangent)/p.TileSize)
	}

	return hit, true
}
