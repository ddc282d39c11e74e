package scene

import (
	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/geometry"
	"github.com/df07/go-restir-gi/pkg/material"
)

// NewDefaultScene creates a default scene with spheres on a checkered ground under a sky
func NewDefaultScene(cameraOverrides ...CameraConfig) *Scene {
	cameraConfig := CameraConfig{
		Center:      core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:      core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:          core.NewVec3(0, 1, 0),
		VFov:        40.0,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
	}
	if len(cameraOverrides) > 0 {
		cameraConfig = MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}

	s := &Scene{
		Name:                 "default",
		CameraConfig:         cameraConfig,
		Shapes:               make([]geometry.Shape, 0),
		TopColor:             core.NewVec3(0.5, 0.7, 1.0), // Blue sky
		BottomColor:          core.NewVec3(1.0, 1.0, 1.0), // White horizon
		OrbitDegreesPerFrame: 0.5,
		Width:                400,
		Height:               225,
	}

	// Create materials
	checker := material.NewCheckerboardTexture(2, 2, 1,
		core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6),
		core.NewVec3(0.9, 0.9, 0.9),
	)
	ground := geometry.NewPlane(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), material.NewTexturedLambertian(checker))
	ground.TileSize = 1.0

	lambertianBlue := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	lambertianRed := material.NewLambertian(core.NewVec3(0.65, 0.25, 0.2))
	lambertianWhite := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.8))

	s.Shapes = append(s.Shapes,
		ground,
		geometry.NewSphere(core.NewVec3(0, 0.5, -1), 0.5, lambertianRed),
		geometry.NewSphere(core.NewVec3(-1, 0.5, -1), 0.5, lambertianWhite),
		geometry.NewSphere(core.NewVec3(1, 0.5, -1), 0.5, lambertianBlue),
	)

	// A warm sun-like emitter
	s.AddSphereLight(core.NewVec3(30, 30.5, 15), 10, core.NewVec3(15.0, 14.0, 13.0))

	return s
}

// MergeCameraConfig overlays the non-zero fields of override onto base
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if override.Center != (core.Vec3{}) {
		result.Center = override.Center
	}
	if override.LookAt != (core.Vec3{}) {
		result.LookAt = override.LookAt
	}
	if override.Up != (core.Vec3{}) {
		result.Up = override.Up
	}
	if override.VFov != 0 {
		result.VFov = override.VFov
	}
	if override.AspectRatio != 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.Near != 0 {
		result.Near = override.Near
	}
	return result
}
