package restir

import "fmt"

// Config contains the toggles and clamps consumed by the resampling kernel
type Config struct {
	UseBRDFSampling  bool    `json:"useBrdfSampling"`  // Candidates are cosine-sampled, so the target pdf omits the cosine term
	TemporalMClamp   float64 `json:"temporalMClamp"`   // Maximum history confidence (M) folded in per neighbor
	ReservoirWClamp  float64 `json:"reservoirWClamp"`  // Ceiling on the output contribution weight W
	EnableResampling bool    `json:"enableResampling"` // Master switch for temporal/spatial reuse
	RayBias          float64 `json:"rayBias"`          // Offset of the secondary ray origin along the surface normal
	MinDistance      float64 `json:"minDistance"`      // Lower bound on distances used by the Jacobian
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		UseBRDFSampling:  true,
		TemporalMClamp:   20,
		ReservoirWClamp:  10,
		EnableResampling: true,
		RayBias:          1e-3,
		MinDistance:      1e-4,
	}
}

// Validate checks that the clamps are usable
func (c Config) Validate() error {
	if !(c.TemporalMClamp > 0) {
		return fmt.Errorf("temporal M clamp must be positive, got %v", c.TemporalMClamp)
	}
	if !(c.ReservoirWClamp > 0) {
		return fmt.Errorf("reservoir W clamp must be positive, got %v", c.ReservoirWClamp)
	}
	if c.RayBias < 0 {
		return fmt.Errorf("ray bias must be non-negative, got %v", c.RayBias)
	}
	if !(c.MinDistance > 0) {
		return fmt.Errorf("minimum distance must be positive, got %v", c.MinDistance)
	}
	return nil
}
