package material

import (
	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/texture"
)

// ImageTexture provides color from a 2D texel buffer
type ImageTexture struct {
	Texels *texture.Buffer[core.Vec3] // Row 0 is the top of the image
}

// NewImageTexture wraps a texel buffer as a color source
func NewImageTexture(texels *texture.Buffer[core.Vec3]) *ImageTexture {
	return &ImageTexture{Texels: texels}
}

// Evaluate samples the texture at given UV coordinates using nearest-neighbor filtering
func (t *ImageTexture) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	if t.Texels.Width() == 0 || t.Texels.Height() == 0 {
		return core.Vec3{}
	}
	return t.Texels.At(texelAt(uv, t.Texels.Size()))
}
