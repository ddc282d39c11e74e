package texture

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/df07/go-restir-gi/pkg/core"
)

// DownsampleNormals produces the half-resolution normal buffer the kernel samples.
// Normals are packed into a 16-bit image, filtered with a bilinear kernel and
// renormalized on the way back.
func DownsampleNormals(full *Buffer[core.Vec3]) *Buffer[core.Vec3] {
	halfW := max(1, (full.Width()+1)/2)
	halfH := max(1, (full.Height()+1)/2)

	src := image.NewRGBA64(full.Bounds())
	for y := 0; y < full.Height(); y++ {
		for x := 0; x < full.Width(); x++ {
			src.SetRGBA64(x, y, encodeNormal(full.At(image.Pt(x, y))))
		}
	}

	dst := image.NewRGBA64(image.Rect(0, 0, halfW, halfH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	half := NewBuffer[core.Vec3](halfW, halfH)
	for y := 0; y < halfH; y++ {
		for x := 0; x < halfW; x++ {
			half.Set(image.Pt(x, y), decodeNormal(dst.RGBA64At(x, y)))
		}
	}
	return half
}

func encodeNormal(n core.Vec3) color.RGBA64 {
	pack := func(v float64) uint16 {
		return uint16(math.Round(core.Clamp(v*0.5+0.5, 0, 1) * 65535))
	}
	return color.RGBA64{R: pack(n.X), G: pack(n.Y), B: pack(n.Z), A: 0xffff}
}

func decodeNormal(c color.RGBA64) core.Vec3 {
	unpack := func(v uint16) float64 {
		return float64(v)/65535*2 - 1
	}
	return core.NewVec3(unpack(c.R), unpack(c.G), unpack(c.B)).Normalize()
}

// ToRGBA converts a linear radiance buffer to an 8-bit image with gamma 2
func ToRGBA(buf *Buffer[core.Vec3]) *image.RGBA {
	img := image.NewRGBA(buf.Bounds())
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			c := buf.At(image.Pt(x, y)).GammaCorrect(2.0).Clamp(0, 1)
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(255 * c.X),
				G: uint8(255 * c.Y),
				B: uint8(255 * c.Z),
				A: 255,
			})
		}
	}
	return img
}

// Upscale enlarges an image by an integer factor with a Catmull-Rom filter
func Upscale(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
