// Package texture provides the 2D storage the resampling kernel reads and writes.
package texture

import (
	"image"
)

// Buffer is a dense row-major 2D array of texels
type Buffer[T any] struct {
	width  int
	height int
	data   []T
}

// NewBuffer allocates a zeroed buffer
func NewBuffer[T any](width, height int) *Buffer[T] {
	return &Buffer[T]{
		width:  width,
		height: height,
		data:   make([]T, width*height),
	}
}

// Width returns the buffer width in texels
func (b *Buffer[T]) Width() int { return b.width }

// Height returns the buffer height in texels
func (b *Buffer[T]) Height() int { return b.height }

// Size returns the buffer extent as a point
func (b *Buffer[T]) Size() image.Point { return image.Pt(b.width, b.height) }

// Bounds returns the texel rectangle covered by the buffer
func (b *Buffer[T]) Bounds() image.Rectangle { return image.Rect(0, 0, b.width, b.height) }

// InBounds reports whether p addresses a texel
func (b *Buffer[T]) InBounds(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.width && p.Y < b.height
}

// At returns the texel at p; out-of-bounds reads return the zero value
func (b *Buffer[T]) At(p image.Point) T {
	if !b.InBounds(p) {
		var zero T
		return zero
	}
	return b.data[p.Y*b.width+p.X]
}

// Set writes the texel at p; out-of-bounds writes are dropped
func (b *Buffer[T]) Set(p image.Point, v T) {
	if !b.InBounds(p) {
		return
	}
	b.data[p.Y*b.width+p.X] = v
}

// Fill writes v to every texel
func (b *Buffer[T]) Fill(v T) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Clamp returns p clamped to the buffer bounds
func (b *Buffer[T]) Clamp(p image.Point) image.Point {
	return image.Pt(max(0, min(b.width-1, p.X)), max(0, min(b.height-1, p.Y)))
}

// Values exposes the backing slice, row-major
func (b *Buffer[T]) Values() []T {
	return b.data
}
