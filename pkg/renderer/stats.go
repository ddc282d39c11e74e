package renderer

import (
	"image"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-restir-gi/pkg/restir"
)

// TileStats collects the per-pixel resampling results of one tile
type TileStats struct {
	Pixels      int                      // Pixels resolved
	Sky         int                      // Background pixels
	Resampled   int                      // Pixels whose reuse loop ran
	Considered  int                      // Neighbors enumerated
	Accepted    int                      // Neighbors folded in
	FromHistory int                      // Pixels whose final selection came from history
	Rejections  map[restir.Rejection]int // Rejected neighbors by reason
	W           []float64                // Contribution weights of surface pixels
	M           []float64                // Confidences of surface pixels
}

func newTileStats(pixels int) TileStats {
	return TileStats{
		Rejections: make(map[restir.Rejection]int),
		W:          make([]float64, 0, pixels),
		M:          make([]float64, 0, pixels),
	}
}

// AddPixel records one pixel's result
func (ts *TileStats) AddPixel(result restir.PixelResult) {
	ts.Pixels++
	if result.Sky {
		ts.Sky++
		return
	}
	if result.Resampled {
		ts.Resampled++
	}
	if result.FromHistory {
		ts.FromHistory++
	}
	ts.Considered += result.Considered
	ts.Accepted += result.Accepted
	for _, reason := range restir.RejectionReasons() {
		if n := result.RejectionCount(reason); n > 0 {
			ts.Rejections[reason] += n
		}
	}
	ts.W = append(ts.W, result.Reservoir.W)
	ts.M = append(ts.M, result.Reservoir.M)
}

// FrameStats summarizes a resolved frame
type FrameStats struct {
	Frame       uint32         `json:"frame"`
	Pixels      int            `json:"pixels"`
	Sky         int            `json:"sky"`
	Resampled   int            `json:"resampled"`
	Considered  int            `json:"considered"`
	Accepted    int            `json:"accepted"`
	FromHistory int            `json:"fromHistory"`
	Rejections  map[string]int `json:"rejections"`
	MeanW       float64        `json:"meanW"`
	VarianceW   float64        `json:"varianceW"`
	MeanM       float64        `json:"meanM"`
	VarianceM   float64        `json:"varianceM"`
	Duration    time.Duration  `json:"duration"`
}

// AcceptanceRate returns the fraction of enumerated neighbors that were folded in
func (fs FrameStats) AcceptanceRate() float64 {
	if fs.Considered == 0 {
		return 0
	}
	return float64(fs.Accepted) / float64(fs.Considered)
}

// aggregateStats merges tile statistics in tile order
func aggregateStats(frame uint32, tiles []TileStats) FrameStats {
	fs := FrameStats{
		Frame:      frame,
		Rejections: make(map[string]int),
	}

	var ws, ms []float64
	for _, ts := range tiles {
		fs.Pixels += ts.Pixels
		fs.Sky += ts.Sky
		fs.Resampled += ts.Resampled
		fs.Considered += ts.Considered
		fs.Accepted += ts.Accepted
		fs.FromHistory += ts.FromHistory
		for reason, n := range ts.Rejections {
			fs.Rejections[reason.String()] += n
		}
		ws = append(ws, ts.W...)
		ms = append(ms, ts.M...)
	}

	// MeanVariance needs two samples for an unbiased variance
	switch len(ws) {
	case 0:
	case 1:
		fs.MeanW, fs.MeanM = ws[0], ms[0]
	default:
		fs.MeanW, fs.VarianceW = stat.MeanVariance(ws, nil)
		fs.MeanM, fs.VarianceM = stat.MeanVariance(ms, nil)
	}

	return fs
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of an 8-bit image,
// with channel values taken as-is in [0,1]
func CalculateAverageLuminance(img *image.RGBA) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}

	lum := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			r := float64(c.R) / 255
			g := float64(c.G) / 255
			bl := float64(c.B) / 255
			lum = append(lum, 0.2126*r+0.7152*g+0.0722*bl)
		}
	}
	return stat.Mean(lum, nil)
}
