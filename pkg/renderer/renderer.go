package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/df07/go-restir-gi/pkg/core"
	"github.com/df07/go-restir-gi/pkg/integrator"
	"github.com/df07/go-restir-gi/pkg/restir"
	"github.com/df07/go-restir-gi/pkg/scene"
	"github.com/df07/go-restir-gi/pkg/texture"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// FrameConfig contains configuration for frame rendering
type FrameConfig struct {
	TileSize   int                   `json:"tileSize"`   // Size of each tile (32x32 recommended)
	NumWorkers int                   `json:"numWorkers"` // Number of parallel workers (0 = use CPU count)
	Resampling restir.Config         `json:"resampling"`
	Path       integrator.PathConfig `json:"path"`
}

// DefaultFrameConfig returns sensible default values
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		TileSize:   32,
		NumWorkers: 0,
		Resampling: restir.DefaultConfig(),
		Path:       integrator.DefaultPathConfig(),
	}
}

// Validate reports the first invalid setting
func (c FrameConfig) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("tile size must be positive, got %d", c.TileSize)
	}
	if c.NumWorkers < 0 {
		return fmt.Errorf("worker count must not be negative, got %d", c.NumWorkers)
	}
	if c.Path.MaxDepth < 1 {
		return fmt.Errorf("path max depth must be at least 1, got %d", c.Path.MaxDepth)
	}
	if err := c.Resampling.Validate(); err != nil {
		return fmt.Errorf("while validating resampling config: %w", err)
	}
	return nil
}

// FrameResult is one resolved frame
type FrameResult struct {
	Frame    uint32
	Image    *image.RGBA
	Radiance *texture.Buffer[core.Vec3] // Linear radiance before tone mapping
	Stats    FrameStats
}

// FrameRenderer resolves a sequence of frames. Each frame reads the previous frame's
// resampling outputs as history and writes a fresh set; the two sets swap afterwards.
// Frames are strictly sequential: RenderFrame must not be called concurrently.
type FrameRenderer struct {
	scene         *scene.Scene
	width, height int
	config        FrameConfig
	tiles         []*Tile
	workerPool    *WorkerPool
	oracle        *integrator.CachedPathOracle
	kernel        *restir.Kernel
	history       *restir.Buffers
	outputs       *restir.Buffers
	prevCamera    *scene.Camera
	frame         uint32
	logger        core.Logger
}

// NewFrameRenderer creates a renderer for a width x height view of s
func NewFrameRenderer(s *scene.Scene, width, height int, config FrameConfig, logger core.Logger) (*FrameRenderer, error) {
	if s == nil {
		return nil, errors.New("scene is nil")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if width > restir.MaxPayloadExtent || height > restir.MaxPayloadExtent {
		return nil, fmt.Errorf("frame size %dx%d exceeds the %d pixel reservoir payload range", width, height, restir.MaxPayloadExtent)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("while validating frame config: %w", err)
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}

	oracle := integrator.NewCachedPathOracle(s, config.Path, width, height)

	return &FrameRenderer{
		scene:      s,
		width:      width,
		height:     height,
		config:     config,
		tiles:      NewTileGrid(width, height, config.TileSize),
		workerPool: NewWorkerPool(config.NumWorkers),
		oracle:     oracle,
		kernel:     restir.NewKernel(config.Resampling, oracle),
		history:    restir.NewBuffers(width, height),
		outputs:    restir.NewBuffers(width, height),
		logger:     logger,
	}, nil
}

// Frame returns the index of the next frame to render
func (fr *FrameRenderer) Frame() uint32 {
	return fr.frame
}

// History returns the resampling outputs of the last completed frame
func (fr *FrameRenderer) History() *restir.Buffers {
	return fr.history
}

// Tiles returns the tile grid
func (fr *FrameRenderer) Tiles() []*Tile {
	return fr.tiles
}

// Reset discards all temporal state, as after a camera cut
func (fr *FrameRenderer) Reset() {
	fr.frame = 0
	fr.prevCamera = nil
	fr.oracle.Reset()
	fr.history = restir.NewBuffers(fr.width, fr.height)
	fr.outputs = restir.NewBuffers(fr.width, fr.height)
	for _, tile := range fr.tiles {
		tile.FramesCompleted = 0
	}
}

// RenderFrame resolves the next frame. If ctx is cancelled the frame is abandoned and
// the history from the last completed frame is kept.
func (fr *FrameRenderer) RenderFrame(ctx context.Context) (FrameResult, error) {
	tracer := otel.Tracer("go-restir-gi/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "FrameRenderer.RenderFrame")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("frame", int64(fr.frame)),
		attribute.Int("tiles", len(fr.tiles)),
		attribute.Int("workers", fr.workerPool.GetNumWorkers()),
	)

	result, err := fr.renderFrame(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FrameResult{}, err
	}

	span.SetAttributes(
		attribute.Int("resampled", result.Stats.Resampled),
		attribute.Float64("meanW", result.Stats.MeanW),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (fr *FrameRenderer) renderFrame(ctx context.Context) (FrameResult, error) {
	startTime := time.Now()
	frame := fr.frame

	aspect := float64(fr.width) / float64(fr.height)
	camera := fr.scene.CameraForFrame(int(frame), aspect)

	gbuf, err := fr.buildGeometry(ctx, camera)
	if err != nil {
		return FrameResult{}, fmt.Errorf("while building geometry for frame %d: %w", frame, err)
	}

	radiance := texture.NewBuffer[core.Vec3](fr.width, fr.height)
	tileStats, err := fr.resolve(ctx, frame, gbuf, radiance)
	if err != nil {
		return FrameResult{}, fmt.Errorf("while resolving frame %d: %w", frame, err)
	}

	stats := aggregateStats(frame, tileStats)
	stats.Duration = time.Since(startTime)

	// Every tile finished: the outputs become next frame's history
	fr.oracle.EndFrame()
	fr.history, fr.outputs = fr.outputs, fr.history
	fr.prevCamera = camera
	fr.frame++
	for _, tile := range fr.tiles {
		tile.FramesCompleted++
	}

	fr.logger.Printf("Frame %d resolved in %v (%d/%d pixels resampled, %d/%d neighbors accepted)\n",
		frame, stats.Duration, stats.Resampled, stats.Pixels-stats.Sky, stats.Accepted, stats.Considered)

	return FrameResult{
		Frame:    frame,
		Image:    texture.ToRGBA(radiance),
		Radiance: radiance,
		Stats:    stats,
	}, nil
}

// buildGeometry runs the primary-visibility pass tile by tile
func (fr *FrameRenderer) buildGeometry(ctx context.Context, camera *scene.Camera) (*scene.GBuffer, error) {
	tracer := otel.Tracer("go-restir-gi/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "FrameRenderer.buildGeometry")
	defer span.End()

	gbuf := scene.NewGBuffer(fr.scene, camera, fr.prevCamera, fr.width, fr.height)
	err := fr.workerPool.Run(ctx, fr.tiles, func(ctx context.Context, tile *Tile) error {
		gbuf.Fill(tile.Bounds)
		return nil
	})
	if err != nil {
		return nil, err
	}

	gbuf.Finish()
	return gbuf, nil
}

// resolve runs the resampling kernel for every pixel and shades the result
func (fr *FrameRenderer) resolve(ctx context.Context, frame uint32, gbuf *scene.GBuffer, radiance *texture.Buffer[core.Vec3]) ([]TileStats, error) {
	tracer := otel.Tracer("go-restir-gi/renderer")
	var span trace.Span
	ctx, span = tracer.Start(ctx, "FrameRenderer.resolve")
	defer span.End()

	fr.oracle.BeginFrame(frame)
	frameCtx := restir.FrameContext{FrameIndex: frame}
	stats := make([]TileStats, len(fr.tiles))

	err := fr.workerPool.Run(ctx, fr.tiles, func(ctx context.Context, tile *Tile) error {
		ts := newTileStats(tile.Bounds.Dx() * tile.Bounds.Dy())
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			// Rows are the cancellation granularity inside a tile
			if err := ctx.Err(); err != nil {
				return err
			}
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				px := image.Pt(x, y)
				result := fr.kernel.ResolvePixel(px, frameCtx, gbuf.Geometry, fr.history, fr.outputs)
				radiance.Set(px, shadePixel(px, result, gbuf, fr.outputs))
				ts.AddPixel(result)
			}
		}
		stats[tile.ID] = ts
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// shadePixel combines the primary hit's emission with the resampled indirect light:
// emission + brdf * radiance * cos * W
func shadePixel(px image.Point, result restir.PixelResult, gbuf *scene.GBuffer, out *restir.Buffers) core.Vec3 {
	emission := gbuf.Emission.At(px)
	if result.Sky {
		return emission
	}

	irradiance := out.Irradiance.At(px)
	w := out.ReservoirAt(px).W
	indirect := gbuf.BRDF.At(px).MultiplyVec(irradiance.XYZ()).Multiply(irradiance.W * w)
	return emission.Add(indirect)
}
