package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/df07/go-restir-gi/pkg/renderer"
	"github.com/df07/go-restir-gi/pkg/scene"
	"github.com/df07/go-restir-gi/pkg/texture"
)

// options holds the parsed command line
type options struct {
	sceneName  string
	frames     int
	width      int
	height     int
	workers    int
	configPath string
	noResample bool
	scale      int
	outDir     string
}

// glogLogger routes renderer output through glog
type glogLogger struct{}

func (glogLogger) Printf(format string, args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf(format, args...))
}

func main() {
	var opts options
	flag.StringVar(&opts.sceneName, "scene", "cornell", "Built-in scene to render")
	flag.IntVar(&opts.frames, "frames", 8, "Number of frames to resolve; the last one is saved")
	flag.IntVar(&opts.width, "width", 0, "Image width (0 = scene default)")
	flag.IntVar(&opts.height, "height", 0, "Image height (0 = scene default)")
	flag.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	flag.StringVar(&opts.configPath, "config", "", "Optional JSON file with a frame config")
	flag.BoolVar(&opts.noResample, "no-resample", false, "Disable temporal and spatial reuse")
	flag.IntVar(&opts.scale, "scale", 1, "Integer upscale factor for the saved image")
	flag.StringVar(&opts.outDir, "out", "output", "Output root directory")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()
	defer glog.Flush()

	if *help {
		printHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	filename, err := run(ctx, opts)
	if err != nil {
		glog.Flush()
		glog.Exitf("Render failed: %v", err)
	}
	glog.Infof("Render saved as %s", filename)
}

func printHelp() {
	fmt.Println("ReSTIR GI frame renderer")
	fmt.Println("Usage: restir [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.ListScenes() {
		fmt.Printf("  %-8s - %s\n", info.ID, info.Description)
	}
	fmt.Println()
	fmt.Println("Output will be saved to <out>/<scene>/restir_<timestamp>.png")
}

// run renders opts.frames frames and saves the last one, returning its path
func run(ctx context.Context, opts options) (string, error) {
	s, err := createScene(opts.sceneName)
	if err != nil {
		return "", fmt.Errorf("while creating scene: %w", err)
	}

	config, err := loadConfig(opts.configPath)
	if err != nil {
		return "", fmt.Errorf("while loading config: %w", err)
	}
	if opts.workers > 0 {
		config.NumWorkers = opts.workers
	}
	if opts.noResample {
		config.Resampling.EnableResampling = false
	}
	if opts.frames < 1 {
		return "", fmt.Errorf("frame count must be at least 1, got %d", opts.frames)
	}

	width, height := frameSize(s, opts.width, opts.height)
	glog.Infof("Rendering scene %q at %dx%d for %d frames", s.Name, width, height, opts.frames)

	fr, err := renderer.NewFrameRenderer(s, width, height, config, glogLogger{})
	if err != nil {
		return "", fmt.Errorf("while creating renderer: %w", err)
	}

	var last renderer.FrameResult
	for i := 0; i < opts.frames; i++ {
		last, err = fr.RenderFrame(ctx)
		if err != nil {
			return "", fmt.Errorf("while rendering frame %d: %w", i, err)
		}
		glog.V(1).Infof("Frame %d: mean W %.4f (var %.4f), mean M %.2f, acceptance %.2f, rejections %v",
			last.Frame, last.Stats.MeanW, last.Stats.VarianceW, last.Stats.MeanM,
			last.Stats.AcceptanceRate(), last.Stats.Rejections)
	}
	glog.Infof("Average luminance of final frame: %.4f", renderer.CalculateAverageLuminance(last.Image))

	filename := outputPath(opts.outDir, s.Name, time.Now())
	if err := savePNG(filename, texture.Upscale(last.Image, opts.scale)); err != nil {
		return "", fmt.Errorf("while saving image: %w", err)
	}
	return filename, nil
}

// createScene builds the named built-in scene
func createScene(name string) (*scene.Scene, error) {
	return scene.NewScene(name)
}

// loadConfig reads a frame config from a JSON file. Fields the file omits keep their
// defaults. An empty path returns the defaults.
func loadConfig(path string) (renderer.FrameConfig, error) {
	config := renderer.DefaultFrameConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return renderer.FrameConfig{}, err
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return renderer.FrameConfig{}, fmt.Errorf("while parsing %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return renderer.FrameConfig{}, fmt.Errorf("while validating %s: %w", path, err)
	}
	return config, nil
}

// frameSize applies command line overrides to the scene's default size. A single
// override keeps the scene's aspect ratio.
func frameSize(s *scene.Scene, width, height int) (int, int) {
	switch {
	case width > 0 && height > 0:
		return width, height
	case width > 0:
		return width, max(1, width*s.Height/s.Width)
	case height > 0:
		return max(1, height*s.Width/s.Height), height
	default:
		return s.Width, s.Height
	}
}

// outputPath returns <root>/<scene>/restir_<timestamp>.png
func outputPath(root, sceneName string, now time.Time) string {
	timestamp := now.Format("20060102_150405")
	return filepath.Join(root, sceneName, fmt.Sprintf("restir_%s.png", timestamp))
}

func savePNG(filename string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("while creating output directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("while creating file: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("while encoding PNG: %w", err)
	}
	return nil
}
