package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/util"
)

// FrameGrabber extracts a still frame from a video.
type FrameGrabber interface {
	CanExtract() bool
	ExtractFrame(ctx context.Context, path string, at float64, outPNG string) error
}

// Options configure an Exporter.
type Options struct {
	// Width and Height size the canvas when no base frame is available.
	Width     int
	Height    int
	OutputDir string
}

// Exporter writes annotated frames.
type Exporter struct {
	grab     FrameGrabber
	renderer *Renderer
	opts     Options
}

// NewExporter returns an exporter. grab may be nil, in which case frames are
// rendered on a black canvas.
func NewExporter(grab FrameGrabber, opts Options) *Exporter {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = DefaultWidth, DefaultHeight
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Exporter{grab: grab, renderer: NewRenderer(), opts: opts}
}

// FileName returns the export file name for videoPath at time at.
func FileName(videoPath string, at float64) string {
	name := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	name = util.SanitizeFilename(name)
	if name == "" || name == "-" || name == "_" {
		name = "video"
	}
	if math.IsNaN(at) || at < 0 {
		at = 0
	}
	return name + "-frame-" + strconv.Itoa(int(math.Floor(at))) + ".png"
}

// Export renders overlays over the frame of videoPath at time at and returns
// the written path. When the frame cannot be extracted the overlays are drawn
// on a black canvas.
func (e *Exporter) Export(ctx context.Context, videoPath string, at float64, overlays []overlay.TextOverlay) (string, error) {
	base := e.baseFrame(ctx, videoPath, at)

	w, h := e.opts.Width, e.opts.Height
	if base != nil {
		w, h = base.Bounds().Dx(), base.Bounds().Dy()
	}
	img := e.renderer.Render(base, w, h, overlays)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := filepath.Join(e.opts.OutputDir, FileName(videoPath, at))
	if err := util.AtomicWriteFile(out, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write frame: %w", err)
	}
	slog.Default().Info("frame exported", "path", out, "time", at, "overlays", len(overlays))
	return out, nil
}

func (e *Exporter) baseFrame(ctx context.Context, videoPath string, at float64) image.Image {
	if e.grab == nil || videoPath == "" || !e.grab.CanExtract() {
		return nil
	}
	dir, err := os.MkdirTemp("", "frametrack-frame-")
	if err != nil {
		slog.Default().Warn("frame temp dir", "error", err)
		return nil
	}
	defer os.RemoveAll(dir)

	tmp := filepath.Join(dir, "frame.png")
	if err := e.grab.ExtractFrame(ctx, videoPath, at, tmp); err != nil {
		slog.Default().Warn("extract frame failed, using blank canvas", "video", videoPath, "error", err)
		return nil
	}
	f, err := os.Open(tmp)
	if err != nil {
		slog.Default().Warn("open extracted frame", "error", err)
		return nil
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		slog.Default().Warn("decode extracted frame", "error", err)
		return nil
	}
	return img
}
