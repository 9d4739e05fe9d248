// Package media shells out to ffprobe and ffmpeg for video metadata and
// still frames.
package media

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
)

// ErrNoDuration is returned when ffprobe reports no usable duration.
var ErrNoDuration = errors.New("media has no duration")

// Tool runs the ffmpeg binaries.
type Tool struct {
	ffmpeg  string
	ffprobe string
}

// New returns a Tool using the given binaries, defaulting to names on PATH.
func New(ffmpegPath, ffprobePath string) *Tool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Tool{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// CanExtract reports whether the ffmpeg binary can be found.
func (t *Tool) CanExtract() bool {
	_, err := exec.LookPath(t.ffmpeg)
	return err == nil
}

// ProbeDuration returns the container duration of path in seconds.
func (t *Tool) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return ParseDuration(string(b))
}

// ParseDuration parses ffprobe's bare duration output.
func ParseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if s == "" || s == "N/A" {
		return 0, ErrNoDuration
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 {
		return 0, fmt.Errorf("parse duration %q: %w", s, ErrNoDuration)
	}
	return sec, nil
}

// ExtractFrame writes the frame at t seconds of path to outPNG.
func (t *Tool) ExtractFrame(ctx context.Context, path string, at float64, outPNG string) error {
	cmd := exec.CommandContext(ctx, t.ffmpeg,
		"-y",
		"-v", "error",
		"-ss", strconv.FormatFloat(math.Max(0, at), 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		outPNG,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract frame: %w\n%s", err, string(b))
	}
	return nil
}

// ProbeResult is the outcome of probing one file.
type ProbeResult struct {
	Path     string  `json:"path" yaml:"path"`
	Duration float64 `json:"duration" yaml:"duration"`
	Timecode string  `json:"timecode,omitempty" yaml:"timecode,omitempty"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProbeAll probes paths concurrently, at most limit at a time, and returns
// results in input order. Per-file failures are reported in the result; the
// returned error is only set when ctx is done.
func (t *Tool) ProbeAll(ctx context.Context, paths []string, limit int) ([]ProbeResult, error) {
	if limit < 1 {
		limit = 4
	}
	results := make([]ProbeResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			results[i].Path = p
			d, err := t.ProbeDuration(gctx, p)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Error = firstLine(err.Error())
				return nil
			}
			results[i].Duration = d
			results[i].Timecode = timefmt.FormatTime(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("probe: %w", err)
	}
	return results, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
