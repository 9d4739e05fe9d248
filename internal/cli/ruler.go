package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/frametrack/internal/output"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

// RulerReport is the machine-readable form of `frametrack ruler`.
type RulerReport struct {
	Duration float64          `json:"duration" yaml:"duration"`
	Scale    float64          `json:"scale" yaml:"scale"`
	Start    float64          `json:"start" yaml:"start"`
	End      float64          `json:"end" yaml:"end"`
	Density  timefmt.Density  `json:"density" yaml:"density"`
	Markers  []timefmt.Marker `json:"markers" yaml:"markers"`

	cells         int
	pixelsPerCell float64
}

func newRulerCmd() *cobra.Command {
	var (
		duration float64
		scale    float64
		start    float64
		width    int
		format   string
	)
	cmd := &cobra.Command{
		Use:   "ruler",
		Short: "Print the time ruler for a duration and zoom",
		Long: `Print the ruler ticks the timeline would draw.

The visible window starts at --start and is --width terminal columns wide
(the terminal width when omitted). The scale is clamped to 10-200 px/s.

Examples:
  frametrack ruler --duration 120
  frametrack ruler --duration 600 --scale 12 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return errors.New("--duration must be positive")
			}
			f, err := outputFormat(format)
			if err != nil {
				return err
			}
			if scale == 0 {
				scale = cfg.Timeline.DefaultScale
			}
			if width <= 0 {
				width = terminalWidth()
			}
			report := buildRuler(duration, scale, start, width, float64(cfg.Timeline.PixelsPerCell))
			return output.Write(cmd.OutOrStdout(), f, report, report.writeText)
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "media duration in seconds")
	cmd.Flags().Float64Var(&scale, "scale", 0, "zoom in pixels per second (default from config)")
	cmd.Flags().Float64Var(&start, "start", 0, "time at the left edge in seconds")
	cmd.Flags().IntVar(&width, "width", 0, "ruler width in columns")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	return cmd
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func buildRuler(duration, scale, start float64, cells int, ppc float64) RulerReport {
	if ppc <= 0 {
		ppc = 1
	}
	vp := viewport.New(duration)
	vp.SetScale(scale)
	vp.SetViewportWidth(float64(cells) * ppc)
	vp.SetScrollPosition(vp.TimeToPixels(start))

	from, to := vp.VisibleTimeRange()
	to = math.Min(to, duration)
	return RulerReport{
		Duration:      duration,
		Scale:         vp.Scale(),
		Start:         from,
		End:           to,
		Density:       timefmt.DensityFor(vp.Scale()),
		Markers:       timefmt.MarkersInRange(from, to, duration, vp.Scale()),
		cells:         cells,
		pixelsPerCell: ppc,
	}
}

// writeText draws a labelled tick line followed by a summary.
func (r RulerReport) writeText(w io.Writer) error {
	labels := []rune(strings.Repeat(" ", r.cells))
	ticks := []rune(strings.Repeat("-", r.cells))
	nextFree := 0
	for _, m := range r.Markers {
		col := int(math.Round((m.Time - r.Start) * r.Scale / r.pixelsPerCell))
		if col < 0 || col >= r.cells {
			continue
		}
		if !m.Major {
			ticks[col] = '\''
			continue
		}
		ticks[col] = '|'
		if col < nextFree || col+runewidth.StringWidth(m.Label) > r.cells {
			continue
		}
		for i, ch := range m.Label {
			labels[col+i] = ch
		}
		nextFree = col + len(m.Label) + 1
	}
	fmt.Fprintln(w, strings.TrimRight(string(labels), " "))
	fmt.Fprintln(w, string(ticks))
	fmt.Fprintf(w, "%s  %.0fpx/s  every %s, major %s  (%s)\n",
		timefmt.FormatTime(r.Start)+" - "+timefmt.FormatTime(r.End),
		r.Scale,
		timefmt.FormatSeconds(r.Density.Interval),
		timefmt.FormatSeconds(r.Density.Major),
		output.CountStr(len(r.Markers), "tick", "ticks"))
	return nil
}
