package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/frametrack/internal/media"
	"github.com/Dicklesworthstone/frametrack/internal/output"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
)

func newProbeCmd() *cobra.Command {
	var (
		jobs   int
		format string
	)
	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Read media durations with ffprobe",
		Long: `Read the duration of one or more media files.

Files are probed concurrently, --jobs at a time. A file that cannot be
probed is reported in its row and does not fail the command.

Examples:
  frametrack probe clip.mp4
  frametrack probe *.mov --jobs 8 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(format)
			if err != nil {
				return err
			}
			tool := media.New(cfg.Export.FFmpeg, cfg.Export.FFprobe)
			results, err := tool.ProbeAll(cmd.Context(), args, jobs)
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
					slog.Default().Debug("probe failed", "path", r.Path, "error", r.Error)
				}
			}
			return output.Write(cmd.OutOrStdout(), f, results, func(w io.Writer) error {
				return writeProbeTable(w, results, failed)
			})
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "files to probe at once")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	return cmd
}

func writeProbeTable(w io.Writer, results []media.ProbeResult, failed int) error {
	table := output.NewTable(w, "FILE", "DURATION", "TIMECODE", "ERROR")
	for _, r := range results {
		if r.Error != "" {
			table.AddRow(r.Path, "-", "-", r.Error)
			continue
		}
		table.AddRow(r.Path, timefmt.FormatSeconds(r.Duration), r.Timecode, "")
	}
	table.Render()
	if failed > 0 {
		fmt.Fprintf(w, "\n%s of %d failed\n", output.CountStr(failed, "file", "files"), len(results))
	}
	return nil
}
