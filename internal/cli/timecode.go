package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/frametrack/internal/output"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
)

// Conversion is one timecode conversion result.
type Conversion struct {
	Input    string  `json:"input" yaml:"input"`
	Seconds  float64 `json:"seconds" yaml:"seconds"`
	Timecode string  `json:"timecode" yaml:"timecode"`
}

func newTimecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timecode",
		Short: "Convert between seconds and timecodes",
		Long: `Convert between seconds and [HH:]MM:SS:FF timecodes at 30 fps.

Examples:
  frametrack timecode format 1.5 3661     # 00:01:15  01:01:01:00
  frametrack timecode parse 00:01:15      # 1.5`,
	}
	cmd.AddCommand(newTimecodeFormatCmd(), newTimecodeParseCmd())
	return cmd
}

func newTimecodeFormatCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "format <seconds>...",
		Short: "Format seconds as timecodes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(format)
			if err != nil {
				return err
			}
			results := make([]Conversion, 0, len(args))
			for _, a := range args {
				s, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("invalid seconds %q", a)
				}
				results = append(results, Conversion{Input: a, Seconds: s, Timecode: timefmt.FormatTime(s)})
			}
			return output.Write(cmd.OutOrStdout(), f, results, func(w io.Writer) error {
				for _, r := range results {
					fmt.Fprintln(w, r.Timecode)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	return cmd
}

func newTimecodeParseCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "parse <timecode>...",
		Short: "Parse timecodes into seconds",
		Long: `Parse MM:SS:FF or HH:MM:SS:FF timecodes into seconds.

Malformed timecodes parse as 0, the same way the editor treats them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(format)
			if err != nil {
				return err
			}
			results := make([]Conversion, 0, len(args))
			for _, a := range args {
				s := timefmt.ParseTime(a)
				results = append(results, Conversion{Input: a, Seconds: s, Timecode: timefmt.FormatTime(s)})
			}
			return output.Write(cmd.OutOrStdout(), f, results, func(w io.Writer) error {
				for _, r := range results {
					fmt.Fprintln(w, strconv.FormatFloat(r.Seconds, 'f', -1, 64))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, yaml")
	return cmd
}
