package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/frametrack/internal/config"
	"github.com/Dicklesworthstone/frametrack/internal/export"
	"github.com/Dicklesworthstone/frametrack/internal/media"
	"github.com/Dicklesworthstone/frametrack/internal/playback"
	"github.com/Dicklesworthstone/frametrack/internal/tui/editor"
	"github.com/Dicklesworthstone/frametrack/internal/watcher"
)

func newEditCmd() *cobra.Command {
	var duration float64
	cmd := &cobra.Command{
		Use:   "edit <video>",
		Short: "Open the timeline editor for a video",
		Long: `Open the interactive timeline editor.

The media duration is read with ffprobe unless --duration is given. Frame
export uses ffmpeg to grab the base frame when it is available and falls back
to a black canvas otherwise.

Examples:
  frametrack edit clip.mp4
  frametrack edit clip.mp4 --duration 42.5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd.Context(), args[0], duration)
		},
	}
	cmd.Flags().Float64Var(&duration, "duration", 0, "media duration in seconds (skips ffprobe)")
	return cmd
}

func isInteractive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolveDuration returns the flag value when set, else probes the file.
func resolveDuration(ctx context.Context, tool *media.Tool, path string, flag float64) (float64, error) {
	if flag > 0 {
		return flag, nil
	}
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("opening video: %w", err)
	}
	d, err := tool.ProbeDuration(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("reading duration of %s (pass --duration to skip ffprobe): %w", path, err)
	}
	return d, nil
}

func runEdit(ctx context.Context, path string, duration float64) error {
	if !isInteractive() {
		return errors.New("edit needs an interactive terminal")
	}

	tool := media.New(cfg.Export.FFmpeg, cfg.Export.FFprobe)
	duration, err := resolveDuration(ctx, tool, path, duration)
	if err != nil {
		return err
	}

	if err := setupFileLogging(cfg); err != nil {
		return err
	}
	slog.Default().Info("editor starting", "video", path, "duration", duration, "config", configPath())

	clock := playback.NewClock()
	clock.Load(path, duration)
	exporter := export.NewExporter(tool, cfg.ExportOptions())

	model := editor.New(cfg, path, clock, exporter)
	defer model.Close()
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	watchPath := configPath()
	w := watcher.New(watchPath,
		watcher.WithOnChange(func(string) {
			reloaded, err := config.Load(watchPath)
			if err != nil {
				slog.Default().Warn("config reload failed", "path", watchPath, "error", err)
				return
			}
			if errs := config.Validate(reloaded); len(errs) > 0 {
				slog.Default().Warn("config reload rejected", "path", watchPath, "errors", len(errs), "first", errs[0])
				return
			}
			p.Send(editor.ConfigReloadedMsg{Config: reloaded})
		}),
		watcher.WithOnError(func(err error) {
			slog.Default().Warn("config watcher error", "error", err)
		}),
	)
	if err := w.Start(ctx); err != nil {
		slog.Default().Warn("config watcher disabled", "path", watchPath, "error", err)
	} else {
		defer w.Stop()
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running editor: %w", err)
	}
	return nil
}
