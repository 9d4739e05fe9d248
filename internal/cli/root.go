// Package cli implements the frametrack command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/frametrack/internal/config"
	"github.com/Dicklesworthstone/frametrack/internal/output"
)

var (
	cfgFile  string
	cfg      *config.Config
	logLevel string
	noColor  bool

	// Global JSON output flag, shorthand for --format=json.
	jsonOutput bool

	logCloser io.Closer

	// Build information, set via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "frametrack",
	Short: "Place timed text overlays on a video from the terminal",
	Long: `frametrack is a terminal timeline editor for text overlays on video.

Quick Start:
  frametrack edit clip.mp4              # Open the editor (ffprobe reads the duration)
  frametrack edit clip.mp4 --duration 90
  frametrack ruler --duration 120 --scale 50
  frametrack timecode format 3661.5     # 01:01:01:15
  frametrack probe *.mp4 --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // best-effort: load .env if present

		if noColor {
			os.Setenv("FRAMETRACK_NO_COLOR", "1")
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
			loaded = config.Default()
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded

		setupLogging(cmd.ErrOrStderr(), cfg.Log.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/frametrack/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (machine-readable)")

	rootCmd.AddCommand(
		newEditCmd(),
		newRulerCmd(),
		newTimecodeCmd(),
		newProbeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	if err != nil {
		if jsonOutput {
			_ = output.WriteJSON(os.Stderr, map[string]string{"error": err.Error()}, false)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

// parseLevel maps a config level name to slog; unknown names mean info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// setupLogging sends structured logs to w at the given level. Non-interactive
// commands log to stderr; the editor moves logging to a file.
func setupLogging(w io.Writer, level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})))
}

// setupFileLogging redirects logs to the configured log file, since the
// editor owns the terminal while it runs.
func setupFileLogging(c *config.Config) error {
	path := c.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	logCloser = f
	setupLogging(f, c.Log.Level)
	return nil
}

// outputFormat resolves a command's --format flag against the global --json.
func outputFormat(flag string) (output.Format, error) {
	if jsonOutput {
		return output.FormatJSON, nil
	}
	return output.ParseFormat(flag)
}

// configPath is the file the config was loaded from.
func configPath() string {
	if cfgFile != "" {
		return config.ExpandHome(cfgFile)
	}
	return config.DefaultPath()
}

func goVersion() string {
	return runtime.Version()
}

func goPlatform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// VersionInfo is the payload of `frametrack version --json`.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuiltAt   string `json:"built_at" yaml:"built_at"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd.OutOrStdout(), short)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

func runVersion(w io.Writer, short bool) error {
	info := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuiltAt:   Date,
		BuiltBy:   BuiltBy,
		GoVersion: goVersion(),
		Platform:  goPlatform(),
	}
	if jsonOutput {
		return output.WriteJSON(w, info, true)
	}
	if short {
		fmt.Fprintln(w, info.Version)
		return nil
	}
	fmt.Fprintf(w, "frametrack version %s\n", info.Version)
	fmt.Fprintf(w, "  commit:    %s\n", info.Commit)
	fmt.Fprintf(w, "  built:     %s\n", info.BuiltAt)
	fmt.Fprintf(w, "  builder:   %s\n", info.BuiltBy)
	fmt.Fprintf(w, "  go:        %s\n", info.GoVersion)
	fmt.Fprintf(w, "  platform:  %s\n", info.Platform)
	return nil
}
