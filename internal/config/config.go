package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Dicklesworthstone/frametrack/internal/export"
	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/surface"
	"github.com/Dicklesworthstone/frametrack/internal/util"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

// Config represents the main configuration
type Config struct {
	Timeline TimelineConfig `toml:"timeline" json:"timeline" yaml:"timeline"`
	Overlay  OverlayConfig  `toml:"overlay" json:"overlay" yaml:"overlay"`
	Playback PlaybackConfig `toml:"playback" json:"playback" yaml:"playback"`
	Export   ExportConfig   `toml:"export" json:"export" yaml:"export"`
	UI       UIConfig       `toml:"ui" json:"ui" yaml:"ui"`
	Log      LogConfig      `toml:"log" json:"log" yaml:"log"`
}

// TimelineConfig holds timeline surface defaults.
type TimelineConfig struct {
	DefaultScale   float64 `toml:"default_scale" json:"default_scale" yaml:"default_scale"`       // Initial zoom in pixels per second (10-200)
	PixelsPerCell  int     `toml:"pixels_per_cell" json:"pixels_per_cell" yaml:"pixels_per_cell"` // Timeline pixels per terminal column
	WheelZoomStep  float64 `toml:"wheel_zoom_step" json:"wheel_zoom_step" yaml:"wheel_zoom_step"`
	ButtonZoomStep float64 `toml:"button_zoom_step" json:"button_zoom_step" yaml:"button_zoom_step"`
	SnapEnabled    bool    `toml:"snap_enabled" json:"snap_enabled" yaml:"snap_enabled"`
	FrameMode      bool    `toml:"frame_mode" json:"frame_mode" yaml:"frame_mode"`
	HandleWidth    float64 `toml:"handle_width" json:"handle_width" yaml:"handle_width"`          // Resize handle width in pixels
	FollowPlayhead bool    `toml:"follow_playhead" json:"follow_playhead" yaml:"follow_playhead"` // Re-centre when the playhead leaves the view
}

// OverlayConfig holds defaults for new overlays.
type OverlayConfig struct {
	DefaultDuration float64 `toml:"default_duration" json:"default_duration" yaml:"default_duration"`
	DefaultText     string  `toml:"default_text" json:"default_text" yaml:"default_text"`
	FontSize        float64 `toml:"font_size" json:"font_size" yaml:"font_size"`
	Color           string  `toml:"color" json:"color" yaml:"color"`
	FontFamily      string  `toml:"font_family" json:"font_family" yaml:"font_family"`
	FontWeight      string  `toml:"font_weight" json:"font_weight" yaml:"font_weight"`
}

// PlaybackConfig holds player settings.
type PlaybackConfig struct {
	TickFPS    int     `toml:"tick_fps" json:"tick_fps" yaml:"tick_fps"` // UI refresh rate while playing
	VolumeStep float64 `toml:"volume_step" json:"volume_step" yaml:"volume_step"`
}

// ExportConfig holds frame export settings.
type ExportConfig struct {
	Width     int    `toml:"width" json:"width" yaml:"width"` // Canvas size when no frame can be extracted
	Height    int    `toml:"height" json:"height" yaml:"height"`
	OutputDir string `toml:"output_dir" json:"output_dir" yaml:"output_dir"`
	FFmpeg    string `toml:"ffmpeg" json:"ffmpeg" yaml:"ffmpeg"`
	FFprobe   string `toml:"ffprobe" json:"ffprobe" yaml:"ffprobe"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Theme   string `toml:"theme" json:"theme" yaml:"theme"` // mocha, latte, nord, auto
	NoColor bool   `toml:"no_color" json:"no_color" yaml:"no_color"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level" yaml:"level"` // debug, info, warn, error
	File  string `toml:"file" json:"file" yaml:"file"`    // Empty means the per-OS state directory
}

// Default returns the default configuration.
func Default() *Config {
	od := overlay.DefaultDefaults()
	so := surface.DefaultOptions()
	return &Config{
		Timeline: TimelineConfig{
			DefaultScale:   viewport.DefaultScale,
			PixelsPerCell:  8,
			WheelZoomStep:  so.WheelZoomStep,
			ButtonZoomStep: so.ButtonZoomStep,
			SnapEnabled:    so.SnapEnabled,
			FrameMode:      so.FrameMode,
			HandleWidth:    so.HandleWidth,
			FollowPlayhead: so.Follow,
		},
		Overlay: OverlayConfig{
			DefaultDuration: od.Duration,
			DefaultText:     od.Text,
			FontSize:        od.Style.FontSize,
			Color:           od.Style.Color,
			FontFamily:      od.Style.FontFamily,
			FontWeight:      od.Style.FontWeight,
		},
		Playback: PlaybackConfig{
			TickFPS:    30,
			VolumeStep: 0.1,
		},
		Export: ExportConfig{
			Width:     export.DefaultWidth,
			Height:    export.DefaultHeight,
			OutputDir: ".",
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	if env := os.Getenv("FRAMETRACK_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "frametrack", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, ".config", "frametrack", "config.toml")
}

// DefaultLogPath returns the per-OS log file location.
func DefaultLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "frametrack", "frametrack.log")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "frametrack.log")
	}
	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "frametrack", "frametrack.log")
		}
	case "darwin":
		return filepath.Join(home, "Library", "Logs", "frametrack", "frametrack.log")
	}
	return filepath.Join(home, ".local", "state", "frametrack", "frametrack.log")
}

// LogPath returns the configured log file, or the default location.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return ExpandHome(c.Log.File)
	}
	return DefaultLogPath()
}

// Load reads path (or DefaultPath when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies FRAMETRACK_* variables (Env > TOML > Default).
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRAMETRACK_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	if v := os.Getenv("FRAMETRACK_NO_COLOR"); v != "" {
		cfg.UI.NoColor = v == "1" || v == "true"
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.UI.NoColor = true
	}
	if v := os.Getenv("FRAMETRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FRAMETRACK_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("FRAMETRACK_FFMPEG"); v != "" {
		cfg.Export.FFmpeg = v
	}
	if v := os.Getenv("FRAMETRACK_FFPROBE"); v != "" {
		cfg.Export.FFprobe = v
	}
	if v := os.Getenv("FRAMETRACK_EXPORT_DIR"); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := os.Getenv("FRAMETRACK_PIXELS_PER_CELL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeline.PixelsPerCell = n
		}
	}
	if v := os.Getenv("FRAMETRACK_SNAP"); v != "" {
		cfg.Timeline.SnapEnabled = v == "1" || v == "true"
	}
	if v := os.Getenv("FRAMETRACK_FRAME_MODE"); v != "" {
		cfg.Timeline.FrameMode = v == "1" || v == "true"
	}
}

// CreateDefault writes the default config to DefaultPath. It refuses to
// overwrite an existing file.
func CreateDefault() (string, error) {
	path := DefaultPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	var buffer strings.Builder
	if err := Print(Default(), &buffer); err != nil {
		return "", err
	}
	if err := util.AtomicWriteFile(path, []byte(buffer.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Print writes cfg as a commented TOML file.
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# frametrack configuration")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[timeline]")
	fmt.Fprintln(w, "# Initial zoom in pixels per second (10-200)")
	fmt.Fprintf(w, "default_scale = %s\n", fmtFloat(cfg.Timeline.DefaultScale))
	fmt.Fprintln(w, "# Timeline pixels represented by one terminal column")
	fmt.Fprintf(w, "pixels_per_cell = %d\n", cfg.Timeline.PixelsPerCell)
	fmt.Fprintf(w, "wheel_zoom_step = %s\n", fmtFloat(cfg.Timeline.WheelZoomStep))
	fmt.Fprintf(w, "button_zoom_step = %s\n", fmtFloat(cfg.Timeline.ButtonZoomStep))
	fmt.Fprintf(w, "snap_enabled = %t\n", cfg.Timeline.SnapEnabled)
	fmt.Fprintf(w, "frame_mode = %t\n", cfg.Timeline.FrameMode)
	fmt.Fprintf(w, "handle_width = %s\n", fmtFloat(cfg.Timeline.HandleWidth))
	fmt.Fprintf(w, "follow_playhead = %t\n", cfg.Timeline.FollowPlayhead)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[overlay]")
	fmt.Fprintln(w, "# Defaults for newly added text overlays")
	fmt.Fprintf(w, "default_duration = %s\n", fmtFloat(cfg.Overlay.DefaultDuration))
	fmt.Fprintf(w, "default_text = %q\n", cfg.Overlay.DefaultText)
	fmt.Fprintf(w, "font_size = %s\n", fmtFloat(cfg.Overlay.FontSize))
	fmt.Fprintf(w, "color = %q\n", cfg.Overlay.Color)
	fmt.Fprintf(w, "font_family = %q\n", cfg.Overlay.FontFamily)
	fmt.Fprintf(w, "font_weight = %q\n", cfg.Overlay.FontWeight)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[playback]")
	fmt.Fprintf(w, "tick_fps = %d\n", cfg.Playback.TickFPS)
	fmt.Fprintf(w, "volume_step = %s\n", fmtFloat(cfg.Playback.VolumeStep))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[export]")
	fmt.Fprintln(w, "# Canvas size used when ffmpeg cannot extract the frame")
	fmt.Fprintf(w, "width = %d\n", cfg.Export.Width)
	fmt.Fprintf(w, "height = %d\n", cfg.Export.Height)
	fmt.Fprintf(w, "output_dir = %q\n", cfg.Export.OutputDir)
	fmt.Fprintf(w, "ffmpeg = %q\n", cfg.Export.FFmpeg)
	fmt.Fprintf(w, "ffprobe = %q\n", cfg.Export.FFprobe)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[ui]")
	fmt.Fprintln(w, "# Theme (mocha, latte, nord, auto)")
	fmt.Fprintf(w, "theme = %q\n", cfg.UI.Theme)
	fmt.Fprintf(w, "no_color = %t\n", cfg.UI.NoColor)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[log]")
	fmt.Fprintln(w, "# Level (debug, info, warn, error)")
	fmt.Fprintf(w, "level = %q\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "file = %q\n", cfg.Log.File)
	} else {
		fmt.Fprintf(w, "# file = %q\n", DefaultLogPath())
	}
	return nil
}

func fmtFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// GetValue returns the value at a dotted path such as "timeline.snap_enabled".
func GetValue(cfg *Config, path string) (interface{}, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.SplitN(path, ".", 2)

	var section interface{}
	switch parts[0] {
	case "timeline":
		section = cfg.Timeline
	case "overlay":
		section = cfg.Overlay
	case "playback":
		section = cfg.Playback
	case "export":
		section = cfg.Export
	case "ui":
		section = cfg.UI
	case "log":
		section = cfg.Log
	default:
		return nil, fmt.Errorf("unknown config path: %s", path)
	}
	if len(parts) == 1 {
		return section, nil
	}

	// Round-trip through TOML so keys match the file format.
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(section); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", parts[0], err)
	}
	var fields map[string]interface{}
	if _, err := toml.Decode(buf.String(), &fields); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", parts[0], err)
	}
	v, ok := fields[parts[1]]
	if !ok {
		return nil, fmt.Errorf("unknown config path: %s", path)
	}
	return v, nil
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate checks every section and returns all problems found.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	t := cfg.Timeline
	if t.DefaultScale < viewport.MinScale || t.DefaultScale > viewport.MaxScale {
		add("timeline.default_scale: must be between %d and %d, got %v", viewport.MinScale, viewport.MaxScale, t.DefaultScale)
	}
	if t.PixelsPerCell < 1 || t.PixelsPerCell > 64 {
		add("timeline.pixels_per_cell: must be between 1 and 64, got %d", t.PixelsPerCell)
	}
	if t.WheelZoomStep <= 0 {
		add("timeline.wheel_zoom_step: must be positive, got %v", t.WheelZoomStep)
	}
	if t.ButtonZoomStep <= 0 {
		add("timeline.button_zoom_step: must be positive, got %v", t.ButtonZoomStep)
	}
	if t.HandleWidth <= 0 {
		add("timeline.handle_width: must be positive, got %v", t.HandleWidth)
	}

	o := cfg.Overlay
	if o.DefaultDuration < overlay.MinDuration {
		add("overlay.default_duration: must be at least %v, got %v", overlay.MinDuration, o.DefaultDuration)
	}
	if o.FontSize < overlay.MinFontSize || o.FontSize > overlay.MaxFontSize {
		add("overlay.font_size: must be between %d and %d, got %v", overlay.MinFontSize, overlay.MaxFontSize, o.FontSize)
	}
	if !hexColor.MatchString(o.Color) {
		add("overlay.color: must be a #rgb or #rrggbb colour, got %q", o.Color)
	}

	if cfg.Playback.TickFPS < 1 || cfg.Playback.TickFPS > 120 {
		add("playback.tick_fps: must be between 1 and 120, got %d", cfg.Playback.TickFPS)
	}
	if cfg.Playback.VolumeStep <= 0 || cfg.Playback.VolumeStep > 1 {
		add("playback.volume_step: must be in (0, 1], got %v", cfg.Playback.VolumeStep)
	}

	if cfg.Export.Width <= 0 || cfg.Export.Height <= 0 {
		add("export: width and height must be positive, got %dx%d", cfg.Export.Width, cfg.Export.Height)
	}

	switch strings.ToLower(cfg.UI.Theme) {
	case "", "auto", "mocha", "latte", "nord":
	default:
		add("ui.theme: must be one of mocha, latte, nord, auto, got %q", cfg.UI.Theme)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log.level: must be one of debug, info, warn, error, got %q", cfg.Log.Level)
	}

	return errs
}

// OverlayDefaults converts the [overlay] section for the overlay store.
func (c *Config) OverlayDefaults() overlay.Defaults {
	d := overlay.DefaultDefaults()
	d.Duration = c.Overlay.DefaultDuration
	d.Text = c.Overlay.DefaultText
	d.Style = overlay.Style{
		FontSize:   c.Overlay.FontSize,
		Color:      c.Overlay.Color,
		FontFamily: c.Overlay.FontFamily,
		FontWeight: c.Overlay.FontWeight,
	}
	return d
}

// SurfaceOptions converts the [timeline] section for the timeline surface.
func (c *Config) SurfaceOptions() surface.Options {
	return surface.Options{
		HandleWidth:    c.Timeline.HandleWidth,
		MinBlockWidth:  surface.DefaultOptions().MinBlockWidth,
		WheelZoomStep:  c.Timeline.WheelZoomStep,
		ButtonZoomStep: c.Timeline.ButtonZoomStep,
		SnapEnabled:    c.Timeline.SnapEnabled,
		FrameMode:      c.Timeline.FrameMode,
		Follow:         c.Timeline.FollowPlayhead,
	}
}

// ExportOptions converts the [export] section for the exporter.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Width:     c.Export.Width,
		Height:    c.Export.Height,
		OutputDir: ExpandHome(c.Export.OutputDir),
	}
}
