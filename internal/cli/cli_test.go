package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Dicklesworthstone/frametrack/internal/media"
)

// resetFlags restores every flag in the tree to its default so commands can
// be executed repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args in an isolated config environment.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if os.Getenv("FRAMETRACK_CONFIG") == "" {
		t.Setenv("FRAMETRACK_CONFIG", filepath.Join(dir, "config.toml"))
	}
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv("NO_COLOR", "1")

	resetFlags(rootCmd)
	cfgFile, logLevel, noColor, jsonOutput = "", "", false, false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	t.Logf("CLI_TEST: frametrack %s\n%s", strings.Join(args, " "), buf.String())
	return buf.String(), err
}

func TestTimecodeFormat(t *testing.T) {
	out, err := run(t, "timecode", "format", "1.5", "3661", "12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "00:01:15\n01:01:01:00\n00:12:00\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}

	if _, err := run(t, "timecode", "format", "soon"); err == nil {
		t.Error("non-numeric seconds should fail")
	}
}

func TestTimecodeParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short form", []string{"00:01:15"}, "1.5\n"},
		{"with hours", []string{"01:00:00:00"}, "3600\n"},
		{"malformed is zero", []string{"1:2"}, "0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"timecode", "parse"}, tt.args...)...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestTimecodeJSON(t *testing.T) {
	out, err := run(t, "--json", "timecode", "format", "60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []Conversion
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].Timecode != "01:00:00" || got[0].Seconds != 60 {
		t.Errorf("unexpected conversion: %+v", got)
	}
}

func TestRulerJSON(t *testing.T) {
	out, err := run(t, "ruler", "--duration", "12", "--scale", "50", "--width", "80", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report RulerReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if report.Density.Interval != 5 || report.Density.Major != 10 {
		t.Errorf("unexpected density %+v", report.Density)
	}
	if report.End != 12 {
		t.Errorf("visible range should stop at the duration, got %v", report.End)
	}
	var times []float64
	for _, m := range report.Markers {
		times = append(times, m.Time)
	}
	if len(times) != 3 || times[0] != 0 || times[1] != 5 || times[2] != 10 {
		t.Errorf("unexpected markers %v", times)
	}
}

func TestRulerText(t *testing.T) {
	out, err := run(t, "ruler", "--duration", "12", "--scale", "50", "--width", "80")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "00:00:00") || !strings.Contains(lines[0], "00:10:00") {
		t.Errorf("label line missing major labels: %q", lines[0])
	}
	if len([]rune(lines[1])) != 80 || lines[1][0] != '|' {
		t.Errorf("tick line should span the width and start with a major tick: %q", lines[1])
	}
	if !strings.Contains(out, "3 ticks") || !strings.Contains(out, "50px/s") {
		t.Errorf("summary missing: %q", out)
	}
}

func TestRulerClampsScale(t *testing.T) {
	out, err := run(t, "--json", "ruler", "--duration", "30", "--scale", "1000", "--width", "40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report RulerReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if report.Scale != 200 {
		t.Errorf("scale should clamp to 200, got %v", report.Scale)
	}
}

func TestRulerRequiresDuration(t *testing.T) {
	if _, err := run(t, "ruler"); err == nil {
		t.Error("ruler without --duration should fail")
	}
	if _, err := run(t, "ruler", "--duration", "5", "--format", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestVersionShort(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != Version+"\n" {
		t.Errorf("got %q", out)
	}
}

func TestConfigPathAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv("FRAMETRACK_CONFIG", path)

	out, err := run(t, "config", "path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("got %q, want %q", out, path)
	}

	out, err = run(t, "config", "get", "timeline.pixels_per_cell")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "8" {
		t.Errorf("got %q, want 8", out)
	}

	if _, err := run(t, "config", "get", "timeline.nope"); err == nil {
		t.Error("unknown key should fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frametrack", "config.toml")
	t.Setenv("FRAMETRACK_CONFIG", path)

	if _, err := run(t, "config", "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := run(t, "config", "init"); err == nil {
		t.Error("init must not overwrite an existing file")
	}

	out, err := run(t, "config", "validate")
	if err != nil || !strings.Contains(out, "ok") {
		t.Errorf("default config should validate, err=%v out=%q", err, out)
	}

	if err := os.WriteFile(path, []byte("[timeline]\ndefault_scale = 500\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "config", "validate")
	if err == nil {
		t.Fatal("out-of-range scale should fail validation")
	}
	if !strings.Contains(out, "timeline.default_scale") {
		t.Errorf("problem not reported: %q", out)
	}
}

func TestConfigShowYAML(t *testing.T) {
	out, err := run(t, "config", "show", "--format", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "pixels_per_cell: 8") {
		t.Errorf("yaml output missing timeline settings: %q", out)
	}
}

func TestLogLevelFlag(t *testing.T) {
	if _, err := run(t, "--log-level", "debug", "version", "--short"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("flag should override config, got %q", cfg.Log.Level)
	}
}

func TestProbeReportsFailures(t *testing.T) {
	t.Setenv("FRAMETRACK_FFPROBE", filepath.Join(t.TempDir(), "missing-ffprobe"))
	out, err := run(t, "probe", "--format", "json", "a.mp4", "b.mp4")
	if err != nil {
		t.Fatalf("per-file failures must not fail the command: %v", err)
	}
	var results []media.ProbeResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(results) != 2 || results[0].Path != "a.mp4" || results[1].Path != "b.mp4" {
		t.Fatalf("results should keep input order: %+v", results)
	}
	for _, r := range results {
		if r.Error == "" {
			t.Errorf("%s: expected an error", r.Path)
		}
	}
}

func TestEditRequiresTerminal(t *testing.T) {
	if isInteractive() {
		t.Skip("stdout is a terminal")
	}
	_, err := run(t, "edit", "clip.mp4", "--duration", "10")
	if err == nil || !strings.Contains(err.Error(), "interactive terminal") {
		t.Errorf("expected terminal error, got %v", err)
	}
}

func TestResolveDuration(t *testing.T) {
	tool := media.New("ffmpeg", filepath.Join(t.TempDir(), "missing-ffprobe"))

	d, err := resolveDuration(context.Background(), tool, "anything.mp4", 42)
	if err != nil || d != 42 {
		t.Errorf("explicit duration should win, got %v %v", d, err)
	}

	if _, err := resolveDuration(context.Background(), tool, filepath.Join(t.TempDir(), "gone.mp4"), 0); err == nil {
		t.Error("missing file should fail")
	}

	video := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(video, []byte("not really"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = resolveDuration(context.Background(), tool, video, 0)
	if err == nil || !strings.Contains(err.Error(), "--duration") {
		t.Errorf("probe failure should suggest --duration, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARN":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"verbose": "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
