package panels

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/Dicklesworthstone/frametrack/internal/playback"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
)

// DefaultVolumeStep is the volume change per Up/Down press.
const DefaultVolumeStep = 0.1

func playerConfig() PanelConfig {
	return PanelConfig{
		ID:        "player",
		Title:     "Player",
		MinWidth:  30,
		MinHeight: 4,
	}
}

// PlayerPanel shows transport state and owns the volume shortcuts.
type PlayerPanel struct {
	PanelBase
	theme  theme.Theme
	player playback.Adapter
	step   float64
}

// NewPlayerPanel creates a player panel over p.
func NewPlayerPanel(p playback.Adapter, volumeStep float64) *PlayerPanel {
	if volumeStep <= 0 {
		volumeStep = DefaultVolumeStep
	}
	return &PlayerPanel{
		PanelBase: NewPanelBase(playerConfig()),
		theme:     theme.Current(),
		player:    p,
		step:      volumeStep,
	}
}

// Init implements tea.Model
func (m *PlayerPanel) Init() tea.Cmd { return nil }

// SetTheme swaps the palette.
func (m *PlayerPanel) SetTheme(t theme.Theme) { m.theme = t }

// SetVolumeStep changes the Up/Down increment.
func (m *PlayerPanel) SetVolumeStep(step float64) {
	if step > 0 {
		m.step = step
	}
}

// Update implements tea.Model
func (m *PlayerPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		m.HandleKey(km)
	}
	return m, nil
}

// HandleKey applies a volume shortcut and reports whether it was one.
func (m *PlayerPanel) HandleKey(msg tea.KeyMsg) bool {
	st := m.player.State()
	switch msg.String() {
	case "up":
		m.player.SetVolume(roundVolume(st.Volume + m.step))
	case "down":
		m.player.SetVolume(roundVolume(st.Volume - m.step))
	case "m":
		m.player.ToggleMute()
	default:
		return false
	}
	return true
}

// roundVolume drops float noise from repeated steps.
func roundVolume(v float64) float64 {
	return math.Round(v*100) / 100
}

// Keybindings returns the player shortcuts.
func (m *PlayerPanel) Keybindings() []Keybinding {
	return []Keybinding{
		{Key: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "volume")), Description: "Change volume", Action: "volume"},
		{Key: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")), Description: "Toggle mute", Action: "mute"},
	}
}

// View renders the panel
func (m *PlayerPanel) View() string {
	t := m.theme
	w := m.innerWidth()
	st := m.player.State()

	name := "no media"
	if st.Loaded {
		name = filepath.Base(st.URL)
	}
	lines := []string{m.header(t, truncate.StringWithTail(name, uint(max(0, w-len(m.Config().Title)-1)), "…"))}

	icon := lipgloss.NewStyle().Foreground(t.Overlay).Render("⏸")
	if st.Playing {
		icon = lipgloss.NewStyle().Foreground(t.Green).Render("▶")
	}
	clock := lipgloss.NewStyle().Foreground(t.Text).Bold(true).
		Render(timefmt.FormatTime(st.CurrentTime) + " / " + timefmt.FormatTime(st.Duration))

	vol := volumeBar(st.Volume, 10)
	volStyle := lipgloss.NewStyle().Foreground(t.Teal)
	label := fmt.Sprintf("%3.0f%%", st.Volume*100)
	if st.Muted {
		volStyle = lipgloss.NewStyle().Foreground(t.Overlay)
		label = "muted"
	}
	lines = append(lines, icon+" "+clock+"  "+volStyle.Render("vol "+vol+" "+label))

	return m.box(t).Render(FitToHeight(strings.Join(lines, "\n"), m.innerHeight()))
}

func volumeBar(v float64, cells int) string {
	filled := int(math.Round(v * float64(cells)))
	filled = max(0, min(cells, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}
