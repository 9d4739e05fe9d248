// Package panels contains the editor's Bubble Tea panels.
package panels

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
)

// Keybinding is a panel-specific shortcut shown in the help line.
type Keybinding struct {
	Key         key.Binding
	Description string
	Action      string
}

// PanelConfig describes a panel's identity and minimum size.
type PanelConfig struct {
	ID        string
	Title     string
	MinWidth  int
	MinHeight int
}

// Panel is a focusable Bubble Tea component with a size.
type Panel interface {
	tea.Model

	SetSize(width, height int)
	Focus()
	Blur()
	Config() PanelConfig
	Keybindings() []Keybinding
}

// PanelBase provides the common Panel plumbing. Embed it in concrete panels.
type PanelBase struct {
	config     PanelConfig
	width      int
	height     int
	focused    bool
	lastUpdate time.Time
}

// NewPanelBase creates a PanelBase with the given config.
func NewPanelBase(cfg PanelConfig) PanelBase {
	return PanelBase{config: cfg}
}

// SetSize implements Panel.SetSize
func (b *PanelBase) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Focus implements Panel.Focus
func (b *PanelBase) Focus() { b.focused = true }

// Blur implements Panel.Blur
func (b *PanelBase) Blur() { b.focused = false }

// Config implements Panel.Config
func (b *PanelBase) Config() PanelConfig { return b.config }

// Keybindings returns no bindings by default.
func (b *PanelBase) Keybindings() []Keybinding { return nil }

// IsFocused returns whether the panel is focused
func (b *PanelBase) IsFocused() bool { return b.focused }

// Width returns the current panel width
func (b *PanelBase) Width() int { return b.width }

// Height returns the current panel height
func (b *PanelBase) Height() int { return b.height }

// SetLastUpdate records when the panel's data last changed.
func (b *PanelBase) SetLastUpdate(t time.Time) { b.lastUpdate = t }

// LastUpdate returns the time recorded by SetLastUpdate.
func (b *PanelBase) LastUpdate() time.Time { return b.lastUpdate }

// box returns the bordered container style shared by all panels.
func (b *PanelBase) box(t theme.Theme) lipgloss.Style {
	border := t.Surface1
	if b.focused {
		border = t.Primary
	}
	w, h := b.width-2, b.height-2
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(w).
		Height(h).
		Padding(0, 1)
}

// header renders the panel title line.
func (b *PanelBase) header(t theme.Theme, extra string) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Lavender).Render(b.config.Title)
	if extra != "" {
		title += " " + lipgloss.NewStyle().Foreground(t.Subtext).Render(extra)
	}
	return title
}

// innerWidth is the number of content cells inside the border and padding.
func (b *PanelBase) innerWidth() int {
	if b.width < 4 {
		return 0
	}
	return b.width - 4
}

// innerHeight is the number of content rows inside the border.
func (b *PanelBase) innerHeight() int {
	if b.height < 2 {
		return 0
	}
	return b.height - 2
}

// PadToHeight pads content with empty lines up to targetHeight.
func PadToHeight(content string, targetHeight int) string {
	if targetHeight <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for len(lines) < targetHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// TruncateToHeight drops lines beyond targetHeight.
func TruncateToHeight(content string, targetHeight int) string {
	if targetHeight <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) <= targetHeight {
		return content
	}
	return strings.Join(lines[:targetHeight], "\n")
}

// FitToHeight truncates or pads content to exactly targetHeight lines.
func FitToHeight(content string, targetHeight int) string {
	if targetHeight <= 0 {
		return ""
	}
	return PadToHeight(TruncateToHeight(content, targetHeight), targetHeight)
}
