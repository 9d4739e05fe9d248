package panels

import (
	"math"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
)

func previewConfig() PanelConfig {
	return PanelConfig{
		ID:        "preview",
		Title:     "Preview",
		MinWidth:  20,
		MinHeight: 5,
	}
}

// PreviewPanel sketches the video frame with the overlays active at the
// current time placed at their percentage positions.
type PreviewPanel struct {
	PanelBase
	theme    theme.Theme
	active   []overlay.TextOverlay
	selected string
	at       float64
}

// NewPreviewPanel creates an empty preview.
func NewPreviewPanel() *PreviewPanel {
	return &PreviewPanel{
		PanelBase: NewPanelBase(previewConfig()),
		theme:     theme.Current(),
	}
}

// Init implements tea.Model
func (m *PreviewPanel) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m *PreviewPanel) Update(tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

// SetTheme swaps the palette.
func (m *PreviewPanel) SetTheme(t theme.Theme) { m.theme = t }

// SetActive replaces the overlays shown, in draw order.
func (m *PreviewPanel) SetActive(at float64, active []overlay.TextOverlay, selected string) {
	m.at = at
	m.active = active
	m.selected = selected
}

// Active returns the overlays currently shown.
func (m *PreviewPanel) Active() []overlay.TextOverlay { return m.active }

// View renders the panel
func (m *PreviewPanel) View() string {
	t := m.theme
	w, h := m.innerWidth(), m.innerHeight()-1
	if h < 1 {
		return m.box(t).Render(m.header(t, ""))
	}

	g := newCellGrid(w, h)
	styles := map[cellRole]lipgloss.Style{roleNone: lipgloss.NewStyle()}
	for i, o := range m.active {
		role := cellRole(int(rolePlayhead) + 1 + i)
		st := lipgloss.NewStyle().Foreground(lipgloss.Color(o.Style.Color))
		if o.ID == m.selected {
			st = st.Underline(true)
		}
		if boldWeight(o.Style.FontWeight) {
			st = st.Bold(true)
		}
		styles[role] = st

		text := runewidth.Truncate(strings.ReplaceAll(o.Text, "\n", " "), w, "…")
		tw := runewidth.StringWidth(text)
		row := int(math.Round(o.Position.Y / 100 * float64(h-1)))
		col := int(math.Round(o.Position.X/100*float64(w))) - tw/2
		col = max(0, min(w-tw, col))
		g.write(row, col, text, role)
	}

	lines := []string{m.header(t, timefmt.FormatTime(m.at))}
	for r := 0; r < h; r++ {
		lines = append(lines, g.render(r, styles))
	}
	return m.box(t).Render(FitToHeight(strings.Join(lines, "\n"), m.innerHeight()))
}

func boldWeight(w string) bool {
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}
