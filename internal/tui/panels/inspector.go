package panels

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
)

// Inspector field indices, in tab order.
const (
	FieldText = iota
	FieldStart
	FieldDuration
	FieldFontSize
	FieldColor
	FieldX
	FieldY

	fieldCount
)

var fieldLabels = [fieldCount]string{
	FieldText:     "Text",
	FieldStart:    "Start (s)",
	FieldDuration: "Duration (s)",
	FieldFontSize: "Font size",
	FieldColor:    "Colour",
	FieldX:        "X (%)",
	FieldY:        "Y (%)",
}

// OverlayPatchMsg asks the editor to apply a patch to an overlay.
type OverlayPatchMsg struct {
	ID    string
	Patch overlay.Patch
}

func inspectorConfig() PanelConfig {
	return PanelConfig{
		ID:        "inspector",
		Title:     "Overlay",
		MinWidth:  28,
		MinHeight: fieldCount + 3,
	}
}

// InspectorPanel edits the selected overlay's fields. Enter commits the
// focused field; Tab and Shift+Tab move between fields.
type InspectorPanel struct {
	PanelBase
	theme  theme.Theme
	id     string
	inputs [fieldCount]textinput.Model
	cursor int
}

// NewInspectorPanel creates an empty inspector.
func NewInspectorPanel() *InspectorPanel {
	m := &InspectorPanel{
		PanelBase: NewPanelBase(inspectorConfig()),
		theme:     theme.Current(),
	}
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 12
		m.inputs[i] = in
	}
	m.inputs[FieldText].CharLimit = 200
	m.inputs[FieldText].Placeholder = "Enter overlay text..."
	m.inputs[FieldColor].CharLimit = 9
	return m
}

// Init implements tea.Model
func (m *InspectorPanel) Init() tea.Cmd { return nil }

// SetTheme swaps the palette.
func (m *InspectorPanel) SetTheme(t theme.Theme) { m.theme = t }

// OverlayID returns the overlay being inspected, or "".
func (m *InspectorPanel) OverlayID() string { return m.id }

// Cursor returns the focused field index.
func (m *InspectorPanel) Cursor() int { return m.cursor }

// Value returns the raw text of a field.
func (m *InspectorPanel) Value(field int) string { return m.inputs[field].Value() }

// Load shows o in the form. When o is the overlay already shown, the field
// being edited keeps its uncommitted text.
func (m *InspectorPanel) Load(o overlay.TextOverlay, ok bool) {
	if !ok {
		m.id = ""
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		m.Blur()
		return
	}
	same := o.ID == m.id
	m.id = o.ID
	values := [fieldCount]string{
		FieldText:     o.Text,
		FieldStart:    strconv.FormatFloat(o.StartTime, 'f', 1, 64),
		FieldDuration: strconv.FormatFloat(o.Duration, 'f', 1, 64),
		FieldFontSize: strconv.FormatFloat(o.Style.FontSize, 'f', -1, 64),
		FieldColor:    o.Style.Color,
		FieldX:        strconv.FormatFloat(o.Position.X, 'f', -1, 64),
		FieldY:        strconv.FormatFloat(o.Position.Y, 'f', -1, 64),
	}
	for i, v := range values {
		if same && m.IsFocused() && i == m.cursor {
			continue
		}
		m.inputs[i].SetValue(v)
	}
}

// Focus focuses the form; it only takes focus while an overlay is loaded.
func (m *InspectorPanel) Focus() {
	if m.id == "" {
		return
	}
	m.PanelBase.Focus()
	m.inputs[m.cursor].Focus()
}

// Blur implements Panel.Blur
func (m *InspectorPanel) Blur() {
	m.PanelBase.Blur()
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *InspectorPanel) move(delta int) {
	m.inputs[m.cursor].Blur()
	m.cursor = (m.cursor + delta + fieldCount) % fieldCount
	m.inputs[m.cursor].Focus()
	m.inputs[m.cursor].CursorEnd()
}

// Update implements tea.Model
func (m *InspectorPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.IsFocused() || m.id == "" {
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			m.move(1)
			return m, nil
		case "shift+tab", "up":
			m.move(-1)
			return m, nil
		case "enter":
			return m, m.commit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
	return m, cmd
}

// commit parses the focused field into a patch command.
func (m *InspectorPanel) commit() tea.Cmd {
	p, ok := ParseField(m.cursor, m.inputs[m.cursor].Value())
	if !ok {
		return nil
	}
	id := m.id
	return func() tea.Msg { return OverlayPatchMsg{ID: id, Patch: p} }
}

// ParseField turns raw field text into a patch. Unparseable numbers fall back
// to 0 for start and position and to the minimum for duration. An
// unparseable font size or an empty colour produces no patch.
func ParseField(field int, raw string) (overlay.Patch, bool) {
	raw = strings.TrimSpace(raw)
	switch field {
	case FieldText:
		return overlay.Patch{Text: overlay.Ptr(raw)}, true
	case FieldStart:
		v, _ := parseSeconds(raw)
		return overlay.Patch{StartTime: overlay.Ptr(v)}, true
	case FieldDuration:
		v, ok := parseSeconds(raw)
		if !ok || v == 0 {
			v = overlay.MinDuration
		}
		return overlay.Patch{Duration: overlay.Ptr(v)}, true
	case FieldFontSize:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return overlay.Patch{}, false
		}
		return overlay.Patch{FontSize: overlay.Ptr(v)}, true
	case FieldColor:
		if raw == "" {
			return overlay.Patch{}, false
		}
		if !strings.HasPrefix(raw, "#") {
			raw = "#" + raw
		}
		return overlay.Patch{Color: overlay.Ptr(strings.ToLower(raw))}, true
	case FieldX, FieldY:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v = 0
		}
		if field == FieldX {
			return overlay.Patch{X: overlay.Ptr(v)}, true
		}
		return overlay.Patch{Y: overlay.Ptr(v)}, true
	}
	return overlay.Patch{}, false
}

// parseSeconds accepts plain seconds or a HH:MM:SS:FF timecode.
func parseSeconds(s string) (float64, bool) {
	if strings.Contains(s, ":") {
		return timefmt.ParseTime(s), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Keybindings returns the form shortcuts.
func (m *InspectorPanel) Keybindings() []Keybinding {
	return []Keybinding{
		{Key: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "field")), Description: "Next or previous field", Action: "field"},
		{Key: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")), Description: "Apply the field", Action: "apply"},
		{Key: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")), Description: "Leave the form", Action: "leave"},
	}
}

// View renders the panel
func (m *InspectorPanel) View() string {
	t := m.theme
	w := m.innerWidth()

	var b strings.Builder
	b.WriteString(m.header(t, "") + "\n")

	if m.id == "" {
		hint := lipgloss.NewStyle().Foreground(t.Overlay).Italic(true)
		b.WriteString(hint.Render(wordwrap.String("Select an overlay to edit its properties, or press a to add one.", w)))
		return m.box(t).Render(FitToHeight(b.String(), m.innerHeight()))
	}

	labelWidth := 13
	label := lipgloss.NewStyle().Foreground(t.Subtext).Width(labelWidth)
	active := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Width(labelWidth)
	for i := range m.inputs {
		in := m.inputs[i]
		in.Width = w - labelWidth - 1
		if in.Width < 1 {
			in.Width = 1
		}
		ls := label
		if m.IsFocused() && i == m.cursor {
			ls = active
		}
		line := ls.Render(fieldLabels[i]) + " " + in.View()
		if i == FieldColor {
			line += " " + lipgloss.NewStyle().Foreground(lipgloss.Color(in.Value())).Render("■")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(t.Overlay).Render(fmt.Sprintf("id %s", m.id)))

	return m.box(t).Render(FitToHeight(b.String(), m.innerHeight()))
}
