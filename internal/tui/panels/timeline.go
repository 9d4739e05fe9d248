package panels

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/frametrack/internal/drag"
	"github.com/Dicklesworthstone/frametrack/internal/events"
	"github.com/Dicklesworthstone/frametrack/internal/surface"
	"github.com/Dicklesworthstone/frametrack/internal/timefmt"
	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
	"github.com/Dicklesworthstone/frametrack/internal/util"
)

// Content rows inside the timeline border. Rows 1-2 are the ruler and rows
// 3-4 the overlay track.
const (
	rowHeader = iota
	rowRulerLabels
	rowRulerTicks
	rowTrackLabels
	rowTrackBar
	rowStatus

	timelineRows = rowStatus + 1
)

// DefaultPixelsPerCell maps one terminal column to timeline pixels.
const DefaultPixelsPerCell = 8

// wheelScrollCells is how far one plain wheel notch scrolls.
const wheelScrollCells = 4

func timelineConfig() PanelConfig {
	return PanelConfig{
		ID:        "timeline",
		Title:     "Timeline",
		MinWidth:  24,
		MinHeight: timelineRows + 2,
	}
}

// TimelinePanel draws the ruler, overlay track and playhead and turns mouse
// input into pointer and wheel events on the bus.
type TimelinePanel struct {
	PanelBase
	theme    theme.Theme
	surface  *surface.Surface
	bus      *events.EventBus
	ppc      float64
	selected string

	originX, originY int
	pressed          bool
}

// NewTimelinePanel creates a timeline panel over s. Input is published on bus.
func NewTimelinePanel(s *surface.Surface, bus *events.EventBus, pixelsPerCell int) *TimelinePanel {
	if pixelsPerCell <= 0 {
		pixelsPerCell = DefaultPixelsPerCell
	}
	return &TimelinePanel{
		PanelBase: NewPanelBase(timelineConfig()),
		theme:     theme.Current(),
		surface:   s,
		bus:       bus,
		ppc:       float64(pixelsPerCell),
	}
}

// Init implements tea.Model
func (m *TimelinePanel) Init() tea.Cmd { return nil }

// SetTheme swaps the palette.
func (m *TimelinePanel) SetTheme(t theme.Theme) { m.theme = t }

// SetSize lays the surface out to the panel's inner width.
func (m *TimelinePanel) SetSize(width, height int) {
	m.PanelBase.SetSize(width, height)
	m.surface.SetWidth(float64(m.innerWidth()) * m.ppc)
}

// SetOrigin records the panel's top-left screen cell for mouse mapping.
func (m *TimelinePanel) SetOrigin(x, y int) {
	m.originX, m.originY = x, y
}

// SetPixelsPerCell changes the column scale and re-lays the surface out.
func (m *TimelinePanel) SetPixelsPerCell(n int) {
	if n <= 0 {
		return
	}
	m.ppc = float64(n)
	m.surface.SetWidth(float64(m.innerWidth()) * m.ppc)
}

// SetSelected marks the overlay drawn as selected.
func (m *TimelinePanel) SetSelected(id string) { m.selected = id }

// Frame returns the snapshot the next View will draw.
func (m *TimelinePanel) Frame() surface.Frame { return m.surface.Frame(m.selected) }

// Update implements tea.Model
func (m *TimelinePanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if mm, ok := msg.(tea.MouseMsg); ok {
		m.HandleMouse(mm)
	}
	return m, nil
}

// HandleMouse publishes the pointer or wheel event for msg and reports
// whether the timeline took it.
func (m *TimelinePanel) HandleMouse(msg tea.MouseMsg) bool {
	x := m.pixelX(msg.X)
	row := m.rowAt(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if row == events.RowNone || !m.insideX(msg.X) {
				// The release of the gesture in progress was lost.
				m.CancelGesture()
				return false
			}
			m.pressed = true
			m.bus.Publish(events.NewPointerEvent(events.PointerDown, x, row))
			return true
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown,
			tea.MouseButtonWheelLeft, tea.MouseButtonWheelRight:
			if row == events.RowNone || !m.insideX(msg.X) {
				return false
			}
			m.bus.Publish(m.wheelEvent(msg, x, row))
			return true
		}
	case tea.MouseActionMotion:
		if !m.pressed {
			return false
		}
		m.bus.Publish(events.NewPointerEvent(events.PointerMove, x, row))
		return true
	case tea.MouseActionRelease:
		if !m.pressed {
			return false
		}
		m.pressed = false
		m.bus.Publish(events.NewPointerEvent(events.PointerUp, x, row))
		return true
	}
	return false
}

// CancelGesture aborts a press in progress, e.g. when focus moves away or a
// press lands outside the timeline before the release arrives.
func (m *TimelinePanel) CancelGesture() {
	if !m.pressed {
		return
	}
	m.pressed = false
	m.bus.Publish(events.NewPointerEvent(events.PointerCancel, 0, events.RowNone))
}

func (m *TimelinePanel) wheelEvent(msg tea.MouseMsg, x float64, row events.Row) events.WheelEvent {
	step := wheelScrollCells * m.ppc
	if msg.Ctrl {
		dy := 1.0
		if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelRight {
			dy = -1
		}
		return events.NewWheelEvent(0, dy, x, row, true)
	}
	dx := step
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelLeft {
		dx = -step
	}
	return events.NewWheelEvent(dx, 0, x, row, false)
}

func (m *TimelinePanel) contentOrigin() (int, int) {
	return m.originX + 2, m.originY + 1
}

func (m *TimelinePanel) pixelX(cellX int) float64 {
	cx, _ := m.contentOrigin()
	return float64(cellX-cx) * m.ppc
}

func (m *TimelinePanel) insideX(cellX int) bool {
	cx, _ := m.contentOrigin()
	return cellX >= cx && cellX < cx+m.innerWidth()
}

func (m *TimelinePanel) rowAt(y int) events.Row {
	_, cy := m.contentOrigin()
	switch y - cy {
	case rowRulerLabels, rowRulerTicks:
		return events.RowRuler
	case rowTrackLabels, rowTrackBar:
		return events.RowTrack
	}
	return events.RowNone
}

// Keybindings returns the timeline shortcuts.
func (m *TimelinePanel) Keybindings() []Keybinding {
	return []Keybinding{
		{Key: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")), Description: "Toggle playback", Action: "play_pause"},
		{Key: key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "step")), Description: "Step one frame or tenth", Action: "step"},
		{Key: key.NewBinding(key.WithKeys("home", "end"), key.WithHelp("home/end", "jump")), Description: "Jump to start or end", Action: "jump"},
		{Key: key.NewBinding(key.WithKeys("+", "=", "-"), key.WithHelp("+/-", "zoom")), Description: "Zoom timeline", Action: "zoom"},
		{Key: key.NewBinding(key.WithKeys("ctrl+s", "alt+s"), key.WithHelp("^s", "snap")), Description: "Toggle snapping", Action: "snap"},
		{Key: key.NewBinding(key.WithKeys("ctrl+f", "alt+f"), key.WithHelp("^f", "frames")), Description: "Toggle frame mode", Action: "frame_mode"},
	}
}

// View renders the panel
func (m *TimelinePanel) View() string {
	t := m.theme
	w := m.innerWidth()
	f := m.Frame()

	mode := "seconds"
	if f.FrameMode {
		mode = "frames"
	}
	lines := make([]string, timelineRows)
	lines[rowHeader] = m.header(t, fmt.Sprintf("%.0fpx/s · %s", f.Scale, mode))

	grid := newCellGrid(w, timelineRows)
	m.drawRuler(grid, f)
	m.drawTrack(grid, f)
	m.drawPlayhead(grid, f)
	styles := m.roleStyles()
	for r := rowRulerLabels; r <= rowTrackBar; r++ {
		lines[r] = grid.render(r, styles)
	}
	lines[rowStatus] = m.statusLine(f, w)

	return m.box(t).Render(FitToHeight(strings.Join(lines, "\n"), m.innerHeight()))
}

func (m *TimelinePanel) cell(px float64) int {
	return int(math.Floor(px / m.ppc))
}

func (m *TimelinePanel) drawRuler(g *cellGrid, f surface.Frame) {
	g.fill(rowRulerTicks, "─", roleTick)
	for _, x := range f.FrameTicks {
		g.set(rowRulerTicks, m.cell(x), "·", roleFrameTick)
	}

	labelEnd := -1
	for _, mk := range f.Markers {
		c := m.cell(mk.X)
		if !mk.Major {
			g.set(rowRulerTicks, c, "╵", roleTick)
			continue
		}
		g.set(rowRulerTicks, c, "│", roleTick)
		if c > labelEnd && c+runewidth.StringWidth(mk.Label) <= g.width {
			g.write(rowRulerLabels, c, mk.Label, roleLabel)
			labelEnd = c + runewidth.StringWidth(mk.Label)
		}
	}
}

func (m *TimelinePanel) drawTrack(g *cellGrid, f surface.Frame) {
	for _, x := range f.Guides {
		c := m.cell(x)
		g.set(rowTrackLabels, c, "┊", roleGuide)
		g.set(rowTrackBar, c, "┊", roleGuide)
	}

	lo, hi := -m.ppc, float64(g.width+1)*m.ppc
	clip := func(px float64) float64 {
		if math.IsNaN(px) {
			return lo
		}
		return math.Max(lo, math.Min(hi, px))
	}

	// Later blocks draw over earlier ones, matching hit-test order.
	for _, b := range f.Blocks {
		// Extents are clipped to one cell past either edge before they
		// become cell indices.
		first := m.cell(clip(b.X))
		last := int(math.Ceil(clip(b.X+b.Width)/m.ppc)) - 1
		if last < first {
			last = first
		}
		handle := m.cell(clip(b.X + b.Width - b.Handle))
		if handle < first {
			handle = first
		}
		if last < 0 || first >= g.width {
			continue
		}

		role := roleBlock
		switch {
		case b.Selected:
			role = roleBlockSelected
		case b.Active:
			role = roleBlockActive
		}

		for c := max(first, 0); c <= min(last, g.width-1); c++ {
			r := role
			ch := " "
			if c >= handle {
				r, ch = roleHandle, "▐"
			}
			g.set(rowTrackBar, c, "█", role)
			g.set(rowTrackLabels, c, ch, r)
		}

		labelCells := handle - first
		start := first
		if start < 0 {
			labelCells += start
			start = 0
		}
		if labelCells > 0 {
			g.write(rowTrackLabels, start, util.FitCells(b.Label, labelCells), role)
		}
	}
}

func (m *TimelinePanel) drawPlayhead(g *cellGrid, f surface.Frame) {
	if !f.PlayheadVisible {
		return
	}
	c := m.cell(f.PlayheadX)
	if c >= g.width {
		c = g.width - 1
	}
	g.set(rowRulerLabels, c, "▼", rolePlayhead)
	g.set(rowRulerTicks, c, "│", rolePlayhead)
	g.set(rowTrackLabels, c, "│", rolePlayhead)
	g.set(rowTrackBar, c, "│", rolePlayhead)
}

func (m *TimelinePanel) statusLine(f surface.Frame, width int) string {
	t := m.theme
	state := "⏸"
	if f.Playing {
		state = "▶"
	}
	parts := []string{
		state + " " + timefmt.FormatTime(f.CurrentTime) + " / " + timefmt.FormatTime(f.Duration),
		timefmt.FormatSeconds(f.VisibleStart) + "–" + timefmt.FormatSeconds(f.VisibleEnd),
	}
	if f.Snap {
		parts = append(parts, "snap")
	}
	if f.DragState != drag.Idle {
		parts = append(parts, f.DragState.String())
	}
	line := util.FitCells(strings.Join(parts, "  "), width)
	return lipgloss.NewStyle().Foreground(t.Subtext).Render(strings.TrimRight(line, " "))
}

// cellRole selects the style of a grid cell.
type cellRole int

const (
	roleNone cellRole = iota
	roleTick
	roleFrameTick
	roleLabel
	roleGuide
	roleBlock
	roleBlockSelected
	roleBlockActive
	roleHandle
	rolePlayhead
)

func (m *TimelinePanel) roleStyles() map[cellRole]lipgloss.Style {
	t := m.theme
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return map[cellRole]lipgloss.Style{
		roleNone:          lipgloss.NewStyle(),
		roleTick:          fg(t.Surface2),
		roleFrameTick:     fg(t.Overlay),
		roleLabel:         fg(t.Subtext),
		roleGuide:         fg(t.Yellow),
		roleBlock:         fg(t.Blue),
		roleBlockSelected: fg(t.Mauve).Bold(true),
		roleBlockActive:   fg(t.Green),
		roleHandle:        fg(t.Peach),
		rolePlayhead:      fg(t.Red).Bold(true),
	}
}

// cellGrid is a fixed-width grid of terminal cells. A wide rune occupies its
// cell and leaves an empty continuation cell to its right.
type cellGrid struct {
	width int
	text  [][]string
	roles [][]cellRole
}

func newCellGrid(width, rows int) *cellGrid {
	if width < 0 {
		width = 0
	}
	g := &cellGrid{width: width, text: make([][]string, rows), roles: make([][]cellRole, rows)}
	for r := range g.text {
		g.text[r] = make([]string, width)
		g.roles[r] = make([]cellRole, width)
		for c := range g.text[r] {
			g.text[r][c] = " "
		}
	}
	return g
}

func (g *cellGrid) fill(row int, s string, role cellRole) {
	for c := 0; c < g.width; c++ {
		g.set(row, c, s, role)
	}
}

// set writes a single-cell string at (row, c). Out-of-range cells are dropped.
func (g *cellGrid) set(row, c int, s string, role cellRole) {
	if c < 0 || c >= g.width {
		return
	}
	line := g.text[row]
	if line[c] == "" && c > 0 {
		line[c-1] = " "
	}
	if c+1 < g.width && line[c+1] == "" && runewidth.StringWidth(line[c]) == 2 {
		line[c+1] = " "
	}
	line[c] = s
	g.roles[row][c] = role
}

// write lays s out from cell c, honouring wide runes.
func (g *cellGrid) write(row, c int, s string, role cellRole) {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if c+w > g.width {
			return
		}
		g.set(row, c, string(r), role)
		if w == 2 {
			g.text[row][c+1] = ""
			g.roles[row][c+1] = role
		}
		c += w
	}
}

// render joins a row, styling each run of equal roles once.
func (g *cellGrid) render(row int, styles map[cellRole]lipgloss.Style) string {
	var out, run strings.Builder
	cur := roleNone
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(styles[cur].Render(run.String()))
		run.Reset()
	}
	for c := 0; c < g.width; c++ {
		if role := g.roles[row][c]; role != cur {
			flush()
			cur = role
		}
		run.WriteString(g.text[row][c])
	}
	flush()
	return out.String()
}

// KeyEventFromTea converts a key press into the timeline's key event.
func KeyEventFromTea(msg tea.KeyMsg, inTextField bool) events.KeyEvent {
	name, ctrl := msg.String(), false
	switch msg.Type {
	case tea.KeySpace:
		name = events.KeySpace
	case tea.KeyLeft:
		name = events.KeyLeft
	case tea.KeyRight:
		name = events.KeyRight
	case tea.KeyHome:
		name = events.KeyHome
	case tea.KeyEnd:
		name = events.KeyEnd
	case tea.KeyCtrlS:
		name, ctrl = "s", true
	case tea.KeyCtrlF:
		name, ctrl = "f", true
	case tea.KeyRunes:
		name = string(msg.Runes)
		if name == " " {
			name = events.KeySpace
		}
	}
	return events.NewKeyEvent(name, ctrl, msg.Alt, inTextField)
}
