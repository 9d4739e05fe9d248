// Package editor is the root Bubble Tea model of the overlay editor. It owns
// the overlay store, the player, the timeline surface and the panels, and
// wires them together through the input event bus.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/frametrack/internal/config"
	"github.com/Dicklesworthstone/frametrack/internal/events"
	"github.com/Dicklesworthstone/frametrack/internal/overlay"
	"github.com/Dicklesworthstone/frametrack/internal/playback"
	"github.com/Dicklesworthstone/frametrack/internal/surface"
	"github.com/Dicklesworthstone/frametrack/internal/tui/panels"
	"github.com/Dicklesworthstone/frametrack/internal/tui/theme"
	"github.com/Dicklesworthstone/frametrack/internal/viewport"
)

const (
	toastDuration = 3 * time.Second
	exportTimeout = 30 * time.Second
	playerHeight  = 4
	minMidHeight  = 3
)

// Toast messages.
const (
	ToastAdded        = "Text overlay added"
	ToastDeleted      = "Overlay deleted"
	ToastExported     = "Frame exported"
	ToastExportFailed = "Export failed"
)

// FrameExporter writes a still of the video with overlays burned in.
type FrameExporter interface {
	Export(ctx context.Context, videoPath string, at float64, overlays []overlay.TextOverlay) (string, error)
}

// ConfigReloadedMsg carries a freshly loaded config into the program.
type ConfigReloadedMsg struct {
	Config *config.Config
}

type tickMsg time.Time

type toastExpiredMsg struct{ id int }

type exportDoneMsg struct {
	path string
	err  error
}

type toast struct {
	id    int
	text  string
	isErr bool
}

type focusArea int

const (
	focusTimeline focusArea = iota
	focusInspector
)

// Model is the editor's root tea.Model.
type Model struct {
	cfg       *config.Config
	videoPath string

	store    *overlay.Store
	player   playback.Adapter
	vp       *viewport.Model
	surface  *surface.Surface
	bus      *events.EventBus
	release  func()
	untrace  events.UnsubscribeFunc
	exporter FrameExporter

	timeline  *panels.TimelinePanel
	inspector *panels.InspectorPanel
	transport *panels.PlayerPanel
	preview   *panels.PreviewPanel

	theme    theme.Theme
	selected string
	focus    focusArea
	toast    *toast
	toastSeq int
	ticking  bool

	width, height int
	midHeight     int
	previewWidth  int
}

// New builds an editor for videoPath. player must already be loaded; a nil
// exporter disables frame export.
func New(cfg *config.Config, videoPath string, player playback.Adapter, exporter FrameExporter) *Model {
	if cfg == nil {
		cfg = config.Default()
	}
	st := player.State()

	od := cfg.OverlayDefaults()
	m := &Model{
		cfg:       cfg,
		videoPath: videoPath,
		store:     overlay.NewStore(&od),
		player:    player,
		vp:        viewport.New(st.Duration),
		bus:       events.NewEventBus(),
		exporter:  exporter,
		theme:     theme.Set(cfg.UI.Theme),
	}
	m.vp.SetScale(cfg.Timeline.DefaultScale)

	opts := cfg.SurfaceOptions()
	m.surface = surface.New(m.vp, m.store, surface.Handlers{
		OnSeek: func(t float64) {
			m.player.Seek(t)
			m.sync()
		},
		OnOverlayMove:   func(id string, start float64) { m.store.Move(id, start) },
		OnOverlayResize: func(id string, d float64) { m.store.Resize(id, d) },
		OnOverlaySelect: m.selectOverlay,
		OnPlayPause:     m.togglePlay,
	}, &opts)
	m.release = m.surface.Attach(m.bus)
	m.untrace = m.bus.SubscribeAll(traceInput)

	m.timeline = panels.NewTimelinePanel(m.surface, m.bus, cfg.Timeline.PixelsPerCell)
	m.inspector = panels.NewInspectorPanel()
	m.transport = panels.NewPlayerPanel(player, cfg.Playback.VolumeStep)
	m.preview = panels.NewPreviewPanel()
	m.timeline.Focus()

	m.store.Subscribe(m.onOverlayChange)
	m.sync()
	return m
}

// Store exposes the overlay store.
func (m *Model) Store() *overlay.Store { return m.store }

// Surface exposes the timeline surface.
func (m *Model) Surface() *surface.Surface { return m.surface }

// Selected returns the selected overlay id, or "".
func (m *Model) Selected() string { return m.selected }

// Toast returns the visible notification text, or "".
func (m *Model) Toast() string {
	if m.toast == nil {
		return ""
	}
	return m.toast.text
}

// Close releases the surface's listeners and the input trace.
func (m *Model) Close() {
	if m.release != nil {
		m.release()
		m.release = nil
	}
	if m.untrace != nil {
		m.untrace()
		m.untrace = nil
	}
	m.surface.Close()
	for _, typ := range []string{events.TypeKey, events.TypePointer, events.TypeWheel} {
		if n := m.bus.SubscriberCount(typ); n > 0 {
			slog.Default().Warn("input listeners left after close", "event_type", typ, "count", n)
		}
	}
}

// traceInput logs every event published on the input bus at debug level.
func traceInput(e events.BusEvent) {
	log := slog.Default()
	switch ev := e.(type) {
	case events.KeyEvent:
		log.Debug("timeline input", "event_type", ev.EventType(), "key", ev.Key, "in_text_field", ev.InTextField)
	case events.PointerEvent:
		log.Debug("timeline input", "event_type", ev.EventType(), "action", ev.Action.String(), "x", ev.X, "row", int(ev.Row))
	case events.WheelEvent:
		log.Debug("timeline input", "event_type", ev.EventType(), "dx", ev.DeltaX, "dy", ev.DeltaY, "ctrl", ev.Ctrl)
	default:
		log.Debug("timeline input", "event_type", e.EventType())
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Close()
			return m, tea.Quit
		}
		if m.focus == focusInspector {
			cmds = append(cmds, m.updateInspector(msg))
		} else {
			cmd, quit := m.handleKey(msg)
			if quit {
				m.Close()
				return m, tea.Quit
			}
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tickMsg:
		m.sync()
		if !m.player.State().Playing {
			m.ticking = false
			return m, nil
		}
		return m, m.tick()

	case panels.OverlayPatchMsg:
		m.store.Update(msg.ID, msg.Patch)

	case exportDoneMsg:
		if msg.err != nil {
			slog.Default().Warn("frame export failed", "video", m.videoPath, "error", msg.err)
			cmds = append(cmds, m.notify(ToastExportFailed, true))
		} else {
			cmds = append(cmds, m.notify(ToastExported+": "+msg.path, false))
		}

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
	}

	cmds = append(cmds, m.ensureTicking())
	return m, tea.Batch(cmds...)
}

// handleKey runs editor shortcuts, then player shortcuts, and hands the rest
// to the timeline via the bus.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return nil, true
	case "a":
		id := m.store.Add(m.player.State().CurrentTime)
		m.selectOverlay(id)
		return m.notify(ToastAdded, false), false
	case "d", "delete", "backspace":
		if m.selected == "" {
			return nil, false
		}
		m.store.Delete(m.selected)
		return m.notify(ToastDeleted, false), false
	case "x":
		return m.export(), false
	case "n":
		if id := m.store.Next(m.selected); id != "" {
			m.selectOverlay(id)
		}
		return nil, false
	case "esc":
		m.selectOverlay("")
		return nil, false
	case "tab", "enter":
		m.setFocus(focusInspector)
		return nil, false
	}

	if m.transport.HandleKey(msg) {
		return nil, false
	}
	m.bus.Publish(panels.KeyEventFromTea(msg, false))
	return nil, false
}

func (m *Model) updateInspector(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "esc" {
		m.setFocus(focusTimeline)
		return nil
	}
	// The timeline still sees the key but ignores it inside a text field.
	m.bus.Publish(panels.KeyEventFromTea(msg, true))
	_, cmd := m.inspector.Update(msg)
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.timeline.HandleMouse(msg) {
		if msg.Action == tea.MouseActionPress && m.focus != focusTimeline {
			m.setFocus(focusTimeline)
		}
		return
	}
	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft &&
		msg.Y >= playerHeight && msg.Y < playerHeight+m.midHeight && msg.X >= m.previewWidth {
		m.setFocus(focusInspector)
	}
}

func (m *Model) setFocus(f focusArea) {
	if f == focusInspector && m.selected == "" {
		return
	}
	m.focus = f
	if f == focusInspector {
		m.timeline.CancelGesture()
		m.timeline.Blur()
		m.inspector.Focus()
		return
	}
	m.inspector.Blur()
	m.timeline.Focus()
}

// InTextField reports whether keys currently go to an inspector field.
func (m *Model) InTextField() bool { return m.focus == focusInspector }

func (m *Model) selectOverlay(id string) {
	if id != "" {
		if _, ok := m.store.Get(id); !ok {
			id = ""
		}
	}
	m.selected = id
	m.timeline.SetSelected(id)
	o, ok := m.store.Get(id)
	m.inspector.Load(o, ok)
	if !ok && m.focus == focusInspector {
		m.setFocus(focusTimeline)
	}
	m.refreshPreview()
}

func (m *Model) onOverlayChange(c overlay.Change) {
	if c.ID == m.selected {
		if c.Kind == overlay.ChangeDeleted {
			m.selectOverlay("")
			return
		}
		o, ok := m.store.Get(c.ID)
		m.inspector.Load(o, ok)
	}
	m.refreshPreview()
}

func (m *Model) togglePlay() {
	if m.player.State().Playing {
		m.player.Pause()
	} else {
		m.player.Play()
	}
	m.sync()
}

// sync pushes the player's state into the surface and preview.
func (m *Model) sync() {
	st := m.player.State()
	m.surface.Sync(st.CurrentTime, st.Duration, st.Playing)
	m.refreshPreview()
}

func (m *Model) refreshPreview() {
	t := m.surface.CurrentTime()
	m.preview.SetActive(t, m.store.ActiveAt(t), m.selected)
}

// ensureTicking starts the refresh chain when playback has started.
func (m *Model) ensureTicking() tea.Cmd {
	if m.ticking || !m.player.State().Playing {
		return nil
	}
	m.ticking = true
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	fps := m.cfg.Playback.TickFPS
	if fps <= 0 {
		fps = 30
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) notify(text string, isErr bool) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &toast{id: id, text: text, isErr: isErr}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// export snapshots the overlays active now and renders them off the update
// loop.
func (m *Model) export() tea.Cmd {
	if m.exporter == nil {
		return m.notify(ToastExportFailed, true)
	}
	at := m.player.State().CurrentTime
	active := m.store.ActiveAt(at)
	exp, video := m.exporter, m.videoPath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		path, err := exp.Export(ctx, video, at, active)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	m.surface.SetOptions(cfg.SurfaceOptions())
	m.store.SetDefaults(cfg.OverlayDefaults())
	m.transport.SetVolumeStep(cfg.Playback.VolumeStep)
	m.timeline.SetPixelsPerCell(cfg.Timeline.PixelsPerCell)

	m.theme = theme.Set(cfg.UI.Theme)
	m.timeline.SetTheme(m.theme)
	m.inspector.SetTheme(m.theme)
	m.transport.SetTheme(m.theme)
	m.preview.SetTheme(m.theme)
	slog.Default().Info("config reloaded", "theme", m.theme.Name, "snap", cfg.Timeline.SnapEnabled)
}

// layout stacks player, preview/inspector and timeline top to bottom.
func (m *Model) layout(width, height int) {
	m.width, m.height = width, height
	timelineHeight := m.timeline.Config().MinHeight

	m.midHeight = max(minMidHeight, height-playerHeight-timelineHeight-1)
	m.previewWidth = width * 3 / 5
	m.transport.SetSize(width, playerHeight)
	m.preview.SetSize(m.previewWidth, m.midHeight)
	m.inspector.SetSize(width-m.previewWidth, m.midHeight)
	m.timeline.SetSize(width, timelineHeight)
	m.timeline.SetOrigin(0, playerHeight+m.midHeight)
}

// View implements tea.Model
func (m *Model) View() string {
	if m.width == 0 {
		return "loading…"
	}
	mid := lipgloss.JoinHorizontal(lipgloss.Top, m.preview.View(), m.inspector.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.transport.View(),
		mid,
		m.timeline.View(),
		m.footer(),
	)
}

var editorBindings = []key.Binding{
	key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit")),
	key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
	key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

func (m *Model) footer() string {
	t := m.theme
	var bindings []key.Binding
	if m.focus == focusInspector {
		for _, kb := range m.inspector.Keybindings() {
			bindings = append(bindings, kb.Key)
		}
	} else {
		bindings = append(bindings, editorBindings...)
		for _, kb := range m.timeline.Keybindings() {
			bindings = append(bindings, kb.Key)
		}
		for _, kb := range m.transport.Keybindings() {
			bindings = append(bindings, kb.Key)
		}
	}

	keyStyle := lipgloss.NewStyle().Foreground(t.Lavender)
	descStyle := lipgloss.NewStyle().Foreground(t.Overlay)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Desc))
	}
	help := strings.Join(parts, "  ")

	if m.toast == nil {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(help)
	}
	color := t.Green
	if m.toast.isErr {
		color = t.Red
	}
	note := lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("● %s", m.toast.text))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(note + "  " + help)
}
