package events

// Input event types.
const (
	TypeKey     = "input.key"
	TypePointer = "input.pointer"
	TypeWheel   = "input.wheel"
)

// Key names used by KeyEvent. Printable keys use the character itself.
const (
	KeySpace = "space"
	KeyLeft  = "left"
	KeyRight = "right"
	KeyHome  = "home"
	KeyEnd   = "end"
)

// KeyEvent is a key press aimed at the timeline.
type KeyEvent struct {
	BaseEvent
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl,omitempty"`
	Meta bool   `json:"meta,omitempty"`
	// InTextField is set when focus is in an editable field; timeline
	// shortcuts ignore such events.
	InTextField bool `json:"in_text_field,omitempty"`
}

// NewKeyEvent constructs a KeyEvent.
func NewKeyEvent(key string, ctrl, meta, inTextField bool) KeyEvent {
	return KeyEvent{BaseEvent: newBase(TypeKey), Key: key, Ctrl: ctrl, Meta: meta, InTextField: inTextField}
}

// Modified reports whether ctrl or meta is held.
func (e KeyEvent) Modified() bool { return e.Ctrl || e.Meta }

// PointerAction is the phase of a pointer gesture.
type PointerAction int

const (
	PointerDown PointerAction = iota
	PointerMove
	PointerUp
	PointerCancel
)

func (a PointerAction) String() string {
	switch a {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	}
	return "unknown"
}

// Row identifies the timeline row under the pointer.
type Row int

const (
	RowNone Row = iota
	RowRuler
	RowTrack
)

// PointerEvent is a pointer press, motion or release. X is in viewport-local
// pixels.
type PointerEvent struct {
	BaseEvent
	Action PointerAction `json:"action"`
	X      float64       `json:"x"`
	Row    Row           `json:"row"`
}

// NewPointerEvent constructs a PointerEvent.
func NewPointerEvent(action PointerAction, x float64, row Row) PointerEvent {
	return PointerEvent{BaseEvent: newBase(TypePointer), Action: action, X: x, Row: row}
}

// WheelEvent is a scroll wheel or trackpad gesture. Positive DeltaY scrolls
// down, positive DeltaX scrolls right.
type WheelEvent struct {
	BaseEvent
	DeltaX float64 `json:"delta_x"`
	DeltaY float64 `json:"delta_y"`
	X      float64 `json:"x"`
	Row    Row     `json:"row"`
	Ctrl   bool    `json:"ctrl,omitempty"`
}

// NewWheelEvent constructs a WheelEvent.
func NewWheelEvent(deltaX, deltaY, x float64, row Row, ctrl bool) WheelEvent {
	return WheelEvent{BaseEvent: newBase(TypeWheel), DeltaX: deltaX, DeltaY: deltaY, X: x, Row: row, Ctrl: ctrl}
}
