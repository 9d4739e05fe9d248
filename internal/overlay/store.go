package overlay

import (
	"github.com/google/uuid"
)

// ChangeKind identifies what happened to an overlay.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is delivered to subscribers after every successful mutation.
type Change struct {
	Kind ChangeKind
	ID   string
}

type subscriber struct {
	id int
	fn func(Change)
}

// Store is an insertion-ordered overlay collection. Insertion order is the
// z-order used for rendering and is never re-sorted by time.
//
// Store is not safe for concurrent use; it is owned by the editor's update loop.
type Store struct {
	defaults Defaults
	overlays []TextOverlay
	newID    func() string

	subs   []subscriber
	nextID int
}

// NewStore creates an empty store. If defaults is nil, DefaultDefaults() is used.
func NewStore(defaults *Defaults) *Store {
	d := DefaultDefaults()
	if defaults != nil {
		d = *defaults
	}
	d.Duration = clampDuration(d.Duration, 3)
	d.Position.X = clampPercent(d.Position.X, 50)
	d.Position.Y = clampPercent(d.Position.Y, 50)
	d.Style.FontSize = clampFontSize(d.Style.FontSize, 24)

	return &Store{
		defaults: d,
		newID: func() string {
			return "overlay-" + uuid.NewString()
		},
	}
}

// SetDefaults replaces the defaults used by subsequent Add calls.
func (s *Store) SetDefaults(d Defaults) {
	d.Duration = clampDuration(d.Duration, s.defaults.Duration)
	d.Position.X = clampPercent(d.Position.X, s.defaults.Position.X)
	d.Position.Y = clampPercent(d.Position.Y, s.defaults.Position.Y)
	d.Style.FontSize = clampFontSize(d.Style.FontSize, s.defaults.Style.FontSize)
	s.defaults = d
}

// Defaults returns the defaults used by Add.
func (s *Store) Defaults() Defaults {
	return s.defaults
}

// Add creates an overlay starting at atTime and returns its id.
func (s *Store) Add(atTime float64) string {
	o := TextOverlay{
		ID:        s.newID(),
		Text:      s.defaults.Text,
		StartTime: clampStart(atTime, 0),
		Duration:  s.defaults.Duration,
		Position:  s.defaults.Position,
		Style:     s.defaults.Style,
	}
	s.overlays = append(s.overlays, o)
	s.notify(Change{Kind: ChangeAdded, ID: o.ID})
	return o.ID
}

// Update merges p into the overlay with the given id. Every touched numeric
// field is clamped; an unknown id is ignored.
func (s *Store) Update(id string, p Patch) {
	i := s.index(id)
	if i < 0 || p.IsEmpty() {
		return
	}

	o := &s.overlays[i]
	if p.Text != nil {
		o.Text = *p.Text
	}
	if p.StartTime != nil {
		o.StartTime = clampStart(*p.StartTime, o.StartTime)
	}
	if p.Duration != nil {
		o.Duration = clampDuration(*p.Duration, o.Duration)
	}
	if p.X != nil {
		o.Position.X = clampPercent(*p.X, o.Position.X)
	}
	if p.Y != nil {
		o.Position.Y = clampPercent(*p.Y, o.Position.Y)
	}
	if p.FontSize != nil {
		o.Style.FontSize = clampFontSize(*p.FontSize, o.Style.FontSize)
	}
	if p.Color != nil {
		o.Style.Color = *p.Color
	}
	if p.FontFamily != nil {
		o.Style.FontFamily = *p.FontFamily
	}
	if p.FontWeight != nil {
		o.Style.FontWeight = *p.FontWeight
	}
	s.notify(Change{Kind: ChangeUpdated, ID: id})
}

// Move sets the start time, clamped to >= 0. Duration is unchanged.
func (s *Store) Move(id string, start float64) {
	s.Update(id, Patch{StartTime: &start})
}

// Resize sets the duration, clamped to >= MinDuration.
func (s *Store) Resize(id string, duration float64) {
	s.Update(id, Patch{Duration: &duration})
}

// Delete removes the overlay. An unknown id is ignored.
func (s *Store) Delete(id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
	s.notify(Change{Kind: ChangeDeleted, ID: id})
}

// Get returns a copy of the overlay with the given id.
func (s *Store) Get(id string) (TextOverlay, bool) {
	i := s.index(id)
	if i < 0 {
		return TextOverlay{}, false
	}
	return s.overlays[i], true
}

// List returns a copy of all overlays in insertion order.
func (s *Store) List() []TextOverlay {
	out := make([]TextOverlay, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// Len returns the number of overlays.
func (s *Store) Len() int {
	return len(s.overlays)
}

// ActiveAt returns the overlays visible at t, in insertion order.
func (s *Store) ActiveAt(t float64) []TextOverlay {
	var active []TextOverlay
	for _, o := range s.overlays {
		if o.ActiveAt(t) {
			active = append(active, o)
		}
	}
	return active
}

// Next returns the id following id in insertion order, wrapping around.
// An empty or unknown id yields the first overlay.
func (s *Store) Next(id string) string {
	if len(s.overlays) == 0 {
		return ""
	}
	i := s.index(id)
	return s.overlays[(i+1)%len(s.overlays)].ID
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(c Change) {
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	for _, sub := range subs {
		sub.fn(c)
	}
}

func (s *Store) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.overlays {
		if s.overlays[i].ID == id {
			return i
		}
	}
	return -1
}
