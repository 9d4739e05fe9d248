// Package playback defines the media player collaborator the editor drives
// and a clock-based implementation of it.
package playback

import (
	"log/slog"
	"math"
	"time"
)

// State is what a player reports.
type State struct {
	URL         string  `json:"url"`
	Duration    float64 `json:"duration"`
	CurrentTime float64 `json:"current_time"`
	Playing     bool    `json:"playing"`
	Volume      float64 `json:"volume"`
	Muted       bool    `json:"muted"`
	Loaded      bool    `json:"loaded"`
}

// Adapter is the player surface the editor depends on. Intents issued before
// media is loaded are ignored.
type Adapter interface {
	Play()
	Pause()
	Seek(t float64)
	SetVolume(v float64)
	ToggleMute()
	State() State
}

// Clock is an Adapter that advances a playhead against wall time without
// decoding anything. It is not safe for concurrent use.
type Clock struct {
	now   func() time.Time
	state State

	// Playhead position when playback last started, and when.
	anchorTime float64
	anchorAt   time.Time
}

var _ Adapter = (*Clock)(nil)

// NewClock returns an unloaded clock at full volume.
func NewClock() *Clock {
	return &Clock{now: time.Now, state: State{Volume: 1}}
}

// Load attaches media of the given duration and rewinds to 0.
func (c *Clock) Load(url string, duration float64) {
	if math.IsNaN(duration) || duration < 0 {
		duration = 0
	}
	c.state = State{
		URL:      url,
		Duration: duration,
		Volume:   c.state.Volume,
		Muted:    c.state.Muted,
		Loaded:   true,
	}
	slog.Default().Debug("playback loaded", "url", url, "duration", duration)
}

// Play starts advancing the playhead.
func (c *Clock) Play() {
	if !c.state.Loaded || c.state.Playing {
		return
	}
	if c.state.CurrentTime >= c.state.Duration {
		c.state.CurrentTime = 0
	}
	c.state.Playing = true
	c.anchorTime = c.state.CurrentTime
	c.anchorAt = c.now()
}

// Pause freezes the playhead at its current position.
func (c *Clock) Pause() {
	if !c.state.Loaded || !c.state.Playing {
		return
	}
	c.advance()
	c.state.Playing = false
}

// Toggle plays when paused and pauses when playing.
func (c *Clock) Toggle() {
	if c.State().Playing {
		c.Pause()
		return
	}
	c.Play()
}

// Seek moves the playhead, clamped to [0, Duration].
func (c *Clock) Seek(t float64) {
	if !c.state.Loaded || math.IsNaN(t) {
		return
	}
	c.state.CurrentTime = math.Max(0, math.Min(t, c.state.Duration))
	c.anchorTime = c.state.CurrentTime
	c.anchorAt = c.now()
}

// SetVolume sets the volume, clamped to [0, 1].
func (c *Clock) SetVolume(v float64) {
	if !c.state.Loaded || math.IsNaN(v) {
		return
	}
	c.state.Volume = math.Max(0, math.Min(v, 1))
}

// ToggleMute flips the mute flag.
func (c *Clock) ToggleMute() {
	if !c.state.Loaded {
		return
	}
	c.state.Muted = !c.state.Muted
}

// State advances the playhead to now and returns the result. Reaching the end
// stops playback and rewinds to 0.
func (c *Clock) State() State {
	if c.state.Playing {
		c.advance()
	}
	return c.state
}

func (c *Clock) advance() {
	if !c.state.Playing {
		return
	}
	elapsed := c.now().Sub(c.anchorAt).Seconds()
	t := c.anchorTime + elapsed
	if t >= c.state.Duration {
		c.state.Playing = false
		c.state.CurrentTime = 0
		c.anchorTime = 0
		slog.Default().Debug("playback ended", "url", c.state.URL)
		return
	}
	c.state.CurrentTime = t
}
