// Package playback implements the transport state machine driven by
// gesture commands.
package playback

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultSkip is how far Advance and Rewind move.
const DefaultSkip = 2 * time.Second

// DefaultFPS is assumed when content reports no frame rate.
const DefaultFPS = 30.0

// ErrNoContent is returned by Toggle when nothing is loaded.
var ErrNoContent = errors.New("no content loaded")

// State is the transport state.
type State string

const (
	Paused  State = "paused"
	Playing State = "playing"
	Ended   State = "ended"
)

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	IsPlaying   bool    `json:"is_playing"`
	Position    int     `json:"position"`
	TotalLength int     `json:"total_length"`
	State       State   `json:"state"`
	FPS         float64 `json:"fps"`
	PositionSec float64 `json:"position_seconds"`
	DurationSec float64 `json:"duration_seconds"`
}

// Controller holds playback position in frames. The position always stays
// within [0, total-1], or at 0 when no content is loaded.
//
// Controller is not safe for concurrent use.
type Controller struct {
	state    State
	position int
	total    int
	fps      float64
	skip     time.Duration
}

// NewController returns a paused controller with no content.
func NewController() *Controller {
	return &Controller{state: Paused, fps: DefaultFPS, skip: DefaultSkip}
}

// Load replaces the content. Position returns to 0 and playback pauses.
// A non-positive skip keeps DefaultSkip.
func (c *Controller) Load(total int, fps float64, skip time.Duration) {
	if total < 0 {
		total = 0
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	if skip <= 0 {
		skip = DefaultSkip
	}
	c.total = total
	c.fps = fps
	c.skip = skip
	c.position = 0
	c.state = Paused
}

// SetSkip changes the seek distance without touching the content.
func (c *Controller) SetSkip(skip time.Duration) {
	if skip > 0 {
		c.skip = skip
	}
}

// SkipFrames returns the seek distance in frames, at least 1.
func (c *Controller) SkipFrames() int {
	n := int(math.Round(c.skip.Seconds() * c.fps))
	if n < 1 {
		return 1
	}
	return n
}

// HasContent reports whether playable content is loaded.
func (c *Controller) HasContent() bool {
	return c.total > 0
}

// Toggle flips between playing and paused. Ended content resumes from
// its current position.
func (c *Controller) Toggle() error {
	if !c.HasContent() {
		return ErrNoContent
	}
	if c.state == Playing {
		c.state = Paused
	} else {
		c.state = Playing
	}
	return nil
}

// Advance seeks forward by the skip distance, clamped to the last frame.
func (c *Controller) Advance() {
	c.SetPosition(c.position + c.SkipFrames())
}

// Rewind seeks backward by the skip distance, clamped to the first frame.
func (c *Controller) Rewind() {
	c.SetPosition(c.position - c.SkipFrames())
}

// SetPosition moves to frame p, clamped into the content. Ended content
// becomes Paused once the position leaves the last frame.
func (c *Controller) SetPosition(p int) {
	if c.total == 0 {
		c.position = 0
		return
	}
	c.position = max(0, min(p, c.total-1))
	if c.state == Ended && c.position < c.total-1 {
		c.state = Paused
	}
}

// Tick moves one frame forward while playing. It reports true when the
// content just ran out; the controller is then Ended on the last frame.
func (c *Controller) Tick() bool {
	if c.state != Playing {
		return false
	}
	c.position++
	if c.position >= c.total {
		c.position = max(c.total-1, 0)
		c.state = Ended
		return true
	}
	return false
}

// Apply dispatches a stabilized command.
func (c *Controller) Apply(cmd gesture.Command) error {
	switch cmd {
	case gesture.CmdTogglePlayPause:
		return c.Toggle()
	case gesture.CmdAdvance:
		c.Advance()
	case gesture.CmdRewind:
		c.Rewind()
	case gesture.CmdNone:
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// Position returns the current frame index.
func (c *Controller) Position() int {
	return c.position
}

// PositionTime returns the current position as a duration.
func (c *Controller) PositionTime() time.Duration {
	return c.frameDuration(c.position)
}

// Duration returns the content length as a duration.
func (c *Controller) Duration() time.Duration {
	return c.frameDuration(c.total)
}

func (c *Controller) frameDuration(frames int) time.Duration {
	if c.fps <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / c.fps * float64(time.Second))
}

// FrameInterval returns the time between frames at the content rate.
func (c *Controller) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.fps)
}

// State returns a snapshot of the controller.
func (c *Controller) State() Snapshot {
	return Snapshot{
		IsPlaying:   c.state == Playing,
		Position:    c.position,
		TotalLength: c.total,
		State:       c.state,
		FPS:         c.fps,
		PositionSec: c.PositionTime().Seconds(),
		DurationSec: c.Duration().Seconds(),
	}
}
