package gstplay

import (
	"fmt"
	"log/slog"
)

// StartupState selects the state a freshly built pipeline is driven to
type StartupState int

const (
	// StartupPaused prerolls the pipeline and waits for Play
	StartupPaused StartupState = iota
	// StartupPlaying starts playback immediately
	StartupPlaying
)

// String returns a human-readable representation of the startup state
func (s StartupState) String() string {
	if s == StartupPlaying {
		return "playing"
	}
	return "paused"
}

// Channel identifies one of the four logical color balance channels
type Channel int

const (
	ChannelBrightness Channel = iota
	ChannelContrast
	ChannelHue
	ChannelSaturation

	channelCount = 4
)

// Channels lists every logical channel in slot order
var Channels = [channelCount]Channel{
	ChannelBrightness,
	ChannelContrast,
	ChannelHue,
	ChannelSaturation,
}

// Label returns the engine channel label that maps to the logical channel
func (c Channel) Label() string {
	switch c {
	case ChannelBrightness:
		return "BRIGHTNESS"
	case ChannelContrast:
		return "CONTRAST"
	case ChannelHue:
		return "HUE"
	case ChannelSaturation:
		return "SATURATION"
	default:
		return ""
	}
}

// String returns the lower-case channel name used in config and commands
func (c Channel) String() string {
	switch c {
	case ChannelBrightness:
		return "brightness"
	case ChannelContrast:
		return "contrast"
	case ChannelHue:
		return "hue"
	case ChannelSaturation:
		return "saturation"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

func (c Channel) valid() bool {
	return c >= 0 && c < channelCount
}

// ParseChannel maps a channel name back to its Channel
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("gstplay: unknown color balance channel %q", name)
}

// ChannelMask has bit i set when Channel(i) is available
type ChannelMask int

// Has reports whether the channel is available
func (m ChannelMask) Has(c Channel) bool {
	return m&(1<<uint(c)) != 0
}

// Snapshot is the playback state captured by Suspend and consumed by Restart
type Snapshot struct {
	// State is StateNull (or zero) when no pipeline was suspended
	State State
	// Position in nanoseconds
	Position int64
	// Volume as a 0.0-1.0 fraction
	Volume float64
}

// VideoInfo is the video stream description collected from negotiated pads
type VideoInfo struct {
	Format       string
	Width        int
	Height       int
	FramerateNum int
	FramerateDen int
	ParNum       int
	ParDen       int
}

// merge applies the fields of fixed caps that carry a value
func (v *VideoInfo) merge(c Caps) {
	if c.Format != "" {
		v.Format = c.Format
	}
	if c.Width != 0 {
		v.Width = c.Width
	}
	if c.Height != 0 {
		v.Height = c.Height
	}
	if c.ParNum != 0 && c.ParDen != 0 {
		v.ParNum = c.ParNum
		v.ParDen = c.ParDen
	}
	if c.FramerateNum != 0 && c.FramerateDen != 0 {
		v.FramerateNum = c.FramerateNum
		v.FramerateDen = c.FramerateDen
	}
}

// LogValue renders the video info as a single slog group
func (v VideoInfo) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("format", v.Format),
		slog.String("size", fmt.Sprintf("%dx%d", v.Width, v.Height)),
		slog.String("framerate", fmt.Sprintf("%d/%d", v.FramerateNum, v.FramerateDen)),
		slog.String("par", fmt.Sprintf("%d/%d", v.ParNum, v.ParDen)),
	)
}

// Observer receives lifecycle notifications from the player.
//
// All methods are called on the run loop.
type Observer interface {
	PipelineStarted(runID, description string)
	PipelineDestroyed(runID string)
	StateChanged(oldState, newState State)
	Buffering(percent int)
	Error(err error)
}
