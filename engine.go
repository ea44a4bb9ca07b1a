package gstplay

import (
	"fmt"
	"time"
)

// State mirrors the GStreamer element state machine.
type State int

const (
	// StateVoidPending means no state was recorded (also "no pending change").
	StateVoidPending State = iota
	// StateNull is the initial and terminal state; no resources are held.
	StateNull
	// StateReady means resources are allocated but no data flows.
	StateReady
	// StatePaused means the pipeline is prerolled and the clock is stopped.
	StatePaused
	// StatePlaying means data flows and the clock runs.
	StatePlaying
)

// String returns the GStreamer name of the state
func (s State) String() string {
	switch s {
	case StateVoidPending:
		return "VOID_PENDING"
	case StateNull:
		return "NULL"
	case StateReady:
		return "READY"
	case StatePaused:
		return "PAUSED"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}

// MessageType classifies the bus messages the dispatcher reacts to.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageEOS
	MessageError
	MessageStateChanged
	MessageBuffering
	MessageApplication
	MessageElement
)

// InterruptStructure names the application message posted when the process
// receives an interrupt signal.
const InterruptStructure = "GstLaunchInterrupt"

// Message is a bus message reduced to the fields the dispatcher needs.
type Message struct {
	Type MessageType
	// Source is the name of the object that posted the message.
	Source string
	// Structure is the structure name of application and element messages.
	Structure string
	// Err is set for MessageError.
	Err *EngineError
	// Percent is set for MessageBuffering.
	Percent int
	// OldState and NewState are set for MessageStateChanged.
	OldState State
	NewState State
	// Overlay is set on prepare-window-handle element messages and refers to
	// the video sink asking for a render surface.
	Overlay Overlay
}

// SyncReply tells the engine what to do with a synchronously handled message.
type SyncReply int

const (
	// SyncPass lets the message continue to the queued bus watch.
	SyncPass SyncReply = iota
	// SyncDrop stops propagation of the message.
	SyncDrop
)

// BusWatch is invoked on the run loop for each queued message. Returning
// false removes the watch.
type BusWatch func(msg Message) bool

// SyncHandler is invoked on the posting thread before the message is queued.
type SyncHandler func(msg Message) SyncReply

// Overlay is a video sink that renders into a host provided window.
type Overlay interface {
	SetWindowHandle(handle uintptr)
	Expose()
}

// Caps is the subset of a pad's negotiated video capabilities the player reads.
type Caps struct {
	// Fixed is true once negotiation finished and every field has one value.
	Fixed        bool
	Format       string
	Width        int
	Height       int
	FramerateNum int
	FramerateDen int
	ParNum       int
	ParDen       int
}

// Pad is an element port observed while the pipeline is built.
type Pad interface {
	Name() string
	// CurrentCaps returns the negotiated caps, or false when none exist yet.
	CurrentCaps() (Caps, bool)
}

// ColorChannel describes one adjustable color balance channel.
type ColorChannel struct {
	Label string
	Min   int
	Max   int
}

// ColorBalance is an element exposing color balance channels.
type ColorBalance interface {
	Channels() []ColorChannel
	Value(ch ColorChannel) int
	SetValue(ch ColorChannel, value int)
}

// Pipeline is an opaque pipeline graph built by the engine.
type Pipeline interface {
	Name() string
	SetState(state State) error
	// CurrentState returns the state without waiting for pending changes.
	CurrentState() State
	// WaitState blocks until any pending state change completed.
	WaitState() State
	QueryPosition() (int64, bool)
	QueryDuration() (int64, bool)
	// Seek performs a flushing key-unit seek in time format.
	Seek(position int64) bool
	// Volume and SetVolume fail when the pipeline has no volume property.
	Volume() (float64, error)
	SetVolume(volume float64) error
	AddWatch(watch BusWatch)
	SetSyncHandler(handler SyncHandler)
	// OnPadAdded hooks fn on every element currently in the pipeline.
	OnPadAdded(fn func(pad Pad))
	ColorBalance() (ColorBalance, bool)
	// VideoPad returns the pad of the first video stream of a playbin.
	VideoPad() (Pad, bool)
	// PostInterrupt posts the InterruptStructure application message.
	PostInterrupt() bool
	// Release removes the bus watch and sync handler and drops the engine
	// resources. The pipeline must be in NULL.
	Release()
}

// Version is a GStreamer major.minor.micro triple.
type Version struct {
	Major uint
	Minor uint
	Micro uint
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Engine builds pipelines and run loops.
type Engine interface {
	Launch(description string) (Pipeline, error)
	NewLoop() Loop
	RuntimeVersion() Version
	CompiledVersion() Version
}

// Loop is the single cooperative run loop every player operation runs on.
type Loop interface {
	Run()
	Quit()
	// Iterate dispatches at most one pending event without blocking and
	// reports whether one was dispatched.
	Iterate() bool
	// AfterFunc runs fn once on the loop after d. It cannot be cancelled.
	AfterFunc(d time.Duration, fn func())
	// Invoke schedules fn on the loop; safe from any goroutine.
	Invoke(fn func())
}
