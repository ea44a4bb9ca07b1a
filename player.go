package gstplay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// restoreDelay is how long Restart waits before seeking the rebuilt pipeline,
// so it has reached a seekable state.
const restoreDelay = time.Second

// Config contains the collaborators of a Player
type Config struct {
	// Engine builds pipelines (required)
	Engine Engine
	// Host answers configuration queries and receives errors (required)
	Host Host
	// Loop is the run loop the player is confined to (required)
	Loop Loop
	// Logger defaults to slog.Default()
	Logger *slog.Logger
	// Observers receive lifecycle notifications
	Observers []Observer
}

// Player owns the single active pipeline and every piece of state around it.
//
// A Player is confined to its run loop: all methods except Interrupt and
// ExposeVideoOverlay must be called from the loop's thread.
type Player struct {
	engine    Engine
	host      Host
	loop      Loop
	logger    *slog.Logger
	observers []Observer

	pipeline    Pipeline
	description string
	runID       string

	endOfStream            bool
	applyDefaultsOnPlaying bool
	destroying             bool
	destroyed              []func()

	snapshot Snapshot
	balance  colorBalanceCache
	probe    *probeState

	// pads is appended to from streaming threads
	padsMu sync.Mutex
	pads   []Pad

	// overlay is bound from the streaming thread of the video sink
	overlayMu sync.Mutex
	overlay   Overlay
}

// New creates a Player with fail-fast validation of its collaborators
func New(cfg Config) (*Player, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("gstplay: engine is required")
	}
	if cfg.Host == nil {
		return nil, fmt.Errorf("gstplay: host is required")
	}
	if cfg.Loop == nil {
		return nil, fmt.Errorf("gstplay: loop is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Player{
		engine:    cfg.Engine,
		host:      cfg.Host,
		loop:      cfg.Loop,
		logger:    logger,
		observers: cfg.Observers,
	}, nil
}

// Loop returns the run loop the player is confined to
func (p *Player) Loop() Loop {
	return p.loop
}

// Run builds a pipeline from description and drives it to the startup state.
//
// On a parse failure a *ParseError is returned and the current pipeline, if
// any, is left untouched. On success a previous pipeline is destroyed first.
func (p *Player) Run(description string, startup StartupState) error {
	pl, err := p.engine.Launch(description)
	if err != nil {
		perr := &ParseError{Description: description, Message: err.Error()}
		p.logger.Error("gstplay: could not create pipeline",
			"description", description,
			"error", err,
		)
		p.notifyError(perr)
		return perr
	}

	if p.pipeline != nil {
		p.logger.Debug("gstplay: replacing running pipeline", "run_id", p.runID)
		p.Destroy()
	}

	p.pipeline = pl
	p.runID = uuid.NewString()

	pl.AddWatch(func(msg Message) bool {
		return p.handleMessage(pl, p.loop, msg)
	})
	if p.host.HaveGUI() {
		pl.SetSyncHandler(p.handleSync)
	}

	// Collect pads as they appear; VideoInfo scans them later
	p.resetPads()
	pl.OnPadAdded(p.addPad)

	if err := pl.SetState(StateReady); err != nil {
		p.logger.Warn("gstplay: pipeline did not reach READY", "run_id", p.runID, "error", err)
	}

	p.applyDefaultsOnPlaying = true

	target := StatePaused
	if startup == StartupPlaying {
		target = StatePlaying
	}
	if err := pl.SetState(target); err != nil {
		p.logger.Warn("gstplay: state change failed",
			"run_id", p.runID,
			"target", target,
			"error", err,
		)
	}

	p.description = description
	p.endOfStream = false

	p.logger.Info("gstplay: pipeline started",
		"run_id", p.runID,
		"startup", startup,
		"description", description,
	)
	for _, o := range p.observers {
		o.PipelineStarted(p.runID, description)
	}
	return nil
}

// Destroy winds the pipeline down to NULL, releases it and invokes every
// registered destroyed callback once, in registration order.
//
// Calling Destroy without a pipeline only flushes the callbacks. Calls made
// while a destroy is in progress (from a callback) are ignored.
func (p *Player) Destroy() {
	if p.destroying {
		p.logger.Warn("gstplay: destroy called while destroying, ignored")
		return
	}
	p.destroying = true
	defer func() { p.destroying = false }()

	runID := p.runID
	if pl := p.pipeline; pl != nil {
		_ = pl.SetState(StatePaused)
		pl.WaitState()
		p.drain()

		_ = pl.SetState(StateReady)
		pl.WaitState()
		p.drain()

		_ = pl.SetState(StateNull)
		pl.Release()
		p.pipeline = nil

		p.logger.Info("gstplay: pipeline destroyed", "run_id", runID)
	}

	p.description = ""
	p.runID = ""
	p.applyDefaultsOnPlaying = false
	p.resetPads()
	p.balance.reset()

	p.overlayMu.Lock()
	p.overlay = nil
	p.overlayMu.Unlock()

	callbacks := p.destroyed
	p.destroyed = nil
	for _, cb := range callbacks {
		cb()
	}

	for _, o := range p.observers {
		o.PipelineDestroyed(runID)
	}
}

// drain dispatches pending loop events so messages posted by a state
// change are processed before the next one.
func (p *Player) drain() {
	for p.loop.Iterate() {
	}
}

// OnDestroyed registers fn to run once when the pipeline is next destroyed
func (p *Player) OnDestroyed(fn func()) {
	if fn == nil {
		return
	}
	p.destroyed = append(p.destroyed, fn)
}

// Suspend captures position, state and volume, then destroys the pipeline.
// Use it before a configuration change that requires a pipeline rebuild.
func (p *Player) Suspend() {
	if !p.HasPipeline() {
		p.snapshot = Snapshot{State: StateNull}
		return
	}

	pos, err := p.Position()
	if err != nil {
		p.logger.Debug("gstplay: suspending without position", "error", err)
	}
	p.snapshot = Snapshot{
		State:    p.pipeline.CurrentState(),
		Position: pos,
		Volume:   p.Volume(),
	}

	p.logger.Info("gstplay: suspending pipeline",
		"run_id", p.runID,
		"state", p.snapshot.State,
		"position", time.Duration(p.snapshot.Position),
		"volume", p.snapshot.Volume,
	)

	p.Pause()
	p.Destroy()
}

// Snapshot returns the state captured by the last Suspend that has not been
// consumed by Restart
func (p *Player) Snapshot() Snapshot {
	return p.snapshot
}

// Restart rebuilds the pipeline suspended by Suspend and, one second later,
// seeks to the captured position and restores the captured volume.
//
// Without a captured snapshot Restart does nothing.
func (p *Player) Restart() error {
	snap := p.snapshot
	if snap.State == StateVoidPending || snap.State == StateNull {
		return nil
	}
	p.snapshot = Snapshot{State: StateNull}

	uri, title := p.host.CurrentURI()
	description := p.host.CreatePipeline(uri, title)

	startup := StartupPaused
	if snap.State == StatePlaying {
		startup = StartupPlaying
	}
	if err := p.Run(description, startup); err != nil {
		return fmt.Errorf("gstplay: restart: %w", err)
	}

	p.loop.AfterFunc(restoreDelay, func() {
		p.Seek(snap.Position)
		p.SetVolume(snap.Volume)
	})

	p.logger.Info("gstplay: pipeline restarted",
		"run_id", p.runID,
		"uri", uri,
		"restore_position", time.Duration(snap.Position),
	)
	return nil
}

// Interrupt asks the running pipeline to stop and the run loop to quit.
//
// It is safe to call from any goroutine, including a signal handler
// goroutine: the request travels through the engine's message stream and is
// handled on the loop.
func (p *Player) Interrupt() {
	p.loop.Invoke(func() {
		if p.pipeline != nil && p.pipeline.PostInterrupt() {
			return
		}
		p.logger.Info("gstplay: interrupt without pipeline, quitting")
		p.Destroy()
		p.loop.Quit()
	})
}

// HasPipeline reports whether a pipeline is alive
func (p *Player) HasPipeline() bool {
	return p.description != ""
}

// Description returns the description of the current pipeline, or "" when none
func (p *Player) Description() string {
	return p.description
}

// RunID returns the identifier of the current pipeline run, or "" when none
func (p *Player) RunID() string {
	return p.runID
}

// State returns the current pipeline state, StateNull without a pipeline
func (p *Player) State() State {
	if p.pipeline == nil {
		return StateNull
	}
	return p.pipeline.CurrentState()
}

// RuntimeVersion returns the engine version linked at runtime
func (p *Player) RuntimeVersion() Version {
	return p.engine.RuntimeVersion()
}

// CompiledVersion returns the engine version the binary was built against
func (p *Player) CompiledVersion() Version {
	return p.engine.CompiledVersion()
}

func (p *Player) addPad(pad Pad) {
	p.padsMu.Lock()
	p.pads = append(p.pads, pad)
	p.padsMu.Unlock()
}

func (p *Player) resetPads() {
	p.padsMu.Lock()
	p.pads = nil
	p.padsMu.Unlock()
}

func (p *Player) observedPads() []Pad {
	p.padsMu.Lock()
	defer p.padsMu.Unlock()
	return append([]Pad(nil), p.pads...)
}

func (p *Player) notifyError(err error) {
	for _, o := range p.observers {
		o.Error(err)
	}
}
