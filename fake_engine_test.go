package gstplay

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// fakeLoop is a manual run loop: events are queued and dispatched in order,
// timers fire when the test advances the clock.
type fakeLoop struct {
	queue   []func()
	timers  []fakeTimer
	now     time.Duration
	running int
	quits   int
	quit    bool
}

type fakeTimer struct {
	at time.Duration
	fn func()
}

func (l *fakeLoop) Run() {
	l.running++
	defer func() { l.running-- }()
	l.quit = false
	for !l.quit {
		if !l.Iterate() {
			return
		}
	}
	l.quit = false
}

func (l *fakeLoop) Quit() {
	l.quits++
	l.quit = true
}

func (l *fakeLoop) Iterate() bool {
	if len(l.queue) == 0 {
		return false
	}
	fn := l.queue[0]
	l.queue = l.queue[1:]
	fn()
	return true
}

func (l *fakeLoop) AfterFunc(d time.Duration, fn func()) {
	l.timers = append(l.timers, fakeTimer{at: l.now + d, fn: fn})
}

func (l *fakeLoop) Invoke(fn func()) {
	l.queue = append(l.queue, fn)
}

// advance moves the clock and fires due timers
func (l *fakeLoop) advance(d time.Duration) {
	l.now += d
	sort.SliceStable(l.timers, func(i, j int) bool { return l.timers[i].at < l.timers[j].at })
	var pending []fakeTimer
	var due []fakeTimer
	for _, t := range l.timers {
		if t.at <= l.now {
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	l.timers = pending
	for _, t := range due {
		t.fn()
	}
}

// flush dispatches every queued event
func (l *fakeLoop) flush() {
	for l.Iterate() {
	}
}

type fakePad struct {
	name string
	caps Caps
	has  bool
}

func (p *fakePad) Name() string { return p.name }

func (p *fakePad) CurrentCaps() (Caps, bool) { return p.caps, p.has }

type fakeBalance struct {
	channels []ColorChannel
	values   map[string]int
	writes   map[string]int
}

func newFakeBalance(channels ...ColorChannel) *fakeBalance {
	b := &fakeBalance{
		channels: channels,
		values:   map[string]int{},
		writes:   map[string]int{},
	}
	for _, ch := range channels {
		b.values[ch.Label] = (ch.Min + ch.Max) / 2
	}
	return b
}

func (b *fakeBalance) Channels() []ColorChannel { return b.channels }

func (b *fakeBalance) Value(ch ColorChannel) int { return b.values[ch.Label] }

func (b *fakeBalance) SetValue(ch ColorChannel, v int) {
	b.values[ch.Label] = v
	b.writes[ch.Label]++
}

type fakeOverlay struct {
	handle  uintptr
	exposes int
}

func (o *fakeOverlay) SetWindowHandle(h uintptr) { o.handle = h }

func (o *fakeOverlay) Expose() { o.exposes++ }

type fakePipeline struct {
	name        string
	description string
	loop        *fakeLoop

	state       State
	transitions []State
	released    bool

	position    int64
	positionOK  bool
	duration    int64
	durationOK  bool
	seeks       []int64
	volume      float64
	hasVolume   bool
	balance     *fakeBalance
	videoPad    *fakePad
	watch       BusWatch
	sync        SyncHandler
	padAdded    func(Pad)
	interrupted bool

	// playOnProbe posts a PLAYING state change once the pipeline is set to PLAYING
	playOnProbe bool
}

func (p *fakePipeline) Name() string { return p.name }

func (p *fakePipeline) SetState(s State) error {
	old := p.state
	p.state = s
	p.transitions = append(p.transitions, s)
	if p.playOnProbe && s == StatePlaying {
		p.post(Message{Type: MessageStateChanged, Source: p.name, OldState: old, NewState: s})
	}
	return nil
}

func (p *fakePipeline) CurrentState() State { return p.state }

func (p *fakePipeline) WaitState() State { return p.state }

func (p *fakePipeline) QueryPosition() (int64, bool) { return p.position, p.positionOK }

func (p *fakePipeline) QueryDuration() (int64, bool) { return p.duration, p.durationOK }

func (p *fakePipeline) Seek(pos int64) bool {
	p.seeks = append(p.seeks, pos)
	p.position = pos
	return true
}

func (p *fakePipeline) Volume() (float64, error) {
	if !p.hasVolume {
		return 0, ErrUnsupported
	}
	return p.volume, nil
}

func (p *fakePipeline) SetVolume(v float64) error {
	if !p.hasVolume {
		return ErrUnsupported
	}
	p.volume = v
	return nil
}

func (p *fakePipeline) AddWatch(w BusWatch) { p.watch = w }

func (p *fakePipeline) SetSyncHandler(h SyncHandler) { p.sync = h }

func (p *fakePipeline) OnPadAdded(fn func(Pad)) { p.padAdded = fn }

func (p *fakePipeline) ColorBalance() (ColorBalance, bool) {
	if p.balance == nil {
		return nil, false
	}
	return p.balance, true
}

func (p *fakePipeline) VideoPad() (Pad, bool) {
	if p.videoPad == nil {
		return nil, false
	}
	return p.videoPad, true
}

func (p *fakePipeline) PostInterrupt() bool {
	p.interrupted = true
	p.post(Message{Type: MessageApplication, Source: p.name, Structure: InterruptStructure})
	return true
}

func (p *fakePipeline) Release() {
	p.released = true
	p.watch = nil
	p.sync = nil
}

// post queues msg on the loop, like a bus watch would receive it
func (p *fakePipeline) post(msg Message) {
	p.loop.Invoke(func() {
		if p.watch != nil && !p.watch(msg) {
			p.watch = nil
		}
	})
}

// emitPad simulates a pad-added signal
func (p *fakePipeline) emitPad(pad Pad) {
	if p.padAdded != nil {
		p.padAdded(pad)
	}
}

type fakeEngine struct {
	loop      *fakeLoop
	launched  []*fakePipeline
	configure func(*fakePipeline)
	runtime   Version
}

func (e *fakeEngine) Launch(description string) (Pipeline, error) {
	if strings.Contains(description, "!!") || strings.TrimSpace(description) == "" {
		return nil, errors.New("syntax error")
	}
	pl := &fakePipeline{
		name:        fmt.Sprintf("pipeline%d", len(e.launched)),
		description: description,
		loop:        e.loop,
		state:       StateNull,
		hasVolume:   strings.HasPrefix(description, "playbin"),
		volume:      1.0,
	}
	if e.configure != nil {
		e.configure(pl)
	}
	e.launched = append(e.launched, pl)
	return pl, nil
}

func (e *fakeEngine) NewLoop() Loop { return e.loop }

func (e *fakeEngine) RuntimeVersion() Version { return e.runtime }

func (e *fakeEngine) CompiledVersion() Version { return Version{Major: 1, Minor: 22, Micro: 0} }

func (e *fakeEngine) last() *fakePipeline {
	if len(e.launched) == 0 {
		return nil
	}
	return e.launched[len(e.launched)-1]
}

type fakeHost struct {
	gui          bool
	quitOnEnd    bool
	softBalance  bool
	defaults     [channelCount]float64
	uri          string
	title        string
	playbin      bool
	window       uintptr
	errors       []string
	descriptions int
}

func (h *fakeHost) HaveGUI() bool                          { return h.gui }
func (h *fakeHost) QuitOnStreamEnd() bool                  { return h.quitOnEnd }
func (h *fakeHost) SoftwareColorBalance() bool             { return h.softBalance }
func (h *fakeHost) ColorBalanceDefault(ch Channel) float64 { return h.defaults[ch] }
func (h *fakeHost) CurrentURI() (string, string)           { return h.uri, h.title }
func (h *fakeHost) UsesPlaybin() bool                      { return h.playbin }
func (h *fakeHost) VideoWindowHandle() uintptr             { return h.window }

func (h *fakeHost) CreatePipeline(uri, title string) string {
	h.descriptions++
	return "playbin uri=" + uri
}

func (h *fakeHost) ShowError(title, detail string) {
	h.errors = append(h.errors, title+": "+detail)
}

type recordingObserver struct {
	started   []string
	destroyed []string
	states    []State
	buffering []int
	errs      []error
}

func (o *recordingObserver) PipelineStarted(runID, _ string) { o.started = append(o.started, runID) }
func (o *recordingObserver) PipelineDestroyed(runID string)  { o.destroyed = append(o.destroyed, runID) }
func (o *recordingObserver) StateChanged(_, newState State)  { o.states = append(o.states, newState) }
func (o *recordingObserver) Buffering(percent int)           { o.buffering = append(o.buffering, percent) }
func (o *recordingObserver) Error(err error)                 { o.errs = append(o.errs, err) }

type harness struct {
	loop     *fakeLoop
	engine   *fakeEngine
	host     *fakeHost
	observer *recordingObserver
	player   *Player
}

func newHarness() *harness {
	loop := &fakeLoop{}
	h := &harness{
		loop:     loop,
		engine:   &fakeEngine{loop: loop, runtime: Version{Major: 1, Minor: 22, Micro: 5}},
		host:     &fakeHost{gui: true, playbin: true, uri: "file:///media/clip.mkv", title: "clip", window: 0x2a},
		observer: &recordingObserver{},
	}
	player, err := New(Config{
		Engine:    h.engine,
		Host:      h.host,
		Loop:      loop,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observers: []Observer{h.observer},
	})
	if err != nil {
		panic(err)
	}
	h.player = player
	return h
}
