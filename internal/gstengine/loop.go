package gstengine

import (
	"time"

	"github.com/tinyzimmer/go-glib/glib"
)

// loop runs on the default GLib main context, where go-gst attaches bus
// watches. Nested loops (the discovery probe) share that context.
type loop struct {
	ctx  *glib.MainContext
	main *glib.MainLoop
}

func newLoop() *loop {
	ctx := glib.MainContextDefault()
	return &loop{
		ctx:  ctx,
		main: glib.NewMainLoop(ctx, false),
	}
}

func (l *loop) Run() {
	l.main.Run()
}

func (l *loop) Quit() {
	l.main.Quit()
}

func (l *loop) Iterate() bool {
	return l.ctx.Iteration(false)
}

func (l *loop) AfterFunc(d time.Duration, fn func()) {
	glib.TimeoutAdd(uint(d.Milliseconds()), func() bool {
		fn()
		return false
	})
}

func (l *loop) Invoke(fn func()) {
	glib.IdleAdd(func() bool {
		fn()
		return false
	})
}
