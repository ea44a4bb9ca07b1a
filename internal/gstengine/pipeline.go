package gstengine

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/gstplay"
)

// pipeline is a launched pipeline graph. The top-level element is whatever
// gst_parse_launch returned: a GstPipeline for linked descriptions, or the
// single element itself (playbin is a pipeline subclass).
type pipeline struct {
	element *gst.Element
	bus     *gst.Bus
	logger  *slog.Logger
}

func newPipeline(ptr unsafe.Pointer, logger *slog.Logger) *pipeline {
	elem := gst.FromGstElementUnsafeFull(ptr)
	return &pipeline{
		element: elem,
		bus:     elem.GetBus(),
		logger:  logger,
	}
}

func (p *pipeline) native() unsafe.Pointer {
	return unsafe.Pointer(p.element.Instance())
}

func (p *pipeline) Name() string {
	return p.element.GetName()
}

func (p *pipeline) SetState(state gstplay.State) error {
	if err := p.element.SetState(gst.State(state)); err != nil {
		return fmt.Errorf("gstengine: set %s: %w", state, err)
	}
	return nil
}

func (p *pipeline) CurrentState() gstplay.State {
	return gstplay.State(p.element.GetCurrentState())
}

func (p *pipeline) WaitState() gstplay.State {
	return waitState(p.native())
}

func (p *pipeline) QueryPosition() (int64, bool) {
	ok, pos := p.element.QueryPosition(gst.FormatTime)
	return pos, ok
}

func (p *pipeline) QueryDuration() (int64, bool) {
	ok, length := p.element.QueryDuration(gst.FormatTime)
	return length, ok
}

func (p *pipeline) Seek(position int64) bool {
	return p.element.SeekSimple(position, gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit)
}

func (p *pipeline) Volume() (float64, error) {
	v, err := p.element.GetProperty("volume")
	if err != nil {
		return 0, fmt.Errorf("gstengine: %w: %v", gstplay.ErrUnsupported, err)
	}
	volume, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("gstengine: volume has type %T: %w", v, gstplay.ErrUnsupported)
	}
	return volume, nil
}

func (p *pipeline) SetVolume(volume float64) error {
	if err := p.element.SetProperty("volume", volume); err != nil {
		return fmt.Errorf("gstengine: %w: %v", gstplay.ErrUnsupported, err)
	}
	return nil
}

func (p *pipeline) AddWatch(watch gstplay.BusWatch) {
	p.bus.AddWatch(func(msg *gst.Message) bool {
		return watch(convertMessage(msg))
	})
}

func (p *pipeline) SetSyncHandler(handler gstplay.SyncHandler) {
	p.bus.SetSyncHandler(func(msg *gst.Message) gst.BusSyncReply {
		if msg.Type() != gst.MessageElement {
			return gst.BusPass
		}
		return toSyncReply(handler(convertSyncMessage(msg)))
	})
}

// OnPadAdded connects fn to pad-added on every element currently in the
// pipeline. Elements added later (by decodebin, playbin) are not observed.
func (p *pipeline) OnPadAdded(fn func(gstplay.Pad)) {
	for _, child := range binChildren(p.native()) {
		elem := gst.FromGstElementUnsafeNone(child)
		if _, err := elem.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
			p.logger.Debug("gstengine: pad-added signal received",
				"element", self.GetName(),
				"pad", srcPad.GetName(),
			)
			fn(newPad(unsafe.Pointer(srcPad.Instance()), true))
		}); err != nil {
			p.logger.Warn("gstengine: could not observe pads", "element", elem.GetName(), "error", err)
		}
	}
}

func (p *pipeline) ColorBalance() (gstplay.ColorBalance, bool) {
	cb, ok := findColorBalance(p.native())
	if !ok {
		return nil, false
	}
	return cb, true
}

func (p *pipeline) VideoPad() (gstplay.Pad, bool) {
	vp, ok := videoPad(p.native())
	if !ok {
		return nil, false
	}
	return vp, true
}

func (p *pipeline) PostInterrupt() bool {
	msg := gst.NewApplicationMessage(p.element, gst.NewStructure(gstplay.InterruptStructure))
	return p.bus.Post(msg)
}

// Release detaches the bus watch and sync handler, then drops the bus and
// element references; the finalizers unref them
func (p *pipeline) Release() {
	if p.bus != nil {
		detachBus(unsafe.Pointer(p.bus.Instance()))
	}
	p.bus = nil
	p.element = nil
}
