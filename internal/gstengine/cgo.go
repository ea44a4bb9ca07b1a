package gstengine

/*
#cgo pkg-config: gstreamer-1.0 gstreamer-video-1.0
#include "shim.h"
*/
import "C"

import (
	"errors"
	"runtime"
	"unsafe"

	"github.com/e7canasta/gstplay"
)

// parseLaunch runs gst_parse_launch directly; any reported error is fatal,
// including recoverable ones that still produce an element.
func parseLaunch(description string) (unsafe.Pointer, error) {
	cdesc := C.CString(description)
	defer C.free(unsafe.Pointer(cdesc))

	var cerr *C.char
	elem := C.gstplay_parse_launch(cdesc, &cerr)
	if elem == nil {
		msg := "unknown parse error"
		if cerr != nil {
			msg = C.GoString(cerr)
			C.g_free(C.gpointer(unsafe.Pointer(cerr)))
		}
		return nil, errors.New(msg)
	}
	return unsafe.Pointer(elem), nil
}

func binChildren(elem unsafe.Pointer) []unsafe.Pointer {
	var n C.guint
	arr := C.gstplay_bin_children((*C.GstElement)(elem), &n)
	if arr == nil {
		return nil
	}
	defer C.g_free(C.gpointer(unsafe.Pointer(arr)))

	children := make([]unsafe.Pointer, 0, int(n))
	for _, child := range unsafe.Slice(arr, int(n)) {
		children = append(children, unsafe.Pointer(child))
	}
	return children
}

func waitState(elem unsafe.Pointer) gstplay.State {
	return gstplay.State(C.gstplay_wait_state((*C.GstElement)(elem)))
}

// detachBus removes the watch and sync handler of a bus and reports whether
// a watch was installed
func detachBus(bus unsafe.Pointer) bool {
	return C.gstplay_bus_detach((*C.GstBus)(bus)) != 0
}

// gstObject owns one reference on a GstObject, dropped by the finalizer
type gstObject struct {
	ptr unsafe.Pointer
}

func newObject(ptr unsafe.Pointer, addRef bool) *gstObject {
	if addRef {
		C.gstplay_object_ref(C.gpointer(ptr))
	}
	obj := &gstObject{ptr: ptr}
	runtime.SetFinalizer(obj, func(o *gstObject) {
		C.gstplay_object_unref(C.gpointer(o.ptr))
	})
	return obj
}

// overlay is a video sink implementing GstVideoOverlay
type overlay struct {
	obj *gstObject
}

// prepareWindowOverlay returns the sink of a prepare-window-handle message
func prepareWindowOverlay(msg unsafe.Pointer) (*overlay, bool) {
	ov := C.gstplay_prepare_window_overlay((*C.GstMessage)(msg))
	if ov == nil {
		return nil, false
	}
	return &overlay{obj: newObject(unsafe.Pointer(ov), false)}, true
}

func (o *overlay) SetWindowHandle(handle uintptr) {
	C.gstplay_overlay_set_handle((*C.GstVideoOverlay)(o.obj.ptr), C.guintptr(handle))
}

func (o *overlay) Expose() {
	C.gstplay_overlay_expose((*C.GstVideoOverlay)(o.obj.ptr))
}

// colorBalance is the GstColorBalance provider of a pipeline
type colorBalance struct {
	obj *gstObject
}

func findColorBalance(elem unsafe.Pointer) (*colorBalance, bool) {
	cb := C.gstplay_find_color_balance((*C.GstElement)(elem))
	if cb == nil {
		return nil, false
	}
	return &colorBalance{obj: newObject(unsafe.Pointer(cb), false)}, true
}

func (b *colorBalance) native() *C.GstColorBalance {
	return (*C.GstColorBalance)(b.obj.ptr)
}

func (b *colorBalance) Channels() []gstplay.ColorChannel {
	n := int(C.gstplay_balance_channel_count(b.native()))
	channels := make([]gstplay.ColorChannel, 0, n)
	for i := 0; i < n; i++ {
		var lo, hi C.int
		label := C.gstplay_balance_channel(b.native(), C.guint(i), &lo, &hi)
		if label == nil {
			continue
		}
		channels = append(channels, gstplay.ColorChannel{
			Label: C.GoString(label),
			Min:   int(lo),
			Max:   int(hi),
		})
	}
	return channels
}

func (b *colorBalance) Value(ch gstplay.ColorChannel) int {
	clabel := C.CString(ch.Label)
	defer C.free(unsafe.Pointer(clabel))
	return int(C.gstplay_balance_get(b.native(), clabel))
}

func (b *colorBalance) SetValue(ch gstplay.ColorChannel, value int) {
	clabel := C.CString(ch.Label)
	defer C.free(unsafe.Pointer(clabel))
	C.gstplay_balance_set(b.native(), clabel, C.int(value))
}

// pad holds a reference on a GstPad
type pad struct {
	obj *gstObject
}

func newPad(ptr unsafe.Pointer, addRef bool) *pad {
	return &pad{obj: newObject(ptr, addRef)}
}

func videoPad(elem unsafe.Pointer) (*pad, bool) {
	p := C.gstplay_video_pad((*C.GstElement)(elem))
	if p == nil {
		return nil, false
	}
	return newPad(unsafe.Pointer(p), false), true
}

func (p *pad) Name() string {
	cname := C.gstplay_pad_name((*C.GstPad)(p.obj.ptr))
	if cname == nil {
		return ""
	}
	defer C.g_free(C.gpointer(unsafe.Pointer(cname)))
	return C.GoString(cname)
}

func (p *pad) CurrentCaps() (gstplay.Caps, bool) {
	var c C.gstplay_caps
	if C.gstplay_pad_caps((*C.GstPad)(p.obj.ptr), &c) == 0 {
		return gstplay.Caps{}, false
	}
	caps := gstplay.Caps{
		Fixed:        c.fixed != 0,
		Width:        int(c.width),
		Height:       int(c.height),
		FramerateNum: int(c.fps_n),
		FramerateDen: int(c.fps_d),
		ParNum:       int(c.par_n),
		ParDen:       int(c.par_d),
	}
	if c.format != nil {
		caps.Format = C.GoString(c.format)
	}
	return caps, true
}

func runtimeVersion() gstplay.Version {
	var major, minor, micro C.guint
	C.gstplay_runtime_version(&major, &minor, &micro)
	return gstplay.Version{Major: uint(major), Minor: uint(minor), Micro: uint(micro)}
}

func compiledVersion() gstplay.Version {
	var major, minor, micro C.guint
	C.gstplay_compiled_version(&major, &minor, &micro)
	return gstplay.Version{Major: uint(major), Minor: uint(minor), Micro: uint(micro)}
}
