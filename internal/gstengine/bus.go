package gstengine

import (
	"unsafe"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/gstplay"
)

// convertMessage reduces a bus message to the fields the dispatcher reads
func convertMessage(msg *gst.Message) gstplay.Message {
	out := gstplay.Message{Source: msg.Source()}

	switch msg.Type() {
	case gst.MessageEOS:
		out.Type = gstplay.MessageEOS

	case gst.MessageError:
		out.Type = gstplay.MessageError
		out.Err = engineError(msg.ParseError())

	case gst.MessageStateChanged:
		out.Type = gstplay.MessageStateChanged
		oldState, newState := msg.ParseStateChanged()
		out.OldState = gstplay.State(oldState)
		out.NewState = gstplay.State(newState)

	case gst.MessageBuffering:
		out.Type = gstplay.MessageBuffering
		out.Percent = int(msg.ParseBuffering())

	case gst.MessageApplication:
		out.Type = gstplay.MessageApplication
		if s := msg.GetStructure(); s != nil {
			out.Structure = s.Name()
		}

	case gst.MessageElement:
		out.Type = gstplay.MessageElement
		if s := msg.GetStructure(); s != nil {
			out.Structure = s.Name()
		}

	default:
		out.Type = gstplay.MessageUnknown
	}

	return out
}

// convertSyncMessage also resolves the overlay of prepare-window-handle
// messages; it runs on the posting thread.
func convertSyncMessage(msg *gst.Message) gstplay.Message {
	out := convertMessage(msg)
	if out.Type != gstplay.MessageElement {
		return out
	}
	if ov, ok := prepareWindowOverlay(unsafe.Pointer(msg.Instance())); ok {
		out.Overlay = ov
	}
	return out
}

func toSyncReply(reply gstplay.SyncReply) gst.BusSyncReply {
	if reply == gstplay.SyncDrop {
		return gst.BusDrop
	}
	return gst.BusPass
}
