package gstengine

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/gstplay"
)

// ClassifyError sorts an engine error into a kind for logs and metrics.
//
// GError does not expose its domain through go-gst, so classification is a
// keyword match over the message and the debug string. Auth is checked
// first because it is the most specific, then codec, then network.
func ClassifyError(message, debug string) gstplay.ErrorKind {
	combined := strings.ToLower(message) + " " + strings.ToLower(debug)

	switch {
	case containsAny(combined, authKeywords):
		return gstplay.KindAuth
	case containsAny(combined, codecKeywords):
		return gstplay.KindCodec
	case containsAny(combined, networkKeywords):
		return gstplay.KindNetwork
	default:
		return gstplay.KindUnknown
	}
}

// engineError converts a bus error into a classified EngineError
func engineError(gerr *gst.GError) *gstplay.EngineError {
	if gerr == nil {
		return &gstplay.EngineError{Kind: gstplay.KindUnknown, Message: "unknown error"}
	}
	return &gstplay.EngineError{
		Kind:    ClassifyError(gerr.Error(), gerr.DebugString()),
		Message: gerr.Error(),
		Debug:   gerr.DebugString(),
	}
}

var authKeywords = []string{
	"unauthorized",
	"401",
	"403",
	"forbidden",
	"authentication",
	"credentials",
	"password",
	"username",
}

var codecKeywords = []string{
	"codec",
	"decode",
	"demux",
	"format",
	"negotiation",
	"not negotiated",
	"caps",
	"no decoder",
	"missing plugin",
	"type not found",
	"could not determine type",
}

var networkKeywords = []string{
	"connection",
	"timeout",
	"timed out",
	"unreachable",
	"network",
	"dns",
	"resolve",
	"socket",
	"tcp",
	"udp",
	"http",
	"rtsp",
	"could not connect",
	"failed to connect",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
