package gstplay

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPipeline is returned by operations that need a live pipeline
	ErrNoPipeline = errors.New("gstplay: no pipeline")
	// ErrQueryFailed is returned when the engine could not answer a position or duration query
	ErrQueryFailed = errors.New("gstplay: query failed")
	// ErrUnsupported is returned when the pipeline lacks the requested property
	ErrUnsupported = errors.New("gstplay: operation not supported by pipeline")
	// ErrVersionMismatch is returned when the runtime engine major version differs from the compiled one
	ErrVersionMismatch = errors.New("gstplay: engine major version mismatch")
)

// ParseError reports a malformed pipeline description
type ParseError struct {
	Description string
	// Message is the engine diagnostic
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gstplay: could not create pipeline: parse error: %s", e.Message)
}

// ErrorKind classifies asynchronous engine errors for reporting
type ErrorKind int

const (
	// KindNetwork indicates connection, timeout or DNS failures
	KindNetwork ErrorKind = iota
	// KindCodec indicates format, negotiation or decoder failures
	KindCodec
	// KindAuth indicates authentication or authorization failures
	KindAuth
	// KindUnknown indicates unclassified errors
	KindUnknown
)

// String returns a human-readable string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindCodec:
		return "codec"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// EngineError is an error posted asynchronously by the engine on the bus
type EngineError struct {
	Kind    ErrorKind
	Message string
	Debug   string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("gstplay: engine error [%s]: %s", e.Kind, e.Message)
}
