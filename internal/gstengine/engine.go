// Package gstengine implements the player's Engine and Loop on GStreamer 1.x.
//
// Pipelines, bus watches, state changes and queries go through go-gst. The
// video overlay, color balance, caps and version interfaces are not wrapped
// by go-gst and are reached through a small cgo shim.
package gstengine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/gstplay"
)

var initOnce sync.Once

// Engine builds GStreamer pipelines
type Engine struct {
	logger   *slog.Logger
	runtime  gstplay.Version
	compiled gstplay.Version
}

// New initializes GStreamer and checks the runtime library against the one
// the binary was compiled with.
//
// A different major version is fatal (ErrVersionMismatch); a different minor
// version is logged.
func New(logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Initialize GStreamer once per process
	initOnce.Do(func() { gst.Init(nil) })

	e := &Engine{
		logger:   logger,
		runtime:  runtimeVersion(),
		compiled: compiledVersion(),
	}

	if err := checkVersion(e.runtime, e.compiled); err != nil {
		return nil, err
	}
	if e.runtime.Minor != e.compiled.Minor {
		logger.Warn("gstengine: runtime minor version differs from compiled",
			"runtime", e.runtime.String(),
			"compiled", e.compiled.String(),
		)
	}

	logger.Debug("gstengine: initialized", "version", e.runtime.String())
	return e, nil
}

func checkVersion(runtime, compiled gstplay.Version) error {
	if runtime.Major != compiled.Major {
		return fmt.Errorf("%w: runtime %s, compiled %s",
			gstplay.ErrVersionMismatch, runtime.String(), compiled.String())
	}
	return nil
}

// Launch parses a gst-launch style description into a pipeline
func (e *Engine) Launch(description string) (gstplay.Pipeline, error) {
	ptr, err := parseLaunch(description)
	if err != nil {
		return nil, err
	}
	pl := newPipeline(ptr, e.logger)
	e.logger.Debug("gstengine: pipeline launched", "name", pl.Name())
	return pl, nil
}

// NewLoop returns a loop on the default main context
func (e *Engine) NewLoop() gstplay.Loop {
	return newLoop()
}

// RuntimeVersion returns the version of the linked GStreamer library
func (e *Engine) RuntimeVersion() gstplay.Version {
	return e.runtime
}

// CompiledVersion returns the version of the GStreamer headers
func (e *Engine) CompiledVersion() gstplay.Version {
	return e.compiled
}
