package gstplay

import (
	"errors"
	"fmt"
)

var errProbeEnded = errors.New("gstplay: stream ended before playback started")

// probeState tracks a throwaway discovery pipeline
type probeState struct {
	pipeline Pipeline
	err      error
}

func (s *probeState) finish(err error) {
	if s.err == nil {
		s.err = err
	}
}

// probeDescription is the launch line of a discovery probe; output goes to
// fake sinks so nothing is rendered.
func probeDescription(uri string) string {
	return fmt.Sprintf("playbin uri=%s audio-sink=fakesink video-sink=fakesink", uri)
}

// DetermineVideoDimensions runs a throwaway pipeline on a nested loop until it
// plays, then reads the negotiated size of its video stream.
//
// The current pipeline, if any, is not touched.
func (p *Player) DetermineVideoDimensions(uri string) (width, height int, err error) {
	description := probeDescription(uri)
	pl, err := p.engine.Launch(description)
	if err != nil {
		p.logger.Error("gstplay: could not create pipeline for identification", "uri", uri, "error", err)
		return 0, 0, &ParseError{Description: description, Message: err.Error()}
	}

	loop := p.engine.NewLoop()
	probe := &probeState{pipeline: pl}
	p.probe = probe
	defer func() {
		p.probe = nil
		_ = pl.SetState(StateNull)
		pl.Release()
	}()

	pl.AddWatch(func(msg Message) bool {
		return p.handleMessage(pl, loop, msg)
	})

	_ = pl.SetState(StateReady)
	_ = pl.SetState(StatePlaying)
	loop.Run()

	if probe.err != nil {
		return 0, 0, fmt.Errorf("gstplay: probe %s: %w", uri, probe.err)
	}

	_ = pl.SetState(StatePaused)

	pad, ok := pl.VideoPad()
	if !ok {
		return 0, 0, fmt.Errorf("gstplay: probe %s: no video stream: %w", uri, ErrQueryFailed)
	}
	caps, ok := pad.CurrentCaps()
	if !ok {
		return 0, 0, fmt.Errorf("gstplay: probe %s: video caps not negotiated: %w", uri, ErrQueryFailed)
	}

	p.logger.Debug("gstplay: probed video dimensions", "uri", uri, "width", caps.Width, "height", caps.Height)
	return caps.Width, caps.Height, nil
}
