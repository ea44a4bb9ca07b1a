package gstplay

import (
	"fmt"
	"time"
)

// Play sets the pipeline to PLAYING
func (p *Player) Play() {
	p.setState(StatePlaying)
}

// Pause sets the pipeline to PAUSED
func (p *Player) Pause() {
	p.setState(StatePaused)
}

func (p *Player) setState(state State) {
	if p.pipeline == nil {
		p.logger.Debug("gstplay: no pipeline, state change skipped", "target", state)
		return
	}
	if err := p.pipeline.SetState(state); err != nil {
		p.logger.Warn("gstplay: state change failed", "run_id", p.runID, "target", state, "error", err)
	}
}

// Seek moves playback to position (nanoseconds) and clears end-of-stream
func (p *Player) Seek(position int64) {
	p.endOfStream = false
	if p.pipeline == nil {
		p.logger.Debug("gstplay: no pipeline, seek skipped", "position", time.Duration(position))
		return
	}
	if !p.pipeline.Seek(position) {
		p.logger.Warn("gstplay: seek failed", "run_id", p.runID, "position", time.Duration(position))
	}
}

// Position returns the playback position in nanoseconds.
//
// After end-of-stream the duration is reported. ErrQueryFailed is returned
// when the engine cannot answer; callers decide whether to retry.
func (p *Player) Position() (int64, error) {
	if p.pipeline == nil {
		return 0, ErrNoPipeline
	}

	if p.endOfStream {
		if length, ok := p.pipeline.QueryDuration(); ok {
			return length, nil
		}
		return 0, ErrQueryFailed
	}

	if pos, ok := p.pipeline.QueryPosition(); ok {
		if _, ok := p.pipeline.QueryDuration(); ok {
			return pos, nil
		}
	}

	p.logger.Debug("gstplay: could not query current position", "run_id", p.runID)
	return 0, ErrQueryFailed
}

// Duration returns the stream duration in nanoseconds, 0 when unknown
func (p *Player) Duration() int64 {
	if p.pipeline == nil {
		return 0
	}
	length, ok := p.pipeline.QueryDuration()
	if !ok {
		return 0
	}
	return length
}

// DurationString returns Duration formatted as H:MM:SS.nnnnnnnnn
func (p *Player) DurationString() string {
	return FormatTime(p.Duration())
}

// IsEndOfStream reports whether the pipeline reached end-of-stream since
// the last Run or Seek
func (p *Player) IsEndOfStream() bool {
	return p.endOfStream
}

// FormatTime formats nanoseconds like GStreamer's GST_TIME_FORMAT.
// Negative values are the unknown time and render as 99:99:99.999999999.
func FormatTime(ns int64) string {
	if ns < 0 {
		return "99:99:99.999999999"
	}
	const second = int64(time.Second)
	hours := ns / (3600 * second)
	minutes := (ns / (60 * second)) % 60
	seconds := (ns / second) % 60
	return fmt.Sprintf("%d:%02d:%02d.%09d", hours, minutes, seconds, ns%second)
}
