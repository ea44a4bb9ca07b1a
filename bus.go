package gstplay

// errorTitle is the title of the dialog shown for asynchronous engine errors
const errorTitle = "Processing error (unrecognized format or other error)."

// handleMessage dispatches one queued bus message posted by src.
//
// loop is the loop that runs while src is alive: the player's loop, or the
// nested loop of a discovery probe. Returning false removes the watch.
func (p *Player) handleMessage(src Pipeline, loop Loop, msg Message) bool {
	probing := p.probe != nil && src == p.probe.pipeline
	if !probing && src != p.pipeline {
		// Pipeline was replaced or destroyed
		return false
	}
	if !probing && p.destroying {
		// Destroy drains the loop between state changes; nothing may react to
		// the pipeline being wound down.
		return true
	}

	switch msg.Type {
	case MessageEOS:
		if probing {
			p.probe.finish(errProbeEnded)
			loop.Quit()
			return true
		}
		p.endOfStream = true
		p.logger.Info("gstplay: end of stream", "run_id", p.runID)
		if p.host.QuitOnStreamEnd() || !p.host.HaveGUI() {
			p.Destroy()
			loop.Quit()
			return false
		}

	case MessageError:
		err := msg.Err
		if err == nil {
			err = &EngineError{Kind: KindUnknown, Message: "unknown error"}
		}
		if probing {
			p.probe.finish(err)
			loop.Quit()
			return true
		}

		p.logger.Error("gstplay: pipeline error",
			"run_id", p.runID,
			"error", err.Message,
			"debug", err.Debug,
			"kind", err.Kind.String(),
			"description", p.description,
		)
		p.Destroy()
		p.host.ShowError(errorTitle, err.Message)
		p.notifyError(err)
		return false

	case MessageStateChanged:
		if probing {
			// Stop the probe as soon as playback starts
			if src.CurrentState() == StatePlaying {
				loop.Quit()
			}
			return true
		}
		if msg.Source == src.Name() {
			p.logger.Debug("gstplay: pipeline state changed",
				"run_id", p.runID,
				"from", msg.OldState,
				"to", msg.NewState,
			)
			for _, o := range p.observers {
				o.StateChanged(msg.OldState, msg.NewState)
			}
		}
		if p.applyDefaultsOnPlaying && src.CurrentState() == StatePlaying {
			p.applyDefaultsOnPlaying = false
			p.ApplyDefaultSettings()
		}

	case MessageBuffering:
		if probing {
			return true
		}
		for _, o := range p.observers {
			o.Buffering(msg.Percent)
		}
		state := src.CurrentState()
		if msg.Percent < 100 {
			if state != StatePaused {
				p.logger.Debug("gstplay: buffering, pausing", "run_id", p.runID, "percent", msg.Percent)
				_ = src.SetState(StatePaused)
			}
		} else if state != StatePlaying {
			p.logger.Debug("gstplay: buffering done, resuming", "run_id", p.runID)
			_ = src.SetState(StatePlaying)
		}

	case MessageApplication:
		if msg.Structure == InterruptStructure {
			p.logger.Info("gstplay: interrupt: stopping pipeline", "run_id", p.runID)
			p.Destroy()
			loop.Quit()
			return false
		}
	}

	return true
}

// handleSync binds the host window to the video sink asking for one.
//
// It runs on the sink's streaming thread, before the sink renders its first
// frame, which is why it cannot wait for the queued watch.
func (p *Player) handleSync(msg Message) SyncReply {
	if msg.Type != MessageElement || msg.Overlay == nil {
		return SyncPass
	}

	handle := p.host.VideoWindowHandle()
	if handle == 0 {
		p.logger.Warn("gstplay: video sink requested a window but host has none")
		return SyncPass
	}

	msg.Overlay.SetWindowHandle(handle)

	p.overlayMu.Lock()
	p.overlay = msg.Overlay
	p.overlayMu.Unlock()

	p.logger.Debug("gstplay: video window bound", "sink", msg.Source, "handle", handle)
	return SyncDrop
}

// ExposeVideoOverlay asks the bound video sink to redraw its last frame
func (p *Player) ExposeVideoOverlay() {
	p.overlayMu.Lock()
	overlay := p.overlay
	p.overlayMu.Unlock()

	if overlay == nil {
		return
	}
	overlay.Expose()
}
