package gstplay

// Volume returns the audio volume as a 0.0-1.0 fraction.
//
// Only playbin pipelines have a volume; for others 0 is returned and a
// warning logged.
func (p *Player) Volume() float64 {
	if !p.host.UsesPlaybin() {
		p.logger.Warn("gstplay: could not get audio volume because playbin is not used", "error", ErrUnsupported)
		return 0
	}
	if p.pipeline == nil {
		return 0
	}
	volume, err := p.pipeline.Volume()
	if err != nil {
		p.logger.Warn("gstplay: could not get audio volume", "run_id", p.runID, "error", err)
		return 0
	}
	return volume
}

// SetVolume sets the audio volume, clamped to 0.0-1.0.
// It is skipped with a warning when the pipeline has no volume.
func (p *Player) SetVolume(volume float64) {
	if !p.host.UsesPlaybin() {
		p.logger.Warn("gstplay: could not set audio volume because playbin is not used", "error", ErrUnsupported)
		return
	}
	if p.pipeline == nil {
		return
	}
	switch {
	case volume < 0:
		volume = 0
	case volume > 1:
		volume = 1
	}
	if err := p.pipeline.SetVolume(volume); err != nil {
		p.logger.Warn("gstplay: could not set audio volume", "run_id", p.runID, "error", err)
	}
}

// VideoInfo scans the pads observed while the pipeline was built.
//
// For each pad with fixed caps, every field that carries a value overwrites
// the result; framerate and pixel aspect ratio need both terms non-zero.
// Without fixed caps the zero VideoInfo is returned.
func (p *Player) VideoInfo() VideoInfo {
	var info VideoInfo
	for _, pad := range p.observedPads() {
		caps, ok := pad.CurrentCaps()
		if !ok || !caps.Fixed {
			continue
		}
		info.merge(caps)
	}
	return info
}

// VideoDimensions returns the negotiated video width and height, 0 when unknown
func (p *Player) VideoDimensions() (width, height int) {
	info := p.VideoInfo()
	return info.Width, info.Height
}

// HasVideo reports whether a pipeline exists and negotiated a video size
func (p *Player) HasVideo() bool {
	if !p.HasPipeline() {
		return false
	}
	width, height := p.VideoDimensions()
	return width != 0 && height != 0
}
