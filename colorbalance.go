package gstplay

// colorBalanceCache maps the logical channels onto the engine channels of
// the current pipeline and remembers the last value written to each.
type colorBalanceCache struct {
	element  ColorBalance
	channels [channelCount]*ColorChannel
	last     [channelCount]int
}

func (c *colorBalanceCache) reset() {
	*c = colorBalanceCache{}
}

// PrepareColorBalance enumerates the color balance channels of the current
// pipeline and returns which of the four logical channels are available.
func (p *Player) PrepareColorBalance() ChannelMask {
	if p.pipeline == nil {
		return 0
	}
	element, ok := p.pipeline.ColorBalance()
	if !ok {
		p.logger.Debug("gstplay: pipeline has no color balance", "run_id", p.runID)
		return 0
	}
	available := element.Channels()
	if len(available) == 0 {
		return 0
	}

	p.balance.reset()
	p.balance.element = element
	for i := range available {
		ch := available[i]
		for _, logical := range Channels {
			if ch.Label == logical.Label() {
				p.balance.channels[logical] = &ch
			}
		}
	}

	var mask ChannelMask
	for i, ch := range p.balance.channels {
		if ch == nil {
			continue
		}
		mask |= 1 << uint(i)
		p.balance.last[i] = element.Value(*ch)
	}

	p.logger.Debug("gstplay: color balance prepared", "run_id", p.runID, "mask", int(mask))
	return mask
}

// SetColorBalance sets a channel from a value in [0,100].
//
// The value is mapped linearly onto the channel's native range and only
// written when it differs from the last value written. Unavailable
// channels are ignored.
func (p *Player) SetColorBalance(ch Channel, value float64) {
	if !ch.valid() || p.balance.channels[ch] == nil {
		return
	}
	c := p.balance.channels[ch]
	v := int(float64(c.Min) + value*0.01*float64(c.Max-c.Min))
	if v == p.balance.last[ch] {
		return
	}
	p.balance.element.SetValue(*c, v)
	p.balance.last[ch] = v
}

// ColorBalance returns a channel normalized to [0,100], or -1 when the
// channel is unavailable.
func (p *Player) ColorBalance(ch Channel) float64 {
	if !ch.valid() || p.balance.channels[ch] == nil {
		p.logger.Warn("gstplay: could not read color balance channel", "channel", ch)
		return -1
	}
	c := p.balance.channels[ch]
	if c.Max == c.Min {
		return 0
	}
	v := float64(p.balance.element.Value(*c))
	return (v - float64(c.Min)) * 100.0 / float64(c.Max-c.Min)
}

// HasSoftwareColorBalance reports whether color balance is available without
// hardware support. playbin always provides a software fallback.
func (p *Player) HasSoftwareColorBalance() bool {
	return true
}

// ApplyDefaultSettings writes the host's default color balance values when
// software color balance is enabled.
func (p *Player) ApplyDefaultSettings() {
	if !p.host.SoftwareColorBalance() {
		return
	}
	p.PrepareColorBalance()
	for _, ch := range Channels {
		p.SetColorBalance(ch, p.host.ColorBalanceDefault(ch))
	}
}
