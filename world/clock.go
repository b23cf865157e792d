package world

import (
	"assaultwing/wire"
)

const maxCatchUpFrames = 120

// LagClock estimates the server frame from ping round trips so a client
// knows how old a received pose is.
type LagClock struct {
	offset int64
	rtt    int64
	known  bool
}

// Observe folds a pong received at the given local frame into the estimate.
func (c *LagClock) Observe(p *wire.Pong, localFrame int64) {
	rtt := localFrame - p.ClientFrame
	if rtt < 0 {
		return
	}
	offset := p.ServerFrame + rtt/2 - localFrame
	if !c.known {
		c.offset, c.rtt, c.known = offset, rtt, true
		return
	}
	// Smooth out jitter; a large jump means the server restarted its clock.
	if d := offset - c.offset; d > 30 || d < -30 {
		c.offset = offset
	} else {
		step := d / 4
		if step == 0 && d > 0 {
			step = 1
		} else if step == 0 && d < 0 {
			step = -1
		}
		c.offset += step
	}
	c.rtt = (3*c.rtt + rtt) / 4
}

func (c *LagClock) Known() bool {
	return c.known
}

// RoundTrip is the smoothed round trip time in frames.
func (c *LagClock) RoundTrip() int64 {
	return c.rtt
}

func (c *LagClock) ServerFrame(localFrame int64) int64 {
	return localFrame + c.offset
}

// FramesAgo is how many frames ago the server produced a message stamped
// with serverFrame.
func (c *LagClock) FramesAgo(serverFrame, localFrame int64) int {
	if !c.known {
		return 0
	}
	ago := c.ServerFrame(localFrame) - serverFrame
	if ago < 0 {
		return 0
	}
	if ago > maxCatchUpFrames {
		return maxCatchUpFrames
	}
	return int(ago)
}
