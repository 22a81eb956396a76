package modplayer

import "math"

const (
	minPeriod = 20
	maxPeriod = 20000
)

// ChannelState is the mutable per-channel play state the sequencer advances
// tick by tick and the mixer reads from to render PCM.
type ChannelState struct {
	Period int
	Sample int // 0 = no sample assigned, matches note.Sample's "keep current"
	Volume int // nominally 0..64; SetVolume stores its param unclamped, the
	// mixer bounds it at render time

	SamplePos    float64
	SampleLooped bool
	Panning      float64 // -1..+1

	volSlideActive   bool
	pitchSlideActive bool
	vibratoActive    bool
	tremoloActive    bool
	arpeggioActive   bool

	volSlide      int
	pitchSlide    int
	vibRate       int
	vibDepth      int
	vibPhase      int
	volOffset     int
	arpeggio1     int
	arpeggio2     int
	retriggerRate int
	noteCutIdx    int

	loopStart int
	loopCount int

	TrigOrder int
	TrigRow   int

	pitchOffset  float64 // semitones, from vibrato/arpeggio
	targetPeriod int
}

// clearLineEffects resets the per-line transient effect state. Pitch slide
// survives into the new line when the note's effect continues it (effect 5);
// vibrato similarly survives under effect 6.
func (c *ChannelState) clearLineEffects(effectType byte) {
	c.volSlideActive = false
	c.tremoloActive = false
	c.arpeggioActive = false
	c.volOffset = 0
	c.retriggerRate = 0
	c.noteCutIdx = 0

	if effectType != effectVolSlidePorta {
		c.pitchSlideActive = false
	}
	if effectType != effectVolSlideVibrato {
		c.vibratoActive = false
		c.pitchOffset = 0
	}
}

func (c *ChannelState) volumeSlideTick() {
	if !c.volSlideActive {
		return
	}
	c.Volume = clampInt(c.Volume+c.volSlide, 0, 64)
}

func (c *ChannelState) pitchSlideTick() {
	if !c.pitchSlideActive {
		return
	}
	period := c.Period + c.pitchSlide
	if c.targetPeriod != 0 {
		if c.pitchSlide > 0 {
			period = minInt(period, c.targetPeriod)
		} else {
			period = maxInt(period, c.targetPeriod)
		}
	}
	c.Period = clampInt(period, minPeriod, maxPeriod)
}

func (c *ChannelState) arpeggioTick(tickIdx int) {
	if !c.arpeggioActive {
		return
	}
	switch tickIdx % 3 {
	case 0:
		c.pitchOffset = 0
	case 1:
		c.pitchOffset = float64(c.arpeggio1)
	case 2:
		c.pitchOffset = float64(c.arpeggio2)
	}
}

// vibratoTremoloTick advances the shared phase counter and writes either
// pitchOffset (vibrato) or volOffset (tremolo). Both effects share one phase
// because ProTracker never has them active on the same channel at once.
func (c *ChannelState) vibratoTremoloTick() {
	if !c.vibratoActive && !c.tremoloActive {
		return
	}
	c.vibPhase++
	oscPerTick := float64(c.vibRate) / 64.0
	wave := sinApprox(float64(c.vibPhase) * oscPerTick * 2 * math.Pi)

	if c.vibratoActive {
		c.pitchOffset = wave * float64(c.vibDepth) / 16.0
	} else {
		c.volOffset = int(int8(wave * float64(c.vibDepth)))
	}
}

func (c *ChannelState) retriggerTick(tickIdx int) {
	if c.retriggerRate > 0 && tickIdx%c.retriggerRate == 0 {
		c.SamplePos = 0
	}
}

// noteCutTick compares for exact equality, not >=: a note-cut index at or
// past the line's tick count never fires.
func (c *ChannelState) noteCutTick(tickIdx int) {
	if c.noteCutIdx != 0 && c.noteCutIdx == tickIdx {
		c.Volume = 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sinApprox is a parabolic sine approximation, cheap enough to call once per
// channel per tick. Accurate to within the tolerance vibrato/tremolo need.
func sinApprox(x float64) float64 {
	const tau = 2 * math.Pi
	for x > math.Pi {
		x -= tau
	}
	for x < -math.Pi {
		x += tau
	}
	if x < 0 {
		return 1.27323954*x + 0.405284735*x*x
	}
	return 1.27323954*x - 0.405284735*x*x
}
