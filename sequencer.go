package modplayer

// Effect type codes, upper nibble of the note's effect byte pair.
const (
	effectArpeggio        = 0x0
	effectSlideUp         = 0x1
	effectSlideDown       = 0x2
	effectSlideToNote     = 0x3
	effectVibrato         = 0x4
	effectVolSlidePorta   = 0x5
	effectVolSlideVibrato = 0x6
	effectTremolo         = 0x7
	effectSetPan          = 0x8 // unimplemented, see spec.md Non-goals
	effectSampleOffset    = 0x9
	effectVolSlide        = 0xA
	effectPositionJump    = 0xB
	effectSetVolume       = 0xC
	effectPatternBreak    = 0xD
	effectExtended        = 0xE
	effectSetSpeed        = 0xF
)

// Extended (Exy) sub-effect codes, dispatched on x.
const (
	extFineSlideUp       = 0x1
	extFineSlideDown     = 0x2
	extPatternLoop       = 0x6
	extRetrigger         = 0x9
	extFineVolSlideUp    = 0xA
	extFineVolSlideDown  = 0xB
	extNoteCut           = 0xC
	extPatternDelay      = 0xE
)

// advance steps the sequencer to its next tick boundary, latching a new line
// when the current one's ticks are exhausted. Called from the mixer's decode
// loop once frames_until_next_tick reaches zero.
func (p *Player) advance() {
	p.tickIdx++
	if p.tickIdx != p.speed+p.patternDelay {
		p.executeTick()
		p.recomputeFramesUntilNextTick()
		return
	}

	p.tickIdx = 0
	p.patternDelay = 0
	p.lineIdx++

	if p.pendingJump || p.lineIdx >= rowsPerPattern {
		oldOrderIdx := p.orderIdx

		if p.pendingJump {
			p.lineIdx = p.jumpLine
			p.orderIdx = p.jumpPattern
			p.pendingJump = false
		} else {
			p.lineIdx = 0
			p.orderIdx++
		}

		if p.orderIdx >= len(p.Module.Order) {
			p.orderIdx = 0 // loop the song forever
		}

		if p.orderIdx != oldOrderIdx {
			for i := range p.channels {
				p.channels[i].loopStart = 0
				p.channels[i].loopCount = 0
			}
		}
	}

	p.executeLine()
	p.recomputeFramesUntilNextTick()
}

// executeLine latches the new line's notes onto each channel and runs each
// note's effect dispatcher once.
func (p *Player) executeLine() {
	pattern := p.currentPattern()
	base := p.lineIdx * p.Module.NumChannels

	for i := range p.channels {
		ch := &p.channels[i]
		note := pattern.Notes[base+i]

		ch.clearLineEffects(note.EffectType)

		if (note.Period != 0 || note.Sample != 0) && note.EffectType != effectSlideToNote {
			if note.Period != 0 {
				ch.Period = note.Period
			}
			if note.Sample != 0 {
				ch.Sample = note.Sample
			}
			ch.SamplePos = 0
			ch.SampleLooped = false
			if ch.Sample > 0 {
				ch.Volume = p.Module.Samples[ch.Sample].Volume
			}
			ch.TrigOrder = p.orderIdx
			ch.TrigRow = p.lineIdx

			if note.EffectType != effectVibrato && note.EffectType != effectTremolo && note.EffectType != effectVolSlideVibrato {
				ch.vibPhase = 0
			}
		}

		p.executeEffect(ch, note)
	}

	p.publishPosition()
}

// executeTick advances every channel's continuously running effects by one
// tick. Called on every tick that is not a line boundary.
func (p *Player) executeTick() {
	for i := range p.channels {
		ch := &p.channels[i]
		ch.volumeSlideTick()
		ch.pitchSlideTick()
		ch.arpeggioTick(p.tickIdx)
		ch.vibratoTremoloTick()
		ch.retriggerTick(p.tickIdx)
		ch.noteCutTick(p.tickIdx)
	}
}

func (p *Player) recomputeFramesUntilNextTick() {
	secondsPerTick := 1.0 / (0.4 * float64(p.bpm))
	p.framesUntilNextTick = int(float64(p.sampleRate) * secondsPerTick)
}

func (p *Player) currentPattern() *Pattern {
	patIdx := p.Module.Order[p.orderIdx]
	return &p.Module.Patterns[patIdx]
}

func (p *Player) executeEffect(ch *ChannelState, note Note) {
	x := int(note.EffectParam >> 4)
	y := int(note.EffectParam & 0x0F)
	param := int(note.EffectParam)

	switch note.EffectType {
	case effectArpeggio:
		if param != 0 {
			ch.arpeggioActive = true
			ch.arpeggio1 = x
			ch.arpeggio2 = y
		}
	case effectSlideUp:
		ch.pitchSlideActive = true
		ch.pitchSlide = -param
		ch.targetPeriod = 0
	case effectSlideDown:
		ch.pitchSlideActive = true
		ch.pitchSlide = param
		ch.targetPeriod = 0
	case effectSlideToNote:
		ch.pitchSlideActive = true
		if note.Period != 0 {
			ch.targetPeriod = note.Period
		}
		if param != 0 {
			if ch.targetPeriod > ch.Period {
				ch.pitchSlide = param
			} else {
				ch.pitchSlide = -param
			}
		}
	case effectVibrato:
		ch.vibratoActive = true
		if x != 0 {
			ch.vibRate = x
		}
		if y != 0 {
			ch.vibDepth = y
		}
	case effectVolSlidePorta:
		// Pitch slide continuation happens in clearLineEffects, not here.
		p.executeVolSlide(ch, x, y)
	case effectVolSlideVibrato:
		// Vibrato continuation happens in clearLineEffects, not here.
		p.executeVolSlide(ch, x, y)
	case effectTremolo:
		ch.tremoloActive = true
		if x != 0 {
			ch.vibRate = x
		}
		if y != 0 {
			// Stale on purpose: if speed changes later this value does not
			// get recomputed until the effect is re-latched.
			ch.vibDepth = y * (p.speed - 1)
		}
	case effectSetPan:
		// unimplemented, see spec.md Non-goals
	case effectSampleOffset:
		if param > 0 {
			ch.SamplePos = float64(256 * param)
		}
	case effectVolSlide:
		p.executeVolSlide(ch, x, y)
	case effectPositionJump:
		if !p.pendingJump {
			p.jumpLine = 0
		}
		p.jumpPattern = param
		p.pendingJump = true
	case effectSetVolume:
		// Not clamped here: the mixer clamps at render time (mixer.go),
		// matching the original source's behavior of storing whatever the
		// effect param says and bounding volume only where it's applied.
		ch.Volume = param
	case effectPatternBreak:
		if !p.pendingJump {
			p.jumpPattern = p.orderIdx + 1
		}
		p.jumpLine = x*10 + y
		p.pendingJump = true
	case effectExtended:
		p.executeExtendedEffect(ch, x, y)
	case effectSetSpeed:
		speed := maxInt(1, param)
		if speed <= 32 {
			p.speed = speed
		} else {
			p.bpm = speed
		}
	}
}

func (p *Player) executeVolSlide(ch *ChannelState, x, y int) {
	ch.volSlideActive = true
	if x != 0 {
		ch.volSlide = x
	} else {
		ch.volSlide = -y
	}
}

func (p *Player) executeExtendedEffect(ch *ChannelState, x, y int) {
	switch x {
	case extFineSlideUp:
		ch.Period = clampInt(ch.Period-y, minPeriod, maxPeriod)
	case extFineSlideDown:
		ch.Period = clampInt(ch.Period+y, minPeriod, maxPeriod)
	case extPatternLoop:
		if y == 0 {
			ch.loopStart = p.lineIdx
		} else if ch.loopCount == 0 {
			ch.loopCount = y
			p.jumpLine = ch.loopStart
			p.jumpPattern = p.orderIdx
			p.pendingJump = true
		} else {
			ch.loopCount--
			if ch.loopCount > 0 {
				p.jumpLine = ch.loopStart
				p.jumpPattern = p.orderIdx
				p.pendingJump = true
			}
		}
	case extRetrigger:
		ch.retriggerRate = y
	case extFineVolSlideUp:
		ch.Volume = minInt(ch.Volume+y, 64)
	case extFineVolSlideDown:
		ch.Volume = maxInt(ch.Volume-y, 0)
	case extNoteCut:
		if y == 0 {
			ch.Volume = 0
		} else {
			ch.noteCutIdx = y
		}
	case extPatternDelay:
		p.patternDelay = y * p.speed
	default:
		// SetFilter, Glissando, SetVibWave, SetFineTune, SetTremWave,
		// SetCoursePan, NoteDelay, InvertLoop: recognized, no-op. See
		// spec.md Non-goals.
	}
}
