package modplayer

import "math"

const (
	retraceNTSCHz = 7159090.5 // Amiga NTSC vertical retrace timing

	// maxSubBlock bounds how many frames are rendered between sequencer
	// ticks, independent of the caller's requested frame count, so the
	// scratch buffers never grow unbounded.
	maxSubBlock = 1024
)

// renderChannel fills buf (one float per output frame) with the channel's
// current sample playback, stepping sample_pos by a rate derived from its
// period, pitch offset and fine tune. It mutates ch's sample position and
// loop state in place.
func renderChannel(ch *ChannelState, samples *[32]Sample, sampleRate int, buf []float32) {
	if ch.Sample == 0 || ch.Period <= minPeriod {
		for i := range buf {
			buf[i] = 0
		}
		return
	}

	sample := &samples[ch.Sample]
	sampleRateHz := retraceNTSCHz / (2.0 * float64(ch.Period))
	if ch.pitchOffset != 0 || sample.FineTune != 0 {
		semitones := ch.pitchOffset + float64(sample.FineTune)/8.0
		sampleRateHz *= math.Exp2(semitones / 12.0)
	}
	step := sampleRateHz / float64(sampleRate)

	pos := ch.SamplePos
	for i := range buf {
		sampleEnd := sample.Length
		if ch.SampleLooped {
			sampleEnd = sample.RepeatOffset + sample.RepeatLength
		}

		if pos >= float64(sampleEnd) {
			buf[i] = 0
			continue
		}

		idx := int(pos)
		t := pos - float64(idx)
		s0 := sample.Data[idx]
		s1 := sample.Data[minInt(idx+1, sampleEnd-1)]
		s := float64(s0) + t*(float64(s1)-float64(s0))

		vol := clampInt(ch.Volume+ch.volOffset, 0, 64)
		buf[i] = float32(s * float64(vol) / 64.0)

		pos += step
		if pos >= float64(sampleEnd) && sample.Loop {
			pos = float64(sample.RepeatOffset) + (pos - float64(sampleEnd))
			ch.SampleLooped = true
		}
	}
	ch.SamplePos = pos
}

// mixInto adds gain-and-panning-scaled channel output into the interleaved
// output buffer. outChannels is 1 (mono) or 2 (stereo).
func mixInto(chanBuf []float32, out []float32, outChannels, numChannels int, panning, stereoWidth float64) {
	gain := float64(outChannels) / float64(numChannels)

	if outChannels == 1 {
		for i, s := range chanBuf {
			out[i] += float32(gain) * s
		}
		return
	}

	pan := clampFloat(panning*stereoWidth, -1, 1)
	leftGain := float32(gain * (0.5 - 0.5*pan))
	rightGain := float32(gain * (0.5 + 0.5*pan))
	for i, s := range chanBuf {
		out[i*2+0] += leftGain * s
		out[i*2+1] += rightGain * s
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renderFrames fills out (interleaved, outChannels per frame) with numFrames
// of mixed audio from every channel's current state, without advancing the
// sequencer. Callers must only request up to frames_until_next_tick frames.
func (p *Player) renderFrames(numFrames int, out []float32) {
	for i := range out[:numFrames*p.channelCount] {
		out[i] = 0
	}

	for i := range p.channels {
		if p.Mute&(1<<uint(i)) != 0 {
			continue
		}

		ch := &p.channels[i]
		scratch := p.scratch[:numFrames]
		renderChannel(ch, &p.Module.Samples, p.sampleRate, scratch)
		mixInto(scratch, out, p.channelCount, p.Module.NumChannels, ch.Panning, p.stereoWidth)
	}
}
