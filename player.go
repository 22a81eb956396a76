package modplayer

import "fmt"

const (
	defaultSampleRate   = 48000
	defaultChannelCount = 2
	defaultSpeed        = 6
	defaultBPM          = 125
)

// Player decodes a loaded Module into a stream of PCM frames. It is not safe
// for concurrent use by multiple goroutines, but independent Players sharing
// no state may run on separate goroutines freely.
type Player struct {
	Module *Module

	sampleRate   int
	channelCount int
	stereoWidth  float64

	orderIdx            int
	lineIdx             int
	tickIdx             int
	framesUntilNextTick int

	speed int
	bpm   int

	pendingJump bool
	jumpPattern int
	jumpLine    int

	patternDelay int

	channels []ChannelState
	scratch  []float32 // mono render scratch, reused across channels

	// Mute is a bitmask of muted channels, channel 0 in the LSB. It is a
	// playback convenience for interactive tools, not part of the decode
	// contract: decoding never fails, it just renders silence for muted
	// channels.
	Mute uint

	playing bool

	// PositionCh receives the current song position every time a new line
	// is latched. It is buffered and sends are non-blocking, so a caller
	// that never reads it cannot stall decoding.
	PositionCh chan PlayerPosition
}

// PlayerPosition is a point-in-time song cursor, used by command-line tools
// to report progress.
type PlayerPosition struct {
	Order int
	Row   int
	Notes []Note
}

// ChannelDisplayState is a read-only snapshot of one channel, for UI use.
type ChannelDisplayState struct {
	Instrument int // -1 if no sample is currently assigned
	TrigOrder  int
	TrigRow    int
}

// PlayerState is a read-only snapshot of the player's song position, for UI
// use. It intentionally omits everything decode_frames_f doesn't need a
// caller to know about.
type PlayerState struct {
	Order    int
	Row      int
	Notes    []Note
	Channels []ChannelDisplayState
}

// NewPlayer constructs a Player for mod, with default settings (48kHz
// stereo output, hard panning, speed 6 / 125 bpm until the song's own
// pattern data changes them) and the cursor at the very start of the song.
func NewPlayer(mod *Module) (*Player, error) {
	if mod == nil {
		return nil, fmt.Errorf("modplayer: nil module")
	}

	p := &Player{
		Module:       mod,
		sampleRate:   defaultSampleRate,
		channelCount: defaultChannelCount,
		stereoWidth:  1.0,
		speed:        defaultSpeed,
		bpm:          defaultBPM,
		channels:     make([]ChannelState, mod.NumChannels),
		scratch:      make([]float32, maxSubBlock),
		PositionCh:   make(chan PlayerPosition, 1),
		playing:      true,
	}

	for i := range p.channels {
		// Channels 0 and 3 hard left, 1 and 2 hard right - the classic
		// ProTracker 4-channel panning convention.
		if (i+1)&0x2 == 0 {
			p.channels[i].Panning = -1
		} else {
			p.channels[i].Panning = 1
		}
	}

	p.Reset()
	return p, nil
}

// CreateFromBytes loads a module from buf and constructs a Player for it in
// one step.
func CreateFromBytes(buf []byte) (*Player, error) {
	mod, err := LoadModule(buf)
	if err != nil {
		return nil, err
	}
	return NewPlayer(mod)
}

// Reset sets the song cursor to (order 0, line 0, tick 0) and executes line
// 0 of order 0, matching a freshly constructed Player.
func (p *Player) Reset() {
	p.orderIdx = 0
	p.lineIdx = 0
	p.tickIdx = 0
	p.pendingJump = false
	p.patternDelay = 0
	p.speed = defaultSpeed
	p.bpm = defaultBPM

	for i := range p.channels {
		pan := p.channels[i].Panning
		p.channels[i] = ChannelState{Panning: pan}
	}

	p.executeLine()
	p.recomputeFramesUntilNextTick()
}

// SetSampleRate changes the output sample rate. It takes effect immediately
// for resampling and at the next tick boundary for tick timing.
func (p *Player) SetSampleRate(hz int) {
	if hz <= 0 {
		return
	}
	p.sampleRate = hz
}

// SetStereo selects 1- or 2-channel output.
func (p *Player) SetStereo(stereo bool) {
	if stereo {
		p.channelCount = 2
	} else {
		p.channelCount = 1
	}
}

// SetStereoWidth scales panning by w, clamped to [0, 1]. 1.0 is hard
// panning (the Amiga default), 0.0 collapses to mono-equivalent panning.
func (p *Player) SetStereoWidth(w float64) {
	p.stereoWidth = clampFloat(w, 0, 1)
}

// DecodeFramesF writes n*channel_count interleaved floats (approximately in
// [-1, 1]) into out, advancing the sequencer as needed. out must be at
// least n*channel_count long.
func (p *Player) DecodeFramesF(n int, out []float32) {
	framesRemaining := n
	offset := 0

	for framesRemaining > 0 {
		block := minInt(framesRemaining, maxSubBlock)
		block = minInt(block, p.framesUntilNextTick)
		if block == 0 {
			p.advance()
			continue
		}

		p.renderFrames(block, out[offset*p.channelCount:])

		offset += block
		framesRemaining -= block
		p.framesUntilNextTick -= block

		if p.framesUntilNextTick == 0 {
			p.advance()
		}
	}
}

// DecodeFramesI16 is DecodeFramesF scaled to signed 16-bit PCM and cast,
// with the final multiply saturated so a +1.0 sample doesn't overflow.
func (p *Player) DecodeFramesI16(n int, out []int16) {
	framesRemaining := n
	outOff := 0

	for framesRemaining > 0 {
		block := minInt(framesRemaining, maxSubBlock)
		fbuf := make([]float32, block*p.channelCount)
		p.DecodeFramesF(block, fbuf)

		for i, s := range fbuf {
			v := s * 32767.0
			switch {
			case v > 32767:
				v = 32767
			case v < -32768:
				v = -32768
			}
			out[outOff+i] = int16(v)
		}

		outOff += block * p.channelCount
		framesRemaining -= block
	}
}

// NoteDataFor returns the note data for the given order/row, or nil if the
// row is out of range (used by command-line tools to render nearby pattern
// rows around the current position).
func (p *Player) NoteDataFor(order, row int) []ChannelNoteData {
	if order < 0 || order >= len(p.Module.Order) || row < 0 || row >= rowsPerPattern {
		return nil
	}

	patIdx := p.Module.Order[order]
	pattern := &p.Module.Patterns[patIdx]
	base := row * p.Module.NumChannels

	nd := make([]ChannelNoteData, p.Module.NumChannels)
	for i := 0; i < p.Module.NumChannels; i++ {
		n := pattern.Notes[base+i]
		nd[i] = ChannelNoteData{
			Note:       periodToNoteName(n.Period),
			Instrument: n.Sample - 1,
			Effect:     n.EffectType,
			Param:      n.EffectParam,
		}
	}
	return nd
}

// ChannelNoteData is a single channel's note, formatted for display.
type ChannelNoteData struct {
	Note       string
	Instrument int // -1 if no instrument on this note
	Effect     byte
	Param      byte
}

// State returns a snapshot of the current song position, for UI use.
func (p *Player) State() PlayerState {
	pattern := p.currentPattern()
	base := p.lineIdx * p.Module.NumChannels

	st := PlayerState{
		Order:    p.orderIdx,
		Row:      p.lineIdx,
		Notes:    pattern.Notes[base : base+p.Module.NumChannels],
		Channels: make([]ChannelDisplayState, len(p.channels)),
	}
	for i := range p.channels {
		ch := &p.channels[i]
		st.Channels[i] = ChannelDisplayState{
			Instrument: ch.Sample - 1,
			TrigOrder:  ch.TrigOrder,
			TrigRow:    ch.TrigRow,
		}
	}
	return st
}

// Position returns the current order/row, for UI use.
func (p *Player) Position() PlayerPosition {
	pattern := p.currentPattern()
	base := p.lineIdx * p.Module.NumChannels
	return PlayerPosition{
		Order: p.orderIdx,
		Row:   p.lineIdx,
		Notes: pattern.Notes[base : base+p.Module.NumChannels],
	}
}

// Speed returns the current ticks-per-line value, for UI use.
func (p *Player) Speed() int { return p.speed }

// BPM returns the current tempo, for UI use.
func (p *Player) BPM() int { return p.bpm }

// SeekTo moves the cursor directly to (order, line) and executes that line,
// clamping order to the song's range. Used by command-line tools to support
// a starting-order flag.
func (p *Player) SeekTo(order, line int) {
	if order < 0 {
		order = 0
	}
	if order >= len(p.Module.Order) {
		order = len(p.Module.Order) - 1
	}
	p.orderIdx = order
	p.lineIdx = clampInt(line, 0, rowsPerPattern-1)
	p.tickIdx = 0
	p.executeLine()
	p.recomputeFramesUntilNextTick()
}

// Start marks the player as playing, for interactive tools that pause
// rendering rather than stop calling decode entirely.
func (p *Player) Start() { p.playing = true }

// Stop marks the player as not playing.
func (p *Player) Stop() { p.playing = false }

// IsPlaying reports whether Start has been called without a matching Stop.
func (p *Player) IsPlaying() bool { return p.playing }

func (p *Player) publishPosition() {
	pos := p.Position()
	select {
	case p.PositionCh <- pos:
	default:
	}
}
