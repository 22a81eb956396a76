package modplayer

import "testing"

func TestNewPlayerDefaultPanning(t *testing.T) {
	p := newTestPlayer()
	want := []float64{-1, 1, 1, -1}
	for i, w := range want {
		if p.channels[i].Panning != w {
			t.Errorf("channel %d: expected panning %v, got %v", i, w, p.channels[i].Panning)
		}
	}
}

func TestSilenceWhenNoChannelsTriggered(t *testing.T) {
	p := newTestPlayer()
	// Clear pattern 0's only note so nothing ever plays.
	p.setNote(0, 0, 0, Note{})
	p.Reset()

	out := make([]float32, 256*p.channelCount)
	p.DecodeFramesF(256, out)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence, got %v at sample %d", v, i)
		}
	}
}

func TestToneWithLoopOnHardLeftChannel(t *testing.T) {
	p := newTestPlayer()
	// Channel 0 is hard left by NewPlayer's convention; pattern 0 row 0
	// already triggers sample 1 there via testModule.
	p.Module.Samples[1] = Sample{
		Length:       4,
		RepeatOffset: 0,
		RepeatLength: 4,
		Loop:         true,
		Volume:       64,
		Data:         []float32{1, 1, 1, 1},
	}
	p.Reset()

	out := make([]float32, 64*p.channelCount)
	p.DecodeFramesF(64, out)

	var leftEnergy, rightEnergy float64
	for i := 0; i < 64; i++ {
		l := out[i*2+0]
		r := out[i*2+1]
		leftEnergy += float64(l * l)
		rightEnergy += float64(r * r)
	}
	if leftEnergy == 0 {
		t.Error("expected non-zero energy on the left channel")
	}
	if rightEnergy != 0 {
		t.Errorf("expected zero energy on the right channel (hard left), got %v", rightEnergy)
	}
}

func TestResetReturnsToBeginningDeterministically(t *testing.T) {
	p := newTestPlayer()
	p.Module.Samples[1] = Sample{
		Length:       8,
		RepeatOffset: 4,
		RepeatLength: 4,
		Loop:         true,
		Volume:       64,
		Data:         []float32{0, 0.25, 0.5, 0.75, 1, 0.75, 0.5, 0.25},
	}

	first := make([]float32, 128*p.channelCount)
	p.DecodeFramesF(128, first)

	p.Reset()
	second := make([]float32, 128*p.channelCount)
	p.DecodeFramesF(128, second)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected deterministic playback after Reset, differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestVolumeNeverExceedsRange(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]

	ch.Volume = 64
	p.executeExtendedEffect(ch, extFineVolSlideUp, 10)
	if ch.Volume > 64 {
		t.Errorf("expected volume clamped to 64, got %d", ch.Volume)
	}

	ch.Volume = 0
	p.executeExtendedEffect(ch, extFineVolSlideDown, 10)
	if ch.Volume < 0 {
		t.Errorf("expected volume clamped to 0, got %d", ch.Volume)
	}
}

func TestSetVolumeEffectStoresRawParam(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	p.executeEffect(ch, Note{EffectType: effectSetVolume, EffectParam: 0x7F})
	if ch.Volume != 0x7F {
		t.Errorf("expected raw out-of-range param stored unclamped, got %d", ch.Volume)
	}

	buf := make([]float32, 1)
	samples := &[32]Sample{1: {Length: 1, Data: []float32{1.0}}}
	ch.Sample = 1
	ch.Period = 428
	renderChannel(ch, samples, 48000, buf)
	if buf[0] > 1.0 {
		t.Errorf("expected render-time volume clamp to keep output within range, got %v", buf[0])
	}
}

func TestCreateFromBytesPropagatesLoadError(t *testing.T) {
	_, err := CreateFromBytes(make([]byte, 10))
	if err == nil {
		t.Fatal("expected error from a too-short buffer")
	}
}

func TestDecodeFramesI16Saturates(t *testing.T) {
	p := newTestPlayer()
	p.Module.Samples[1] = Sample{
		Length: 4,
		Volume: 64,
		Data:   []float32{1, 1, 1, 1},
	}
	p.Reset()

	out := make([]int16, 16*p.channelCount)
	p.DecodeFramesI16(16, out)
	for _, v := range out {
		if v > 32767 || v < -32768 {
			t.Fatalf("expected saturated int16 range, got %d", v)
		}
	}
}

func TestStartStopTracksPlayingState(t *testing.T) {
	p := newTestPlayer()
	if !p.IsPlaying() {
		t.Error("expected a new player to start in the playing state")
	}
	p.Stop()
	if p.IsPlaying() {
		t.Error("expected Stop to clear playing")
	}
	p.Start()
	if !p.IsPlaying() {
		t.Error("expected Start to set playing")
	}
}
