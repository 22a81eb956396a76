package modplayer

import "testing"

func TestPatternBreakDecimalLineTarget(t *testing.T) {
	p := newTestPlayer()
	p.setNote(0, 0, 0, Note{EffectType: effectPatternBreak, EffectParam: 0x24})
	p.executeLine()

	if !p.pendingJump {
		t.Fatal("expected pendingJump to be set")
	}
	if p.jumpLine != 24 {
		t.Errorf("expected jump line 24 (decimal 2,4), got %d", p.jumpLine)
	}
	if p.jumpPattern != p.orderIdx+1 {
		t.Errorf("expected jump pattern %d, got %d", p.orderIdx+1, p.jumpPattern)
	}
}

func TestJumpPrecedenceDoesNotOverwritePendingField(t *testing.T) {
	p := newTestPlayer()
	// Channel 0: B03 (position jump to pattern 3).
	p.setNote(0, 0, 0, Note{EffectType: effectPositionJump, EffectParam: 0x03})
	// Channel 1: D15 (pattern break to decimal line 15).
	p.setNote(0, 0, 1, Note{EffectType: effectPatternBreak, EffectParam: 0x15})
	p.executeLine()

	if p.jumpPattern != 3 {
		t.Errorf("expected jump pattern 3 from the B effect, got %d", p.jumpPattern)
	}
	if p.jumpLine != 15 {
		t.Errorf("expected jump line 15 from the D effect, got %d", p.jumpLine)
	}
}

func TestArpeggioTickCycle(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	p.executeEffect(ch, Note{EffectType: effectArpeggio, EffectParam: 0x47})

	ch.arpeggioTick(0)
	if ch.pitchOffset != 0 {
		t.Errorf("tick 0: expected pitchOffset 0, got %v", ch.pitchOffset)
	}
	ch.arpeggioTick(1)
	if ch.pitchOffset != 4 {
		t.Errorf("tick 1: expected pitchOffset 4, got %v", ch.pitchOffset)
	}
	ch.arpeggioTick(2)
	if ch.pitchOffset != 7 {
		t.Errorf("tick 2: expected pitchOffset 7, got %v", ch.pitchOffset)
	}
	ch.arpeggioTick(3)
	if ch.pitchOffset != 0 {
		t.Errorf("tick 3 (cycle restart): expected pitchOffset 0, got %v", ch.pitchOffset)
	}
}

func TestVolumeSlideSequence(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	ch.Volume = 64
	p.executeEffect(ch, Note{EffectType: effectVolSlide, EffectParam: 0x06})

	ch.volumeSlideTick()
	if ch.Volume != 58 {
		t.Errorf("expected volume 58 after one slide-down tick, got %d", ch.Volume)
	}
}

func TestSpeedChangeEffect(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	p.executeEffect(ch, Note{EffectType: effectSetSpeed, EffectParam: 0x03})
	if p.speed != 3 {
		t.Errorf("expected speed 3, got %d", p.speed)
	}

	p.executeEffect(ch, Note{EffectType: effectSetSpeed, EffectParam: 200})
	if p.bpm != 200 {
		t.Errorf("expected bpm 200 for param > 32, got %d", p.bpm)
	}
}

func TestPatternLoopEffect(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	p.lineIdx = 5
	p.executeExtendedEffect(ch, extPatternLoop, 0) // mark loop start at line 5

	if ch.loopStart != 5 {
		t.Fatalf("expected loopStart 5, got %d", ch.loopStart)
	}

	p.lineIdx = 10
	p.executeExtendedEffect(ch, extPatternLoop, 2) // loop twice
	if !p.pendingJump || p.jumpLine != 5 {
		t.Fatalf("expected jump back to line 5, got pendingJump=%v jumpLine=%d", p.pendingJump, p.jumpLine)
	}
	if ch.loopCount != 2 {
		t.Errorf("expected loopCount 2, got %d", ch.loopCount)
	}

	p.pendingJump = false
	p.executeExtendedEffect(ch, extPatternLoop, 2)
	if !p.pendingJump {
		t.Fatal("expected second iteration to jump again")
	}
	if ch.loopCount != 1 {
		t.Errorf("expected loopCount 1, got %d", ch.loopCount)
	}

	p.pendingJump = false
	p.executeExtendedEffect(ch, extPatternLoop, 2)
	if p.pendingJump {
		t.Fatal("expected loop to be exhausted and not jump again")
	}
}

func TestRetriggerFiresOnTickZero(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	ch.SamplePos = 12.5
	ch.retriggerRate = 4

	ch.retriggerTick(0)
	if ch.SamplePos != 0 {
		t.Errorf("expected retrigger to fire on tick 0, SamplePos=%v", ch.SamplePos)
	}
}

func TestNoteCutExactTickOnly(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	ch.Volume = 64
	ch.noteCutIdx = 3

	ch.noteCutTick(2)
	if ch.Volume != 64 {
		t.Errorf("expected no cut before tick 3, Volume=%d", ch.Volume)
	}
	ch.noteCutTick(3)
	if ch.Volume != 0 {
		t.Errorf("expected cut exactly at tick 3, Volume=%d", ch.Volume)
	}
}

func TestExtendedEffectFineSlide(t *testing.T) {
	p := newTestPlayer()
	ch := &p.channels[0]
	ch.Period = 428

	p.executeExtendedEffect(ch, extFineSlideDown, 5)
	if ch.Period != 433 {
		t.Errorf("expected period 433 after fine slide down 5, got %d", ch.Period)
	}

	p.executeExtendedEffect(ch, extFineSlideUp, 5)
	if ch.Period != 428 {
		t.Errorf("expected period 428 after fine slide up 5, got %d", ch.Period)
	}
}

func TestAdvanceLatchesNewLineAtSpeedBoundary(t *testing.T) {
	p := newTestPlayer()
	p.speed = 2
	p.lineIdx = 0
	p.tickIdx = 0

	p.advance() // tick 1, not a line boundary
	if p.lineIdx != 0 {
		t.Fatalf("expected still on line 0, got %d", p.lineIdx)
	}

	p.advance() // wraps tickIdx back to 0, latches line 1
	if p.lineIdx != 1 {
		t.Fatalf("expected line 1 after speed ticks exhausted, got %d", p.lineIdx)
	}
}

func TestOrderWrapsAtEndOfSong(t *testing.T) {
	p := newTestPlayer()
	p.orderIdx = len(p.Module.Order) - 1
	p.lineIdx = rowsPerPattern - 1
	p.tickIdx = p.speed - 1

	p.advance()
	if p.orderIdx != 0 {
		t.Errorf("expected order to wrap to 0, got %d", p.orderIdx)
	}
}
