package modplayer

import (
	clone "github.com/huandu/go-clone/generic"
)

// testModule is a small, hand-built two-pattern, one-sample module used
// across the sequencer and mixer tests. Tests that mutate it should clone
// it first with cloneTestModule, so one test's edits never leak into
// another's.
func testModule() *Module {
	samples := [numSampleSlots]Sample{}
	samples[1] = Sample{
		Name:   "sine",
		Length: 8,
		Volume: 64,
		Data:   []float32{0, 0.25, 0.5, 0.75, 1, 0.75, 0.5, 0.25},
	}

	emptyNotes := func() []Note {
		return make([]Note, rowsPerPattern*channelsPerMod)
	}

	pat0Notes := emptyNotes()
	// Row 0, channel 0: play sample 1 at period 428 (C-2).
	pat0Notes[0] = Note{Period: 428, Sample: 1}

	pat1Notes := emptyNotes()

	return &Module{
		Name:        "test",
		Order:       []byte{0, 1},
		SongLength:  2,
		Patterns:    []Pattern{{Notes: pat0Notes}, {Notes: pat1Notes}},
		Samples:     samples,
		NumChannels: channelsPerMod,
	}
}

func cloneTestModule() *Module {
	return clone.Clone(testModule())
}

func newTestPlayer() *Player {
	mod := cloneTestModule()
	p, err := NewPlayer(mod)
	if err != nil {
		panic(err)
	}
	return p
}

// setNote overwrites a single channel's note for a given pattern/row,
// mirroring how a caller would splice in pattern data for a test. It does not
// re-execute the line; callers run executeLine or Reset to latch the change.
func (p *Player) setNote(pattern, row, channel int, n Note) {
	base := row * p.Module.NumChannels
	p.Module.Patterns[pattern].Notes[base+channel] = n
}
