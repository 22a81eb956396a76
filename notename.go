package modplayer

import "math"

// periodTable holds the standard Amiga period values for octaves 1-3,
// C-1 through B-3, the range ProTracker pattern data actually uses.
var periodTable = []int{
	856, 808, 762, 720, 678, 640, 604, 570, 538, 508, 480, 453,
	428, 404, 381, 360, 339, 320, 302, 285, 269, 254, 240, 226,
	214, 202, 190, 180, 170, 160, 151, 143, 135, 127, 120, 113,
}

var noteNames = []string{
	"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

// periodToNoteName renders a period as a note name like "C-2", or "..." if
// period is 0 (no new note on this line).
func periodToNoteName(period int) string {
	if period == 0 {
		return "..."
	}

	for i, p := range periodTable {
		if p == period {
			return noteLabel(i)
		}
	}

	// Not an exact table entry (unusual but not invalid MOD data) - derive
	// the nearest semitone from the period/frequency relationship.
	idx := int(math.Round(12.0 * math.Log2(float64(periodTable[0])/float64(period))))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(periodTable) {
		idx = len(periodTable) - 1
	}
	return noteLabel(idx)
}

func noteLabel(tableIdx int) string {
	return noteNames[tableIdx%12] + string(rune('1'+tableIdx/12))
}
