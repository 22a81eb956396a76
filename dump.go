package modplayer

import (
	"fmt"
	"io"
)

var dumpWriter io.Writer

// SetDumpWriter installs a writer that LoadModule will print a short
// human-readable summary of the loaded module to. Passing nil (the
// default) disables dumping. Intended for the moddump command-line tool.
func SetDumpWriter(w io.Writer) {
	dumpWriter = w
}

func dumpModule(mod *Module) {
	if dumpWriter == nil {
		return
	}

	fmt.Fprintf(dumpWriter, "%q, %d channels, %d orders, %d patterns\n",
		mod.Name, mod.NumChannels, mod.SongLength, len(mod.Patterns))

	for i := 1; i < numSampleSlots; i++ {
		s := mod.Samples[i]
		if s.Length == 0 && s.Name == "" {
			continue
		}
		loop := "no loop"
		if s.Loop {
			loop = fmt.Sprintf("loop [%d,%d)", s.RepeatOffset, s.RepeatOffset+s.RepeatLength)
		}
		fmt.Fprintf(dumpWriter, "  %2d %-22q len=%-6d vol=%-3d finetune=%-3d %s\n",
			i, s.Name, s.Length, s.Volume, s.FineTune, loop)
	}

	fmt.Fprintf(dumpWriter, "  order: %v\n", mod.Order)
}
