package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kestrelsound/modplayer"
	"github.com/kestrelsound/modplayer/cmd/internal/config"
)

var (
	flagHz       = flag.Int("hz", 44100, "output hz")
	flagStartOrd = flag.Int("start", 0, "starting order in the MOD, clamped to song max")
	flagReverb   = flag.String("reverb", "light", "reverb amount: none, light, medium, silly")
	flagNoUI     = flag.Bool("noui", false, "disable the pattern display")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("modplay: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing MOD filename")
	}

	modF, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	player, err := modplayer.CreateFromBytes(modF)
	if err != nil {
		log.Fatal(err)
	}
	player.SetSampleRate(*flagHz)
	player.SeekTo(*flagStartOrd, 0)

	reverb, err := config.ReverbFromFlag(*flagReverb, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(player.Module.Name)

	play(player, reverb)
}
