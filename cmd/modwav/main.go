// MOD to WAVE file renderer, no audio device required.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrelsound/modplayer"
	"github.com/kestrelsound/modplayer/cmd/internal/config"
	"github.com/kestrelsound/modplayer/wav"
)

const outputHz = 44100

func main() {
	log.SetFlags(0)
	log.SetPrefix("modwav: ")

	wavOut := flag.String("wav", "", "output to a WAVE file")
	flagReverb := flag.String("reverb", "none", "reverb amount: none, light, medium, silly")
	flag.Parse()
	if *wavOut == "" {
		log.Fatal("No -wav option provided")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("Missing MOD filename")
	}

	modF, err := os.ReadFile(flag.Args()[0])
	if err != nil {
		log.Fatal(err)
	}

	player, err := modplayer.CreateFromBytes(modF)
	if err != nil {
		log.Fatal(err)
	}
	player.SetSampleRate(outputHz)

	reverb, err := config.ReverbFromFlag(*flagReverb, outputHz)
	if err != nil {
		log.Fatal(err)
	}

	wavF, err := os.Create(*wavOut)
	if err != nil {
		log.Fatal(err)
	}
	defer wavF.Close()

	wavW, err := wav.NewWriter(wavF, outputHz)
	if err != nil {
		log.Fatal(err)
	}
	defer wavW.Finish()

	// Listen for SIGINT to allow a clean exit
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT)

	const framesPerBlock = 1024
	audioOut := make([]int16, framesPerBlock*2)
	reverbOut := make([]int16, framesPerBlock*2)

	playing := true

	var lastPos modplayer.PlayerPosition

	go func() {
		for {
			select {
			case <-c:
				playing = false
			case pos := <-player.PositionCh:
				if lastPos.Order != pos.Order {
					fmt.Printf("%d/%d\n", pos.Order+1, len(player.Module.Order))
				}
				lastPos = pos
			}
		}
	}()

	for playing && player.IsPlaying() {
		player.DecodeFramesI16(framesPerBlock, audioOut)
		reverb.InputSamples(audioOut)
		if n := reverb.GetAudio(reverbOut); n > 0 {
			if err = wavW.WriteFrame(deinterleave(reverbOut[:n])); err != nil {
				wavF.Close()
				log.Fatal(err)
			}
		}
	}
	player.Stop()
}

// deinterleave splits interleaved stereo PCM into wav.Writer's
// [channel][sampleNum] layout.
func deinterleave(in []int16) [][]int16 {
	out := [][]int16{make([]int16, len(in)/2), make([]int16, len(in)/2)}
	for i := 0; i < len(in)/2; i++ {
		out[0][i] = in[i*2+0]
		out[1][i] = in[i*2+1]
	}
	return out
}
