package main

import (
	"log"
	"os"

	"github.com/kestrelsound/modplayer"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("moddump: ")

	if len(os.Args) <= 1 {
		log.Fatal("Missing MOD filename")
	}

	modF, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	modplayer.SetDumpWriter(os.Stdout)

	if _, err := modplayer.LoadModule(modF); err != nil {
		log.Fatal(err)
	}
}
