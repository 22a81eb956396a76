package modplayer

import (
	"bytes"
	"encoding/binary"
	"strings"
)

const (
	rowsPerPattern  = 64
	channelsPerMod  = 4
	bytesPerNote    = 4
	bytesPerPattern = rowsPerPattern * channelsPerMod * bytesPerNote

	numSampleSlots = 32 // index 0 is always blank, 1..31 are real samples
	sampleHdrSize  = 30

	nameOffset    = 0
	nameSize      = 20
	sampleOffset  = 20
	songLenOffset = sampleOffset + (numSampleSlots-1)*sampleHdrSize // 950
	orderOffset   = songLenOffset + 2                               // 952, skips the restart byte
	sigOffset     = orderOffset + 128                                // 1080
	patternOffset = sigOffset + 4                                    // 1084

	minModuleSize = 2048
)

// Note is one channel's worth of pattern data for one line.
type Note struct {
	Period      int // 12-bit Amiga period, 0 = no new note
	Sample      int // 0..31, 0 = keep current
	EffectType  byte
	EffectParam byte
}

// Pattern holds 64 lines x channel count notes, laid out row-major
// (line*channels + channel).
type Pattern struct {
	Notes []Note
}

// Sample is an immutable decoded instrument.
type Sample struct {
	Name          string
	Length        int // frames
	RepeatOffset  int // frames
	RepeatLength  int // frames
	FineTune      int // signed, -8..+7
	Volume        int // 0..64
	Loop          bool
	Data          []float32 // decoded PCM in [-1, 1]
}

// Module is the immutable, fully decoded contents of a MOD file.
type Module struct {
	Name        string
	Order       []byte // song-order table, length SongLength
	SongLength  int
	Patterns    []Pattern
	Samples     [numSampleSlots]Sample // index 0 is always blank
	NumChannels int
}

// LoadModule parses a ProTracker MOD file held in buf into an immutable
// Module. The only supported signature family is the classic 4-channel
// M.K./M!K!/FLT4 style; the signature itself is read but not validated,
// matching real ProTracker's own leniency.
func LoadModule(buf []byte) (*Module, error) {
	if len(buf) < minModuleSize {
		return nil, errTooShort("buffer shorter than the minimum MOD size")
	}

	mod := &Module{NumChannels: channelsPerMod}

	r := bytes.NewReader(buf)

	nameBuf := make([]byte, nameSize)
	r.Read(nameBuf)
	mod.Name = strings.TrimRight(string(nameBuf), "\x00")

	for i := 1; i < numSampleSlots; i++ {
		s, err := readSample(r)
		if err != nil {
			return nil, errCorrupt("truncated sample header")
		}
		mod.Samples[i] = *s
	}

	songLenByte, err := r.ReadByte()
	if err != nil {
		return nil, errCorrupt("truncated song length")
	}
	mod.SongLength = int(songLenByte)
	if mod.SongLength > 128 {
		mod.SongLength = 128
	}
	r.ReadByte() // restart byte, ignored

	orderBuf := make([]byte, 128)
	if n, _ := r.Read(orderBuf); n != 128 {
		return nil, errCorrupt("truncated pattern order table")
	}
	mod.Order = make([]byte, mod.SongLength)
	copy(mod.Order, orderBuf[:mod.SongLength])

	numPatterns := 0
	for _, p := range mod.Order {
		if int(p) >= numPatterns {
			numPatterns = int(p) + 1
		}
	}

	sig := make([]byte, 4)
	r.Read(sig) // read but not validated, per spec

	var sampleDataSize int
	for i := 1; i < numSampleSlots; i++ {
		sampleDataSize += mod.Samples[i].Length
	}

	expectedSize := patternOffset + bytesPerPattern*numPatterns + sampleDataSize
	if len(buf) < expectedSize {
		return nil, errCorrupt("declared size exceeds buffer length")
	}

	mod.Patterns = make([]Pattern, numPatterns)
	patScratch := make([]byte, bytesPerPattern)
	for p := 0; p < numPatterns; p++ {
		if n, _ := r.Read(patScratch); n != bytesPerPattern {
			return nil, errCorrupt("truncated pattern data")
		}
		notes := make([]Note, rowsPerPattern*channelsPerMod)
		for i := range notes {
			notes[i] = noteFromBytes(patScratch[i*bytesPerNote : i*bytesPerNote+bytesPerNote])
		}
		mod.Patterns[p] = Pattern{Notes: notes}
	}

	for i := 1; i < numSampleSlots; i++ {
		smp := &mod.Samples[i]
		if smp.Length == 0 {
			continue
		}
		raw := make([]byte, smp.Length)
		if n, _ := r.Read(raw); n != smp.Length {
			return nil, errCorrupt("truncated sample PCM data")
		}
		smp.Data = make([]float32, smp.Length)
		for j, b := range raw {
			smp.Data[j] = float32(int8(b)) / 128.0
		}
	}

	dumpModule(mod)

	return mod, nil
}

func noteFromBytes(b []byte) Note {
	return Note{
		Sample:      int(b[0]&0xF0) | int(b[2]>>4),
		Period:      (int(b[0]&0x0F) << 8) | int(b[1]),
		EffectType:  b[2] & 0x0F,
		EffectParam: b[3],
	}
}

func readSample(r *bytes.Reader) (*Sample, error) {
	hdr := struct {
		Name         [22]byte
		Length       uint16
		FineTune     uint8
		Volume       uint8
		RepeatOffset uint16
		RepeatLength uint16
	}{}
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, err
	}

	s := &Sample{
		Name:         strings.TrimRight(string(hdr.Name[:]), "\x00"),
		Length:       int(hdr.Length) * 2,
		FineTune:     int(hdr.FineTune&0x7) - int(hdr.FineTune&0x8),
		Volume:       int(hdr.Volume),
		RepeatOffset: int(hdr.RepeatOffset) * 2,
		RepeatLength: int(hdr.RepeatLength) * 2,
	}
	s.Loop = s.RepeatLength > 2

	return s, nil
}
