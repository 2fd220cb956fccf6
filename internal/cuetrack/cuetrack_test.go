package cuetrack

import (
	"strings"
	"testing"
)

const sampleCue = `FILE "GAME.BIN" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
  TRACK 02 AUDIO
    INDEX 00 13:20:00
    INDEX 01 13:22:00
`

func TestParseSingleBin(t *testing.T) {
	layout, err := Parse(strings.NewReader(sampleCue))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if layout.MultiBin {
		t.Errorf("Parse() MultiBin = true, want false (one FILE line)")
	}
	if len(layout.Tracks) != 2 {
		t.Fatalf("Parse() returned %d tracks, want 2", len(layout.Tracks))
	}
	if layout.Tracks[0].Type != TrackMode2 {
		t.Errorf("track 1 type = %v, want TrackMode2", layout.Tracks[0].Type)
	}
	if layout.Tracks[1].Type != TrackAudio {
		t.Errorf("track 2 type = %v, want TrackAudio", layout.Tracks[1].Type)
	}
	if layout.Tracks[1].PregapSectors != 150 {
		t.Errorf("track 2 pregap = %d, want 150 (2 seconds)", layout.Tracks[1].PregapSectors)
	}
}

func TestParseNegativePregapClampedToZero(t *testing.T) {
	cue := `FILE "GAME.BIN" BINARY
  TRACK 01 MODE2/2352
    INDEX 00 00:00:02
    INDEX 01 00:00:00
`
	layout, err := Parse(strings.NewReader(cue))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if layout.Tracks[0].PregapSectors != 0 {
		t.Errorf("negative pregap should clamp to 0, got %d", layout.Tracks[0].PregapSectors)
	}
}

func TestParseRejectsMismatchedFileTrackCounts(t *testing.T) {
	cue := `FILE "A.BIN" BINARY
  TRACK 01 MODE2/2352
    INDEX 01 00:00:00
FILE "B.BIN" BINARY
  TRACK 02 AUDIO
    INDEX 01 00:00:00
  TRACK 03 AUDIO
    INDEX 01 00:01:00
`
	if _, err := Parse(strings.NewReader(cue)); err == nil {
		t.Errorf("Parse() should reject 2 FILEs / 3 TRACKs as neither single- nor multi-bin")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tracks := []Track{
		{Number: 1, Type: TrackMode2, StartSector: 0, PregapSectors: 0, DataOffsetSector: 0, EndSector: 60150, TotalSectors: 60150},
		{Number: 2, Type: TrackAudio, StartSector: 60150, PregapSectors: 150, DataOffsetSector: 60150, EndSector: 70000, TotalSectors: 9850},
	}
	body, err := EncodeCSV(tracks)
	if err != nil {
		t.Fatalf("EncodeCSV() failed: %v", err)
	}
	got, err := DecodeCSV(body)
	if err != nil {
		t.Fatalf("DecodeCSV() failed: %v", err)
	}
	if len(got) != len(tracks) {
		t.Fatalf("DecodeCSV() returned %d tracks, want %d", len(got), len(tracks))
	}
	for i, want := range tracks {
		if got[i] != want {
			t.Errorf("DecodeCSV()[%d] = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestAudioSectorTotal(t *testing.T) {
	tracks := []Track{
		{Type: TrackMode2, TotalSectors: 1000},
		{Type: TrackAudio, TotalSectors: 200},
		{Type: TrackAudio, TotalSectors: 300},
	}
	if got := AudioSectorTotal(tracks); got != 500 {
		t.Errorf("AudioSectorTotal() = %d, want 500", got)
	}
}
