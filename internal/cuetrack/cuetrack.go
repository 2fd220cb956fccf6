// Package cuetrack parses a CUE sheet into an ordered list of tracks and
// classifies the data track's postgap, grounded on psxrip.cpp's CUE
// scanning loop.
package cuetrack

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// TrackType distinguishes a CD-ROM XA data track from a Red Book audio
// track.
type TrackType int

const (
	TrackMode2 TrackType = iota // "MODE2/2352"
	TrackAudio                  // "AUDIO"
)

// Track is one entry of the parsed CUE sheet.
type Track struct {
	Number          int
	Type            TrackType
	File            string // the FILE line's BINARY filename this track belongs to
	StartSector     uint32 // INDEX 01 sector, absolute within its FILE
	PregapSectors   uint32 // INDEX 01 - INDEX 00, clamped >= 0
	DataOffsetSector uint32 // INDEX 01 sector (alias kept distinct from StartSector for clarity at call sites)
	EndSector       uint32 // exclusive upper bound, filled in once the next track/EOF is known
	TotalSectors    uint32
}

var (
	fileLineRe  = regexp.MustCompile(`^FILE\s+"([^"]*)"\s+BINARY\s*$`)
	trackLineRe = regexp.MustCompile(`^\s*TRACK\s+(\d+)\s+(MODE2/2352|AUDIO)\s*$`)
	indexLineRe = regexp.MustCompile(`^\s*INDEX\s+(\d+)\s+(\d+):(\d+):(\d+)\s*$`)
)

// Layout is the result of parsing a CUE sheet: its tracks and whether it
// describes a single-BIN or multi-BIN image.
type Layout struct {
	Tracks    []Track
	MultiBin  bool
	BinFiles  []string
}

// msfToSector converts an "mm:ss:ff" triple to an absolute sector count
// (no pregap subtraction — CUE addresses are already track-relative or
// image-relative depending on context, resolved by the caller).
func msfToSector(min, sec, frame int) uint32 {
	return uint32(min)*60*75 + uint32(sec)*75 + uint32(frame)
}

// Parse reads a CUE sheet and returns its track layout. Exactly one FILE
// with >=1 TRACK is a single-bin image; N FILEs with N TRACKs in total is a
// multi-bin image; anything else is a fatal parse error, per spec.md §4.3.
func Parse(r io.Reader) (Layout, error) {
	scanner := bufio.NewScanner(r)

	type pendingTrack struct {
		track     Track
		index00   int64
		index01   int64
		hasIndex00 bool
	}

	var layout Layout
	var currentFile string
	var fileTrackCounts []int
	var pending []*pendingTrack

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := fileLineRe.FindStringSubmatch(trimmed); m != nil {
			currentFile = m[1]
			layout.BinFiles = append(layout.BinFiles, currentFile)
			fileTrackCounts = append(fileTrackCounts, 0)
			continue
		}
		if m := trackLineRe.FindStringSubmatch(trimmed); m != nil {
			num, _ := strconv.Atoi(m[1])
			tt := TrackMode2
			if m[2] == "AUDIO" {
				tt = TrackAudio
			}
			pending = append(pending, &pendingTrack{track: Track{Number: num, Type: tt, File: currentFile}})
			if len(fileTrackCounts) > 0 {
				fileTrackCounts[len(fileTrackCounts)-1]++
			}
			continue
		}
		if m := indexLineRe.FindStringSubmatch(trimmed); m != nil {
			if len(pending) == 0 {
				return layout, fmt.Errorf("cuetrack: INDEX line before any TRACK: %q", trimmed)
			}
			idx, _ := strconv.Atoi(m[1])
			min, _ := strconv.Atoi(m[2])
			sec, _ := strconv.Atoi(m[3])
			frame, _ := strconv.Atoi(m[4])
			sector := int64(msfToSector(min, sec, frame))
			cur := pending[len(pending)-1]
			switch idx {
			case 0:
				cur.index00 = sector
				cur.hasIndex00 = true
			case 1:
				cur.index01 = sector
			}
			continue
		}
		// unrecognized lines (REM, CATALOG, etc.) are ignored.
	}
	if err := scanner.Err(); err != nil {
		return layout, fmt.Errorf("cuetrack: reading CUE: %w", err)
	}
	if len(pending) == 0 {
		return layout, fmt.Errorf("cuetrack: no TRACK lines found")
	}

	switch {
	case len(layout.BinFiles) == 1:
		layout.MultiBin = false
	case len(layout.BinFiles) == len(pending):
		layout.MultiBin = true
	default:
		return layout, fmt.Errorf("cuetrack: %d FILE line(s) with %d TRACK line(s) is neither single-bin nor multi-bin", len(layout.BinFiles), len(pending))
	}

	for i, p := range pending {
		t := p.track
		t.StartSector = uint32(p.index01)
		t.DataOffsetSector = t.StartSector
		pregap := int64(0)
		if p.hasIndex00 {
			pregap = p.index01 - p.index00
		}
		if pregap < 0 {
			// A negative pregap reported for track 1 is a known libcdio
			// idiosyncrasy; clamp rather than propagate a bogus value.
			pregap = 0
		}
		t.PregapSectors = uint32(pregap)
		pending[i].track = t
	}

	layout.Tracks = make([]Track, len(pending))
	for i, p := range pending {
		layout.Tracks[i] = p.track
	}
	return layout, nil
}

// FillEndSectors derives each non-last track's EndSector from the next
// track's start (or, for the last track, from the image's total sector
// count), and applies the +150 mixed-mode correction spec.md §4.3
// documents for non-last tracks.
func FillEndSectors(tracks []Track, totalImageSectors uint32) {
	for i := range tracks {
		var end uint32
		if i+1 < len(tracks) {
			end = tracks[i+1].StartSector - tracks[i+1].PregapSectors
			end += 150
		} else {
			end = totalImageSectors
		}
		tracks[i].EndSector = end
		tracks[i].TotalSectors = end - tracks[i].StartSector
	}
}

// AudioSectorTotal sums TotalSectors across every audio track.
func AudioSectorTotal(tracks []Track) uint32 {
	var total uint32
	for _, t := range tracks {
		if t.Type == TrackAudio {
			total += t.TotalSectors
		}
	}
	return total
}
