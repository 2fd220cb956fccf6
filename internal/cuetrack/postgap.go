package cuetrack

import "github.com/Ripper55555/psximager/internal/sector"

// Track1Info bundles the two facts the Ripper and Builder both need about
// the disc's first (always data) track: its raw sector count and the
// postgap shape of its last sector.
type Track1Info struct {
	SectorCount  uint32
	PostgapType  sector.PostgapType
	LastSector   [sector.RawSize]byte // only meaningful when PostgapType == PostgapType0
}

// ClassifyTrack1 reads the last sector of track 1 (index track1SectorCount-1
// within the opened reader) and classifies its postgap shape.
func ClassifyTrack1(r *sector.Reader, track1SectorCount uint32) (Track1Info, error) {
	info := Track1Info{SectorCount: track1SectorCount}
	if track1SectorCount == 0 {
		return info, nil
	}
	raw, err := r.ReadRaw(int64(track1SectorCount - 1))
	if err != nil {
		return info, err
	}
	info.LastSector = raw
	info.PostgapType = sector.ClassifyPostgap(raw)
	return info, nil
}
