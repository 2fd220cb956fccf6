package cuetrack

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var csvHeader = []string{"trackNumber", "type", "startSector", "pregapSectors", "dataOffsetSector", "endSector", "totalSectors"}

func trackTypeString(t TrackType) string {
	if t == TrackAudio {
		return "AUDIO"
	}
	return "MODE2/2352"
}

func parseTrackType(s string) (TrackType, error) {
	switch s {
	case "AUDIO":
		return TrackAudio, nil
	case "MODE2/2352":
		return TrackMode2, nil
	default:
		return 0, fmt.Errorf("cuetrack: unknown track type %q", s)
	}
}

// EncodeCSV renders tracks as the UTF-8 CSV body spec.md's track_listing
// field base64-encodes: one header row plus one row per track.
func EncodeCSV(tracks []Track) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, t := range tracks {
		row := []string{
			strconv.Itoa(t.Number),
			trackTypeString(t.Type),
			strconv.FormatUint(uint64(t.StartSector), 10),
			strconv.FormatUint(uint64(t.PregapSectors), 10),
			strconv.FormatUint(uint64(t.DataOffsetSector), 10),
			strconv.FormatUint(uint64(t.EndSector), 10),
			strconv.FormatUint(uint64(t.TotalSectors), 10),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// DecodeCSV parses the track_listing CSV body back into Track records.
func DecodeCSV(body string) ([]Track, error) {
	r := csv.NewReader(strings.NewReader(body))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cuetrack: parsing track listing CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rows = rows[1:] // drop header

	atoi := func(s string) (uint32, error) {
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	}

	tracks := make([]Track, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("cuetrack: track listing row %d has %d fields, want %d", i, len(row), len(csvHeader))
		}
		num, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("cuetrack: track listing row %d: %w", i, err)
		}
		typ, err := parseTrackType(row[1])
		if err != nil {
			return nil, err
		}
		start, err1 := atoi(row[2])
		pregap, err2 := atoi(row[3])
		offset, err3 := atoi(row[4])
		end, err4 := atoi(row[5])
		total, err5 := atoi(row[6])
		for _, e := range []error{err1, err2, err3, err4, err5} {
			if e != nil {
				return nil, fmt.Errorf("cuetrack: track listing row %d: %w", i, e)
			}
		}
		tracks = append(tracks, Track{
			Number: num, Type: typ, StartSector: start, PregapSectors: pregap,
			DataOffsetSector: offset, EndSector: end, TotalSectors: total,
		})
	}
	return tracks, nil
}
