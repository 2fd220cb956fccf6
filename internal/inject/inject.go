// Package inject implements spec.md §1(c): replacing a single file's
// contents inside an existing image in place, without touching the
// catalog, allocator, or directory builder — "trivial given a sector
// map", per the purpose-and-scope note that keeps it out of the core
// round-trip engine's specified ~38% breakdown. Grounded on psxbuild.cpp's
// directory-walk helpers used elsewhere in this module, narrowed to a
// single path lookup instead of a full tree build.
package inject

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/Ripper55555/psximager/internal/iso9660"
	"github.com/Ripper55555/psximager/internal/sector"
)

// Replace opens cuePath's data track, locates replPath inside its ISO
// 9660 + XA filesystem, and overwrites that file's sectors in place with
// newFilePath's contents.
func Replace(cuePath, replPath, newFilePath string) error {
	binPath, err := dataTrackBinPath(cuePath)
	if err != nil {
		return diag.Wrap("inject: resolving data track", err)
	}

	f, err := os.OpenFile(binPath, os.O_RDWR, 0)
	if err != nil {
		return diag.Wrap("inject: opening image", err)
	}
	defer f.Close()

	rec, err := locate(f, replPath)
	if err != nil {
		return diag.Wrap(fmt.Sprintf("inject: locating %q", replPath), err)
	}
	if rec.Flags&iso9660.FlagDirectory != 0 {
		return fmt.Errorf("inject: %q is a directory, not a file", replPath)
	}
	if rec.XA.Attributes&iso9660.XAAttrCDDA != 0 {
		return fmt.Errorf("inject: %q is a CDDA back-reference, not injectable (no data-track sectors to overwrite)", replPath)
	}

	payload, err := os.ReadFile(newFilePath)
	if err != nil {
		return diag.Wrap("inject: reading replacement file", err)
	}

	if rec.XA.Attributes&iso9660.XAAttrMode2Form2 != 0 {
		return replaceForm2(f, rec, payload)
	}
	return replaceForm1(f, rec, payload)
}

// dataTrackBinPath reads just enough of the CUE sheet to find the BINARY
// file backing track 1, without pulling in the full cuetrack parser (this
// package never needs track/pregap classification, only a file name).
func dataTrackBinPath(cuePath string) (string, error) {
	raw, err := os.ReadFile(cuePath)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "FILE ") {
			continue
		}
		start := strings.IndexByte(line, '"')
		end := strings.LastIndexByte(line, '"')
		if start < 0 || end <= start {
			continue
		}
		name := line[start+1 : end]
		return joinNextTo(cuePath, name), nil
	}
	return "", fmt.Errorf("no FILE line found")
}

func joinNextTo(cuePath, name string) string {
	dir := cuePath[:strings.LastIndexAny(cuePath, "/\\")+1]
	return dir + name
}

// locate walks the ISO 9660 tree from the PVD's root, resolving path
// (slash-separated, case-insensitive) to its directory record.
func locate(f *os.File, path string) (iso9660.DirRecord, error) {
	pvdRaw, err := readRaw(f, iso9660.PVDSector)
	if err != nil {
		return iso9660.DirRecord{}, err
	}
	dec, err := sector.DecodeMode2(pvdRaw)
	if err != nil {
		return iso9660.DirRecord{}, err
	}
	var pvdPayload [2048]byte
	copy(pvdPayload[:], dec.Payload)
	pvd, err := iso9660.DecodePVD(pvdPayload)
	if err != nil {
		return iso9660.DirRecord{}, err
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	dir := pvd.RootDirRecord
	for i, seg := range segments {
		entries, err := readDirEntries(f, dir)
		if err != nil {
			return iso9660.DirRecord{}, err
		}
		want := strings.ToUpper(iso9660.StripVersion(seg))
		var found *iso9660.DirRecord
		for j := range entries {
			if strings.ToUpper(iso9660.StripVersion(entries[j].Name)) == want {
				found = &entries[j]
				break
			}
		}
		if found == nil {
			return iso9660.DirRecord{}, fmt.Errorf("path component %q not found", seg)
		}
		if i < len(segments)-1 {
			if found.Flags&iso9660.FlagDirectory == 0 {
				return iso9660.DirRecord{}, fmt.Errorf("path component %q is not a directory", seg)
			}
			dir = *found
			continue
		}
		return *found, nil
	}
	return iso9660.DirRecord{}, fmt.Errorf("empty path")
}

// readDirEntries decodes every record in a directory's extent, skipping
// "." and "..".
func readDirEntries(f *os.File, dir iso9660.DirRecord) ([]iso9660.DirRecord, error) {
	sectorCount := int(dir.DataLength+2047) / 2048
	var out []iso9660.DirRecord
	for s := 0; s < sectorCount; s++ {
		raw, err := readRaw(f, int64(dir.ExtentLBN)+int64(s))
		if err != nil {
			return nil, err
		}
		dec, err := sector.DecodeMode2(raw)
		if err != nil {
			return nil, err
		}
		off := 0
		for off < len(dec.Payload) {
			rec, n, err := iso9660.DecodeDirRecord(dec.Payload[off:])
			if err != nil {
				return nil, err
			}
			if n == 0 {
				break // padding to end of sector
			}
			if rec.Name != "\x00" && rec.Name != "\x01" {
				out = append(out, rec)
			}
			off += n
		}
	}
	return out, nil
}

func readRaw(f *os.File, lbn int64) ([sector.RawSize]byte, error) {
	var raw [sector.RawSize]byte
	if _, err := f.Seek(lbn*sector.RawSize, io.SeekStart); err != nil {
		return raw, err
	}
	if _, err := io.ReadFull(f, raw[:]); err != nil {
		return raw, err
	}
	return raw, nil
}

func writeRaw(f *os.File, lbn int64, raw [sector.RawSize]byte) error {
	_, err := f.WriteAt(raw[:], lbn*sector.RawSize)
	return err
}

// replaceForm1 overwrites a regular file's sectors. The new content may
// not exceed the sectors already allocated to the file — an in-place
// replace has no allocator pass to grow into.
func replaceForm1(f *os.File, rec iso9660.DirRecord, payload []byte) error {
	sectorCount := int(rec.DataLength+2047) / 2048
	if len(payload) > sectorCount*sector.Form1DataSize {
		return fmt.Errorf("inject: replacement is %d bytes, larger than the %d bytes allocated on disc", len(payload), sectorCount*sector.Form1DataSize)
	}
	for i := 0; i < sectorCount; i++ {
		var chunk [2048]byte
		start := i * 2048
		if start < len(payload) {
			c := payload[start:]
			if len(c) > 2048 {
				c = c[:2048]
			}
			copy(chunk[:], c)
		}
		raw, err := sector.EncodeMode2(chunk[:], rec.ExtentLBN+uint32(i), [4]byte{}, sector.Form1, sector.EDCCompute)
		if err != nil {
			return err
		}
		if err := writeRaw(f, int64(rec.ExtentLBN)+int64(i), raw); err != nil {
			return err
		}
	}
	return nil
}

// replaceForm2 overwrites an XA Form 2 file's sectors, sampling the
// existing sectors' EDC field first to preserve whichever zero-EDC
// convention the original file was written with, the same signal
// internal/ripper samples for on rip.
func replaceForm2(f *os.File, rec iso9660.DirRecord, payload []byte) error {
	sectorCount := int(rec.DataLength) / 2048
	if sectorCount == 0 {
		sectorCount = 1
	}
	capacity := sectorCount * sector.Form2DataSize
	if len(payload) > capacity {
		return fmt.Errorf("inject: replacement is %d bytes, larger than the %d bytes allocated on disc", len(payload), capacity)
	}

	zeroEDC := true
	for i := 0; i < sectorCount; i++ {
		raw, err := readRaw(f, int64(rec.ExtentLBN)+int64(i))
		if err != nil {
			return err
		}
		if !sector.Form2EDCIsZero(raw) {
			zeroEDC = false
			break
		}
	}
	policy := sector.EDCCompute
	if zeroEDC {
		policy = sector.EDCZero
	}

	var sub [4]byte
	copy(sub[:], sector.EmptySubheader[:4])
	for i := 0; i < sectorCount; i++ {
		chunk := make([]byte, sector.Form2DataSize)
		start := i * sector.Form2DataSize
		if start < len(payload) {
			c := payload[start:]
			if len(c) > sector.Form2DataSize {
				c = c[:sector.Form2DataSize]
			}
			copy(chunk, c)
		}
		raw, err := sector.EncodeMode2(chunk, rec.ExtentLBN+uint32(i), sub, sector.Form2, policy)
		if err != nil {
			return err
		}
		if err := writeRaw(f, int64(rec.ExtentLBN)+int64(i), raw); err != nil {
			return err
		}
	}
	return nil
}
