// Package builder drives the reassembly side of spec.md §4.8: parse a
// catalog back into an FSNode tree, allocate it, render its directories
// and path tables, and stream the result into a fresh BIN/CUE pair.
// Grounded on psxbuild.cpp's main driver, reworked per spec.md §9 into a
// sequential imageWriter instead of the original's WriteData visitor tree.
package builder

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ripper55555/psximager/internal/alloc"
	"github.com/Ripper55555/psximager/internal/catalog"
	"github.com/Ripper55555/psximager/internal/cuetrack"
	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/Ripper55555/psximager/internal/dirbuild"
	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
	"github.com/Ripper55555/psximager/internal/sector"
	"github.com/Ripper55555/psximager/internal/wavfile"
)

// Options controls optional build behavior, bound to the `build`
// subcommand's flags in cmd/build.go.
type Options struct {
	WriteCue bool // -c/--cuefile: also emit a new CUE sheet next to the BIN
}

// Build reads catPath and the host tree rooted at catPath with its
// extension stripped (hostBase), matching psxbuild.cpp's fsBasePath: the
// host tree's location is tied to the catalog file, never to the output
// path. It writes outPath + ".bin" (and, if opts.WriteCue, outPath +
// ".cue"), where outPath is outBase if given, or hostBase otherwise.
func Build(catPath, outBase string, opts Options) error {
	catDir := filepath.Dir(catPath)
	hostBase := trimExt(catPath)
	outPath := outBase
	if outPath == "" {
		outPath = hostBase
	}

	f, err := os.Open(catPath)
	if err != nil {
		return diag.Wrap("builder: opening catalog", err)
	}
	cat, err := catalog.Parse(f, hostBase)
	f.Close()
	if err != nil {
		return diag.Wrap("builder: parsing catalog", err)
	}

	dirbuild.ComputeSizes(cat.Root)

	policy := alloc.Default
	if cat.Tracking.StrictRebuild {
		policy = alloc.Strict
	}
	result, err := alloc.Run(cat.Root, policy)
	if err != nil {
		return diag.Wrap("builder: allocating extents", err)
	}

	volumeSize := result.EndOfTrack1 + 150 + cat.Tracking.AudioSectors
	if volumeSize > iso9660.MaxSectors {
		diag.LogWarn("image is %d sectors, exceeding the %d-sector disc limit", volumeSize, iso9660.MaxSectors)
	}

	audioOffset := alloc.AudioOffset(result.EndOfTrack1, cat.Tracking.Track1SectorCount)
	alloc.ApplyAudioOffset(cat.Root, audioOffset)

	lTable, mTable, err := dirbuild.BuildPathTables(cat.Root)
	if err != nil {
		return diag.Wrap("builder: building path tables", err)
	}

	outBin := outPath + ".bin"
	out, err := os.Create(outBin)
	if err != nil {
		return diag.Wrap("builder: creating output image", err)
	}
	defer out.Close()

	w := &imageWriter{f: out}

	sysPath := filepath.Join(catDir, cat.SystemAreaFile)
	if err := writeSystemArea(w, sysPath); err != nil {
		return diag.Wrap("builder: writing system area", err)
	}

	pvd := buildPVD(cat, result.EndOfTrack1+150+cat.Tracking.AudioSectors, lTable, mTable)
	if err := w.writeForm1(iso9660.PVDSector, pvd.Encode()); err != nil {
		return diag.Wrap("builder: writing PVD", err)
	}
	evd := iso9660.EVD{}
	if err := w.writeForm1(iso9660.EVDSector, evd.Encode()); err != nil {
		return diag.Wrap("builder: writing EVD", err)
	}

	if err := writeTableCopies(w, lTable, mTable); err != nil {
		return diag.Wrap("builder: writing path tables", err)
	}

	if err := walkAndWrite(w, cat.Root); err != nil {
		return diag.Wrap("builder: writing filesystem", err)
	}

	if err := w.fillGapTo(result.EndOfTrack1); err != nil {
		return diag.Wrap("builder: padding to end of track 1", err)
	}
	if err := writePostgap(w, cat.Tracking.Track1PostgapType, hostBase); err != nil {
		return diag.Wrap("builder: writing postgap", err)
	}

	tracks, err := cat.Tracking.DecodeTracks()
	if err != nil {
		return diag.Wrap("builder: decoding track listing", err)
	}
	if err := appendAudioTracks(w, tracks, audioOffset, filepath.Join(hostBase, "_PSXRIP")); err != nil {
		return diag.Wrap("builder: appending audio tracks", err)
	}

	if opts.WriteCue {
		originalCue, err := cat.Tracking.DecodeOriginalCue()
		if err != nil {
			return diag.Wrap("builder: decoding original_cue_file", err)
		}
		if err := writeCue(outPath+".cue", filepath.Base(outBin), tracks, audioOffset, originalCue); err != nil {
			return diag.Wrap("builder: writing CUE", err)
		}
	}
	return nil
}

func trimExt(p string) string {
	return p[:len(p)-len(filepath.Ext(p))]
}

// imageWriter writes raw 2352-byte sectors to an absolute LBN while
// tracking the next sector a sequential write should land at, so gaps
// ahead of a node's allocated LBN can be filled with empty-form-2 filler.
type imageWriter struct {
	f      *os.File
	cursor uint32
}

func (w *imageWriter) writeAt(lbn uint32, raw [sector.RawSize]byte) error {
	if _, err := w.f.WriteAt(raw[:], int64(lbn)*sector.RawSize); err != nil {
		return err
	}
	if lbn >= w.cursor {
		w.cursor = lbn + 1
	}
	return nil
}

func (w *imageWriter) fillGapTo(lbn uint32) error {
	for w.cursor < lbn {
		if err := w.writeAt(w.cursor, sector.EmptyForm2(w.cursor)); err != nil {
			return err
		}
	}
	return nil
}

func (w *imageWriter) writeForm1(lbn uint32, payload [2048]byte) error {
	raw, err := sector.EncodeMode2(payload[:], lbn, [4]byte{}, sector.Form1, sector.EDCCompute)
	if err != nil {
		return err
	}
	return w.writeAt(lbn, raw)
}

func writeSystemArea(w *imageWriter, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	const size = 16 * sector.RawSize
	if len(raw) > size {
		return fmt.Errorf("builder: system area file %q is %d bytes, larger than %d", path, len(raw), size)
	}
	if len(raw) < size {
		padded := make([]byte, size)
		copy(padded, raw)
		raw = padded
	}
	for lbn := int64(0); lbn < 16; lbn++ {
		var s [sector.RawSize]byte
		copy(s[:], raw[lbn*sector.RawSize:(lbn+1)*sector.RawSize])
		if err := w.writeAt(uint32(lbn), s); err != nil {
			return err
		}
	}
	return nil
}

// buildPVD renders the Primary Volume Descriptor from the catalog's
// volume block and the allocator's final sizes.
func buildPVD(cat *catalog.Catalog, volumeSize uint32, lTable, mTable []byte) iso9660.PVD {
	return iso9660.PVD{
		SystemID:               cat.Volume.SystemID,
		VolumeID:               cat.Volume.VolumeID,
		VolumeSpaceSize:        volumeSize,
		VolumeSetSize:          1,
		VolumeSequenceNumber:   1,
		PathTableSize:          uint32(pathTableContentSize(lTable)),
		LPathTableLBN:          iso9660.PathTableStartSector,
		LPathTableCopyLBN:      iso9660.PathTableStartSector + 1,
		MPathTableLBN:          iso9660.PathTableStartSector + 2,
		MPathTableCopyLBN:      iso9660.PathTableStartSector + 3,
		RootDirRecord: iso9660.DirRecord{
			ExtentLBN:  cat.Root.FirstSector,
			DataLength: cat.Root.SizeBytes,
			Recorded:   rootDirTime(cat.Volume.CreationDate),
			Flags:      iso9660.FlagDirectory,
			Name:       "\x00",
		},
		VolumeSetIdentifier:    cat.Volume.VolumeSetID,
		PublisherIdentifier:    cat.Volume.PublisherID,
		DataPreparerIdentifier: cat.Volume.PreparerID,
		ApplicationIdentifier:  cat.Volume.ApplicationID,
		CopyrightFileID:        cat.Volume.CopyrightFileID,
		AbstractFileID:         cat.Volume.AbstractFileID,
		BibliographicFileID:    cat.Volume.BibliographicFileID,
		CreationDate:           cat.Volume.CreationDate,
		ModificationDate:       cat.Volume.ModificationDate,
		ExpirationDate:         cat.Volume.ExpirationDate,
		EffectiveDate:          cat.Volume.EffectiveDate,
	}
}

// pathTableContentSize reports the unpadded length of a path table that
// BuildPathTables has already rounded up to a whole sector: the summed
// size of the entries it decodes to, each including the pad byte after an
// odd-length name.
func pathTableContentSize(padded []byte) int {
	n := 0
	for _, e := range iso9660.DecodeTable(padded, binary.LittleEndian) {
		n += e.EncodeSize()
	}
	return n
}

// rootDirTime implements SPEC_FULL.md supplemented feature 9: the PVD
// root directory record's recording date is the catalog's creation date
// shifted into GMT by its own quarter-hour offset, then re-expanded, not a
// straight field copy.
func rootDirTime(creation iso9660.LTime) iso9660.ShortDate {
	if creation.Year == 0 {
		return iso9660.ShortDate{}
	}
	t := time.Date(creation.Year, time.Month(creation.Month), creation.Day,
		creation.Hour, creation.Minute, creation.Second, 0, time.UTC)
	t = t.Add(-time.Duration(creation.GMTOffset) * 15 * time.Minute)
	return iso9660.ShortDate{
		YearsSince1900: byte(t.Year() - 1900),
		Month:          byte(t.Month()),
		Day:            byte(t.Day()),
		Hour:           byte(t.Hour()),
		Minute:         byte(t.Minute()),
		Second:         byte(t.Second()),
	}
}

func writeTableCopies(w *imageWriter, lTable, mTable []byte) error {
	tables := []struct {
		lbn uint32
		b   []byte
	}{
		{iso9660.PathTableStartSector, lTable},
		{iso9660.PathTableStartSector + 1, lTable},
		{iso9660.PathTableStartSector + 2, mTable},
		{iso9660.PathTableStartSector + 3, mTable},
	}
	for _, t := range tables {
		var payload [2048]byte
		copy(payload[:], t.b)
		if err := w.writeForm1(t.lbn, payload); err != nil {
			return err
		}
	}
	return nil
}

// walkAndWrite traverses root in insertion order, emitting every
// directory's rendered extent and every file's bytes at its allocated
// LBN, filling any gap ahead of it with empty-form-2 sectors first.
func walkAndWrite(w *imageWriter, root *fsnode.Node) error {
	for _, n := range fsnode.PreOrder(root) {
		if n.Kind == fsnode.AudioRef {
			continue
		}
		if err := w.fillGapTo(n.FirstSector); err != nil {
			return err
		}
		switch n.Kind {
		case fsnode.Dir:
			if err := writeDirExtent(w, n); err != nil {
				return err
			}
		case fsnode.Form2:
			if err := writeForm2File(w, n); err != nil {
				return err
			}
		default:
			if err := writeRegularFile(w, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDirExtent(w *imageWriter, n *fsnode.Node) error {
	extent := dirbuild.BuildExtent(n)
	return writeForm1Sectors(w, n.FirstSector, n.SectorCount, extent)
}

func writeRegularFile(w *imageWriter, n *fsnode.Node) error {
	data, err := os.ReadFile(n.HostPath)
	if err != nil {
		return err
	}
	return writeForm1Sectors(w, n.FirstSector, n.SectorCount, data)
}

func writeForm1Sectors(w *imageWriter, startLBN, sectorCount uint32, data []byte) error {
	for i := uint32(0); i < sectorCount; i++ {
		var payload [2048]byte
		start := int(i) * 2048
		if start < len(data) {
			chunk := data[start:]
			if len(chunk) > 2048 {
				chunk = chunk[:2048]
			}
			copy(payload[:], chunk)
		}
		if err := w.writeForm1(startLBN+i, payload); err != nil {
			return err
		}
	}
	return nil
}

// writeForm2File emits exactly n.SectorCount sectors (the count the
// allocator's cursor already advanced by), rather than deriving a count
// from the host file's byte length: SectorsForSize rounds Form 2 files by
// the ISO 9660 logical block size (2336) while the ripper accumulates
// 2324 decoded bytes per sector, so the two can disagree by a sector at
// the tail of very large streams. Iterating SectorCount keeps the image
// layout consistent with every other extent's allocation regardless.
func writeForm2File(w *imageWriter, n *fsnode.Node) error {
	data, err := os.ReadFile(n.HostPath)
	if err != nil {
		return err
	}
	policy := sector.EDCCompute
	if n.ZeroEdcFlag {
		policy = sector.EDCZero
	}
	var sub [4]byte
	copy(sub[:], sector.EmptySubheader[:4])
	for i := uint32(0); i < n.SectorCount; i++ {
		payload := make([]byte, sector.Form2DataSize)
		start := int(i) * sector.Form2DataSize
		if start < len(data) {
			chunk := data[start:]
			if len(chunk) > sector.Form2DataSize {
				chunk = chunk[:sector.Form2DataSize]
			}
			copy(payload, chunk)
		}
		raw, err := sector.EncodeMode2(payload, n.FirstSector+i, sub, sector.Form2, policy)
		if err != nil {
			return err
		}
		if err := w.writeAt(n.FirstSector+i, raw); err != nil {
			return err
		}
	}
	return nil
}

// writePostgap emits the 150 sectors following track 1 in the shape its
// classified type calls for, substituting the ripped Last_sector.bin
// verbatim at the final position for Type 0. hostBase is the ripped tree
// root, not the catalog file's directory: Last_sector.bin lives under its
// _PSXRIP subdirectory alongside the other captured audio.
func writePostgap(w *imageWriter, postgapType int, hostBase string) error {
	var last *[sector.RawSize]byte
	if sector.PostgapType(postgapType) == sector.PostgapType0 {
		raw, err := os.ReadFile(filepath.Join(hostBase, "_PSXRIP", "Last_sector.bin"))
		if err != nil {
			diag.LogWarn("Type 0 postgap but Last_sector.bin is unavailable (%v); using a Type 1 filler", err)
		} else if len(raw) == sector.RawSize {
			var s [sector.RawSize]byte
			copy(s[:], raw)
			last = &s
		}
	}
	for i := 0; i < 150; i++ {
		lbn := w.cursor
		var raw [sector.RawSize]byte
		switch {
		case last != nil && i == 149:
			raw = *last
		case sector.PostgapType(postgapType) == sector.PostgapType2:
			raw = sector.EmptyForm2(lbn)
		case sector.PostgapType(postgapType) == sector.PostgapType3:
			raw = sector.EmptyType3(lbn)
		default:
			raw = sector.EmptyType1(lbn)
		}
		if err := w.writeAt(lbn, raw); err != nil {
			return err
		}
	}
	return nil
}

// appendAudioTracks streams every CDDA track's ripped WAV body (and its
// pregap's, if one was captured) onto the image past the data track and
// its postgap, skipping each file's 44-byte header via wavfile.DataOffset.
func appendAudioTracks(w *imageWriter, tracks []cuetrack.Track, audioOffset int64, wavDir string) error {
	for _, t := range tracks {
		if t.Type != cuetrack.TrackAudio {
			continue
		}
		if t.PregapSectors > 0 {
			if err := streamWav(w, filepath.Join(wavDir, fmt.Sprintf("Pregap_%02d.wav", t.Number))); err != nil {
				return err
			}
		}
		if err := streamWav(w, filepath.Join(wavDir, fmt.Sprintf("Track_%02d.wav", t.Number))); err != nil {
			return err
		}
	}
	return nil
}

func streamWav(w *imageWriter, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	off, err := wavfile.DataOffset(raw)
	if err != nil {
		return diag.Wrap(fmt.Sprintf("builder: reading %q", path), err)
	}
	pcm := raw[off:]
	for i := 0; i*sector.RawSize < len(pcm); i++ {
		var s [sector.RawSize]byte
		chunk := pcm[i*sector.RawSize:]
		if len(chunk) > sector.RawSize {
			chunk = chunk[:sector.RawSize]
		}
		copy(s[:], chunk)
		if err := w.writeAt(w.cursor, s); err != nil {
			return err
		}
	}
	return nil
}

// writeCue emits a CUE sheet naming binName. When originalCue holds a
// verbatim CUE sheet carried over from rip, it is reused as-is (only its
// FILE line's quoted name is swapped to binName), matching psxbuild.cpp's
// rebuild behavior so header/footer wording and comments survive the
// round trip. Otherwise a single-FILE sheet is synthesized from tracks,
// with per-track INDEX entries at their final, offset-adjusted MSF
// positions.
func writeCue(path, binName string, tracks []cuetrack.Track, audioOffset int64, originalCue string) error {
	if out, ok := rewriteCueFilename(originalCue, binName); ok {
		return os.WriteFile(path, []byte(out), 0o644)
	}

	// CUE INDEX times count from the start of the FILE, so unlike a sector
	// header's MSF they carry no 150-frame offset.
	cueMSF := func(lbn uint32) string {
		return fmt.Sprintf("%02d:%02d:%02d", lbn/4500, (lbn/75)%60, lbn%75)
	}

	var out []byte
	out = append(out, fmt.Sprintf("FILE \"%s\" BINARY\n", binName)...)
	for _, t := range tracks {
		typeStr := "MODE2/2352"
		if t.Type == cuetrack.TrackAudio {
			typeStr = "AUDIO"
		}
		out = append(out, fmt.Sprintf("  TRACK %02d %s\n", t.Number, typeStr)...)
		if t.Type == cuetrack.TrackAudio {
			start := int64(t.StartSector) + audioOffset
			if t.PregapSectors > 0 {
				pregapStart := start - int64(t.PregapSectors)
				out = append(out, fmt.Sprintf("    INDEX 00 %s\n", cueMSF(uint32(pregapStart)))...)
			}
			out = append(out, fmt.Sprintf("    INDEX 01 %s\n", cueMSF(uint32(start)))...)
			continue
		}
		out = append(out, fmt.Sprintf("    INDEX 01 %s\n", cueMSF(t.StartSector))...)
	}
	return os.WriteFile(path, out, 0o644)
}

// rewriteCueFilename validates that original looks like a real CUE sheet
// (carries FILE, TRACK, INDEX and BINARY, the same check psxbuild.cpp
// runs before trusting original_cue_file) and, if so, swaps the first
// quoted name after its FILE keyword to binName. ok is false when
// original is empty or doesn't look like a CUE sheet, telling the caller
// to fall back to synthesis.
func rewriteCueFilename(original, binName string) (out string, ok bool) {
	if !strings.Contains(original, "FILE") || !strings.Contains(original, "TRACK") ||
		!strings.Contains(original, "INDEX") || !strings.Contains(original, "BINARY") {
		return "", false
	}
	filePos := strings.Index(original, "FILE")
	startPos := strings.IndexByte(original[filePos:], '"')
	if startPos < 0 {
		return "", false
	}
	startPos += filePos + 1
	endPos := strings.IndexByte(original[startPos:], '"')
	if endPos < 0 {
		return "", false
	}
	endPos += startPos
	return original[:startPos] + binName + original[endPos:], true
}
