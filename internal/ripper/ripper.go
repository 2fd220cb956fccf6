// Package ripper drives the disassembly side of spec.md §4.7: read a
// BIN/CUE, walk its ISO 9660 + XA filesystem, and emit a host directory
// tree, a catalog, the system-area dump and the audio tracks needed for a
// later build to reproduce the image byte-for-byte. Grounded on
// psxrip.cpp's dumpImage/dumpFilesystem/dumpSystemArea driver, reworked
// per spec.md §9 into explicit tree construction instead of a visitor
// walking a polymorphic FSNode.
package ripper

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ripper55555/psximager/internal/catalog"
	"github.com/Ripper55555/psximager/internal/cuetrack"
	"github.com/Ripper55555/psximager/internal/diag"
	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
	"github.com/Ripper55555/psximager/internal/sector"
	"github.com/Ripper55555/psximager/internal/wavfile"
)

// Options controls optional rip behavior, bound to the `rip` subcommand's
// flags in cmd/rip.go.
type Options struct {
	WriteLBNs bool // -l/--lbns: emit "@LBN" on every dir/file catalog line
	Strict    bool // -s/--strict: mark the catalog for strict rebuild (implies WriteLBNs)
	LBNTable  bool // -t/--lbn-table: print a flat LBN table instead of writing the catalog
	Fix       bool // -f/--fix: repair Y2K-broken dates instead of preserving them
}

const wavSubdir = "_PSXRIP"

// Rip reads cuePath and writes outBase's tree (outBase + "/"), catalog
// (outBase + ".cat"), system-area dump (outBase + ".sys") and the audio
// tracks under outBase + "/_PSXRIP/".
func Rip(cuePath, outBase string, opts Options) error {
	cueDir := filepath.Dir(cuePath)
	cueBytes, err := os.ReadFile(cuePath)
	if err != nil {
		return diag.Wrap("ripper: reading CUE", err)
	}
	layout, err := cuetrack.Parse(bytes.NewReader(cueBytes))
	if err != nil {
		return diag.Wrap("ripper: parsing CUE", err)
	}
	if len(layout.Tracks) == 0 || layout.Tracks[0].Type != cuetrack.TrackMode2 {
		return fmt.Errorf("ripper: track 1 must be a MODE2/2352 data track")
	}

	readers := make(map[string]*sector.Reader, len(layout.BinFiles))
	for _, f := range layout.BinFiles {
		r, err := sector.NewReader(filepath.Join(cueDir, f))
		if err != nil {
			return diag.Wrap(fmt.Sprintf("ripper: opening %q", f), err)
		}
		readers[f] = r
	}
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	tracks := layout.Tracks
	dataReader := readers[tracks[0].File]
	if layout.MultiBin {
		for i := range tracks {
			total := uint32(readers[tracks[i].File].TotalSectors())
			tracks[i].EndSector = total
			tracks[i].TotalSectors = total - tracks[i].StartSector
		}
	} else {
		cuetrack.FillEndSectors(tracks, uint32(dataReader.TotalSectors()))
	}

	track1, err := cuetrack.ClassifyTrack1(dataReader, tracks[0].TotalSectors)
	if err != nil {
		return diag.Wrap("ripper: classifying track 1 postgap", err)
	}

	outBase = trimTrailingSlash(outBase)
	treeDir := outBase
	wavDir := filepath.Join(treeDir, wavSubdir)
	if err := os.MkdirAll(wavDir, 0o755); err != nil {
		return diag.Wrap("ripper: creating output tree", err)
	}

	sysArea, err := dumpSystemArea(dataReader)
	if err != nil {
		return diag.Wrap("ripper: dumping system area", err)
	}
	sysPath := outBase + ".sys"
	if err := os.WriteFile(sysPath, sysArea, 0o644); err != nil {
		return diag.Wrap("ripper: writing system area", err)
	}

	pvdSector, err := dataReader.ReadDecoded(iso9660.PVDSector)
	if err != nil {
		return diag.Wrap("ripper: reading PVD sector", err)
	}
	var pvdRaw [2048]byte
	copy(pvdRaw[:], pvdSector.Payload)
	pvd, err := iso9660.DecodePVD(pvdRaw)
	if err != nil {
		return diag.Wrap("ripper: decoding PVD", err)
	}

	ctx := &ripCtx{reader: dataReader, fix: opts.Fix, pvdCreationYear: pvd.CreationDate.Year, outDir: treeDir}
	root, err := ctx.buildTree(pvd.RootDirRecord.ExtentLBN, pvd.RootDirRecord.DataLength, "", nil, false)
	if err != nil {
		return diag.Wrap("ripper: walking filesystem", err)
	}

	if opts.LBNTable {
		writeLBNTable(os.Stdout, root)
	}

	for _, t := range tracks {
		if t.Type != cuetrack.TrackAudio {
			continue
		}
		r := readers[t.File]
		if t.PregapSectors > 0 {
			pregapStart := int64(t.StartSector) - int64(t.PregapSectors)
			pcm, err := readRawPCM(r, pregapStart, int64(t.PregapSectors))
			if err != nil {
				return diag.Wrap(fmt.Sprintf("ripper: reading pregap for track %d", t.Number), err)
			}
			if err := wavfile.Write(filepath.Join(wavDir, fmt.Sprintf("Pregap_%02d.wav", t.Number)), pcm); err != nil {
				return diag.Wrap("ripper: writing pregap WAV", err)
			}
		}
		pcm, err := readRawPCM(r, int64(t.StartSector), int64(t.TotalSectors))
		if err != nil {
			return diag.Wrap(fmt.Sprintf("ripper: reading track %d", t.Number), err)
		}
		if err := wavfile.Write(filepath.Join(wavDir, fmt.Sprintf("Track_%02d.wav", t.Number)), pcm); err != nil {
			return diag.Wrap("ripper: writing track WAV", err)
		}
	}

	if track1.PostgapType == sector.PostgapType0 {
		if err := os.WriteFile(filepath.Join(wavDir, "Last_sector.bin"), track1.LastSector[:], 0o644); err != nil {
			return diag.Wrap("ripper: writing Last_sector.bin", err)
		}
	}

	if opts.LBNTable {
		return nil
	}

	cat := &catalog.Catalog{
		SystemAreaFile: filepath.Base(sysPath),
		Root:           root,
	}
	cat.Volume = catalog.VolumeBlock{
		SystemID:            pvd.SystemID,
		VolumeID:            pvd.VolumeID,
		VolumeSetID:         pvd.VolumeSetIdentifier,
		PublisherID:         pvd.PublisherIdentifier,
		PreparerID:          pvd.DataPreparerIdentifier,
		ApplicationID:       pvd.ApplicationIdentifier,
		CopyrightFileID:     pvd.CopyrightFileID,
		AbstractFileID:      pvd.AbstractFileID,
		BibliographicFileID: pvd.BibliographicFileID,
		CreationDate:        pvd.CreationDate,
		ModificationDate:    pvd.ModificationDate,
		ExpirationDate:      pvd.ExpirationDate,
		EffectiveDate:       pvd.EffectiveDate,
		DefaultUID:          root.XA.UID,
		DefaultGID:          root.XA.GID,
	}
	cat.Tracking.Track1SectorCount = track1.SectorCount
	cat.Tracking.Track1PostgapType = int(track1.PostgapType)
	cat.Tracking.AudioSectors = cuetrack.AudioSectorTotal(tracks)
	cat.Tracking.StrictRebuild = opts.Strict
	if err := cat.Tracking.EncodeTracks(tracks); err != nil {
		return diag.Wrap("ripper: encoding track listing", err)
	}
	cat.Tracking.EncodeOriginalCue(string(cueBytes))

	catText := catalog.Serialize(cat, opts.WriteLBNs || opts.Strict)
	if err := os.WriteFile(outBase+".cat", []byte(catText), 0o644); err != nil {
		return diag.Wrap("ripper: writing catalog", err)
	}
	return nil
}

func trimTrailingSlash(p string) string {
	for len(p) > 1 && os.IsPathSeparator(p[len(p)-1]) {
		p = p[:len(p)-1]
	}
	return p
}

func dumpSystemArea(r *sector.Reader) ([]byte, error) {
	out := make([]byte, 0, 16*sector.RawSize)
	for lbn := int64(0); lbn < 16; lbn++ {
		raw, err := r.ReadRaw(lbn)
		if err != nil {
			return nil, err
		}
		out = append(out, raw[:]...)
	}
	return out, nil
}

func readRawPCM(r *sector.Reader, start, count int64) ([]byte, error) {
	out := make([]byte, 0, count*sector.RawSize)
	for i := int64(0); i < count; i++ {
		raw, err := r.ReadRaw(start + i)
		if err != nil {
			return nil, err
		}
		out = append(out, raw[:]...)
	}
	return out, nil
}

// ripCtx carries the state one Rip invocation's filesystem walk needs,
// matching spec.md §9's "explicit BuildContext instead of globals" note.
type ripCtx struct {
	reader          *sector.Reader
	fix             bool
	pvdCreationYear int
	outDir          string
}

// buildTree reads the directory extent at lbn/dataLength, attaches it to
// parent (root when parent is nil), and recurses into every subdirectory.
// Children are visited in ascending LBN order, the order the original
// allocator wrote them in and the order the catalog preserves as write
// order on a later build.
func (c *ripCtx) buildTree(lbn, dataLength uint32, name string, parent *fsnode.Node, hidden bool) (*fsnode.Node, error) {
	sectorCount := iso9660.SectorsForSize(dataLength, false)
	raw, err := c.reader.ReadUserData(int64(lbn), int(sectorCount))
	if err != nil {
		return nil, fmt.Errorf("directory %q at LBN %d: %w", name, lbn, err)
	}
	records, err := decodeDirEntries(raw)
	if err != nil {
		return nil, fmt.Errorf("directory %q at LBN %d: %w", name, lbn, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("directory %q at LBN %d: missing . / .. records", name, lbn)
	}

	node := &fsnode.Node{Kind: fsnode.Dir, Name: name, Hidden: hidden, FirstSector: lbn, RequestedLBN: lbn}
	if parent != nil {
		parent.AddChild(node)
	}

	selfDate, selfBroken := c.resolveDate(records[0].Recorded)
	node.XA = fsnode.XAMeta{GID: records[0].XA.OwnerID, UID: records[0].XA.UserID, Attributes: records[0].XA.Attributes}
	node.Timestamp = fsnode.Timestamp{DateString: selfDate, GMTOffset: records[0].Recorded.GMTOffset}

	parentDate, parentBroken := c.resolveDate(records[1].Recorded)
	node.ParentXA = fsnode.XAMeta{GID: records[1].XA.OwnerID, UID: records[1].XA.UserID, Attributes: records[1].XA.Attributes}
	node.ParentTime = fsnode.Timestamp{DateString: parentDate, GMTOffset: records[1].Recorded.GMTOffset}

	var y2k fsnode.Y2KFlag
	if selfBroken {
		y2k += fsnode.Y2KSelfBroken
	}
	if parentBroken {
		y2k += fsnode.Y2KParentBroken
	}
	node.Y2KFlag = y2k

	children := records[2:]
	sort.SliceStable(children, func(i, j int) bool { return children[i].ExtentLBN < children[j].ExtentLBN })

	for _, rec := range children {
		kind := classify(rec)
		childHidden := rec.Flags&iso9660.FlagHidden != 0
		if kind == fsnode.Dir {
			if _, err := c.buildTree(rec.ExtentLBN, rec.DataLength, rec.Name, node, childHidden); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.buildFile(node, rec, kind, childHidden); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(hostDir(c.outDir, node), 0o755); err != nil {
		return nil, err
	}
	return node, nil
}

func (c *ripCtx) buildFile(parent *fsnode.Node, rec iso9660.DirRecord, kind fsnode.Kind, hidden bool) error {
	date, broken := c.resolveDate(rec.Recorded)
	child := &fsnode.Node{
		Kind:         kind,
		Name:         rec.Name,
		Hidden:       hidden,
		XA:           fsnode.XAMeta{GID: rec.XA.OwnerID, UID: rec.XA.UserID, Attributes: rec.XA.Attributes},
		Timestamp:    fsnode.Timestamp{DateString: date, GMTOffset: rec.Recorded.GMTOffset},
		FirstSector:  rec.ExtentLBN,
		RequestedLBN: rec.ExtentLBN,
	}
	if broken {
		child.Y2KFlag = fsnode.Y2KSelfBroken
	}
	parent.AddChild(child)

	path := filepath.Join(hostDir(c.outDir, parent), iso9660.StripVersion(child.Name))

	switch kind {
	case fsnode.AudioRef:
		child.SizeBytes = rec.DataLength
		child.SectorCount = 0
		return os.WriteFile(path, nil, 0o644)

	case fsnode.Form2:
		sectorCount := rec.DataLength / 2048
		payload := make([]byte, 0, int(sectorCount)*sector.Form2DataSize)
		zeroEdc := false
		for i := uint32(0); i < sectorCount; i++ {
			raw, err := c.reader.ReadRaw(int64(rec.ExtentLBN) + int64(i))
			if err != nil {
				diag.LogWarn("sector read failed for %q at LBN %d: %v; file marked incomplete", child.Name, rec.ExtentLBN+i, err)
				break
			}
			if !zeroEdc && sector.Form2EDCIsZero(raw) {
				zeroEdc = true
			}
			dec, err := sector.DecodeMode2(raw)
			if err != nil {
				diag.LogWarn("decode failed for %q at LBN %d: %v", child.Name, rec.ExtentLBN+i, err)
				break
			}
			payload = append(payload, dec.Payload...)
		}
		child.SectorCount = sectorCount
		child.SizeBytes = uint32(len(payload))
		child.ZeroEdcFlag = zeroEdc
		return os.WriteFile(path, payload, 0o644)

	default:
		sectorCount := iso9660.SectorsForSize(rec.DataLength, false)
		data, err := c.reader.ReadUserData(int64(rec.ExtentLBN), int(sectorCount))
		if err != nil {
			diag.LogWarn("sector read failed for %q: %v; file marked incomplete", child.Name, err)
			child.SizeBytes = rec.DataLength
			child.SectorCount = sectorCount
			return os.WriteFile(path, nil, 0o644)
		}
		if uint32(len(data)) > rec.DataLength {
			data = data[:rec.DataLength]
		}
		child.SizeBytes = rec.DataLength
		child.SectorCount = sectorCount
		return os.WriteFile(path, data, 0o644)
	}
}

func (c *ripCtx) resolveDate(sd iso9660.ShortDate) (string, bool) {
	year, broken := iso9660.Y2KFallback(sd.YearsSince1900, c.fix, c.pvdCreationYear)
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d", year, sd.Month, sd.Day, sd.Hour, sd.Minute, sd.Second), broken
}

func classify(rec iso9660.DirRecord) fsnode.Kind {
	switch {
	case rec.Flags&iso9660.FlagDirectory != 0:
		return fsnode.Dir
	case rec.XA.Attributes&iso9660.XAAttrCDDA != 0:
		return fsnode.AudioRef
	case rec.XA.Attributes&iso9660.XAAttrMode2Form2 != 0:
		return fsnode.Form2
	default:
		return fsnode.Regular
	}
}

// decodeDirEntries decodes every record in a directory extent, one 2048-
// byte logical sector at a time; a zero-length record marks the padded
// tail of its sector and the scan resumes at the next sector, matching
// the "a record never straddles a sector" invariant.
func decodeDirEntries(raw []byte) ([]iso9660.DirRecord, error) {
	var out []iso9660.DirRecord
	for pageStart := 0; pageStart < len(raw); pageStart += 2048 {
		end := pageStart + 2048
		if end > len(raw) {
			end = len(raw)
		}
		page := raw[pageStart:end]
		offset := 0
		for offset < len(page) {
			rec, n, err := iso9660.DecodeDirRecord(page[offset:])
			if err != nil {
				return nil, err
			}
			if n == 0 {
				break
			}
			out = append(out, rec)
			offset += n
		}
	}
	return out, nil
}

func hostDir(outDir string, n *fsnode.Node) string {
	if n.Parent == nil {
		return outDir
	}
	return filepath.Join(hostDir(outDir, n.Parent), iso9660.StripVersion(n.Name))
}
