// Package dirbuild emits the bytes of every directory extent and both
// path tables from an allocated FSNode tree, per spec.md §4.6. Grounded
// on psxbuild.cpp's CalcDirSize/MakeDirectories/PathTables visitor
// classes, reworked per spec.md §9 into plain functions over explicit
// traversals instead of a Visitor base class.
package dirbuild

import (
	"encoding/binary"
	"fmt"

	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
)

const sectorSize = 2048

// ComputeSizes fills in SizeBytes/SectorCount for dir and every directory
// beneath it, children first, since a directory's own extent size depends
// on its child directories' already-computed sizes (the "." and ".."
// records plus one entry per sorted child). Builder pipeline step 2 —
// this runs before allocation, since a directory record's size never
// depends on the actual LBN value written into it.
func ComputeSizes(dir *fsnode.Node) {
	for _, c := range dir.Children {
		if c.IsDir() {
			ComputeSizes(c)
		}
	}
	extent := packRecords(buildRecords(dir))
	dir.SizeBytes = uint32(len(extent))
	dir.SectorCount = uint32(len(extent)) / sectorSize
}

// BuildExtent renders dir's final directory extent bytes. Call only after
// allocation has assigned FirstSector to dir, its parent, and every child.
func BuildExtent(dir *fsnode.Node) []byte {
	return packRecords(buildRecords(dir))
}

// buildRecords constructs the "." record, the ".." record, and one record
// per sorted child, in that order — the layout psxbuild.cpp's
// MakeDirectories writes.
func buildRecords(dir *fsnode.Node) []iso9660.DirRecord {
	parent := dir.Parent
	if parent == nil {
		parent = dir // root's ".." points at itself
	}

	records := make([]iso9660.DirRecord, 0, 2+len(dir.Children))
	records = append(records, iso9660.DirRecord{
		ExtentLBN:  dir.FirstSector,
		DataLength: dir.SizeBytes,
		Recorded:   shortDateFor(dir.Timestamp),
		Flags:      iso9660.FlagDirectory,
		Name:       "\x00",
		XA:         xaExtension(dir.XA),
	})
	records = append(records, iso9660.DirRecord{
		ExtentLBN:  parent.FirstSector,
		DataLength: parent.SizeBytes,
		Recorded:   shortDateFor(dir.ParentTime),
		Flags:      iso9660.FlagDirectory,
		Name:       "\x01",
		XA:         xaExtension(dir.ParentXA),
	})
	for _, c := range dir.SortedChildren() {
		flags := byte(0)
		if c.IsDir() {
			flags |= iso9660.FlagDirectory
		}
		if c.Hidden {
			flags |= iso9660.FlagHidden
		}
		records = append(records, iso9660.DirRecord{
			ExtentLBN:  c.FirstSector,
			DataLength: dataLength(c),
			Recorded:   shortDateFor(c.Timestamp),
			Flags:      flags,
			Name:       c.Name,
			XA:         xaExtension(c.XA),
		})
	}
	return records
}

// dataLength implements spec.md §4.6's size rule: nodeSize for audio-refs
// (the catalog's real audio byte count), sectorCount*2048 for Form 2 (the
// ISO 9660 logical-block convention even though Form 2 sectors carry 2336
// usable bytes), and the raw file size for everything else.
func dataLength(n *fsnode.Node) uint32 {
	switch n.Kind {
	case fsnode.AudioRef:
		return n.SizeBytes
	case fsnode.Form2:
		return n.SectorCount * sectorSize
	default:
		return n.SizeBytes
	}
}

func xaExtension(m fsnode.XAMeta) iso9660.XAExtension {
	return iso9660.XAExtension{OwnerID: m.GID, UserID: m.UID, Attributes: m.Attributes}
}

func shortDateFor(ts fsnode.Timestamp) iso9660.ShortDate {
	if ts.DateString == "" {
		return iso9660.ShortDate{}
	}
	year, month, day, hour, minute, second, err := iso9660.ParseCatalogDate(ts.DateString)
	if err != nil || year < 1900 {
		return iso9660.ShortDate{GMTOffset: ts.GMTOffset}
	}
	return iso9660.ShortDate{
		YearsSince1900: byte(year - 1900),
		Month:          byte(month),
		Day:            byte(day),
		Hour:           byte(hour),
		Minute:         byte(minute),
		Second:         byte(second),
		GMTOffset:      ts.GMTOffset,
	}
}

// packRecords lays records out sector by sector: a record that would
// straddle a sector boundary instead starts a fresh sector, and the tail
// of every sector (including the last) is zero-padded, per spec.md §3's
// "a record never straddles a sector" invariant.
func packRecords(records []iso9660.DirRecord) []byte {
	var out []byte
	used := 0
	for _, rec := range records {
		enc := rec.Encode()
		if used > 0 && used+len(enc) > sectorSize {
			out = append(out, make([]byte, sectorSize-used)...)
			used = 0
		}
		out = append(out, enc...)
		used += len(enc)
	}
	if used > 0 {
		out = append(out, make([]byte, sectorSize-used)...)
	}
	return out
}

// BuildPathTables emits the L- (little-endian) and M- (big-endian) path
// tables, breadth-first name-sorted with 1-based record numbers, per
// spec.md §3 and §4.6. Both are padded to a whole sector and must each fit
// in exactly one (SPEC_FULL.md supplemented feature 8 — psxbuild.cpp fails
// hard rather than spilling a path table into a second sector).
func BuildPathTables(root *fsnode.Node) (lTable, mTable []byte, err error) {
	dirs := fsnode.Directories(fsnode.BreadthFirstSorted(root))
	recordNum := make(map[*fsnode.Node]uint16, len(dirs))
	for i, d := range dirs {
		recordNum[d] = uint16(i + 1)
	}

	entries := make([]iso9660.PathTableEntry, 0, len(dirs))
	for _, d := range dirs {
		parentNum := uint16(1)
		if d.Parent != nil {
			parentNum = recordNum[d.Parent]
		}
		name := d.Name
		if d == root {
			name = "\x00"
		}
		entries = append(entries, iso9660.PathTableEntry{
			Name:      name,
			ExtentLBN: d.FirstSector,
			ParentDir: parentNum,
		})
	}

	lTable = iso9660.EncodeTable(entries, binary.LittleEndian)
	mTable = iso9660.EncodeTable(entries, binary.BigEndian)
	if len(lTable) > sectorSize {
		return nil, nil, fmt.Errorf("dirbuild: path table is %d bytes, larger than one sector (%d)", len(lTable), sectorSize)
	}
	return padToSector(lTable), padToSector(mTable), nil
}

func padToSector(b []byte) []byte {
	rem := len(b) % sectorSize
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, sectorSize-rem)...)
}
