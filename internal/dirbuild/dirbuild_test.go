package dirbuild

import (
	"encoding/binary"
	"testing"

	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
)

func TestComputeSizesSingleFileDirectory(t *testing.T) {
	root := &fsnode.Node{Kind: fsnode.Dir}
	file := &fsnode.Node{Kind: fsnode.Regular, Name: "FOO.TXT;1", SizeBytes: 10, SectorCount: 1}
	root.AddChild(file)

	ComputeSizes(root)
	if root.SectorCount != 1 {
		t.Fatalf("root.SectorCount = %d, want 1 (., .., one child fit in one sector)", root.SectorCount)
	}
	if root.SizeBytes != 2048 {
		t.Errorf("root.SizeBytes = %d, want 2048", root.SizeBytes)
	}
}

func TestComputeSizesNestedDirectoryDependsOnChild(t *testing.T) {
	root := &fsnode.Node{Kind: fsnode.Dir}
	sub := &fsnode.Node{Kind: fsnode.Dir, Name: "SUB"}
	root.AddChild(sub)

	ComputeSizes(root)
	if sub.SizeBytes != 2048 {
		t.Fatalf("sub.SizeBytes = %d, want 2048", sub.SizeBytes)
	}
	if root.SizeBytes != 2048 {
		t.Errorf("root.SizeBytes = %d, want 2048 (., .., SUB all fit in one sector)", root.SizeBytes)
	}
}

func TestBuildExtentContainsDotAndDotDot(t *testing.T) {
	root := &fsnode.Node{Kind: fsnode.Dir, FirstSector: 22}
	root.SizeBytes = 2048
	root.SectorCount = 1

	extent := BuildExtent(root)
	if len(extent) != 2048 {
		t.Fatalf("len(extent) = %d, want 2048", len(extent))
	}
	rec, n, err := iso9660.DecodeDirRecord(extent)
	if err != nil {
		t.Fatalf("DecodeDirRecord(.) failed: %v", err)
	}
	if rec.Name != "\x00" {
		t.Errorf("first record name = %q, want \\x00 (self entry)", rec.Name)
	}
	rec2, _, err := iso9660.DecodeDirRecord(extent[n:])
	if err != nil {
		t.Fatalf("DecodeDirRecord(..) failed: %v", err)
	}
	if rec2.Name != "\x01" {
		t.Errorf("second record name = %q, want \\x01 (parent entry)", rec2.Name)
	}
}

func TestBuildPathTablesRootIsRecordOne(t *testing.T) {
	root := &fsnode.Node{Kind: fsnode.Dir, FirstSector: 22}
	sub := &fsnode.Node{Kind: fsnode.Dir, Name: "SUB", FirstSector: 23}
	root.AddChild(sub)

	lTable, mTable, err := BuildPathTables(root)
	if err != nil {
		t.Fatalf("BuildPathTables() failed: %v", err)
	}
	entries := iso9660.DecodeTable(lTable, binary.LittleEndian)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ExtentLBN != 22 || entries[0].ParentDir != 1 {
		t.Errorf("root entry = %+v, want ExtentLBN=22 ParentDir=1", entries[0])
	}
	if entries[1].ExtentLBN != 23 || entries[1].ParentDir != 1 {
		t.Errorf("sub entry = %+v, want ExtentLBN=23 ParentDir=1", entries[1])
	}
	if len(mTable) != len(lTable) {
		t.Errorf("len(mTable) = %d, len(lTable) = %d, want equal", len(mTable), len(lTable))
	}
}
