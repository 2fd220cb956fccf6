package alloc

import (
	"testing"

	"github.com/Ripper55555/psximager/internal/fsnode"
)

func tree(children ...*fsnode.Node) *fsnode.Node {
	root := &fsnode.Node{Kind: fsnode.Dir}
	for _, c := range children {
		root.AddChild(c)
	}
	return root
}

func TestDefaultContiguousWithHint(t *testing.T) {
	a := &fsnode.Node{Kind: fsnode.Regular, Name: "A", SectorCount: 1}
	b := &fsnode.Node{Kind: fsnode.Regular, Name: "B", SectorCount: 1, RequestedLBN: 1000}
	root := tree(a, b)

	res, err := Run(root, Default)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if root.FirstSector != 22 {
		t.Errorf("root.FirstSector = %d, want 22", root.FirstSector)
	}
	if a.FirstSector != 22 {
		t.Errorf("a.FirstSector = %d, want 22", a.FirstSector)
	}
	if b.FirstSector != 1000 {
		t.Errorf("b.FirstSector = %d, want 1000", b.FirstSector)
	}
	if res.EndOfTrack1 != 1001 {
		t.Errorf("EndOfTrack1 = %d, want 1001", res.EndOfTrack1)
	}
}

func TestDefaultCollisionWarnsAndAdvances(t *testing.T) {
	a := &fsnode.Node{Kind: fsnode.Regular, Name: "A", SectorCount: 5}
	b := &fsnode.Node{Kind: fsnode.Regular, Name: "B", SectorCount: 1, RequestedLBN: 23}
	root := tree(a, b)

	if _, err := Run(root, Default); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if a.FirstSector != 22 {
		t.Errorf("a.FirstSector = %d, want 22", a.FirstSector)
	}
	if b.FirstSector != 27 {
		t.Errorf("b.FirstSector = %d, want 27 (collision falls back to cursor)", b.FirstSector)
	}
}

func TestDefaultAudioRefConsumesNoSectors(t *testing.T) {
	audio := &fsnode.Node{Kind: fsnode.AudioRef, Name: "MUSIC.DA", RequestedLBN: 70000, SectorCount: 0}
	a := &fsnode.Node{Kind: fsnode.Regular, Name: "A", SectorCount: 1}
	root := tree(audio, a)

	res, err := Run(root, Default)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if audio.FirstSector != 70000 {
		t.Errorf("audio.FirstSector = %d, want 70000 (carried through untouched)", audio.FirstSector)
	}
	if a.FirstSector != 22 {
		t.Errorf("a.FirstSector = %d, want 22 (audio ref did not move the cursor)", a.FirstSector)
	}
	if res.EndOfTrack1 != 23 {
		t.Errorf("EndOfTrack1 = %d, want 23", res.EndOfTrack1)
	}
}

func TestStrictPlacesNonOverflowAtRequestedLBN(t *testing.T) {
	a := &fsnode.Node{Kind: fsnode.Regular, Name: "A", SectorCount: 1, RequestedLBN: 100}
	b := &fsnode.Node{Kind: fsnode.Regular, Name: "B", SectorCount: 1, RequestedLBN: 200}
	root := tree(a, b)

	if _, err := Run(root, Strict); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if a.FirstSector != 100 || b.FirstSector != 200 {
		t.Errorf("a,b FirstSector = %d,%d, want 100,200", a.FirstSector, b.FirstSector)
	}
}

func TestStrictOverflowGoesToTail(t *testing.T) {
	a := &fsnode.Node{Kind: fsnode.Regular, Name: "A", SectorCount: 150, RequestedLBN: 100} // grew past its 100-sector slot to B
	b := &fsnode.Node{Kind: fsnode.Regular, Name: "B", SectorCount: 1, RequestedLBN: 200}
	root := tree(a, b)
	root.SectorCount = 0

	res, err := Run(root, Strict)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if b.FirstSector != 200 {
		t.Errorf("b.FirstSector = %d, want 200 (fits, stays put)", b.FirstSector)
	}
	if a.FirstSector != res.EndOfTrack1-150 {
		t.Errorf("a.FirstSector = %d, want tail placement", a.FirstSector)
	}
	if a.FirstSector < 201 {
		t.Errorf("a.FirstSector = %d, want to land after the non-overflow block", a.FirstSector)
	}
}

func TestApplyAudioOffset(t *testing.T) {
	audio := &fsnode.Node{Kind: fsnode.AudioRef, FirstSector: 70000}
	root := tree(audio)
	offset := AudioOffset(60150, 60000) // data ends at 60150; with its 150-sector postgap track 1 is 300 sectors longer than 60000
	if offset != 300 {
		t.Fatalf("AudioOffset() = %d, want 300", offset)
	}
	ApplyAudioOffset(root, offset)
	if audio.FirstSector != 70300 {
		t.Errorf("audio.FirstSector = %d, want 70300", audio.FirstSector)
	}
}
