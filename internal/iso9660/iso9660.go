// Package iso9660 is the in-memory model of the ISO 9660 + XA on-disc
// structures: volume descriptors, path tables, and XA-extended directory
// records. It exposes pure encode/decode functions; it owns no tree and no
// allocation policy — those live in fsnode and alloc.
package iso9660

import "fmt"

// Sector numbers the builder fixes for the volume structures, grounded on
// psxbuild.cpp's main(): the PVD, the EVD and the four path-table copies
// occupy the same sectors (16 through 21) on every PSX disc this tool
// rebuilds.
const (
	PVDSector            = 16
	EVDSector            = 17
	PathTableStartSector = 18
	PathTableSectorCount = 1
	RootDirStartSector   = 22

	// MaxSectors is the sector count of a 74-minute disc, 74 * 60 * 75;
	// every addressable LBN is below it.
	MaxSectors = 74 * 60 * 75

	blockSizeForm1 = 2048
	blockSizeForm2 = 2336
)

// SectorsForSize returns the number of sectors needed to hold sizeBytes of
// file payload for the given form, per spec.md's
// sectorCount = ceil(sizeBytes / blockSize) rule. An empty file still
// consumes exactly one sector.
func SectorsForSize(sizeBytes uint32, isForm2 bool) uint32 {
	blockSize := uint32(blockSizeForm1)
	if isForm2 {
		blockSize = blockSizeForm2
	}
	if sizeBytes == 0 {
		return 1
	}
	return (sizeBytes + blockSize - 1) / blockSize
}

// StripVersion removes the ";N" ISO 9660 version suffix from a filename,
// e.g. "FOO.TXT;1" -> "FOO.TXT". Grounded on the teacher's CleanFileName.
func StripVersion(name string) string {
	if i := len(name) - 1; i >= 2 && name[i] >= '0' && name[i] <= '9' && name[i-1] == ';' {
		return name[:i-1]
	}
	return name
}

// WithVersion appends the fixed ";1" version suffix psxbuild.cpp always
// uses for files on rebuild.
func WithVersion(name string) string {
	return name + ";1"
}

// ValidateLBN enforces spec.md's allocation invariant: every allocated LBN
// is >= RootDirStartSector and < MaxSectors.
func ValidateLBN(lbn uint32) error {
	if lbn < RootDirStartSector || lbn >= MaxSectors {
		return fmt.Errorf("iso9660: LBN %d out of range [%d, %d)", lbn, RootDirStartSector, MaxSectors)
	}
	return nil
}
