// Package sector implements the raw 2352-byte CD sector codec: sync/header/
// subheader framing, Mode 2 Form 1/Form 2 payload layout, EDC/ECC, and the
// empty-sector and postgap conventions used at the track boundary.
package sector

// Size constants for a raw PlayStation CD-ROM XA sector, carried forward
// from the teacher's pkg/psx/cdrom.go with payload widths per form added.
const (
	RawSize       = 2352 // full raw sector
	SyncSize      = 12   // sync pattern
	HeaderSize    = 4    // MSF(3) + mode(1)
	SubheaderSize = 8    // XA subheader, duplicated twice
	Form1DataSize = 2048 // Mode 2 Form 1 user data
	Form2DataSize = 2324 // Mode 2 Form 2 user data
	EDCSize       = 4
	ECCSize       = 276

	// Byte offsets within a raw sector.
	offSync      = 0
	offHeader    = offSync + SyncSize
	offSubheader = offHeader + HeaderSize
	offData      = offSubheader + SubheaderSize
	offForm1EDC  = offData + Form1DataSize         // 2072
	offForm1ECC  = offForm1EDC + EDCSize            // 2076
	offForm2EDC  = offData + Form2DataSize           // 2348

	// framesPerSecond is the CD-ROM frame rate used by MSF<->LBN conversion.
	framesPerSecond = 75
	// pregapFrames is the 2-second (150-frame) pregap added between LBN 0
	// and physical frame 0.
	pregapFrames = 150
)

var syncPattern = [SyncSize]byte{
	0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00,
}

// Form identifies which Mode 2 sub-format a sector's subheader declares.
type Form int

const (
	FormUnknown Form = iota
	Form1
	Form2
)

// form2Bit is bit 5 (0x20) of subheader byte 2 (and its mirror at byte 6).
const form2Bit = 0x20

// formFromSubheaderByte reports the form implied by one submode byte.
func formFromSubheaderByte(b byte) Form {
	if b&form2Bit != 0 {
		return Form2
	}
	return Form1
}

// EDCPolicy controls whether EncodeMode2 computes a real EDC or zeroes it,
// mirroring psxbuild.cpp's zero-EDC handling for audio/video Form 2 payloads.
type EDCPolicy int

const (
	// EDCCompute always computes a real EDC, for Form 1 and Form 2 alike.
	EDCCompute EDCPolicy = iota
	// EDCZero forces the Form 2 EDC field to zero instead of computing it.
	EDCZero
)

// EmptySubheader is the subheader pattern psxbuild.cpp's writeGap uses to
// fill a hole before a hinted LBN: Form 2 declared twice, no extra flags.
var EmptySubheader = [SubheaderSize]byte{0x00, 0x00, 0x20, 0x00, 0x00, 0x00, 0x20, 0x00}
