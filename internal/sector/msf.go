package sector

import "fmt"

// MSF is a Minutes:Seconds:Frames disc address.
type MSF struct {
	Minute byte
	Second byte
	Frame  byte
}

// LBNToMSF converts a logical block number to its physical MSF address,
// adding the 150-frame pregap. Grounded on the teacher's
// pkg/common/cdrom.go LBAToMSF.
func LBNToMSF(lbn uint32) MSF {
	total := lbn + pregapFrames
	return MSF{
		Minute: byte(total / (60 * framesPerSecond)),
		Second: byte((total % (60 * framesPerSecond)) / framesPerSecond),
		Frame:  byte(total % framesPerSecond),
	}
}

// MSFToLBN is the inverse of LBNToMSF; it is the Ripper's primary use of
// the header bytes read back off a sector.
func MSFToLBN(m MSF) uint32 {
	total := uint32(m.Minute)*60*framesPerSecond + uint32(m.Second)*framesPerSecond + uint32(m.Frame)
	if total < pregapFrames {
		return 0
	}
	return total - pregapFrames
}

// String renders the MSF as "MM:SS:FF", matching the teacher's LBAToMSF
// output format.
func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.Minute, m.Second, m.Frame)
}

// LBAToMSF reproduces the teacher's string-returning helper directly for
// callers (CUE emission) that only need the formatted address.
func LBAToMSF(lbn uint32) string {
	return LBNToMSF(lbn).String()
}
