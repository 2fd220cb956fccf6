// Package numeric provides the bounds-checked integer narrowing the
// catalog's file-size math needs: an ISO 9660 data length is a 32-bit
// field, but os.Stat reports a host file's size as an int64, and a file
// larger than 4 GiB (impossible on the PS1's own media, but not
// impossible for a host tree assembled by hand) would silently wrap
// rather than fail loudly without a checked conversion at that boundary.
package numeric

import (
	"fmt"
	"math"
)

// Int64ToUint32 converts an int64 to uint32, rejecting values the 32-bit
// ISO 9660 data-length field can't hold. Used by catalog.parseFileLine to
// turn a host file's stat size into a node's SizeBytes.
func Int64ToUint32(value int64) (uint32, error) {
	if value < 0 {
		return 0, fmt.Errorf("value %d is negative, cannot convert to uint32", value)
	}
	if value > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of range for uint32 (0-%d)", value, math.MaxUint32)
	}
	return uint32(value), nil
}
