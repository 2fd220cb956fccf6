package iso9660

import "encoding/binary"

// PathTableEntry is one record of an L- or M-ordered path table: the
// directory's name, its extent LBN, and the 1-based index of its parent
// directory within the same table.
type PathTableEntry struct {
	Name      string
	ExtentLBN uint32
	ParentDir uint16
}

// EncodeSize is the on-disc size of the entry, padded to an even length.
func (e PathTableEntry) EncodeSize() int {
	size := 8 + len(e.Name)
	if size%2 != 0 {
		size++
	}
	return size
}

// Encode renders e using order's byte order (binary.LittleEndian for the
// L-table, binary.BigEndian for the M-table).
func (e PathTableEntry) Encode(order binary.ByteOrder) []byte {
	buf := make([]byte, e.EncodeSize())
	buf[0] = byte(len(e.Name))
	buf[1] = 0 // extended attribute record length
	order.PutUint32(buf[2:6], e.ExtentLBN)
	order.PutUint16(buf[6:8], e.ParentDir)
	copy(buf[8:], e.Name)
	return buf
}

// DecodePathTableEntry parses one entry from the front of raw, returning
// it plus the byte count consumed.
func DecodePathTableEntry(raw []byte, order binary.ByteOrder) (PathTableEntry, int, error) {
	if len(raw) < 8 {
		return PathTableEntry{}, 0, nil
	}
	nameLen := int(raw[0])
	if nameLen == 0 {
		return PathTableEntry{}, 0, nil
	}
	e := PathTableEntry{
		ExtentLBN: order.Uint32(raw[2:6]),
		ParentDir: order.Uint16(raw[6:8]),
		Name:      string(raw[8 : 8+nameLen]),
	}
	size := 8 + nameLen
	if size%2 != 0 {
		size++
	}
	return e, size, nil
}

// EncodeTable serializes entries in order (root first, breadth-first
// name-sorted thereafter per spec.md's path-table invariant).
func EncodeTable(entries []PathTableEntry, order binary.ByteOrder) []byte {
	var out []byte
	for _, e := range entries {
		out = append(out, e.Encode(order)...)
	}
	return out
}

// DecodeTable parses a full path table extent back into entries.
func DecodeTable(raw []byte, order binary.ByteOrder) []PathTableEntry {
	var entries []PathTableEntry
	for len(raw) >= 8 {
		e, n, _ := DecodePathTableEntry(raw, order)
		if n == 0 {
			break
		}
		entries = append(entries, e)
		raw = raw[n:]
	}
	return entries
}
