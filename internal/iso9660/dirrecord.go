package iso9660

import (
	"encoding/binary"
	"fmt"
)

// XA extension attribute bits, matching libcdio's xa_attr_t and what
// psxbuild.cpp tests against with XA_ATTR_MODE2FORM2/XA_ATTR_INTERLEAVED/
// XA_ATTR_CDDA.
const (
	XAAttrOwnerRead  uint16 = 0x0001
	XAAttrOwnerExec  uint16 = 0x0004
	XAAttrGroupRead  uint16 = 0x0010
	XAAttrGroupExec  uint16 = 0x0040
	XAAttrWorldRead  uint16 = 0x0100
	XAAttrWorldExec  uint16 = 0x0400
	XAAttrMode2Form1 uint16 = 0x0800
	XAAttrMode2Form2 uint16 = 0x1000
	XAAttrInterleave uint16 = 0x2000
	XAAttrCDDA       uint16 = 0x4000
	XAAttrDirectory  uint16 = 0x8000
)

// FileFlags are the standard ISO 9660 directory record flags (offset 25).
const (
	FlagHidden    byte = 0x01
	FlagDirectory byte = 0x02
	FlagAssociated byte = 0x04
	FlagMultiExtent byte = 0x80
)

// XAExtension is the 14-byte block psxbuild.cpp's iso9660_xa_init appends
// to every directory record: GID/UID/attributes/signature/file number.
type XAExtension struct {
	OwnerID    uint16
	UserID     uint16
	Attributes uint16
	FileNumber byte
}

const xaExtensionSize = 14

// DecodeXAExtension parses the 14-byte XA block, verifying the "XA"
// signature.
func DecodeXAExtension(raw []byte) (XAExtension, error) {
	if len(raw) != xaExtensionSize {
		return XAExtension{}, fmt.Errorf("iso9660: XA extension must be %d bytes, got %d", xaExtensionSize, len(raw))
	}
	if raw[4] != 'X' || raw[5] != 'A' {
		return XAExtension{}, fmt.Errorf("iso9660: bad XA signature %q", raw[4:6])
	}
	return XAExtension{
		OwnerID:    binary.BigEndian.Uint16(raw[0:2]),
		UserID:     binary.BigEndian.Uint16(raw[2:4]),
		Attributes: binary.BigEndian.Uint16(raw[6:8]),
		FileNumber: raw[8],
	}, nil
}

// EncodeBytes renders the 14-byte XA block.
func (x XAExtension) EncodeBytes() [xaExtensionSize]byte {
	var raw [xaExtensionSize]byte
	binary.BigEndian.PutUint16(raw[0:2], x.OwnerID)
	binary.BigEndian.PutUint16(raw[2:4], x.UserID)
	raw[4], raw[5] = 'X', 'A'
	binary.BigEndian.PutUint16(raw[6:8], x.Attributes)
	raw[8] = x.FileNumber
	// raw[9:14] reserved, left zero.
	return raw
}

// DirRecord is one ISO 9660 directory record with its XA extension. Name
// is the raw on-disc identifier ("\x00" for self and for the PVD's root
// entry, "\x01" for parent, or a real filename).
type DirRecord struct {
	ExtentLBN  uint32
	DataLength uint32
	Recorded   ShortDate
	Flags      byte
	Name       string
	XA         XAExtension
}

// Encode renders r as its on-disc bytes, both-endian fields first, then
// recording date, flags, name (padded to even length), then the XA
// extension. Returns the record padded to an even total length, per
// ISO 9660 §9.1.13.
func (r DirRecord) Encode() []byte {
	nameLen := len(r.Name)
	if nameLen == 0 {
		nameLen = 1 // root: a single 0x00 byte
	}
	base := 33 + nameLen
	if base%2 != 0 {
		base++
	}
	total := base + xaExtensionSize

	buf := make([]byte, total)
	buf[0] = byte(total)
	buf[1] = 0 // extended attribute record length

	putBothEndian32(buf[2:10], r.ExtentLBN)
	putBothEndian32(buf[10:18], r.DataLength)

	date := r.Recorded.EncodeBytes()
	copy(buf[18:25], date[:])

	buf[25] = r.Flags
	buf[26] = 0 // file unit size
	buf[27] = 0 // interleave gap size
	putBothEndian16(buf[28:32], 1)

	buf[32] = byte(len(r.Name))
	if r.Name == "" {
		buf[33] = 0x00
	} else {
		copy(buf[33:], r.Name)
	}

	xa := r.XA.EncodeBytes()
	copy(buf[base:base+xaExtensionSize], xa[:])
	return buf
}

// DecodeDirRecord parses one directory record starting at the front of
// raw, returning the record and the number of bytes it occupied (buf[0]).
func DecodeDirRecord(raw []byte) (DirRecord, int, error) {
	if len(raw) > 0 && raw[0] == 0 {
		return DirRecord{}, 0, nil // padding to end of sector
	}
	if len(raw) < 34 {
		return DirRecord{}, 0, fmt.Errorf("iso9660: directory record truncated (%d bytes)", len(raw))
	}
	length := int(raw[0])
	if length > len(raw) {
		return DirRecord{}, 0, fmt.Errorf("iso9660: directory record claims %d bytes, only %d available", length, len(raw))
	}
	nameLen := int(raw[32])
	var dateRaw [7]byte
	copy(dateRaw[:], raw[18:25])

	rec := DirRecord{
		ExtentLBN:  binary.LittleEndian.Uint32(raw[2:6]),
		DataLength: binary.LittleEndian.Uint32(raw[10:14]),
		Recorded:   DecodeShortDate(dateRaw),
		Flags:      raw[25],
	}
	if nameLen == 1 && (raw[33] == 0x00 || raw[33] == 0x01) {
		if raw[33] == 0x00 {
			rec.Name = "\x00"
		} else {
			rec.Name = "\x01"
		}
	} else {
		rec.Name = string(raw[33 : 33+nameLen])
	}

	xaOff := 33 + nameLen
	if xaOff%2 != 0 {
		xaOff++
	}
	if xaOff+xaExtensionSize <= length {
		xa, err := DecodeXAExtension(raw[xaOff : xaOff+xaExtensionSize])
		if err == nil {
			rec.XA = xa
		}
	}
	return rec, length, nil
}

func putBothEndian32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst[0:4], v)
	binary.BigEndian.PutUint32(dst[4:8], v)
}

func putBothEndian16(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst[0:2], v)
	binary.BigEndian.PutUint16(dst[2:4], v)
}
