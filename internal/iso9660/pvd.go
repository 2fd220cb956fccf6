package iso9660

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PVD is the Primary Volume Descriptor, one 2048-byte logical sector
// (LBN PVDSector). String fields are kept trimmed; Encode pads them with
// spaces to their fixed width.
type PVD struct {
	SystemID               string // 32, a-string
	VolumeID               string // 32, d-string
	VolumeSpaceSize        uint32 // sectors
	VolumeSetSize          uint16
	VolumeSequenceNumber   uint16
	PathTableSize          uint32
	LPathTableLBN          uint32
	LPathTableCopyLBN      uint32
	MPathTableLBN          uint32
	MPathTableCopyLBN      uint32
	RootDirRecord          DirRecord
	VolumeSetIdentifier    string // 128, a-string
	PublisherIdentifier    string // 128
	DataPreparerIdentifier string // 128
	ApplicationIdentifier  string // 128
	CopyrightFileID        string // 37
	AbstractFileID         string // 37
	BibliographicFileID    string // 37
	CreationDate           LTime
	ModificationDate       LTime
	ExpirationDate         LTime
	EffectiveDate          LTime
	ApplicationUse         [512]byte
}

const pvdSize = 2048

func padded(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func trimmed(b []byte) string {
	return string(bytes.TrimRight(b, " "))
}

// Encode renders the PVD as its 2048-byte logical sector payload.
func (v PVD) Encode() [pvdSize]byte {
	var buf [pvdSize]byte
	buf[0] = 1
	copy(buf[1:6], "CD001")
	buf[6] = 1

	copy(buf[8:40], padded(v.SystemID, 32))
	copy(buf[40:72], padded(v.VolumeID, 32))

	putBothEndian32(buf[80:88], v.VolumeSpaceSize)
	putBothEndian16(buf[120:124], v.VolumeSetSize)
	putBothEndian16(buf[124:128], v.VolumeSequenceNumber)
	putBothEndian16(buf[128:132], 2048)
	putBothEndian32(buf[132:140], v.PathTableSize)

	binary.LittleEndian.PutUint32(buf[140:144], v.LPathTableLBN)
	binary.LittleEndian.PutUint32(buf[144:148], v.LPathTableCopyLBN)
	binary.BigEndian.PutUint32(buf[148:152], v.MPathTableLBN)
	binary.BigEndian.PutUint32(buf[152:156], v.MPathTableCopyLBN)

	root := v.RootDirRecord.Encode()
	// The PVD's root record field is 34 bytes: the record without its XA
	// extension, with the length byte set to match.
	copy(buf[156:190], root[:34])
	buf[156] = 34

	copy(buf[190:318], padded(v.VolumeSetIdentifier, 128))
	copy(buf[318:446], padded(v.PublisherIdentifier, 128))
	copy(buf[446:574], padded(v.DataPreparerIdentifier, 128))
	copy(buf[574:702], padded(v.ApplicationIdentifier, 128))
	copy(buf[702:739], padded(v.CopyrightFileID, 37))
	copy(buf[739:776], padded(v.AbstractFileID, 37))
	copy(buf[776:813], padded(v.BibliographicFileID, 37))

	cd := v.CreationDate.EncodeLTime()
	copy(buf[813:830], cd[:])
	md := v.ModificationDate.EncodeLTime()
	copy(buf[830:847], md[:])
	ed := v.ExpirationDate.EncodeLTime()
	copy(buf[847:864], ed[:])
	fd := v.EffectiveDate.EncodeLTime()
	copy(buf[864:881], fd[:])

	buf[881] = 1 // file structure version
	copy(buf[883:1395], v.ApplicationUse[:])
	return buf
}

func leU32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func leU16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func beU32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// DecodePVD parses a 2048-byte PVD sector payload.
func DecodePVD(raw [pvdSize]byte) (PVD, error) {
	if raw[0] != 1 || string(raw[1:6]) != "CD001" {
		return PVD{}, fmt.Errorf("iso9660: not a primary volume descriptor (type=%d id=%q)", raw[0], raw[1:6])
	}
	var v PVD
	v.SystemID = trimmed(raw[8:40])
	v.VolumeID = trimmed(raw[40:72])
	v.VolumeSpaceSize = leU32(raw[80:84])
	v.VolumeSetSize = leU16(raw[120:122])
	v.VolumeSequenceNumber = leU16(raw[124:126])
	v.PathTableSize = leU32(raw[132:136])
	v.LPathTableLBN = leU32(raw[140:144])
	v.LPathTableCopyLBN = leU32(raw[144:148])
	v.MPathTableLBN = beU32(raw[148:152])
	v.MPathTableCopyLBN = beU32(raw[152:156])

	root, _, err := DecodeDirRecord(raw[156:190])
	if err != nil {
		return v, fmt.Errorf("iso9660: decoding PVD root record: %w", err)
	}
	v.RootDirRecord = root

	v.VolumeSetIdentifier = trimmed(raw[190:318])
	v.PublisherIdentifier = trimmed(raw[318:446])
	v.DataPreparerIdentifier = trimmed(raw[446:574])
	v.ApplicationIdentifier = trimmed(raw[574:702])
	v.CopyrightFileID = trimmed(raw[702:739])
	v.AbstractFileID = trimmed(raw[739:776])
	v.BibliographicFileID = trimmed(raw[776:813])

	var tmp [17]byte
	copy(tmp[:], raw[813:830])
	if v.CreationDate, err = DecodeLTime(tmp); err != nil {
		return v, fmt.Errorf("iso9660: decoding creation date: %w", err)
	}
	copy(tmp[:], raw[830:847])
	if v.ModificationDate, err = DecodeLTime(tmp); err != nil {
		return v, fmt.Errorf("iso9660: decoding modification date: %w", err)
	}
	copy(tmp[:], raw[847:864])
	if v.ExpirationDate, err = DecodeLTime(tmp); err != nil {
		return v, fmt.Errorf("iso9660: decoding expiration date: %w", err)
	}
	copy(tmp[:], raw[864:881])
	if v.EffectiveDate, err = DecodeLTime(tmp); err != nil {
		return v, fmt.Errorf("iso9660: decoding effective date: %w", err)
	}

	copy(v.ApplicationUse[:], raw[883:1395])
	return v, nil
}

// EVD is the Volume Descriptor Set Terminator (LBN EVDSector).
type EVD struct{}

// Encode renders the 2048-byte terminator sector.
func (EVD) Encode() [pvdSize]byte {
	var buf [pvdSize]byte
	buf[0] = 255
	copy(buf[1:6], "CD001")
	buf[6] = 1
	return buf
}
