package sector

import "fmt"

// EncodeMode2 lays out one raw 2352-byte Mode 2 sector: sync, MSF(lbn)
// header with mode byte 2, the duplicated 4-byte subheader, the payload for
// the requested form, and (Form 1 only) EDC+ECC. subheaderBytes holds the
// 4 logical subheader bytes (file number, channel, submode, coding info);
// bytes 2 and 6 of the written subheader both carry the submode byte, so
// callers select the form by setting bit 0x20 there.
func EncodeMode2(payload []byte, lbn uint32, subheaderBytes [4]byte, form Form, policy EDCPolicy) ([RawSize]byte, error) {
	var raw [RawSize]byte
	copy(raw[offSync:], syncPattern[:])

	msf := LBNToMSF(lbn)
	raw[offHeader] = toBCD(msf.Minute)
	raw[offHeader+1] = toBCD(msf.Second)
	raw[offHeader+2] = toBCD(msf.Frame)
	raw[offHeader+3] = 2 // mode 2

	copy(raw[offSubheader:offSubheader+4], subheaderBytes[:])
	copy(raw[offSubheader+4:offSubheader+8], subheaderBytes[:])

	switch form {
	case Form1:
		if len(payload) != Form1DataSize {
			return raw, fmt.Errorf("sector: Form 1 payload must be %d bytes, got %d", Form1DataSize, len(payload))
		}
		copy(raw[offData:offForm1EDC], payload)
		edc := computeEDC(raw[offHeader:offForm1EDC])
		copy(raw[offForm1EDC:offForm1ECC], edc[:])
		p := pParity(raw[offHeader:offForm1EDC+EDCSize])
		copy(raw[offForm1ECC:offForm1ECC+172], p[:])
		q := qParity(raw[offHeader : offForm1ECC+172])
		copy(raw[offForm1ECC+172:], q[:])
	case Form2:
		if len(payload) != Form2DataSize {
			return raw, fmt.Errorf("sector: Form 2 payload must be %d bytes, got %d", Form2DataSize, len(payload))
		}
		copy(raw[offData:offData+Form2DataSize], payload)
		if policy == EDCZero {
			// leave raw[offForm2EDC:] zeroed
		} else {
			edc := computeEDC(raw[offHeader:offForm2EDC])
			copy(raw[offForm2EDC:], edc[:])
		}
	default:
		return raw, fmt.Errorf("sector: unknown form %v", form)
	}
	return raw, nil
}

// toBCD packs a 0-99 binary value into one BCD byte.
func toBCD(v byte) byte {
	return (v/10)<<4 | (v % 10)
}

// fromBCD unpacks one BCD byte back to binary.
func fromBCD(v byte) byte {
	return (v>>4)*10 + v&0x0F
}

// DecodeResult is what DecodeMode2 recovers from a raw sector.
type DecodeResult struct {
	LBN       uint32
	Subheader [SubheaderSize]byte
	Form      Form
	Payload   []byte
	EDCValid  bool
}

// DecodeMode2 parses a raw Mode 2 sector, recomputing the EDC to report
// whether the sector is intact; the Form 1 ECC bytes are not checked. A zeroed Form 2
// EDC (zeroEdcFlag payloads, e.g. STR video) is reported as valid without
// being recomputed, since a zeroed EDC is itself the well-formed state for
// that convention.
func DecodeMode2(raw [RawSize]byte) (DecodeResult, error) {
	var res DecodeResult
	if raw[offSync] != syncPattern[0] {
		return res, fmt.Errorf("sector: bad sync byte 0x%02X", raw[offSync])
	}
	for i, want := range syncPattern {
		if raw[offSync+i] != want {
			return res, fmt.Errorf("sector: sync pattern mismatch at byte %d", i)
		}
	}
	msf := MSF{
		Minute: fromBCD(raw[offHeader]),
		Second: fromBCD(raw[offHeader+1]),
		Frame:  fromBCD(raw[offHeader+2]),
	}
	res.LBN = MSFToLBN(msf)
	copy(res.Subheader[:], raw[offSubheader:offSubheader+SubheaderSize])
	res.Form = formFromSubheaderByte(raw[offSubheader+2])

	switch res.Form {
	case Form1:
		payload := make([]byte, Form1DataSize)
		copy(payload, raw[offData:offForm1EDC])
		res.Payload = payload
		want := computeEDC(raw[offHeader:offForm1EDC])
		res.EDCValid = want == [EDCSize]byte(raw[offForm1EDC:offForm1ECC])
	case Form2:
		payload := make([]byte, Form2DataSize)
		copy(payload, raw[offData:offData+Form2DataSize])
		res.Payload = payload
		var stored [EDCSize]byte
		copy(stored[:], raw[offForm2EDC:])
		if stored == [EDCSize]byte{} {
			res.EDCValid = true
		} else {
			want := computeEDC(raw[offHeader:offForm2EDC])
			res.EDCValid = want == stored
		}
	}
	return res, nil
}

// Form2EDCIsZero reports whether a raw Form 2 sector's stored EDC field is
// all-zero, the signal the Ripper samples across a file's sectors to
// detect the zero-EDC convention (streamed audio/video payloads).
func Form2EDCIsZero(raw [RawSize]byte) bool {
	var stored [EDCSize]byte
	copy(stored[:], raw[offForm2EDC:])
	return stored == [EDCSize]byte{}
}

// EmptyForm2 builds the gap-filler sector psxbuild.cpp's writeGap emits
// before a hinted LBN leaves a hole: header valid, subheader declaring
// Form 2 twice, all-zero payload.
func EmptyForm2(lbn uint32) [RawSize]byte {
	var sub [4]byte
	copy(sub[:], EmptySubheader[:4])
	raw, _ := EncodeMode2(make([]byte, Form2DataSize), lbn, sub, Form2, EDCZero)
	return raw
}
