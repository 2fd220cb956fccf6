package sector

// PostgapType classifies the last sector of track 1, matching the three
// patterns psxrip.cpp tests for plus the "give up, keep it verbatim"
// fallback.
type PostgapType int

const (
	// PostgapType0 is anything that doesn't match the known patterns; the
	// raw sector must be preserved verbatim and re-inserted on rebuild.
	PostgapType0 PostgapType = iota
	// PostgapType1 is sync+header only, with subheader/data/EDC all zero.
	PostgapType1
	// PostgapType2 is a Form-2-twice subheader over an all-zero payload
	// with a zeroed EDC.
	PostgapType2
	// PostgapType3 is PostgapType2 but with a nonzero EDC.
	PostgapType3
)

// EmptyType1 builds the Type 1 postgap sector: sync and header only, with
// subheader, payload and EDC all left zero.
func EmptyType1(lbn uint32) [RawSize]byte {
	var raw [RawSize]byte
	copy(raw[offSync:], syncPattern[:])
	msf := LBNToMSF(lbn)
	raw[offHeader] = toBCD(msf.Minute)
	raw[offHeader+1] = toBCD(msf.Second)
	raw[offHeader+2] = toBCD(msf.Frame)
	raw[offHeader+3] = 2
	return raw
}

// EmptyType3 builds the Type 3 postgap sector: PostgapType2's Form-2-twice
// subheader over an all-zero payload, but with the EDC computed instead of
// left zero.
func EmptyType3(lbn uint32) [RawSize]byte {
	var sub [4]byte
	copy(sub[:], EmptySubheader[:4])
	raw, _ := EncodeMode2(make([]byte, Form2DataSize), lbn, sub, Form2, EDCCompute)
	return raw
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// ClassifyPostgap inspects the last sector of the data track and reports
// which of the three known postgap shapes it matches, or PostgapType0 if
// none do.
func ClassifyPostgap(raw [RawSize]byte) PostgapType {
	rest := raw[offSubheader:]
	if allZero(rest) {
		return PostgapType1
	}
	subheaderMatches := [SubheaderSize]byte(raw[offSubheader:offData]) == EmptySubheader
	if !subheaderMatches {
		return PostgapType0
	}
	if !allZero(raw[offData:offForm2EDC]) {
		return PostgapType0
	}
	if allZero(raw[offForm2EDC:]) {
		return PostgapType2
	}
	return PostgapType3
}
