package sector

import "testing"

func TestLBNToMSF(t *testing.T) {
	testCases := []struct {
		name string
		lbn  uint32
		want MSF
	}{
		{"lbn zero has 2-second pregap", 0, MSF{0, 2, 0}},
		{"one second in", 75, MSF{0, 3, 0}},
		{"one minute in", 75 * 60, MSF{1, 2, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LBNToMSF(tc.lbn)
			if got != tc.want {
				t.Errorf("LBNToMSF(%d) = %+v, want %+v", tc.lbn, got, tc.want)
			}
		})
	}
}

func TestMSFRoundTrip(t *testing.T) {
	for _, lbn := range []uint32{0, 1, 74, 4500, 333000 - 1} {
		m := LBNToMSF(lbn)
		back := MSFToLBN(m)
		if back != lbn {
			t.Errorf("MSFToLBN(LBNToMSF(%d)) = %d, want %d", lbn, back, lbn)
		}
	}
}

func TestLBAToMSF(t *testing.T) {
	got := LBAToMSF(0)
	want := "00:02:00"
	if got != want {
		t.Errorf("LBAToMSF(0) = %q, want %q", got, want)
	}
}

func TestEncodeDecodeMode2Form1(t *testing.T) {
	payload := make([]byte, Form1DataSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	sub := [4]byte{0x00, 0x00, 0x00, 0x00}

	raw, err := EncodeMode2(payload, 1000, sub, Form1, EDCCompute)
	if err != nil {
		t.Fatalf("EncodeMode2() failed: %v", err)
	}

	dec, err := DecodeMode2(raw)
	if err != nil {
		t.Fatalf("DecodeMode2() failed: %v", err)
	}
	if dec.LBN != 1000 {
		t.Errorf("DecodeMode2().LBN = %d, want 1000", dec.LBN)
	}
	if dec.Form != Form1 {
		t.Errorf("DecodeMode2().Form = %v, want Form1", dec.Form)
	}
	if !dec.EDCValid {
		t.Errorf("DecodeMode2().EDCValid = false, want true")
	}
	for i, b := range dec.Payload {
		if b != payload[i] {
			t.Fatalf("DecodeMode2().Payload[%d] = 0x%02X, want 0x%02X", i, b, payload[i])
			break
		}
	}
}

func TestEncodeMode2Form1CorruptedEDC(t *testing.T) {
	payload := make([]byte, Form1DataSize)
	sub := [4]byte{}
	raw, err := EncodeMode2(payload, 0, sub, Form1, EDCCompute)
	if err != nil {
		t.Fatalf("EncodeMode2() failed: %v", err)
	}
	raw[offForm1EDC] ^= 0xFF

	dec, err := DecodeMode2(raw)
	if err != nil {
		t.Fatalf("DecodeMode2() failed: %v", err)
	}
	if dec.EDCValid {
		t.Errorf("DecodeMode2().EDCValid = true after corrupting EDC byte, want false")
	}
}

func TestEncodeDecodeMode2Form2(t *testing.T) {
	payload := make([]byte, Form2DataSize)
	for i := range payload {
		payload[i] = byte(i % 211)
	}
	sub := [4]byte{0x00, 0x00, 0x20, 0x00}

	raw, err := EncodeMode2(payload, 42, sub, Form2, EDCCompute)
	if err != nil {
		t.Fatalf("EncodeMode2() failed: %v", err)
	}
	dec, err := DecodeMode2(raw)
	if err != nil {
		t.Fatalf("DecodeMode2() failed: %v", err)
	}
	if dec.Form != Form2 {
		t.Errorf("DecodeMode2().Form = %v, want Form2", dec.Form)
	}
	if !dec.EDCValid {
		t.Errorf("DecodeMode2().EDCValid = false, want true")
	}
}

func TestEncodeMode2Form2ZeroEDCPolicy(t *testing.T) {
	payload := make([]byte, Form2DataSize)
	sub := [4]byte{0x00, 0x00, 0x20, 0x00}

	raw, err := EncodeMode2(payload, 42, sub, Form2, EDCZero)
	if err != nil {
		t.Fatalf("EncodeMode2() failed: %v", err)
	}
	for i := offForm2EDC; i < RawSize; i++ {
		if raw[i] != 0 {
			t.Fatalf("EncodeMode2() with EDCZero left byte %d = 0x%02X, want 0", i, raw[i])
		}
	}
}

func TestEncodeMode2WrongPayloadSize(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		form    Form
	}{
		{"form 1 too short", make([]byte, Form1DataSize-1), Form1},
		{"form 2 too long", make([]byte, Form2DataSize+1), Form2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeMode2(tc.payload, 0, [4]byte{}, tc.form, EDCCompute)
			if err == nil {
				t.Errorf("EncodeMode2() should fail with mismatched payload size")
			}
		})
	}
}

func TestEmptyForm2(t *testing.T) {
	raw := EmptyForm2(7)
	dec, err := DecodeMode2(raw)
	if err != nil {
		t.Fatalf("DecodeMode2(EmptyForm2()) failed: %v", err)
	}
	if dec.Form != Form2 {
		t.Errorf("EmptyForm2().Form = %v, want Form2", dec.Form)
	}
	if !dec.EDCValid {
		t.Errorf("EmptyForm2() should report EDCValid via the zeroed-EDC convention")
	}
	for i, b := range dec.Payload {
		if b != 0 {
			t.Fatalf("EmptyForm2().Payload[%d] = 0x%02X, want 0", i, b)
		}
	}
}

func TestClassifyPostgap(t *testing.T) {
	var type1 [RawSize]byte
	copy(type1[:], syncPattern[:])

	type2, _ := EncodeMode2(make([]byte, Form2DataSize), 0, [4]byte{0, 0, 0x20, 0}, Form2, EDCZero)

	type3, _ := EncodeMode2(make([]byte, Form2DataSize), 0, [4]byte{0, 0, 0x20, 0}, Form2, EDCZero)
	// Same all-zero payload as type2, but with a nonzero stored EDC.
	type3[RawSize-1] = 0xAA

	var type0 [RawSize]byte
	copy(type0[:], syncPattern[:])
	type0[offData] = 0x55

	testCases := []struct {
		name string
		raw  [RawSize]byte
		want PostgapType
	}{
		{"type 1 all zero after sync", type1, PostgapType1},
		{"type 2 empty form2", type2, PostgapType2},
		{"type 3 form2 nonzero edc", type3, PostgapType3},
		{"type 0 unrecognized", type0, PostgapType0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyPostgap(tc.raw)
			if got != tc.want {
				t.Errorf("ClassifyPostgap() = %v, want %v", got, tc.want)
			}
		})
	}
}
