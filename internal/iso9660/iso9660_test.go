package iso9660

import (
	"encoding/binary"
	"testing"
)

func TestStripVersion(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"versioned file", "FOO.TXT;1", "FOO.TXT"},
		{"no version", "FOO.TXT", "FOO.TXT"},
		{"directory name", "SUBDIR", "SUBDIR"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripVersion(tc.in); got != tc.want {
				t.Errorf("StripVersion(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSectorsForSize(t *testing.T) {
	testCases := []struct {
		name    string
		size    uint32
		isForm2 bool
		want    uint32
	}{
		{"empty file still one sector", 0, false, 1},
		{"exact one sector form1", 2048, false, 1},
		{"one byte over form1", 2049, false, 2},
		{"exact one sector form2", 2336, true, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SectorsForSize(tc.size, tc.isForm2); got != tc.want {
				t.Errorf("SectorsForSize(%d, %v) = %d, want %d", tc.size, tc.isForm2, got, tc.want)
			}
		})
	}
}

func TestLTimeRoundTrip(t *testing.T) {
	want := LTime{Year: 1999, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 58, Hundredths: 0, GMTOffset: 32}
	raw := want.EncodeLTime()
	got, err := DecodeLTime(raw)
	if err != nil {
		t.Fatalf("DecodeLTime() failed: %v", err)
	}
	if got != want {
		t.Errorf("DecodeLTime(EncodeLTime(%+v)) = %+v", want, got)
	}
}

func TestCatalogLTimeRoundTrip(t *testing.T) {
	want := LTime{Year: 1999, Month: 1, Day: 2, Hour: 3, Minute: 4, Second: 5, Hundredths: 6, GMTOffset: 36}
	text := want.FormatCatalogLTime()
	got, err := ParseCatalogLTime(text)
	if err != nil {
		t.Fatalf("ParseCatalogLTime(%q) failed: %v", text, err)
	}
	if got != want {
		t.Errorf("ParseCatalogLTime(FormatCatalogLTime(%+v)) = %+v", want, got)
	}
}

func TestY2KFix(t *testing.T) {
	testCases := []struct {
		name string
		raw  byte
		want int
	}{
		{"1999 mis-stored as 99 stays 1999", 99, 1999},
		{"byte 0 (1900) rewrites to 2000", 0, 2000},
		{"byte 5 (1905) rewrites to 2005", 5, 2005},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Y2KFix(tc.raw); got != tc.want {
				t.Errorf("Y2KFix(%d) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestY2KFallbackRepairable(t *testing.T) {
	year, broken := Y2KFallback(0, true, 1997)
	if !broken {
		t.Fatalf("Y2KFallback(0, ...) should report broken=true")
	}
	if year != 2000 {
		t.Errorf("Y2KFallback(0, fix=true) = %d, want 2000 (Y2KFix result, still sane)", year)
	}
}

func TestY2KFallbackUsesPVDWhenIrreparable(t *testing.T) {
	year, broken := Y2KFallback(200, true, 1997)
	if !broken {
		t.Fatalf("Y2KFallback(200, ...) should report broken=true")
	}
	if year != 1997 {
		t.Errorf("Y2KFallback(200, fix=true) = %d, want 1997 (PVD creation-date fallback)", year)
	}
}

func TestDirRecordRoundTrip(t *testing.T) {
	want := DirRecord{
		ExtentLBN:  1234,
		DataLength: 5000,
		Recorded:   ShortDate{YearsSince1900: 99, Month: 6, Day: 15, Hour: 12, Minute: 0, Second: 0, GMTOffset: 32},
		Flags:      FlagDirectory,
		Name:       "SUBDIR",
		XA:         XAExtension{OwnerID: 1, UserID: 2, Attributes: XAAttrDirectory, FileNumber: 0},
	}
	raw := want.Encode()
	got, n, err := DecodeDirRecord(raw)
	if err != nil {
		t.Fatalf("DecodeDirRecord() failed: %v", err)
	}
	if n != len(raw) {
		t.Errorf("DecodeDirRecord() consumed %d bytes, want %d", n, len(raw))
	}
	if got.ExtentLBN != want.ExtentLBN || got.DataLength != want.DataLength || got.Name != want.Name {
		t.Errorf("DecodeDirRecord() = %+v, want %+v", got, want)
	}
	if got.XA.Attributes != want.XA.Attributes {
		t.Errorf("DecodeDirRecord().XA.Attributes = 0x%04X, want 0x%04X", got.XA.Attributes, want.XA.Attributes)
	}
}

func TestPathTableEntryRoundTrip(t *testing.T) {
	entries := []PathTableEntry{
		{Name: "\x00", ExtentLBN: 22, ParentDir: 1},
		{Name: "ABC", ExtentLBN: 30, ParentDir: 1},
	}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		raw := EncodeTable(entries, order)
		got := DecodeTable(raw, order)
		if len(got) != len(entries) {
			t.Fatalf("DecodeTable() returned %d entries, want %d", len(got), len(entries))
		}
		for i, e := range entries {
			if got[i].ExtentLBN != e.ExtentLBN || got[i].ParentDir != e.ParentDir || got[i].Name != e.Name {
				t.Errorf("DecodeTable()[%d] = %+v, want %+v", i, got[i], e)
			}
		}
	}
}

func TestValidateDString(t *testing.T) {
	if err := ValidateDString("HELLO_WORLD1"); err != nil {
		t.Errorf("ValidateDString() rejected a valid d-string: %v", err)
	}
	if err := ValidateDString("hello"); err == nil {
		t.Errorf("ValidateDString() accepted lowercase letters")
	}
}
