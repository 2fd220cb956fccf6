package ripper

import (
	"os"
	"strings"
	"testing"

	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
	"github.com/Ripper55555/psximager/internal/wavfile"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		rec  iso9660.DirRecord
		want fsnode.Kind
	}{
		{"directory", iso9660.DirRecord{Flags: iso9660.FlagDirectory}, fsnode.Dir},
		{"cdda", iso9660.DirRecord{XA: iso9660.XAExtension{Attributes: iso9660.XAAttrCDDA}}, fsnode.AudioRef},
		{"form2", iso9660.DirRecord{XA: iso9660.XAExtension{Attributes: iso9660.XAAttrMode2Form2}}, fsnode.Form2},
		{"regular", iso9660.DirRecord{}, fsnode.Regular},
	}
	for _, c := range cases {
		if got := classify(c.rec); got != c.want {
			t.Errorf("%s: classify() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestResolveDatePreservesBrokenYearWhenFixOff(t *testing.T) {
	c := &ripCtx{fix: false, pvdCreationYear: 1998}
	date, broken := c.resolveDate(iso9660.ShortDate{YearsSince1900: 0, Month: 3, Day: 4})
	if !broken {
		t.Fatalf("resolveDate() broken = false, want true for year byte 0")
	}
	if !strings.HasPrefix(date, "1900") {
		t.Errorf("resolveDate() = %q, want preserved (unrepaired) year 1900", date)
	}
}

func TestResolveDateRepairsWhenFixOn(t *testing.T) {
	c := &ripCtx{fix: true, pvdCreationYear: 1998}
	date, broken := c.resolveDate(iso9660.ShortDate{YearsSince1900: 0, Month: 3, Day: 4})
	if !broken {
		t.Fatalf("resolveDate() broken = false, want true")
	}
	if !strings.HasPrefix(date, "2000") {
		t.Errorf("resolveDate() = %q, want century rewritten to 2000", date)
	}
}

func TestDecodeDirEntriesStopsAtPadding(t *testing.T) {
	self := iso9660.DirRecord{Name: "\x00", ExtentLBN: 22, DataLength: 2048}
	parent := iso9660.DirRecord{Name: "\x01", ExtentLBN: 22, DataLength: 2048}
	child := iso9660.DirRecord{Name: "FOO.TXT;1", ExtentLBN: 23, DataLength: 10}

	page := make([]byte, 2048)
	off := 0
	for _, rec := range []iso9660.DirRecord{self, parent, child} {
		enc := rec.Encode()
		copy(page[off:], enc)
		off += len(enc)
	}

	records, err := decodeDirEntries(page)
	if err != nil {
		t.Fatalf("decodeDirEntries() failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[2].Name != "FOO.TXT;1" {
		t.Errorf("records[2].Name = %q, want FOO.TXT;1", records[2].Name)
	}
}

func TestWriteWavHeader(t *testing.T) {
	pcm := make([]byte, 100)
	path := t.TempDir() + "/test.wav"
	if err := wavfile.Write(path, pcm); err != nil {
		t.Fatalf("wavfile.Write() failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back %q: %v", path, err)
	}
	if len(raw) != 144 {
		t.Fatalf("len(raw) = %d, want 144 (44-byte header + 100 bytes PCM)", len(raw))
	}
	off, err := wavfile.DataOffset(raw)
	if err != nil {
		t.Fatalf("wavfile.DataOffset() failed: %v", err)
	}
	if off != 44 {
		t.Errorf("data chunk offset = %d, want 44", off)
	}
}
