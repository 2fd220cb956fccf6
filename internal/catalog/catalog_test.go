package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Ripper55555/psximager/internal/fsnode"
)

func writeHostFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatalf("writing host fixture %q: %v", name, err)
	}
}

func TestParseMinimalCatalog(t *testing.T) {
	dir := t.TempDir()
	writeHostFile(t, dir, "FOO.TXT", 10)

	text := `volume {
  system_id [PLAYSTATION]
  volume_id [GAME]
  volume_set_id []
  publisher_id []
  preparer_id []
  application_id []
  copyright_file_id []
  abstract_file_id []
  bibliographic_file_id []
  creation_date 1999-12-31 23:59:58.00 32
  modification_date 1999-12-31 23:59:58.00 32
  expiration_date 0000-00-00 00:00:00.00 0
  effective_date 0000-00-00 00:00:00.00 0
  track_listing []
  track1_sector_count 1000
  track1_postgap_type 1
  audio_sectors 0
  strict_rebuild 0
  default_uid 0
  default_gid 0
}

dir GID0 UID0 ATRS0 ATRP0 DATES19991231235958 DATEP19991231235958 TIMEZONES32 TIMEZONEP32 HIDDEN0 {
  file FOO.TXT GID0 UID0 ATR0 DATE19991231235958 TIMEZONE32 SIZE10 HIDDEN0
}
`
	cat, err := Parse(strings.NewReader(text), dir)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cat.Volume.SystemID != "PLAYSTATION" {
		t.Errorf("SystemID = %q, want PLAYSTATION", cat.Volume.SystemID)
	}
	if cat.Volume.CreationDate.Year != 1999 {
		t.Errorf("CreationDate.Year = %d, want 1999", cat.Volume.CreationDate.Year)
	}
	if cat.Tracking.Track1SectorCount != 1000 {
		t.Errorf("Track1SectorCount = %d, want 1000", cat.Tracking.Track1SectorCount)
	}
	if cat.Root == nil || len(cat.Root.Children) != 1 {
		t.Fatalf("Root children = %v, want 1 file", cat.Root)
	}
	f := cat.Root.Children[0]
	if f.Name != "FOO.TXT;1" {
		t.Errorf("file name = %q, want FOO.TXT;1", f.Name)
	}
	if f.SizeBytes != 10 {
		t.Errorf("file size = %d, want 10 (host stat, not SIZE attr)", f.SizeBytes)
	}
	if f.SectorCount != 1 {
		t.Errorf("file sectorCount = %d, want 1", f.SectorCount)
	}
}

func TestParseAttributeGateAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	writeHostFile(t, dir, "PARTIAL.TXT", 0)

	line := `file PARTIAL.TXT GID5 SIZE99 HIDDEN1`
	node, err := parseFileLine(line, "file", dir)
	if err != nil {
		t.Fatalf("parseFileLine() failed: %v", err)
	}
	if node.XA.GID != 0 {
		t.Errorf("GID = %d, want 0 (partial attribute set must not apply)", node.XA.GID)
	}
	if node.Hidden {
		t.Errorf("Hidden = true, want false: HIDDEN must not apply without the full GID/UID/ATR/DATE gate")
	}
	if node.SizeBytes != 0 {
		t.Errorf("SizeBytes = %d, want 0 (real file is empty; SIZE attr only applies to cddafile)", node.SizeBytes)
	}
	if node.SectorCount != 1 {
		t.Errorf("SectorCount = %d, want 1 (empty non-audio file consumes exactly one sector)", node.SectorCount)
	}
}

func TestParseCddaRequiresLBN(t *testing.T) {
	_, err := parseFileLine(`cddafile MUSIC.DA GID0 UID0 ATR0 DATE19990101000000 TIMEZONE0 SIZE1000 HIDDEN0`, "cddafile", "")
	if err == nil {
		t.Fatalf("parseFileLine() succeeded, want error: cddafile requires @LBN")
	}
}

func TestParseCddaUsesSizeAttrNotHostStat(t *testing.T) {
	node, err := parseFileLine(`cddafile MUSIC.DA @70000 GID0 UID0 ATR0 DATE19990101000000 TIMEZONE0 SIZE123456 HIDDEN0`, "cddafile", "")
	if err != nil {
		t.Fatalf("parseFileLine() failed: %v", err)
	}
	if node.SizeBytes != 123456 {
		t.Errorf("SizeBytes = %d, want 123456 (catalog SIZE attr)", node.SizeBytes)
	}
	if node.SectorCount != 0 {
		t.Errorf("SectorCount = %d, want 0 (audio refs consume no data-track sectors)", node.SectorCount)
	}
	if node.RequestedLBN != 70000 {
		t.Errorf("RequestedLBN = %d, want 70000", node.RequestedLBN)
	}
}

func TestTokenizeSignedTimezone(t *testing.T) {
	key, val, ok := splitAttrToken("TIMEZONE-32")
	if !ok || key != "TIMEZONE" || val != "-32" {
		t.Errorf("splitAttrToken(%q) = (%q, %q, %v), want (TIMEZONE, -32, true)", "TIMEZONE-32", key, val, ok)
	}
}

func TestTokenizeLongestPrefixWins(t *testing.T) {
	key, val, ok := splitAttrToken("ATRS3413")
	if !ok || key != "ATRS" || val != "3413" {
		t.Errorf("splitAttrToken(%q) = (%q, %q, %v), want (ATRS, 3413, true)", "ATRS3413", key, val, ok)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeHostFile(t, dir, "FOO.TXT", 5)

	root := &fsnode.Node{Kind: fsnode.Dir, HostPath: dir}
	child := &fsnode.Node{Kind: fsnode.Regular, Name: "FOO.TXT;1", HostPath: filepath.Join(dir, "FOO.TXT"), SizeBytes: 5, SectorCount: 1}
	root.AddChild(child)
	cat := &Catalog{Root: root}
	if err := cat.Tracking.EncodeTracks(nil); err != nil {
		t.Fatalf("EncodeTracks() failed: %v", err)
	}

	text := Serialize(cat, false)
	got, err := Parse(strings.NewReader(text), dir)
	if err != nil {
		t.Fatalf("Parse(Serialize(cat)) failed: %v\n--- catalog text ---\n%s", err, text)
	}
	if len(got.Root.Children) != 1 || got.Root.Children[0].Name != "FOO.TXT;1" {
		t.Fatalf("round trip lost the file entry: %+v", got.Root)
	}
}
