package catalog

import (
	"fmt"
	"strings"

	"github.com/Ripper55555/psximager/internal/fsnode"
	"github.com/Ripper55555/psximager/internal/iso9660"
)

// Serialize renders cat back to catalog text, grounded on psxrip.cpp's
// dumpFilesystem/dumpImage write order: system_area, volume, then the root
// directory tree. writeLBNs controls whether file/dir lines carry "@LBN"
// (rip's -l/--lbns flag); cddafile lines always carry it regardless, since
// spec.md §4.4 makes it mandatory for audio back-references.
func Serialize(cat *Catalog, writeLBNs bool) string {
	var sb strings.Builder

	if cat.SystemAreaFile != "" {
		sb.WriteString("system_area {\n")
		fmt.Fprintf(&sb, "  file %q\n", cat.SystemAreaFile)
		sb.WriteString("}\n\n")
	}

	sb.WriteString("volume {\n")
	v := cat.Volume
	fmt.Fprintf(&sb, "  system_id %s\n", bracket(v.SystemID))
	fmt.Fprintf(&sb, "  volume_id %s\n", bracket(v.VolumeID))
	fmt.Fprintf(&sb, "  volume_set_id %s\n", bracket(v.VolumeSetID))
	fmt.Fprintf(&sb, "  publisher_id %s\n", bracket(v.PublisherID))
	fmt.Fprintf(&sb, "  preparer_id %s\n", bracket(v.PreparerID))
	fmt.Fprintf(&sb, "  application_id %s\n", bracket(v.ApplicationID))
	fmt.Fprintf(&sb, "  copyright_file_id %s\n", bracket(v.CopyrightFileID))
	fmt.Fprintf(&sb, "  abstract_file_id %s\n", bracket(v.AbstractFileID))
	fmt.Fprintf(&sb, "  bibliographic_file_id %s\n", bracket(v.BibliographicFileID))
	fmt.Fprintf(&sb, "  creation_date %s\n", v.CreationDate.FormatCatalogLTime())
	fmt.Fprintf(&sb, "  modification_date %s\n", v.ModificationDate.FormatCatalogLTime())
	fmt.Fprintf(&sb, "  expiration_date %s\n", v.ExpirationDate.FormatCatalogLTime())
	fmt.Fprintf(&sb, "  effective_date %s\n", v.EffectiveDate.FormatCatalogLTime())
	fmt.Fprintf(&sb, "  track_listing %s\n", bracket(cat.Tracking.TrackListingB64))
	if cat.Tracking.OriginalCueFileB64 != "" {
		fmt.Fprintf(&sb, "  original_cue_file %s\n", bracket(cat.Tracking.OriginalCueFileB64))
	}
	fmt.Fprintf(&sb, "  track1_sector_count %d\n", cat.Tracking.Track1SectorCount)
	fmt.Fprintf(&sb, "  track1_postgap_type %d\n", cat.Tracking.Track1PostgapType)
	fmt.Fprintf(&sb, "  audio_sectors %d\n", cat.Tracking.AudioSectors)
	fmt.Fprintf(&sb, "  strict_rebuild %d\n", boolToInt(cat.Tracking.StrictRebuild))
	fmt.Fprintf(&sb, "  default_uid %d\n", v.DefaultUID)
	fmt.Fprintf(&sb, "  default_gid %d\n", v.DefaultGID)
	sb.WriteString("}\n\n")

	writeDirSection(&sb, cat.Root, 0, writeLBNs)
	return sb.String()
}

func writeDirSection(sb *strings.Builder, n *fsnode.Node, depth int, writeLBNs bool) {
	indent := strings.Repeat("  ", depth)
	if depth == 0 {
		sb.WriteString("dir")
	} else {
		sb.WriteString(indent + "dir " + n.Name)
	}
	if writeLBNs {
		fmt.Fprintf(sb, " @%d", n.FirstSector)
	}
	fmt.Fprintf(sb, " GID%d UID%d ATRS%d ATRP%d DATES%s DATEP%s TIMEZONES%d TIMEZONEP%d HIDDEN%d",
		n.XA.GID, n.XA.UID, n.XA.Attributes, n.ParentXA.Attributes,
		n.Timestamp.DateString, n.ParentTime.DateString,
		n.Timestamp.GMTOffset, n.ParentTime.GMTOffset, boolToInt(n.Hidden))
	if n.Y2KFlag != fsnode.Y2KHealthy {
		fmt.Fprintf(sb, " Y2KBUG%d", n.Y2KFlag)
	}
	sb.WriteString(" {\n")

	for _, c := range n.Children {
		if c.IsDir() {
			writeDirSection(sb, c, depth+1, writeLBNs)
		} else {
			writeFileLine(sb, c, depth+1, writeLBNs)
		}
	}
	sb.WriteString(indent + "}\n")
}

func writeFileLine(sb *strings.Builder, n *fsnode.Node, depth int, writeLBNs bool) {
	indent := strings.Repeat("  ", depth)
	directive := "file"
	switch n.Kind {
	case fsnode.Form2:
		directive = "xafile"
	case fsnode.AudioRef:
		directive = "cddafile"
	}
	sb.WriteString(indent + directive + " " + iso9660.StripVersion(n.Name))
	if writeLBNs || n.Kind == fsnode.AudioRef {
		fmt.Fprintf(sb, " @%d", n.FirstSector)
	}
	fmt.Fprintf(sb, " GID%d UID%d ATR%d DATE%s TIMEZONE%d SIZE%d HIDDEN%d",
		n.XA.GID, n.XA.UID, n.XA.Attributes, n.Timestamp.DateString, n.Timestamp.GMTOffset,
		n.SizeBytes, boolToInt(n.Hidden))
	if n.Kind == fsnode.Form2 {
		fmt.Fprintf(sb, " ZEROEDC%d", boolToInt(n.ZeroEdcFlag))
	}
	if n.Y2KFlag != fsnode.Y2KHealthy {
		fmt.Fprintf(sb, " Y2KBUG%d", n.Y2KFlag)
	}
	sb.WriteString("\n")
}
