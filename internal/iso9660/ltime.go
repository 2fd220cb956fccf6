package iso9660

import (
	"fmt"
	"regexp"
	"strconv"
)

// LTime is the ISO 9660 long-form timestamp: ASCII
// YYYYMMDDhhmmssxx plus a signed GMT offset in quarter-hours, 17 bytes on
// disc. Used for the four PVD dates (creation/modification/expiration/
// effective).
type LTime struct {
	Year, Month, Day      int
	Hour, Minute, Second  int
	Hundredths            int
	GMTOffset             int8 // quarter-hours, range -48..+52
}

// DecodeLTime parses the 17-byte on-disc LTIME field. A field of all zero
// digits (or all spaces) decodes to the zero LTime whatever its offset
// byte, matching iso9660's "unset date" convention.
func DecodeLTime(raw [17]byte) (LTime, error) {
	digits := string(raw[0:16])
	var t LTime
	if isAllChar(digits, '0') || isAllChar(digits, ' ') {
		return t, nil
	}
	n, err := fmt.Sscanf(digits, "%4d%2d%2d%2d%2d%2d%2d",
		&t.Year, &t.Month, &t.Day, &t.Hour, &t.Minute, &t.Second, &t.Hundredths)
	if err != nil || n != 7 {
		return t, fmt.Errorf("iso9660: malformed LTIME %q: %w", digits, err)
	}
	t.GMTOffset = int8(raw[16])
	return t, nil
}

func isAllChar(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != c {
			return false
		}
	}
	return true
}

// EncodeLTime renders t back to its 17-byte on-disc form.
func (t LTime) EncodeLTime() [17]byte {
	var raw [17]byte
	if t.Year == 0 {
		for i := 0; i < 16; i++ {
			raw[i] = '0'
		}
		return raw
	}
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.Hundredths)
	copy(raw[:16], s)
	raw[16] = byte(t.GMTOffset)
	return raw
}

// catalogLTimeRe matches the catalog's human-readable LTIME spelling,
// "YYYY-MM-DD hh:mm:ss.xx ofs", grounded on psxbuild.cpp's parse_ltime.
var catalogLTimeRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})\s+(\d{2}):(\d{2}):(\d{2})\.(\d{2})\s+(-?\d+)$`)

// ParseCatalogLTime parses the volume block's date text form.
func ParseCatalogLTime(s string) (LTime, error) {
	m := catalogLTimeRe.FindStringSubmatch(s)
	if m == nil {
		return LTime{}, fmt.Errorf("iso9660: malformed catalog date %q", s)
	}
	atoi := func(s string) int { v, _ := strconv.Atoi(s); return v }
	ofs := atoi(m[8])
	return LTime{
		Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3]),
		Hour: atoi(m[4]), Minute: atoi(m[5]), Second: atoi(m[6]),
		Hundredths: atoi(m[7]), GMTOffset: int8(ofs),
	}, nil
}

// FormatCatalogLTime renders t in the catalog's text form.
func (t LTime) FormatCatalogLTime() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%02d %d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.Hundredths, t.GMTOffset)
}

// ShortDate is the 7-byte "recording date and time" embedded in a
// directory record: a single byte year (since 1900), followed by month,
// day, hour, minute, second, and a signed quarter-hour GMT offset.
type ShortDate struct {
	YearsSince1900 byte
	Month, Day     byte
	Hour, Minute   byte
	Second         byte
	GMTOffset      int8
}

// DecodeShortDate parses a directory record's 7-byte time field.
func DecodeShortDate(raw [7]byte) ShortDate {
	return ShortDate{
		YearsSince1900: raw[0],
		Month:          raw[1],
		Day:            raw[2],
		Hour:           raw[3],
		Minute:         raw[4],
		Second:         raw[5],
		GMTOffset:      int8(raw[6]),
	}
}

// EncodeBytes renders d back to its 7-byte on-disc form.
func (d ShortDate) EncodeBytes() [7]byte {
	return [7]byte{d.YearsSince1900, d.Month, d.Day, d.Hour, d.Minute, d.Second, byte(d.GMTOffset)}
}

// CatalogDateString renders d as the catalog's 14-digit YYYYMMDDhhmmss
// form, using the raw (possibly Y2K-broken) year.
func (d ShortDate) CatalogDateString() string {
	return fmt.Sprintf("%04d%02d%02d%02d%02d%02d", 1900+int(d.YearsSince1900), d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// ParseCatalogDate parses the catalog's 14-digit YYYYMMDDhhmmss form back
// into year/month/day/hour/minute/second, returning the full (unclamped)
// year rather than a YearsSince1900 byte, since a catalog-sourced date has
// already been through the Y2K decision at rip time.
func ParseCatalogDate(s string) (year, month, day, hour, minute, second int, err error) {
	if len(s) != 14 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("iso9660: catalog date %q must be 14 digits", s)
	}
	n, err := fmt.Sscanf(s, "%4d%2d%2d%2d%2d%2d", &year, &month, &day, &hour, &minute, &second)
	if err != nil || n != 6 {
		return 0, 0, 0, 0, 0, 0, fmt.Errorf("iso9660: malformed catalog date %q", s)
	}
	return
}

// Y2KFlag mirrors spec.md's FSNode.y2kFlag encoding: 1 if the entry's own
// date was broken, 10 if its parent directory's date was broken, 11 if
// both, 0 if neither.
type Y2KFlag int

const (
	Y2KHealthy     Y2KFlag = 0
	Y2KSelfBroken  Y2KFlag = 1
	Y2KParentBroken Y2KFlag = 10
)

// IsYearBroken reports whether a raw YearsSince1900 value represents a
// known disc-mastering bug: either the "< 70" under-1970 pattern that
// Y2KFix can repair deterministically, or an implausibly-far-future value
// (> 130, i.e. past 2030) that no PS1-era disc actually has and that
// Y2KFix cannot repair — only a PVD-date fallback can.
func IsYearBroken(yearsSince1900 byte) bool {
	return yearsSince1900 < 70 || yearsSince1900 > 130
}

// isRepairableByFix reports whether Y2KFix's century rule can produce a
// sane result for yearsSince1900 (the "< 70" case only).
func isRepairableByFix(yearsSince1900 byte) bool {
	return yearsSince1900 < 70
}

// Y2KFix applies spec.md §4.7's repair rule to a broken year byte: if the
// century implied by the raw value reads "00" or "19" and the two-digit
// year is >= 70, the century is kept as "19"; otherwise it becomes "20".
func Y2KFix(yearsSince1900 byte) int {
	full := 1900 + int(yearsSince1900)
	century := full / 100
	twoDigit := full % 100
	centuryStr := fmt.Sprintf("%02d", century)
	if (centuryStr == "00" || centuryStr == "19") && twoDigit >= 70 {
		century = 19
	} else {
		century = 20
	}
	return century*100 + twoDigit
}

// Y2KFallback resolves a broken year, following the `fix` policy and, when
// Y2KFix itself cannot produce a sane (post-1970) year, substituting the
// PVD's own creation-date year as the original psxrip.cpp's
// rootEntryReplacementTm does.
func Y2KFallback(yearsSince1900 byte, fix bool, pvdCreationYear int) (year int, broken bool) {
	if !IsYearBroken(yearsSince1900) {
		return 1900 + int(yearsSince1900), false
	}
	if !fix {
		return 1900 + int(yearsSince1900), true
	}
	if !isRepairableByFix(yearsSince1900) {
		return pvdCreationYear, true
	}
	return Y2KFix(yearsSince1900), true
}
