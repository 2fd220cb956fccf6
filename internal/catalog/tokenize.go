package catalog

import (
	"sort"
	"strings"
)

// attrPrefixes lists the tagged-value suffix keys a directory or file line
// may carry, grounded on spec.md §4.4's grammar and psxbuild.cpp's
// per-attribute regexes, reworked per spec.md §9 into a single tokenizer
// instead of one regex per attribute. Longer prefixes that share a stem with
// a shorter one (ATRS/ATRP vs ATR, DATES/DATEP vs DATE, TIMEZONES/TIMEZONEP
// vs TIMEZONE) must be tried first.
var attrPrefixes = func() []string {
	p := []string{
		"TIMEZONES", "TIMEZONEP", "TIMEZONE",
		"ATRS", "ATRP", "ATR",
		"DATES", "DATEP", "DATE",
		"GID", "UID", "SIZE", "HIDDEN", "ZEROEDC", "Y2KBUG",
	}
	sort.Slice(p, func(i, j int) bool { return len(p[i]) > len(p[j]) })
	return p
}()

// splitAttrToken splits a tagged-value token like "ATRS3413" or
// "TIMEZONE-32" into its key and value. The value may carry a leading '-'
// (quarter-hour GMT offsets are signed); psxbuild.cpp's digit-only regex
// couldn't express that, which this tokenizer fixes rather than preserves.
func splitAttrToken(tok string) (key, val string, ok bool) {
	for _, p := range attrPrefixes {
		if strings.HasPrefix(tok, p) {
			rest := tok[len(p):]
			if rest == "" {
				continue
			}
			if rest[0] == '-' {
				if len(rest) == 1 {
					continue
				}
			}
			return p, rest, true
		}
	}
	return "", "", false
}

// isAttrToken reports whether tok is a tagged-value attribute or an "@LBN"
// marker, as opposed to a bare name.
func isAttrToken(tok string) bool {
	if strings.HasPrefix(tok, "@") {
		return true
	}
	_, _, ok := splitAttrToken(tok)
	return ok
}

// attrBag is the tokenizer's output for one dir/file line: the optional
// name, the optional requested LBN, and every tagged-value attribute found.
type attrBag struct {
	name string
	lbn  uint32
	vals map[string]string
}

func (b attrBag) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := b.vals[k]; !ok {
			return false
		}
	}
	return true
}

func (b attrBag) get(key string) string {
	return b.vals[key]
}
