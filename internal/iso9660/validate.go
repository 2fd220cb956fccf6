package iso9660

import "fmt"

// IsDChar reports whether b is a valid ISO 9660 d-character: A-Z, 0-9, _.
func IsDChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}

// IsAChar reports whether b is a valid ISO 9660 a-character: the
// d-characters plus space and a handful of punctuation marks.
func IsAChar(b byte) bool {
	if IsDChar(b) || b == ' ' {
		return true
	}
	switch b {
	case '!', '"', '%', '&', '\'', '(', ')', '*', '+', ',', '-', '.', '/', ':', ';', '<', '=', '>', '?':
		return true
	}
	return false
}

// ValidateDString checks s is entirely d-characters, returning an
// Invariant-class error naming the first offending byte. Used for the
// fixed identifiers (system/volume/application IDs are a-strings; file
// and directory names are d-strings).
func ValidateDString(s string) error {
	for i := 0; i < len(s); i++ {
		if !IsDChar(s[i]) {
			return fmt.Errorf("iso9660: %q is not a valid d-string: byte %d (0x%02X) is not a d-character", s, i, s[i])
		}
	}
	return nil
}

// ValidateAString checks s is entirely a-characters.
func ValidateAString(s string) error {
	for i := 0; i < len(s); i++ {
		if !IsAChar(s[i]) {
			return fmt.Errorf("iso9660: %q is not a valid a-string: byte %d (0x%02X) is not an a-character", s, i, s[i])
		}
	}
	return nil
}

// ValidateFileName checks a file identifier's d-string components while
// tolerating the "." separator and the ";N" version suffix the format
// reserves for file names.
func ValidateFileName(name string) error {
	for i := 0; i < len(name); i++ {
		b := name[i]
		if IsDChar(b) || b == '.' || b == ';' || (b >= '0' && b <= '9') {
			continue
		}
		return fmt.Errorf("iso9660: %q is not a valid file identifier: byte %d (0x%02X) is not a d-character, '.' or ';'", name, i, b)
	}
	return nil
}
