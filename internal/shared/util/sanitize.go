package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameBytes bounds stored display names.
const MaxFileNameBytes = 255

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName turns an uploaded name into a single path element safe for
// display and for use inside a storage key. Traversal patterns are rejected
// rather than rewritten.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, ".") == "" {
		return "", ErrInvalidFileName
	}
	return truncateKeepingExt(s, MaxFileNameBytes), nil
}

func truncateKeepingExt(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	ext := path.Ext(s)
	if len(ext) >= limit/2 {
		ext = ""
	}
	base := s[:len(s)-len(ext)]
	cut := limit - len(ext)
	for cut > 0 && !utf8.RuneStart(base[cut]) {
		cut--
	}
	return base[:cut] + ext
}
