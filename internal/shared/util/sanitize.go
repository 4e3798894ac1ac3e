package util

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxErrorMessageLen bounds error messages persisted on records.
const MaxErrorMessageLen = 500

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeError flattens err to a single trimmed line of at most MaxErrorMessageLen runes.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if utf8.RuneCountInString(msg) > MaxErrorMessageLen {
		msg = string([]rune(msg)[:MaxErrorMessageLen])
	}
	return msg
}
