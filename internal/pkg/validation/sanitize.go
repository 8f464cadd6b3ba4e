package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxMetadataLength      = 1000
	MaxMetadataFieldLength = 200
	// MaxMetadataBytes bounds serialized metadata. Any sanitized string fits; objects
	// with many fields do not.
	MaxMetadataBytes = 8 << 10
)

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(StripNonPrintable(input))
	return truncateRunes(trimmed, maxLen)
}

// StripNonPrintable drops control and other non-printable runes.
func StripNonPrintable(input string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, input)
}

// SanitizeMetadata cleans free-form donation metadata. Strings are capped at
// MaxMetadataLength; objects keep their keys and every string field is capped at
// MaxMetadataFieldLength. Nested values are sanitized recursively.
func SanitizeMetadata(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return SanitizeString(v, MaxMetadataLength)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, field := range v {
			cleanKey := SanitizeString(key, MaxMetadataFieldLength)
			if cleanKey == "" {
				continue
			}
			out[cleanKey] = sanitizeField(field)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			out = append(out, sanitizeField(item))
		}
		return out
	default:
		return v
	}
}

func sanitizeField(value any) any {
	if s, ok := value.(string); ok {
		return SanitizeString(s, MaxMetadataFieldLength)
	}
	return SanitizeMetadata(value)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}
