package logger

import (
	"strings"
	"time"
	"unicode"
)

// Status maps err onto the status field value.
func Status(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the nearest millisecond; negative values become 0.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SanitizeLimit strips control and format characters except newline and tab,
// then cuts the result to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 || s == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
	if r := []rune(clean); len(r) > max {
		return string(r[:max])
	}
	return clean
}
