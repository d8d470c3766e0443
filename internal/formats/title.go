package formats

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"telefetch/internal/utils/logging"
)

const maxTitleLen = 80

// SanitizeTitle converts a media title into a safe filename stem. The
// stem is also the glob anchor for partial-file cleanup, so it must stay
// stable for the lifetime of a task.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastUnderscore := false
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	s := strings.Trim(b.String(), "._")
	if s == "" {
		s = "media"
	}
	if len(s) > maxTitleLen {
		s = s[:maxTitleLen]
	}
	return s
}

// ParseUploadDate parses the extractor's upload date field (commonly
// "20231105"). Returns the zero time when unparseable.
func ParseUploadDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		logging.D(2, "Could not parse upload date %q: %v", s, err)
		return time.Time{}
	}
	return t
}
