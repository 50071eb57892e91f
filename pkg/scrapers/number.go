package scrapers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rensai-hq/rensai-release-tracker/internal/domain"
)

var (
	// markerPattern prefers an explicitly labelled chapter/episode number
	// so dates or volume counts in the same text do not win.
	markerPattern = regexp.MustCompile(`(?i)(?:chapter|chap|ch|episode|ep)\.?\s*(\d+)(?:[.,](\d+))?`)
	numberPattern = regexp.MustCompile(`(\d+)(?:[.,](\d+))?`)
)

// ParseReleaseNumber extracts a (major, minor) release marker from node
// text such as "Chapter 181", "Ch. 181.5" or "Episode 42". A labelled
// marker wins over the first bare number.
func ParseReleaseNumber(text string) (domain.ReleaseNumber, error) {
	m := markerPattern.FindStringSubmatch(text)
	if m == nil {
		m = numberPattern.FindStringSubmatch(text)
	}
	if m == nil {
		return domain.ReleaseNumber{}, fmt.Errorf("no release number in %q", textSnippet(text))
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.ReleaseNumber{}, fmt.Errorf("parse major of %q: %w", textSnippet(text), err)
	}
	minor := 0
	if m[2] != "" {
		if minor, err = strconv.Atoi(m[2]); err != nil {
			return domain.ReleaseNumber{}, fmt.Errorf("parse minor of %q: %w", textSnippet(text), err)
		}
	}
	return domain.NewReleaseNumber(major, minor).Get()
}

func textSnippet(text string) string {
	const maxLen = 80
	s := strings.Join(strings.Fields(text), " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
