package domain

import (
	"fmt"

	"github.com/samber/mo"
)

// ReleaseNumber is a (major, minor) release marker ordered
// lexicographically: majors compare first, minors break ties.
type ReleaseNumber struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func NewReleaseNumber(major, minor int) mo.Result[ReleaseNumber] {
	return Create(Validate().
		NonNegative("major", major).
		NonNegative("minor", minor),
		func() ReleaseNumber {
			return ReleaseNumber{Major: major, Minor: minor}
		})
}

// Compare returns -1, 0 or +1 as n orders before, equal to or after other.
func (n ReleaseNumber) Compare(other ReleaseNumber) int {
	switch {
	case n.Major < other.Major:
		return -1
	case n.Major > other.Major:
		return 1
	case n.Minor < other.Minor:
		return -1
	case n.Minor > other.Minor:
		return 1
	default:
		return 0
	}
}

// After reports whether n is strictly newer than other.
func (n ReleaseNumber) After(other ReleaseNumber) bool {
	return n.Compare(other) > 0
}

// Display renders the reader-facing label. The minor segment is omitted
// when zero: "Chapter 181", "Chapter 181.5".
func (n ReleaseNumber) Display() string {
	if n.Minor == 0 {
		return fmt.Sprintf("Chapter %d", n.Major)
	}
	return fmt.Sprintf("Chapter %d.%d", n.Major, n.Minor)
}

// ReleaseDetails is the latest committed release marker for a Media. It
// has value semantics: a newer scrape replaces it wholesale.
type ReleaseDetails struct {
	Number ReleaseNumber `json:"number"`
	URL    string        `json:"url"`
}

func NewReleaseDetails(number ReleaseNumber, releaseURL string) mo.Result[ReleaseDetails] {
	return Create(Validate().
		NotBlank("release url", releaseURL).
		AbsoluteURL("release url", releaseURL),
		func() ReleaseDetails {
			return ReleaseDetails{Number: number, URL: releaseURL}
		})
}

func (r ReleaseDetails) Display() string {
	return r.Number.Display()
}

// CandidateRelease is a marker freshly extracted from a source page, not
// yet committed to any Media. Title is carried only for naming a media on
// first scrape and never participates in ordering.
type CandidateRelease struct {
	Number ReleaseNumber
	URL    string
	Title  string
}

// Details converts the candidate into the committed value form.
func (c CandidateRelease) Details() ReleaseDetails {
	return ReleaseDetails{Number: c.Number, URL: c.URL}
}
