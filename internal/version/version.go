// SPDX-License-Identifier: Apache-2.0

// Package version implements the version ordering used by the host package
// manager. Upgrade gating depends on exact tie-breaking at segment
// boundaries, so the comparison must match what dpkg computes for the same
// pair of version strings rather than any semantic-versioning scheme.
package version

import "strings"

// Ordering is the result of comparing two versions.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Version is a package-manager style version identifier such as "2.13-1".
//
// A Version is segmented into alternating runs of non-digit and digit
// characters. Corresponding digit runs compare numerically, non-digit runs
// compare lexically, and a version that runs out of segments is padded with
// an empty segment. Any string is a valid Version; the zero value represents
// "no prior version" (fresh install).
type Version struct {
	raw string
}

// New returns the Version for the given raw string.
// Surrounding whitespace is ignored.
func New(raw string) Version {
	return Version{raw: strings.TrimSpace(raw)}
}

// Raw returns the version string as provided to New.
func (v Version) Raw() string {
	return v.raw
}

// IsZero reports whether no version string was provided.
func (v Version) IsZero() bool {
	return v.raw == ""
}

func (v Version) String() string {
	return v.raw
}

// Compare orders v against other using the segment rules above.
func (v Version) Compare(other Version) Ordering {
	return Compare(v, other)
}

// LessOrEqual reports whether v sorts at or before threshold.
// This is the predicate migration gating is built on: a step applies when
// the previously installed version is less than or equal to the step's
// threshold.
func (v Version) LessOrEqual(threshold Version) bool {
	return Compare(v, threshold) != Greater
}

// Compare orders two versions segment by segment.
func Compare(a, b Version) Ordering {
	x, y := a.raw, b.raw

	for x != "" || y != "" {
		var xr, yr string

		xr, x = takeNonDigits(x)
		yr, y = takeNonDigits(y)
		if c := strings.Compare(xr, yr); c != 0 {
			return Ordering(c)
		}

		xr, x = takeDigits(x)
		yr, y = takeDigits(y)
		if c := compareNumeric(xr, yr); c != Equal {
			return c
		}
	}

	return Equal
}

// takeNonDigits splits s into its leading non-digit run and the remainder.
func takeNonDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// takeDigits splits s into its leading digit run and the remainder.
func takeDigits(s string) (run, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// compareNumeric orders two digit runs by numeric value. Runs are compared
// as trimmed strings instead of parsed integers so arbitrarily long runs
// cannot overflow; an empty run counts as zero.
func compareNumeric(a, b string) Ordering {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return Less
		}
		return Greater
	}

	return Ordering(strings.Compare(a, b))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
