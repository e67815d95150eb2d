// SPDX-License-Identifier: MIT

// Package classify matches scanned files against caller-supplied rules and
// resolver tables to produce SxxExx classifications. It contains no
// heuristics: every decision is either a substring rule match or a table
// lookup.
package classify

import "regexp"

var codecMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[xh]26[45]`),
	regexp.MustCompile(`(?i)HEVC|AVC|Ma10p|10bit`),
}

// numberPatterns is the ordered list of episode-number extraction patterns.
// The first pattern to produce a value in [1, 999] wins. The second
// pattern ("E01 but not x265") has no RE2 lookbehind equivalent, so it is
// handled separately by matchBareE.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)EP?\.?(\d{2,4})`),
	nil, // placeholder for matchBareE, kept to preserve pattern ordering
	regexp.MustCompile(`第(\d{1,4})[集话話]`),
	regexp.MustCompile(`\[(\d{2,4})\]`),
	regexp.MustCompile(`[.\s\-_](\d{2,4})[.\s\-_\[]`),
	regexp.MustCompile(`(?i)S\d+E(\d{2,4})`),
}

var bareEPattern = regexp.MustCompile(`(?i)E(\d{2,4})`)

// matchBareE finds "E<digits>" not immediately preceded by x or h
// (RE2 has no lookbehind, so this reimplements the negative-lookbehind
// pattern `(?<![xh])E(\d{2,4})` by hand).
func matchBareE(s string) (string, bool) {
	for _, loc := range bareEPattern.FindAllStringSubmatchIndex(s, -1) {
		start := loc[0]
		if start > 0 {
			prev := s[start-1]
			if prev == 'x' || prev == 'X' || prev == 'h' || prev == 'H' {
				continue
			}
		}
		return s[loc[2]:loc[3]], true
	}
	return "", false
}

// ExtractEpisodeNumber pulls an episode number out of a filename by trying
// numberPatterns in order against the name with codec markers stripped.
// Returns 0 if nothing in [1, 999] is found.
func ExtractEpisodeNumber(filename string) int {
	clean := filename
	for _, marker := range codecMarkers {
		clean = marker.ReplaceAllString(clean, "")
	}

	for _, pattern := range numberPatterns {
		var raw string
		if pattern == nil {
			matched, ok := matchBareE(clean)
			if !ok {
				continue
			}
			raw = matched
		} else {
			m := pattern.FindStringSubmatch(clean)
			if m == nil {
				continue
			}
			raw = m[1]
		}
		n := atoi(raw)
		if n > 0 && n < 1000 {
			return n
		}
	}
	return 0
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
