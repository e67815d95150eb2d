// SPDX-License-Identifier: MIT

package classify

import "strings"

// Rule binds a path/filename pattern to a series and a numbering context.
// A zero Context with Movie set classifies the match as season=0, episode=0
// with no number extraction.
type Rule struct {
	PathPattern string
	FilePattern string
	SeriesID    string
	Context     string // "cumulative" or "season_N"
	Movie       bool
}

// matches reports whether r applies to a file at path with base name name,
// by case-insensitive substring containment.
func (r Rule) matches(path, name string) bool {
	if r.PathPattern != "" {
		return strings.Contains(strings.ToLower(path), strings.ToLower(r.PathPattern))
	}
	if r.FilePattern != "" {
		return strings.Contains(strings.ToLower(name), strings.ToLower(r.FilePattern))
	}
	return false
}

// firstMatch returns the first rule (in order) that matches path/name.
func firstMatch(rules []Rule, path, name string) (Rule, bool) {
	for _, r := range rules {
		if r.matches(path, name) {
			return r, true
		}
	}
	return Rule{}, false
}
