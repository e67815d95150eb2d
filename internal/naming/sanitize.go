// SPDX-License-Identifier: MIT

// Package naming implements the pure filename/folder synthesis rules shared
// by organize mode and strm mode: sanitation, episode/movie filenames,
// series/season folders, subtitle filenames, and subcategory folder
// resolution.
package naming

import "regexp"

var (
	illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	leadingBangs = regexp.MustCompile(`^!+`)
	trailingBangs = regexp.MustCompile(`!+$`)
	dotRuns      = regexp.MustCompile(`\.{2,}`)
)

// Sanitize strips characters that are illegal or troublesome in file and
// directory names: Windows-illegal characters become `.`, `~` becomes `-`,
// apostrophes are removed, leading/trailing `!` runs are stripped (interior
// ones are kept), runs of `.` collapse to one, and leading/trailing `.` and
// space are trimmed.
func Sanitize(name string) string {
	cleaned := illegalChars.ReplaceAllString(name, ".")

	out := make([]rune, 0, len(cleaned))
	for _, r := range cleaned {
		switch r {
		case '~':
			out = append(out, '-')
		case '\'':
			// dropped
		default:
			out = append(out, r)
		}
	}
	cleaned = string(out)

	cleaned = trailingBangs.ReplaceAllString(cleaned, "")
	cleaned = leadingBangs.ReplaceAllString(cleaned, "")
	cleaned = dotRuns.ReplaceAllString(cleaned, ".")

	return trimDotsAndSpaces(cleaned)
}

func trimDotsAndSpaces(s string) string {
	start := 0
	for start < len(s) && (s[start] == '.' || s[start] == ' ') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == '.' || s[end-1] == ' ') {
		end--
	}
	return s[start:end]
}
