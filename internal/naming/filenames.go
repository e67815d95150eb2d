// SPDX-License-Identifier: MIT

package naming

import (
	"fmt"
	"strings"
)

// EpisodeFilename formats a TV episode: "{title}.S{season:02d}.E{ep:02d}{ext}".
func EpisodeFilename(title string, season, episode int, ext string) string {
	return fmt.Sprintf("%s.S%02d.E%02d%s", Sanitize(title), season, episode, ext)
}

// MovieFilename formats a movie: "{title}.{year}{ext}", or without the year
// segment when year is nil. Spaces in the title are collapsed to dots.
func MovieFilename(title string, year *int, ext string) string {
	clean := strings.ReplaceAll(Sanitize(title), " ", ".")
	if year == nil {
		return clean + ext
	}
	return fmt.Sprintf("%s.%d%s", clean, *year, ext)
}

// SeriesFolder formats "{title} ({year})", or just the sanitized title when
// year is nil. Used for both TV series folders and movie folders.
func SeriesFolder(title string, year *int) string {
	clean := Sanitize(title)
	if year == nil {
		return clean
	}
	return fmt.Sprintf("%s (%d)", clean, *year)
}

// MovieFolder is an alias for SeriesFolder: movies use the same "{title}
// ({year})" folder convention as series.
func MovieFolder(title string, year *int) string {
	return SeriesFolder(title, year)
}

// SeasonFolder formats "Season {season:02d}".
func SeasonFolder(season int) string {
	return fmt.Sprintf("Season %02d", season)
}

// SubtitleFilename formats a subtitle name matching its video's stem. When
// lang is empty the subtitle is the video's default (no language segment);
// otherwise a ".{lang}" segment is inserted before the extension.
func SubtitleFilename(videoStem, lang, ext string) string {
	if lang == "" {
		return videoStem + ext
	}
	return fmt.Sprintf("%s.%s%s", videoStem, lang, ext)
}

// Stem strips the extension from a formatted episode/movie filename so a
// matching subtitle filename can be derived from it.
func Stem(filename, ext string) string {
	return strings.TrimSuffix(filename, ext)
}
