// SPDX-License-Identifier: MIT

package classify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/castlib/strmorg/internal/resolver"
)

// Status is the outcome of classifying one file.
type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
	StatusError     Status = "error"
)

// File is one scanned input to Classify.
type File struct {
	Path string
	Name string
}

// Result is the classification outcome for one file.
type Result struct {
	FilePath        string
	FileName        string
	ExtractedNumber int
	Status          Status
	ErrorMessage    string
	SeriesID        string
	Season          int
	Episode         int
	OutputName      string
}

// Classify is a pure function: given files, rules, and the resolved series
// mappings keyed by series_id, it returns one Result per file in input
// order. It performs no I/O and makes no heuristic judgment beyond what the
// rules and mappings explicitly encode.
func Classify(files []File, rules []Rule, seriesMaps map[string]*resolver.SeriesMapping) []Result {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		results = append(results, classifyOne(f, rules, seriesMaps))
	}
	return results
}

func classifyOne(f File, rules []Rule, seriesMaps map[string]*resolver.SeriesMapping) Result {
	result := Result{FilePath: f.Path, FileName: f.Name}

	rule, ok := firstMatch(rules, f.Path, f.Name)
	if !ok {
		result.Status = StatusUnmatched
		result.ErrorMessage = "no rule"
		return result
	}
	result.SeriesID = rule.SeriesID

	if rule.Movie {
		result.Status = StatusMatched
		result.Season = 0
		result.Episode = 0
		return result
	}

	number := ExtractEpisodeNumber(f.Name)
	result.ExtractedNumber = number
	if number == 0 {
		result.Status = StatusError
		result.ErrorMessage = "no number"
		return result
	}

	mapping, ok := seriesMaps[rule.SeriesID]
	if !ok {
		result.Status = StatusUnmatched
		result.ErrorMessage = fmt.Sprintf("no mapping for series %q", rule.SeriesID)
		return result
	}

	var info resolver.EpisodeInfo
	switch {
	case rule.Context == "cumulative":
		info, ok = mapping.LookupCumulative(number)
	case strings.HasPrefix(rule.Context, "season_"):
		season, err := strconv.Atoi(strings.TrimPrefix(rule.Context, "season_"))
		if err != nil {
			result.Status = StatusError
			result.ErrorMessage = fmt.Sprintf("invalid context %q", rule.Context)
			return result
		}
		info, ok = mapping.Lookup(season, number)
	default:
		result.Status = StatusError
		result.ErrorMessage = fmt.Sprintf("invalid context %q", rule.Context)
		return result
	}

	if !ok {
		result.Status = StatusUnmatched
		result.ErrorMessage = "not in mapping"
		return result
	}

	result.Status = StatusMatched
	result.Season = info.Season
	result.Episode = info.CanonicalEpisode
	result.OutputName = fmt.Sprintf("S%02dE%02d", info.Season, info.CanonicalEpisode)
	return result
}
