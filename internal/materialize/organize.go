// SPDX-License-Identifier: MIT

// Package materialize turns classified files into an organized library tree,
// either by renaming/moving files in place (organize mode) or by writing a
// parallel .strm redirector tree to a target store (strm mode).
package materialize

import (
	"context"
	"fmt"
	"path"

	"github.com/rs/zerolog"

	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/naming"
	"github.com/castlib/strmorg/internal/storage"
)

// VideoItem is one video to place, already joined with its classification
// and the subtitle files that share its base name.
type VideoItem struct {
	SourcePath string
	Title      string
	Year       *int
	Kind       naming.Kind
	Subcategory naming.Subcategory
	Season     int
	Episode    int
	Ext        string
	Subtitles  []SubtitleItem
}

// SubtitleItem is one subtitle sharing a video's base name.
type SubtitleItem struct {
	SourcePath string
	Language   string
	Ext        string
}

// OrganizeResult summarizes one organize-mode run. Logged per move with
// before/after paths so an external collaborator could reconstruct a
// rename history from logs alone.
type OrganizeResult struct {
	Moved  int
	Failed int
	Errors []string
}

// Organize rewrites the source tree in place: for each video, the file is
// moved to its synthesized target path; for its subtitles, the chosen
// default is copied to an untagged name first (preserving the original for
// the subsequent tagged move), then every subtitle including the default is
// moved to its tagged name. Work proceeds serially — the rate gate, not
// parallelism, bounds this workload.
func Organize(ctx context.Context, client storage.Client, outputRoot, language string, items []VideoItem) OrganizeResult {
	var result OrganizeResult
	logger := log.FromContext(ctx)

	for _, item := range items {
		seriesDir := seriesOrMovieDir(outputRoot, item, language)
		if err := client.Mkdir(ctx, seriesDir); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: mkdir %s: %v", item.SourcePath, seriesDir, err))
			continue
		}

		videoName := videoFilename(item)
		target := path.Join(seriesDir, videoName)
		if err := client.Move(ctx, item.SourcePath, target); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: move: %v", item.SourcePath, err))
			continue
		}
		result.Moved++
		logger.Info().Str("from", item.SourcePath).Str("to", target).Msg("organize: moved video")

		stem := naming.Stem(videoName, item.Ext)
		organizeSubtitles(ctx, client, item, seriesDir, stem, &result, logger)
	}

	return result
}

func organizeSubtitles(ctx context.Context, client storage.Client, item VideoItem, seriesDir, stem string, result *OrganizeResult, logger *zerolog.Logger) {
	if len(item.Subtitles) == 0 {
		return
	}

	langs := make([]string, len(item.Subtitles))
	for i, s := range item.Subtitles {
		langs[i] = s.Language
	}
	defaultIdx := naming.SelectDefaultSubtitle(langs)

	for i, sub := range item.Subtitles {
		if i == defaultIdx {
			defaultName := naming.SubtitleFilename(stem, "", sub.Ext)
			defaultTarget := path.Join(seriesDir, defaultName)
			if err := client.Copy(ctx, sub.SourcePath, defaultTarget); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: copy default subtitle: %v", sub.SourcePath, err))
				continue
			}
		}

		taggedName := naming.SubtitleFilename(stem, sub.Language, sub.Ext)
		taggedTarget := path.Join(seriesDir, taggedName)
		if err := client.Move(ctx, sub.SourcePath, taggedTarget); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: move tagged subtitle: %v", sub.SourcePath, err))
			continue
		}
		result.Moved++
		logger.Info().Str("from", sub.SourcePath).Str("to", taggedTarget).Msg("organize: moved subtitle")
	}
}

func seriesOrMovieDir(outputRoot string, item VideoItem, language string) string {
	root := naming.RootFolder(outputRoot, item.Kind, item.Subcategory, language)
	if item.Kind == naming.KindMovie {
		return path.Join(root, naming.MovieFolder(item.Title, item.Year))
	}
	seriesDir := path.Join(root, naming.SeriesFolder(item.Title, item.Year))
	return path.Join(seriesDir, naming.SeasonFolder(item.Season))
}

func videoFilename(item VideoItem) string {
	if item.Kind == naming.KindMovie {
		return naming.MovieFilename(item.Title, item.Year, item.Ext)
	}
	return naming.EpisodeFilename(item.Title, item.Season, item.Episode, item.Ext)
}
