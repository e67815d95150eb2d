// SPDX-License-Identifier: MIT

package materialize

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/naming"
	"github.com/castlib/strmorg/internal/session"
	"github.com/castlib/strmorg/internal/storage"
)

const (
	uploadConcurrency  = 16
	refreshConcurrency = 4
)

// subtitleTask is one subtitle transfer: read from source, write to target.
type subtitleTask struct {
	sourcePath string
	targetPath string
	isDefault  bool
}

// StrmResult summarizes one generate_strm run.
type StrmResult struct {
	StrmWritten      int
	StrmFailed       int
	SubtitlesMoved   int
	FailedUploads    []session.FailedUpload
}

// GenerateStrm writes a parallel .strm redirector tree to target: one
// .strm file per video (containing the source store's direct URL) plus a
// copy of every subtitle. STRM batch upload and subtitle transfer run as
// two independent streams; the STRM batch is issued before subtitle tasks
// but ordering within each is unspecified. If uploadDelay > 0 both streams
// degrade to a serial loop and concurrency settings are ignored.
func GenerateStrm(ctx context.Context, source, target storage.Client, outputRoot, language string, uploadDelay time.Duration, items []VideoItem) (StrmResult, error) {
	var result StrmResult
	logger := log.FromContext(ctx)

	strmFiles := make([]storage.UploadFile, 0, len(items))
	var subtitleTasks []subtitleTask
	touchedDirs := map[string]bool{}

	for _, item := range items {
		seriesDir := seriesOrMovieDir(outputRoot, item, language)
		touchedDirs[seriesDir] = true

		url, err := source.DirectURL(ctx, item.SourcePath)
		if err != nil {
			result.StrmFailed++
			logger.Warn().Err(err).Str("path", item.SourcePath).Msg("generate_strm: direct_url failed")
			continue
		}
		stem := naming.Stem(videoFilename(item), item.Ext)
		strmFiles = append(strmFiles, storage.UploadFile{
			Path:    path.Join(seriesDir, stem+".strm"),
			Content: []byte(url),
		})

		langs := make([]string, len(item.Subtitles))
		for i, s := range item.Subtitles {
			langs[i] = s.Language
		}
		defaultIdx := naming.SelectDefaultSubtitle(langs)
		for i, sub := range item.Subtitles {
			isDefault := i == defaultIdx
			name := naming.SubtitleFilename(stem, sub.Language, sub.Ext)
			if isDefault {
				subtitleTasks = append(subtitleTasks, subtitleTask{
					sourcePath: sub.SourcePath,
					targetPath: path.Join(seriesDir, naming.SubtitleFilename(stem, "", sub.Ext)),
					isDefault:  true,
				})
			}
			subtitleTasks = append(subtitleTasks, subtitleTask{
				sourcePath: sub.SourcePath,
				targetPath: path.Join(seriesDir, name),
			})
		}
	}

	if uploadDelay > 0 {
		runStrmSerial(ctx, target, strmFiles, &result)
	} else {
		batchResult, err := target.UploadBatch(ctx, strmFiles, uploadConcurrency)
		if err != nil {
			return result, fmt.Errorf("materialize: strm upload batch: %w", err)
		}
		result.StrmWritten += batchResult.Success
		result.StrmFailed += batchResult.Failed
	}

	if uploadDelay > 0 {
		runSubtitlesSerial(ctx, source, target, subtitleTasks, uploadDelay, &result)
	} else {
		runSubtitlesConcurrent(ctx, source, target, subtitleTasks, &result)
	}

	refreshDirs(ctx, target, touchedDirs)

	return result, nil
}

func runStrmSerial(ctx context.Context, target storage.Client, files []storage.UploadFile, result *StrmResult) {
	for _, f := range files {
		if err := target.PutContent(ctx, f.Path, f.Content); err != nil {
			result.StrmFailed++
			continue
		}
		result.StrmWritten++
	}
}

func runSubtitlesConcurrent(ctx context.Context, source, target storage.Client, tasks []subtitleTask, result *StrmResult) {
	sem := semaphore.NewWeighted(uploadConcurrency)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			transferSubtitle(gctx, source, target, t, result, &mu)
			return nil
		})
	}
	_ = g.Wait()
}

func runSubtitlesSerial(ctx context.Context, source, target storage.Client, tasks []subtitleTask, delay time.Duration, result *StrmResult) {
	var mu sync.Mutex
	for _, t := range tasks {
		transferSubtitle(ctx, source, target, t, result, &mu)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// transferSubtitle reads then writes one subtitle as a single unit so that
// downloads are never all materialized in memory before any upload starts.
func transferSubtitle(ctx context.Context, source, target storage.Client, t subtitleTask, result *StrmResult, mu *sync.Mutex) {
	content, err := source.GetContent(ctx, t.sourcePath)
	if err != nil {
		recordFailure(result, mu, t, err)
		return
	}
	if err := target.PutContent(ctx, t.targetPath, content); err != nil {
		recordFailure(result, mu, t, err)
		return
	}
	mu.Lock()
	result.SubtitlesMoved++
	mu.Unlock()
}

func recordFailure(result *StrmResult, mu *sync.Mutex, t subtitleTask, err error) {
	mu.Lock()
	defer mu.Unlock()
	result.FailedUploads = append(result.FailedUploads, session.FailedUpload{
		SourcePath: t.sourcePath,
		TargetPath: t.targetPath,
		Kind:       "subtitle",
		Error:      err.Error(),
	})
}

func refreshDirs(ctx context.Context, target storage.Client, dirs map[string]bool) {
	sem := semaphore.NewWeighted(refreshConcurrency)
	g, gctx := errgroup.WithContext(ctx)
	for d := range dirs {
		d := d
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			_ = target.RefreshDir(gctx, d)
			return nil
		})
	}
	_ = g.Wait()
}
