// SPDX-License-Identifier: MIT

// Package scanner recursively traverses a storage backend and produces a
// flat inventory of video and subtitle files, classifying each subtitle's
// language along the way.
package scanner

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/storage"
)

// FileType is the coarse media kind assigned during scanning.
type FileType string

const (
	TypeVideo    FileType = "video"
	TypeSubtitle FileType = "subtitle"
)

// ScannedFile is one inventory entry. Immutable once produced.
type ScannedFile struct {
	Path      string
	Name      string
	Size      int64
	Type      FileType
	Directory string
	Language  string // only meaningful for Type == TypeSubtitle
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".webm": true, ".m4v": true, ".ts": true, ".rmvb": true, ".rm": true, ".3gp": true,
	".m2ts": true, ".vob": true, ".mpg": true, ".mpeg": true, ".iso": true,
}

var subtitleExtensions = map[string]bool{
	".srt": true, ".ass": true, ".ssa": true, ".sub": true, ".idx": true, ".vtt": true,
	".smi": true, ".sup": true, ".pgs": true, ".mks": true,
}

// excludeNames are entry names skipped outright during traversal, matched
// case-sensitively against the bare file/directory name.
var excludeNames = map[string]bool{
	"@eaDir": true, "#recycle": true, ".@__thumb": true, "lost+found": true,
	"System Volume Information": true, "$RECYCLE.BIN": true, "Thumbs.db": true, ".DS_Store": true,
}

func extOf(name string) string {
	return strings.ToLower(path.Ext(name))
}

func isExcluded(name string) bool {
	if excludeNames[name] {
		return true
	}
	return strings.HasPrefix(name, ".")
}

// Options configures one Scan call.
type Options struct {
	Recursive  bool
	MaxDepth   int // 0 = unlimited
	MaxFiles   int // 0 = unlimited
	ScanDelay  time.Duration
}

// Scan performs a depth-first traversal of client starting at root,
// returning every recognized video/subtitle file found. Directories are
// descended into only when Recursive is set. A directory that fails to
// list is logged and skipped; traversal continues. scan_delay_s is slept
// between successive directory listings (the first listing is not
// delayed).
func Scan(ctx context.Context, client storage.Client, root string, opts Options) ([]ScannedFile, error) {
	var results []ScannedFile
	listed := 0

	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if listed > 0 && opts.ScanDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.ScanDelay):
			}
		}
		listed++

		entries, err := client.List(ctx, dir)
		if err != nil {
			log.FromContext(ctx).Warn().Err(err).Str("dir", dir).Msg("scan: directory listing failed, skipping")
			return nil
		}

		for _, e := range entries {
			if opts.MaxFiles > 0 && len(results) >= opts.MaxFiles {
				return nil
			}
			if isExcluded(e.Name) {
				continue
			}

			if e.IsDir {
				if opts.Recursive && (opts.MaxDepth == 0 || depth < opts.MaxDepth) {
					if err := walk(e.Path, depth+1); err != nil {
						return err
					}
				}
				continue
			}

			sf, ok := classifyEntry(e, dir)
			if !ok {
				continue
			}
			results = append(results, sf)
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, err
	}
	return results, nil
}

func classifyEntry(e storage.FileInfo, dir string) (ScannedFile, bool) {
	ext := extOf(e.Name)
	switch {
	case videoExtensions[ext]:
		return ScannedFile{Path: e.Path, Name: e.Name, Size: e.Size, Type: TypeVideo, Directory: dir}, true
	case subtitleExtensions[ext]:
		return ScannedFile{
			Path: e.Path, Name: e.Name, Size: e.Size, Type: TypeSubtitle, Directory: dir,
			Language: extractLanguage(e.Name, ext),
		}, true
	default:
		return ScannedFile{}, false
	}
}
