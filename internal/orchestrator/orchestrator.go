// SPDX-License-Identifier: MIT

// Package orchestrator exposes the step operations that drive one
// organizing session: connecting storage backends, scanning, classifying,
// and materializing. Each operation validates its preconditions against
// session.State, invokes the relevant component, updates state, and
// returns a human-readable message paired with a session.FrontendDelta.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/castlib/strmorg/internal/classify"
	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/materialize"
	"github.com/castlib/strmorg/internal/metadata"
	"github.com/castlib/strmorg/internal/resolver"
	"github.com/castlib/strmorg/internal/scanner"
	"github.com/castlib/strmorg/internal/session"
	"github.com/castlib/strmorg/internal/storage"
)

// Orchestrator ties the session store to live storage connections and the
// metadata collaborator. One Orchestrator serves many sessions.
type Orchestrator struct {
	Store    *session.Store
	Provider metadata.Provider

	// DebugDumpDir, if set, receives an atomically-written JSON dump of
	// each session's classification table after every Classify call — an
	// operator debugging aid, not a read path for any operation here.
	DebugDumpDir string

	mu      sync.Mutex
	clients map[string]*sessionClients
}

type sessionClients struct {
	source storage.Client
	target storage.Client
}

// New returns an Orchestrator backed by store and provider.
func New(store *session.Store, provider metadata.Provider) *Orchestrator {
	return &Orchestrator{Store: store, Provider: provider, clients: make(map[string]*sessionClients)}
}

func (o *Orchestrator) clientsFor(sessionID string) *sessionClients {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.clients[sessionID]
	if !ok {
		c = &sessionClients{}
		o.clients[sessionID] = c
	}
	return c
}

// preconditionError marks a failed precondition check; the caller's state
// is left untouched.
type preconditionError struct{ msg string }

func (e preconditionError) Error() string { return e.msg }

func fail(msg string, args ...any) error {
	return preconditionError{msg: fmt.Sprintf(msg, args...)}
}

// ConnectSource probes and connects the source storage backend.
func (o *Orchestrator) ConnectSource(ctx context.Context, sessionID, baseURL, username, password string, opts storage.Options) (string, session.FrontendDelta, error) {
	return o.connect(ctx, sessionID, baseURL, username, password, opts, true)
}

// ConnectTarget probes and connects the strm target storage backend.
func (o *Orchestrator) ConnectTarget(ctx context.Context, sessionID, baseURL, username, password string, opts storage.Options) (string, session.FrontendDelta, error) {
	return o.connect(ctx, sessionID, baseURL, username, password, opts, false)
}

func (o *Orchestrator) connect(ctx context.Context, sessionID, baseURL, username, password string, opts storage.Options, isSource bool) (string, session.FrontendDelta, error) {
	result, err := storage.Connect(ctx, baseURL, username, password, opts)
	if err != nil {
		return "", session.FrontendDelta{}, fmt.Errorf("connect: %w", err)
	}

	cfg := session.StorageConfig{BaseURL: baseURL, Username: username, Kind: string(result.Kind), Version: result.Capabilities.Version}

	clients := o.clientsFor(sessionID)
	o.mu.Lock()
	if isSource {
		clients.source = result.Client
	} else {
		clients.target = result.Client
	}
	o.mu.Unlock()

	var delta session.FrontendDelta
	err = o.Store.Apply(sessionID, func(s *session.State) error {
		if isSource {
			s.Source = &cfg
			delta.StorageConfig = &cfg
		} else {
			s.Target = &cfg
			delta.StrmTargetConfig = &cfg
		}
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	log.FromContext(ctx).Info().Str("session_id", sessionID).Str("backend", cfg.Kind).Msg("orchestrator: storage connected")
	return fmt.Sprintf("connected to %s backend", cfg.Kind), delta, nil
}

// SetUserConfig replaces the session's prefs with cfg as a whole. Fields are
// not merged: a field left at its zero value in cfg resets the stored value.
func (o *Orchestrator) SetUserConfig(ctx context.Context, sessionID string, cfg session.UserConfig) (string, session.FrontendDelta, error) {
	var delta session.FrontendDelta
	err := o.Store.Apply(sessionID, func(s *session.State) error {
		s.User = cfg
		delta.UserConfig = &cfg
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}
	return "preferences updated", delta, nil
}

// Scan traverses the connected source store and replaces the session's
// inventory. Requires a connected source.
func (o *Orchestrator) Scan(ctx context.Context, sessionID, root string, opts scanner.Options) (string, session.FrontendDelta, error) {
	clients := o.clientsFor(sessionID)
	o.mu.Lock()
	source := clients.source
	o.mu.Unlock()
	if source == nil {
		return "", session.FrontendDelta{}, fail("scan requires a connected source")
	}

	files, err := scanner.Scan(ctx, source, root, opts)
	if err != nil {
		return "", session.FrontendDelta{}, fmt.Errorf("scan: %w", err)
	}

	var videos, subs int
	for _, f := range files {
		if f.Type == scanner.TypeVideo {
			videos++
		} else {
			subs++
		}
	}
	result := &session.ScanResult{VideoCount: videos, SubtitleCount: subs}

	delta := session.FrontendDelta{ScannedFiles: files, ScanResult: result}
	err = o.Store.Apply(sessionID, func(s *session.State) error {
		s.ScannedFiles = files
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	return fmt.Sprintf("scanned %d videos, %d subtitles", videos, subs), delta, nil
}

// ListFilter selects which scanned files list_files returns.
type ListFilter string

const (
	ListAll          ListFilter = "all"
	ListVideo        ListFilter = "video"
	ListSubtitle     ListFilter = "subtitle"
	ListUnclassified ListFilter = "unclassified"
)

// ListFiles pages a view of the inventory. It never mutates state, so it
// returns no delta.
func (o *Orchestrator) ListFiles(ctx context.Context, sessionID string, filter ListFilter, offset, limit int, pattern string) ([]scanner.ScannedFile, error) {
	var matched []scanner.ScannedFile
	o.Store.View(sessionID, func(s session.State) {
		classifiedPaths := map[string]bool{}
		for _, c := range s.Classified {
			classifiedPaths[c.FilePath] = true
		}
		for _, f := range s.ScannedFiles {
			if !matchesFilter(f, filter, classifiedPaths) {
				continue
			}
			if pattern != "" && !containsFold(f.Name, pattern) {
				continue
			}
			matched = append(matched, f)
		}
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesFilter(f scanner.ScannedFile, filter ListFilter, classifiedPaths map[string]bool) bool {
	switch filter {
	case ListVideo:
		return f.Type == scanner.TypeVideo
	case ListSubtitle:
		return f.Type == scanner.TypeSubtitle
	case ListUnclassified:
		return !classifiedPaths[f.Path]
	default:
		return true
	}
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	sl, subl := toLower(s), toLower(substr)
	for i := 0; i+len(subl) <= len(sl); i++ {
		if sl[i:i+len(subl)] == subl {
			return i
		}
	}
	return -1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// LookupMetadata forwards a free-text search to the metadata collaborator.
func (o *Orchestrator) LookupMetadata(ctx context.Context, query string, kind metadata.Kind) ([]metadata.SearchHit, error) {
	return o.Provider.Search(ctx, query, kind)
}

// GetMetadataDetails forwards a series detail lookup to the collaborator.
func (o *Orchestrator) GetMetadataDetails(ctx context.Context, seriesID string) (metadata.SeriesMeta, error) {
	return o.Provider.LookupSeries(ctx, seriesID)
}

// Classify runs the classifier against the session's inventory using rules.
// Requires a non-empty inventory.
func (o *Orchestrator) Classify(ctx context.Context, sessionID string, rules []classify.Rule) (string, session.FrontendDelta, error) {
	var files []scanner.ScannedFile
	o.Store.View(sessionID, func(s session.State) { files = s.ScannedFiles })
	if len(files) == 0 {
		return "", session.FrontendDelta{}, fail("classify requires a non-empty inventory")
	}

	seriesIDs := map[string]bool{}
	for _, r := range rules {
		if r.SeriesID != "" && !r.Movie {
			seriesIDs[r.SeriesID] = true
		}
	}
	seriesMaps := make(map[string]*resolver.SeriesMapping, len(seriesIDs))
	for id := range seriesIDs {
		m, err := resolver.Resolve(ctx, o.Provider, id)
		if err != nil {
			return "", session.FrontendDelta{}, fmt.Errorf("classify: resolve series %q: %w", id, err)
		}
		seriesMaps[id] = m
	}

	var classifyFiles []classify.File
	for _, f := range files {
		if f.Type != scanner.TypeVideo {
			continue
		}
		classifyFiles = append(classifyFiles, classify.File{Path: f.Path, Name: f.Name})
	}

	results := classify.Classify(classifyFiles, rules, seriesMaps)

	var summary session.ClassificationResult
	for _, r := range results {
		switch r.Status {
		case classify.StatusMatched:
			summary.Matched++
		case classify.StatusUnmatched:
			summary.Unmatched++
		case classify.StatusError:
			summary.Errored++
		}
	}

	delta := session.FrontendDelta{Classifications: results, ClassificationResult: &summary}
	err := o.Store.Apply(sessionID, func(s *session.State) error {
		s.Classified = results
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	if err := materialize.DumpClassification(o.DebugDumpDir, sessionID, results); err != nil {
		log.FromContext(ctx).Warn().Err(err).Msg("orchestrator: classification debug dump failed")
	}

	return fmt.Sprintf("classified %d matched, %d unmatched, %d errored", summary.Matched, summary.Unmatched, summary.Errored), delta, nil
}

// Organize runs organize-mode materialization against the session's
// classified matches.
func (o *Orchestrator) Organize(ctx context.Context, sessionID string, outputRoot, language string, items []materialize.VideoItem) (string, session.FrontendDelta, error) {
	clients := o.clientsFor(sessionID)
	o.mu.Lock()
	source := clients.source
	o.mu.Unlock()
	if source == nil {
		return "", session.FrontendDelta{}, fail("organize requires a connected source")
	}

	result := materialize.Organize(ctx, source, outputRoot, language, items)

	delta := session.FrontendDelta{ClearClassifications: true}
	err := o.Store.Apply(sessionID, func(s *session.State) error {
		s.Classified = nil
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	return fmt.Sprintf("organized %d, %d failed", result.Moved, result.Failed), delta, nil
}

// GenerateStrm runs strm-mode materialization. Requires both a connected
// source (for direct_url generation) and a connected target.
func (o *Orchestrator) GenerateStrm(ctx context.Context, sessionID, outputRoot, language string, uploadDelay time.Duration, items []materialize.VideoItem) (string, session.FrontendDelta, error) {
	clients := o.clientsFor(sessionID)
	o.mu.Lock()
	source, target := clients.source, clients.target
	o.mu.Unlock()
	if source == nil {
		return "", session.FrontendDelta{}, fail("generate_strm requires a connected source")
	}
	if target == nil {
		return "", session.FrontendDelta{}, fail("generate_strm requires a connected target")
	}

	result, err := materialize.GenerateStrm(ctx, source, target, outputRoot, language, uploadDelay, items)
	if err != nil {
		return "", session.FrontendDelta{}, fmt.Errorf("generate_strm: %w", err)
	}

	delta := session.FrontendDelta{ClearClassifications: true}
	if len(result.FailedUploads) > 0 {
		delta.FailedUploads = result.FailedUploads
	}
	err = o.Store.Apply(sessionID, func(s *session.State) error {
		s.Classified = nil
		s.FailedUploads = append(s.FailedUploads, result.FailedUploads...)
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	return fmt.Sprintf("wrote %d strm files (%d failed), transferred %d subtitles", result.StrmWritten, result.StrmFailed, result.SubtitlesMoved), delta, nil
}

// RetryFailed serially replays the session's failed_uploads.
func (o *Orchestrator) RetryFailed(ctx context.Context, sessionID string) (string, session.FrontendDelta, error) {
	clients := o.clientsFor(sessionID)
	o.mu.Lock()
	source, target := clients.source, clients.target
	o.mu.Unlock()
	if source == nil || target == nil {
		return "", session.FrontendDelta{}, fail("retry_failed requires connected source and target")
	}

	var pending []session.FailedUpload
	o.Store.View(sessionID, func(s session.State) { pending = append(pending, s.FailedUploads...) })

	stillFailing, succeeded := materialize.RetryFailed(ctx, source, target, pending)

	delta := session.FrontendDelta{FailedUploads: stillFailing}
	err := o.Store.Apply(sessionID, func(s *session.State) error {
		s.FailedUploads = stillFailing
		return nil
	})
	if err != nil {
		return "", session.FrontendDelta{}, err
	}

	return fmt.Sprintf("retried: %d succeeded, %d still failing", succeeded, len(stillFailing)), delta, nil
}
