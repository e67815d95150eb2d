// SPDX-License-Identifier: MIT

// Package session holds per-session state for the organizer: connection
// config, scanned inventory, classifications, and failed uploads. Session
// store itself is a simple registry; operations that mutate a SessionState
// do so under its own lock so that distinct sessions proceed independently.
package session

import (
	"sync"
	"time"

	"github.com/castlib/strmorg/internal/classify"
	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/scanner"
)

// StorageConfig is what connect_source/connect_target record about a
// backend connection.
type StorageConfig struct {
	BaseURL    string
	Username   string
	Kind       string
	Version    string
	TargetPath string
}

// UserConfig holds the tunables set_user_config stores; each call replaces
// the whole value.
type UserConfig struct {
	ScanDelaySeconds   float64
	UploadDelaySeconds float64
	NamingLanguage     string
	UseCopy            bool
}

// FailedUpload is one still-outstanding materialization failure.
type FailedUpload struct {
	SourcePath string
	TargetPath string
	Kind       string // "subtitle" currently; strm failures are counted, not recorded individually
	Error      string
}

// State is the authoritative per-session record. Not safe for concurrent
// use without the owning Store's lock held.
type State struct {
	Source        *StorageConfig
	Target        *StorageConfig
	User          UserConfig
	ScannedFiles  []scanner.ScannedFile
	Classified    []classify.Result
	FailedUploads []FailedUpload
}

// FrontendDelta is the whitelisted projection merged back into a caller's
// own state representation. Large fields (full inventory, full
// classification) are only ever returned via delta, never echoed into a
// transcript message.
type FrontendDelta struct {
	StorageConfig     *StorageConfig `json:"storage_config,omitempty"`
	StrmTargetConfig  *StorageConfig `json:"strm_target_config,omitempty"`
	UserConfig        *UserConfig    `json:"user_config,omitempty"`
	ScannedFiles      []scanner.ScannedFile `json:"scanned_files,omitempty"`
	ScanResult        *ScanResult    `json:"scan_result,omitempty"`
	Classifications   []classify.Result `json:"classifications,omitempty"`
	ClassificationResult *ClassificationResult `json:"classification_result,omitempty"`
	FailedUploads     []FailedUpload `json:"failed_uploads,omitempty"`
	ClearClassifications bool        `json:"-"`
}

// ScanResult summarizes a scan operation for the message/delta pair.
type ScanResult struct {
	VideoCount    int
	SubtitleCount int
	DirsScanned   int
}

// ClassificationResult summarizes a classify operation.
type ClassificationResult struct {
	Matched   int
	Unmatched int
	Errored   int
}

// Store is the process-wide session_id -> State registry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry

	// Mirror, if set, receives a snapshot of every session after a
	// successful Apply — a debugging aid only, never consulted for reads.
	Mirror *SqliteMirror
}

type entry struct {
	mu    sync.Mutex
	state State
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// Apply runs fn with exclusive access to the named session's state,
// creating the session on first use. fn's error is returned unchanged and
// any mutation it made is retained regardless (orchestrator operations
// decide for themselves what to roll back on failure).
func (s *Store) Apply(sessionID string, fn func(*State) error) error {
	e := s.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(&e.state)
	if err == nil && s.Mirror != nil {
		if mirrorErr := s.Mirror.Write(sessionID, e.state, time.Now().Unix()); mirrorErr != nil {
			log.WithComponent("session").Warn().Err(mirrorErr).Str("session_id", sessionID).Msg("session mirror write failed")
		}
	}
	return err
}

// View runs fn with read access; fn must not retain slices/maps beyond the
// call since State's slices may be reassigned concurrently afterward.
func (s *Store) View(sessionID string, fn func(State)) {
	e := s.entryFor(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.state)
}

func (s *Store) entryFor(sessionID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &entry{}
		s.sessions[sessionID] = e
	}
	return e
}
