// SPDX-License-Identifier: MIT

package materialize

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/castlib/strmorg/internal/classify"
	"github.com/castlib/strmorg/internal/log"
)

// DumpClassification atomically writes the classification table for one
// session to dir/<sessionID>.json, for an operator to inspect after a run.
// This is a debugging mirror only — nothing reads it back at runtime.
func DumpClassification(dir, sessionID string, results []classify.Result) error {
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, sessionID+".json")

	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending classification dump: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			log.WithComponent("materialize").Debug().Err(err).Msg("cleanup pending classification dump")
		}
	}()

	enc := json.NewEncoder(pendingFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode classification dump: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace classification dump: %w", err)
	}
	return nil
}
