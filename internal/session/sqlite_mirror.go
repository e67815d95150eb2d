// SPDX-License-Identifier: MIT

package session

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SqliteMirror is an optional debugging mirror of session state: every
// successful Store.Apply is serialized and upserted here. Nothing in this
// package reads it back — it exists purely so an operator can inspect
// session history after the fact with an ordinary sqlite client.
type SqliteMirror struct {
	db *sql.DB
}

// NewSqliteMirror opens (creating if necessary) a sqlite database at path.
func NewSqliteMirror(path string) (*SqliteMirror, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session mirror db: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	session_id TEXT PRIMARY KEY,
	state_json TEXT NOT NULL,
	updated_at_unix INTEGER NOT NULL
)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create session mirror schema: %w", err)
	}
	return &SqliteMirror{db: db}, nil
}

// Write upserts sessionID's current state as a JSON snapshot.
func (m *SqliteMirror) Write(sessionID string, state State, nowUnix int64) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	_, err = m.db.Exec(
		`INSERT INTO session_snapshots (session_id, state_json, updated_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET state_json = excluded.state_json, updated_at_unix = excluded.updated_at_unix`,
		sessionID, string(b), nowUnix,
	)
	return err
}

// Close releases the underlying database handle.
func (m *SqliteMirror) Close() error {
	return m.db.Close()
}
