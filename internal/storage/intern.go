// SPDX-License-Identifier: MIT

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// clientCache interns Client instances by a hash of (url, username,
// password) so that sessions sharing credentials reuse the same instance —
// and, critically, the same login token.
type clientCache struct {
	mu      sync.Mutex
	entries map[string]Client
}

var globalClientCache = &clientCache{entries: make(map[string]Client)}

func internKey(url, username, password string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write([]byte(username))
	h.Write([]byte{0})
	h.Write([]byte(password))
	return hex.EncodeToString(h.Sum(nil))
}

// getOrCreate returns the cached Client for this credential set, building a
// new one with build if absent.
func (c *clientCache) getOrCreate(url, username, password string, build func() Client) Client {
	key := internKey(url, username, password)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[key]; ok {
		return existing
	}
	client := build()
	c.entries[key] = client
	return client
}

// Clear empties the process-wide client cache. Exposed for tests.
func Clear() {
	globalClientCache.mu.Lock()
	defer globalClientCache.mu.Unlock()
	globalClientCache.entries = make(map[string]Client)
}
