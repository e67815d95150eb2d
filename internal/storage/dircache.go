// SPDX-License-Identifier: MIT

package storage

import (
	"path"
	"time"

	"github.com/castlib/strmorg/internal/cache"
)

// dirCache wraps the shared LRU cache with a "list:<path>" keying
// convention and a write-through invalidation rule: any
// move/copy/delete/mkdir/put whose target has a known parent path evicts
// that parent's listing, and refresh_dir evicts the listing of the
// refreshed directory itself.
type dirCache struct {
	lru *cache.LRUCache
	ttl time.Duration
}

func newDirCache(capacity int, ttl time.Duration) *dirCache {
	return &dirCache{lru: cache.NewLRUCache(capacity), ttl: ttl}
}

func listKey(p string) string {
	return "list:" + p
}

func (d *dirCache) get(p string) ([]FileInfo, bool) {
	v, ok := d.lru.Get(listKey(p))
	if !ok {
		return nil, false
	}
	entries, ok := v.([]FileInfo)
	return entries, ok
}

func (d *dirCache) set(p string, entries []FileInfo) {
	d.lru.Set(listKey(p), entries, d.ttl)
}

// invalidateParent evicts the cached listing of p's parent directory, called
// after any mutating operation targeting p.
func (d *dirCache) invalidateParent(p string) {
	d.lru.Delete(listKey(path.Dir(p)))
}

func (d *dirCache) invalidate(p string) {
	d.lru.Delete(listKey(p))
}
