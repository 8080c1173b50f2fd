// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package rescache implements the LRU resource cache (component G.6): a
// disk-backed least-recently-used store for cached logos/artwork and
// persist-and-tee'd stream resources, generalizing the in-memory shape
// of internal/cache/cache.go with a recency queue and on-disk values.
package rescache

import (
	"container/list"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ManuGH/xg2g/internal/cache"
)

// entry is the recency-queue payload for one cached resource.
type entry struct {
	key  string
	path string
	mime string
	size int64
}

// Cache is a disk-backed LRU store keyed by base64-encoded resource keys.
// Files are named key[.base64(mime)] inside Dir so Scan can recover the
// content type of a pre-existing file.
type Cache struct {
	dir      string
	capacity int64

	mu       sync.Mutex
	order    *list.List // front = most recently used
	index    map[string]*list.Element
	usedSize int64
	stats    cache.CacheStats
}

// New builds a Cache rooted at dir with the given byte capacity. Callers
// should follow with Scan to rebuild the index from any pre-existing
// files at startup.
func New(dir string, capacityBytes int64) *Cache {
	return &Cache{
		dir:      dir,
		capacity: capacityBytes,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

func encodeMimeSuffix(mime string) string {
	if mime == "" {
		return ""
	}
	return "." + base64.RawURLEncoding.EncodeToString([]byte(mime))
}

func decodeMimeSuffix(suffix string) (string, bool) {
	if suffix == "" {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(suffix, "."))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Add records a newly-written file under key, evicting least-recently-used
// entries until the total cached size is within capacity. It returns the
// path the file was given (key plus an optional base64(mime) suffix).
func (c *Cache) Add(key, mime string, size int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	filename := key + encodeMimeSuffix(mime)
	path := filepath.Join(c.dir, filename)

	if el, ok := c.index[key]; ok {
		old := el.Value.(*entry)
		c.usedSize -= old.size
		c.order.Remove(el)
		delete(c.index, key)
	}

	el := c.order.PushFront(&entry{key: key, path: path, mime: mime, size: size})
	c.index[key] = el
	c.usedSize += size
	c.stats.Sets++

	c.evictLocked()
	return path, nil
}

func (c *Cache) evictLocked() {
	for c.usedSize > c.capacity && c.order.Len() > 0 {
		back := c.order.Back()
		if back == nil {
			return
		}
		ev := back.Value.(*entry)
		c.order.Remove(back)
		delete(c.index, ev.key)
		c.usedSize -= ev.size
		c.stats.Evictions++
		_ = os.Remove(ev.path)
	}
}

// Get touches key's recency and returns its path and mime type. An
// entry whose backing file has gone missing is silently evicted and
// reported as a miss.
func (c *Cache) Get(key string) (path, mime string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.index[key]
	if !found {
		c.stats.Misses++
		return "", "", false
	}
	e := el.Value.(*entry)

	if _, err := os.Stat(e.path); err != nil {
		c.order.Remove(el)
		delete(c.index, key)
		c.usedSize -= e.size
		c.stats.Misses++
		return "", "", false
	}

	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.path, e.mime, true
}

// Scan rebuilds the index from dir's current contents at startup.
// Recency order is not restored; scanned entries start at the back.
func (c *Cache) Scan() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("rescache: scan %s: %w", c.dir, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		key := name
		mime := ""
		if idx := strings.IndexByte(name, '.'); idx >= 0 {
			if m, ok := decodeMimeSuffix(name[idx:]); ok {
				key = name[:idx]
				mime = m
			}
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		el := c.order.PushBack(&entry{key: key, path: filepath.Join(c.dir, name), mime: mime, size: info.Size()})
		c.index[key] = el
		c.usedSize += info.Size()
	}
	return nil
}

// Stats returns the cache's hit/miss/set/eviction counters and current size.
func (c *Cache) Stats() cache.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.CurrentSize = c.order.Len()
	return stats
}
