// Package assets locates MESH source files and caches decoded records.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/meshexport/pkg/mesh"
	"github.com/Faultbox/meshexport/pkg/meshfile"
)

// Manager resolves mesh files from inputs and loads them through a cache.
// Cached records are shared between callers and must be treated as read-only.
type Manager struct {
	cache *Cache
}

// NewManager creates a new asset manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// Resolve expands files and directories into a sorted, de-duplicated list
// of MESH file paths. Directories are scanned non-recursively.
func (m *Manager) Resolve(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", in, err)
		}
		for _, e := range entries {
			if !e.IsDir() && IsMeshFile(e.Name()) {
				add(filepath.Join(in, e.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Load returns the decoded record for path, reading it on a cache miss.
func (m *Manager) Load(path string) (*mesh.Record, error) {
	if rec, ok := m.cache.Get(path); ok {
		return rec, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rec, err := meshfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m.cache.Set(path, rec)
	return rec, nil
}

// Invalidate drops the cached record for path so the next Load rereads it.
func (m *Manager) Invalidate(path string) {
	m.cache.Delete(path)
}

// Cache returns the manager's record cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// IsMeshFile reports whether name has the MESH extension.
func IsMeshFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), meshfile.Extension)
}

// Cache is an in-memory cache of decoded records keyed by path.
type Cache struct {
	data map[string]*mesh.Record
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*mesh.Record),
	}
}

// Get retrieves a record from cache.
func (c *Cache) Get(key string) (*mesh.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return rec, ok
}

// Set stores a record in cache.
func (c *Cache) Set(key string, rec *mesh.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = rec
}

// Delete removes a record from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
