// Package cache persists assistant responses keyed by exact prompt text.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ResponseCache is a durable prompt→response map. Every insert rewrites the
// full snapshot file (write-through). A snapshot that cannot be read or
// parsed at open time is treated as a cold cache, never as a fatal error.
type ResponseCache struct {
	mu      sync.Mutex
	path    string
	entries map[string]string
	log     *zap.Logger
}

// Open loads the snapshot at path. Corruption or absence yields an empty
// cache; corruption is logged.
func Open(path string, log *zap.Logger) *ResponseCache {
	c := &ResponseCache{
		path:    path,
		entries: make(map[string]string),
		log:     log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("cache snapshot unreadable, starting cold", zap.String("path", path), zap.Error(err))
		}
		return c
	}

	// Skip UTF-8 BOM if present
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn("cache snapshot malformed, starting cold", zap.String("path", path), zap.Error(err))
		c.entries = make(map[string]string)
	}
	return c
}

// Lookup returns the cached response for prompt.
func (c *ResponseCache) Lookup(prompt string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, ok := c.entries[prompt]
	return resp, ok
}

// Store inserts or overwrites the entry for prompt, then persists the full
// snapshot immediately.
func (c *ResponseCache) Store(prompt, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[prompt] = response
	return c.persistLocked()
}

// Len returns the number of cached entries.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) persistLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache snapshot: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}
	return nil
}
