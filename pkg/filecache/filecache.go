// Package filecache provides mmap-backed access to source file bytes, so the
// match engine can hand a whole file to the parser and slice byte ranges out
// of captures without copying through os.ReadFile for every file in a run.
package filecache

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// Cache memory-maps files on first access and keeps them mapped for the
// lifetime of the run. It is safe for concurrent use by worker goroutines.
type Cache struct {
	mu     sync.RWMutex
	files  map[string]*entry
	logger *slog.Logger

	stats Stats
}

type entry struct {
	data mmap.MMap
	file *os.File
	// fallback holds the file's bytes when mmap failed; data is nil in
	// that case.
	fallback []byte
}

// Stats reports cache activity, useful for --watch re-run diagnostics.
type Stats struct {
	FilesLoaded  int64
	MmapFailures int64
}

// New creates an empty Cache.
func New(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{files: make(map[string]*entry), logger: logger}
}

// Get returns the full contents of path, loading and mapping it on first
// access. The returned slice must not be modified; it may be backed by an
// mmap'd region shared across callers.
func (c *Cache) Get(path string) ([]byte, error) {
	c.mu.RLock()
	if e, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return e.bytes(), nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.files[path]; ok {
		return e.bytes(), nil
	}

	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.files[path] = e
	c.stats.FilesLoaded++
	return e.bytes(), nil
}

func (c *Cache) load(path string) (*entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filecache: open %q: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("filecache: stat %q: %w", path, err)
	}
	if stat.Size() == 0 {
		f.Close()
		return &entry{}, nil
	}

	data, mmapErr := mmap.Map(f, mmap.RDONLY, 0)
	if mmapErr != nil {
		c.logger.Warn("mmap failed, reading file directly", "path", path, "error", mmapErr)
		c.stats.MmapFailures++
		defer f.Close()
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("filecache: fallback read %q: %w", path, readErr)
		}
		return &entry{fallback: raw}, nil
	}

	return &entry{data: data, file: f}, nil
}

func (e *entry) bytes() []byte {
	if e.data != nil {
		return e.data
	}
	return e.fallback
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close unmaps every file and releases descriptors.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for path, e := range c.files {
		if e.data != nil {
			if err := e.data.Unmap(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("filecache: unmap %q: %w", path, err)
			}
		}
		if e.file != nil {
			if err := e.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("filecache: close %q: %w", path, err)
			}
		}
	}
	c.files = make(map[string]*entry)
	return firstErr
}
