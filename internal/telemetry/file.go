package telemetry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileChannel is an override channel backed by a text file. Operators edit
// the file; the tuner reads the cached contents each tick and writes error
// messages or an empty string back.
type FileChannel struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu    sync.RWMutex
	value string
	// gen counts our own writes so a reload that raced one is dropped.
	gen uint64

	done     chan struct{}
	stopOnce sync.Once
}

// NewFileChannel creates the file if needed and starts watching it. The
// parent directory is watched so editors that replace the file are seen.
func NewFileChannel(path string, logger *slog.Logger) (*FileChannel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0644); err != nil {
			return nil, err
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("telemetry: watch %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	c := &FileChannel{
		path:    path,
		watcher: watcher,
		logger:  logger,
		done:    make(chan struct{}),
	}
	c.reload()
	go c.processEvents()
	return c, nil
}

func (c *FileChannel) Read() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Write replaces the file atomically so the watcher never sees a partial
// file.
func (c *FileChannel) Write(v string) {
	c.mu.Lock()
	c.value = v
	c.gen++
	c.mu.Unlock()
	data := v
	if data != "" {
		data += "\n"
	}
	err := c.replace([]byte(data))
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
	if err != nil {
		c.logger.Warn("override file write failed", "path", c.path, "error", err)
	}
}

func (c *FileChannel) replace(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

func (c *FileChannel) Path() string { return c.path }

func (c *FileChannel) Close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.done)
		err = c.watcher.Close()
	})
	return err
}

func (c *FileChannel) reload() {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("override file read failed", "path", c.path, "error", err)
		}
		return
	}
	v := strings.TrimSpace(string(data))
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	changed := v != c.value
	c.value = v
	c.mu.Unlock()
	if changed && v != "" {
		c.logger.Debug("override file changed", "path", c.path, "value", v)
	}
}

func (c *FileChannel) processEvents() {
	for {
		select {
		case <-c.done:
			return
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != c.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				c.reload()
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("override file watcher error", "path", c.path, "error", err)
		}
	}
}
