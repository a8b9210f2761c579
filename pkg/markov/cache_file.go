package markov

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

const (
	// cacheFileExt is the extension of cache entry files.
	cacheFileExt = ".fbm"
	// lockRetryDelay is how often a waiting process polls a held lock.
	lockRetryDelay = 250 * time.Millisecond
)

// FileCache stores one entry per file in a directory. The file name embeds
// the fingerprint, so invocations with different corpora or parameters never
// share a path, and entries are replaced by atomic rename so readers never see
// a partial file.
type FileCache struct {
	dir string
}

// NewFileCache returns a FileCache rooted at dir. The directory is created
// on first store.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

// DefaultCacheDir returns the platform cache directory for fabricate,
// honouring XDG_CACHE_HOME.
func DefaultCacheDir() (string, error) {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "fabricate"), nil
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		homeDir, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.Wrap(err, "unable to determine cache directory")
		}
		return filepath.Join(homeDir, ".cache", "fabricate"), nil
	}
	return filepath.Join(userCacheDir, "fabricate"), nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Path returns the file that holds the entry for key.
func (c *FileCache) Path(key CacheKey) string {
	base := strings.TrimSuffix(filepath.Base(key.Source), filepath.Ext(key.Source))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." {
		base = "corpus"
	}
	return filepath.Join(c.dir, base+"."+key.Fingerprint.String()[:16]+cacheFileExt)
}

// Load reads and validates the entry for key.
func (c *FileCache) Load(_ context.Context, key CacheKey) (*Model, error) {
	path := c.Path(key)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, errors.Wrapf(err, "failed to open cache entry %q", path)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	model, err := DecodeEntry(bufio.NewReader(f), key.Fingerprint)
	if err != nil {
		return nil, errors.WithMessagef(err, "cache entry %q", path)
	}
	return model, nil
}

// Store writes the entry for key, replacing any existing one.
func (c *FileCache) Store(_ context.Context, key CacheKey, model *Model) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create cache directory %q", c.dir)
	}
	var buf bytes.Buffer
	if err := EncodeEntry(&buf, key.Fingerprint, model); err != nil {
		return err
	}
	path := c.Path(key)
	if err := atomic.WriteFile(path, &buf); err != nil {
		return errors.Wrapf(err, "failed to write cache entry %q", path)
	}
	return nil
}

// Lock takes an advisory lock on the entry for key, polling until it is
// acquired or ctx is done. A second process resolving the same key waits
// here and then finds the first process's entry instead of training again.
func (c *FileCache) Lock(ctx context.Context, key CacheKey) (func(), error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create cache directory %q", c.dir)
	}
	lockPath := c.Path(key) + ".lock"
	fileLock := flock.New(lockPath)
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, errors.Wrapf(err, "while trying to lock %q", lockPath)
	}
	if !locked {
		return nil, errors.Errorf("could not lock %q", lockPath)
	}
	return func() { _ = fileLock.Unlock() }, nil
}

// Entries lists the entries in the cache directory.
func (c *FileCache) Entries(_ context.Context) ([]CacheEntryInfo, error) {
	paths, err := filepath.Glob(filepath.Join(c.dir, "*"+cacheFileExt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cache directory")
	}

	infos := make([]CacheEntryInfo, 0, len(paths))
	for _, path := range paths {
		info := CacheEntryInfo{Location: path}
		if st, err := os.Stat(path); err == nil {
			info.Size = st.Size()
			info.ModTime = st.ModTime()
		}
		name := strings.TrimSuffix(filepath.Base(path), cacheFileExt)
		if i := strings.LastIndexByte(name, '.'); i > 0 {
			info.Source = name[:i]
		}
		if f, err := os.Open(path); err == nil {
			if version, fp, err := readEntryHeader(f); err == nil {
				info.FormatVersion = version
				info.Fingerprint = fp.String()
			}
			_ = f.Close()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Clear removes every entry and lock file, returning the number of entries
// removed.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if err := os.Remove(e.Location); err != nil && !os.IsNotExist(err) {
			return removed, errors.Wrapf(err, "failed to remove %q", e.Location)
		}
		_ = os.Remove(e.Location + ".lock")
		removed++
	}
	return removed, nil
}
