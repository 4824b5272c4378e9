package clipcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"pdfpod/internal/fileutil"
)

const (
	clipExt       = ".wav"
	lockDirName   = ".locks"
	lockRetryWait = 25 * time.Millisecond
)

// ErrExists is returned by Store when a clip for the key is already present.
var ErrExists = errors.New("clip already exists")

// Key derives the cache key for a (speaker, text) pair. Each field is length
// prefixed before hashing so no two distinct pairs share an input, and the
// SHA-256 digest is truncated to 128 bits.
func Key(speaker, text string) string {
	h := sha256.New()
	var prefix [8]byte
	for _, field := range []string{speaker, text} {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(field)))
		h.Write(prefix[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Cache maps keys to WAV files inside one request's clip directory. Clips are
// written once and never modified or evicted.
type Cache struct {
	dir string

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// New returns a cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("clip cache directory required")
	}
	if err := os.MkdirAll(filepath.Join(dir, lockDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create clip cache: %w", err)
	}
	return &Cache{dir: dir, locks: make(map[string]*keyLock)}, nil
}

// Dir returns the directory holding clip files.
func (c *Cache) Dir() string {
	return c.dir
}

// Path returns the clip location for key whether or not it exists.
func (c *Cache) Path(key string) string {
	return filepath.Join(c.dir, key+clipExt)
}

// Resolve returns the clip location for a (speaker, text) pair.
func (c *Cache) Resolve(speaker, text string) string {
	return c.Path(Key(speaker, text))
}

// Exists reports whether a clip has been stored for key.
func (c *Cache) Exists(key string) bool {
	return fileutil.Exists(c.Path(key))
}

// Lookup returns the stored clip path for a (speaker, text) pair.
func (c *Cache) Lookup(speaker, text string) (string, bool) {
	path := c.Resolve(speaker, text)
	if !fileutil.Exists(path) {
		return "", false
	}
	return path, true
}

// Store writes data as the clip for key. The write is atomic, and an existing
// clip is never replaced: ErrExists is returned with the existing path.
// Callers racing on the same key should hold Lock around check-then-store.
func (c *Cache) Store(key string, data []byte) (string, error) {
	path := c.Path(key)
	if fileutil.Exists(path) {
		return path, ErrExists
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store clip %s: %w", key, err)
	}
	return path, nil
}

// Lock serializes work on key across goroutines and processes sharing the
// directory. The returned function releases the lock.
func (c *Cache) Lock(ctx context.Context, key string) (func(), error) {
	local := c.acquireLocal(key)
	local.mu.Lock()

	fileLock := flock.New(filepath.Join(c.dir, lockDirName, key+".lock"))
	locked, err := fileLock.TryLockContext(ctx, lockRetryWait)
	if err != nil || !locked {
		local.mu.Unlock()
		c.releaseLocal(key)
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock clip %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fileLock.Unlock()
			local.mu.Unlock()
			c.releaseLocal(key)
		})
	}, nil
}

func (c *Cache) acquireLocal(key string) *keyLock {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		l = &keyLock{}
		c.locks[key] = l
	}
	l.refs++
	return l
}

func (c *Cache) releaseLocal(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[key]
	if !ok {
		return
	}
	l.refs--
	if l.refs <= 0 {
		delete(c.locks, key)
	}
}
