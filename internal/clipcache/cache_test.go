package clipcache_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pdfpod/internal/clipcache"
)

func TestKeyDeterministicAndDistinct(t *testing.T) {
	if clipcache.Key("Ada", "Hello") != clipcache.Key("Ada", "Hello") {
		t.Fatal("key must be deterministic")
	}
	if len(clipcache.Key("Ada", "Hello")) != 32 {
		t.Fatalf("expected 128-bit hex key, got %q", clipcache.Key("Ada", "Hello"))
	}
	pairs := [][2]string{
		{"Ada", "Hello"},
		{"Bob", "Hello"},
		{"Ada", "Hello!"},
		{"Ad", "aHello"},
		{"", "AdaHello"},
		{"AdaHello", ""},
	}
	seen := make(map[string][2]string)
	for _, p := range pairs {
		key := clipcache.Key(p[0], p[1])
		if prev, ok := seen[key]; ok {
			t.Fatalf("collision between %v and %v", prev, p)
		}
		seen[key] = p
	}
}

func TestStoreAndLookup(t *testing.T) {
	cache, err := clipcache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := clipcache.Key("Ada", "Hello")
	if cache.Exists(key) {
		t.Fatal("new cache should be empty")
	}
	if _, ok := cache.Lookup("Ada", "Hello"); ok {
		t.Fatal("lookup should miss before store")
	}

	path, err := cache.Store(key, []byte("first"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if path != cache.Resolve("Ada", "Hello") {
		t.Fatalf("store path %q differs from resolve %q", path, cache.Resolve("Ada", "Hello"))
	}
	got, ok := cache.Lookup("Ada", "Hello")
	if !ok || got != path {
		t.Fatalf("lookup = %q %v", got, ok)
	}

	if _, err := cache.Store(key, []byte("second")); !errors.Is(err, clipcache.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "first" {
		t.Fatalf("existing clip was overwritten: %q", data)
	}
}

func TestLockSerializesSameKey(t *testing.T) {
	cache, err := clipcache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := clipcache.Key("Ada", "Hello")

	var active, maxActive atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := cache.Lock(context.Background(), key)
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			defer unlock()
			n := active.Add(1)
			for {
				m := maxActive.Load()
				if n <= m || maxActive.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()
	if maxActive.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxActive.Load())
	}
}

func TestLockHonoursContext(t *testing.T) {
	cache, err := clipcache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := clipcache.Key("Ada", "Hello")
	unlock, err := cache.Lock(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	other, err := clipcache.New(cache.Dir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := other.Lock(ctx, key); err == nil {
		t.Fatal("expected second cache instance to be blocked by the file lock")
	}
}
