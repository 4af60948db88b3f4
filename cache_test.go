package filicious_test

import (
	"context"
	"testing"
	"time"

	"github.com/filicious/filicious"
	"github.com/filicious/filicious/adapter/memory"
)

func TestMemoryCacheTTL(t *testing.T) {
	c := filicious.NewMemoryCache()

	c.Set("k", "v", 10*time.Millisecond)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived its TTL")
	}

	c.Set("forever", 1, 0)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("forever"); !ok {
		t.Error("zero-TTL entry expired")
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCachedServesStaleUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	cached := filicious.NewCached(mem, nil, 0)

	if err := cached.WriteFile(ctx, "f.txt", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if data, err := cached.ReadFile(ctx, "f.txt"); err != nil || string(data) != "v1" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}

	// Mutating the backend directly bypasses invalidation; the wrapper
	// keeps serving the cached content.
	if err := mem.WriteFile(ctx, "f.txt", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	if data, _ := cached.ReadFile(ctx, "f.txt"); string(data) != "v1" {
		t.Errorf("cache missed: got %q", data)
	}

	cached.Invalidate("f.txt")
	if data, _ := cached.ReadFile(ctx, "f.txt"); string(data) != "v2" {
		t.Errorf("invalidation did not refresh: got %q", data)
	}
}

func TestCachedInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	cached := filicious.NewCached(memory.New(), nil, 0)

	if err := cached.WriteFile(ctx, "f.txt", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if _, err := cached.ReadFile(ctx, "f.txt"); err != nil {
		t.Fatal(err)
	}

	if err := cached.WriteFile(ctx, "f.txt", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	if data, _ := cached.ReadFile(ctx, "f.txt"); string(data) != "v2" {
		t.Errorf("write through the wrapper served stale content: %q", data)
	}
}

func TestCachedInvalidatesParentListing(t *testing.T) {
	ctx := context.Background()
	cached := filicious.NewCached(memory.New(), nil, 0)

	if err := cached.WriteFile(ctx, "dir/a.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	names, err := cached.List(ctx, "dir")
	if err != nil || len(names) != 1 {
		t.Fatalf("List = %v, %v", names, err)
	}

	if err := cached.WriteFile(ctx, "dir/b.txt", []byte("y")); err != nil {
		t.Fatal(err)
	}
	names, err = cached.List(ctx, "dir")
	if err != nil || len(names) != 2 {
		t.Errorf("List after write = %v, %v", names, err)
	}
}

func TestCachedDeleteClearsEverything(t *testing.T) {
	ctx := context.Background()
	cached := filicious.NewCached(memory.New(), nil, 0)

	if err := cached.WriteFile(ctx, "dir/deep/f.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := cached.Exists(ctx, "dir/deep/f.txt"); !ok {
		t.Fatal("file missing")
	}

	if err := cached.Delete(ctx, "dir", true); err != nil {
		t.Fatal(err)
	}
	if ok, _ := cached.Exists(ctx, "dir/deep/f.txt"); ok {
		t.Error("recursive delete left a cached existence record")
	}
}
