package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "lodash"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "lodash", []byte(`{"name":"lodash"}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "lodash")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v; want hit", hit, err)
	}
	if string(data) != `{"name":"lodash"}` {
		t.Errorf("Get data = %s", data)
	}

	if err := c.Delete(ctx, "lodash"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "lodash"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Delete(ctx, "lodash"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || hit || data != nil {
		t.Errorf("corrupt entry: got %q, %v, %v; want miss", data, hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared key should miss")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear should keep the root: %v", err)
	}
}

type fakeRedis struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	c := NewRedisCache(fake, "hoister:")

	if _, hit, err := c.Get(ctx, "lodash"); hit || err != nil {
		t.Fatalf("miss expected, got hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "lodash", []byte("4.17.21"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := fake.data["hoister:lodash"]; !ok {
		t.Error("key should carry the prefix")
	}
	if fake.ttls["hoister:lodash"] != time.Minute {
		t.Errorf("ttl = %v, want 1m", fake.ttls["hoister:lodash"])
	}

	data, hit, err := c.Get(ctx, "lodash")
	if err != nil || !hit || !bytes.Equal(data, []byte("4.17.21")) {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "lodash"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "lodash"); hit {
		t.Error("deleted key should miss")
	}
	if err := c.Close(); err != nil || !fake.closed {
		t.Error("Close should close the client")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.HTTPKey("npm", "lodash"); got != "http:npm:lodash" {
		t.Errorf("HTTPKey = %s", got)
	}

	tests := []struct {
		name string
		a, b [3]string
		same bool
	}{
		{"identical", [3]string{"npm", "lodash", "^4.0.0"}, [3]string{"npm", "lodash", "^4.0.0"}, true},
		{"range differs", [3]string{"npm", "lodash", "^4.0.0"}, [3]string{"npm", "lodash", "^3.0.0"}, false},
		{"registry differs", [3]string{"npm", "lodash", "*"}, [3]string{"bower", "lodash", "*"}, false},
		{"no concatenation clash", [3]string{"npm", "ab", "c"}, [3]string{"npm", "a", "bc"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := k.ResolutionKey(tt.a[0], tt.a[1], tt.a[2])
			kb := k.ResolutionKey(tt.b[0], tt.b[1], tt.b[2])
			if (ka == kb) != tt.same {
				t.Errorf("ResolutionKey(%v) == ResolutionKey(%v) is %v, want %v", tt.a, tt.b, ka == kb, tt.same)
			}
			if !strings.HasPrefix(ka, "resolve:") {
				t.Errorf("ResolutionKey should be prefixed: %s", ka)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "mirror:")
	if got := scoped.HTTPKey("npm", "lodash"); got != "mirror:http:npm:lodash" {
		t.Errorf("HTTPKey = %s", got)
	}
	want := "mirror:" + NewDefaultKeyer().ResolutionKey("npm", "lodash", "*")
	if got := scoped.ResolutionKey("npm", "lodash", "*"); got != want {
		t.Errorf("ResolutionKey = %s, want %s", got, want)
	}
}
