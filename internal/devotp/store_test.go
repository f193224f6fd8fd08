package devotp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newStore(now *time.Time) *MemoryStore {
	return NewMemoryStore().WithClock(func() time.Time { return *now })
}

func TestMemoryStore_PutGet(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	store.Put(ctx, "a@x.com", "123456", now.Add(5*time.Minute))

	code, ok := store.Get(ctx, "a@x.com")
	if !ok {
		t.Fatal("Get should return code after Put")
	}
	if code != "123456" {
		t.Errorf("code = %q, want %q", code, "123456")
	}
}

func TestMemoryStore_KeyIsCaseInsensitive(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	store.Put(ctx, "Ann@X.com", "123456", now.Add(time.Minute))
	if code, ok := store.Get(ctx, " ann@x.com "); !ok || code != "123456" {
		t.Errorf("Get = %q, %v; want 123456, true", code, ok)
	}
}

func TestMemoryStore_LatestWins(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	store.Put(ctx, "a@x.com", "111111", now.Add(time.Minute))
	store.Put(ctx, "a@x.com", "222222", now.Add(time.Minute))

	if code, _ := store.Get(ctx, "a@x.com"); code != "222222" {
		t.Errorf("code = %q, want 222222", code)
	}
}

func TestMemoryStore_Missing(t *testing.T) {
	now := base
	store := newStore(&now)

	code, ok := store.Get(context.Background(), "nobody@x.com")
	if ok || code != "" {
		t.Errorf("Get = %q, %v; want empty, false", code, ok)
	}
}

func TestMemoryStore_Expired(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	store.Put(ctx, "a@x.com", "123456", now.Add(300*time.Second))
	now = base.Add(301 * time.Second)

	if _, ok := store.Get(ctx, "a@x.com"); ok {
		t.Error("Get should return false once expired")
	}
	store.mu.RLock()
	_, exists := store.m["a@x.com"]
	store.mu.RUnlock()
	if exists {
		t.Error("expired entry should be removed on Get")
	}
}

func TestMemoryStore_Forget(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	store.Put(ctx, "a@x.com", "123456", now.Add(time.Minute))
	store.Forget(ctx, "a@x.com")

	if _, ok := store.Get(ctx, "a@x.com"); ok {
		t.Error("Get should return false after Forget")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	now := base
	store := newStore(&now)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@x.com", i)
			store.Put(ctx, email, "123456", now.Add(time.Minute))
			store.Get(ctx, email)
		}(i)
	}
	wg.Wait()
}
