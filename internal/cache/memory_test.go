package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderSetGet(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := m.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := m.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestMemoryProviderCopiesValues(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	original := []byte("payload")
	if err := m.Set(ctx, "key", original, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original[0] = 'X'

	got, err := m.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("stored value shares memory with caller: %q", got)
	}

	got[0] = 'Y'
	again, err := m.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(again) != "payload" {
		t.Fatalf("returned value shares memory with store: %q", again)
	}
}

func TestMemoryProviderTTLExpiry(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	if err := m.Set(ctx, "key", []byte("value"), 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Get(ctx, "key"); err != nil {
		t.Fatalf("entry should be live before the TTL: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, err := m.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expired entry should miss, got %v", err)
	}
}

func TestMemoryProviderSetNX(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "lock", []byte("a"), 0)
	if err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	ok, err = m.SetNX(ctx, "lock", []byte("b"), 0)
	if err != nil || ok {
		t.Fatalf("second SetNX should lose: ok=%v err=%v", ok, err)
	}
	got, err := m.Get(ctx, "lock")
	if err != nil || string(got) != "a" {
		t.Fatalf("losing SetNX must not overwrite: %q err=%v", got, err)
	}
}

func TestMemoryProviderSetNXAfterExpiry(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	if ok, err := m.SetNX(ctx, "lock", []byte("a"), 10*time.Millisecond); err != nil || !ok {
		t.Fatalf("first SetNX should win: ok=%v err=%v", ok, err)
	}
	time.Sleep(20 * time.Millisecond)
	ok, err := m.SetNX(ctx, "lock", []byte("b"), 0)
	if err != nil || !ok {
		t.Fatalf("SetNX should win once the holder expired: ok=%v err=%v", ok, err)
	}
}

func TestMemoryProviderDelAndClose(t *testing.T) {
	m := NewMemoryProvider()
	ctx := context.Background()

	if err := m.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Del(ctx, "key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("deleted entry should miss, got %v", err)
	}

	if err := m.Set(ctx, "other", []byte("value"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Get(ctx, "other"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("closed cache should be empty, got %v", err)
	}
}
