package devotp

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_RecordThenLatest(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	store.Record(ctx, "+4917612345678", "Your SMS code is 123456 and is valid for 5 minutes.")

	msg, ok := store.Latest(ctx, "+4917612345678")
	if !ok {
		t.Fatal("Latest should return the recorded message")
	}
	if msg.Text != "Your SMS code is 123456 and is valid for 5 minutes." {
		t.Errorf("text = %q", msg.Text)
	}
	if msg.Phone != "+4917612345678" {
		t.Errorf("phone = %q", msg.Phone)
	}
	if msg.SentAt.IsZero() {
		t.Error("SentAt should be set")
	}
}

func TestMemoryStore_Latest_ReturnsFalseWhenMissing(t *testing.T) {
	store := NewMemoryStore(0)
	if _, ok := store.Latest(context.Background(), "+10000000000"); ok {
		t.Error("Latest should return false for an unknown phone")
	}
	if store.retention != DefaultRetention {
		t.Errorf("retention = %v, want %v", store.retention, DefaultRetention)
	}
}

func TestMemoryStore_Latest_OverwritesPrevious(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	store.Record(ctx, "+4917612345678", "first")
	store.Record(ctx, "+4917612345678", "second")

	msg, ok := store.Latest(ctx, "+4917612345678")
	if !ok || msg.Text != "second" {
		t.Errorf("Latest = %q, %v; want second, true", msg.Text, ok)
	}
}

func TestMemoryStore_Latest_DropsAgedOutMessage(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.nowF = func() time.Time { return now }
	ctx := context.Background()

	store.Record(ctx, "+4917612345678", "code")
	now = now.Add(time.Minute)

	if _, ok := store.Latest(ctx, "+4917612345678"); ok {
		t.Error("Latest should return false once retention has passed")
	}
	store.mu.RLock()
	_, exists := store.m["+4917612345678"]
	store.mu.RUnlock()
	if exists {
		t.Error("aged-out entry should be deleted")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			phone := fmt.Sprintf("+1555000%04d", i)
			store.Record(ctx, phone, "msg")
			store.Latest(ctx, phone)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 50; i++ {
		if _, ok := store.Latest(ctx, fmt.Sprintf("+1555000%04d", i)); !ok {
			t.Errorf("missing message %d", i)
		}
	}
}
