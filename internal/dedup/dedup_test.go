package dedup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"iris/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newSQLite(t *testing.T, retention time.Duration) domain.DedupStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dedup.db"), retention, testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T, retention time.Duration) map[string]domain.DedupStore {
	return map[string]domain.DedupStore{
		"sqlite": newSQLite(t, retention),
		"memory": NewMemoryStore(retention),
	}
}

func TestMarkAndHasSeen(t *testing.T) {
	for name, store := range stores(t, 7*24*time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			seen, err := store.HasSeen(ctx, "m1")
			if err != nil {
				t.Fatalf("has_seen: %v", err)
			}
			if seen {
				t.Error("fresh store should not have seen m1")
			}

			if err := store.MarkSeen(ctx, "m1"); err != nil {
				t.Fatalf("mark_seen: %v", err)
			}

			seen, err = store.HasSeen(ctx, "m1")
			if err != nil {
				t.Fatalf("has_seen: %v", err)
			}
			if !seen {
				t.Error("m1 should be seen after mark")
			}

			seen, _ = store.HasSeen(ctx, "m2")
			if seen {
				t.Error("m2 should not be seen")
			}
		})
	}
}

func TestMarkSeen_Idempotent(t *testing.T) {
	for name, store := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.MarkSeen(ctx, "m1"); err != nil {
				t.Fatal(err)
			}
			if err := store.MarkSeen(ctx, "m1"); err != nil {
				t.Fatalf("second mark should be harmless: %v", err)
			}
			seen, err := store.HasSeen(ctx, "m1")
			if err != nil || !seen {
				t.Errorf("expected seen=true, got seen=%v err=%v", seen, err)
			}
		})
	}
}

func TestExpiredRecordIsNotSeen(t *testing.T) {
	for name, store := range stores(t, 10*time.Millisecond) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.MarkSeen(ctx, "m1"); err != nil {
				t.Fatal(err)
			}
			time.Sleep(30 * time.Millisecond)
			seen, err := store.HasSeen(ctx, "m1")
			if err != nil {
				t.Fatal(err)
			}
			if seen {
				t.Error("record past its TTL should not count as seen")
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	for name, store := range stores(t, time.Hour) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			done := make(chan error, 20)
			for i := 0; i < 10; i++ {
				id := string(rune('a' + i))
				go func() {
					done <- store.MarkSeen(ctx, id)
				}()
				go func() {
					_, err := store.HasSeen(ctx, id)
					done <- err
				}()
			}
			for i := 0; i < 20; i++ {
				if err := <-done; err != nil {
					t.Errorf("concurrent op failed: %v", err)
				}
			}
		})
	}
}
