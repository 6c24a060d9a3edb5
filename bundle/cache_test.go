package bundle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bibliotrack/recommender/core"
)

func TestCache_LazyBuildAndReuse(t *testing.T) {
	cat := seedCatalog()
	cat.AddTransaction(core.Transaction{UserID: "alice", BookID: id(1), Status: core.TxStatusDelivered})
	cache := NewCache(&Builder{Catalog: cat}, time.Hour)

	b1, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b2, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if b1 != b2 {
		t.Error("fresh bundle rebuilt within TTL")
	}
	if got := cache.Rebuilds(); got != 1 {
		t.Errorf("Rebuilds = %d, want 1", got)
	}
}

func TestCache_StaleDataServedUntilInvalidated(t *testing.T) {
	cat := seedCatalog()
	cache := NewCache(&Builder{Catalog: cat}, time.Hour)

	b1, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(b1.ItemKeys) != 3 {
		t.Fatalf("initial keys = %d, want 3", len(b1.ItemKeys))
	}

	// 目录变化后，TTL 内仍然返回旧一代：缓存一致性以 TTL 为界
	cat.AddItem(&core.CatalogItem{ID: 42, Attributes: core.Attrs{Title: "New Arrival"}})
	b2, _ := cache.Get(context.Background())
	if len(b2.ItemKeys) != 3 {
		t.Errorf("stale bundle replaced early: keys = %d", len(b2.ItemKeys))
	}

	// 显式失效后立即看到新一代
	cache.Invalidate()
	b3, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if len(b3.ItemKeys) != 4 {
		t.Errorf("post-invalidate keys = %d, want 4", len(b3.ItemKeys))
	}
	if got := cache.Rebuilds(); got != 2 {
		t.Errorf("Rebuilds = %d, want 2", got)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	cat := seedCatalog()
	cache := NewCache(&Builder{Catalog: cat}, 10*time.Millisecond)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if got := cache.Rebuilds(); got != 2 {
		t.Errorf("Rebuilds = %d, want 2", got)
	}
}

func TestCache_Refresh(t *testing.T) {
	cat := seedCatalog()
	cache := NewCache(&Builder{Catalog: cat}, time.Hour)

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	cat.AddTransaction(core.Transaction{UserID: "bob", BookID: id(2), Status: core.TxStatusDelivered})

	b, err := cache.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if b.UserCount() != 1 {
		t.Errorf("refreshed UserCount = %d, want 1", b.UserCount())
	}
	if got := cache.Rebuilds(); got != 2 {
		t.Errorf("Rebuilds = %d, want 2", got)
	}
}

func TestCache_ConcurrentGetsCollapseToOneBuild(t *testing.T) {
	cat := seedCatalog()
	cache := NewCache(&Builder{Catalog: cat}, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background()); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := cache.Rebuilds(); got != 1 {
		t.Errorf("Rebuilds = %d, want 1 (singleflight)", got)
	}
}

func TestCache_FailedBuildLeavesNothingBehind(t *testing.T) {
	cache := NewCache(&Builder{}, time.Hour) // Catalog 缺失，构建必然失败

	if _, err := cache.Get(context.Background()); err == nil {
		t.Fatal("expected build error")
	}
	if got := cache.Rebuilds(); got != 0 {
		t.Errorf("Rebuilds = %d, want 0", got)
	}
}
