package store

import (
	"context"
	"testing"
	"time"

	"github.com/bibliotrack/recommender/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) err = %v, want store not found", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get = %q, %v", got, err)
	}

	s.Delete(ctx, "k")
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get after delete err = %v", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	// TTL 最小粒度是秒；直接验证过期判定而不是等真实时钟
	s.Set(ctx, "short", []byte("v"), 1)
	if _, err := s.Get(ctx, "short"); err != nil {
		t.Errorf("fresh key expired early: %v", err)
	}

	s.mu.Lock()
	past := time.Now().Add(-time.Second)
	s.data["short"].expire = &past
	s.mu.Unlock()

	if _, err := s.Get(ctx, "short"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key served: %v", err)
	}
}

func TestMemoryStore_ZSet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	s.ZAdd(ctx, "rank", 10, "c")
	s.ZAdd(ctx, "rank", 30, "a")
	s.ZAdd(ctx, "rank", 20, "b")
	s.ZAdd(ctx, "rank", 20, "aa") // 同分按成员升序

	got, err := s.ZRange(ctx, "rank", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	want := []string{"a", "aa", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ZRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ZRange[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	top2, _ := s.ZRange(ctx, "rank", 0, 1)
	if len(top2) != 2 || top2[0] != "a" || top2[1] != "aa" {
		t.Errorf("ZRange(0,1) = %v", top2)
	}

	score, err := s.ZScore(ctx, "rank", "b")
	if err != nil || score != 20 {
		t.Errorf("ZScore = %v, %v", score, err)
	}
	if _, err := s.ZScore(ctx, "rank", "zz"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(missing) err = %v", err)
	}

	if got, _ := s.ZRange(ctx, "nosuch", 0, -1); len(got) != 0 {
		t.Errorf("ZRange on missing key = %v", got)
	}
}
