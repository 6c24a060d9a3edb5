package rank

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/catalog"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/feature"
)

func boostFixture(t *testing.T) *bundle.Cache {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	cat.AddItem(&core.CatalogItem{ID: 1, Attributes: core.Attrs{Title: "Dragons", Genre: "Fantasy"}})
	cat.AddItem(&core.CatalogItem{ID: 2, Attributes: core.Attrs{Title: "Pasta", Genre: "cooking"}})
	return bundle.NewCache(&bundle.Builder{Catalog: cat}, time.Hour)
}

func TestPreferenceBoost(t *testing.T) {
	features := feature.NewMemoryFeatureService()
	features.SetUserPreferences("alice", map[string]float64{"fantasy": 0.8})

	node := &PreferenceBoost{Features: features, Cache: boostFixture(t), Strength: 0.5}

	c1 := core.NewCandidate("book_1")
	c1.Score = 1.0
	c2 := core.NewCandidate("book_2")
	c2.Score = 1.0

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "alice"},
		[]*core.Candidate{c1, c2})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 命中偏好（体裁大小写不敏感）：1.0 * (1 + 0.5*0.8)
	if math.Abs(out[0].Score-1.4) > 1e-9 {
		t.Errorf("boosted score = %v, want 1.4", out[0].Score)
	}
	if lbl, ok := out[0].Labels["preference_boost"]; !ok || lbl.Value != "hit" {
		t.Errorf("missing boost label: %v", out[0].Labels)
	}
	// 未命中不调权
	if out[1].Score != 1.0 {
		t.Errorf("unmatched score = %v, want 1.0", out[1].Score)
	}
}

func TestPreferenceBoost_ReordersByBoostedScore(t *testing.T) {
	features := feature.NewMemoryFeatureService()
	features.SetUserPreferences("alice", map[string]float64{"cooking": 1.0})

	node := &PreferenceBoost{Features: features, Cache: boostFixture(t), Strength: 1.0}

	// book_1（奇幻）在前且分数更高，book_2（烹饪）命中偏好后应反超
	c1 := core.NewCandidate("book_1")
	c1.Score = 0.6
	c2 := core.NewCandidate("book_2")
	c2.Score = 0.5

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "alice"},
		[]*core.Candidate{c1, c2})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// 0.5 * (1 + 1.0*1.0) = 1.0 > 0.6
	if out[0].Key != "book_2" || out[1].Key != "book_1" {
		t.Errorf("order = [%s %s], want [book_2 book_1]", out[0].Key, out[1].Key)
	}
	if math.Abs(out[0].Score-1.0) > 1e-9 {
		t.Errorf("boosted score = %v, want 1.0", out[0].Score)
	}
}

func TestPreferenceBoost_NoHitKeepsOrder(t *testing.T) {
	features := feature.NewMemoryFeatureService()
	features.SetUserPreferences("alice", map[string]float64{"horror": 0.9})

	node := &PreferenceBoost{Features: features, Cache: boostFixture(t), Strength: 1.0}

	// 偏好未命中任何候选：即便低分在前也保持上游顺序
	c1 := core.NewCandidate("book_1")
	c1.Score = 0.2
	c2 := core.NewCandidate("book_2")
	c2.Score = 0.9

	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "alice"},
		[]*core.Candidate{c1, c2})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out[0].Key != "book_1" || out[1].Key != "book_2" {
		t.Errorf("order = [%s %s], want upstream [book_1 book_2]", out[0].Key, out[1].Key)
	}
}

func TestPreferenceBoost_NoOpWithoutDeps(t *testing.T) {
	c := core.NewCandidate("book_1")
	c.Score = 2.0

	tests := []struct {
		name string
		node *PreferenceBoost
		rctx *core.RecommendContext
	}{
		{"no feature service", &PreferenceBoost{Cache: boostFixture(t)}, &core.RecommendContext{UserID: "alice"}},
		{"anonymous user", &PreferenceBoost{Features: feature.NewMemoryFeatureService(), Cache: boostFixture(t)}, &core.RecommendContext{}},
		{"no profile", &PreferenceBoost{Features: feature.NewMemoryFeatureService(), Cache: boostFixture(t)}, &core.RecommendContext{UserID: "nobody"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.node.Process(context.Background(), tt.rctx, []*core.Candidate{c})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if out[0].Score != 2.0 {
				t.Errorf("score changed to %v", out[0].Score)
			}
		})
	}
}
