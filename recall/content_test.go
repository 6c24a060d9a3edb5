package recall

import (
	"context"
	"testing"
	"time"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/catalog"
	"github.com/bibliotrack/recommender/core"
)

func contentFixture(t *testing.T) *bundle.Cache {
	t.Helper()
	cat := catalog.NewMemoryCatalog()
	cat.AddItem(&core.CatalogItem{ID: 1, Attributes: core.Attrs{
		Title: "The Fellowship of the Ring", Author: "Tolkien", Genre: "fantasy",
		Description: "epic fantasy quest adventure",
	}})
	cat.AddItem(&core.CatalogItem{ID: 2, Attributes: core.Attrs{
		Title: "The Two Towers", Author: "Tolkien", Genre: "fantasy",
		Description: "epic fantasy quest adventure",
	}})
	cat.AddItem(&core.CatalogItem{ID: 3, Attributes: core.Attrs{
		Title: "Italian Cooking", Author: "Rossi", Genre: "cooking",
		Description: "pasta recipes kitchen",
	}})
	return bundle.NewCache(&bundle.Builder{Catalog: cat}, time.Hour)
}

func TestContentSource_Recall(t *testing.T) {
	src := &ContentSource{Cache: contentFixture(t)}

	cands, err := src.Recall(context.Background(), &core.RecommendContext{SeedItemKey: "book_1"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}

	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	// 自身必须排除
	for _, c := range cands {
		if c.Key == "book_1" {
			t.Error("seed item recommended to itself")
		}
	}
	// 同作者同体裁的 book_2 应排在最前
	if cands[0].Key != "book_2" {
		t.Errorf("top candidate = %s, want book_2", cands[0].Key)
	}
	if lbl, ok := cands[0].Labels["recall_source"]; !ok || lbl.Value != "content" {
		t.Errorf("recall_source label = %v", cands[0].Labels)
	}
	// cooking 书与种子几乎无重叠，阈值 0.1 应将其挡在门外
	for _, c := range cands {
		if c.Key == "book_3" {
			t.Errorf("dissimilar item passed threshold with score %v", c.Score)
		}
	}
}

func TestContentSource_UnknownSeed(t *testing.T) {
	src := &ContentSource{Cache: contentFixture(t)}

	cands, err := src.Recall(context.Background(), &core.RecommendContext{SeedItemKey: "book_999"})
	if err != nil {
		t.Fatalf("unknown seed must not error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("unknown seed returned %v", cands)
	}
}

func TestContentSource_TopK(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	for i := int64(1); i <= 5; i++ {
		cat.AddItem(&core.CatalogItem{ID: i, Attributes: core.Attrs{
			Title: "Fantasy Saga", Genre: "fantasy", Description: "dragons magic kingdoms",
		}})
	}
	cache := bundle.NewCache(&bundle.Builder{Catalog: cat}, time.Hour)

	src := &ContentSource{Cache: cache, TopK: 2}
	cands, err := src.Recall(context.Background(), &core.RecommendContext{SeedItemKey: "book_1"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	// 全同分：按合成键升序截断
	if cands[0].Key != "book_2" || cands[1].Key != "book_3" {
		t.Errorf("order = [%s %s], want [book_2 book_3]", cands[0].Key, cands[1].Key)
	}
}
