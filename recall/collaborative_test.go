package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/catalog"
	"github.com/bibliotrack/recommender/core"
)

func TestUserCF_ScoreCandidates(t *testing.T) {
	// alice 与 bob 购买记录重叠，bob 多买的 book_3 应被推荐给 alice；
	// carol 与 alice 负相关，其独有的 book_4 不应出现
	matrix := map[string]map[string]float64{
		"alice": {"book_1": 1, "book_2": 1},
		"bob":   {"book_1": 1, "book_2": 1, "book_3": 1},
		"carol": {"book_4": 1},
	}

	cf := &UserCF{}
	scored := cf.ScoreCandidates("alice", matrix)

	if len(scored) != 1 {
		t.Fatalf("got %d candidates, want 1: %v", len(scored), scored)
	}
	if scored[0].Key != "book_3" {
		t.Errorf("candidate = %q, want book_3", scored[0].Key)
	}
	// corr(alice, bob) = 0.5/sqrt(0.75) 在全列并集 {book_1..4} 上
	wantScore := 0.5 / math.Sqrt(0.75)
	if math.Abs(scored[0].Score-wantScore) > 1e-9 {
		t.Errorf("score = %v, want %v", scored[0].Score, wantScore)
	}
}

func TestUserCF_IdenticalPurchaseSets(t *testing.T) {
	// alice 与 bob 的购买集合完全相同：第三个用户的独有物品给两行带来方差，
	// 全列并集上两行的 Pearson 相关恰好为 1.0，且互为对方的最相似邻居
	matrix := map[string]map[string]float64{
		"alice": {"book_1": 1, "book_2": 1, "book_3": 1, "book_4": 1, "book_5": 1},
		"bob":   {"book_1": 1, "book_2": 1, "book_3": 1, "book_4": 1, "book_5": 1},
		"carol": {"book_1": 1, "book_6": 1, "book_7": 1},
	}

	columns := []string{"book_1", "book_2", "book_3", "book_4", "book_5", "book_6", "book_7"}

	corr, ok := pearsonOverColumns(matrix["alice"], matrix["bob"], columns)
	if !ok {
		t.Fatal("correlation of identical rows undefined")
	}
	if math.Abs(corr-1.0) > 1e-9 {
		t.Errorf("corr(alice, bob) = %v, want 1.0", corr)
	}

	// 互为最相似邻居：对双方而言，另一个同好都严格高于 carol
	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		target, twin := pair[0], pair[1]
		twinCorr, _ := pearsonOverColumns(matrix[target], matrix[twin], columns)
		otherCorr, ok := pearsonOverColumns(matrix[target], matrix["carol"], columns)
		if ok && otherCorr >= twinCorr {
			t.Errorf("%s: corr with carol %v >= corr with %s %v", target, otherCorr, twin, twinCorr)
		}
	}

	// 双方已购集合一致：最相似邻居也贡献不出新候选
	cf := &UserCF{}
	if got := cf.ScoreCandidates("alice", matrix); len(got) != 0 {
		t.Errorf("identical sets produced candidates: %v", got)
	}
}

func TestUserCF_ColdStart(t *testing.T) {
	matrix := map[string]map[string]float64{
		"bob": {"book_1": 1},
	}

	cf := &UserCF{}
	if got := cf.ScoreCandidates("stranger", matrix); len(got) != 0 {
		t.Errorf("unknown user: got %v, want empty", got)
	}
	if got := cf.ScoreCandidates("alice", map[string]map[string]float64{}); len(got) != 0 {
		t.Errorf("empty matrix: got %v, want empty", got)
	}
}

func TestUserCF_SkipsZeroVarianceNeighbors(t *testing.T) {
	// bob 买了所有物品：行是常数向量，相关系数无定义，必须跳过
	matrix := map[string]map[string]float64{
		"alice": {"book_1": 1},
		"bob":   {"book_1": 1, "book_2": 1},
	}

	cf := &UserCF{}
	if got := cf.ScoreCandidates("alice", matrix); len(got) != 0 {
		t.Errorf("zero-variance neighbor contributed: %v", got)
	}
}

func TestUserCF_DeterministicTieBreak(t *testing.T) {
	// bob 的 book_3 和 book_4 得分相同，必须按合成键升序
	matrix := map[string]map[string]float64{
		"alice": {"book_1": 1},
		"bob":   {"book_1": 1, "book_4": 1, "book_3": 1},
		"carol": {"book_2": 1},
	}

	cf := &UserCF{}
	scored := cf.ScoreCandidates("alice", matrix)
	if len(scored) != 2 {
		t.Fatalf("got %d candidates, want 2: %v", len(scored), scored)
	}
	if scored[0].Key != "book_3" || scored[1].Key != "book_4" {
		t.Errorf("tie order = [%s %s], want [book_3 book_4]", scored[0].Key, scored[1].Key)
	}
	if scored[0].Score != scored[1].Score {
		t.Errorf("scores differ: %v vs %v", scored[0].Score, scored[1].Score)
	}
}

func TestUserCF_NeverRecommendsOwnedItems(t *testing.T) {
	matrix := map[string]map[string]float64{
		"alice": {"book_1": 1, "book_2": 1},
		"bob":   {"book_1": 1, "book_2": 1, "book_3": 1},
		"carol": {"book_2": 1, "book_4": 1},
	}

	cf := &UserCF{}
	for _, sk := range cf.ScoreCandidates("alice", matrix) {
		if matrix["alice"][sk.Key] > 0 {
			t.Errorf("owned item %s recommended", sk.Key)
		}
	}
}

func TestCollaborativeSource_Recall(t *testing.T) {
	cat := catalog.NewMemoryCatalog()
	cat.AddItem(&core.CatalogItem{ID: 1, Attributes: core.Attrs{Title: "The Lord of the Rings", Genre: "fantasy"}})
	cat.AddItem(&core.CatalogItem{ID: 2, Attributes: core.Attrs{Title: "The Hobbit", Genre: "fantasy"}})
	cat.AddItem(&core.CatalogItem{ID: 3, Attributes: core.Attrs{Title: "Dune", Genre: "scifi"}})
	cat.AddItem(&core.CatalogItem{ID: 4, Attributes: core.Attrs{Title: "Cookbook", Genre: "cooking"}})
	one := func(v int64) *int64 { return &v }
	cat.AddTransaction(core.Transaction{UserID: "alice", BookID: one(1), Status: core.TxStatusDelivered})
	cat.AddTransaction(core.Transaction{UserID: "alice", BookID: one(2), Status: core.TxStatusDelivered})
	cat.AddTransaction(core.Transaction{UserID: "bob", BookID: one(1), Status: core.TxStatusDelivered})
	cat.AddTransaction(core.Transaction{UserID: "bob", BookID: one(2), Status: core.TxStatusDelivered})
	cat.AddTransaction(core.Transaction{UserID: "bob", BookID: one(3), Status: core.TxStatusDelivered})
	cat.AddTransaction(core.Transaction{UserID: "carol", BookID: one(4), Status: core.TxStatusDelivered})

	cache := bundle.NewCache(&bundle.Builder{Catalog: cat}, time.Hour)
	src := &CollaborativeSource{Cache: cache, TopK: 5}

	cands, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "alice"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(cands) != 1 || cands[0].Key != "book_3" {
		t.Fatalf("cands = %v, want [book_3]", cands)
	}
	if lbl, ok := cands[0].Labels["recall_source"]; !ok || lbl.Value != "collaborative" {
		t.Errorf("recall_source label = %v", cands[0].Labels)
	}

	// 匿名请求直接跳过，不触发矩阵束构建
	cands, err = src.Recall(context.Background(), &core.RecommendContext{})
	if err != nil || len(cands) != 0 {
		t.Errorf("anonymous recall = %v, %v", cands, err)
	}
}
