package recall

import (
	"context"
	"sort"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pkg/utils"
)

// ContentSource 是基于内容的召回源：从当前一代相似度矩阵取种子物品所在行，
// 按相似度降序返回候选。
//
// 规则：
//   - 始终排除种子物品自身
//   - 相似度 <= Threshold 的候选丢弃
//   - 相似度并列按合成键升序，保证确定性
//   - 种子不在矩阵里（冷启动/已下架）返回空列表，不报错
type ContentSource struct {
	Cache *bundle.Cache

	// Threshold 最小相似度；<= 0 时取 0.1
	Threshold float64

	// TopK 返回的候选数上限；<= 0 不截断
	TopK int
}

func (s *ContentSource) Name() string { return "recall.content" }

func (s *ContentSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Candidate, error) {
	if s.Cache == nil || rctx == nil || rctx.SeedItemKey == "" {
		return nil, nil
	}
	b, err := s.Cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	seedIdx, ok := b.IndexOf(rctx.SeedItemKey)
	if !ok {
		return nil, nil
	}
	row := b.Similarity[seedIdx]

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = 0.1
	}

	scored := make([]ScoredKey, 0)
	for j, score := range row {
		if j == seedIdx || score <= threshold {
			continue
		}
		scored = append(scored, ScoredKey{Key: b.ItemKeys[j], Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Key < scored[j].Key
	})
	if s.TopK > 0 && len(scored) > s.TopK {
		scored = scored[:s.TopK]
	}

	out := make([]*core.Candidate, 0, len(scored))
	for _, sk := range scored {
		c := core.NewCandidate(sk.Key)
		c.Score = sk.Score
		c.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

var _ Source = (*ContentSource)(nil)
