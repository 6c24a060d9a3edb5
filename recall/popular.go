package recall

import (
	"context"
	"sort"

	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/pkg/utils"
)

// Popularity 是热门召回源，推荐链路的最后一道防线。
//
// 取数顺序：
//   - 如果配置了 KeyValueStore 且 key 非空，优先读预计算榜单（有序集合，
//     离线任务定期写入，member 为合成键、score 为成交数）
//   - 否则从目录/交易存储现算：按 (成交数降序, 评分降序, 合成键升序) 排序
//
// 现算路径只依赖存储读取，不依赖矩阵束缓存；任一读取失败返回空列表而非错误，
// 保证热门兜底永不向上抛出。
type Popularity struct {
	Catalog core.CatalogStore

	// Store 预计算榜单的 KV 后端（可选）
	Store core.KeyValueStore

	// Key 榜单在 Store 中的 key，例如 "popular:items"
	Key string

	// CountedStatuses 计入成交数的交易状态集；为空时取 {confirmed, delivered}
	CountedStatuses map[string]struct{}

	// TopK 返回的候选数上限；<= 0 不截断
	TopK int
}

func (s *Popularity) Name() string { return "recall.popular" }

func (s *Popularity) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Candidate, error) {
	// 优先读预计算榜单
	if s.Store != nil && s.Key != "" {
		stop := int64(99)
		if s.TopK > 0 {
			stop = int64(s.TopK) - 1
		}
		members, err := s.Store.ZRange(ctx, s.Key, 0, stop)
		if err == nil && len(members) > 0 {
			out := make([]*core.Candidate, 0, len(members))
			for i, m := range members {
				c := core.NewCandidate(m)
				c.Score = float64(len(members) - i)
				c.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
				out = append(out, c)
			}
			return out, nil
		}
	}

	if s.Catalog == nil {
		return nil, nil
	}
	return s.computeFromCatalog(ctx)
}

// computeFromCatalog 现算热门榜：成交数降序、评分降序、合成键升序。
func (s *Popularity) computeFromCatalog(ctx context.Context) ([]*core.Candidate, error) {
	items, err := s.Catalog.ListItems(ctx)
	if err != nil {
		return nil, nil // 兜底路径不抛错
	}
	txs, err := s.Catalog.ListTransactions(ctx)
	if err != nil {
		return nil, nil
	}

	counted := s.CountedStatuses
	if len(counted) == 0 {
		counted = map[string]struct{}{
			core.TxStatusConfirmed: {},
			core.TxStatusDelivered: {},
		}
	}

	orders := make(map[string]int)
	for _, tx := range txs {
		if _, ok := counted[tx.Status]; !ok {
			continue
		}
		if ref, ok := tx.ItemRef(); ok {
			orders[ref.Key()]++
		}
	}

	type popItem struct {
		key    string
		count  int
		rating float64
	}
	pop := make([]popItem, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if listing, ok := it.(*core.UserListedItem); ok && !listing.Available {
			continue
		}
		key := it.Key()
		pop = append(pop, popItem{key: key, count: orders[key], rating: it.Attrs().Rating})
	}

	sort.Slice(pop, func(i, j int) bool {
		if pop[i].count != pop[j].count {
			return pop[i].count > pop[j].count
		}
		if pop[i].rating != pop[j].rating {
			return pop[i].rating > pop[j].rating
		}
		return pop[i].key < pop[j].key
	})
	if s.TopK > 0 && len(pop) > s.TopK {
		pop = pop[:s.TopK]
	}

	out := make([]*core.Candidate, 0, len(pop))
	for _, p := range pop {
		c := core.NewCandidate(p.key)
		c.Score = float64(p.count)
		c.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, c)
	}
	return out, nil
}

var _ Source = (*Popularity)(nil)
