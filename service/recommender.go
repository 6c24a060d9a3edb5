package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/filter"
	"github.com/bibliotrack/recommender/pipeline"
	"github.com/bibliotrack/recommender/rank"
	"github.com/bibliotrack/recommender/recall"
	"github.com/bibliotrack/recommender/rerank"
)

// 各公开操作的推荐默认 topN，调用方不关心数量时传入即可。
const (
	DefaultPersonalizedTopN = 10
	DefaultContentTopN      = 5
	DefaultPopularTopN      = 10
)

// Recommender 是混合推荐的门面，对外提供四个公开操作：
//
//   - GetPersonalizedRecommendations：协同过滤为主的个性化推荐
//   - GetContentRecommendations：种子物品的内容相似推荐
//   - GetPopularItems：热门榜（只读存储，不依赖矩阵束）
//   - InvalidateCache / Refresh：缓存失效与立即重训
//
// 混合策略：协同半边（最多 topN/2）在前，内容半边（最多 topN/2）在后，
// 拼接后按合成键去重（先出现者胜），截断到 topN，再经目录解析为物品。
// 两个半边都为空时无条件落到热门兜底，任何链路失败都不向调用方抛出。
type Recommender struct {
	catalog core.CatalogStore
	cache   *bundle.Cache
	popular *recall.Popularity

	queryStore core.Store
	queryTTL   time.Duration
	// queryGen 查询缓存的代号；失效时自增，旧代缓存自然过期
	queryGen atomic.Int64

	features core.FeatureService
	strength float64
	filters  []filter.Filter

	cfg    core.RecommendConfig
	logger zerolog.Logger
}

// Option 配置 Recommender 的可选项。
type Option func(*Recommender)

// WithQueryStore 开启按 (userID, seedKey, topN) 维度的结果缓存。
// ttl <= 0 时取配置的 DefaultQueryTTL。
func WithQueryStore(store core.Store, ttl time.Duration) Option {
	return func(r *Recommender) {
		r.queryStore = store
		r.queryTTL = ttl
	}
}

// WithPopularity 替换默认的热门兜底召回源（例如挂接预计算榜单）。
func WithPopularity(p *recall.Popularity) Option {
	return func(r *Recommender) { r.popular = p }
}

// WithFeatureService 开启偏好调权：按用户的体裁/类目偏好乘性加权。
// strength <= 0 时使用节点默认强度。
func WithFeatureService(fs core.FeatureService, strength float64) Option {
	return func(r *Recommender) {
		r.features = fs
		r.strength = strength
	}
}

// WithFilters 追加业务过滤器（规则过滤、可上架过滤等），在截断前生效。
func WithFilters(filters ...filter.Filter) Option {
	return func(r *Recommender) { r.filters = append(r.filters, filters...) }
}

// WithConfig 替换默认阈值配置。
func WithConfig(cfg core.RecommendConfig) Option {
	return func(r *Recommender) { r.cfg = cfg }
}

// WithLogger 注入结构化日志。
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = logger }
}

// NewRecommender 创建推荐门面。catalog 与 cache 必填；
// 热门兜底默认从 catalog 现算，可用 WithPopularity 挂接预计算榜单。
func NewRecommender(catalog core.CatalogStore, cache *bundle.Cache, opts ...Option) *Recommender {
	r := &Recommender{
		catalog: catalog,
		cache:   cache,
		cfg:     &core.DefaultRecommendConfig{},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.popular == nil {
		r.popular = &recall.Popularity{Catalog: catalog}
	}
	if r.queryStore != nil && r.queryTTL <= 0 {
		r.queryTTL = r.cfg.DefaultQueryTTL()
	}
	return r
}

// GetPersonalizedRecommendations 返回用户的个性化推荐。
// 用户无交易历史（冷启动）时结果与热门榜一致；topN <= 0 返回空列表。
func (r *Recommender) GetPersonalizedRecommendations(ctx context.Context, userID string, topN int) ([]core.Item, error) {
	return r.recommend(ctx, userID, "", topN)
}

// GetContentRecommendations 返回种子物品的内容相似推荐。
// 种子不在当前矩阵里（冷启动/已下架）时落到热门兜底。
func (r *Recommender) GetContentRecommendations(ctx context.Context, itemKey string, topN int) ([]core.Item, error) {
	return r.recommend(ctx, "", itemKey, topN)
}

// GetPopularItems 返回热门物品，只读存储，不触发矩阵束重建。
func (r *Recommender) GetPopularItems(ctx context.Context, topN int) ([]core.Item, error) {
	if topN <= 0 {
		return []core.Item{}, nil
	}
	cands, err := r.popular.Recall(ctx, &core.RecommendContext{TopN: topN})
	if err != nil || len(cands) == 0 {
		return []core.Item{}, nil
	}
	if len(cands) > topN {
		cands = cands[:topN]
	}
	return r.resolve(ctx, cands), nil
}

// InvalidateCache 清空矩阵束缓存与查询缓存，下次请求触发整代重建。
func (r *Recommender) InvalidateCache(ctx context.Context) {
	r.cache.Invalidate()
	r.queryGen.Add(1)
	r.logger.Info().Msg("recommender: caches invalidated")
}

// Refresh 立即重训：清空查询缓存并同步重建矩阵束。
// 供外部调度任务（定时重训）调用。
func (r *Recommender) Refresh(ctx context.Context) error {
	r.queryGen.Add(1)
	if _, err := r.cache.Refresh(ctx); err != nil {
		return err
	}
	r.logger.Info().Msg("recommender: bundle rebuilt")
	return nil
}

// recommend 是混合推荐主链路。userID 与 seedKey 至少一个非空，
// 否则两个半边都为空、直接落热门兜底。
func (r *Recommender) recommend(ctx context.Context, userID, seedKey string, topN int) ([]core.Item, error) {
	if topN <= 0 {
		return []core.Item{}, nil
	}

	if items, ok := r.cachedResult(ctx, userID, seedKey, topN); ok {
		return items, nil
	}

	rctx := &core.RecommendContext{
		UserID:      userID,
		SeedItemKey: seedKey,
		TopN:        topN,
	}

	cands := r.runHybrid(ctx, rctx, topN)

	// 两个半边都为空（冷启动/矩阵束重建失败/无数据）时无条件热门兜底
	if len(cands) == 0 {
		cands = r.fallback(ctx, rctx, seedKey, topN)
	}

	items := r.resolve(ctx, cands)
	r.storeResult(ctx, userID, seedKey, topN, items)
	return items, nil
}

// runHybrid 执行混合召回 Pipeline；任何失败降级为空结果。
func (r *Recommender) runHybrid(ctx context.Context, rctx *core.RecommendContext, topN int) []*core.Candidate {
	half := topN / 2
	if half <= 0 {
		return nil
	}

	sources := make([]recall.Source, 0, 2)
	if rctx.UserID != "" {
		sources = append(sources, &recall.CollaborativeSource{
			Cache: r.cache,
			CF: recall.UserCF{
				TopNeighbors:   r.cfg.DefaultTopNeighbors(),
				MinCorrelation: r.cfg.DefaultCorrelationThreshold(),
				Logger:         r.logger,
			},
			TopK: half,
		})
	}
	if rctx.SeedItemKey != "" {
		sources = append(sources, &recall.ContentSource{
			Cache:     r.cache,
			Threshold: r.cfg.DefaultSimilarityThreshold(),
			TopK:      half,
		})
	}
	if len(sources) == 0 {
		return nil
	}

	// 协同源声明在前，去重时同键冲突协同胜出
	nodes := []pipeline.Node{
		&recall.Fanout{Sources: sources, Dedup: true},
	}

	filters := r.filters
	if rctx.SeedItemKey != "" {
		filters = append([]filter.Filter{filter.NewExcludeKeysFilter(rctx.SeedItemKey)}, filters...)
	}
	if len(filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: filters})
	}
	if r.features != nil {
		nodes = append(nodes, &rank.PreferenceBoost{
			Features: r.features,
			Cache:    r.cache,
			Strength: r.strength,
		})
	}
	nodes = append(nodes, &rerank.TopNNode{N: topN})

	p := &pipeline.Pipeline{Nodes: nodes}
	cands, err := p.Run(ctx, rctx, nil)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("user_id", rctx.UserID).
			Str("seed", rctx.SeedItemKey).
			Msg("recommender: hybrid pipeline failed, falling back to popular")
		return nil
	}
	return cands
}

// fallback 热门兜底：排除种子、截断到 topN；失败返回空列表而非错误。
func (r *Recommender) fallback(ctx context.Context, rctx *core.RecommendContext, seedKey string, topN int) []*core.Candidate {
	cands, err := r.popular.Recall(ctx, rctx)
	if err != nil || len(cands) == 0 {
		return nil
	}
	out := make([]*core.Candidate, 0, topN)
	for _, c := range cands {
		if c == nil || c.Key == seedKey {
			continue
		}
		out = append(out, c)
		if len(out) >= topN {
			break
		}
	}
	return out
}

// resolve 把候选键解析为物品；单个键解析失败（已删除/畸形）静默丢弃。
func (r *Recommender) resolve(ctx context.Context, cands []*core.Candidate) []core.Item {
	items := make([]core.Item, 0, len(cands))
	for _, c := range cands {
		if c == nil {
			continue
		}
		ref, err := core.ParseItemKey(c.Key)
		if err != nil {
			r.logger.Debug().Str("key", c.Key).Msg("recommender: malformed candidate key, dropped")
			continue
		}
		item, err := r.catalog.GetItem(ctx, ref)
		if err != nil {
			r.logger.Debug().Str("key", c.Key).Err(err).Msg("recommender: candidate resolution failed, dropped")
			continue
		}
		items = append(items, item)
	}
	return items
}

// queryKey 查询缓存键，包含代号，失效后旧代条目不再命中。
func (r *Recommender) queryKey(userID, seedKey string, topN int) string {
	return fmt.Sprintf("rec:q:%d:%s|%s|%d", r.queryGen.Load(), userID, seedKey, topN)
}

// cachedResult 查询缓存命中时重新解析键列表返回。
// 缓存只存合成键，属性始终从目录取最新值。
func (r *Recommender) cachedResult(ctx context.Context, userID, seedKey string, topN int) ([]core.Item, bool) {
	if r.queryStore == nil {
		return nil, false
	}
	raw, err := r.queryStore.Get(ctx, r.queryKey(userID, seedKey, topN))
	if err != nil {
		return nil, false
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false
	}
	cands := make([]*core.Candidate, 0, len(keys))
	for _, k := range keys {
		cands = append(cands, core.NewCandidate(k))
	}
	return r.resolve(ctx, cands), true
}

func (r *Recommender) storeResult(ctx context.Context, userID, seedKey string, topN int, items []core.Item) {
	if r.queryStore == nil {
		return
	}
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key())
	}
	raw, err := json.Marshal(keys)
	if err != nil {
		return
	}
	ttl := int(r.queryTTL / time.Second)
	if err := r.queryStore.Set(ctx, r.queryKey(userID, seedKey, topN), raw, ttl); err != nil {
		r.logger.Debug().Err(err).Msg("recommender: query cache write failed")
	}
}
