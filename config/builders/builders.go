// Package builders 注册内置 Node 的配置构建器。
//
// 无运行时依赖的节点（rerank.topn、filter 的 exclude_keys）通过 init 注册，
// 入口处 import _ 即可。依赖 Bundle 缓存/商品目录/特征服务的节点
// （召回源、规则过滤、偏好调权）需要调用 RegisterRecommendNodes 注入依赖后注册。
package builders

import (
	"fmt"
	"time"

	"github.com/bibliotrack/recommender/bundle"
	"github.com/bibliotrack/recommender/config"
	"github.com/bibliotrack/recommender/core"
	"github.com/bibliotrack/recommender/filter"
	"github.com/bibliotrack/recommender/pipeline"
	"github.com/bibliotrack/recommender/pkg/conv"
	"github.com/bibliotrack/recommender/rank"
	"github.com/bibliotrack/recommender/recall"
	"github.com/bibliotrack/recommender/rerank"
)

func init() {
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter", buildFilterNode(nil))
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

// Deps 是配置驱动时注入的运行时依赖。
type Deps struct {
	Cache    *bundle.Cache
	Catalog  core.CatalogStore
	Store    core.KeyValueStore
	Features core.FeatureService
}

// RegisterRecommendNodes 注册依赖运行时对象的 Node 构建器：
// recall.fanout、recall.collaborative、recall.content、recall.popular、
// rank.preference，并把 filter 升级为支持 rule / availability 类型。
func RegisterRecommendNodes(deps Deps) {
	config.Register("recall.collaborative", func(cfg map[string]interface{}) (pipeline.Node, error) {
		src, err := buildCollaborativeSource(deps, cfg)
		if err != nil {
			return nil, err
		}
		return &recall.Fanout{Sources: []recall.Source{src}, Dedup: true}, nil
	})
	config.Register("recall.content", func(cfg map[string]interface{}) (pipeline.Node, error) {
		src, err := buildContentSource(deps, cfg)
		if err != nil {
			return nil, err
		}
		return &recall.Fanout{Sources: []recall.Source{src}, Dedup: true}, nil
	})
	config.Register("recall.popular", func(cfg map[string]interface{}) (pipeline.Node, error) {
		src, err := buildPopularSource(deps, cfg)
		if err != nil {
			return nil, err
		}
		return &recall.Fanout{Sources: []recall.Source{src}, Dedup: true}, nil
	})
	config.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})
	config.Register("rank.preference", func(cfg map[string]interface{}) (pipeline.Node, error) {
		if deps.Features == nil {
			return nil, fmt.Errorf("rank.preference requires a feature service")
		}
		return &rank.PreferenceBoost{
			Features: deps.Features,
			Cache:    deps.Cache,
			Strength: conv.ConfigGetFloat(cfg, "strength", 0),
		}, nil
	})
	config.Register("filter", buildFilterNode(&deps))
}

func buildFanoutNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		var (
			src recall.Source
			err error
		)
		switch sourceType {
		case "collaborative":
			src, err = buildCollaborativeSource(deps, sourceMap)
		case "content":
			src, err = buildContentSource(deps, sourceMap)
		case "popular":
			src, err = buildPopularSource(deps, sourceMap)
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet(cfg, "dedup", true),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	return fanout, nil
}

func buildCollaborativeSource(deps Deps, cfg map[string]interface{}) (recall.Source, error) {
	if deps.Cache == nil {
		return nil, fmt.Errorf("collaborative source requires a bundle cache")
	}
	return &recall.CollaborativeSource{
		Cache: deps.Cache,
		CF: recall.UserCF{
			TopNeighbors:   conv.ConfigGetInt(cfg, "top_neighbors", 0),
			MinCorrelation: conv.ConfigGetFloat(cfg, "min_correlation", 0),
		},
		TopK: conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

func buildContentSource(deps Deps, cfg map[string]interface{}) (recall.Source, error) {
	if deps.Cache == nil {
		return nil, fmt.Errorf("content source requires a bundle cache")
	}
	return &recall.ContentSource{
		Cache:     deps.Cache,
		Threshold: conv.ConfigGetFloat(cfg, "threshold", 0),
		TopK:      conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

func buildPopularSource(deps Deps, cfg map[string]interface{}) (recall.Source, error) {
	if deps.Catalog == nil && deps.Store == nil {
		return nil, fmt.Errorf("popular source requires a catalog or kv store")
	}
	return &recall.Popularity{
		Catalog: deps.Catalog,
		Store:   deps.Store,
		Key:     conv.ConfigGet(cfg, "key", ""),
		TopK:    conv.ConfigGetInt(cfg, "top_k", 0),
	}, nil
}

// buildFilterNode 返回 filter 节点构建器。deps 为 nil 时只支持 exclude_keys。
func buildFilterNode(deps *Deps) config.NodeBuilder {
	return func(cfg map[string]interface{}) (pipeline.Node, error) {
		filtersConfig, ok := cfg["filters"].([]interface{})
		if !ok {
			return nil, fmt.Errorf("filters not found or invalid")
		}

		filters := make([]filter.Filter, 0, len(filtersConfig))
		for _, fc := range filtersConfig {
			filterMap, ok := fc.(map[string]interface{})
			if !ok {
				continue
			}
			filterType := conv.ConfigGet(filterMap, "type", "")
			switch filterType {
			case "exclude_keys":
				keys := conv.SliceAnyToString(filterMap["keys"])
				filters = append(filters, filter.NewExcludeKeysFilter(keys...))

			case "rule":
				if deps == nil || deps.Cache == nil {
					return nil, fmt.Errorf("rule filter requires a bundle cache")
				}
				expr := conv.ConfigGet(filterMap, "expr", "")
				if expr == "" {
					return nil, fmt.Errorf("rule filter: expr is required")
				}
				filters = append(filters, &filter.RuleFilter{Expr: expr, Cache: deps.Cache})

			case "availability":
				if deps == nil || deps.Catalog == nil {
					return nil, fmt.Errorf("availability filter requires a catalog")
				}
				filters = append(filters, &filter.AvailabilityFilter{Catalog: deps.Catalog})

			default:
				return nil, fmt.Errorf("unknown filter type: %s", filterType)
			}
		}

		return &filter.FilterNode{Filters: filters}, nil
	}
}
